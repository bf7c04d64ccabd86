package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/snapshot"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errNoSnapshotDB = errors.New("no snapshot database configured (use --snapshot-db)")

func newSnapshotCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect stored handler results",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list [RUN_ID]",
		Short: "List runs, or the results stored for one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(v)
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				runs, err := store.Runs()
				if err != nil {
					return err
				}
				for _, id := range runs {
					fmt.Fprintln(out, id)
				}
				return nil
			}

			infos, err := store.List(args[0])
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				return fmt.Errorf("run %s: %w", args[0], snapshot.ErrNotFound)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SEQ\tHANDLER\tSIZE\tSAVED")
			for _, info := range infos {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n",
					info.Sequence, info.Handler, humanize.Bytes(uint64(info.Size)), humanize.Time(info.Timestamp))
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show RUN_ID",
		Short: "Print the stored results of a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(v)
			if err != nil {
				return err
			}
			defer store.Close()

			records, err := snapshot.Load(store, args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		},
	})

	return cmd
}

func openStore(v *viper.Viper) (*snapshot.SQLiteStore, error) {
	s, err := loadSettings(v)
	if err != nil {
		return nil, err
	}
	if s.SnapshotDB == "" {
		return nil, errNoSnapshotDB
	}
	return snapshot.NewSQLiteStore(s.SnapshotDB)
}
