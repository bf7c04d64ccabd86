package main

import (
	"fmt"
	"log/slog"

	"github.com/randalmurphal/tracegraph/pkg/tracegraph"
	"github.com/randalmurphal/tracegraph/pkg/tracegraph/handlers"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newOrderCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print the handler execution order",
		Long: `Resolve the selected handlers and their dependencies and print the
order they will see events in, one name per line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings(v)
			if err != nil {
				return err
			}
			p, err := handlers.NewProcessor(
				tracegraph.WithSettings(s),
				tracegraph.WithLogger(slog.New(slog.DiscardHandler)),
			)
			if err != nil {
				return err
			}
			defer p.Close()

			for i, name := range p.ExecutionOrder() {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", i+1, name)
			}
			return nil
		},
	}
}
