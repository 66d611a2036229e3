package cli

import (
	"fmt"

	"bamazon/internal/app"

	"github.com/spf13/cobra"
)

func newSeedCommand(s *session) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load departments and products from a YAML file into an empty store",
		Args:  cobra.NoArgs,
		RunE: s.run(func(cmd *cobra.Command) error {
			if s.store == nil {
				return errRemoteSeed
			}
			res, err := app.SeedFromFile(cmd.Context(), s.store, file, s.log)
			if err != nil {
				return fmt.Errorf("failed to seed catalog: %w", err)
			}
			if res.Skipped {
				say(cmd, warnStyle.Render("Store already has data, nothing seeded."))
				return nil
			}
			say(cmd, successStyle.Render(fmt.Sprintf("Seeded %d departments and %d products.", res.Departments, res.Products)))
			return nil
		}),
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the catalog YAML file")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
