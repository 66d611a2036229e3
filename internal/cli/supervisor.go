package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newSupervisorCommand(s *session) *cobra.Command {
	supervisor := &cobra.Command{
		Use:   "supervisor",
		Short: "Review department profit and add departments",
	}

	supervisor.AddCommand(&cobra.Command{
		Use:   "report",
		Short: "View product sales by department",
		Args:  cobra.NoArgs,
		RunE: s.run(func(cmd *cobra.Command) error {
			report, err := s.useCases.Department.DepartmentReport(cmd.Context())
			if err != nil {
				say(cmd, errorStyle.Render("Unable to build the profit report."))
				return fmt.Errorf("failed to build report: %w", err)
			}
			say(cmd, RenderProfitReport(report))
			return nil
		}),
	})

	var (
		name string
		cost float64
	)
	add := &cobra.Command{
		Use:   "add-department",
		Short: "Create a new department",
		Args:  cobra.NoArgs,
		RunE: s.run(func(cmd *cobra.Command) error {
			outcome, err := s.useCases.Department.RegisterDepartment(cmd.Context(), name, cost)
			if err != nil && outcome.Status == "" {
				say(cmd, errorStyle.Render("Unable to add the department."))
				return fmt.Errorf("failed to add department: %w", err)
			}
			if !outcome.Rejected() {
				say(cmd, successStyle.Render(outcome.Message()))
				return nil
			}

			say(cmd, errorStyle.Render(outcome.Message()))
			if names, err := s.useCases.Department.ListDepartmentNames(cmd.Context()); err == nil {
				say(cmd, warnStyle.Render("Current departments:"))
				say(cmd, successStyle.Render(strings.Join(names, "\n")))
			}
			if err != nil {
				return err
			}
			if outcome.Err != nil {
				return outcome.Err
			}
			return fmt.Errorf("department not added: %s", outcome.Status)
		}),
	}
	add.Flags().StringVarP(&name, "name", "n", "", "Name of the new department")
	add.Flags().Float64VarP(&cost, "cost", "c", 0, "Overhead cost of the new department")
	_ = add.MarkFlagRequired("name")
	_ = add.MarkFlagRequired("cost")
	supervisor.AddCommand(add)

	return supervisor
}
