package cli

import (
	"fmt"

	"bamazon/internal/domain"

	"github.com/spf13/cobra"
)

func newCustomerCommand(s *session) *cobra.Command {
	customer := &cobra.Command{
		Use:   "customer",
		Short: "Browse and buy products",
	}

	customer.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List products for sale",
		Args:  cobra.NoArgs,
		RunE: s.run(func(cmd *cobra.Command) error {
			products, err := s.useCases.Catalog.ListProducts(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list products: %w", err)
			}
			if len(products) == 0 {
				say(cmd, warnStyle.Render("No products available."))
				return nil
			}
			say(cmd, RenderProducts(products))
			return nil
		}),
	})

	var productID, quantity int
	buy := &cobra.Command{
		Use:   "buy",
		Short: "Buy a quantity of one product",
		Args:  cobra.NoArgs,
		RunE: s.run(func(cmd *cobra.Command) error {
			outcome, err := s.useCases.Purchase.Purchase(cmd.Context(), productID, quantity)
			if err != nil {
				say(cmd, errorStyle.Render(err.Error()))
				return err
			}
			switch outcome.Status {
			case domain.PurchaseSuccess:
				say(cmd, successStyle.Render(outcome.Message()))
			case domain.PurchaseInsufficientStock:
				say(cmd, warnStyle.Render(outcome.Message()))
			default:
				say(cmd, errorStyle.Render(outcome.Message()))
				if outcome.Err != nil {
					return outcome.Err
				}
			}
			return nil
		}),
	}
	buy.Flags().IntVar(&productID, "id", 0, "ID of the product to buy")
	buy.Flags().IntVarP(&quantity, "quantity", "q", 0, "Number of units to buy")
	_ = buy.MarkFlagRequired("id")
	_ = buy.MarkFlagRequired("quantity")
	customer.AddCommand(buy)

	return customer
}
