package main

import (
	"fmt"

	"github.com/diewo77/go-garage/internal/models"
	"github.com/diewo77/go-garage/internal/report"
	"github.com/spf13/cobra"
)

func newInventoryCmd(o *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inventory",
		Short: "Manage stocked parts",
	}

	var item models.InventoryItem
	upsert := &cobra.Command{
		Use:   "upsert",
		Short: "Add an item or replace the item with the same code",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			if err := a.store.UpsertInventoryItem(&item); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Item %s stored: %d x %s\n", item.ItemCode, item.Quantity, a.renderer.Money(item.UnitPrice))
			return nil
		}),
	}
	upsert.Flags().StringVar(&item.ItemCode, "code", "", "item code")
	upsert.Flags().StringVar(&item.Description, "description", "", "item description")
	upsert.Flags().IntVar(&item.Quantity, "quantity", 0, "quantity on hand")
	upsert.Flags().Float64Var(&item.UnitPrice, "price", 0, "unit price")

	list := &cobra.Command{
		Use:   "list",
		Short: "List items by code",
		Args:  cobra.NoArgs,
		RunE: withApp(o, func(a *app, _ *cobra.Command, _ []string) error {
			tw := newTable(a.out)
			fmt.Fprintln(tw, "CODE\tDESCRIPTION\tQTY\tUNIT PRICE\tVALUE")
			for it, err := range a.store.ListInventory() {
				if err != nil {
					tw.Flush()
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", it.ItemCode, it.Description, it.Quantity,
					report.Amount(it.UnitPrice), report.Amount(it.Value()))
			}
			return tw.Flush()
		}),
	}

	cmd.AddCommand(upsert, list)
	return cmd
}
