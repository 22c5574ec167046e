package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/husk/internal/domain/models"
)

func (a *App) outputsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outputs",
		Short: "Manage product sales (kept in the local cache only)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sales, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDATE\tPRODUCT\tQUANTITY\tTOTAL")
			for _, o := range a.ledger.Outputs() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s %s\t%s\n",
					o.ID, o.Date.In(a.engine.Location()).Format("2006-01-02"), o.ProductType,
					o.Quantity().String(), o.ProductType.Unit(), models.FormatMoney(o.TotalPrice))
			}
			return tw.Flush()
		},
	})

	var (
		productType string
		quantity    string
		price       string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a sale; quantity is kg, or loads for husk",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			qty, err := parseAmount("quantity", quantity)
			if err != nil {
				return err
			}
			unitPrice, err := parseAmount("price", price)
			if err != nil {
				return err
			}
			o, err := a.ledger.AddOutput(cmd.Context(), models.ProductType(strings.ToLower(productType)), qty, unitPrice)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Output product saved (id %s, total %s)\n", o.ID, models.FormatMoney(o.TotalPrice))
			return nil
		},
	}
	addCmd.Flags().StringVar(&productType, "type", "", "product: coconut, husk or shell")
	addCmd.Flags().StringVar(&quantity, "quantity", "", "weight in kg or number of loads")
	addCmd.Flags().StringVar(&price, "price", "", "price per kg or per load")

	cmd.AddCommand(addCmd, &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a sale",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.ledger.DeleteOutput(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Output product deleted")
			return nil
		},
	})
	return cmd
}

func (a *App) clientsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clients",
		Short: "Manage the clients coconuts are bought from",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List clients",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				tw := newTable(cmd.OutOrStdout())
				fmt.Fprintln(tw, "ID\tNAME")
				for _, c := range a.ledger.Clients() {
					fmt.Fprintf(tw, "%s\t%s\n", c.ID, c.Name)
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "add NAME",
			Short: "Register a client",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, res, err := a.ledger.AddClient(cmd.Context(), strings.Join(args, " "))
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s)\n", res.Message(), c.ID)
				return nil
			},
		},
		&cobra.Command{
			Use:   "delete ID",
			Short: "Delete a client",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				printResult(cmd.OutOrStdout(), a.ledger.DeleteClient(cmd.Context(), args[0]))
				return nil
			},
		},
	)
	return cmd
}
