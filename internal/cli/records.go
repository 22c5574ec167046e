package cli

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/mamadbah2/husk/internal/domain/models"
)

type purchaseFlags struct {
	count  int
	price  string
	client string
	status string
}

func (f *purchaseFlags) bind(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.count, "count", 0, "number of coconuts bought")
	cmd.Flags().StringVar(&f.price, "price", "", "price per coconut")
	cmd.Flags().StringVar(&f.client, "client", "", "client the coconuts were bought from")
	cmd.Flags().StringVar(&f.status, "status", "", "payment status: pending, paid or partial")
}

// fields overlays the flags the user set on base.
func (f *purchaseFlags) fields(cmd *cobra.Command, base models.PurchaseFields) (models.PurchaseFields, error) {
	out := base
	if cmd.Flags().Changed("count") {
		out.Count = f.count
	}
	if cmd.Flags().Changed("price") {
		price, err := parseAmount("pricePerUnit", f.price)
		if err != nil {
			return out, err
		}
		out.PricePerUnit = price
	}
	if cmd.Flags().Changed("client") {
		out.ClientName = strings.TrimSpace(f.client)
	}
	if cmd.Flags().Changed("status") {
		out.PaymentStatus = models.PaymentStatus(strings.ToLower(strings.TrimSpace(f.status)))
	}
	return out, nil
}

func (a *App) purchasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "purchases",
		Aliases: []string{"coconut"},
		Short:   "Manage coconut purchases",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List purchases, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDATE\tCLIENT\tCOUNT\tPRICE\tTOTAL\tSTATUS")
			for _, p := range a.ledger.Purchases() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
					p.ID, p.Date.In(a.engine.Location()).Format("2006-01-02"), p.ClientName, p.Count,
					models.FormatMoney(p.PricePerUnit), models.FormatMoney(p.TotalPrice), p.PaymentStatus)
			}
			return tw.Flush()
		},
	})

	var add purchaseFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record a purchase and deduct it from capital",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := add.fields(cmd, models.PurchaseFields{})
			if err != nil {
				return err
			}
			p, res, err := a.ledger.CreatePurchase(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s, total %s)\n", res.Message(), p.ID, models.FormatMoney(p.TotalPrice))
			return nil
		},
	}
	add.bind(addCmd)

	var upd purchaseFlags
	updateCmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a purchase; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var base models.PurchaseFields
			for _, p := range a.ledger.Purchases() {
				if p.ID == args[0] {
					base = models.PurchaseFields{Count: p.Count, PricePerUnit: p.PricePerUnit, ClientName: p.ClientName, PaymentStatus: p.PaymentStatus}
					break
				}
			}
			f, err := upd.fields(cmd, base)
			if err != nil {
				return err
			}
			_, res, err := a.ledger.UpdatePurchase(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	upd.bind(updateCmd)

	cmd.AddCommand(addCmd, updateCmd, &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a purchase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printResult(cmd.OutOrStdout(), a.ledger.DeletePurchase(cmd.Context(), args[0]))
			return nil
		},
	})
	return cmd
}

type wageFlags struct {
	worker string
	days   string
	rate   string
}

func (f *wageFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.worker, "worker", "", "worker name")
	cmd.Flags().StringVar(&f.days, "days", "", "days worked, fractions allowed")
	cmd.Flags().StringVar(&f.rate, "rate", "", "rate per day")
}

func (f *wageFlags) fields(cmd *cobra.Command, base models.WageFields) (models.WageFields, error) {
	out := base
	if cmd.Flags().Changed("worker") {
		out.WorkerName = strings.TrimSpace(f.worker)
	}
	if cmd.Flags().Changed("days") {
		days, err := parseAmount("days", f.days)
		if err != nil {
			return out, err
		}
		out.Days = days
	}
	if cmd.Flags().Changed("rate") {
		rate, err := parseAmount("ratePerDay", f.rate)
		if err != nil {
			return out, err
		}
		out.RatePerDay = rate
	}
	return out, nil
}

func (a *App) labourCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "labour",
		Short: "Manage labour wages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List wages, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tDATE\tWORKER\tDAYS\tRATE\tTOTAL")
			for _, w := range a.ledger.Wages() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
					w.ID, w.Date.In(a.engine.Location()).Format("2006-01-02"), w.WorkerName, w.Days.String(),
					models.FormatMoney(w.RatePerDay), models.FormatMoney(w.TotalWage))
			}
			return tw.Flush()
		},
	})

	var add wageFlags
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Record wages paid to a worker",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := add.fields(cmd, models.WageFields{})
			if err != nil {
				return err
			}
			w, res, err := a.ledger.CreateWage(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (id %s, total %s)\n", res.Message(), w.ID, models.FormatMoney(w.TotalWage))
			return nil
		},
	}
	add.bind(addCmd)

	var upd wageFlags
	updateCmd := &cobra.Command{
		Use:   "update ID",
		Short: "Edit a wage record; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var base models.WageFields
			for _, w := range a.ledger.Wages() {
				if w.ID == args[0] {
					base = models.WageFields{WorkerName: w.WorkerName, Days: w.Days, RatePerDay: w.RatePerDay}
					break
				}
			}
			f, err := upd.fields(cmd, base)
			if err != nil {
				return err
			}
			_, res, err := a.ledger.UpdateWage(cmd.Context(), args[0], f)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}
	upd.bind(updateCmd)

	cmd.AddCommand(addCmd, updateCmd, &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a wage record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			printResult(cmd.OutOrStdout(), a.ledger.DeleteWage(cmd.Context(), args[0]))
			return nil
		},
	})
	return cmd
}

func parseAmount(field, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, models.NewValidationError(field, "invalid")
	}
	return d, nil
}
