package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/husk/internal/domain/models"
	"github.com/mamadbah2/husk/internal/service/reporting"
)

const dayLayout = "2006-01-02"

func (a *App) reportCommand() *cobra.Command {
	var (
		year    string
		from    string
		to      string
		product string
		reduce  int
		pass    string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarise revenue, costs and profit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loc := a.engine.Location()
			f := reporting.Filter{Year: year, ProductType: models.ProductType(strings.ToLower(product))}

			var err error
			if f.From, err = parseBound("from", from, loc, false); err != nil {
				return err
			}
			if f.To, err = parseBound("to", to, loc, true); err != nil {
				return err
			}
			if err := f.Validate(); err != nil {
				return err
			}

			if pass != "" {
				if err := a.vault.Unlock(cmd.Context(), pass); err != nil {
					return err
				}
				defer a.vault.Lock()
				// The report shows the engine's latest broadcast; seed it
				// with the stored figure.
				amount, err := a.vault.Capital(cmd.Context())
				if err != nil {
					return err
				}
				a.engine.SetCapital(amount)
			}

			purchases := a.ledger.Purchases()
			if reduce > 0 {
				if _, err := a.engine.ReduceCount(purchases, f, reduce); err != nil {
					return err
				}
			}

			r, err := a.engine.Build(f, purchases, a.ledger.Wages(), a.ledger.Outputs())
			if err != nil {
				return err
			}
			if !a.vault.Unlocked() {
				r.Capital = nil
			}
			writeReport(cmd.OutOrStdout(), r, loc)
			return nil
		},
	}

	cmd.Flags().StringVar(&year, "year", reporting.AllYears, `calendar year to report on, or "all"`)
	cmd.Flags().StringVar(&from, "from", "", "first day included (YYYY-MM-DD or a full timestamp)")
	cmd.Flags().StringVar(&to, "to", "", "last day included (YYYY-MM-DD or a full timestamp)")
	cmd.Flags().StringVar(&product, "product", "", "restrict sales to coconut, husk or shell")
	cmd.Flags().IntVar(&reduce, "reduce", 0, "lower the coconuts-bought figure by this many for this run")
	cmd.Flags().StringVarP(&pass, "passphrase", "p", "", "capital panel passphrase; shows the running capital")
	return cmd
}

// parseBound reads a filter bound. A bare day covers the whole day in loc.
func parseBound(field, raw string, loc *time.Location, endOfDay bool) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if len(raw) == len(dayLayout) {
		t, err := time.ParseInLocation(dayLayout, raw, loc)
		if err != nil {
			return nil, models.NewValidationError(field, "invalid")
		}
		if endOfDay {
			t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
		}
		return &t, nil
	}
	t, err := models.ParseDate(raw)
	if err != nil {
		return nil, models.NewValidationError(field, "invalid")
	}
	return &t, nil
}

func writeReport(w io.Writer, r reporting.Report, loc *time.Location) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total revenue\t%s\n", models.FormatMoney(r.TotalRevenue))
	fmt.Fprintf(tw, "Input costs\t%s\n", models.FormatMoney(r.InputCosts))
	fmt.Fprintf(tw, "Labour costs\t%s\n", models.FormatMoney(r.LabourCosts))
	fmt.Fprintf(tw, "Total costs\t%s\n", models.FormatMoney(r.TotalCosts))
	fmt.Fprintf(tw, "Net profit\t%s\n", models.FormatMoney(r.NetProfit))
	fmt.Fprintf(tw, "Profit margin\t%s%%\n", r.ProfitMargin.StringFixed(1))
	if r.Capital != nil {
		fmt.Fprintf(tw, "Capital\t%s\n", models.FormatMoney(*r.Capital))
	}
	fmt.Fprintln(tw)

	fmt.Fprintf(tw, "Purchases\t%d\n", r.Purchases)
	fmt.Fprintf(tw, "Coconuts bought\t%d\n", r.CoconutsBought)
	fmt.Fprintf(tw, "Labour days\t%s\n", r.LabourDays.String())
	fmt.Fprintf(tw, "Husk\t%s loads (%s sq ft)\n", r.HuskLoads.String(), r.HuskSquareFeet.String())
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "PRODUCT\tQUANTITY\tREVENUE")
	for _, p := range r.Products {
		fmt.Fprintf(tw, "%s\t%s %s\t%s\n", p.ProductType, p.Quantity.String(), p.Unit, models.FormatMoney(p.Revenue))
	}

	if len(r.RecentOutputs) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "RECENT SALES\t\t")
		for _, o := range r.RecentOutputs {
			fmt.Fprintf(tw, "%s\t%s %s %s\t%s\n", o.Date.In(loc).Format(dayLayout),
				o.Quantity().String(), o.ProductType.Unit(), o.ProductType, models.FormatMoney(o.TotalPrice))
		}
	}
	_ = tw.Flush()
}
