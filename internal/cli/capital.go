package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mamadbah2/husk/internal/domain/models"
	"github.com/mamadbah2/husk/internal/service/capital"
)

func (a *App) capitalCommand() *cobra.Command {
	var passphrase string

	cmd := &cobra.Command{
		Use:   "capital",
		Short: "Show or change the running capital",
	}
	cmd.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "capital panel passphrase")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the running capital",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.vault.Unlock(cmd.Context(), passphrase); err != nil {
				return err
			}
			defer a.vault.Lock()

			amount, err := a.vault.Capital(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Capital: %s\n", models.FormatMoney(amount))
			return nil
		},
	})

	var (
		amount        string
		newPassphrase string
		confirm       string
	)
	setCmd := &cobra.Command{
		Use:   "set",
		Short: "Set the capital figure and/or the passphrase",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := capital.Settings{Passphrase: newPassphrase, Confirm: confirm}
			if cmd.Flags().Changed("amount") {
				d, err := parseAmount("capital", amount)
				if err != nil {
					return err
				}
				s.Capital = &d
			}

			if err := a.vault.Unlock(cmd.Context(), passphrase); err != nil {
				return err
			}
			defer a.vault.Lock()

			if err := a.vault.UpdateSettings(cmd.Context(), s); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Capital settings saved")
			return nil
		},
	}
	setCmd.Flags().StringVar(&amount, "amount", "", "new capital figure")
	setCmd.Flags().StringVar(&newPassphrase, "new-passphrase", "", "new panel passphrase")
	setCmd.Flags().StringVar(&confirm, "confirm", "", "repeat the new passphrase")

	cmd.AddCommand(setCmd)
	return cmd
}
