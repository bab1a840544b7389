package cli

import (
	"fmt"
	"os"

	"nova-client/internal/flows/payment"
	"nova-client/internal/models"

	"github.com/pkg/browser"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newPaymentsCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "payments",
		Aliases: []string{"pay"},
		Short:   "Payment history and installment payments",
	}
	cmd.AddCommand(
		newPaymentsListCommand(app),
		newPaymentsShowCommand(app),
		newPaymentsReceiptCommand(app),
		newPaymentsPayCommand(app),
		newPaymentsScheduledCommand(app),
	)
	return cmd
}

func newPaymentsListCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			list, err := a.API.ListPayments(cmd.Context())
			if err != nil {
				return failed(err, "Failed to load payments", a.Err)
			}
			if a.JSON {
				return a.printJSON(list)
			}
			if len(list) == 0 {
				a.Notifier.Info("No payments yet.")
				return nil
			}
			rows := make([][]string, 0, len(list))
			for _, p := range list {
				rows = append(rows, []string{
					p.ID,
					orDash(p.Reference),
					string(p.Type),
					string(p.Method),
					money(p.Amount) + " " + p.Currency,
					string(p.Status),
					date(p.CreatedAt),
				})
			}
			return a.table([]string{"ID", "REFERENCE", "TYPE", "METHOD", "AMOUNT", "STATUS", "DATE"}, rows)
		},
	}
}

func newPaymentsShowCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			p, err := a.API.GetPayment(cmd.Context(), args[0])
			if err != nil {
				return failed(err, "Failed to load payment", a.Err)
			}
			if a.JSON {
				return a.printJSON(p)
			}
			pairs := []string{
				"ID", p.ID,
				"Reference", orDash(p.Reference),
				"Type", string(p.Type),
				"Method", string(p.Method),
				"Amount", money(p.Amount) + " " + p.Currency,
				"Status", string(p.Status),
				"Settled", yesNo(p.Status.Settled()),
				"Financing", orDash(p.FinancingID),
				"Date", date(p.CreatedAt),
			}
			if p.CryptoAddress != "" {
				pairs = append(pairs, "Crypto address", p.CryptoAddress)
			}
			return a.fields(pairs...)
		},
	}
}

func newPaymentsReceiptCommand(app func() *App) *cobra.Command {
	var (
		dir  string
		open bool
	)
	cmd := &cobra.Command{
		Use:   "receipt <payment-id>",
		Short: "Download the receipt of a settled payment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			doc, err := a.API.Receipt(cmd.Context(), args[0])
			if err != nil {
				return failed(err, "Failed to load receipt", a.Err)
			}
			if dir == "" {
				dir = os.TempDir()
			}
			path, err := a.Signing.ViewContract(cmd.Context(), doc.ID, dir)
			if err != nil {
				return notified(err)
			}
			fmt.Fprintln(a.Out, path)
			if open {
				if err := browser.OpenFile(path); err != nil {
					a.Log.Warn("failed to open receipt", map[string]interface{}{"error": err})
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to save the receipt in (default: the temp dir)")
	cmd.Flags().BoolVar(&open, "open", false, "open the receipt with the default viewer")
	return cmd
}

// pickInstallment returns installment number n, or the next one with money
// owing when n is zero.
func pickInstallment(insts []models.Installment, n int) (models.Installment, error) {
	app := models.FinancingApplication{Installments: insts}
	if n == 0 {
		next, ok := app.NextDue()
		if !ok {
			return models.Installment{}, fmt.Errorf("nothing left to pay")
		}
		return next, nil
	}
	for _, inst := range insts {
		if inst.InstallmentNumber == n {
			return inst, nil
		}
	}
	return models.Installment{}, fmt.Errorf("installment #%d not found", n)
}

func newPaymentsPayCommand(app func() *App) *cobra.Command {
	var (
		number   int
		amount   string
		method   string
		currency string
		open     bool
	)
	cmd := &cobra.Command{
		Use:   "pay <financing-id>",
		Short: "Pay an installment by card or crypto",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			ctx := cmd.Context()
			insts, err := a.Financing.Installments(ctx, args[0])
			if err != nil {
				return notified(err)
			}
			inst, err := pickInstallment(insts, number)
			if err != nil {
				return reported(err, a.Err)
			}

			target := payment.Target{
				FinancingID:   args[0],
				Type:          models.PaymentTypeInstallment,
				InstallmentID: inst.ID,
				Amount:        inst.Remaining(),
			}
			if amount != "" {
				if target.Amount, err = decimal.NewFromString(amount); err != nil {
					return reported(fmt.Errorf("invalid amount %q", amount), a.Err)
				}
			}
			a.Notifier.Info(fmt.Sprintf("Paying %s towards installment #%d.", money(target.Amount), inst.InstallmentNumber))

			switch method {
			case "card":
				session, err := payment.CardCheckout(ctx, a.API, target, a.Config.Financing.ReturnBaseURL)
				if err != nil {
					return failed(err, "Failed to create checkout session", a.Err)
				}
				if a.JSON {
					return a.printJSON(session)
				}
				a.Notifier.Info("Complete the payment at: " + session.SessionURL)
				if open {
					if err := browser.OpenURL(session.SessionURL); err != nil {
						a.Log.Warn("failed to open browser", map[string]interface{}{"error": err})
					}
				}
				return nil
			case "crypto":
				p, err := payment.CryptoCheckout(ctx, a.API, target, currency)
				if err != nil {
					return failed(err, "Failed to create crypto payment", a.Err)
				}
				if a.JSON {
					return a.printJSON(p)
				}
				return a.fields(
					"Send", p.PayAmount.String()+" "+p.PayCurrency,
					"To address", p.PayAddress,
					"Payment ID", p.PaymentID,
				)
			}
			return reported(fmt.Errorf("unknown payment method %q (want card or crypto)", method), a.Err)
		},
	}
	f := cmd.Flags()
	f.IntVar(&number, "installment", 0, "installment number (default: the next one due)")
	f.StringVar(&amount, "amount", "", "amount to pay (default: the installment's remaining balance)")
	f.StringVar(&method, "method", "card", "card or crypto")
	f.StringVar(&currency, "currency", payment.DefaultCryptoCurrency, "crypto currency for --method crypto")
	f.BoolVar(&open, "open", false, "open the checkout page in a browser")
	return cmd
}

func newPaymentsScheduledCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "scheduled",
		Short: "List scheduled automatic payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			list, err := a.API.ScheduledPayments(cmd.Context())
			if err != nil {
				return failed(err, "Failed to load scheduled payments", a.Err)
			}
			if a.JSON {
				return a.printJSON(list)
			}
			rows := make([][]string, 0, len(list))
			for _, s := range list {
				rows = append(rows, []string{s.ID, s.InstallmentID, s.ScheduledDate, string(s.PaymentMethod), yesNo(s.IsProcessed)})
			}
			return a.table([]string{"ID", "INSTALLMENT", "DATE", "METHOD", "PROCESSED"}, rows)
		},
	}
}
