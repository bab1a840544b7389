package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"nova-client/internal/flows/financing"
	"nova-client/internal/models"

	"github.com/pkg/browser"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newFinancingCommand(app func() *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "financing",
		Aliases: []string{"fin"},
		Short:   "Apply for and manage financing",
	}
	cmd.AddCommand(
		newFinancingCalcCommand(app),
		newFinancingQuoteCommand(app),
		newFinancingListCommand(app),
		newFinancingShowCommand(app),
		newFinancingApplyCommand(app),
		newFinancingPayFeeCommand(app),
		newFinancingReturnCommand(app),
		newFinancingScheduleCommand(app),
		newFinancingStatementCommand(app),
	)
	return cmd
}

func parseAmountAndPeriod(args []string) (decimal.Decimal, int, error) {
	amount, err := decimal.NewFromString(args[0])
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("invalid amount %q", args[0])
	}
	months, err := strconv.Atoi(args[1])
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("invalid period %q", args[1])
	}
	return amount, months, nil
}

func newFinancingCalcCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "calc <amount> <months>",
		Short: "Preview fee and installments locally",
		Args:  cobra.ExactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			a := app()
			amount, months, err := parseAmountAndPeriod(args)
			if err != nil {
				return reported(err, a.Err)
			}
			p, err := a.Financing.Calculate(amount, months)
			if err != nil {
				return reported(err, a.Err)
			}
			if a.JSON {
				return a.printJSON(p)
			}
			return a.fields(
				"Amount", money(p.Amount)+" BRONOVA",
				"Period", fmt.Sprintf("%d months", p.PeriodMonths),
				"Processing fee", fmt.Sprintf("%s (%s%%)", money(p.Fee), p.FeePercentage.String()),
				"Monthly installment", money(p.MonthlyInstallment),
				"Total cost", money(p.TotalCost),
			)
		},
	}
}

func newFinancingQuoteCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quote <amount> <months>",
		Short: "Ask the server for an authoritative quote",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			amount, months, err := parseAmountAndPeriod(args)
			if err != nil {
				return reported(err, a.Err)
			}
			q, err := a.Financing.QuoteRemote(cmd.Context(), amount, months)
			if err != nil {
				return notified(err)
			}
			if a.JSON {
				return a.printJSON(q)
			}
			return a.fields(
				"Amount", money(q.BronovaAmount)+" BRONOVA",
				"USD equivalent", money(q.USDEquivalent),
				"Period", fmt.Sprintf("%d months", q.RepaymentPeriodMonths),
				"Processing fee", fmt.Sprintf("%s (%s%%)", money(q.FeeAmount), q.FeePercentage.String()),
				"Monthly installment", money(q.MonthlyInstallment),
				"Total repayment", money(q.TotalRepayment),
				"Total cost", money(q.TotalCost),
			)
		},
	}
}

func newFinancingListCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List your applications and the next step for each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			st, err := a.RequireUser(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.Financing.Refresh(cmd.Context()); err != nil {
				return notified(err)
			}
			v := a.Financing.View(st.User)
			if a.JSON {
				return a.printJSON(v)
			}
			if v.KYCBanner != "" {
				a.Notifier.Info(v.KYCBanner)
			}
			if len(v.Rows) == 0 {
				a.Notifier.Info("No financing applications yet.")
				return nil
			}
			rows := make([][]string, 0, len(v.Rows))
			for _, r := range v.Rows {
				app := r.Application
				rows = append(rows, []string{
					app.ID,
					orDash(app.ApplicationNumber),
					money(app.BronovaAmount),
					strconv.Itoa(app.RepaymentPeriodMonths),
					r.Label,
					orDash(r.Action.String()),
					date(app.CreatedAt),
				})
			}
			return a.table([]string{"ID", "NUMBER", "AMOUNT", "MONTHS", "STATUS", "NEXT STEP", "CREATED"}, rows)
		},
	}
}

func newFinancingShowCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			fa, err := a.Financing.Get(cmd.Context(), args[0])
			if err != nil {
				return notified(err)
			}
			if a.JSON {
				return a.printJSON(fa)
			}
			pairs := []string{
				"ID", fa.ID,
				"Number", orDash(fa.ApplicationNumber),
				"Status", fa.Status.Label(),
				"Next step", orDash(fa.Status.Action().String()),
				"Amount", money(fa.BronovaAmount) + " BRONOVA",
				"Period", fmt.Sprintf("%d months", fa.RepaymentPeriodMonths),
				"Processing fee", fmt.Sprintf("%s (%s%%)", money(fa.FeeAmount), fa.FeePercentage.String()),
				"Monthly installment", money(fa.MonthlyInstallment),
				"Total with fee", money(fa.TotalWithFee),
				"Created", date(fa.CreatedAt),
			}
			if fa.RejectionReason != "" {
				pairs = append(pairs, "Rejection reason", fa.RejectionReason)
			}
			if next, ok := fa.NextDue(); ok {
				pairs = append(pairs, "Next due", fmt.Sprintf("#%d on %s: %s", next.InstallmentNumber, next.DueDate, money(next.Remaining())))
			}
			return a.fields(pairs...)
		},
	}
}

func newFinancingApplyCommand(app func() *App) *cobra.Command {
	var (
		amount string
		months int
		accept bool
		form   financing.ApplyForm
	)
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Submit a new financing application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := app()
			st, err := a.RequireUser(cmd.Context())
			if err != nil {
				return err
			}
			amt, err := decimal.NewFromString(amount)
			if err != nil {
				return reported(fmt.Errorf("invalid amount %q", amount), a.Err)
			}
			form.Amount = amt
			form.PeriodMonths = months
			if accept {
				form.AckTerms, form.AckFeeNonRefundable, form.AckRepaymentSchedule, form.AckRiskDisclosure = true, true, true, true
			}

			if p, err := a.Financing.Calculate(amt, months); err == nil && !a.JSON {
				a.Notifier.Info(fmt.Sprintf("Estimated fee %s, monthly installment %s.", money(p.Fee), money(p.MonthlyInstallment)))
			}

			created, err := a.Financing.Submit(cmd.Context(), st.User, form)
			if err != nil {
				return notified(err)
			}
			if a.JSON {
				return a.printJSON(created)
			}
			a.Notifier.Info(fmt.Sprintf("Application %s is %s. Next: run 'nova signatures list'.", created.ID, strings.ToLower(created.Status.Label())))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&amount, "amount", "", "amount of BRONOVA tokens")
	f.IntVar(&months, "months", 12, "repayment period in months")
	f.BoolVar(&form.AckTerms, "ack-terms", false, "accept the terms and conditions")
	f.BoolVar(&form.AckFeeNonRefundable, "ack-fee-non-refundable", false, "acknowledge the processing fee is non-refundable")
	f.BoolVar(&form.AckRepaymentSchedule, "ack-repayment-schedule", false, "acknowledge the repayment schedule")
	f.BoolVar(&form.AckRiskDisclosure, "ack-risk-disclosure", false, "acknowledge the risk disclosure")
	f.BoolVar(&accept, "accept-all", false, "give all four acknowledgements")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func printFeeResult(a *App, res *financing.FeeResult, open bool) error {
	if a.JSON {
		return a.printJSON(res)
	}
	switch {
	case res.CheckoutURL != "":
		a.Notifier.Info("Complete the payment at: " + res.CheckoutURL)
		if open {
			if err := browser.OpenURL(res.CheckoutURL); err != nil {
				a.Log.Warn("failed to open browser", map[string]interface{}{"error": err})
			}
		}
	case res.Crypto != nil:
		if err := a.fields(
			"Send", fmt.Sprintf("%s %s", res.Crypto.PayAmount.String(), strings.ToUpper(res.Crypto.PayCurrency)),
			"To address", res.Crypto.PayAddress,
			"Payment ID", res.Crypto.PaymentID,
		); err != nil {
			return err
		}
	}
	printCompletion(a, res.Completion)
	return nil
}

func printCompletion(a *App, c *financing.Completion) {
	if c == nil {
		return
	}
	app := c.Application
	a.Notifier.Success(fmt.Sprintf("Financing %s is active: %s BRONOVA over %d months, %s per month.",
		orDash(app.ApplicationNumber), money(app.BronovaAmount), app.RepaymentPeriodMonths, money(app.MonthlyInstallment)))
}

func newFinancingPayFeeCommand(app func() *App) *cobra.Command {
	var (
		method   string
		currency string
		open     bool
	)
	cmd := &cobra.Command{
		Use:   "pay-fee [id]",
		Short: "Pay the processing fee of a signed application",
		Long: "Pay the processing fee. Without an id the first application waiting for\n" +
			"its fee is picked, the same one the dashboard offers after signing.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			m, err := financing.ParsePayMethod(method)
			if err != nil {
				return reported(err, a.Err)
			}

			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				if err := a.Financing.Refresh(cmd.Context()); err != nil {
					return notified(err)
				}
				dialog, ok := a.Financing.Enter(financing.NewIntent(financing.IntentPayFee))
				if !ok {
					return reported(fmt.Errorf("no application is waiting for its processing fee"), a.Err)
				}
				id = dialog.Application.ID
				a.Notifier.Info(fmt.Sprintf("Paying the processing fee of %s (%s).", orDash(dialog.Application.ApplicationNumber), money(dialog.Application.FeeAmount)))
			}

			res, err := a.Financing.PayFee(cmd.Context(), id, m, currency)
			if err != nil {
				return notified(err)
			}
			return printFeeResult(a, res, open)
		},
	}
	f := cmd.Flags()
	f.StringVar(&method, "method", string(financing.MethodCard), "card, crypto or mock")
	f.StringVar(&currency, "currency", "btc", "crypto currency for --method crypto")
	f.BoolVar(&open, "open", false, "open the checkout page in a browser")
	return cmd
}

func newFinancingReturnCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "return <url-or-query>",
		Short: "Process the page a hosted checkout redirected you to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			query, err := returnQuery(args[0])
			if err != nil {
				return reported(err, a.Err)
			}
			out := a.Financing.HandleReturn(cmd.Context(), query)
			if a.JSON {
				return a.printJSON(out)
			}
			printCompletion(a, out.Completion)
			return nil
		},
	}
}

// returnQuery accepts a full return URL or just its query string.
func returnQuery(raw string) (url.Values, error) {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "?"); i >= 0 {
		raw = raw[i+1:]
	}
	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid return url: %w", err)
	}
	return q, nil
}

func installmentRows(insts []models.Installment) [][]string {
	rows := make([][]string, 0, len(insts))
	for _, inst := range insts {
		rows = append(rows, []string{
			strconv.Itoa(inst.InstallmentNumber),
			inst.DueDate,
			money(inst.Amount),
			money(inst.PaidAmount),
			money(inst.Remaining()),
			string(inst.Status),
		})
	}
	return rows
}

var installmentHeader = []string{"#", "DUE", "AMOUNT", "PAID", "REMAINING", "STATUS"}

func newFinancingScheduleCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "schedule <id>",
		Short: "Show the installment schedule of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			insts, err := a.Financing.Installments(cmd.Context(), args[0])
			if err != nil {
				return notified(err)
			}
			if a.JSON {
				return a.printJSON(insts)
			}
			return a.table(installmentHeader, installmentRows(insts))
		},
	}
}

func newFinancingStatementCommand(app func() *App) *cobra.Command {
	return &cobra.Command{
		Use:   "statement <id>",
		Short: "Show the account statement of an application",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := app()
			s, err := a.Financing.Statement(cmd.Context(), args[0])
			if err != nil {
				return notified(err)
			}
			if a.JSON {
				return a.printJSON(s)
			}
			pairs := []string{
				"Application", orDash(s.ApplicationNumber),
				"Amount", money(s.BronovaAmount),
				"Monthly installment", money(s.MonthlyInstallment),
				"Installments paid", fmt.Sprintf("%d of %d", s.PaidInstallments, s.TotalInstallments),
				"Total paid", money(s.TotalPaid),
				"Total remaining", money(s.TotalRemaining),
			}
			if s.NextDue != nil {
				pairs = append(pairs, "Next due", fmt.Sprintf("#%d on %s: %s", s.NextDue.InstallmentNumber, s.NextDue.DueDate, money(s.NextDue.Amount)))
			}
			if err := a.fields(pairs...); err != nil {
				return err
			}
			if len(s.Installments) == 0 {
				return nil
			}
			fmt.Fprintln(a.Out)
			return a.table(installmentHeader, installmentRows(s.Installments))
		},
	}
}
