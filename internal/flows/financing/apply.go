package financing

import (
	"context"
	"fmt"
	"time"

	"nova-client/internal/common/errors"
	"nova-client/internal/models"

	"github.com/shopspring/decimal"
)

// ApplyForm is the application dialog's input.
type ApplyForm struct {
	Amount               decimal.Decimal
	PeriodMonths         int
	AckTerms             bool
	AckFeeNonRefundable  bool
	AckRepaymentSchedule bool
	AckRiskDisclosure    bool
}

func (f ApplyForm) AllAcknowledged() bool {
	return f.AckTerms && f.AckFeeNonRefundable && f.AckRepaymentSchedule && f.AckRiskDisclosure
}

// CanSubmit is the submit button's enabled state.
func (f ApplyForm) CanSubmit(user *models.User) bool {
	return user.CanApply() && f.AllAcknowledged()
}

func (f ApplyForm) document() map[string]interface{} {
	amount, _ := f.Amount.Float64()
	return map[string]interface{}{
		"bronova_amount":          amount,
		"repayment_period_months": f.PeriodMonths,
		"ack_terms":               f.AckTerms,
		"ack_fee_non_refundable":  f.AckFeeNonRefundable,
		"ack_repayment_schedule":  f.AckRepaymentSchedule,
		"ack_risk_disclosure":     f.AckRiskDisclosure,
	}
}

// Submit creates a draft and submits it right away. The submit call is
// only made once the create call has returned an id. A failed submit
// leaves the draft on the server.
func (c *Coordinator) Submit(ctx context.Context, user *models.User, form ApplyForm) (_ *models.FinancingApplication, err error) {
	release, err := c.begin("submit")
	if err != nil {
		return nil, err
	}
	defer release()

	start := time.Now()
	defer func() { c.record(ctx, "submit", start, err) }()

	if !user.CanApply() {
		kyc := ""
		if user != nil {
			kyc = string(user.KYCStatus)
		}
		err = errors.NewKYCNotApprovedError(kyc)
		c.errs.Handle("submit application", err, "")
		return nil, err
	}
	if !form.AllAcknowledged() {
		err = errors.NewAcknowledgementsRequiredError()
		c.errs.Handle("submit application", err, "")
		return nil, err
	}
	if err = c.schema.Check(form.document()); err != nil {
		c.errs.Handle("submit application", err, "")
		return nil, err
	}

	preview, err := c.Calculate(form.Amount, form.PeriodMonths)
	if err != nil {
		return nil, err
	}
	draft, err := c.api.CreateApplication(ctx, models.CreateApplicationRequest{
		BronovaAmount:         form.Amount,
		USDEquivalent:         form.Amount,
		FeePercentage:         preview.FeePercentage,
		RepaymentPeriodMonths: form.PeriodMonths,
		AckTerms:              form.AckTerms,
		AckFeeNonRefundable:   form.AckFeeNonRefundable,
		AckRepaymentSchedule:  form.AckRepaymentSchedule,
		AckRiskDisclosure:     form.AckRiskDisclosure,
	})
	if err != nil {
		c.errs.Handle("submit application", err, "Failed to submit application")
		return nil, err
	}
	if draft.ID == "" {
		err = errors.NewDecodeError(fmt.Errorf("create returned no application id"))
		c.errs.Handle("submit application", err, "Failed to submit application")
		return nil, err
	}

	app, err := c.api.SubmitApplication(ctx, draft.ID)
	if err != nil {
		c.log.Warn("application left in draft", map[string]interface{}{"applicationId": draft.ID, "error": err})
		c.errs.Handle("submit application", err, "Failed to submit application")
		return nil, err
	}

	c.log.Info("application submitted", map[string]interface{}{
		"applicationId":     app.ID,
		"applicationNumber": app.ApplicationNumber,
		"status":            app.Status.Raw,
	})
	c.notifier.Success("Financing application submitted successfully!")
	_ = c.Refresh(ctx)
	return app, nil
}
