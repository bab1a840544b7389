// internal/models/application.go
package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// FinancingApplication is the client's copy of a server-owned application.
// It is replaced wholesale on every fetch.
type FinancingApplication struct {
	ID                    string            `json:"id"`
	ApplicationNumber     string            `json:"application_number"`
	BronovaAmount         decimal.Decimal   `json:"bronova_amount"`
	USDEquivalent         decimal.Decimal   `json:"usd_equivalent"`
	FeePercentage         decimal.Decimal   `json:"fee_percentage"`
	FeeAmount             decimal.Decimal   `json:"fee_amount"`
	RepaymentPeriodMonths int               `json:"repayment_period_months"`
	MonthlyInstallment    decimal.Decimal   `json:"monthly_installment"`
	TotalRepayment        decimal.Decimal   `json:"total_repayment"`
	TotalWithFee          decimal.Decimal   `json:"total_with_fee"`
	Status                ApplicationStatus `json:"status"`
	AckTerms              bool              `json:"ack_terms"`
	AckFeeNonRefundable   bool              `json:"ack_fee_non_refundable"`
	AckRepaymentSchedule  bool              `json:"ack_repayment_schedule"`
	AckRiskDisclosure     bool              `json:"ack_risk_disclosure"`
	RejectionReason       string            `json:"rejection_reason,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	Installments          []Installment     `json:"installments,omitempty"`
}

// SortedInstallments returns the installments ordered by sequence number.
func (a *FinancingApplication) SortedInstallments() []Installment {
	out := make([]Installment, len(a.Installments))
	copy(out, a.Installments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].InstallmentNumber < out[j].InstallmentNumber
	})
	return out
}

// NextDue returns the first installment that still has money owing.
func (a *FinancingApplication) NextDue() (Installment, bool) {
	for _, inst := range a.SortedInstallments() {
		if inst.Remaining().IsPositive() {
			return inst, true
		}
	}
	return Installment{}, false
}

// InstallmentStatus values as reported by the server.
type InstallmentStatus string

const (
	InstallmentUpcoming      InstallmentStatus = "upcoming"
	InstallmentDue           InstallmentStatus = "due"
	InstallmentOverdue       InstallmentStatus = "overdue"
	InstallmentPartiallyPaid InstallmentStatus = "partially_paid"
	InstallmentPaid          InstallmentStatus = "paid"
	InstallmentDeferred      InstallmentStatus = "deferred"
)

type Installment struct {
	ID                string            `json:"id"`
	InstallmentNumber int               `json:"installment_number"`
	DueDate           string            `json:"due_date"`
	Amount            decimal.Decimal   `json:"amount"`
	PaidAmount        decimal.Decimal   `json:"paid_amount"`
	RemainingAmount   decimal.Decimal   `json:"remaining_amount"`
	Status            InstallmentStatus `json:"status"`
	PaidAt            *time.Time        `json:"paid_at,omitempty"`
}

// Remaining is amount minus paid amount, clamped at zero.
func (i Installment) Remaining() decimal.Decimal {
	r := i.Amount.Sub(i.PaidAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// CreateApplicationRequest is the body of POST /financing/.
type CreateApplicationRequest struct {
	BronovaAmount         decimal.Decimal `json:"bronova_amount"`
	USDEquivalent         decimal.Decimal `json:"usd_equivalent"`
	FeePercentage         decimal.Decimal `json:"fee_percentage"`
	RepaymentPeriodMonths int             `json:"repayment_period_months"`
	AckTerms              bool            `json:"ack_terms"`
	AckFeeNonRefundable   bool            `json:"ack_fee_non_refundable"`
	AckRepaymentSchedule  bool            `json:"ack_repayment_schedule"`
	AckRiskDisclosure     bool            `json:"ack_risk_disclosure"`
}

// CalculatorQuote mirrors GET /financing/calculator/.
type CalculatorQuote struct {
	BronovaAmount         decimal.Decimal `json:"bronova_amount"`
	USDEquivalent         decimal.Decimal `json:"usd_equivalent"`
	FeePercentage         decimal.Decimal `json:"fee_percentage"`
	FeeAmount             decimal.Decimal `json:"fee_amount"`
	RepaymentPeriodMonths int             `json:"repayment_period_months"`
	MonthlyInstallment    decimal.Decimal `json:"monthly_installment"`
	TotalRepayment        decimal.Decimal `json:"total_repayment"`
	TotalCost             decimal.Decimal `json:"total_cost"`
}

// Statement is GET /financing/{id}/statement/.
type Statement struct {
	ApplicationNumber  string          `json:"application_number"`
	BronovaAmount      decimal.Decimal `json:"bronova_amount"`
	MonthlyInstallment decimal.Decimal `json:"monthly_installment"`
	TotalInstallments  int             `json:"total_installments"`
	PaidInstallments   int             `json:"paid_installments"`
	TotalPaid          decimal.Decimal `json:"total_paid"`
	TotalRemaining     decimal.Decimal `json:"total_remaining"`
	NextDue            *NextDue        `json:"next_due"`
	Installments       []Installment   `json:"installments"`
}

type NextDue struct {
	InstallmentNumber int             `json:"installment_number"`
	DueDate           string          `json:"due_date"`
	Amount            decimal.Decimal `json:"amount"`
}
