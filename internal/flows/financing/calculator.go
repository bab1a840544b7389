package financing

import (
	"context"
	"fmt"

	"nova-client/internal/common/errors"
	"nova-client/internal/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Preview is the local calculator result. It is guidance only; the server
// recomputes the figures when the application is created.
type Preview struct {
	Amount             decimal.Decimal
	PeriodMonths       int
	FeePercentage      decimal.Decimal
	Fee                decimal.Decimal
	MonthlyInstallment decimal.Decimal
	TotalCost          decimal.Decimal
}

// Calculate projects fee, monthly installment and total cost with the
// configured fee percentage. The installment is rounded to cents.
func (c *Coordinator) Calculate(amount decimal.Decimal, months int) (Preview, error) {
	return Calculate(amount, months, c.cfg.Fee())
}

func Calculate(amount decimal.Decimal, months int, feePercentage decimal.Decimal) (Preview, error) {
	if !amount.IsPositive() {
		return Preview{}, errors.NewValidationError("amount must be positive")
	}
	if months <= 0 {
		return Preview{}, errors.NewValidationError(fmt.Sprintf("period must be at least one month, got %d", months))
	}
	fee := amount.Mul(feePercentage).Div(hundred).Round(2)
	return Preview{
		Amount:             amount,
		PeriodMonths:       months,
		FeePercentage:      feePercentage,
		Fee:                fee,
		MonthlyInstallment: amount.Div(decimal.NewFromInt(int64(months))).Round(2),
		TotalCost:          amount.Add(fee),
	}, nil
}

// QuoteRemote asks the server calculator for its figures.
func (c *Coordinator) QuoteRemote(ctx context.Context, amount decimal.Decimal, months int) (*models.CalculatorQuote, error) {
	q, err := c.api.Quote(ctx, amount, months)
	if err != nil {
		c.errs.Handle("quote", err, "Failed to calculate financing")
		return nil, err
	}
	return q, nil
}
