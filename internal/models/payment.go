package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeFee         PaymentType = "fee"
	PaymentTypeInstallment PaymentType = "installment"
	PaymentTypeRefund      PaymentType = "refund"
)

type PaymentMethod string

const (
	PaymentMethodStripeCard PaymentMethod = "stripe_card"
	PaymentMethodStripeBank PaymentMethod = "stripe_bank"
	PaymentMethodCrypto     PaymentMethod = "crypto"
)

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentConfirmed  PaymentStatus = "confirmed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// Settled reports whether the payment reached a successful final state.
func (s PaymentStatus) Settled() bool {
	return s == PaymentCompleted || s == PaymentConfirmed
}

type Payment struct {
	ID             string          `json:"id"`
	FinancingID    string          `json:"financing"`
	InstallmentID  *string         `json:"installment"`
	Type           PaymentType     `json:"payment_type"`
	Method         PaymentMethod   `json:"payment_method"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Status         PaymentStatus   `json:"status"`
	Reference      string          `json:"transaction_reference"`
	CryptoAddress  string          `json:"crypto_address,omitempty"`
	CryptoAmount   *string         `json:"crypto_amount,omitempty"`
	CryptoCurrency string          `json:"crypto_currency,omitempty"`
	Description    string          `json:"description,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CheckoutRequest is the body of POST /payments/stripe/checkout/.
type CheckoutRequest struct {
	FinancingID   string          `json:"financing_id"`
	PaymentType   PaymentType     `json:"payment_type"`
	InstallmentID string          `json:"installment_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	SuccessURL    string          `json:"success_url"`
	CancelURL     string          `json:"cancel_url"`
}

type CheckoutSession struct {
	SessionID  string `json:"session_id"`
	SessionURL string `json:"session_url"`
}

// CryptoPaymentRequest is the body of POST /payments/crypto/create/.
type CryptoPaymentRequest struct {
	FinancingID    string          `json:"financing_id"`
	PaymentType    PaymentType     `json:"payment_type"`
	InstallmentID  string          `json:"installment_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	CryptoCurrency string          `json:"crypto_currency"`
}

type CryptoPayment struct {
	PaymentID     string          `json:"payment_id"`
	PayAddress    string          `json:"pay_address"`
	PayAmount     decimal.Decimal `json:"pay_amount"`
	PayCurrency   string          `json:"pay_currency"`
	NowPaymentsID string          `json:"nowpayments_id"`
}

type ScheduledPayment struct {
	ID            string        `json:"id"`
	InstallmentID string        `json:"installment"`
	ScheduledDate string        `json:"scheduled_date"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	IsProcessed   bool          `json:"is_processed"`
	ProcessedAt   *time.Time    `json:"processed_at,omitempty"`
	CreatedAt     time.Time     `json:"created_at"`
}
