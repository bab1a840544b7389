package validation

import "fmt"

// ApplicationSchema covers the financing application form. Limits come
// from configuration, so the schema is built per coordinator.
func ApplicationSchema(minAmount, maxAmount float64, minPeriod, maxPeriod int) *Schema {
	return MustCompile("application", fmt.Sprintf(`{
		"type": "object",
		"required": ["bronova_amount", "repayment_period_months", "ack_terms", "ack_fee_non_refundable", "ack_repayment_schedule", "ack_risk_disclosure"],
		"properties": {
			"bronova_amount": {"type": "number", "minimum": %g, "maximum": %g},
			"repayment_period_months": {"type": "integer", "minimum": %d, "maximum": %d},
			"ack_terms": {"enum": [true]},
			"ack_fee_non_refundable": {"enum": [true]},
			"ack_repayment_schedule": {"enum": [true]},
			"ack_risk_disclosure": {"enum": [true]}
		}
	}`, minAmount, maxAmount, minPeriod, maxPeriod))
}

var SignatureSchema = MustCompile("signature", `{
	"type": "object",
	"required": ["signature_text", "consent_text"],
	"properties": {
		"signature_text": {"type": "string", "minLength": 1, "pattern": "\\S"},
		"consent_text": {"type": "string", "minLength": 1},
		"signature_image": {"type": "string"}
	}
}`)

var CheckoutSchema = MustCompile("checkout", `{
	"type": "object",
	"required": ["financing_id", "payment_type", "amount"],
	"properties": {
		"financing_id": {"type": "string", "minLength": 1},
		"payment_type": {"enum": ["fee", "installment"]},
		"installment_id": {"type": "string"},
		"amount": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)?$"},
		"crypto_currency": {"type": "string", "pattern": "^[a-z0-9]{2,10}$"}
	}
}`)

var RegisterSchema = MustCompile("registration", `{
	"type": "object",
	"required": ["first_name", "last_name", "email", "password1", "password2"],
	"properties": {
		"first_name": {"type": "string", "minLength": 1},
		"last_name": {"type": "string", "minLength": 1},
		"email": {"type": "string", "format": "email"},
		"password1": {"type": "string", "minLength": 8},
		"password2": {"type": "string", "minLength": 8}
	}
}`)

var ServiceRequestSchema = MustCompile("service request", `{
	"type": "object",
	"required": ["request_type", "subject", "description"],
	"properties": {
		"request_type": {"enum": ["loan_increase", "settlement", "transfer", "deferral"]},
		"subject": {"type": "string", "minLength": 1, "maxLength": 200},
		"description": {"type": "string", "minLength": 1}
	}
}`)
