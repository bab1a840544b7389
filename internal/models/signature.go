package models

import "time"

// SignatureStatus as reported by the server.
type SignatureStatus string

const (
	SignaturePending  SignatureStatus = "pending"
	SignatureSigned   SignatureStatus = "signed"
	SignatureExpired  SignatureStatus = "expired"
	SignatureRejected SignatureStatus = "rejected"
)

type SignatureRequest struct {
	ID             string          `json:"id"`
	DocumentID     string          `json:"document_id"`
	DocumentTitle  string          `json:"document_title"`
	DocumentType   string          `json:"document_type"`
	DocumentNumber string          `json:"document_number"`
	Status         SignatureStatus `json:"status"`
	ExpiresAt      *time.Time      `json:"expires_at"`
	SignedAt       *time.Time      `json:"signed_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SignRequest is the body of POST /signatures/{id}/sign/.
type SignRequest struct {
	SignatureText  string `json:"signature_text"`
	ConsentText    string `json:"consent_text"`
	SignatureImage string `json:"signature_image,omitempty"`
}
