package models

import "time"

type Document struct {
	ID               string                 `json:"id"`
	DocumentType     string                 `json:"document_type"`
	DocumentNumber   string                 `json:"document_number"`
	Title            string                 `json:"title"`
	VerificationCode string                 `json:"verification_code"`
	IsSigned         bool                   `json:"is_signed"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	DownloadURL      *string                `json:"download_url"`
	CreatedAt        time.Time              `json:"created_at"`
}

// DocumentContent is the base64 payload of /documents/{id}/download/.
type DocumentContent struct {
	Data        string `json:"data"`
	ContentType string `json:"content_type"`
	Filename    string `json:"filename,omitempty"`
}

type DocumentVerification struct {
	Verified       bool   `json:"verified"`
	DocumentNumber string `json:"document_number,omitempty"`
	DocumentType   string `json:"document_type,omitempty"`
	Title          string `json:"title,omitempty"`
	IssuedTo       string `json:"issued_to,omitempty"`
	IssuedAt       string `json:"issued_at,omitempty"`
	IsSigned       bool   `json:"is_signed,omitempty"`
}

// ServiceRequest is a client request (deferral, settlement, ...).
type ServiceRequest struct {
	ID                         string                 `json:"id"`
	FinancingID                *string                `json:"financing"`
	FinancingApplicationNumber *string                `json:"financing_application_number"`
	RequestType                string                 `json:"request_type"`
	Status                     string                 `json:"status"`
	Subject                    string                 `json:"subject"`
	Description                string                 `json:"description"`
	Details                    map[string]interface{} `json:"details,omitempty"`
	AdminResponse              string                 `json:"admin_response,omitempty"`
	CreatedAt                  time.Time              `json:"created_at"`
}

// ServiceRequestTypes are the request types the backend accepts.
var ServiceRequestTypes = []string{"loan_increase", "settlement", "transfer", "deferral"}
