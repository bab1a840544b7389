package models

import "time"

// KYCStatus is the identity verification state of a client.
type KYCStatus string

const (
	KYCPending     KYCStatus = "pending"
	KYCSubmitted   KYCStatus = "submitted"
	KYCUnderReview KYCStatus = "under_review"
	KYCApproved    KYCStatus = "approved"
	KYCRejected    KYCStatus = "rejected"
)

// User is the authenticated client record returned by /users/me/.
type User struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	ClientID        string    `json:"client_id"`
	AccountNumber   string    `json:"account_number"`
	IsEmailVerified bool      `json:"is_email_verified"`
	MFAEnabled      bool      `json:"mfa_enabled"`
	AuthProvider    string    `json:"auth_provider"`
	KYCStatus       KYCStatus `json:"kyc_status"`
	CreatedAt       time.Time `json:"created_at"`
}

func (u *User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	}
	return u.LastName
}

// CanApply is a convenience gate only; the backend enforces KYC itself.
func (u *User) CanApply() bool {
	return u != nil && u.KYCStatus == KYCApproved
}

// ProfileUpdate is the PATCH /users/me/ body.
type ProfileUpdate struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
}
