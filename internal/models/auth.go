package models

// TokenPair is the access/refresh token pair issued at login.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by /auth/login/. Depending on the auth backend
// the tokens arrive as access/refresh or access_token/refresh_token.
type LoginResponse struct {
	Access       string `json:"access"`
	Refresh      string `json:"refresh"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user,omitempty"`
}

// Tokens normalizes both response shapes.
func (r *LoginResponse) Tokens() TokenPair {
	p := TokenPair{Access: r.Access, Refresh: r.Refresh}
	if p.Access == "" {
		p.Access = r.AccessToken
	}
	if p.Refresh == "" {
		p.Refresh = r.RefreshToken
	}
	return p
}

type RegisterRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// MFASetup holds the TOTP secret and a data-URI QR code.
type MFASetup struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"`
}

type MFACodeRequest struct {
	Code string `json:"code"`
}

type MessageResponse struct {
	Message  string `json:"message,omitempty"`
	Detail   string `json:"detail,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}
