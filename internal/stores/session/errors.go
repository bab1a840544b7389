package session

import "errors"

var errMissingAccess = errors.New("login response carried no access token")

// LoginError is returned by Login. Message is meant for the user.
type LoginError struct {
	Message string
	cause   error
}

func (e *LoginError) Error() string {
	return e.Message
}

func (e *LoginError) Unwrap() error {
	return e.cause
}
