package application

import (
	"errors"

	"github.com/oksasatya/otp-auth-service/pkg/helpers"
)

// Business errors. They are expected outcomes and reach the caller as-is;
// anything else returned by the service is an internal failure.
var (
	ErrInvalidAge          = errors.New("age must be between 14 and 65 years")
	ErrDuplicateEmail      = errors.New("email already in use")
	ErrWeakPassword        = errors.New("password is too short")
	ErrAccountNotFound     = errors.New("account not found")
	ErrAlreadyVerified     = errors.New("account already verified")
	ErrOtpInvalid          = errors.New("invalid otp")
	ErrOtpExpired          = errors.New("otp has expired")
	ErrNotVerified         = errors.New("email not verified")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrPasswordMismatch    = errors.New("new password and confirmation do not match")
	ErrPasswordUnchanged   = errors.New("new password must differ from the current one")
	ErrPasswordTooLong     = errors.New("password must be at most 72 bytes")
	ErrNotificationFailure = errors.New("failed to send otp notification")
	ErrAvatarsDisabled     = errors.New("avatar storage not configured")
)

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrInvalidAge, "invalid_age"},
	{ErrDuplicateEmail, "duplicate_email"},
	{ErrWeakPassword, "weak_password"},
	{ErrAccountNotFound, "account_not_found"},
	{ErrAlreadyVerified, "already_verified"},
	{ErrOtpInvalid, "otp_invalid"},
	{ErrOtpExpired, "otp_expired"},
	{ErrNotVerified, "not_verified"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrPasswordMismatch, "password_mismatch"},
	{ErrPasswordUnchanged, "password_unchanged"},
	{ErrPasswordTooLong, "password_too_long"},
	{ErrNotificationFailure, "notification_failure"},
	{ErrAvatarsDisabled, "avatars_disabled"},
	{helpers.ErrTokenExpired, "token_expired"},
	{helpers.ErrTokenInvalid, "token_invalid"},
}

// Kind returns a stable snake_case name for a business error, "ok" for nil
// and "internal" for anything unexpected.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "internal"
}

// IsBusiness reports whether err is one of the expected lifecycle errors.
func IsBusiness(err error) bool {
	k := Kind(err)
	return k != "ok" && k != "internal"
}
