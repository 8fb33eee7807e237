package entity

import (
	"strings"
	"time"
)

// Account is the aggregate root for the account domain.
// PasswordHash holds a bcrypt hash, never the raw password.
//
// OTP and OTPGeneratedAt are either both set (pending verification)
// or both nil; a verified account never carries a code.
type Account struct {
	ID             string
	Email          string
	FirstName      string
	LastName       string
	Gender         string
	BirthDate      time.Time
	PasswordHash   string
	AvatarURL      string
	Verified       bool
	OTP            *string
	OTPGeneratedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// DisplayName is the name used to greet the holder in emails.
func (a *Account) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// IssueOTP stores a fresh code together with its issuance time.
func (a *Account) IssueOTP(code string, at time.Time) {
	at = at.UTC()
	a.OTP = &code
	a.OTPGeneratedAt = &at
}

// MarkVerified flips the account to verified and drops the pending code.
func (a *Account) MarkVerified() {
	a.Verified = true
	a.OTP = nil
	a.OTPGeneratedAt = nil
}

// OTPAge reports how long ago the current code was issued.
// ok is false when no code is pending.
func (a *Account) OTPAge(now time.Time) (age time.Duration, ok bool) {
	if a.OTPGeneratedAt == nil {
		return 0, false
	}
	return now.Sub(*a.OTPGeneratedAt), true
}

// AgeOn returns the number of whole years between birth and now,
// counted on calendar dates.
func AgeOn(birth, now time.Time) int {
	by, bm, bd := birth.Date()
	ny, nm, nd := now.Date()
	age := ny - by
	if nm < bm || (nm == bm && nd < bd) {
		age--
	}
	return age
}
