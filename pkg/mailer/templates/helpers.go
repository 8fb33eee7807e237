package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/otp-auth-service/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04 MST")
	}
}

// WithValidity records how long the code stays usable, counted from issuedAt.
func WithValidity(issuedAt time.Time, ttl time.Duration) Option {
	return func(d *EmailData) {
		exp := issuedAt.Add(ttl).UTC()
		d.ExpiresAt = exp
		d.ExpiresAtText = exp.Format("02 January 2006, 15:04 MST")
		d.ExpiresInMinutes = int(ttl / time.Minute)
	}
}

// NewBaseEmailData fills the branding fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:  strings.TrimSpace(name),
		Email: email,
		Type:  typ,

		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		LogoURL:     cfg.LogoURL,
		SupportURL:  cfg.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// NewOTPVerificationData builds the payload for the otp_verification template.
func NewOTPVerificationData(cfg *config.Config, name, email, code string, opts ...Option) map[string]any {
	d := NewBaseEmailData(cfg, OTPVerification, name, email, opts...)
	d.Code = code
	d.Digits = strings.Split(code, "")
	return ToMap(d)
}
