package application

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
	repo "github.com/oksasatya/otp-auth-service/internal/domain/repository"
	"github.com/oksasatya/otp-auth-service/internal/metrics"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
)

const (
	// OTPTTL is how long a code stays valid after issuance.
	OTPTTL = 300 * time.Second
	// ResendCooldown is the minimum gap between two issued codes.
	ResendCooldown = 60 * time.Second

	MinAge = 14
	MaxAge = 65

	DefaultMinPasswordLength = 6
)

// Service is the account lifecycle manager: signup, OTP verification,
// sign-in, password reset and profile maintenance.
type Service struct {
	repo     repo.AccountRepository
	hasher   Hasher
	tokens   TokenIssuer
	notifier Notifier
	index    AccountIndex
	avatars  AvatarStore
	logger   *logrus.Logger

	now            func() time.Time
	genOTP         func() (string, error)
	minPasswordLen int
}

type Option func(*Service)

func WithLogger(l *logrus.Logger) Option { return func(s *Service) { s.logger = l } }

// WithClock overrides the wall clock used for age and OTP windows.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithOTPGenerator(gen func() (string, error)) Option {
	return func(s *Service) { s.genOTP = gen }
}

// WithMinPasswordLength sets the password policy; values below the
// default of 6 are ignored.
func WithMinPasswordLength(n int) Option {
	return func(s *Service) {
		if n > DefaultMinPasswordLength {
			s.minPasswordLen = n
		}
	}
}

func WithIndex(idx AccountIndex) Option { return func(s *Service) { s.index = idx } }

func WithAvatarStore(st AvatarStore) Option { return func(s *Service) { s.avatars = st } }

func NewService(r repo.AccountRepository, hasher Hasher, tokens TokenIssuer, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		repo:           r,
		hasher:         hasher,
		tokens:         tokens,
		notifier:       notifier,
		logger:         logrus.StandardLogger(),
		now:            time.Now,
		genOTP:         helpers.GenOTPCode,
		minPasswordLen: DefaultMinPasswordLength,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type SignupInput struct {
	FirstName string
	LastName  string
	Email     string
	Gender    string
	BirthDate time.Time
	Password  string
}

type UpdateProfileInput struct {
	FirstName string
	LastName  string
	Gender    string
	BirthDate time.Time
}

type ResetPasswordInput struct {
	OldPassword        string
	NewPassword        string
	ConfirmNewPassword string
}

// AuthResult is returned by the operations that authenticate the caller.
type AuthResult struct {
	Account   *entity.Account
	Token     string
	ExpiresAt time.Time
}

type ResendOutcome string

const (
	ResendSent            ResendOutcome = "sent"
	ResendAlreadyVerified ResendOutcome = "already_verified"
	ResendThrottled       ResendOutcome = "throttled"
)

type ResendResult struct {
	Outcome    ResendOutcome
	RetryAfter time.Duration // set when Throttled
}

// Signup registers an unverified account and mails its first code.
// When the mail cannot be dispatched the account stays stored and
// ErrNotificationFailure is returned; ResendOtp recovers from that state.
func (s *Service) Signup(ctx context.Context, in SignupInput) (acc *entity.Account, err error) {
	defer func() { s.record("signup", err) }()

	now := s.clock()
	birth := dateOnly(in.BirthDate)
	if err := checkAge(birth, now); err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, ErrDuplicateEmail
	}
	if err := s.checkPassword(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	code, err := s.genOTP()
	if err != nil {
		return nil, fmt.Errorf("generate otp: %w", err)
	}

	a := &entity.Account{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Gender:       in.Gender,
		BirthDate:    birth,
		PasswordHash: hash,
	}
	a.IssueOTP(code, now)
	if err := s.repo.Save(ctx, a); err != nil {
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("save account: %w", err)
	}

	if err := s.notifier.SendOTP(ctx, a.Email, code, a.DisplayName()); err != nil {
		s.logger.WithError(err).WithField("account_id", a.ID).Warn("otp notification failed after signup")
		return nil, fmt.Errorf("%w: %v", ErrNotificationFailure, err)
	}
	return a, nil
}

// VerifyOtp checks the submitted code and, on success, marks the account
// verified and issues a bearer token for it.
func (s *Service) VerifyOtp(ctx context.Context, email, code string) (res *AuthResult, err error) {
	defer func() { s.record("verify_otp", err) }()

	var acc *entity.Account
	err = s.repo.WithTx(ctx, func(r repo.AccountRepository) error {
		a, err := findByEmail(ctx, r, email)
		if err != nil {
			return err
		}
		if a.Verified {
			return ErrAlreadyVerified
		}
		if a.OTP == nil || subtle.ConstantTimeCompare([]byte(*a.OTP), []byte(code)) != 1 {
			return ErrOtpInvalid
		}
		if age, _ := a.OTPAge(s.clock()); age > OTPTTL {
			return ErrOtpExpired
		}
		a.MarkVerified()
		if err := r.Save(ctx, a); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	res, err = s.authenticate(acc)
	if err != nil {
		return nil, err
	}
	s.indexAccount(ctx, acc)
	return res, nil
}

// ResendOtp issues a fresh code unless the account is already verified or
// the previous code is younger than ResendCooldown. The code is mailed
// before the transaction commits, so a failed dispatch keeps the old code.
func (s *Service) ResendOtp(ctx context.Context, email string) (res ResendResult, err error) {
	defer func() {
		if err == nil {
			s.record("resend_otp", nil, string(res.Outcome))
			return
		}
		s.record("resend_otp", err)
	}()

	err = s.repo.WithTx(ctx, func(r repo.AccountRepository) error {
		a, err := findByEmail(ctx, r, email)
		if err != nil {
			return err
		}
		if a.Verified {
			res = ResendResult{Outcome: ResendAlreadyVerified}
			return nil
		}
		now := s.clock()
		if age, ok := a.OTPAge(now); ok && age < ResendCooldown {
			res = ResendResult{Outcome: ResendThrottled, RetryAfter: ResendCooldown - age}
			return nil
		}

		code, err := s.genOTP()
		if err != nil {
			return fmt.Errorf("generate otp: %w", err)
		}
		a.IssueOTP(code, now)
		if err := r.Save(ctx, a); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		if err := s.notifier.SendOTP(ctx, a.Email, code, a.DisplayName()); err != nil {
			s.logger.WithError(err).WithField("account_id", a.ID).Warn("otp notification failed on resend")
			return fmt.Errorf("%w: %v", ErrNotificationFailure, err)
		}
		res = ResendResult{Outcome: ResendSent}
		return nil
	})
	if err != nil {
		return ResendResult{}, err
	}
	return res, nil
}

// Login authenticates a verified account. Verification is checked before
// the password.
func (s *Service) Login(ctx context.Context, email, password string) (res *AuthResult, err error) {
	defer func() { s.record("login", err) }()

	a, err := findByEmail(ctx, s.repo, email)
	if err != nil {
		return nil, err
	}
	if !a.Verified {
		return nil, ErrNotVerified
	}
	if !s.hasher.Verify(password, a.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.authenticate(a)
}

// ResetPassword replaces the password of an authenticated account.
// Checks run in a fixed order: old password, confirmation, reuse, strength.
func (s *Service) ResetPassword(ctx context.Context, accountID string, in ResetPasswordInput) (acc *entity.Account, err error) {
	defer func() { s.record("reset_password", err) }()

	err = s.repo.WithTx(ctx, func(r repo.AccountRepository) error {
		a, err := r.GetByID(ctx, accountID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrAccountNotFound
		}
		if err != nil {
			return fmt.Errorf("load account: %w", err)
		}
		if !s.hasher.Verify(in.OldPassword, a.PasswordHash) {
			return ErrInvalidCredentials
		}
		if in.NewPassword != in.ConfirmNewPassword {
			return ErrPasswordMismatch
		}
		if s.hasher.Verify(in.NewPassword, a.PasswordHash) {
			return ErrPasswordUnchanged
		}
		if err := s.checkPassword(in.NewPassword); err != nil {
			return err
		}
		hash, err := s.hasher.Hash(in.NewPassword)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		a.PasswordHash = hash
		if err := r.Save(ctx, a); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return acc, nil
}

// UpdateProfile replaces the four profile fields after re-checking the age bound.
func (s *Service) UpdateProfile(ctx context.Context, email string, in UpdateProfileInput) (acc *entity.Account, err error) {
	defer func() { s.record("update_profile", err) }()

	err = s.repo.WithTx(ctx, func(r repo.AccountRepository) error {
		a, err := findByEmail(ctx, r, email)
		if err != nil {
			return err
		}
		birth := dateOnly(in.BirthDate)
		if err := checkAge(birth, s.clock()); err != nil {
			return err
		}
		a.FirstName = in.FirstName
		a.LastName = in.LastName
		a.Gender = in.Gender
		a.BirthDate = birth
		if err := r.Save(ctx, a); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		acc = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.indexAccount(ctx, acc)
	return acc, nil
}

// GetProfile returns the account registered under email.
func (s *Service) GetProfile(ctx context.Context, email string) (*entity.Account, error) {
	return findByEmail(ctx, s.repo, email)
}

// ParseToken validates a bearer token and returns the email it was issued for.
func (s *Service) ParseToken(token string) (string, error) {
	return s.tokens.ParseSubject(token)
}

func (s *Service) authenticate(a *entity.Account) (*AuthResult, error) {
	tok, exp, err := s.tokens.Issue(a.Email)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Account: a, Token: tok, ExpiresAt: exp}, nil
}

// MaxPasswordBytes is bcrypt's input limit; lengths are counted in bytes.
const MaxPasswordBytes = 72

func (s *Service) checkPassword(pw string) error {
	if len(pw) < s.minPasswordLen {
		return ErrWeakPassword
	}
	if len(pw) > MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

func (s *Service) clock() time.Time {
	return s.now().UTC()
}

// record counts the call; outcome overrides the label derived from err.
func (s *Service) record(op string, err error, outcome ...string) {
	label := Kind(err)
	if len(outcome) > 0 && outcome[0] != "" {
		label = outcome[0]
	}
	metrics.RecordOperation(op, label)
}

func findByEmail(ctx context.Context, r repo.AccountRepository, email string) (*entity.Account, error) {
	a, err := r.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load account: %w", err)
	}
	return a, nil
}

func checkAge(birth, now time.Time) error {
	age := entity.AgeOn(birth, now)
	if age < MinAge || age > MaxAge {
		return ErrInvalidAge
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
