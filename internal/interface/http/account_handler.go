package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otp-auth-service/internal/application"
	"github.com/oksasatya/otp-auth-service/internal/domain/entity"
	"github.com/oksasatya/otp-auth-service/internal/interface/middleware"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
	"github.com/oksasatya/otp-auth-service/pkg/response"
	"github.com/oksasatya/otp-auth-service/pkg/validation"
)

type AccountHandler struct {
	Svc            *application.Service
	Logger         *logrus.Logger
	Cookies        *helpers.Manager
	AvatarMaxBytes int64
}

func NewAccountHandler(svc *application.Service, logger *logrus.Logger, cookies *helpers.Manager, avatarMaxBytes int64) *AccountHandler {
	return &AccountHandler{Svc: svc, Logger: logger, Cookies: cookies, AvatarMaxBytes: avatarMaxBytes}
}

type signupRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Email     string `json:"emailId" binding:"required,email,max=254"`
	Gender    string `json:"gender" binding:"required,max=32"`
	BirthDate string `json:"birthDate" binding:"required,birthdate"`
	Password  string `json:"password" binding:"required,max=72"`
}

type verifyOtpRequest struct {
	Email string `json:"emailId" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,otp"`
}

type resendOtpRequest struct {
	Email string `json:"emailId" form:"emailId" binding:"required,email"`
}

type signinRequest struct {
	Email    string `json:"emailId" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type resetPasswordRequest struct {
	OldPassword        string `json:"oldPassword" binding:"required"`
	NewPassword        string `json:"newPassword" binding:"required,max=72"`
	ConfirmNewPassword string `json:"confirmNewPassword" binding:"required"`
}

type updateProfileRequest struct {
	FirstName string `json:"firstName" binding:"required,max=100"`
	LastName  string `json:"lastName" binding:"required,max=100"`
	Gender    string `json:"gender" binding:"required,max=32"`
	BirthDate string `json:"birthDate" binding:"required,birthdate"`
}

type accountView struct {
	ID        string    `json:"id"`
	Email     string    `json:"emailId"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Gender    string    `json:"gender"`
	BirthDate string    `json:"birthDate"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toView(a *entity.Account) accountView {
	return accountView{
		ID:        a.ID,
		Email:     a.Email,
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Gender:    a.Gender,
		BirthDate: a.BirthDate.Format(validation.DateLayout),
		AvatarURL: a.AvatarURL,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type authView struct {
	Account   accountView `json:"account"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
}

func (h *AccountHandler) bind(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return false
	}
	return true
}

func (h *AccountHandler) authenticated(c *gin.Context, res *application.AuthResult, message string) {
	h.Cookies.SetAccess(c, res.Token, res.ExpiresAt)
	response.Success(c, http.StatusOK, authView{
		Account:   toView(res.Account),
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
	}, message, nil)
}

// Signup POST /api/auth/signup
func (h *AccountHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !h.bind(c, &req) {
		return
	}
	birth, err := validation.ParseDate(req.BirthDate)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"birthDate": "must be a date formatted as YYYY-MM-DD"})
		return
	}
	acc, err := h.Svc.Signup(c.Request.Context(), application.SignupInput{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.TrimSpace(req.Email),
		Gender:    strings.TrimSpace(req.Gender),
		BirthDate: birth,
		Password:  req.Password,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, toView(acc), "account created, verification code sent", nil)
}

// VerifyOtp POST /api/auth/verify-otp
func (h *AccountHandler) VerifyOtp(c *gin.Context) {
	var req verifyOtpRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Svc.VerifyOtp(c.Request.Context(), strings.TrimSpace(req.Email), req.OTP)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.authenticated(c, res, "email verified")
}

// ResendOtp POST /api/auth/resend-otp, email as ?emailId= or JSON body.
func (h *AccountHandler) ResendOtp(c *gin.Context) {
	var req resendOtpRequest
	var err error
	if c.Query("emailId") != "" {
		err = c.ShouldBindQuery(&req)
	} else {
		err = c.ShouldBindJSON(&req)
	}
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, err := h.Svc.ResendOtp(c.Request.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	switch res.Outcome {
	case application.ResendThrottled:
		secs := int((res.RetryAfter + time.Second - 1) / time.Second)
		c.Header("Retry-After", strconv.Itoa(secs))
		response.Error[any](c, http.StatusTooManyRequests, "please wait before requesting a new code",
			gin.H{"code": string(res.Outcome), "retryAfterSeconds": secs})
	case application.ResendAlreadyVerified:
		response.Success(c, http.StatusOK, gin.H{"outcome": res.Outcome}, "account already verified", nil)
	default:
		response.Success(c, http.StatusOK, gin.H{"outcome": res.Outcome}, "verification code sent", nil)
	}
}

// Signin POST /api/auth/signin
func (h *AccountHandler) Signin(c *gin.Context) {
	var req signinRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.Svc.Login(c.Request.Context(), strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	h.authenticated(c, res, "login successful")
}

// Logout POST /api/auth/logout. Tokens are stateless; this only drops the cookie.
func (h *AccountHandler) Logout(c *gin.Context) {
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, map[string]any{"logged_out": true}, "logged out", nil)
}

// Me GET /api/auth/me
func (h *AccountHandler) Me(c *gin.Context) {
	acc, err := h.Svc.GetProfile(c.Request.Context(), c.GetString(middleware.CtxAccountEmail))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(acc), "profile", nil)
}

// ResetPassword POST /api/auth/reset-password
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !h.bind(c, &req) {
		return
	}
	ctx := c.Request.Context()
	current, err := h.Svc.GetProfile(ctx, c.GetString(middleware.CtxAccountEmail))
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	acc, err := h.Svc.ResetPassword(ctx, current.ID, application.ResetPasswordInput{
		OldPassword:        req.OldPassword,
		NewPassword:        req.NewPassword,
		ConfirmNewPassword: req.ConfirmNewPassword,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(acc), "password updated", nil)
}

// UpdateProfile PUT /api/auth/update-profile
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	var req updateProfileRequest
	if !h.bind(c, &req) {
		return
	}
	birth, err := validation.ParseDate(req.BirthDate)
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"birthDate": "must be a date formatted as YYYY-MM-DD"})
		return
	}
	acc, err := h.Svc.UpdateProfile(c.Request.Context(), c.GetString(middleware.CtxAccountEmail), application.UpdateProfileInput{
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Gender:    strings.TrimSpace(req.Gender),
		BirthDate: birth,
	})
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(acc), "profile updated", nil)
}

// UploadAvatar POST /api/auth/upload (multipart field "file", images only)
func (h *AccountHandler) UploadAvatar(c *gin.Context) {
	if h.AvatarMaxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.AvatarMaxBytes+1<<10)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error[any](c, http.StatusRequestEntityTooLarge, "file too large", nil)
			return
		}
		response.Error[any](c, http.StatusBadRequest, "file is required", nil)
		return
	}
	if h.AvatarMaxBytes > 0 && fh.Size > h.AvatarMaxBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "file too large", nil)
		return
	}
	contentType := fh.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		response.Error[any](c, http.StatusUnsupportedMediaType, "only image uploads are accepted", nil)
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "cannot read file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	acc, err := h.Svc.UploadAvatar(c.Request.Context(), c.GetString(middleware.CtxAccountEmail), f, fh.Filename, contentType)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, toView(acc), "avatar updated", nil)
}

// SearchAccounts GET /api/auth/accounts/search?q=&size=
func (h *AccountHandler) SearchAccounts(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{"q": "is required"})
		return
	}
	size, _ := strconv.Atoi(c.Query("size"))
	docs, err := h.Svc.SearchAccounts(c.Request.Context(), q, size)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "ok", map[string]any{"count": len(docs)})
}
