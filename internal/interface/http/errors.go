package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/otp-auth-service/internal/application"
	"github.com/oksasatya/otp-auth-service/pkg/helpers"
	"github.com/oksasatya/otp-auth-service/pkg/response"
)

var errorStatus = []struct {
	err    error
	status int
}{
	{application.ErrInvalidAge, http.StatusBadRequest},
	{application.ErrWeakPassword, http.StatusBadRequest},
	{application.ErrOtpInvalid, http.StatusBadRequest},
	{application.ErrPasswordMismatch, http.StatusBadRequest},
	{application.ErrPasswordUnchanged, http.StatusBadRequest},
	{application.ErrPasswordTooLong, http.StatusBadRequest},
	{application.ErrDuplicateEmail, http.StatusConflict},
	{application.ErrAlreadyVerified, http.StatusConflict},
	{application.ErrAccountNotFound, http.StatusNotFound},
	{application.ErrOtpExpired, http.StatusGone},
	{application.ErrNotVerified, http.StatusForbidden},
	{application.ErrInvalidCredentials, http.StatusUnauthorized},
	{helpers.ErrTokenExpired, http.StatusUnauthorized},
	{helpers.ErrTokenInvalid, http.StatusUnauthorized},
	{application.ErrNotificationFailure, http.StatusServiceUnavailable},
	{application.ErrAvatarsDisabled, http.StatusNotImplemented},
}

// writeError maps service errors to the response envelope. Only the
// sentinel message reaches the client; wrapped details stay in the log.
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			if e.status >= http.StatusInternalServerError {
				logger.WithError(err).WithField("request_id", c.GetString("request_id")).Warn("request degraded")
			}
			response.Error[any](c, e.status, e.err.Error(), gin.H{"code": application.Kind(err)})
			return
		}
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"request_id": c.GetString("request_id"),
		"path":       c.FullPath(),
	}).Error("unexpected error")
	response.Error[any](c, http.StatusInternalServerError, "something went wrong", gin.H{"code": "internal"})
}
