package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oksasatya/otp-auth-service/pkg/helpers"
	"github.com/oksasatya/otp-auth-service/pkg/response"
)

// CtxAccountEmail holds the authenticated account email.
const CtxAccountEmail = "accountEmail"

// TokenParser validates a bearer token and returns its subject.
type TokenParser interface {
	ParseSubject(token string) (string, error)
}

// Auth accepts "Authorization: Bearer <token>" or the access_token cookie
// and stores the token subject under CtxAccountEmail.
func Auth(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			response.Abort(c, http.StatusUnauthorized, "missing access token", nil)
			return
		}
		email, err := tokens.ParseSubject(token)
		if err != nil {
			msg := "invalid access token"
			if errors.Is(err, helpers.ErrTokenExpired) {
				msg = "access token expired"
			}
			response.Abort(c, http.StatusUnauthorized, msg, nil)
			return
		}
		c.Set(CtxAccountEmail, email)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		scheme, tok, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(tok)
		}
		return ""
	}
	tok, err := c.Cookie(helpers.AccessTokenCookie)
	if err != nil {
		return ""
	}
	return tok
}
