package auth

import (
	"encoding/base64"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/isati/wei-api/internal/domain"
	"github.com/isati/wei-api/internal/errors"
)

const callerKey = "auth.caller"

// Middleware authenticates a basic-style "id:hash" credential and attaches
// the resolved user to the request context. Routes declare their minimum role
// separately with RequireRole.
func (s *Service) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, secret, err := parseBasicCredential(c.GetHeader("Authorization"))
		if err != nil {
			abort(c, err)
			return
		}

		u, err := s.Authenticate(c.Request.Context(), id, secret)
		if err != nil {
			abort(c, err)
			return
		}

		c.Set(callerKey, u)
		c.Next()
	}
}

// RequireRole rejects callers below the given role. Administrator satisfies
// everything, Captain satisfies Captain and Default.
func RequireRole(required domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		u := Caller(c)
		if u == nil {
			abort(c, errors.New(errors.CodeUnauthenticated))
			return
		}

		if !u.Role.Satisfies(required) {
			abort(c, errors.New(errors.CodePermissionDenied,
				errors.WithMessagef("role %s is not allowed to perform this operation", u.Role)))
			return
		}

		c.Next()
	}
}

// Caller returns the authenticated user attached by Middleware, or nil.
func Caller(c *gin.Context) *domain.User {
	if u, ok := c.Get(callerKey); ok {
		return u.(*domain.User)
	}

	return nil
}

func abort(c *gin.Context, err error) {
	e := errors.Convert(err)
	c.AbortWithStatusJSON(e.HTTPStatusCode(), e)
}

// parseBasicCredential decodes "Basic base64(id:secret)". The payload is
// decoded as ISO-8859-1, matching what existing clients send.
func parseBasicCredential(header string) (id, secret string, err error) {
	const prefix = "Basic "

	if !strings.HasPrefix(header, prefix) {
		return "", "", errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("missing or malformed Authorization header"))
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(header[len(prefix):]))
	if err != nil {
		return "", "", errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("malformed credential encoding"), errors.WithCause(err))
	}

	decoded := decodeLatin1(raw)
	sep := strings.IndexByte(decoded, ':')
	if sep < 0 {
		return "", "", errors.New(errors.CodeUnauthenticated,
			errors.WithMessagef("malformed credential payload"))
	}

	return decoded[:sep], decoded[sep+1:], nil
}

func decodeLatin1(b []byte) string {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}

	return string(runes)
}
