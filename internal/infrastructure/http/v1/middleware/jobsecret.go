package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"stocky/internal/core/apperror"
)

// HeaderJobSecret carries the scheduler's shared secret.
const HeaderJobSecret = "X-Job-Secret"

// JobSecret guards scheduler-triggered endpoints. The secret may come in
// X-Job-Secret or as a bearer token. With no secret configured every call
// is refused.
func JobSecret(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			_ = c.Error(apperror.NewForbidden("job endpoints are disabled"))
			c.Abort()
			return
		}

		presented := c.GetHeader(HeaderJobSecret)
		if presented == "" {
			presented, _ = bearerToken(c.GetHeader("Authorization"))
		}
		if presented == "" {
			abortUnauthorized(c, "missing job secret")
			return
		}
		if subtle.ConstantTimeCompare([]byte(presented), []byte(secret)) != 1 {
			_ = c.Error(apperror.NewForbidden("invalid job secret"))
			c.Abort()
			return
		}

		c.Next()
	}
}
