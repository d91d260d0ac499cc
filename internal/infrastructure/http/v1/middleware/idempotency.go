package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocky/internal/core/apperror"
	appctx "stocky/internal/core/context"
	"stocky/internal/infrastructure/storage/postgres"
	"stocky/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"
const maxIdempotencyBodyBytes = 1 << 20 // 1 MiB

const idempotencyCtxKey = "idempotency"

// IdempotencyStore persists keys and their recorded responses.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, userID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key, userID string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key, userID string) error
}

type idempotencyClaim struct {
	store  IdempotencyStore
	key    string
	userID string
}

// Idempotency replays the recorded response for a repeated X-Idempotency-Key
// on POST/PUT/PATCH. It must run after Auth: keys are scoped per user.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodPatch:
		default:
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}

		userID := appctx.GetUserID(c.Request.Context())

		limited := io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1)
		body, _ := io.ReadAll(limited)
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		hash := sha256.Sum256(body)
		requestHash := hex.EncodeToString(hash[:])

		operation := c.Request.Method + " " + c.FullPath()

		replay, err := store.AcquireKey(c.Request.Context(), key, userID, operation, requestHash)
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}

		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		c.Set(idempotencyCtxKey, &idempotencyClaim{store: store, key: key, userID: userID})

		c.Next()

		// Errors are settled by ErrorHandler. A successful response written
		// without CompleteIdempotency (file downloads) leaves nothing to replay.
		if len(c.Errors) == 0 {
			ReleaseIdempotency(c)
		}
	}
}

// CompleteIdempotency records the response for replay. No-op when the
// request carried no key.
func CompleteIdempotency(c *gin.Context, statusCode int, contentType string, body []byte) {
	claim := takeClaim(c)
	if claim == nil {
		return
	}
	if err := claim.store.CompleteKey(c.Request.Context(), claim.key, claim.userID, statusCode, contentType, body); err != nil {
		logger.Warn(c.Request.Context(), "complete idempotency key", "key", claim.key, "error", err)
	}
}

// ReleaseIdempotency forgets the key so the client can retry.
func ReleaseIdempotency(c *gin.Context) {
	if claim := takeClaim(c); claim != nil {
		releaseClaim(c, claim)
	}
}

func takeClaim(c *gin.Context) *idempotencyClaim {
	v, ok := c.Get(idempotencyCtxKey)
	if !ok {
		return nil
	}
	claim, _ := v.(*idempotencyClaim)
	if claim != nil {
		c.Set(idempotencyCtxKey, (*idempotencyClaim)(nil))
	}
	return claim
}

func releaseClaim(c *gin.Context, claim *idempotencyClaim) {
	if err := claim.store.ReleaseKey(c.Request.Context(), claim.key, claim.userID); err != nil {
		logger.Warn(c.Request.Context(), "release idempotency key", "key", claim.key, "error", err)
	}
}
