package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stocky/internal/domain/digest"
)

// DigestJob is the lock key of the expiry digest.
const DigestJob = "expiry-digest"

// DigestRunner runs one digest pass.
type DigestRunner interface {
	Run(ctx context.Context) (digest.Result, error)
}

// JobLocker serializes job runs across instances.
type JobLocker interface {
	Do(ctx context.Context, key string, ttl time.Duration, fn func(ctx context.Context) error) error
}

// JobHandler serves scheduler-triggered jobs.
type JobHandler struct {
	*BaseHandler
	digest  DigestRunner
	locker  JobLocker
	lockTTL time.Duration
}

// NewJobHandler creates a new job handler. A nil locker runs jobs unguarded.
func NewJobHandler(base *BaseHandler, runner DigestRunner, locker JobLocker, lockTTL time.Duration) *JobHandler {
	return &JobHandler{BaseHandler: base, digest: runner, locker: locker, lockTTL: lockTTL}
}

// ExpiryDigest handles POST /jobs/expiry-digest. A fatal failure answers
// 500 with the result body so the scheduler records the reason.
func (h *JobHandler) ExpiryDigest(c *gin.Context) {
	var (
		res    digest.Result
		runErr error
	)
	run := func(ctx context.Context) error {
		res, runErr = h.digest.Run(ctx)
		return nil
	}

	var err error
	if h.locker != nil {
		err = h.locker.Do(c.Request.Context(), DigestJob, h.lockTTL, run)
	} else {
		err = run(c.Request.Context())
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	if runErr != nil || !res.Success {
		c.JSON(http.StatusInternalServerError, res)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RegisterRoutes registers job routes.
func (h *JobHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/expiry-digest", h.ExpiryDigest)
}
