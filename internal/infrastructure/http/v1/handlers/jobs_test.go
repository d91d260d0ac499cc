package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/apperror"
	"stocky/internal/domain/digest"
	"stocky/internal/infrastructure/http/v1/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	res   digest.Result
	err   error
	calls int
}

func (f *fakeRunner) Run(context.Context) (digest.Result, error) {
	f.calls++
	return f.res, f.err
}

type fakeLocker struct {
	busy bool
	keys []string
}

func (f *fakeLocker) Do(ctx context.Context, key string, _ time.Duration, fn func(ctx context.Context) error) error {
	f.keys = append(f.keys, key)
	if f.busy {
		return apperror.NewJobRunning(key)
	}
	return fn(ctx)
}

func serveDigest(t *testing.T, runner DigestRunner, locker JobLocker) (*httptest.ResponseRecorder, digest.Result) {
	return serveDigestMethod(t, http.MethodPost, runner, locker)
}

func serveDigestMethod(t *testing.T, method string, runner DigestRunner, locker JobLocker) (*httptest.ResponseRecorder, digest.Result) {
	t.Helper()
	r := gin.New()
	r.Use(middleware.ErrorHandler())
	NewJobHandler(NewBaseHandler(), runner, locker, time.Minute).RegisterRoutes(r.Group("/jobs"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, "/jobs/expiry-digest", nil))

	var res digest.Result
	_ = json.Unmarshal(w.Body.Bytes(), &res)
	return w, res
}

func TestExpiryDigest_Success(t *testing.T) {
	runner := &fakeRunner{res: digest.Result{Success: true, Notified: 2, Shops: 3, Sent: 4}}
	locker := &fakeLocker{}

	w, res := serveDigest(t, runner, locker)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Notified)
	assert.Equal(t, []string{DigestJob}, locker.keys)
}

func TestExpiryDigest_FatalIs500WithResult(t *testing.T) {
	runner := &fakeRunner{
		res: digest.Result{Success: false, Error: "Push authorization failed"},
		err: apperror.NewAuthAssertion("bad key", errors.New("x")),
	}

	w, res := serveDigest(t, runner, nil)

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, res.Success)
	assert.Equal(t, "Push authorization failed", res.Error)
	assert.Equal(t, 1, runner.calls)
}

func TestExpiryDigest_AlreadyRunning(t *testing.T) {
	runner := &fakeRunner{res: digest.Result{Success: true}}

	w, _ := serveDigest(t, runner, &fakeLocker{busy: true})

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Zero(t, runner.calls)
}

func TestExpiryDigest_GetDoesNotRunJob(t *testing.T) {
	runner := &fakeRunner{res: digest.Result{Success: true}}
	locker := &fakeLocker{}

	w, _ := serveDigestMethod(t, http.MethodGet, runner, locker)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, runner.calls)
	assert.Empty(t, locker.keys)
}
