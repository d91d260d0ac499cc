package digest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	"stocky/internal/core/tx"
	"stocky/internal/core/types"
	"stocky/internal/domain/devices"
	"stocky/internal/domain/medicine"
	"stocky/internal/domain/shop"
	"stocky/pkg/logger"
)

var (
	ownerA = id.MustParse("0190a6f1-0000-7000-8000-00000000a001")
	ownerB = id.MustParse("0190a6f1-0000-7000-8000-00000000b002")
	now    = time.Date(2025, 4, 1, 3, 30, 0, 0, time.UTC)
	today  = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
)

type sent struct {
	token string
	msg   Message
}

type fakeSender struct {
	mu    sync.Mutex
	sent  []sent
	fails map[string]error
}

func (s *fakeSender) Send(_ context.Context, token string, msg Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fails[token]; err != nil {
		return err
	}
	s.sent = append(s.sent, sent{token, msg})
	return nil
}

func (s *fakeSender) byToken() map[string]Message {
	out := make(map[string]Message)
	for _, x := range s.sent {
		out[x.token] = x.msg
	}
	return out
}

type fakeAuth struct {
	sender *fakeSender
	err    error
	calls  int
}

func (a *fakeAuth) Authorize(context.Context) (Sender, error) {
	a.calls++
	if a.err != nil {
		return nil, a.err
	}
	return a.sender, nil
}

type medicines []*medicine.Medicine

func (m medicines) ListAll(context.Context) ([]*medicine.Medicine, error) { return m, nil }

type failingMedicines struct{}

func (failingMedicines) ListAll(context.Context) ([]*medicine.Medicine, error) {
	return nil, errors.New("connection refused")
}

func batch(owner id.ID, packages int, expiry time.Time) *medicine.Medicine {
	return &medicine.Medicine{
		ID:              id.New(),
		ShopID:          owner,
		Name:            "Batch",
		UnitKind:        medicine.KindStrip,
		UnitsPerPackage: 10,
		PackageStock:    packages,
		ExpiryDate:      expiry,
	}
}

func day(n int) time.Time { return today.AddDate(0, 0, n) }

type snapshotKey struct{}

// fakeSnapshot marks ctx so sources can tell they ran inside ReadOnly.
type fakeSnapshot struct {
	calls int
	err   error
}

func (s *fakeSnapshot) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeSnapshot) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	s.calls++
	if s.err != nil {
		return s.err
	}
	return fn(context.WithValue(ctx, snapshotKey{}, true))
}

func inSnapshot(ctx context.Context) bool {
	v, _ := ctx.Value(snapshotKey{}).(bool)
	return v
}

type snapshotMedicines struct {
	medicines
	inside bool
}

func (m *snapshotMedicines) ListAll(ctx context.Context) ([]*medicine.Medicine, error) {
	m.inside = inSnapshot(ctx)
	return m.medicines, nil
}

type snapshotProfiles struct {
	inside bool
}

func (p *snapshotProfiles) ListAll(ctx context.Context) ([]*shop.Profile, error) {
	p.inside = inSnapshot(ctx)
	return nil, nil
}

// pruneRecorder notes how many sends had completed when each prune ran.
type pruneRecorder struct {
	TokenStore
	sender      *fakeSender
	sentAtPrune []int
}

func (p *pruneRecorder) Prune(ctx context.Context, token string) error {
	p.sender.mu.Lock()
	p.sentAtPrune = append(p.sentAtPrune, len(p.sender.sent))
	p.sender.mu.Unlock()
	return p.TokenStore.Prune(ctx, token)
}

type fixture struct {
	auth   *fakeAuth
	sender *fakeSender
	tokens *devices.MemoryRepository
	store  TokenStore
	txm    tx.ReadOnlyManager
}

func newFixture() *fixture {
	s := &fakeSender{fails: map[string]error{}}
	return &fixture{
		sender: s,
		auth:   &fakeAuth{sender: s},
		tokens: devices.NewMemoryRepository(
			&devices.Token{Token: "a-phone", OwnerID: ownerA},
			&devices.Token{Token: "a-laptop", OwnerID: ownerA},
			&devices.Token{Token: "b-phone", OwnerID: ownerB},
		),
	}
}

func (f *fixture) dispatcher(meds MedicineSource, profiles ...*shop.Profile) *Dispatcher {
	return f.dispatcherWith(meds, shop.NewMemoryRepository(profiles...))
}

func (f *fixture) dispatcherWith(meds MedicineSource, profiles ProfileSource) *Dispatcher {
	var store TokenStore = devices.NewService(f.tokens)
	if f.store != nil {
		store = f.store
	}
	return NewDispatcher(Config{
		TxManager:   f.txm,
		Medicines:   meds,
		Profiles:    profiles,
		Tokens:      store,
		Auth:        f.auth,
		Defaults:    shop.BuiltinDefaults(),
		Concurrency: 2,
		Clock:       types.FixedClock(now),
	})
}

func TestRun_OneMessagePerTokenPerOwner(t *testing.T) {
	f := newFixture()
	meds := medicines{
		batch(ownerA, 2, day(-3)),
		batch(ownerA, 1, day(-1)),
		batch(ownerA, 9, day(5)),
		batch(ownerA, 0, day(-9)),
		batch(ownerB, 4, day(29)),
		batch(ownerB, 4, day(31)),
	}

	res, err := f.dispatcher(meds).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Notified)
	assert.Equal(t, 2, res.Shops)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 1, f.auth.calls)

	got := f.sender.byToken()
	require.Len(t, got, 3)
	assert.Equal(t, "2 expired. 1 expiring soon.", got["a-phone"].Body)
	assert.Equal(t, got["a-phone"], got["a-laptop"])
	assert.Equal(t, "1 expiring soon.", got["b-phone"].Body)
	assert.Equal(t, Title, got["b-phone"].Title)
	assert.Equal(t, map[string]string{"url": "/returns"}, got["b-phone"].Data)
}

func TestRun_NoMatchesSkipsAuthorization(t *testing.T) {
	f := newFixture()

	res, err := f.dispatcher(medicines{batch(ownerA, 5, day(90))}).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Zero(t, res.Notified)
	assert.Zero(t, f.auth.calls)
}

func TestRun_AuthFailureIsFatal(t *testing.T) {
	f := newFixture()
	f.auth.err = apperror.NewAuthAssertion("Invalid JWT Signature.", errors.New("400 Bad Request"))

	res, err := f.dispatcher(medicines{batch(ownerA, 1, day(-1))}).Run(context.Background())

	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeAuthAssertion))
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "Invalid JWT Signature.")
	assert.Empty(t, f.sender.sent)
}

func TestRun_LoadFailureIsFatal(t *testing.T) {
	f := newFixture()

	res, err := f.dispatcher(failingMedicines{}).Run(context.Background())

	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Error)
	assert.Zero(t, f.auth.calls)
}

func TestRun_FailedSendDoesNotStopSiblings(t *testing.T) {
	f := newFixture()
	f.sender.fails["a-phone"] = errors.New("503 unavailable")

	res, err := f.dispatcher(medicines{
		batch(ownerA, 1, day(-1)),
		batch(ownerB, 1, day(-1)),
	}).Run(context.Background())

	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Failed)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, 2, res.Notified)
}

func TestRun_UnregisteredTokenIsPruned(t *testing.T) {
	f := newFixture()
	f.sender.fails["a-laptop"] = ErrUnregistered

	res, err := f.dispatcher(medicines{batch(ownerA, 1, day(-1))}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)

	left, err := f.tokens.ListByOwner(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "a-phone", left[0].Token)
}

func TestRun_PrunesAfterAllSends(t *testing.T) {
	f := newFixture()
	f.sender.fails["a-laptop"] = ErrUnregistered
	rec := &pruneRecorder{TokenStore: devices.NewService(f.tokens), sender: f.sender}
	f.store = rec

	res, err := f.dispatcher(medicines{
		batch(ownerA, 1, day(-1)),
		batch(ownerB, 1, day(-1)),
	}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, res.Sent)
	assert.Equal(t, []int{2}, rec.sentAtPrune)

	left, err := f.tokens.ListByOwner(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "a-phone", left[0].Token)
}

func TestRun_UnregisteredFailureLogsOwner(t *testing.T) {
	f := newFixture()
	f.sender.fails["a-laptop"] = ErrUnregistered
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := logger.WithLogger(context.Background(), &logger.Logger{SugaredLogger: zap.New(core).Sugar()})

	_, err := f.dispatcher(medicines{batch(ownerA, 1, day(-1))}).Run(ctx)
	require.NoError(t, err)

	entries := logs.FilterMessage("digest push failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, ownerA.String(), fields["owner_id"])
	assert.Equal(t, true, fields["unregistered"])
	assert.Contains(t, fields["error"], string(apperror.CodeDelivery))
}

func TestRun_LoadsFromOneReadSnapshot(t *testing.T) {
	f := newFixture()
	snap := &fakeSnapshot{}
	f.txm = snap
	meds := &snapshotMedicines{medicines: medicines{batch(ownerA, 1, day(-1))}}
	profiles := &snapshotProfiles{}

	res, err := f.dispatcherWith(meds, profiles).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	assert.Equal(t, 1, snap.calls)
	assert.True(t, meds.inside)
	assert.True(t, profiles.inside)
}

func TestRun_SnapshotFailureIsPersistenceError(t *testing.T) {
	f := newFixture()
	f.txm = &fakeSnapshot{err: errors.New("too many connections")}

	res, err := f.dispatcher(medicines{batch(ownerA, 1, day(-1))}).Run(context.Background())

	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))
	assert.False(t, res.Success)
	assert.Zero(t, f.auth.calls)
}

func TestRun_TokenLookupFailureSkipsOnlyThatOwner(t *testing.T) {
	f := newFixture()
	f.tokens.ListErr[ownerA] = errors.New("timeout")

	res, err := f.dispatcher(medicines{
		batch(ownerA, 1, day(-1)),
		batch(ownerB, 1, day(-1)),
	}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	assert.Contains(t, f.sender.byToken(), "b-phone")
}

func TestRun_UsesOwnerExpiryWindow(t *testing.T) {
	f := newFixture()
	profile := &shop.Profile{ID: ownerB, ExpiryThresholdDays: 60}

	res, err := f.dispatcher(medicines{batch(ownerB, 3, day(45))}, profile).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, res.Notified)
	assert.Equal(t, "1 expiring soon.", f.sender.byToken()["b-phone"].Body)
}

func TestBucketBody(t *testing.T) {
	assert.Equal(t, "3 expired. 5 expiring soon.", Bucket{Expired: 3, ExpiringSoon: 5}.Body())
	assert.Equal(t, "3 expired.", Bucket{Expired: 3}.Body())
	assert.Equal(t, "5 expiring soon.", Bucket{ExpiringSoon: 5}.Body())
}
