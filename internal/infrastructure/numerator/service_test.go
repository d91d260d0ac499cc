package numerator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocky/internal/core/apperror"
	"stocky/internal/core/id"
	corenumerator "stocky/internal/core/numerator"
)

type mockRow struct {
	val any
	err error
}

func (m *mockRow) Scan(dest ...any) error {
	if m.err != nil {
		return m.err
	}
	if len(dest) == 0 {
		return nil
	}
	switch ptr := dest[0].(type) {
	case *int64:
		*ptr = m.val.(int64)
	case *string:
		*ptr = m.val.(string)
	}
	return nil
}

// mockQuerier simulates the bills lookup and the sys_sequences upsert.
type mockQuerier struct {
	mu       sync.Mutex
	last     string
	lastErr  error
	counters map[string]int64
	seqErr   error
}

func newMockQuerier(last string) *mockQuerier {
	return &mockQuerier{last: last, counters: make(map[string]int64)}
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.Contains(sql, "FROM bills") {
		if m.lastErr != nil {
			return &mockRow{err: m.lastErr}
		}
		if m.last == "" {
			return &mockRow{err: pgx.ErrNoRows}
		}
		return &mockRow{val: m.last}
	}

	if m.seqErr != nil {
		return &mockRow{err: m.seqErr}
	}
	key := args[0].(string)
	if cur, ok := m.counters[key]; ok {
		m.counters[key] = cur + 1
	} else {
		m.counters[key] = args[1].(int64) + 1
	}
	return &mockRow{val: m.counters[key]}
}

var testShop = id.MustParse("0190a6f1-0000-7000-8000-000000000001")

func TestNext_Atomic_FirstOfDay(t *testing.T) {
	svc := NewStatic(newMockQuerier(""), corenumerator.StrategyAtomic)
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	num, err := svc.Next(context.Background(), testShop, at)

	require.NoError(t, err)
	assert.Equal(t, "INV-20240101-0900-001", num)
}

func TestNext_Atomic_SeedsFromPredecessor(t *testing.T) {
	q := newMockQuerier("INV-20240101-0900-001")
	svc := NewStatic(q, corenumerator.StrategyAtomic)
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	first, err := svc.Next(context.Background(), testShop, at)
	require.NoError(t, err)
	second, err := svc.Next(context.Background(), testShop, at)
	require.NoError(t, err)

	assert.Equal(t, "INV-20240101-0930-002", first)
	assert.Equal(t, "INV-20240101-0930-003", second)
}

func TestNext_Atomic_MalformedPredecessor(t *testing.T) {
	svc := NewStatic(newMockQuerier("INV-20240101-0900-XYZ"), corenumerator.StrategyAtomic)
	at := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	num, err := svc.Next(context.Background(), testShop, at)

	require.NoError(t, err)
	assert.Equal(t, "INV-20240101-1000-001", num)
}

func TestNext_Atomic_ConcurrentCallersGetDistinctSerials(t *testing.T) {
	svc := NewStatic(newMockQuerier(""), corenumerator.StrategyAtomic)
	at := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

	const n = 20
	results := make(chan string, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			num, err := svc.Next(context.Background(), testShop, at)
			if err == nil {
				results <- num
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[string]bool)
	for num := range results {
		assert.False(t, seen[num], "duplicate %s", num)
		seen[num] = true
	}
	assert.Len(t, seen, n)
}

func TestNext_LastInvoice(t *testing.T) {
	svc := NewStatic(newMockQuerier("INV-20240101-0900-001"), corenumerator.StrategyLastInvoice)
	at := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)

	num, err := svc.Next(context.Background(), testShop, at)

	require.NoError(t, err)
	assert.Equal(t, "INV-20240101-0930-002", num)
}

func TestNext_LookupFailureIsPersistenceError(t *testing.T) {
	q := newMockQuerier("")
	q.lastErr = errors.New("connection reset")
	svc := NewStatic(q, corenumerator.StrategyAtomic)

	_, err := svc.Next(context.Background(), testShop, time.Now())

	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))
}

func TestNext_CounterFailureIsPersistenceError(t *testing.T) {
	q := newMockQuerier("")
	q.seqErr = errors.New("relation sys_sequences does not exist")
	svc := NewStatic(q, corenumerator.StrategyAtomic)

	_, err := svc.Next(context.Background(), testShop, time.Now())

	assert.True(t, apperror.HasCode(err, apperror.CodePersistence))
}

func TestPeek_DoesNotConsume(t *testing.T) {
	q := newMockQuerier("INV-20240101-0900-004")
	svc := NewStatic(q, corenumerator.StrategyAtomic)
	at := time.Date(2024, 1, 1, 11, 5, 0, 0, time.UTC)

	peeked, err := svc.Peek(context.Background(), testShop, at)
	require.NoError(t, err)
	assert.Empty(t, q.counters)

	next, err := svc.Next(context.Background(), testShop, at)
	require.NoError(t, err)

	assert.Equal(t, "INV-20240101-1105-005", peeked)
	assert.Equal(t, peeked, next)
}
