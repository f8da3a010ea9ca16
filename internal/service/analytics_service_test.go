package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
	"github.com/vanshika/fintrace/linkgraph/internal/metrics"
)

type stubSource struct {
	mu       sync.Mutex
	users    []domain.User
	txs      []domain.Transaction
	usersErr error
	loads    atomic.Int32
	started  chan struct{}
	release  chan struct{}
}

func (s *stubSource) set(users []domain.User, txs []domain.Transaction) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users, s.txs = users, txs
}

func (s *stubSource) LoadUsers(ctx context.Context) ([]domain.User, error) {
	s.loads.Add(1)
	if s.started != nil {
		s.started <- struct{}{}
	}
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.usersErr != nil {
		return nil, s.usersErr
	}
	return s.users, nil
}

func (s *stubSource) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txs, nil
}

type recordingRecorder struct {
	mu        sync.Mutex
	builds    int
	lastNodes int
	results   []string
}

func (r *recordingRecorder) ObserveBuild(_ time.Duration, nodes, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.builds++
	r.lastNodes = nodes
}

func (r *recordingRecorder) RecordRefresh(result string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func newLoadedService(t *testing.T) *AnalyticsService {
	t.Helper()
	users, txs := sampleData()
	src := &stubSource{}
	src.set(users, txs)
	svc := NewAnalyticsService(src)
	svc.WithClock(func() time.Time { return baseTime })
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	return svc
}

func TestAnalyticsService_NoSnapshot(t *testing.T) {
	svc := NewAnalyticsService(&stubSource{})

	_, err := svc.Graph(DefaultFilter())
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = svc.Stats(DefaultFilter())
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = svc.ListUsers(ListUsersParams{})
	assert.ErrorIs(t, err, ErrNoSnapshot)
}

func TestAnalyticsService_RefreshBuildsGraph(t *testing.T) {
	rec := &recordingRecorder{}
	users, txs := sampleData()
	src := &stubSource{}
	src.set(users, txs)
	svc := NewAnalyticsService(src, WithRecorder(rec))

	info, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(1), info.Generation)
	assert.Equal(t, 3, info.Users)
	assert.Equal(t, 3, info.Transactions)
	assert.Equal(t, 6, info.Nodes)
	assert.Equal(t, 10, info.Edges)
	assert.Len(t, info.Fingerprint, 64)

	result, err := svc.Graph(DefaultFilter())
	require.NoError(t, err)
	assert.Len(t, result.Graph.Edges, 10)
	assert.Equal(t, info.Fingerprint, result.Snapshot.Fingerprint)

	_, err = svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.builds)
	assert.Equal(t, []string{metrics.ResultSuccess, metrics.ResultUnchanged}, rec.results)
}

func TestAnalyticsService_RefreshFailureKeepsSnapshot(t *testing.T) {
	rec := &recordingRecorder{}
	users, txs := sampleData()
	src := &stubSource{}
	src.set(users, txs)
	svc := NewAnalyticsService(src, WithRecorder(rec))
	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	src.usersErr = errors.New("boom")
	_, err = svc.Refresh(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load users")

	current, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, first.Generation, current.Generation)
	assert.Equal(t, metrics.ResultError, rec.results[len(rec.results)-1])
}

func TestAnalyticsService_ConcurrentRefreshSharesOneLoad(t *testing.T) {
	users, txs := sampleData()
	src := &stubSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	src.set(users, txs)
	svc := NewAnalyticsService(src)

	const callers = 5
	var wg sync.WaitGroup
	infos := make([]SnapshotInfo, callers)
	errs := make([]error, callers)

	wg.Add(1)
	go func() {
		defer wg.Done()
		infos[0], errs[0] = svc.Refresh(context.Background())
	}()
	<-src.started

	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			infos[i], errs[i] = svc.Refresh(context.Background())
		}(i)
	}
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.loads.Load())
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, infos[0], infos[i])
	}
}

func TestAnalyticsService_StaleRefreshIsDiscarded(t *testing.T) {
	users, txs := sampleData()
	src := &stubSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	src.set(users, txs)
	rec := &recordingRecorder{}
	svc := NewAnalyticsService(src, WithRecorder(rec))

	done := make(chan SnapshotInfo)
	go func() {
		info, err := svc.Refresh(context.Background())
		assert.NoError(t, err)
		done <- info
	}()
	<-src.started

	newer := svc.Install(users[:1], nil)
	close(src.release)
	refreshed := <-done

	assert.Equal(t, newer.Generation, refreshed.Generation)
	current, err := svc.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, 1, current.Users)
	assert.Equal(t, metrics.ResultStale, rec.results[len(rec.results)-1])
	assert.Equal(t, 1, rec.builds)
	assert.Equal(t, 1, rec.lastNodes)
}

func TestAnalyticsService_CanceledCallerDoesNotFailSharedRefresh(t *testing.T) {
	users, txs := sampleData()
	src := &stubSource{started: make(chan struct{}, 1), release: make(chan struct{})}
	src.set(users, txs)
	svc := NewAnalyticsService(src)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := svc.Refresh(leaderCtx)
		leaderErr <- err
	}()
	<-src.started

	type outcome struct {
		info SnapshotInfo
		err  error
	}
	follower := make(chan outcome, 1)
	go func() {
		info, err := svc.Refresh(context.Background())
		follower <- outcome{info, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelLeader()
	assert.ErrorIs(t, <-leaderErr, context.Canceled)

	close(src.release)
	got := <-follower
	require.NoError(t, got.err)
	assert.Equal(t, 3, got.info.Users)
	assert.Equal(t, int32(1), src.loads.Load())
}

func TestAnalyticsService_FingerprintTracksEdgeInputs(t *testing.T) {
	svc := NewAnalyticsService(nil)
	users, txs := sampleData()
	base := svc.Install(users, txs)

	cases := []struct {
		name   string
		mutate func(users []domain.User, txs []domain.Transaction)
	}{
		{name: "device", mutate: func(_ []domain.User, txs []domain.Transaction) { txs[2].DeviceID = "dev-1" }},
		{name: "ip", mutate: func(_ []domain.User, txs []domain.Transaction) { txs[0].IPAddress = "10.0.0.2" }},
		{name: "payment method", mutate: func(_ []domain.User, txs []domain.Transaction) { txs[1].PaymentMethod = "card" }},
		{name: "currency", mutate: func(_ []domain.User, txs []domain.Transaction) { txs[1].Currency = "EUR" }},
		{name: "email", mutate: func(users []domain.User, _ []domain.Transaction) { users[2].Email = "alice@example.com" }},
		{name: "phone", mutate: func(users []domain.User, _ []domain.Transaction) { users[1].Phone = "555-0100" }},
		{name: "address", mutate: func(users []domain.User, _ []domain.Transaction) { users[2].Address = "1 Main St" }},
		{name: "recipient", mutate: func(users []domain.User, txs []domain.Transaction) { txs[0].Recipient = &users[2] }},
		{name: "missing sender", mutate: func(_ []domain.User, txs []domain.Transaction) { txs[0].Sender = nil }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			users, txs := sampleData()
			tc.mutate(users, txs)
			assert.NotEqual(t, base.Fingerprint, fingerprint(users, txs))
		})
	}

	users, txs = sampleData()
	assert.Equal(t, base.Fingerprint, fingerprint(users, txs))
}

func TestAnalyticsService_Export(t *testing.T) {
	svc := newLoadedService(t)
	filter := DefaultFilter()
	filter.RelationshipKinds = []domain.RelationshipKind{domain.RelSameIP}

	export, err := svc.Export(filter)
	require.NoError(t, err)
	assert.True(t, export.ExportedAt.Equal(baseTime))
	assert.Equal(t, filter, export.Filter)
	assert.Len(t, export.Nodes, 6)
	require.Len(t, export.Edges, 1)
	assert.Equal(t, domain.RelSameIP, export.Edges[0].Type)
	assert.Equal(t, 10, export.Snapshot.Edges)
}

func TestAnalyticsService_InstallCopiesInput(t *testing.T) {
	users, txs := sampleData()
	svc := NewAnalyticsService(nil)

	svc.Install(users, txs)
	users[0].Email = "changed@example.com"

	page, err := svc.ListUsers(ListUsersParams{Search: "alice"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "alice@example.com", page.Items[0].Email)

	_, err = svc.Refresh(context.Background())
	assert.Error(t, err)
}

func TestAnalyticsService_StatsUsesFilteredGraph(t *testing.T) {
	svc := newLoadedService(t)

	filter := DefaultFilter()
	filter.ShowTransactions = false
	stats, err := svc.Stats(filter)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalNodes)
	assert.Equal(t, 2, stats.TotalEdges)
	assert.Equal(t, 2, stats.Fraud.HighValueTransactionCount)
}

func TestAnalyticsService_Connections(t *testing.T) {
	svc := newLoadedService(t)

	conns, err := svc.Connections(domain.EntityRef{Type: domain.NodeTypeUser, ID: 2})
	require.NoError(t, err)
	assert.NotEmpty(t, conns)

	_, err = svc.Connections(domain.EntityRef{Type: domain.NodeTypeTransaction, ID: 999})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAnalyticsService_ListUsers(t *testing.T) {
	svc := newLoadedService(t)

	page, err := svc.ListUsers(ListUsersParams{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, PaginationMeta{Page: 1, PageSize: 2, TotalItems: 3, TotalPages: 2}, page.Pagination)

	page, err = svc.ListUsers(ListUsersParams{Page: 5, PageSize: 2})
	require.NoError(t, err)
	assert.Empty(t, page.Items)

	page, err = svc.ListUsers(ListUsersParams{Search: "555-0100"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.ListUsers(ListUsersParams{Search: "3"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(3), page.Items[0].ID)
}

func TestAnalyticsService_ListTransactions(t *testing.T) {
	svc := newLoadedService(t)

	page, err := svc.ListTransactions(ListTransactionsParams{UserID: ptr(int64(1))})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)

	page, err = svc.ListTransactions(ListTransactionsParams{Status: domain.StatusPending})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(12), page.Items[0].ID)

	page, err = svc.ListTransactions(ListTransactionsParams{MinAmount: ptr(1000.0), MaxAmount: ptr(10000.0)})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, int64(11), page.Items[0].ID)

	page, err = svc.ListTransactions(ListTransactionsParams{Search: "wallet"})
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
}

func TestAnalyticsService_HighValueTransactions(t *testing.T) {
	svc := newLoadedService(t)

	txs, err := svc.HighValueTransactions(0)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, int64(12), txs[0].ID)

	txs, err = svc.HighValueTransactions(5000)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, int64(12), txs[0].ID)
	assert.Equal(t, int64(11), txs[1].ID)
}

func TestAnalyticsService_TransactionAnalyticsWindow(t *testing.T) {
	svc := newLoadedService(t)

	week, err := svc.TransactionAnalytics(Window7Days)
	require.NoError(t, err)
	assert.Equal(t, 1, week.TransactionCount)

	quarter, err := svc.TransactionAnalytics(Window90Days)
	require.NoError(t, err)
	assert.Equal(t, 3, quarter.TransactionCount)
}

func TestAnalyticsService_RunRefresherStopsOnCancel(t *testing.T) {
	users, txs := sampleData()
	src := &stubSource{}
	src.set(users, txs)
	svc := NewAnalyticsService(src)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		svc.RunRefresher(ctx, 5*time.Millisecond)
		close(stopped)
	}()

	require.Eventually(t, func() bool { return src.loads.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestParseWindow(t *testing.T) {
	w, err := ParseWindow("")
	require.NoError(t, err)
	assert.Equal(t, WindowAll, w)

	w, err = ParseWindow("30D")
	require.NoError(t, err)
	assert.Equal(t, Window30Days, w)
	assert.Equal(t, baseTime.AddDate(0, 0, -30), w.Since(baseTime))
	assert.True(t, WindowAll.Since(baseTime).IsZero())

	_, err = ParseWindow("1y")
	assert.Error(t, err)
}
