package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
	"github.com/vanshika/fintrace/linkgraph/internal/metrics"
)

var (
	// ErrNotFound is returned when a referenced user or transaction does not exist.
	ErrNotFound = errors.New("entity not found")
	// ErrNoSnapshot is returned by read operations before the first successful load.
	ErrNoSnapshot = errors.New("no data loaded")
)

// DefaultHighValueAmount is the listing threshold used when callers pass none.
const DefaultHighValueAmount = 10000.0

// DefaultRefreshTimeout bounds a shared reload once its callers stop waiting.
const DefaultRefreshTimeout = 2 * time.Minute

// DataSource supplies the raw users and transactions a graph is built from.
type DataSource interface {
	LoadUsers(ctx context.Context) ([]domain.User, error)
	LoadTransactions(ctx context.Context) ([]domain.Transaction, error)
}

// Recorder receives build and refresh observations. ObserveBuild is only
// called for builds that were installed.
type Recorder interface {
	ObserveBuild(elapsed time.Duration, nodes, edges int)
	RecordRefresh(result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveBuild(time.Duration, int, int) {}
func (nopRecorder) RecordRefresh(string)                 {}

type snapshot struct {
	users       []domain.User
	txs         []domain.Transaction
	graph       domain.GraphData
	fingerprint string
	generation  uint64
	loadedAt    time.Time
}

func (s *snapshot) info() SnapshotInfo {
	return SnapshotInfo{
		Generation:   s.generation,
		Fingerprint:  s.fingerprint,
		LoadedAt:     s.loadedAt,
		Users:        len(s.users),
		Transactions: len(s.txs),
		Nodes:        len(s.graph.Nodes),
		Edges:        len(s.graph.Edges),
	}
}

// AnalyticsService keeps the latest built graph in memory and answers graph,
// stats, connection and listing queries against it. The installed snapshot is
// never mutated; refreshes replace it as a whole.
type AnalyticsService struct {
	source   DataSource
	logger   *zap.Logger
	recorder Recorder
	nowFn    func() time.Time
	timeout  time.Duration

	mu      sync.RWMutex
	current *snapshot

	generation atomic.Uint64
	refreshes  singleflight.Group
}

// Option customizes an AnalyticsService.
type Option func(*AnalyticsService)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *AnalyticsService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRecorder sets the metrics sink.
func WithRecorder(r Recorder) Option {
	return func(s *AnalyticsService) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithRefreshTimeout bounds each reload of the data source.
func WithRefreshTimeout(d time.Duration) Option {
	return func(s *AnalyticsService) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// NewAnalyticsService constructs a service reading from source. Nothing is
// loaded until Refresh or Install is called.
func NewAnalyticsService(source DataSource, opts ...Option) *AnalyticsService {
	s := &AnalyticsService{
		source:   source,
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		nowFn:    time.Now,
		timeout:  DefaultRefreshTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("analytics")
	return s
}

// WithClock overrides the time provider (used primarily in tests).
func (s *AnalyticsService) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		s.nowFn = nowFn
	}
}

// Refresh reloads the data source and installs a freshly built graph.
// Concurrent calls share one load; every caller receives its outcome. The
// shared load is detached from any single caller, so a caller whose ctx ends
// returns ctx.Err() while the others keep waiting for the result.
func (s *AnalyticsService) Refresh(ctx context.Context) (SnapshotInfo, error) {
	if s.source == nil {
		return SnapshotInfo{}, fmt.Errorf("refresh: no data source configured")
	}
	detached := context.WithoutCancel(ctx)
	ch := s.refreshes.DoChan("refresh", func() (any, error) {
		loadCtx, cancel := context.WithTimeout(detached, s.timeout)
		defer cancel()
		return s.refresh(loadCtx)
	})

	select {
	case <-ctx.Done():
		return SnapshotInfo{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return SnapshotInfo{}, res.Err
		}
		return res.Val.(SnapshotInfo), nil
	}
}

func (s *AnalyticsService) refresh(ctx context.Context) (SnapshotInfo, error) {
	generation := s.generation.Add(1)

	users, txs, err := s.load(ctx)
	if err != nil {
		s.recorder.RecordRefresh(metrics.ResultError)
		s.logger.Warn("refresh failed", zap.Uint64("generation", generation), zap.Error(err))
		return SnapshotInfo{}, err
	}

	return s.build(generation, users, txs), nil
}

func (s *AnalyticsService) load(ctx context.Context) ([]domain.User, []domain.Transaction, error) {
	var (
		users []domain.User
		txs   []domain.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		loaded, err := s.source.LoadUsers(gctx)
		if err != nil {
			return fmt.Errorf("load users: %w", err)
		}
		users = loaded
		return nil
	})
	g.Go(func() error {
		loaded, err := s.source.LoadTransactions(gctx)
		if err != nil {
			return fmt.Errorf("load transactions: %w", err)
		}
		txs = loaded
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return users, txs, nil
}

// Install builds a graph from the given lists and installs it without
// touching the data source.
func (s *AnalyticsService) Install(users []domain.User, txs []domain.Transaction) SnapshotInfo {
	return s.build(s.generation.Add(1), users, txs)
}

func (s *AnalyticsService) build(generation uint64, users []domain.User, txs []domain.Transaction) SnapshotInfo {
	users = append([]domain.User(nil), users...)
	txs = append([]domain.Transaction(nil), txs...)

	start := time.Now()
	graph := BuildGraph(users, txs)
	elapsed := time.Since(start)

	next := &snapshot{
		users:       users,
		txs:         txs,
		graph:       graph,
		fingerprint: fingerprint(users, txs),
		generation:  generation,
		loadedAt:    s.nowFn().UTC(),
	}

	installed, result := s.install(next)
	if result != metrics.ResultStale {
		s.recorder.ObserveBuild(elapsed, len(graph.Nodes), len(graph.Edges))
	}
	s.recorder.RecordRefresh(result)
	s.logger.Info("graph snapshot built",
		zap.Uint64("generation", generation),
		zap.String("result", result),
		zap.Int("users", len(users)),
		zap.Int("transactions", len(txs)),
		zap.Int("nodes", len(graph.Nodes)),
		zap.Int("edges", len(graph.Edges)),
		zap.Duration("elapsed", elapsed),
	)
	return installed.info()
}

// install swaps in next unless a newer generation is already installed.
func (s *AnalyticsService) install(next *snapshot) (*snapshot, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.current
	if prev != nil && prev.generation > next.generation {
		return prev, metrics.ResultStale
	}
	s.current = next
	if prev != nil && prev.fingerprint == next.fingerprint {
		return next, metrics.ResultUnchanged
	}
	return next, metrics.ResultSuccess
}

// RunRefresher refreshes on every tick until ctx is done. Failures are logged
// and the previous snapshot stays installed.
func (s *AnalyticsService) RunRefresher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
				s.logger.Error("scheduled refresh failed", zap.Error(err))
			}
		}
	}
}

func (s *AnalyticsService) snapshot() (*snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, ErrNoSnapshot
	}
	return s.current, nil
}

// Snapshot reports which data set is currently installed.
func (s *AnalyticsService) Snapshot() (SnapshotInfo, error) {
	snap, err := s.snapshot()
	if err != nil {
		return SnapshotInfo{}, err
	}
	return snap.info(), nil
}

// Graph returns the base graph narrowed by filter.
func (s *AnalyticsService) Graph(filter domain.GraphFilter) (GraphResult, error) {
	snap, err := s.snapshot()
	if err != nil {
		return GraphResult{}, err
	}
	return GraphResult{
		Graph:    ApplyFilter(snap.graph, filter),
		Snapshot: snap.info(),
	}, nil
}

// Export wraps the filtered graph with the filter and snapshot it came from.
func (s *AnalyticsService) Export(filter domain.GraphFilter) (GraphExport, error) {
	snap, err := s.snapshot()
	if err != nil {
		return GraphExport{}, err
	}
	graph := ApplyFilter(snap.graph, filter)
	return GraphExport{
		ExportedAt: s.nowFn().UTC(),
		Filter:     filter,
		Snapshot:   snap.info(),
		Nodes:      graph.Nodes,
		Edges:      graph.Edges,
	}, nil
}

// Stats summarizes the filtered graph. Fraud indicators always cover the full
// data set.
func (s *AnalyticsService) Stats(filter domain.GraphFilter) (domain.NetworkStats, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.NetworkStats{}, err
	}
	return ComputeStats(ApplyFilter(snap.graph, filter), snap.users, snap.txs), nil
}

// Connections lists everything directly related to ref.
func (s *AnalyticsService) Connections(ref domain.EntityRef) ([]domain.Connection, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}

	var found bool
	switch ref.Type {
	case domain.NodeTypeUser:
		_, found = findUser(snap.users, ref.ID)
	case domain.NodeTypeTransaction:
		_, found = findTransaction(snap.txs, ref.ID)
	}
	if !found {
		return nil, fmt.Errorf("%s %d: %w", ref.Type, ref.ID, ErrNotFound)
	}
	return FindConnections(ref, snap.users, snap.txs), nil
}

// TransactionAnalytics aggregates transactions created inside window.
func (s *AnalyticsService) TransactionAnalytics(window Window) (domain.TransactionAnalytics, error) {
	snap, err := s.snapshot()
	if err != nil {
		return domain.TransactionAnalytics{}, err
	}
	return SummarizeTransactions(snap.users, snap.txs, window.Since(s.nowFn())), nil
}

// HighValueTransactions lists transactions with amount at or above minAmount,
// largest first. A non-positive minAmount uses DefaultHighValueAmount.
func (s *AnalyticsService) HighValueTransactions(minAmount float64) ([]domain.Transaction, error) {
	snap, err := s.snapshot()
	if err != nil {
		return nil, err
	}
	if minAmount <= 0 {
		minAmount = DefaultHighValueAmount
	}

	out := make([]domain.Transaction, 0)
	for _, tx := range snap.txs {
		if tx.Amount >= minAmount {
			out = append(out, tx)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Amount > out[j].Amount })
	return out, nil
}

// ListUsers retrieves paginated users matching provided filters.
func (s *AnalyticsService) ListUsers(params ListUsersParams) (UsersPage, error) {
	snap, err := s.snapshot()
	if err != nil {
		return UsersPage{}, err
	}
	page, pageSize := normalizePagination(params.Page, params.PageSize)
	search := strings.ToLower(sanitizeString(params.Search))

	matched := make([]domain.User, 0, len(snap.users))
	for _, u := range snap.users {
		if search == "" || userMatches(u, search) {
			matched = append(matched, u)
		}
	}

	return UsersPage{
		Items:      paginate(matched, page, pageSize),
		Pagination: buildPaginationMeta(page, pageSize, int64(len(matched))),
	}, nil
}

// ListTransactions retrieves paginated transactions matching filters.
func (s *AnalyticsService) ListTransactions(params ListTransactionsParams) (TransactionsPage, error) {
	snap, err := s.snapshot()
	if err != nil {
		return TransactionsPage{}, err
	}
	page, pageSize := normalizePagination(params.Page, params.PageSize)
	search := strings.ToLower(sanitizeString(params.Search))

	matched := make([]domain.Transaction, 0, len(snap.txs))
	for _, tx := range snap.txs {
		if params.UserID != nil && !involvesUser(tx, *params.UserID) {
			continue
		}
		if params.Status != "" && tx.Status != params.Status {
			continue
		}
		if params.MinAmount != nil && tx.Amount < *params.MinAmount {
			continue
		}
		if params.MaxAmount != nil && tx.Amount > *params.MaxAmount {
			continue
		}
		if search != "" && !transactionMatches(tx, search) {
			continue
		}
		matched = append(matched, tx)
	}

	return TransactionsPage{
		Items:      paginate(matched, page, pageSize),
		Pagination: buildPaginationMeta(page, pageSize, int64(len(matched))),
	}, nil
}

func userMatches(u domain.User, search string) bool {
	return strings.Contains(strings.ToLower(u.FullName()), search) ||
		strings.Contains(strings.ToLower(u.Email), search) ||
		strings.Contains(u.Phone, search) ||
		strconv.FormatInt(u.ID, 10) == search
}

func transactionMatches(tx domain.Transaction, search string) bool {
	return strings.Contains(strings.ToLower(tx.Description), search) ||
		strings.Contains(strings.ToLower(tx.Currency), search) ||
		strings.Contains(strings.ToLower(tx.PaymentMethod), search) ||
		strings.Contains(tx.IPAddress, search) ||
		strings.Contains(strings.ToLower(tx.DeviceID), search) ||
		strconv.FormatInt(tx.ID, 10) == search
}

func involvesUser(tx domain.Transaction, userID int64) bool {
	return (tx.Sender != nil && tx.Sender.ID == userID) ||
		(tx.Recipient != nil && tx.Recipient.ID == userID)
}

func paginate[T any](items []T, page, pageSize int) []T {
	offset := (page - 1) * pageSize
	if offset >= len(items) {
		return []T{}
	}
	end := offset + pageSize
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func normalizePagination(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	if pageSize > 200 {
		pageSize = 200
	}
	return page, pageSize
}

func buildPaginationMeta(page, pageSize int, total int64) PaginationMeta {
	totalPages := 0
	if pageSize > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(pageSize)))
		if total > 0 && totalPages == 0 {
			totalPages = 1
		}
	}
	return PaginationMeta{
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}
}
