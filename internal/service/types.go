package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

// PaginationMeta captures pagination metadata returned to API clients.
type PaginationMeta struct {
	Page       int
	PageSize   int
	TotalItems int64
	TotalPages int
}

// UsersPage represents paginated users with metadata.
type UsersPage struct {
	Items      []domain.User
	Pagination PaginationMeta
}

// TransactionsPage represents paginated transactions with metadata.
type TransactionsPage struct {
	Items      []domain.Transaction
	Pagination PaginationMeta
}

// ListUsersParams defines filters for listing users.
type ListUsersParams struct {
	Page     int
	PageSize int
	Search   string
}

// ListTransactionsParams defines filters for listing transactions.
type ListTransactionsParams struct {
	Page      int
	PageSize  int
	Search    string
	UserID    *int64
	Status    domain.TransactionStatus
	MinAmount *float64
	MaxAmount *float64
}

// SnapshotInfo describes the data set currently backing the service.
type SnapshotInfo struct {
	Generation   uint64    `json:"generation"`
	Fingerprint  string    `json:"fingerprint"`
	LoadedAt     time.Time `json:"loadedAt"`
	Users        int       `json:"users"`
	Transactions int       `json:"transactions"`
	Nodes        int       `json:"nodes"`
	Edges        int       `json:"edges"`
}

// GraphResult is a filtered graph together with the snapshot it came from.
type GraphResult struct {
	Graph    domain.GraphData
	Snapshot SnapshotInfo
}

// GraphExport is the downloadable form of a filtered graph, shared by the
// HTTP export and the analyze CLI.
type GraphExport struct {
	ExportedAt time.Time          `json:"exportedAt"`
	Filter     domain.GraphFilter `json:"filter"`
	Snapshot   SnapshotInfo       `json:"snapshot"`
	Nodes      []domain.GraphNode `json:"nodes"`
	Edges      []domain.GraphEdge `json:"edges"`
}

// Window bounds transaction analytics to a trailing period.
type Window string

const (
	WindowAll    Window = "all"
	Window7Days  Window = "7d"
	Window30Days Window = "30d"
	Window90Days Window = "90d"
)

// ParseWindow accepts the supported window names; an empty value means all.
func ParseWindow(value string) (Window, error) {
	switch w := Window(strings.ToLower(strings.TrimSpace(value))); w {
	case "":
		return WindowAll, nil
	case WindowAll, Window7Days, Window30Days, Window90Days:
		return w, nil
	default:
		return "", fmt.Errorf("unsupported window %q", value)
	}
}

// Since returns the start of the window relative to now, or the zero time for
// WindowAll.
func (w Window) Since(now time.Time) time.Time {
	switch w {
	case Window7Days:
		return now.AddDate(0, 0, -7)
	case Window30Days:
		return now.AddDate(0, 0, -30)
	case Window90Days:
		return now.AddDate(0, 0, -90)
	default:
		return time.Time{}
	}
}
