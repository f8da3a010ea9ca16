package server

import (
	"time"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
	"github.com/vanshika/fintrace/linkgraph/internal/service"
)

// --- Request & Response DTOs ---

type graphFilterRequest struct {
	ShowUsers         *bool             `json:"showUsers"`
	ShowTransactions  *bool             `json:"showTransactions"`
	RelationshipTypes []string          `json:"relationshipTypes" validate:"omitempty,dive,relkind"`
	MinAmount         *float64          `json:"minAmount" validate:"omitempty,gte=0"`
	MaxAmount         *float64          `json:"maxAmount" validate:"omitempty,gte=0"`
	DateRange         *dateRangeRequest `json:"dateRange"`
}

type dateRangeRequest struct {
	Start string `json:"start" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	End   string `json:"end" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

// toFilter converts a validated request. Omitted fields keep the default
// filter's value; an explicit empty relationshipTypes list hides every edge.
func (req graphFilterRequest) toFilter() (domain.GraphFilter, error) {
	filter := service.DefaultFilter()
	if req.ShowUsers != nil {
		filter.ShowUsers = *req.ShowUsers
	}
	if req.ShowTransactions != nil {
		filter.ShowTransactions = *req.ShowTransactions
	}
	if req.RelationshipTypes != nil {
		kinds, err := parseKinds(req.RelationshipTypes)
		if err != nil {
			return domain.GraphFilter{}, err
		}
		filter.RelationshipKinds = kinds
	}
	filter.MinAmount = req.MinAmount
	filter.MaxAmount = req.MaxAmount
	if req.DateRange != nil {
		dr, err := parseDateRange(req.DateRange.Start, req.DateRange.End)
		if err != nil {
			return domain.GraphFilter{}, err
		}
		filter.DateRange = dr
	}
	return filter, nil
}

type graphResponse struct {
	Nodes    []domain.GraphNode   `json:"nodes"`
	Edges    []domain.GraphEdge   `json:"edges"`
	Snapshot service.SnapshotInfo `json:"snapshot"`
}

type refreshResponse struct {
	Status   string               `json:"status"`
	Snapshot service.SnapshotInfo `json:"snapshot"`
}

type paginationResponse struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

func newPaginationResponse(meta service.PaginationMeta) paginationResponse {
	return paginationResponse{
		Page:       meta.Page,
		PageSize:   meta.PageSize,
		TotalItems: meta.TotalItems,
		TotalPages: meta.TotalPages,
	}
}

type userResponse struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	UpdatedAt   string `json:"updatedAt,omitempty"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:          u.ID,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Email:       u.Email,
		Phone:       u.Phone,
		Address:     u.Address,
		DateOfBirth: u.DateOfBirth,
		CreatedAt:   formatTime(u.CreatedAt),
		UpdatedAt:   formatTime(u.UpdatedAt),
	}
}

type transactionResponse struct {
	ID            int64                    `json:"id"`
	Amount        float64                  `json:"amount"`
	Currency      string                   `json:"currency"`
	Description   string                   `json:"description,omitempty"`
	IPAddress     string                   `json:"ipAddress,omitempty"`
	DeviceID      string                   `json:"deviceId,omitempty"`
	PaymentMethod string                   `json:"paymentMethod,omitempty"`
	Status        domain.TransactionStatus `json:"status"`
	CreatedAt     string                   `json:"createdAt,omitempty"`
	CompletedAt   string                   `json:"completedAt,omitempty"`
	SenderID      *int64                   `json:"senderId,omitempty"`
	RecipientID   *int64                   `json:"recipientId,omitempty"`
}

func newTransactionResponse(tx domain.Transaction) transactionResponse {
	resp := transactionResponse{
		ID:            tx.ID,
		Amount:        tx.Amount,
		Currency:      tx.Currency,
		Description:   tx.Description,
		IPAddress:     tx.IPAddress,
		DeviceID:      tx.DeviceID,
		PaymentMethod: tx.PaymentMethod,
		Status:        tx.Status,
		CreatedAt:     formatTime(tx.CreatedAt),
		CompletedAt:   formatTimePtr(tx.CompletedAt),
	}
	if tx.Sender != nil {
		id := tx.Sender.ID
		resp.SenderID = &id
	}
	if tx.Recipient != nil {
		id := tx.Recipient.ID
		resp.RecipientID = &id
	}
	return resp
}

type listUsersResponse struct {
	Items      []userResponse     `json:"items"`
	Pagination paginationResponse `json:"pagination"`
}

type listTransactionsResponse struct {
	Items      []transactionResponse `json:"items"`
	Pagination paginationResponse    `json:"pagination"`
}

type highValueResponse struct {
	MinAmount float64               `json:"minAmount"`
	Items     []transactionResponse `json:"items"`
}

type transactionAnalyticsResponse struct {
	Window service.Window `json:"window"`
	domain.TransactionAnalytics
}

// connectionResponse adds a singular "primary" view of the first relationship
// for clients that only render one badge per connection.
type connectionResponse struct {
	NodeID                  string                             `json:"nodeId"`
	Type                    domain.NodeType                    `json:"type"`
	User                    *userResponse                      `json:"user,omitempty"`
	Transaction             *transactionResponse               `json:"transaction,omitempty"`
	RelationshipTypes       []domain.RelationshipKind          `json:"relationshipTypes"`
	SharedValues            map[domain.RelationshipKind]string `json:"sharedValues"`
	PrimaryRelationshipType domain.RelationshipKind            `json:"primaryRelationshipType"`
	PrimarySharedValue      string                             `json:"primarySharedValue"`
}

func newConnectionResponse(c domain.Connection) connectionResponse {
	resp := connectionResponse{
		Type:              c.Type,
		RelationshipTypes: c.Kinds,
		SharedValues:      c.SharedValues,
	}
	if len(c.Kinds) > 0 {
		resp.PrimaryRelationshipType = c.Kinds[0]
		resp.PrimarySharedValue = c.SharedValues[c.Kinds[0]]
	}
	if c.User != nil {
		u := newUserResponse(*c.User)
		resp.User = &u
		resp.NodeID = c.User.NodeID()
	}
	if c.Transaction != nil {
		tx := newTransactionResponse(*c.Transaction)
		resp.Transaction = &tx
		resp.NodeID = c.Transaction.NodeID()
	}
	return resp
}

type connectionsResponse struct {
	Target      string               `json:"target"`
	Count       int                  `json:"count"`
	Connections []connectionResponse `json:"connections"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(ts *time.Time) string {
	if ts == nil || ts.IsZero() {
		return ""
	}
	return ts.UTC().Format(time.RFC3339)
}
