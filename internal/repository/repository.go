package repository

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
	"github.com/vanshika/fintrace/linkgraph/internal/graphdb"
)

// Repository loads users and transactions from the graph database. It only
// reads; derived relationships are never written back.
type Repository struct {
	client graphdb.Client
	logger *zap.Logger
}

// New instantiates a Repository backed by the supplied graph client.
func New(client graphdb.Client, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{client: client, logger: logger.Named("repository")}
}

// LoadUsers returns every (:User) node ordered by id.
func (r *Repository) LoadUsers(ctx context.Context) ([]domain.User, error) {
	res, err := r.client.Query(ctx, loadUsersCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("load users query: %w", err)
	}

	users := make([]domain.User, 0, len(res.Records))
	for _, record := range res.Records {
		user, ok := userFromProps(record)
		if !ok {
			r.logger.Warn("skipping user without id", zap.Any("record", record))
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// LoadTransactions returns every (:Transaction) node with its sender and
// recipient embedded, ordered by id.
func (r *Repository) LoadTransactions(ctx context.Context) ([]domain.Transaction, error) {
	res, err := r.client.Query(ctx, loadTransactionsCypher, nil)
	if err != nil {
		return nil, fmt.Errorf("load transactions query: %w", err)
	}

	txs := make([]domain.Transaction, 0, len(res.Records))
	for _, record := range res.Records {
		id, ok := toInt64(record["id"])
		if !ok {
			r.logger.Warn("skipping transaction without id", zap.Any("record", record))
			continue
		}
		tx := domain.Transaction{
			ID:            id,
			Amount:        toFloat64(record["amount"]),
			Currency:      toString(record["currency"]),
			Description:   toString(record["description"]),
			IPAddress:     toString(record["ipAddress"]),
			DeviceID:      toString(record["deviceId"]),
			PaymentMethod: toString(record["paymentMethod"]),
			Status:        domain.ParseTransactionStatus(toString(record["status"])),
			CompletedAt:   toTimePtr(record["completedAt"]),
		}
		if created := toTimePtr(record["createdAt"]); created != nil {
			tx.CreatedAt = *created
		}
		if props, ok := record["sender"].(map[string]any); ok {
			if sender, ok := userFromProps(props); ok {
				tx.Sender = &sender
			}
		}
		if props, ok := record["recipient"].(map[string]any); ok {
			if recipient, ok := userFromProps(props); ok {
				tx.Recipient = &recipient
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.VerifyConnectivity(ctx)
}

func userFromProps(props map[string]any) (domain.User, bool) {
	id, ok := toInt64(props["id"])
	if !ok {
		return domain.User{}, false
	}
	user := domain.User{
		ID:          id,
		Email:       toString(props["email"]),
		Phone:       toString(props["phone"]),
		FirstName:   toString(props["firstName"]),
		LastName:    toString(props["lastName"]),
		Address:     toString(props["address"]),
		DateOfBirth: toString(props["dateOfBirth"]),
	}
	if created := toTimePtr(props["createdAt"]); created != nil {
		user.CreatedAt = *created
	}
	if updated := toTimePtr(props["updatedAt"]); updated != nil {
		user.UpdatedAt = *updated
	}
	return user, true
}

func toString(val any) string {
	switch v := val.(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func toInt64(val any) (int64, bool) {
	switch v := val.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

func toFloat64(val any) float64 {
	switch v := val.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f
	default:
		return 0
	}
}

// toTimePtr accepts driver temporal values and RFC3339 strings.
func toTimePtr(val any) *time.Time {
	switch v := val.(type) {
	case time.Time:
		return &v
	case interface{ Time() time.Time }:
		t := v.Time()
		return &t
	case string:
		if v == "" {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339Nano, v); err == nil {
			return &parsed
		}
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			return &parsed
		}
	}
	return nil
}

const loadUsersCypher = `
MATCH (u:User)
RETURN u.id AS id,
       u.email AS email,
       u.phone AS phone,
       u.firstName AS firstName,
       u.lastName AS lastName,
       u.address AS address,
       u.dateOfBirth AS dateOfBirth,
       u.createdAt AS createdAt,
       u.updatedAt AS updatedAt
ORDER BY u.id
`

const loadTransactionsCypher = `
MATCH (t:Transaction)
OPTIONAL MATCH (s:User)-[:SENT]->(t)
OPTIONAL MATCH (t)-[:RECEIVED]->(r:User)
WITH t, head(collect(DISTINCT s)) AS s, head(collect(DISTINCT r)) AS r
RETURN t.id AS id,
       t.amount AS amount,
       t.currency AS currency,
       t.description AS description,
       t.ipAddress AS ipAddress,
       t.deviceId AS deviceId,
       t.paymentMethod AS paymentMethod,
       t.status AS status,
       t.createdAt AS createdAt,
       t.completedAt AS completedAt,
       CASE WHEN s IS NULL THEN null ELSE s { .* } END AS sender,
       CASE WHEN r IS NULL THEN null ELSE r { .* } END AS recipient
ORDER BY t.id
`
