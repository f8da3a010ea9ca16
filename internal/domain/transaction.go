package domain

import (
	"strconv"
	"strings"
	"time"
)

// TransactionStatus is the lifecycle state reported for a transaction.
type TransactionStatus string

const (
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusPending   TransactionStatus = "PENDING"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
	StatusUnknown   TransactionStatus = "UNKNOWN"
)

// ParseTransactionStatus maps free-form status strings onto the known set.
func ParseTransactionStatus(value string) TransactionStatus {
	switch s := TransactionStatus(strings.ToUpper(strings.TrimSpace(value))); s {
	case StatusCompleted, StatusPending, StatusFailed, StatusCancelled:
		return s
	default:
		return StatusUnknown
	}
}

// UnmarshalText normalizes incoming status values so unknown strings never leak through.
func (s *TransactionStatus) UnmarshalText(text []byte) error {
	*s = ParseTransactionStatus(string(text))
	return nil
}

// Transaction models a transfer between two users.
type Transaction struct {
	ID            int64             `json:"id"`
	Amount        float64           `json:"amount"`
	Currency      string            `json:"currency"`
	Description   string            `json:"description"`
	IPAddress     string            `json:"ipAddress"`
	DeviceID      string            `json:"deviceId"`
	PaymentMethod string            `json:"paymentMethod"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
	Sender        *User             `json:"sender,omitempty"`
	Recipient     *User             `json:"recipient,omitempty"`
}

// NodeID returns the namespaced graph identifier of the transaction.
func (t Transaction) NodeID() string {
	return TransactionNodeID(t.ID)
}

// TransactionNodeID builds the namespaced node identifier for a transaction id.
func TransactionNodeID(id int64) string {
	return string(NodeTypeTransaction) + "-" + strconv.FormatInt(id, 10)
}
