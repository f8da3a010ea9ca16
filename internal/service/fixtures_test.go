package service

import (
	"time"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newUser(id int64, email, phone, address string) domain.User {
	return domain.User{
		ID:        id,
		FirstName: "User",
		LastName:  string(rune('A' + id%26)),
		Email:     email,
		Phone:     phone,
		Address:   address,
		CreatedAt: baseTime,
		UpdatedAt: baseTime,
	}
}

func newTransaction(id int64, amount float64, sender, recipient *domain.User) domain.Transaction {
	return domain.Transaction{
		ID:        id,
		Amount:    amount,
		Currency:  "USD",
		Status:    domain.StatusCompleted,
		CreatedAt: baseTime,
		Sender:    sender,
		Recipient: recipient,
	}
}

func ptr[T any](v T) *T {
	return &v
}

// sampleData has two users sharing an address, a third sharing a phone with
// the first, and transactions that share a device and an IP.
func sampleData() ([]domain.User, []domain.Transaction) {
	users := []domain.User{
		newUser(1, "alice@example.com", "555-0100", "1 Main St"),
		newUser(2, "bob@example.com", "555-0200", "1 Main St"),
		newUser(3, "carol@example.com", "555-0100", ""),
	}

	t1 := newTransaction(10, 250, &users[0], &users[1])
	t1.DeviceID = "dev-1"
	t1.IPAddress = "10.0.0.1"
	t1.PaymentMethod = "card"

	t2 := newTransaction(11, 7500, &users[1], &users[2])
	t2.DeviceID = "dev-1"
	t2.IPAddress = "10.0.0.2"
	t2.PaymentMethod = "bank"
	t2.CreatedAt = baseTime.AddDate(0, 0, -20)

	t3 := newTransaction(12, 12000, &users[2], &users[0])
	t3.DeviceID = "dev-3"
	t3.IPAddress = "10.0.0.2"
	t3.PaymentMethod = "wallet"
	t3.Status = domain.StatusPending
	t3.CreatedAt = baseTime.AddDate(0, 0, -60)

	return users, []domain.Transaction{t1, t2, t3}
}

func edgesOfKind(g domain.GraphData, kind domain.RelationshipKind) []domain.GraphEdge {
	var out []domain.GraphEdge
	for _, e := range g.Edges {
		if e.Type == kind {
			out = append(out, e)
		}
	}
	return out
}

func nodeIDs(g domain.GraphData) map[string]struct{} {
	ids := make(map[string]struct{}, len(g.Nodes))
	for _, n := range g.Nodes {
		ids[n.ID] = struct{}{}
	}
	return ids
}
