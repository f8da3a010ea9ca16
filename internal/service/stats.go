package service

import (
	"time"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

const (
	// HighValueThreshold is compared against the raw amount in the
	// transaction's own currency; no conversion is applied.
	HighValueThreshold = 5000.0

	sharedValueThreshold     = 2
	suspiciousValueThreshold = 2
	mediumRiskScore          = 5
	highRiskScore            = 10
)

// ComputeStats summarizes graph and derives fraud indicators from the full
// user and transaction lists. Graph counts follow whatever filter produced
// graph; fraud indicators never do.
func ComputeStats(graph domain.GraphData, users []domain.User, txs []domain.Transaction) domain.NetworkStats {
	stats := domain.NetworkStats{
		TotalNodes:         len(graph.Nodes),
		TotalEdges:         len(graph.Edges),
		RelationshipCounts: make(map[domain.RelationshipKind]int, len(relationshipRules)),
	}

	for _, node := range graph.Nodes {
		switch node.Type {
		case domain.NodeTypeUser:
			stats.UserNodes++
		case domain.NodeTypeTransaction:
			stats.TransactionNodes++
		}
	}

	for _, kind := range Kinds() {
		stats.RelationshipCounts[kind] = 0
	}
	for _, edge := range graph.Edges {
		stats.RelationshipCounts[edge.Type]++
	}

	if n := float64(stats.TotalNodes); stats.TotalNodes > 1 {
		stats.Density = float64(stats.TotalEdges) / (n * (n - 1))
	}
	if stats.TotalNodes > 0 {
		stats.AverageConnections = float64(stats.TotalEdges) / float64(stats.TotalNodes)
	}

	stats.Fraud = ComputeFraudIndicators(users, txs)
	return stats
}

// ComputeFraudIndicators counts duplicated contact values and high-value
// transactions.
//
// SuspiciousUserCount adds up, per category, the values shared by more than
// two users. A user whose phone and email are both over-shared is counted
// twice; that approximation is kept on purpose.
func ComputeFraudIndicators(users []domain.User, txs []domain.Transaction) domain.FraudIndicators {
	phones := valueCounts(users, func(u domain.User) string { return u.Phone })
	emails := valueCounts(users, func(u domain.User) string { return u.Email })
	addresses := valueCounts(users, func(u domain.User) string { return u.Address })

	fraud := domain.FraudIndicators{
		DuplicatePhoneCount:   countAbove(phones, sharedValueThreshold-1),
		DuplicateEmailCount:   countAbove(emails, sharedValueThreshold-1),
		DuplicateAddressCount: countAbove(addresses, sharedValueThreshold-1),
		SuspiciousUserCount: countAbove(phones, suspiciousValueThreshold) +
			countAbove(emails, suspiciousValueThreshold) +
			countAbove(addresses, suspiciousValueThreshold),
	}
	fraud.DuplicateContactCount = fraud.DuplicatePhoneCount + fraud.DuplicateEmailCount

	for _, tx := range txs {
		if tx.Amount > HighValueThreshold {
			fraud.HighValueTransactionCount++
		}
	}

	fraud.RiskLevel = classifyRisk(fraud)
	return fraud
}

func classifyRisk(f domain.FraudIndicators) domain.RiskLevel {
	score := f.SuspiciousUserCount + f.DuplicatePhoneCount + f.DuplicateEmailCount
	switch {
	case score > highRiskScore:
		return domain.RiskHigh
	case score > mediumRiskScore:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func valueCounts(users []domain.User, extract func(domain.User) string) map[string]int {
	counts := make(map[string]int)
	for _, u := range users {
		if v := extract(u); !isBlank(v) {
			counts[v]++
		}
	}
	return counts
}

func countAbove(counts map[string]int, threshold int) int {
	n := 0
	for _, c := range counts {
		if c > threshold {
			n++
		}
	}
	return n
}

// SummarizeTransactions aggregates volume and distributions for transactions
// created at or after since. A zero since covers everything.
func SummarizeTransactions(users []domain.User, txs []domain.Transaction, since time.Time) domain.TransactionAnalytics {
	summary := domain.TransactionAnalytics{
		StatusCounts:        make(map[domain.TransactionStatus]int),
		CurrencyCounts:      make(map[string]int),
		PaymentMethodCounts: make(map[string]int),
		TotalUsers:          len(users),
	}

	participants := make(map[int64]struct{})
	for _, tx := range txs {
		if !since.IsZero() && tx.CreatedAt.Before(since) {
			continue
		}
		summary.TransactionCount++
		summary.TotalVolume += tx.Amount
		if tx.Amount > summary.MaxAmount {
			summary.MaxAmount = tx.Amount
		}
		if tx.Amount > HighValueThreshold {
			summary.HighValueCount++
		}
		summary.StatusCounts[tx.Status]++
		summary.CurrencyCounts[tx.Currency]++
		summary.PaymentMethodCounts[tx.PaymentMethod]++
		if tx.Sender != nil {
			participants[tx.Sender.ID] = struct{}{}
		}
		if tx.Recipient != nil {
			participants[tx.Recipient.ID] = struct{}{}
		}
	}

	if summary.TransactionCount > 0 {
		summary.AverageAmount = summary.TotalVolume / float64(summary.TransactionCount)
	}
	for _, u := range users {
		if _, ok := participants[u.ID]; ok {
			summary.ActiveUsers++
		}
	}
	return summary
}
