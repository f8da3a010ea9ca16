package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

func TestComputeStats_SampleGraph(t *testing.T) {
	users, txs := sampleData()
	graph := BuildGraph(users, txs)

	stats := ComputeStats(graph, users, txs)

	assert.Equal(t, 6, stats.TotalNodes)
	assert.Equal(t, 10, stats.TotalEdges)
	assert.Equal(t, 3, stats.UserNodes)
	assert.Equal(t, 3, stats.TransactionNodes)
	assert.Equal(t, map[domain.RelationshipKind]int{
		domain.RelSent:              3,
		domain.RelReceived:          3,
		domain.RelSharesEmail:       0,
		domain.RelSharesPhone:       1,
		domain.RelSharesAddress:     1,
		domain.RelSameDevice:        1,
		domain.RelSameIP:            1,
		domain.RelSamePaymentMethod: 0,
	}, stats.RelationshipCounts)
	assert.InDelta(t, 10.0/30.0, stats.Density, 1e-12)
	assert.InDelta(t, 10.0/6.0, stats.AverageConnections, 1e-12)

	assert.Equal(t, domain.FraudIndicators{
		DuplicatePhoneCount:       1,
		DuplicateEmailCount:       0,
		DuplicateAddressCount:     1,
		DuplicateContactCount:     1,
		SuspiciousUserCount:       0,
		HighValueTransactionCount: 2,
		RiskLevel:                 domain.RiskLow,
	}, stats.Fraud)
}

func TestComputeStats_KindCountsSumToEdges(t *testing.T) {
	users, txs := sampleData()
	graph := BuildGraph(users, txs)

	filters := []domain.GraphFilter{
		DefaultFilter(),
		{ShowUsers: true, RelationshipKinds: Kinds()},
		{ShowUsers: true, ShowTransactions: true, RelationshipKinds: Kinds(), MinAmount: ptr(5000.0)},
	}
	for i, filter := range filters {
		stats := ComputeStats(ApplyFilter(graph, filter), users, txs)
		sum := 0
		for _, c := range stats.RelationshipCounts {
			sum += c
		}
		assert.Equal(t, stats.TotalEdges, sum, "filter %d", i)
	}
}

func TestComputeStats_EmptyGraph(t *testing.T) {
	stats := ComputeStats(domain.GraphData{}, nil, nil)

	assert.Zero(t, stats.Density)
	assert.Zero(t, stats.AverageConnections)
	assert.Len(t, stats.RelationshipCounts, len(Kinds()))
	assert.Equal(t, domain.RiskLow, stats.Fraud.RiskLevel)
}

func TestComputeStats_SingleNodeHasNoDensity(t *testing.T) {
	graph := BuildGraph([]domain.User{{ID: 1}}, nil)

	stats := ComputeStats(graph, nil, nil)

	assert.Zero(t, stats.Density)
	assert.Zero(t, stats.AverageConnections)
}

func TestComputeStats_DensityCountsParallelEdges(t *testing.T) {
	users := []domain.User{
		newUser(1, "same@example.com", "555-0100", "1 Main St"),
		newUser(2, "same@example.com", "555-0100", "1 Main St"),
	}
	graph := BuildGraph(users, nil)

	stats := ComputeStats(graph, users, nil)

	assert.Equal(t, 3, stats.TotalEdges)
	assert.InDelta(t, 1.5, stats.Density, 1e-12)
}

func TestComputeStats_UnknownKindCountedUnderOwnKey(t *testing.T) {
	graph := domain.GraphData{
		Nodes: []domain.GraphNode{{ID: "user-1", Type: domain.NodeTypeUser}, {ID: "user-2", Type: domain.NodeTypeUser}},
		Edges: []domain.GraphEdge{{ID: "e", Source: "user-1", Target: "user-2", Type: "LEGACY_LINK"}},
	}

	stats := ComputeStats(graph, nil, nil)

	assert.Equal(t, 1, stats.RelationshipCounts["LEGACY_LINK"])
}

func TestComputeFraudIndicators_ThreeUsersSharingPhone(t *testing.T) {
	users := []domain.User{
		newUser(1, "a@x.com", "555", ""),
		newUser(2, "b@x.com", "555", ""),
		newUser(3, "c@x.com", "555", ""),
	}

	fraud := ComputeFraudIndicators(users, nil)

	assert.Equal(t, 1, fraud.DuplicatePhoneCount)
	assert.Equal(t, 0, fraud.DuplicateEmailCount)
	assert.Equal(t, 1, fraud.SuspiciousUserCount)
}

func TestComputeFraudIndicators_IgnoresBlankValues(t *testing.T) {
	users := []domain.User{
		newUser(1, "", " ", ""),
		newUser(2, "", " ", ""),
		newUser(3, "", " ", ""),
	}

	fraud := ComputeFraudIndicators(users, nil)

	assert.Zero(t, fraud.DuplicatePhoneCount)
	assert.Zero(t, fraud.DuplicateEmailCount)
	assert.Zero(t, fraud.SuspiciousUserCount)
}

func TestComputeFraudIndicators_RiskLevels(t *testing.T) {
	sharedPhones := func(values, perValue int) []domain.User {
		var users []domain.User
		id := int64(1)
		for v := 0; v < values; v++ {
			for n := 0; n < perValue; n++ {
				users = append(users, newUser(id, fmt.Sprintf("u%d@x.com", id), fmt.Sprintf("555-%d", v), ""))
				id++
			}
		}
		return users
	}

	tests := []struct {
		name  string
		users []domain.User
		want  domain.RiskLevel
	}{
		{name: "score five stays low", users: sharedPhones(5, 2), want: domain.RiskLow},
		{name: "score six is medium", users: sharedPhones(6, 2), want: domain.RiskMedium},
		{name: "score ten is medium", users: sharedPhones(5, 3), want: domain.RiskMedium},
		{name: "score twelve is high", users: sharedPhones(6, 3), want: domain.RiskHigh},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ComputeFraudIndicators(tc.users, nil).RiskLevel)
		})
	}
}

func TestSummarizeTransactions(t *testing.T) {
	users, txs := sampleData()

	all := SummarizeTransactions(users, txs, time.Time{})
	assert.Equal(t, 3, all.TransactionCount)
	assert.InDelta(t, 19750.0, all.TotalVolume, 1e-9)
	assert.Equal(t, 12000.0, all.MaxAmount)
	assert.Equal(t, 2, all.HighValueCount)
	assert.Equal(t, 1, all.StatusCounts[domain.StatusPending])
	assert.Equal(t, 3, all.ActiveUsers)
	assert.Equal(t, 3, all.TotalUsers)

	recent := SummarizeTransactions(users, txs, baseTime.AddDate(0, 0, -30))
	require.Equal(t, 2, recent.TransactionCount)
	assert.InDelta(t, 3875.0, recent.AverageAmount, 1e-9)
	assert.Equal(t, 7500.0, recent.MaxAmount)
	assert.Equal(t, map[domain.TransactionStatus]int{domain.StatusCompleted: 2}, recent.StatusCounts)
	assert.Equal(t, map[string]int{"card": 1, "bank": 1}, recent.PaymentMethodCounts)
	assert.Equal(t, map[string]int{"USD": 2}, recent.CurrencyCounts)
}

func TestSummarizeTransactions_Empty(t *testing.T) {
	summary := SummarizeTransactions(nil, nil, time.Time{})

	assert.Zero(t, summary.TransactionCount)
	assert.Zero(t, summary.AverageAmount)
	assert.NotNil(t, summary.StatusCounts)
}
