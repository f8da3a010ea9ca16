package domain

// RiskLevel is a coarse classification derived from fraud indicator counts.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// FraudIndicators are threshold counts computed over the full user and
// transaction lists, independent of any graph filter.
type FraudIndicators struct {
	DuplicatePhoneCount       int       `json:"duplicatePhoneCount"`
	DuplicateEmailCount       int       `json:"duplicateEmailCount"`
	DuplicateAddressCount     int       `json:"duplicateAddressCount"`
	DuplicateContactCount     int       `json:"duplicateContactCount"`
	SuspiciousUserCount       int       `json:"suspiciousUserCount"`
	HighValueTransactionCount int       `json:"highValueTransactionCount"`
	RiskLevel                 RiskLevel `json:"riskLevel"`
}

// NetworkStats summarizes a graph for analytics views.
type NetworkStats struct {
	TotalNodes         int                      `json:"totalNodes"`
	TotalEdges         int                      `json:"totalEdges"`
	UserNodes          int                      `json:"userNodes"`
	TransactionNodes   int                      `json:"transactionNodes"`
	RelationshipCounts map[RelationshipKind]int `json:"relationshipCounts"`
	// Density is edges over n(n-1). Node pairs linked by several kinds count
	// once per edge, so it can exceed 1.
	Density            float64                  `json:"density"`
	AverageConnections float64                  `json:"averageConnections"`
	Fraud              FraudIndicators          `json:"fraud"`
}

// TransactionAnalytics aggregates transaction volume and distributions.
type TransactionAnalytics struct {
	TransactionCount    int                       `json:"transactionCount"`
	TotalVolume         float64                   `json:"totalVolume"`
	AverageAmount       float64                   `json:"averageAmount"`
	MaxAmount           float64                   `json:"maxAmount"`
	HighValueCount      int                       `json:"highValueCount"`
	StatusCounts        map[TransactionStatus]int `json:"statusCounts"`
	CurrencyCounts      map[string]int            `json:"currencyCounts"`
	PaymentMethodCounts map[string]int            `json:"paymentMethodCounts"`
	ActiveUsers         int                       `json:"activeUsers"`
	TotalUsers          int                       `json:"totalUsers"`
}
