package generator

// Config drives the synthetic data generator.
type Config struct {
	NumUsers                 int
	NumTransactions          int
	SharedAttributeChance    float64
	PaymentMethodShareChance float64
	IPShareChance            float64
	DeviceShareChance        float64
	HighValueChance          float64
	Seed                     int64
}

// DefaultConfig keeps the dataset small enough for the pairwise graph build
// to stay interactive.
func DefaultConfig() Config {
	return Config{
		NumUsers:                 500,
		NumTransactions:          2000,
		SharedAttributeChance:    0.15,
		PaymentMethodShareChance: 0.25,
		IPShareChance:            0.2,
		DeviceShareChance:        0.2,
		HighValueChance:          0.08,
		Seed:                     42,
	}
}
