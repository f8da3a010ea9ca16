package generator

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/vanshika/fintrace/linkgraph/internal/dataset"
	"github.com/vanshika/fintrace/linkgraph/internal/domain"
)

// Generator produces synthetic users and transactions with a controlled share
// of reused contact details, devices, IPs and payment methods.
type Generator struct {
	cfg           Config
	rand          *rand.Rand
	now           time.Time
	nameFragments nameFragments
	pools         attributePools
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumUsers <= 0 {
		cfg.NumUsers = def.NumUsers
	}
	if cfg.NumTransactions < 0 {
		cfg.NumTransactions = def.NumTransactions
	}
	if cfg.SharedAttributeChance <= 0 {
		cfg.SharedAttributeChance = def.SharedAttributeChance
	}
	if cfg.PaymentMethodShareChance <= 0 {
		cfg.PaymentMethodShareChance = def.PaymentMethodShareChance
	}
	if cfg.IPShareChance <= 0 {
		cfg.IPShareChance = def.IPShareChance
	}
	if cfg.DeviceShareChance <= 0 {
		cfg.DeviceShareChance = def.DeviceShareChance
	}
	if cfg.HighValueChance <= 0 {
		cfg.HighValueChance = def.HighValueChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:           cfg,
		rand:          rand.New(rand.NewSource(cfg.Seed)),
		now:           time.Now().UTC(),
		nameFragments: defaultNameFragments(),
	}
}

// WithClock pins the reference time so the same seed yields identical output.
func (g *Generator) WithClock(now time.Time) *Generator {
	g.now = now.UTC()
	return g
}

// Generate synthesises users and transactions. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (dataset.Dataset, error) {
	users := make([]domain.User, g.cfg.NumUsers)

	for i := range users {
		if err := ctx.Err(); err != nil {
			return dataset.Dataset{}, err
		}

		createdAt := g.now.Add(-time.Duration(g.rand.Intn(365*24)) * time.Hour)
		updatedAt := createdAt.Add(time.Duration(g.rand.Intn(72)) * time.Hour)
		first, last := g.randomName()

		users[i] = domain.User{
			ID:          int64(i + 1),
			FirstName:   first,
			LastName:    last,
			Email:       g.maybeSharedString(&g.pools.emails, g.cfg.SharedAttributeChance, func() string { return g.randomEmail(first, last) }),
			Phone:       g.maybeSharedString(&g.pools.phones, g.cfg.SharedAttributeChance, g.randomPhone),
			Address:     g.maybeSharedString(&g.pools.addresses, g.cfg.SharedAttributeChance, g.randomAddress),
			DateOfBirth: g.randomDateOfBirth(),
			CreatedAt:   createdAt,
			UpdatedAt:   updatedAt,
		}
	}

	transactions := make([]domain.Transaction, g.cfg.NumTransactions)
	for i := range transactions {
		if err := ctx.Err(); err != nil {
			return dataset.Dataset{}, err
		}

		senderIdx := g.rand.Intn(len(users))
		recipientIdx := g.rand.Intn(len(users))
		if senderIdx == recipientIdx && len(users) > 1 {
			recipientIdx = (recipientIdx + 1) % len(users)
		}
		sender := users[senderIdx]
		recipient := users[recipientIdx]

		createdAt := g.now.Add(-time.Duration(g.rand.Intn(120*24*60)) * time.Minute)
		status := g.randomStatus()
		var completedAt *time.Time
		if status == domain.StatusCompleted {
			done := createdAt.Add(time.Duration(1+g.rand.Intn(90)) * time.Minute)
			completedAt = &done
		}

		transactions[i] = domain.Transaction{
			ID:            int64(i + 1),
			Amount:        g.randomAmount(),
			Currency:      g.randomCurrency(),
			Description:   g.randomNote(),
			IPAddress:     g.maybeSharedString(&g.pools.ips, g.cfg.IPShareChance, g.randomIP),
			DeviceID:      g.maybeSharedString(&g.pools.devices, g.cfg.DeviceShareChance, g.randomDeviceID),
			PaymentMethod: g.maybeSharedString(&g.pools.payments, g.cfg.PaymentMethodShareChance, g.randomPaymentMethod),
			Status:        status,
			CreatedAt:     createdAt,
			CompletedAt:   completedAt,
			Sender:        &sender,
			Recipient:     &recipient,
		}
	}

	return dataset.Dataset{Users: users, Transactions: transactions}, nil
}

type attributePools struct {
	emails    []string
	phones    []string
	addresses []string
	payments  []string
	ips       []string
	devices   []string
}

func (g *Generator) maybeSharedString(pool *[]string, chance float64, newValue func() string) string {
	if len(*pool) > 0 && g.rand.Float64() < chance {
		return (*pool)[g.rand.Intn(len(*pool))]
	}
	val := newValue()
	*pool = append(*pool, val)
	return val
}

// randomAmount mostly yields everyday payments, with a tail of high-value
// transfers above the review threshold.
func (g *Generator) randomAmount() float64 {
	var amount float64
	switch roll := g.rand.Float64(); {
	case roll < g.cfg.HighValueChance:
		amount = 10000 + g.rand.Float64()*40000
	case roll < g.cfg.HighValueChance*2:
		amount = 5000 + g.rand.Float64()*5000
	default:
		amount = 10 + g.rand.Float64()*4990
	}
	return float64(int64(amount*100)) / 100
}

func (g *Generator) randomName() (string, string) {
	return g.nameFragments.first[g.rand.Intn(len(g.nameFragments.first))],
		g.nameFragments.last[g.rand.Intn(len(g.nameFragments.last))]
}

func (g *Generator) randomEmail(first, last string) string {
	mailDomain := g.nameFragments.domains[g.rand.Intn(len(g.nameFragments.domains))]
	return fmt.Sprintf("%s.%s%d@%s", first, last, g.rand.Intn(1000), mailDomain)
}

func (g *Generator) randomPhone() string {
	return fmt.Sprintf("+1%03d%03d%04d", g.rand.Intn(900)+100, g.rand.Intn(900)+100, g.rand.Intn(10000))
}

func (g *Generator) randomAddress() string {
	return fmt.Sprintf("%d %s %s, %s, %s %05d", g.rand.Intn(9999)+1,
		g.nameFragments.streetNames[g.rand.Intn(len(g.nameFragments.streetNames))],
		g.nameFragments.streetSuffix[g.rand.Intn(len(g.nameFragments.streetSuffix))],
		g.nameFragments.cities[g.rand.Intn(len(g.nameFragments.cities))],
		g.nameFragments.states[g.rand.Intn(len(g.nameFragments.states))],
		g.rand.Intn(99999))
}

func (g *Generator) randomDateOfBirth() string {
	dob := time.Date(1960+g.rand.Intn(40), time.Month(1+g.rand.Intn(12)), 1+g.rand.Intn(28), 0, 0, 0, 0, time.UTC)
	return dob.Format("2006-01-02")
}

func (g *Generator) randomStatus() domain.TransactionStatus {
	switch roll := g.rand.Float64(); {
	case roll < 0.8:
		return domain.StatusCompleted
	case roll < 0.9:
		return domain.StatusPending
	case roll < 0.97:
		return domain.StatusFailed
	default:
		return domain.StatusCancelled
	}
}

func (g *Generator) randomCurrency() string {
	currencies := []string{"USD", "USD", "USD", "EUR", "GBP", "INR"}
	return currencies[g.rand.Intn(len(currencies))]
}

func (g *Generator) randomPaymentMethod() string {
	kinds := []string{"VISA", "MASTERCARD", "AMEX", "BANK", "PAYPAL"}
	return fmt.Sprintf("%s ****%04d", kinds[g.rand.Intn(len(kinds))], g.rand.Intn(10000))
}

func (g *Generator) randomIP() string {
	return fmt.Sprintf("%d.%d.%d.%d", g.rand.Intn(223)+1, g.rand.Intn(256), g.rand.Intn(256), g.rand.Intn(256))
}

func (g *Generator) randomDeviceID() string {
	return fmt.Sprintf("device-%06d", g.rand.Intn(999999))
}

func (g *Generator) randomNote() string {
	notes := []string{"Invoice settlement", "Freelance payout", "Peer transfer", "Market purchase", "Crypto off-ramp", "Rent share"}
	return notes[g.rand.Intn(len(notes))]
}

type nameFragments struct {
	first        []string
	last         []string
	domains      []string
	streetNames  []string
	streetSuffix []string
	cities       []string
	states       []string
}

func defaultNameFragments() nameFragments {
	return nameFragments{
		first:        []string{"Jane", "John", "Alex", "Priya", "Liu", "Maria", "Omar", "Sofia", "Noah", "Emma", "Lucas", "Mia", "Ava", "Ethan", "Zara"},
		last:         []string{"Doe", "Smith", "Chen", "Patel", "Garcia", "Khan", "Kim", "Ivanov", "Nguyen", "Silva", "Brown", "Lee"},
		domains:      []string{"example.com", "mail.com", "fintrace.io", "payments.net", "securepay.org"},
		streetNames:  []string{"Market", "Mission", "Broadway", "Fifth", "Sunset", "Park", "Cedar", "Oak", "Pine", "Ash"},
		streetSuffix: []string{"St", "Ave", "Blvd", "Ln", "Rd", "Way"},
		cities:       []string{"San Francisco", "New York", "Seattle", "Austin", "Chicago", "Miami", "Denver", "Boston", "Los Angeles"},
		states:       []string{"CA", "NY", "WA", "TX", "IL", "FL", "CO", "MA"},
	}
}
