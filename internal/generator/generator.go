// Package generator produces synthetic transaction batches for seeding and demos.
package generator

import (
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-fraud-must-flow/internal/model"
	"github.com/Veraticus/the-fraud-must-flow/internal/rules"
)

// DefaultCatalogue is the ordered list of violations used for suspicious records.
// Every distinct combination comes first so that any batch of at least
// MinSuspiciousCount(DefaultCatalogue) suspicious records covers all of them.
var DefaultCatalogue = []model.Violation{
	{Currency: true},
	{Banned: true},
	{High: true},
	{Currency: true, Banned: true},
	{Currency: true, High: true},
	{High: true, Banned: true},
	{Currency: true, High: true, Banned: true},
	{Currency: true},
	{Banned: true},
	{High: true},
}

// MinSuspiciousCount returns the smallest number of suspicious records, drawn in
// catalogue order, that includes every distinct violation in catalogue.
func MinSuspiciousCount(catalogue []model.Violation) int {
	seen := make(map[model.Violation]bool, len(catalogue))
	minimum := 0
	for i, v := range catalogue {
		if !seen[v] {
			seen[v] = true
			minimum = i + 1
		}
	}
	return minimum
}

// maxHighExcessCents bounds how far above the limit a high amount may go.
const maxHighExcessCents = 50000

// Config holds configuration options for the generator.
type Config struct {
	Now             func() time.Time
	Rand            *rand.Rand
	Catalogue       []model.Violation
	CleanCount      int
	SuspiciousCount int
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CleanCount:      40,
		SuspiciousCount: len(DefaultCatalogue),
		Catalogue:       DefaultCatalogue,
	}
}

// Generator builds mixed batches of clean and engineered-suspicious transactions.
type Generator struct {
	now       func() time.Time
	rng       *rand.Rand
	policy    rules.Policy
	catalogue []model.Violation
	clean     int
	dirty     int
}

// New creates a generator for policy.
func New(policy rules.Policy, config Config) (*Generator, error) {
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.Rand == nil {
		config.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if len(config.Catalogue) == 0 {
		config.Catalogue = DefaultCatalogue
	}

	if config.CleanCount < 0 {
		return nil, fmt.Errorf("clean count must not be negative, got %d", config.CleanCount)
	}
	if minimum := MinSuspiciousCount(config.Catalogue); config.SuspiciousCount < minimum {
		return nil, fmt.Errorf("suspicious count %d does not cover every violation in the catalogue, need at least %d",
			config.SuspiciousCount, minimum)
	}
	if config.CleanCount > 0 && len(policy.CleanPrefixes()) == 0 {
		return nil, fmt.Errorf("policy has no clean prefix to generate clean transactions from")
	}
	for _, v := range config.Catalogue {
		if v.Banned && len(policy.BannedMappedPrefixes()) == 0 {
			return nil, fmt.Errorf("policy has no banned prefix with a currency for violation %s", v)
		}
		if !v.Banned && len(policy.CleanPrefixes()) == 0 {
			return nil, fmt.Errorf("policy has no clean prefix for violation %s", v)
		}
		if v.Currency && len(policy.Currencies()) < 2 {
			return nil, fmt.Errorf("policy needs at least two currencies for violation %s", v)
		}
	}
	if policy.AmountLimit.Mul(decimal.NewFromInt(100)).IntPart() <= 0 {
		return nil, fmt.Errorf("amount limit %s leaves no room for clean amounts", policy.AmountLimit)
	}

	return &Generator{
		now:       config.Now,
		rng:       config.Rand,
		policy:    policy,
		catalogue: config.Catalogue,
		clean:     config.CleanCount,
		dirty:     config.SuspiciousCount,
	}, nil
}

// Generate returns a new batch: clean records first, then suspicious records in
// catalogue order. Classification fields are left at their defaults.
func (g *Generator) Generate() []model.Transaction {
	batch := make([]model.Transaction, 0, g.clean+g.dirty)

	for i := 0; i < g.clean; i++ {
		batch = append(batch, g.build(model.Violation{}))
	}
	for i := 0; i < g.dirty; i++ {
		batch = append(batch, g.build(g.catalogue[i%len(g.catalogue)]))
	}

	return batch
}

func (g *Generator) build(v model.Violation) model.Transaction {
	var prefix string
	if v.Banned {
		prefix = g.pick(g.policy.BannedMappedPrefixes())
	} else {
		prefix = g.pick(g.policy.CleanPrefixes())
	}

	currency, _ := g.policy.ExpectedCurrency(prefix)
	if v.Currency {
		currency = g.differentCurrency(currency)
	}

	amount := g.normalAmount()
	if v.High {
		amount = g.highAmount()
	}

	return model.Transaction{
		ID:        uuid.NewString(),
		UserID:    fmt.Sprintf("%06x", g.rng.IntN(1<<24)),
		IP:        fmt.Sprintf("%s%d", prefix, g.rng.IntN(255)+1),
		Currency:  currency,
		Amount:    amount,
		CreatedAt: g.now().UTC(),
		Reason:    []string{},
	}
}

func (g *Generator) pick(options []string) string {
	return options[g.rng.IntN(len(options))]
}

func (g *Generator) differentCurrency(expected string) string {
	var others []string
	for _, c := range g.policy.Currencies() {
		if c != expected {
			others = append(others, c)
		}
	}
	return g.pick(others)
}

// normalAmount is uniform in [0, limit) with cent precision.
func (g *Generator) normalAmount() decimal.Decimal {
	cents := g.policy.AmountLimit.Mul(decimal.NewFromInt(100)).IntPart()
	return decimal.New(g.rng.Int64N(cents), -2)
}

// highAmount is strictly above the limit.
func (g *Generator) highAmount() decimal.Decimal {
	excess := decimal.New(g.rng.Int64N(maxHighExcessCents)+1, -2)
	return g.policy.AmountLimit.Add(excess)
}
