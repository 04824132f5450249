package rules

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

func TestCompile(t *testing.T) {
	specs := []model.RuleSpec{
		model.RuleHighAmount,
		"amount >= 10.5",
		"AMOUNT   <   3",
		"currency == USD",
		"ip startswith 10.",
		"ip_prefix != 10.0.0.",
		"user_id != abc",
		"unknown_rule",
		"amount startswith 1",
		"color == red",
		"amount > lots",
		"currency == ",
	}

	compiled, errs := Compile(specs, DefaultPolicy())

	got := make([]model.RuleSpec, 0, len(compiled))
	for _, r := range compiled {
		got = append(got, r.Spec())
	}
	assert.Equal(t, []model.RuleSpec{
		model.RuleHighAmount,
		"amount >= 10.5",
		"amount < 3",
		"currency == USD",
		"ip startswith 10.",
		"ip_prefix != 10.0.0.",
		"user_id != abc",
	}, got)

	require.Len(t, errs, 5)
	for _, err := range errs {
		assert.True(t, errors.Is(err, common.ErrInvalidRule), "expected invalid rule error, got %v", err)
		var ruleErr *common.InvalidRuleError
		assert.True(t, errors.As(err, &ruleErr))
	}
}

func TestCustomRule_Match(t *testing.T) {
	record := txn("t1", "10.1.1.42", "GBP", "250.00")

	tests := []struct {
		spec model.RuleSpec
		want bool
	}{
		{spec: "amount > 250", want: false},
		{spec: "amount >= 250", want: true},
		{spec: "amount == 250.000", want: true},
		{spec: "amount != 250", want: false},
		{spec: "amount < 250.01", want: true},
		{spec: "amount <= 249.99", want: false},
		{spec: "currency == GBP", want: true},
		{spec: "currency != GBP", want: false},
		{spec: "user_id == u-t1", want: true},
		{spec: "ip == 10.1.1.42", want: true},
		{spec: "ip startswith 10.1", want: true},
		{spec: "ip_prefix == 10.1.1.", want: true},
		{spec: "ip_prefix startswith 192.", want: false},
	}

	for _, tt := range tests {
		t.Run(string(tt.spec), func(t *testing.T) {
			compiled, errs := Compile([]model.RuleSpec{tt.spec}, DefaultPolicy())
			require.Empty(t, errs)
			require.Len(t, compiled, 1)

			reason, ok := compiled[0].Match(record, "10.1.1.")
			assert.Equal(t, tt.want, ok)
			if ok {
				assert.Equal(t, "Custom rule matched: "+string(compiled[0].Spec()), reason)
			}
		})
	}
}

func TestPolicy(t *testing.T) {
	policy := DefaultPolicy()

	assert.Equal(t, []string{"10.1.1.", "172.16.0.", "192.168.1."}, policy.CleanPrefixes())
	assert.Equal(t, []string{"10.0.0.", "192.168.100."}, policy.BannedMappedPrefixes())
	assert.Equal(t, []string{"AED", "EUR", "GBP", "INR", "USD"}, policy.Currencies())
	assert.True(t, policy.IsBanned("10.0.0."))
	assert.False(t, policy.IsBanned("10.1.1."))

	_, ok := policy.ExpectedCurrency("8.8.8.")
	assert.False(t, ok)
}
