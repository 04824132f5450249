package rules

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/the-fraud-must-flow/internal/common"
	"github.com/Veraticus/the-fraud-must-flow/internal/model"
)

// Rule is a single compiled fraud check.
type Rule interface {
	// Spec returns the rule spec the rule was compiled from.
	Spec() model.RuleSpec
	// Match reports whether txn trips the rule and, if so, why. prefix is the
	// already derived IP prefix of txn.
	Match(txn model.Transaction, prefix string) (reason string, matched bool)
}

// Compile turns rule specs into rules. Specs that cannot be compiled are skipped and
// reported as InvalidRuleError values; the remaining rules keep their relative order.
func Compile(specs []model.RuleSpec, policy Policy) ([]Rule, []error) {
	compiled := make([]Rule, 0, len(specs))
	var errs []error

	for _, spec := range specs {
		rule, err := compileOne(spec, policy)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		compiled = append(compiled, rule)
	}

	return compiled, errs
}

func compileOne(spec model.RuleSpec, policy Policy) (Rule, error) {
	switch spec {
	case model.RuleBannedRegion:
		return bannedRegionRule{policy: policy}, nil
	case model.RuleForeignCurrency:
		return foreignCurrencyRule{policy: policy}, nil
	case model.RuleHighAmount:
		return highAmountRule{limit: policy.AmountLimit}, nil
	}
	return parseCustom(spec)
}

type bannedRegionRule struct {
	policy Policy
}

func (r bannedRegionRule) Spec() model.RuleSpec { return model.RuleBannedRegion }

func (r bannedRegionRule) Match(_ model.Transaction, prefix string) (string, bool) {
	if r.policy.IsBanned(prefix) {
		return "Banned IP prefix: " + prefix, true
	}
	return "", false
}

type foreignCurrencyRule struct {
	policy Policy
}

func (r foreignCurrencyRule) Spec() model.RuleSpec { return model.RuleForeignCurrency }

// Match never fires for prefixes without a known currency.
func (r foreignCurrencyRule) Match(txn model.Transaction, prefix string) (string, bool) {
	expected, ok := r.policy.ExpectedCurrency(prefix)
	if ok && expected != txn.Currency {
		return "Currency mismatch for IP prefix: " + prefix, true
	}
	return "", false
}

type highAmountRule struct {
	limit decimal.Decimal
}

func (r highAmountRule) Spec() model.RuleSpec { return model.RuleHighAmount }

func (r highAmountRule) Match(txn model.Transaction, _ string) (string, bool) {
	if txn.Amount.GreaterThan(r.limit) {
		return "High amount of transaction", true
	}
	return "", false
}

// Custom rule fields and operators.
const (
	fieldAmount   = "amount"
	fieldCurrency = "currency"
	fieldUserID   = "user_id"
	fieldIP       = "ip"
	fieldIPPrefix = "ip_prefix"

	opGT         = ">"
	opGE         = ">="
	opLT         = "<"
	opLE         = "<="
	opEQ         = "=="
	opNE         = "!="
	opStartsWith = "startswith"
)

var customOperators = map[string][]string{
	fieldAmount:   {opGT, opGE, opLT, opLE, opEQ, opNE},
	fieldCurrency: {opEQ, opNE},
	fieldUserID:   {opEQ, opNE},
	fieldIP:       {opEQ, opNE, opStartsWith},
	fieldIPPrefix: {opEQ, opNE, opStartsWith},
}

// customRule is a free-form "field operator value" predicate.
type customRule struct {
	amount decimal.Decimal
	field  string
	op     string
	value  string
}

func parseCustom(spec model.RuleSpec) (Rule, error) {
	parts := strings.Fields(string(spec))
	if len(parts) != 3 {
		return nil, &common.InvalidRuleError{Rule: string(spec), Reason: "unknown rule id"}
	}

	field, op, value := strings.ToLower(parts[0]), strings.ToLower(parts[1]), parts[2]

	ops, ok := customOperators[field]
	if !ok {
		return nil, &common.InvalidRuleError{Rule: string(spec), Reason: fmt.Sprintf("unknown field %q", field)}
	}
	if !containsString(ops, op) {
		return nil, &common.InvalidRuleError{Rule: string(spec), Reason: fmt.Sprintf("operator %q not supported for field %q", op, field)}
	}

	rule := customRule{field: field, op: op, value: value}
	if field == fieldAmount {
		amount, err := decimal.NewFromString(value)
		if err != nil {
			return nil, &common.InvalidRuleError{Rule: string(spec), Reason: fmt.Sprintf("amount %q is not a number", value)}
		}
		rule.amount = amount
	}
	return rule, nil
}

func (r customRule) Spec() model.RuleSpec {
	return model.RuleSpec(r.field + " " + r.op + " " + r.value)
}

func (r customRule) Match(txn model.Transaction, prefix string) (string, bool) {
	var matched bool

	switch r.field {
	case fieldAmount:
		matched = compareAmount(txn.Amount, r.op, r.amount)
	case fieldCurrency:
		matched = compareString(txn.Currency, r.op, r.value)
	case fieldUserID:
		matched = compareString(txn.UserID, r.op, r.value)
	case fieldIP:
		matched = compareString(txn.IP, r.op, r.value)
	case fieldIPPrefix:
		matched = compareString(prefix, r.op, r.value)
	}

	if !matched {
		return "", false
	}
	return "Custom rule matched: " + string(r.Spec()), true
}

func compareAmount(amount decimal.Decimal, op string, value decimal.Decimal) bool {
	switch op {
	case opGT:
		return amount.GreaterThan(value)
	case opGE:
		return amount.GreaterThanOrEqual(value)
	case opLT:
		return amount.LessThan(value)
	case opLE:
		return amount.LessThanOrEqual(value)
	case opEQ:
		return amount.Equal(value)
	case opNE:
		return !amount.Equal(value)
	}
	return false
}

func compareString(got, op, want string) bool {
	switch op {
	case opEQ:
		return got == want
	case opNE:
		return got != want
	case opStartsWith:
		return strings.HasPrefix(got, want)
	}
	return false
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
