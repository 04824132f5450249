package model

// RuleSpec identifies a fraud rule. It is either one of the built-in rule IDs or a
// free-form custom predicate of the shape "field operator value".
type RuleSpec string

// Built-in rule identifiers.
const (
	RuleBannedRegion    RuleSpec = "banned_region"
	RuleForeignCurrency RuleSpec = "foreign_currency"
	RuleHighAmount      RuleSpec = "high_amount"
)

// BuiltinRules lists the built-in rules in their canonical order.
var BuiltinRules = []RuleSpec{RuleBannedRegion, RuleForeignCurrency, RuleHighAmount}

// BuiltinRuleNames returns the built-in rule ids as strings.
func BuiltinRuleNames() []string {
	names := make([]string, len(BuiltinRules))
	for i, r := range BuiltinRules {
		names[i] = string(r)
	}
	return names
}

// IsBuiltin reports whether the spec names a built-in rule.
func (r RuleSpec) IsBuiltin() bool {
	switch r {
	case RuleBannedRegion, RuleForeignCurrency, RuleHighAmount:
		return true
	}
	return false
}

// RuleSpecs converts raw strings into rule specs.
func RuleSpecs(raw []string) []RuleSpec {
	specs := make([]RuleSpec, len(raw))
	for i, s := range raw {
		specs[i] = RuleSpec(s)
	}
	return specs
}

// Violation is a combination of rule breaches a generated transaction is engineered to trip.
type Violation struct {
	Currency bool
	Banned   bool
	High     bool
}

// String renders the violation in the catalogue notation, e.g. "currency+high".
func (v Violation) String() string {
	s := ""
	add := func(part string) {
		if s != "" {
			s += "+"
		}
		s += part
	}
	if v.Currency {
		add("currency")
	}
	if v.High {
		add("high")
	}
	if v.Banned {
		add("banned")
	}
	if s == "" {
		return "clean"
	}
	return s
}
