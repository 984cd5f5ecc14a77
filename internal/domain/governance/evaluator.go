package governance

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// TransactionDescriptor is the shape of a proposed transaction as seen by
// the rule evaluator
type TransactionDescriptor struct {
	Category      string
	CreditDays    int
	VendorCount   int
	MarginPercent decimal.Decimal
}

// ConstraintType names the individual constraints a rule can carry
type ConstraintType string

const (
	ConstraintMaxCreditDays  ConstraintType = "max_credit_days"
	ConstraintMinVendorCount ConstraintType = "min_vendor_count"
	ConstraintMarginCap      ConstraintType = "margin_cap"
)

// Violation describes one breached constraint with both the limit and the
// offending value, so callers can present actionable feedback
type Violation struct {
	Constraint ConstraintType `json:"constraint"`
	Category   *string        `json:"category,omitempty"`
	Limit      string         `json:"limit"`
	Actual     string         `json:"actual"`
	Message    string         `json:"message"`
}

// Result carries the full list of breached constraints for one transaction.
// A transaction may violate several rules at once; the caller always gets
// all of them, not the first.
type Result struct {
	Violations []Violation `json:"violations"`
}

// Passed reports whether the transaction cleared every applicable rule
func (r Result) Passed() bool {
	return len(r.Violations) == 0
}

// Evaluate checks a proposed transaction against the active rule set.
// For each constraint type, a category-specific rule takes precedence over
// the global (nil category) rule; constraints absent from both are
// unconstrained. Evaluation never mutates anything and never short-circuits.
func Evaluate(tx TransactionDescriptor, rules []Rule) Result {
	effective := resolveEffective(tx.Category, rules)

	var violations []Violation

	if c := effective[ConstraintMaxCreditDays]; c != nil && c.rule.MaxCreditDays != nil {
		limit := *c.rule.MaxCreditDays
		if tx.CreditDays > limit {
			violations = append(violations, Violation{
				Constraint: ConstraintMaxCreditDays,
				Category:   c.rule.Category,
				Limit:      fmt.Sprintf("%d", limit),
				Actual:     fmt.Sprintf("%d", tx.CreditDays),
				Message:    fmt.Sprintf("Credit period of %d days exceeds the allowed maximum of %d days", tx.CreditDays, limit),
			})
		}
	}

	if c := effective[ConstraintMinVendorCount]; c != nil {
		limit := c.rule.MinVendorCount
		if tx.VendorCount < limit {
			violations = append(violations, Violation{
				Constraint: ConstraintMinVendorCount,
				Category:   c.rule.Category,
				Limit:      fmt.Sprintf("%d", limit),
				Actual:     fmt.Sprintf("%d", tx.VendorCount),
				Message:    fmt.Sprintf("Transaction involves %d vendors but at least %d are required", tx.VendorCount, limit),
			})
		}
	}

	if c := effective[ConstraintMarginCap]; c != nil && c.rule.MarginCap != nil {
		limit := *c.rule.MarginCap
		if tx.MarginPercent.GreaterThan(limit) {
			violations = append(violations, Violation{
				Constraint: ConstraintMarginCap,
				Category:   c.rule.Category,
				Limit:      limit.String(),
				Actual:     tx.MarginPercent.String(),
				Message:    fmt.Sprintf("Margin of %s%% exceeds the cap of %s%%", tx.MarginPercent.String(), limit.String()),
			})
		}
	}

	return Result{Violations: violations}
}

type effectiveRule struct {
	rule     *Rule
	specific bool
}

// resolveEffective picks, per constraint type, the rule that governs this
// category. Category-specific rules shadow global ones independently for
// each constraint: a global credit cap still applies when the category rule
// only sets a margin cap.
func resolveEffective(category string, rules []Rule) map[ConstraintType]*effectiveRule {
	effective := make(map[ConstraintType]*effectiveRule, 3)

	consider := func(ct ConstraintType, r *Rule, carries bool) {
		if !carries {
			return
		}
		specific := !r.IsGlobal()
		cur := effective[ct]
		if cur == nil || (specific && !cur.specific) {
			effective[ct] = &effectiveRule{rule: r, specific: specific}
		}
	}

	for i := range rules {
		r := &rules[i]
		if !r.AppliesTo(category) {
			continue
		}
		consider(ConstraintMaxCreditDays, r, r.MaxCreditDays != nil)
		// MinVendorCount always carries: every rule has a floor of at least 1
		consider(ConstraintMinVendorCount, r, true)
		consider(ConstraintMarginCap, r, r.MarginCap != nil)
	}

	return effective
}
