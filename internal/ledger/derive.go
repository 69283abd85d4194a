package ledger

import (
	"github.com/shopspring/decimal"

	"khetbook/internal/core"
)

type lookup func(Field) (decimal.Decimal, bool)

// draftValues reads numbers from raw form input. Values that do not parse
// count as absent.
func draftValues(d Draft) lookup {
	return func(f Field) (decimal.Decimal, bool) {
		n, err := core.ParseNumber(d.Value(f))
		if err != nil {
			return decimal.Zero, false
		}
		return n, true
	}
}

// ruleValue is the unrounded result of a total rule. Direct yields the value
// or zero when it is absent. Product yields false until every factor is
// present and positive.
func ruleValue(rule TotalRule, value lookup) (decimal.Decimal, bool) {
	switch rule.Kind {
	case RuleDirect:
		v, ok := value(rule.Fields[0])
		if !ok {
			return decimal.Zero, true
		}
		return v, true
	case RuleProduct:
		acc := decimal.NewFromInt(1)
		for _, f := range rule.Fields {
			v, ok := value(f)
			if !ok || !v.IsPositive() {
				return decimal.Zero, false
			}
			acc = acc.Mul(v)
		}
		return acc, true
	}
	return decimal.Zero, false
}

// evaluate applies a total rule and converts the result to Money. A result
// beyond core.MaxAmount is not computable.
func evaluate(rule TotalRule, value lookup) (core.Money, bool) {
	v, ok := ruleValue(rule, value)
	if !ok {
		return core.Money{}, false
	}
	m, err := core.MoneyFromDecimal(v)
	if err != nil {
		return core.Money{}, false
	}
	return m, true
}

// ComputeTotal derives the total of a typed payload. The second result is
// false while a product rule is missing a factor.
func ComputeTotal(p Payload) (core.Money, bool) {
	s, ok := registry[p.Category()]
	if !ok {
		return core.Money{}, false
	}
	rule := s.TotalFor(Text(p, s.ModeField))
	return evaluate(rule, func(f Field) (decimal.Decimal, bool) { return Number(p, f) })
}

// ComputeDraftTotal derives a running total from raw form input. Values
// that do not parse count as absent.
func ComputeDraftTotal(d Draft) (core.Money, bool) {
	cat, ok := ParseCategory(string(d.Category))
	if !ok {
		return core.Money{}, false
	}
	s := registry[cat]
	return evaluate(s.TotalFor(d.Value(s.ModeField)), draftValues(d))
}

// ComputeUnitRate derives the per-unit rate for categories that define one
// (seed: total cost per kg).
func ComputeUnitRate(p Payload) (core.Money, bool) {
	s, ok := registry[p.Category()]
	if !ok || s.UnitRate == nil {
		return core.Money{}, false
	}
	amt, ok := Number(p, s.UnitRate.Amount)
	if !ok || !amt.IsPositive() {
		return core.Money{}, false
	}
	qty, ok := Number(p, s.UnitRate.Quantity)
	if !ok || !qty.IsPositive() {
		return core.Money{}, false
	}
	m, err := core.MoneyFromDecimal(amt.Div(qty))
	if err != nil {
		return core.Money{}, false
	}
	return m, true
}
