// Package quote computes deterministic premium quotations.
package quote

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var ErrCoverageOrBudget = errors.New("exactly one of coverage or budget must be provided")

// Params are the plan inputs. Exactly one of Coverage or Budget must be positive.
type Params struct {
	PlanType           string
	PolicyTerm         int
	PremiumPaymentTerm int
	PayoutFrequency    string
	DateOfBirth        string // YYYY-MM-DD
	Coverage           float64
	Budget             float64
	// AsOf fixes "today" for the age calculation; zero means time.Now.
	AsOf time.Time
}

// Breakdown is the computed quote.
type Breakdown struct {
	SumAssured         float64 `json:"sum_assured"`
	PolicyTerm         int     `json:"policy_term"`
	PremiumPaymentTerm int     `json:"premium_payment_term"`
	BasePremium        float64 `json:"base_premium"`
	GST                float64 `json:"gst"`
	TotalPremium       float64 `json:"total_premium"`
}

const defaultAge = 30

var (
	one           = decimal.NewFromInt(1)
	gstRate       = decimal.RequireFromString("0.18")
	limitedPay    = decimal.RequireFromString("0.9")
	defaultRate   = decimal.RequireFromString("0.0012")
	defaultPayout = decimal.RequireFromString("1.05")
)

// Keyword order matters: the first match wins.
var baseRates = []struct {
	keyword string
	rate    decimal.Decimal
}{
	{"wealth", decimal.RequireFromString("0.0012")},
	{"child", decimal.RequireFromString("0.0014")},
	{"retirement", decimal.RequireFromString("0.0013")},
	{"monthly", decimal.RequireFromString("0.0015")},
	{"endowment", decimal.RequireFromString("0.0011")},
}

// "half-yearly" must be tested before "yearly".
var payoutModifiers = []struct {
	keyword string
	factor  decimal.Decimal
}{
	{"monthly", decimal.RequireFromString("1.1")},
	{"quarterly", decimal.RequireFromString("1.075")},
	{"half-yearly", decimal.RequireFromString("1.05")},
	{"yearly", decimal.RequireFromString("1.025")},
	{"lump sum", decimal.RequireFromString("1.0")},
}

// Compute returns the premium breakdown for p. It has no side effects.
func Compute(p Params) (Breakdown, error) {
	hasCoverage := p.Coverage > 0
	hasBudget := p.Budget > 0
	if hasCoverage == hasBudget {
		return Breakdown{}, ErrCoverageOrBudget
	}

	factor := BaseRate(p.PlanType).
		Mul(TermAdjustment(p.PolicyTerm)).
		Mul(PayoutModifier(p.PayoutFrequency)).
		Mul(AgeFactor(p.DateOfBirth, p.AsOf))
	if p.PremiumPaymentTerm < p.PolicyTerm {
		factor = factor.Mul(limitedPay)
	}

	var sumAssured, base decimal.Decimal
	if hasCoverage {
		sumAssured = decimal.NewFromFloat(p.Coverage)
		base = sumAssured.Mul(factor)
	} else {
		base = decimal.NewFromFloat(p.Budget)
		if !factor.IsZero() {
			sumAssured = base.Div(factor)
		}
	}

	// Every output is rounded on its own from the unrounded base.
	gst := base.Mul(gstRate)
	return Breakdown{
		SumAssured:         sumAssured.Round(2).InexactFloat64(),
		PolicyTerm:         p.PolicyTerm,
		PremiumPaymentTerm: p.PremiumPaymentTerm,
		BasePremium:        base.Round(2).InexactFloat64(),
		GST:                gst.Round(2).InexactFloat64(),
		TotalPremium:       base.Add(gst).Round(2).InexactFloat64(),
	}, nil
}

// BaseRate picks the per-unit rate from keywords in the plan name.
func BaseRate(planType string) decimal.Decimal {
	plan := strings.ToLower(planType)
	for _, r := range baseRates {
		if strings.Contains(plan, r.keyword) {
			return r.rate
		}
	}
	return defaultRate
}

func TermAdjustment(policyTerm int) decimal.Decimal {
	switch {
	case policyTerm <= 10:
		return decimal.RequireFromString("1.05")
	case policyTerm <= 20:
		return one
	default:
		return decimal.RequireFromString("0.95")
	}
}

func PayoutModifier(frequency string) decimal.Decimal {
	f := strings.ToLower(frequency)
	for _, m := range payoutModifiers {
		if strings.Contains(f, m.keyword) {
			return m.factor
		}
	}
	return defaultPayout
}

// AgeFactor is 1 + (age-30)/100. An unparseable date of birth counts as 30.
func AgeFactor(dob string, asOf time.Time) decimal.Decimal {
	age := AgeFrom(dob, asOf)
	return one.Add(decimal.NewFromInt(int64(age - defaultAge)).Div(decimal.NewFromInt(100)))
}

// AgeFrom returns completed years between dob and asOf.
func AgeFrom(dob string, asOf time.Time) int {
	born, err := time.Parse("2006-01-02", strings.TrimSpace(dob))
	if err != nil {
		return defaultAge
	}
	if asOf.IsZero() {
		asOf = time.Now()
	}
	age := asOf.Year() - born.Year()
	if asOf.Month() < born.Month() || (asOf.Month() == born.Month() && asOf.Day() < born.Day()) {
		age--
	}
	return age
}
