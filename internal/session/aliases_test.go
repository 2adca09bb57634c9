package session

import "testing"

func TestAliases_RoundTrip(t *testing.T) {
	for field := range contextFields {
		col := ColumnFor(field)
		if back := FieldFor(col); back != field {
			t.Errorf("%s -> %s -> %s does not round trip", field, col, back)
		}
	}
}

func TestAliases_Injective(t *testing.T) {
	seen := map[string]string{}
	for field := range contextFields {
		col := ColumnFor(field)
		if prev, ok := seen[col]; ok {
			t.Errorf("fields %s and %s both map to column %s", prev, field, col)
		}
		seen[col] = field
	}
}

func TestAliases_KnownMappings(t *testing.T) {
	cases := map[string]string{
		FieldPolicyTerm:      "term_length",
		FieldPlanType:        "plan_option",
		FieldPayoutFrequency: "income_payout_frequency",
		FieldBudget:          "premium_budget",
		FieldCoverage:        "coverage_required",
		FieldGST:             "gst_amount",
		FieldAge:             "age",
	}
	for field, want := range cases {
		if got := ColumnFor(field); got != want {
			t.Errorf("ColumnFor(%s) = %s, want %s", field, got, want)
		}
	}
}

func TestSessionApply(t *testing.T) {
	s := &Session{}
	s.Apply(Updates{
		FieldAge:                  35,
		FieldBudget:               int64(25000),
		FieldCoverage:             float64(1000000),
		FieldShownRecommendations: []ShownPolicy{{Name: "A", PolicyID: "1"}},
		FieldTotalPremium:         1416.0,
	})
	if s.Age != 35 || s.Budget != 25000 || s.Coverage != 1000000 {
		t.Errorf("numeric fields not applied: %+v", s)
	}
	if len(s.ShownRecommendations) != 1 || s.TotalPremium != 1416 {
		t.Errorf("structured fields not applied: %+v", s)
	}
}
