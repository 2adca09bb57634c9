package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		text  string
		field Field
		want  int64
		ok    bool
	}{
		{"10 lakhs", Income, 1_000_000, true},
		{"2 crore", Coverage, 20_000_000, true},
		{"1.5 cr", Coverage, 15_000_000, true},
		{"₹25,000 per year", Budget, 25_000, true},
		{"Rs. 1,00,000", Coverage, 100_000, true},
		{"30k", Budget, 30_000, true},
		{"I am 35 years old", Age, 35, true},
		{"20 years", Term, 20, true},
		{"5 lac", Income, 500_000, true},
		{"abc", Age, 0, false},
		{"", Budget, 0, false},
		{"150", Age, 0, false},
		{"17", Age, 0, false},
		{"81", Age, 0, false},
		{"40000", Income, 0, false},
		{"400", Budget, 0, false},
		{"60", Term, 0, false},
		{"0", Term, 0, false},
		{"50000", Coverage, 0, false},
		{"42", Field("other"), 42, true},
	}
	for _, c := range cases {
		got, ok := Extract(c.text, c.field)
		assert.Equal(t, c.ok, ok, "Extract(%q, %s) ok", c.text, c.field)
		assert.Equal(t, c.want, got, "Extract(%q, %s) value", c.text, c.field)
	}
}

func TestExtract_Idempotent(t *testing.T) {
	first, ok1 := Extract("12 lakh", Income)
	second, ok2 := Extract("12 lakh", Income)
	assert.Equal(t, first, second)
	assert.Equal(t, ok1, ok2)
}

func TestExtract_DoesNotMatchInsideWords(t *testing.T) {
	got, ok := Extract("a place worth 5", Field("other"))
	assert.True(t, ok)
	assert.Equal(t, int64(5), got)
}

func TestCleanOption(t *testing.T) {
	assert.Equal(t, "Salaried", CleanOption("1. Salaried"))
	assert.Equal(t, "Salaried", CleanOption("  Salaried "))
	assert.Equal(t, "10-20 Lakhs", CleanOption("3.10-20 Lakhs"))
}
