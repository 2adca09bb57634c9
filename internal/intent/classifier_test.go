package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDigression(t *testing.T) {
	exceptions := []string{"compare", "details", "apply"}

	assert.True(t, IsDigression("what is a ULIP?", nil))
	assert.True(t, IsDigression("Why do I need term cover", nil))
	assert.True(t, IsDigression("which is better for me", nil))
	assert.True(t, IsDigression("Should I take a longer term", nil))
	assert.False(t, IsDigression("anything else", []string{"other"}))

	assert.False(t, IsDigression("35", nil))
	assert.False(t, IsDigression("20", nil))
	assert.False(t, IsDigression("Salaried", nil))
	assert.False(t, IsDigression("", nil))
	assert.False(t, IsDigression("compare these two?", exceptions))
	assert.False(t, IsDigression("Get More Details", exceptions))
	assert.False(t, IsDigression("what do I need to apply", exceptions))
}

func TestIsDigression_WholeWordsOnly(t *testing.T) {
	// "somewhat" contains "what" but not as a word
	assert.False(t, IsDigression("somewhat high budget", nil))
	// "reapply" must not trigger the "apply" exception
	assert.True(t, IsDigression("how do I reapply", []string{"apply"}))
}

func TestIsDigression_LongNumbersAreNotShortcut(t *testing.T) {
	// purely numeric but long: still not a question
	assert.False(t, IsDigression("1000000", nil))
	assert.True(t, IsDigression("10000?", nil))
}

func TestIsQuestion(t *testing.T) {
	assert.True(t, IsQuestion("Which one should I choose"))
	assert.True(t, IsQuestion("apply now?"))
	assert.False(t, IsQuestion("Apply for Term Shield"))
	assert.False(t, IsQuestion("somehow fine"))
}

func TestStartsWithCue(t *testing.T) {
	assert.True(t, StartsWithCue("Can you help me"))
	assert.True(t, StartsWithCue("what is this"))
	assert.False(t, StartsWithCue("Sam How"))
	assert.False(t, StartsWithCue("Howard Lee"))
}

func TestContainsWord(t *testing.T) {
	assert.True(t, ContainsWord("Can you EXPLAIN", "explain"))
	assert.False(t, ContainsWord("explained", "explain"))
}
