package dialogue

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"go-insure/internal/intent"
	"go-insure/internal/metrics"
	"go-insure/internal/retrieval"
	"go-insure/internal/session"
)

const fallbackQuery = "life insurance policy plans"

var (
	applyWords = []string{"apply", "proceed", "select", "choose"}
	ordinals   = map[string]int{"first": 1, "1": 1, "second": 2, "2": 2}
)

func (e *Engine) handleRecommendation(ctx context.Context, t *turn, in input) (*Reply, error) {
	if !profileComplete(t.sess) {
		return &Reply{Answer: needMoreInfo, InputType: InputText}, nil
	}
	if len(t.sess.ShownRecommendations) > 0 {
		t.moveTo(PhaseRecommendationGiven)
		r := e.givenPrompt(t)
		r.Answer = "I have already shared some recommendations. What would you like to do next?"
		return r, nil
	}
	docs := e.candidates(ctx, t.sess, nil)
	if len(docs) == 0 {
		return &Reply{Answer: noMatchesAnswer, Options: append([]string(nil), fallbackOptions...), InputType: InputText}, nil
	}
	return e.present(t, docs, "Here are two policies that match your needs:"), nil
}

// candidates retrieves and ranks policies for the profile, skipping
// excluded ids. One generic fallback query is tried when the profile query
// finds nothing.
func (e *Engine) candidates(ctx context.Context, s *session.Session, exclude map[string]bool) []retrieval.Document {
	docs := withoutShown(e.search(ctx, profileQuery(s), e.topK), exclude)
	if len(docs) == 0 {
		metrics.RetrievalFallbacksTotal.Inc()
		log.Printf("[Engine] user %d: no policies for profile query, trying fallback", s.UserID)
		docs = withoutShown(e.search(ctx, fallbackQuery, e.topK), exclude)
	}
	return rankDocuments(docs, s, shownLimit)
}

func withoutShown(docs []retrieval.Document, exclude map[string]bool) []retrieval.Document {
	if len(exclude) == 0 {
		return docs
	}
	out := docs[:0:0]
	for _, d := range docs {
		if !exclude[d.String("policy_id")] {
			out = append(out, d)
		}
	}
	return out
}

// profileQuery joins the profile facts the retriever ranks on.
func profileQuery(s *session.Session) string {
	parts := []string{s.PrimaryNeed, "insurance"}
	if s.Age > 0 {
		parts = append(parts, fmt.Sprintf("for age %d", s.Age))
	}
	if s.Income > 0 {
		parts = append(parts, "income "+formatINR(float64(s.Income)))
	}
	if s.Budget > 0 {
		parts = append(parts, "budget "+formatINR(float64(s.Budget)))
	}
	if s.PolicyTerm > 0 {
		parts = append(parts, fmt.Sprintf("term %d years", s.PolicyTerm))
	}
	if s.Coverage > 0 {
		parts = append(parts, "coverage "+formatINR(float64(s.Coverage)))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// present stores docs as the shown set and lists them.
func (e *Engine) present(t *turn, docs []retrieval.Document, intro string) *Reply {
	shown := make([]session.ShownPolicy, 0, len(docs))
	raw := make([]string, 0, len(docs))
	summaries := make([]string, 0, len(docs))
	for i, d := range docs {
		name := d.String("policy_name")
		if name == "" {
			name = fmt.Sprintf("Policy %d", i+1)
		}
		id := d.String("policy_id")
		if id == "" {
			id = fmt.Sprintf("POLICY_%d", i+1)
		}
		shown = append(shown, session.ShownPolicy{Name: name, PolicyID: id})
		raw = append(raw, d.Content)
		summaries = append(summaries, summarize(name, d))
	}
	t.set(session.Updates{
		session.FieldShownRecommendations: shown,
		session.FieldRetrievedDocs:        raw,
		session.FieldContextState:         string(PhaseRecommendationGiven),
	})
	return &Reply{
		Answer:    intro + "\n\n" + strings.Join(summaries, "\n\n"),
		Options:   givenOptions(shown),
		InputType: InputText,
	}
}

func summarize(name string, d retrieval.Document) string {
	var b strings.Builder
	b.WriteString("**" + name + "**")
	if insurer := d.String("insurer_name"); insurer != "" {
		b.WriteString(" by " + insurer)
	}
	if desc := d.String("description"); desc != "" {
		b.WriteString("\n- " + desc)
	} else if line := firstLine(d.Content); line != "" {
		b.WriteString("\n- " + line)
	}
	if p, ok := d.Number("premium"); ok {
		b.WriteString("\n- Premium from " + formatINR(p))
	}
	if c, ok := documentCoverage(d); ok {
		b.WriteString("\n- Cover up to " + formatINR(c))
	}
	return b.String()
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func givenOptions(shown []session.ShownPolicy) []string {
	opts := make([]string, 0, len(shown)+3)
	for _, sp := range shown {
		opts = append(opts, "Apply for "+sp.Name)
	}
	return append(opts, "Compare Policies", "Get More Details", "Show Different Options")
}

// givenPrompt lists the actions available on the shown set.
func (e *Engine) givenPrompt(t *turn) *Reply {
	shown := t.sess.ShownRecommendations
	if len(shown) == 0 {
		return &Reply{
			Answer:    "Shall I find the policies that best match your profile?",
			Options:   []string{"Get Policy Recommendations"},
			InputType: InputText,
		}
	}
	names := make([]string, len(shown))
	for i, sp := range shown {
		names[i] = sp.Name
	}
	return &Reply{
		Answer:    "I recommended " + strings.Join(names, " and ") + ". What would you like to do next?",
		Options:   givenOptions(shown),
		InputType: InputText,
	}
}

func (e *Engine) handleRecommendationGiven(ctx context.Context, t *turn, in input) (*Reply, error) {
	if in.form != nil {
		log.Printf("[Engine] user %d: form payload in %s, re-prompting", t.sess.UserID, PhaseRecommendationGiven)
		return e.givenPrompt(t), nil
	}
	if len(t.sess.ShownRecommendations) == 0 {
		return e.advance(ctx, t, PhaseRecommendation)
	}
	if in.text == "" {
		return e.givenPrompt(t), nil
	}
	lower := strings.ToLower(in.text)
	switch {
	case isCommand(lower, applyWords):
		sp, ok := pickShown(t.sess.ShownRecommendations, lower)
		if !ok {
			r := e.givenPrompt(t)
			r.Answer = "Which policy would you like to apply for?"
			return r, nil
		}
		t.set(session.Updates{session.FieldSelectedPolicy: sp.PolicyID})
		log.Printf("[Engine] user %d: selected policy %s", t.sess.UserID, sp.PolicyID)
		return e.advance(ctx, t, PhaseQuotation)
	case strings.Contains(lower, "compare"):
		return e.compare(ctx, t)
	case strings.Contains(lower, "details"):
		return e.details(ctx, t, lower)
	case isCommand(lower, []string{"different"}):
		return e.showDifferent(ctx, t)
	}
	return e.digress(ctx, t, in.text)
}

func (e *Engine) showDifferent(ctx context.Context, t *turn) (*Reply, error) {
	exclude := map[string]bool{}
	for _, sp := range t.sess.ShownRecommendations {
		exclude[sp.PolicyID] = true
	}
	docs := e.candidates(ctx, t.sess, exclude)
	if len(docs) == 0 {
		r := e.givenPrompt(t)
		r.Answer = "I couldn't find any other policies for your profile. " + r.Answer
		return r, nil
	}
	t.set(session.Updates{
		session.FieldShownRecommendations: []session.ShownPolicy{},
		session.FieldRetrievedDocs:        []string{},
	})
	return e.present(t, docs, "Here are some other policies you might consider:"), nil
}

// pickShown resolves a policy from the shown set by name or ordinal.
// A single shown policy needs no qualifier.
func pickShown(shown []session.ShownPolicy, lower string) (session.ShownPolicy, bool) {
	for _, sp := range shown {
		if sp.Name != "" && strings.Contains(lower, strings.ToLower(sp.Name)) {
			return sp, true
		}
	}
	for _, w := range strings.Fields(lower) {
		if i, ok := ordinals[w]; ok && i <= len(shown) {
			return shown[i-1], true
		}
	}
	if len(shown) == 1 {
		return shown[0], true
	}
	return session.ShownPolicy{}, false
}

// isCommand reports whether text uses one of verbs as a whole word and is
// not phrased as a question. "Which one should I choose?" is a question.
func isCommand(text string, verbs []string) bool {
	if intent.IsQuestion(text) {
		return false
	}
	for _, v := range verbs {
		if intent.ContainsWord(text, v) {
			return true
		}
	}
	return false
}

// formatINR renders a rupee amount with Indian digit grouping, e.g.
// ₹12,34,567 or ₹1,416.50.
func formatINR(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatFloat(v, 'f', 2, 64)
	whole, frac, _ := strings.Cut(s, ".")
	var grouped string
	if len(whole) <= 3 {
		grouped = whole
	} else {
		head, tail := whole[:len(whole)-3], whole[len(whole)-3:]
		var parts []string
		for len(head) > 2 {
			parts = append([]string{head[len(head)-2:]}, parts...)
			head = head[:len(head)-2]
		}
		if head != "" {
			parts = append([]string{head}, parts...)
		}
		grouped = strings.Join(parts, ",") + "," + tail
	}
	out := "₹" + grouped
	if frac != "00" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
