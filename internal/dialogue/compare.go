package dialogue

import (
	"context"
	"errors"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"go-insure/internal/catalog"
	"go-insure/internal/session"
)

// comparisonExcluded are identifying or free-text fields left out of a
// side-by-side comparison.
var comparisonExcluded = map[string]bool{
	"id":          true,
	"policy_id":   true,
	"policy_name": true,
	"description": true,
}

// fieldLabel turns a column name into a heading. Casers are stateful, so
// each call gets its own.
func fieldLabel(key string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(key, "_", " "))
}

// comparisonKeys is the sorted union of both policies' fields minus the
// excluded ones.
func comparisonKeys(a, b map[string]string) []string {
	seen := map[string]bool{}
	var keys []string
	for _, m := range []map[string]string{a, b} {
		for k := range m {
			if comparisonExcluded[k] || seen[k] {
				continue
			}
			seen[k] = true
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func renderComparison(a, b *catalog.Policy) string {
	fa, fb := a.Fields(), b.Fields()
	var sb strings.Builder
	sb.WriteString("Here's a comparison of " + a.PolicyName + " and " + b.PolicyName + ":\n")
	for _, k := range comparisonKeys(fa, fb) {
		sb.WriteString("\n**" + fieldLabel(k) + "**\n")
		sb.WriteString("- " + a.PolicyName + ": " + valueOrDash(fa[k]) + "\n")
		sb.WriteString("- " + b.PolicyName + ": " + valueOrDash(fb[k]) + "\n")
	}
	return strings.TrimSpace(sb.String())
}

func valueOrDash(v string) string {
	if v == "" {
		return "Not specified"
	}
	return v
}

func renderDetails(p *catalog.Policy) string {
	fields := p.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == "id" || k == "policy_id" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, "**"+fieldLabel(k)+"**: "+fields[k])
	}
	return "Here are more details for " + p.PolicyName + ":\n\n" + strings.Join(lines, "\n")
}

func (e *Engine) compare(ctx context.Context, t *turn) (*Reply, error) {
	shown := t.sess.ShownRecommendations
	r := e.givenPrompt(t)
	if len(shown) < 2 {
		r.Answer = "Not enough policies to compare. Please ask for recommendations first."
		return r, nil
	}
	a, err := e.lookupPolicy(ctx, shown[0])
	if err != nil {
		return notFoundOr(err, r, compareNotFound)
	}
	b, err := e.lookupPolicy(ctx, shown[1])
	if err != nil {
		return notFoundOr(err, r, compareNotFound)
	}
	r.Answer = renderComparison(a, b)
	return r, nil
}

func (e *Engine) details(ctx context.Context, t *turn, lower string) (*Reply, error) {
	shown := t.sess.ShownRecommendations
	sp, ok := pickShown(shown, lower)
	if !ok {
		opts := make([]string, 0, len(shown))
		for _, s := range shown {
			opts = append(opts, "Details for "+s.Name)
		}
		return &Reply{Answer: "Which policy would you like to get more details about?", Options: opts, InputType: InputText}, nil
	}
	r := e.givenPrompt(t)
	p, err := e.lookupPolicy(ctx, sp)
	if err != nil {
		return notFoundOr(err, r, detailsNotFound)
	}
	r.Answer = renderDetails(p)
	return r, nil
}

// notFoundOr turns a catalog miss into an apology reply and passes every
// other error through.
func notFoundOr(err error, r *Reply, apology string) (*Reply, error) {
	if errors.Is(err, catalog.ErrNotFound) {
		r.Answer = apology
		return r, nil
	}
	return nil, err
}

// selectedPolicyDetails renders the chosen policy for the digression prompt.
func (e *Engine) selectedPolicyDetails(ctx context.Context, t *turn) string {
	id := t.sess.SelectedPolicy
	if id == "" {
		return ""
	}
	sp := session.ShownPolicy{PolicyID: id}
	for _, s := range t.sess.ShownRecommendations {
		if s.PolicyID == id {
			sp = s
		}
	}
	p, err := e.lookupPolicy(ctx, sp)
	if err != nil {
		return ""
	}
	return p.Document()
}
