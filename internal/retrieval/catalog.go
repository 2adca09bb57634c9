package retrieval

import (
	"context"
	"log"
	"regexp"
	"strings"

	"go-insure/internal/catalog"
)

// PolicySearcher is the keyword lookup the catalog retriever needs.
type PolicySearcher interface {
	Search(ctx context.Context, keywords []string, limit int) ([]catalog.Policy, error)
}

// CatalogRetriever does keyword search over the policy table. It serves
// deployments without a vector store.
type CatalogRetriever struct {
	policies PolicySearcher
}

func NewCatalogRetriever(policies PolicySearcher) *CatalogRetriever {
	return &CatalogRetriever{policies: policies}
}

var wordRe = regexp.MustCompile(`[a-z]+`)

var stopwords = map[string]bool{
	"with": true, "years": true, "year": true, "annual": true, "income": true,
	"premium": true, "budget": true, "coverage": true, "policy": true, "term": true,
	"plans": true, "plan": true, "insurance": true, "from": true, "that": true,
	"this": true, "what": true, "about": true, "have": true, "does": true,
}

// Keywords keeps the distinct content words of a query.
func Keywords(query string) []string {
	seen := map[string]bool{}
	var out []string
	for _, w := range wordRe.FindAllString(strings.ToLower(query), -1) {
		if len(w) < 4 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func (r *CatalogRetriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	keywords := Keywords(query)
	policies, err := r.policies.Search(ctx, keywords, k)
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(policies))
	for i := range policies {
		docs = append(docs, PolicyDocument(&policies[i]))
	}
	log.Printf("[Retrieval] catalog matched %d policies for %v", len(docs), keywords)
	return docs, nil
}

// PolicyDocument converts a catalog row into a retrieval document. Zero
// numeric attributes are left out so ranking treats them as unknown.
func PolicyDocument(p *catalog.Policy) Document {
	meta := map[string]any{
		"policy_id":    p.PolicyID,
		"policy_name":  p.PolicyName,
		"policy_type":  p.PolicyType,
		"insurer_name": p.InsurerName,
		"description":  p.Description,
	}
	numbers := map[string]float64{
		"premium":         p.Premium,
		"coverage_amount": p.CoverageAmount,
		"sum_assured":     p.SumAssured,
		"policy_term_min": float64(p.PolicyTermMin),
		"policy_term_max": float64(p.PolicyTermMax),
	}
	for k, v := range numbers {
		if v != 0 {
			meta[k] = v
		}
	}
	return Document{Content: p.Document(), Metadata: meta}
}
