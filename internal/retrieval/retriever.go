// Package retrieval finds policy documents relevant to a query.
package retrieval

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go-insure/internal/breaker"
)

// Document is one retrieved policy text with its metadata.
type Document struct {
	Content  string         `json:"content"`
	Metadata map[string]any `json:"metadata"`
	Score    float64        `json:"score"`
}

// Retriever returns up to k documents ranked by relevance.
type Retriever interface {
	Search(ctx context.Context, query string, k int) ([]Document, error)
}

// String returns a metadata value as text.
func (d Document) String(key string) string {
	switch v := d.Metadata[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Number returns a numeric metadata value, accepting numeric strings such as
// "12,000". ok is false when the key is absent or not a number.
func (d Document) Number(key string) (float64, bool) {
	switch v := d.Metadata[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(v), ",", ""), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// Guarded bounds a retriever with a timeout and a circuit breaker.
type Guarded struct {
	next    Retriever
	breaker *breaker.Breaker
	timeout time.Duration
}

func NewGuarded(next Retriever, b *breaker.Breaker, timeout time.Duration) *Guarded {
	return &Guarded{next: next, breaker: b, timeout: timeout}
}

func (g *Guarded) Search(ctx context.Context, query string, k int) ([]Document, error) {
	var docs []Document
	err := g.breaker.Call(func() error {
		callCtx := ctx
		if g.timeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, g.timeout)
			defer cancel()
		}
		var err error
		docs, err = g.next.Search(callCtx, query, k)
		return err
	})
	return docs, err
}
