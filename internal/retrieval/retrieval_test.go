package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"go-insure/internal/breaker"
	"go-insure/internal/catalog"
)

func TestEmbedder_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"embedding":[0.1,0.2,0.3]}]}`))
	}))
	defer srv.Close()

	vec, err := NewEmbedder(srv.URL, "", "").Embed(context.Background(), "term plan")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(vec) != 3 {
		t.Errorf("expected 3 dimensions, got %d", len(vec))
	}
}

func TestEmbedder_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := NewEmbedder(srv.URL, "m", "").Embed(context.Background(), "x"); err == nil {
		t.Errorf("expected error on non-200 status")
	}
}

func TestEmbedder_SendsConfiguredKeyAndModel(t *testing.T) {
	var auth, model string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		var body struct {
			Model string `json:"model"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		model = body.Model
		w.Write([]byte(`{"data":[{"embedding":[1]}]}`))
	}))
	defer srv.Close()

	if _, err := NewEmbedder(srv.URL, "bge-small", "sk-embed").Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if auth != "Bearer sk-embed" {
		t.Errorf("Authorization = %q, want %q", auth, "Bearer sk-embed")
	}
	if model != "bge-small" {
		t.Errorf("model = %q, want bge-small", model)
	}

	if _, err := NewEmbedder(srv.URL, "", "").Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if auth != "" {
		t.Errorf("expected no Authorization header without a key, got %q", auth)
	}
	if model != "text-embedding-ada-002" {
		t.Errorf("default model = %q", model)
	}
}

func TestQdrantHost(t *testing.T) {
	cases := map[string]struct {
		host string
		tls  bool
	}{
		"http://localhost:6333":   {"localhost", false},
		"https://qdrant.example/": {"qdrant.example", true},
		"qdrant":                  {"qdrant", false},
	}
	for raw, want := range cases {
		host, tls := qdrantHost(raw)
		if host != want.host || tls != want.tls {
			t.Errorf("qdrantHost(%q) = %q,%v want %q,%v", raw, host, tls, want.host, want.tls)
		}
	}
}

func TestPointToDocument(t *testing.T) {
	payload := map[string]*qdrant.Value{
		payloadContent: qdrant.NewValueString("Wealth Plus: market linked"),
		payloadMetadata: {Kind: &qdrant.Value_StructValue{StructValue: &qdrant.Struct{Fields: map[string]*qdrant.Value{
			"policy_id":       qdrant.NewValueString("P1"),
			"premium":         qdrant.NewValueDouble(12000),
			"policy_term_min": qdrant.NewValueInt(10),
		}}}},
	}
	doc := pointToDocument(payload, 0.87)
	if doc.Content != "Wealth Plus: market linked" || doc.Score != 0.87 {
		t.Errorf("unexpected document: %+v", doc)
	}
	if doc.String("policy_id") != "P1" {
		t.Errorf("policy_id not decoded: %v", doc.Metadata)
	}
	if v, ok := doc.Number("premium"); !ok || v != 12000 {
		t.Errorf("premium not decoded: %v", doc.Metadata)
	}
	if v, ok := doc.Number("policy_term_min"); !ok || v != 10 {
		t.Errorf("policy_term_min not decoded: %v", doc.Metadata)
	}
}

func TestDocumentNumber(t *testing.T) {
	d := Document{Metadata: map[string]any{"a": "12,000", "b": "n/a", "c": 5}}
	if v, ok := d.Number("a"); !ok || v != 12000 {
		t.Errorf("numeric string not parsed: %v %v", v, ok)
	}
	if _, ok := d.Number("b"); ok {
		t.Errorf("non-numeric string should not parse")
	}
	if _, ok := d.Number("missing"); ok {
		t.Errorf("missing key should not parse")
	}
	if v, _ := d.Number("c"); v != 5 {
		t.Errorf("int not converted")
	}
}

type fakeSearcher struct {
	gotKeywords []string
	policies    []catalog.Policy
}

func (f *fakeSearcher) Search(ctx context.Context, keywords []string, limit int) ([]catalog.Policy, error) {
	f.gotKeywords = keywords
	return f.policies, nil
}

func TestCatalogRetriever_Search(t *testing.T) {
	fs := &fakeSearcher{policies: []catalog.Policy{{PolicyID: "P1", PolicyName: "Wealth Plus", Premium: 12000}}}
	docs, err := NewCatalogRetriever(fs).Search(context.Background(), "Wealth creation insurance for age 35 with annual income 1000000", 8)
	if err != nil {
		t.Fatalf("Search failed: %v", err)
	}
	if len(fs.gotKeywords) != 2 || fs.gotKeywords[0] != "wealth" || fs.gotKeywords[1] != "creation" {
		t.Errorf("unexpected keywords: %v", fs.gotKeywords)
	}
	if len(docs) != 1 || docs[0].String("policy_id") != "P1" {
		t.Fatalf("unexpected docs: %+v", docs)
	}
	if _, ok := docs[0].Number("coverage_amount"); ok {
		t.Errorf("zero coverage should be omitted from metadata")
	}
}

type failingRetriever struct{ calls int }

func (f *failingRetriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	f.calls++
	return nil, errors.New("connection refused")
}

func TestGuarded_StopsCallingFailingRetriever(t *testing.T) {
	fr := &failingRetriever{}
	g := NewGuarded(fr, breaker.New("retrieval", 1, time.Minute), time.Second)
	_, _ = g.Search(context.Background(), "q", 8)
	_, err := g.Search(context.Background(), "q", 8)
	if !errors.Is(err, breaker.ErrOpen) {
		t.Errorf("expected ErrOpen, got %v", err)
	}
	if fr.calls != 1 {
		t.Errorf("expected one underlying call, got %d", fr.calls)
	}
}
