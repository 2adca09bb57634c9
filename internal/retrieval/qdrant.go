package retrieval

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/qdrant/go-client/qdrant"
)

// Payload keys written by the policy indexer.
const (
	payloadContent  = "page_content"
	payloadMetadata = "metadata"
)

// QdrantRetriever runs vector similarity search over the policy collection.
type QdrantRetriever struct {
	client     *qdrant.Client
	collection string
	embedder   *Embedder
}

// NewQdrantRetriever connects to the Qdrant gRPC port of qdrantURL.
func NewQdrantRetriever(qdrantURL, collection, apiKey string, embedder *Embedder) (*QdrantRetriever, error) {
	host, useTLS := qdrantHost(qdrantURL)
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   6334, // gRPC port
		APIKey: apiKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Qdrant client: %w", err)
	}
	return &QdrantRetriever{client: client, collection: collection, embedder: embedder}, nil
}

// qdrantHost strips scheme and port; the gRPC port is set explicitly.
func qdrantHost(raw string) (string, bool) {
	useTLS := strings.HasPrefix(raw, "https://")
	host := strings.TrimPrefix(strings.TrimPrefix(raw, "http://"), "https://")
	if idx := strings.IndexAny(host, ":/"); idx != -1 {
		host = host[:idx]
	}
	return host, useTLS
}

func (r *QdrantRetriever) Search(ctx context.Context, query string, k int) ([]Document, error) {
	vec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	limit := uint64(k)
	points, err := r.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: r.collection,
		Query:          qdrant.NewQuery(vec...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	docs := make([]Document, 0, len(points))
	for _, p := range points {
		docs = append(docs, pointToDocument(p.GetPayload(), float64(p.GetScore())))
	}
	log.Printf("[Retrieval] qdrant returned %d documents", len(docs))
	return docs, nil
}

func (r *QdrantRetriever) Close() error {
	return r.client.Close()
}

func pointToDocument(payload map[string]*qdrant.Value, score float64) Document {
	doc := Document{Metadata: map[string]any{}, Score: score}
	if v, ok := payload[payloadContent]; ok {
		doc.Content = v.GetStringValue()
	}
	if v, ok := payload[payloadMetadata]; ok {
		if st := v.GetStructValue(); st != nil {
			for key, field := range st.GetFields() {
				doc.Metadata[key] = valueToAny(field)
			}
		}
	}
	return doc
}

func valueToAny(v *qdrant.Value) any {
	switch k := v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return k.StringValue
	case *qdrant.Value_IntegerValue:
		return k.IntegerValue
	case *qdrant.Value_DoubleValue:
		return k.DoubleValue
	case *qdrant.Value_BoolValue:
		return k.BoolValue
	case *qdrant.Value_ListValue:
		out := make([]any, 0, len(k.ListValue.GetValues()))
		for _, item := range k.ListValue.GetValues() {
			out = append(out, valueToAny(item))
		}
		return out
	case *qdrant.Value_StructValue:
		out := map[string]any{}
		for key, item := range k.StructValue.GetFields() {
			out[key] = valueToAny(item)
		}
		return out
	}
	return nil
}
