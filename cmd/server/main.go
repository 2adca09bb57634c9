package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"go-insure/internal/api"
	"go-insure/internal/auth"
	"go-insure/internal/breaker"
	"go-insure/internal/catalog"
	"go-insure/internal/config"
	"go-insure/internal/db"
	"go-insure/internal/dialogue"
	"go-insure/internal/llm"
	redisdb "go-insure/internal/redis"
	"go-insure/internal/retrieval"
	"go-insure/internal/session"
)

func main() {
	cfg, err := config.LoadConfig("config.json")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := db.Init(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "DB init error: %v\n", err)
		os.Exit(1)
	}

	policies := catalog.NewRepository(db.DB)
	store := session.NewStore(db.DB, string(dialogue.InitialPhase))

	deps := dialogue.Dependencies{
		Store:     store,
		Catalog:   policies,
		Retriever: newRetriever(cfg, policies),
		TopK:      cfg.Retrieval.TopK,
	}
	if gen, err := llm.NewOpenAIGenerator(cfg.LLM); err != nil {
		log.Printf("[Main] WARNING: LLM disabled, digressions will get the apology reply: %v", err)
	} else {
		timeout := time.Duration(cfg.LLM.TimeoutSeconds) * time.Second
		deps.LLM = llm.NewGuarded(gen, breaker.New("llm", 3, 30*time.Second), timeout)
	}

	var revocations auth.Revocations
	if rdb := connectRedis(cfg); rdb != nil {
		deps.Locker = redisdb.NewLocker(rdb, time.Duration(cfg.Redis.LockTTLSeconds)*time.Second)
		revocations = auth.NewRedisRevocations(rdb)
		log.Printf("[Main] ✓ Redis turn lock enabled at %s", cfg.Redis.Addr)
	} else {
		log.Printf("[Main] Redis not configured, using in-process turn lock")
	}

	engine := dialogue.NewEngine(deps)
	r := api.SetupRouter(cfg, api.Deps{
		Turns:       engine,
		Sessions:    store,
		Revocations: revocations,
	})
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("Starting server on %s%s\n", addr, cfg.Server.Subpath)
	if err := r.Run(addr); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}

// newRetriever prefers the vector store and falls back to keyword search
// over the policy table.
func newRetriever(cfg *config.Config, policies *catalog.Repository) retrieval.Retriever {
	var base retrieval.Retriever = retrieval.NewCatalogRetriever(policies)
	if q := cfg.Retrieval.Qdrant; q.URL != "" {
		e := cfg.Retrieval.EmbeddingModel
		embedder := retrieval.NewEmbedder(e.URL, e.Name, e.APIKey)
		vr, err := retrieval.NewQdrantRetriever(q.URL, q.Collection, q.APIKey, embedder)
		if err != nil {
			log.Printf("[Main] WARNING: Qdrant unavailable, using catalog search: %v", err)
		} else {
			log.Printf("[Main] ✓ Qdrant retrieval on collection %s", q.Collection)
			base = vr
		}
	}
	timeout := time.Duration(cfg.Retrieval.TimeoutSeconds) * time.Second
	return retrieval.NewGuarded(base, breaker.New("retrieval", 3, 30*time.Second), timeout)
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.Redis.Addr == "" {
		return nil
	}
	rdb := redisdb.NewClient(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[Main] WARNING: Redis ping failed: %v", err)
		rdb.Close()
		return nil
	}
	return rdb
}
