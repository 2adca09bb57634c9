// Command operator-token mints or revokes JWTs for the operator endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go-insure/internal/auth"
	"go-insure/internal/config"
	redisdb "go-insure/internal/redis"
)

func main() {
	configPath := flag.String("config", "config.json", "path to config.json")
	operator := flag.String("operator", "", "operator name recorded in the token")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	revoke := flag.String("revoke", "", "revoke this token instead of minting one")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if *revoke != "" {
		if cfg.Redis.Addr == "" {
			fmt.Fprintln(os.Stderr, "Revocation needs redis.addr to be configured")
			os.Exit(1)
		}
		rdb := redisdb.NewClient(cfg)
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := auth.RevokeToken(ctx, auth.NewRedisRevocations(rdb), cfg.Server.JWTSecret, *revoke); err != nil {
			fmt.Fprintf(os.Stderr, "Revoke error: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Token revoked")
		return
	}

	if *operator == "" {
		fmt.Fprintln(os.Stderr, "-operator is required")
		flag.Usage()
		os.Exit(2)
	}
	token, err := auth.GenerateJWT(cfg.Server.JWTSecret, *operator, auth.RoleOperator, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Token error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
