package api

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"go-insure/internal/auth"
	"go-insure/internal/config"
	"go-insure/internal/dialogue"
	"go-insure/internal/session"
)

// TurnHandler runs one conversation turn.
type TurnHandler interface {
	HandleTurn(ctx context.Context, msg dialogue.Message) (*dialogue.Reply, error)
}

// SessionReader is the read side operators use to inspect conversations.
type SessionReader interface {
	Find(ctx context.Context, phone string) (*session.Session, error)
	ListLeads(ctx context.Context, limit int) ([]session.Lead, error)
}

type Deps struct {
	Turns    TurnHandler
	Sessions SessionReader
	// Revocations may be nil when redis is not configured.
	Revocations auth.Revocations
}

func SetupRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.Default()
	subpath := cfg.Server.Subpath // "" or a path starting with '/'

	group := r.Group(subpath)
	{
		group.GET("/health", healthHandler)
		group.GET("/config", configHandler(cfg))
		group.GET("/metrics", gin.WrapH(promhttp.Handler()))

		// --- Conversation ---
		group.POST("/chat", ChatHandler(deps.Turns))
		group.GET("/ws/chat", WSChatHandler(deps.Turns))

		// --- Operator ---
		operator := group.Group("/operator", auth.OperatorMiddleware(cfg, deps.Revocations))
		operator.GET("/leads", ListLeadsHandler(deps.Sessions))
		operator.GET("/sessions/:phone", GetSessionHandler(deps.Sessions))
	}
	return r
}
