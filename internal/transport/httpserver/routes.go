package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/config"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/handler"
	authmw "github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/middleware"
	"github.com/Alpayozd/intern-betting-app-sub000/pkg/logger"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, users authmw.Authenticator, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS(cfg.CORS.AllowedOrigins))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		r.Post("/auth/register", handlers.Register)
		r.Post("/auth/login", handlers.Login)

		auth := authmw.NewTokenAuth(users, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/auth/me", handlers.AuthMe)
			r.Post("/auth/logout", handlers.Logout)

			r.Post("/groups", handlers.CreateGroup)
			r.Post("/groups/join", handlers.JoinGroup)
			r.Get("/groups/{group_id}", handlers.GetGroup)
			r.Get("/groups/{group_id}/members", handlers.ListGroupMembers)
			r.Patch("/groups/{group_id}/memberships/{user_id}", handlers.ChangeMemberRole)
			r.Delete("/groups/{group_id}/memberships/{user_id}", handlers.RemoveMember)
			r.Get("/groups/{group_id}/leaderboard", handlers.Leaderboard)
			r.Get("/groups/{group_id}/my-bets", handlers.GroupMyBets)

			r.Post("/bet-markets", handlers.CreateMarket)
			r.Get("/bet-markets/{market_id}", handlers.GetMarket)
			r.Patch("/bet-markets/{market_id}", handlers.EditMarket)
			r.Delete("/bet-markets/{market_id}", handlers.DeleteMarket)
			r.Post("/bet-markets/{market_id}/settle", handlers.SettleMarket)

			r.Post("/bet-sub-markets", handlers.CreateSubMarket)
			r.Get("/bet-sub-markets/{sub_market_id}", handlers.GetSubMarket)
			r.Patch("/bet-sub-markets/{sub_market_id}", handlers.EditSubMarket)
			r.Delete("/bet-sub-markets/{sub_market_id}", handlers.DeleteSubMarket)
			r.Post("/bet-sub-markets/{sub_market_id}/settle", handlers.SettleSubMarket)
			r.Get("/bet-sub-markets/{sub_market_id}/bets", handlers.ListSubMarketBets)
			r.Get("/bet-sub-markets/{sub_market_id}/my-bets", handlers.SubMarketMyBets)

			r.Post("/bet-selections", handlers.PlaceStake)
		})
	})

	return r
}
