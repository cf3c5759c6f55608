package httpserver

import (
	"net/http"
	"time"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/config"
)

func New(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
