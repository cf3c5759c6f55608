package app

import (
	"net/http"

	"gorm.io/gorm"

	"github.com/Alpayozd/intern-betting-app-sub000/internal/config"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/db"
	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	ledgerdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
	userdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/user"
	betrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/bet"
	grouprepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/group"
	ledgerrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/ledger"
	marketrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/market"
	userrepo "github.com/Alpayozd/intern-betting-app-sub000/internal/repository/postgres/user"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver"
	"github.com/Alpayozd/intern-betting-app-sub000/internal/transport/httpserver/handler"
	"github.com/Alpayozd/intern-betting-app-sub000/pkg/logger"
)

type App struct {
	cfg        config.Config
	httpServer *http.Server
	db         *gorm.DB
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database")
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	log.Info("app: running migrations")
	if err := db.Migrate(dbConn); err != nil {
		return nil, err
	}

	users := userdomain.NewService(userrepo.NewPostgres(dbConn), cfg.Auth.TokenTTL)
	scores := ledgerdomain.NewService(ledgerrepo.NewPostgres(dbConn), cfg.Betting.InitialPoints)
	groups := groupdomain.NewService(grouprepo.NewPostgres(dbConn), scores)
	markets := marketdomain.NewService(marketrepo.NewPostgres(dbConn), groups)
	bets := betdomain.NewService(betrepo.NewPostgres(dbConn), cfg.Betting.InitialPoints)

	handlers := handler.New(users, groups, scores, markets, bets, log)

	log.Info("app: initializing router")
	router := httpserver.NewRouter(cfg, handlers, users, log)

	log.Info("app: initializing http server")
	srv := httpserver.New(cfg, router)

	return &App{
		cfg:        cfg,
		httpServer: srv,
		db:         dbConn,
	}, nil
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

func (a *App) Close() error {
	if a.db == nil {
		return nil
	}
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
