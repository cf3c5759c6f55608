package handler

import (
	betdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/bet"
	groupdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/group"
	ledgerdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/ledger"
	marketdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/market"
	userdomain "github.com/Alpayozd/intern-betting-app-sub000/internal/domain/user"
	"github.com/Alpayozd/intern-betting-app-sub000/pkg/logger"
)

type Handlers struct {
	Users   *userdomain.Service
	Groups  *groupdomain.Service
	Ledger  *ledgerdomain.Service
	Markets *marketdomain.Service
	Bets    *betdomain.Service

	log logger.Logger
}

func New(users *userdomain.Service, groups *groupdomain.Service, scores *ledgerdomain.Service, markets *marketdomain.Service, bets *betdomain.Service, log logger.Logger) *Handlers {
	return &Handlers{
		Users:   users,
		Groups:  groups,
		Ledger:  scores,
		Markets: markets,
		Bets:    bets,
		log:     log,
	}
}
