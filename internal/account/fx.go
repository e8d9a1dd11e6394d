package account

import (
	"github.com/ledgerline/payflow/internal/account/repository"
	"github.com/ledgerline/payflow/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
