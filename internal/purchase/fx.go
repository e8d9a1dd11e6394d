package purchase

import (
	"go.uber.org/fx"

	"github.com/ledgerline/payflow/internal/purchase/repository"
	"github.com/ledgerline/payflow/internal/purchase/service"
)

var Module = fx.Module("purchase.recorder",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
