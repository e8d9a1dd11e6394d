package checkout

import (
	"go.uber.org/fx"

	"github.com/ledgerline/payflow/internal/checkout/service"
)

var Module = fx.Module("checkout.service",
	fx.Provide(service.New),
)
