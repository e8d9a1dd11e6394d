package paymentmethod

import (
	"go.uber.org/fx"

	"github.com/ledgerline/payflow/internal/paymentmethod/service"
)

var Module = fx.Module("paymentmethod.service",
	fx.Provide(service.New),
)
