package catalog

import (
	"go.uber.org/fx"

	"github.com/ledgerline/payflow/internal/catalog/repository"
	"github.com/ledgerline/payflow/internal/catalog/service"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
