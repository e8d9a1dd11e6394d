package processor

import (
	"time"

	"go.uber.org/fx"

	"github.com/ledgerline/payflow/internal/clock"
	"github.com/ledgerline/payflow/internal/config"
	"github.com/ledgerline/payflow/internal/processor/domain"
	"github.com/ledgerline/payflow/internal/processor/stripe"
)

var Module = fx.Module("processor",
	fx.Provide(provideClient),
	fx.Provide(provideAdapter),
)

func provideClient(cfg config.Config, holder *config.PaymentsConfigHolder) domain.Client {
	return stripe.NewClient(stripe.ClientConfig{
		APIKey:     cfg.StripeSecretKey,
		APIVersion: cfg.StripeAPIVersion,
		Timeout:    func() time.Duration { return holder.Current().ClientTimeout() },
	})
}

func provideAdapter(cfg config.Config, holder *config.PaymentsConfigHolder, clk clock.Clock) (domain.Adapter, error) {
	return stripe.NewAdapter(cfg.StripeWebhookSecret,
		func() time.Duration { return holder.Current().WebhookTolerance() }, clk)
}
