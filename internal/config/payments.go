package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// PaymentsConfig holds the runtime-tunable knobs of the payment paths.
type PaymentsConfig struct {
	WebhookToleranceSeconds int    `mapstructure:"webhookToleranceSeconds"`
	ClientTimeoutSeconds    int    `mapstructure:"clientTimeoutSeconds"`
	EphemeralKeyVersion     string `mapstructure:"ephemeralKeyVersion"`
	ProvisionBatchSize      int    `mapstructure:"provisionBatchSize"`
	ProvisionPollSeconds    int    `mapstructure:"provisionPollSeconds"`
}

func DefaultPaymentsConfig() PaymentsConfig {
	return PaymentsConfig{
		WebhookToleranceSeconds: 300,
		ClientTimeoutSeconds:    12,
		EphemeralKeyVersion:     "2022-08-01",
		ProvisionBatchSize:      50,
		ProvisionPollSeconds:    2,
	}
}

func (c PaymentsConfig) WebhookTolerance() time.Duration {
	if c.WebhookToleranceSeconds <= 0 {
		return time.Duration(DefaultPaymentsConfig().WebhookToleranceSeconds) * time.Second
	}
	return time.Duration(c.WebhookToleranceSeconds) * time.Second
}

func (c PaymentsConfig) ClientTimeout() time.Duration {
	if c.ClientTimeoutSeconds <= 0 {
		return time.Duration(DefaultPaymentsConfig().ClientTimeoutSeconds) * time.Second
	}
	return time.Duration(c.ClientTimeoutSeconds) * time.Second
}

func (c PaymentsConfig) ProvisionPollInterval() time.Duration {
	if c.ProvisionPollSeconds <= 0 {
		return time.Duration(DefaultPaymentsConfig().ProvisionPollSeconds) * time.Second
	}
	return time.Duration(c.ProvisionPollSeconds) * time.Second
}

// PaymentsConfigHolder serves the current payments config and hot-reloads it
// when the backing file changes.
type PaymentsConfigHolder struct {
	current atomic.Value // holds PaymentsConfig
}

// NewStaticPaymentsConfigHolder serves a fixed config with no file watching.
func NewStaticPaymentsConfigHolder(cfg PaymentsConfig) *PaymentsConfigHolder {
	holder := &PaymentsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func NewPaymentsConfigHolder() (*PaymentsConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("payments")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/payflow/config")
	v.AddConfigPath("/etc/payflow")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PAYFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultPaymentsConfig()
		v.SetDefault("payments.webhookToleranceSeconds", defaults.WebhookToleranceSeconds)
		v.SetDefault("payments.clientTimeoutSeconds", defaults.ClientTimeoutSeconds)
		v.SetDefault("payments.ephemeralKeyVersion", defaults.EphemeralKeyVersion)
		v.SetDefault("payments.provisionBatchSize", defaults.ProvisionBatchSize)
		v.SetDefault("payments.provisionPollSeconds", defaults.ProvisionPollSeconds)
	}

	holder := &PaymentsConfigHolder{}
	cfg, err := unmarshalPayments(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(cfg)

	v.OnConfigChange(func(event fsnotify.Event) {
		reloaded, err := unmarshalPayments(v)
		if err != nil {
			log.Printf("payments config reload failed: %v", err)
			return
		}
		holder.current.Store(reloaded)
	})
	v.WatchConfig()

	return holder, nil
}

func (h *PaymentsConfigHolder) Current() PaymentsConfig {
	if h == nil {
		return DefaultPaymentsConfig()
	}
	value := h.current.Load()
	cfg, ok := value.(PaymentsConfig)
	if !ok {
		return DefaultPaymentsConfig()
	}
	return cfg
}

func unmarshalPayments(v *viper.Viper) (PaymentsConfig, error) {
	var cfg PaymentsConfig
	if err := v.UnmarshalKey("payments", &cfg); err != nil {
		return PaymentsConfig{}, err
	}
	if cfg == (PaymentsConfig{}) {
		return DefaultPaymentsConfig(), nil
	}
	if cfg.WebhookToleranceSeconds < 0 || cfg.ClientTimeoutSeconds < 0 {
		return PaymentsConfig{}, errors.New("payments config values must not be negative")
	}
	defaults := DefaultPaymentsConfig()
	if cfg.WebhookToleranceSeconds == 0 {
		cfg.WebhookToleranceSeconds = defaults.WebhookToleranceSeconds
	}
	if cfg.ClientTimeoutSeconds == 0 {
		cfg.ClientTimeoutSeconds = defaults.ClientTimeoutSeconds
	}
	if strings.TrimSpace(cfg.EphemeralKeyVersion) == "" {
		cfg.EphemeralKeyVersion = defaults.EphemeralKeyVersion
	}
	if cfg.ProvisionBatchSize <= 0 {
		cfg.ProvisionBatchSize = defaults.ProvisionBatchSize
	}
	if cfg.ProvisionPollSeconds <= 0 {
		cfg.ProvisionPollSeconds = defaults.ProvisionPollSeconds
	}
	return cfg, nil
}
