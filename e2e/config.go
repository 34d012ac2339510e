package e2e

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_COLOURS enables colorized step headers
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
	// E2E_DEBUG_JSON dumps every broadcast payload seen by the clients
	DebugJSON       bool          `envconfig:"E2E_DEBUG_JSON" default:"false"`
	HubBufferSize   int           `envconfig:"E2E_HUB_BUFFER_SIZE" default:"64"`
	TypingStopDelay time.Duration `envconfig:"E2E_TYPING_STOP_DELAY" default:"100ms"`
	DeliveryTimeout time.Duration `envconfig:"E2E_DELIVERY_TIMEOUT" default:"2s"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
