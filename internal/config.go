package internal

import (
	"chat-sync/errors"
	"fmt"
	"strings"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	TransportURL    string        `env:"TRANSPORT_URL"`
	TransportKey    string        `env:"TRANSPORT_KEY"`
	JWTSecret       string        `env:"JWT_SECRET,required=true"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	ChannelName     string        `env:"CHANNEL_NAME,default=global-chat"`
	TypingStopDelay time.Duration `env:"TYPING_STOP_DELAY,default=2s"`
	PublishTimeout  time.Duration `env:"PUBLISH_TIMEOUT,default=5s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	HubBufferSize   int           `env:"HUB_BUFFER_SIZE,default=256"`
	CensoredWords   string        `env:"CENSORED_WORDS"`
	CharReplacement string        `env:"CHARACTER_REPLACEMENT,default=*"`
}

// LoadConfig reads the configuration from the environment and validates it.
func LoadConfig() (Config, error) {
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return Config{}, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate fails once at startup when the transport credentials are missing.
func (c Config) Validate() error {
	var missing []string
	if strings.TrimSpace(c.TransportURL) == "" {
		missing = append(missing, "TRANSPORT_URL")
	}
	if strings.TrimSpace(c.TransportKey) == "" {
		missing = append(missing, "TRANSPORT_KEY")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", errors.ErrMissingCredentials, strings.Join(missing, ", "))
	}
	if _, err := CharacterRune(c.CharReplacement); err != nil {
		return err
	}
	return nil
}

// Words splits the comma separated censored words, blanks dropped.
func (c Config) Words() []string {
	var words []string
	for _, w := range strings.Split(c.CensoredWords, ",") {
		if w = strings.TrimSpace(w); w != "" {
			words = append(words, w)
		}
	}
	return words
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf("%w: got %q", errors.ErrInvalidCensorChar, str)
	}
	return r[0], nil
}
