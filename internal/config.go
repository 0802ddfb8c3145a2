package internal

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Config struct {
	Host      string `env:"HOST,default=0.0.0.0"`
	Port      int    `env:"PORT,default=10080"`
	StaticDir string `env:"STATIC_DIR,default=./public"`
	LogLevel  string `env:"LOG_LEVEL,default=INFO"`

	SendBufferSize int           `env:"SEND_BUFFER_SIZE,default=32"`
	WriteTimeout   time.Duration `env:"WRITE_TIMEOUT,default=5s"`

	MetricInterval time.Duration `env:"METRIC_INTERVAL,default=30s"`
	DebugPort      int           `env:"DEBUG_PORT,default=8081"`
	EnableDebug    bool          `env:"ENABLE_DEBUG,default=false"`

	EnableModeration bool   `env:"ENABLE_MODERATION,default=false"`
	CharReplacement  string `env:"CHARACTER_REPLACEMENT,default=*"`

	// DelegateMode selects the authorization delegate: "none" keeps the
	// built-in default policy, "token" requires signed tokens minted by
	// the account endpoints.
	DelegateMode      string        `env:"DELEGATE_MODE,default=none" validate:"oneof=none token"`
	TokenSecret       string        `env:"TOKEN_SECRET" validate:"required_if=DelegateMode token"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,default=./data/accounts"`
}

var validate = validator.New()

func (c Config) Validate() error {
	return validate.Struct(c)
}

// CharacterRune enforces that the configured replacement is a single
// character.
func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
