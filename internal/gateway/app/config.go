package app

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds everything the gateway reads from its environment. Secrets
// are required; everything else has a sensible default.
type Config struct {
	Env       string `env:"ENV" envDefault:"dev"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
	Port      int    `env:"PORT" envDefault:"8080"`

	DatabaseFile string `env:"GATEWAY_DATABASE_FILE" envDefault:"gateway.db"`

	// SessionSecret signs the gateway's own session tokens. TokenSealKey
	// encrypts stored upstream credentials at rest.
	SessionSecret string `env:"GATEWAY_SESSION_SECRET,required"`
	TokenSealKey  string `env:"GATEWAY_TOKEN_SEAL_KEY,required"`

	GitHubClientID     string   `env:"GITHUB_CLIENT_ID,required"`
	GitHubClientSecret string   `env:"GITHUB_CLIENT_SECRET,required"`
	GitHubScopes       []string `env:"GITHUB_SCOPES" envDefault:"repo,read:user" envSeparator:","`
	GitHubBaseURL      string   `env:"GITHUB_API_BASE_URL"`

	UpstreamMaxRetries int `env:"GATEWAY_UPSTREAM_MAX_RETRIES" envDefault:"3"`

	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY,required"`
	JudgmentModel   string `env:"GATEWAY_JUDGMENT_MODEL" envDefault:"claude-sonnet-4-5"`

	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`
}

// LoadConfig parses configuration from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}
