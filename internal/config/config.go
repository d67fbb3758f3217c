package config

import (
	"fmt"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN        string `env:"DATABASE_DSN,required=true"`
	RedisURL           string `env:"REDIS_URL,required=true"`
	RabbitMQURL        string `env:"RABBITMQ_URL,required=true"`
	CalendarBaseURL    string `env:"CALENDAR_BASE_URL,required=true"`
	CalendarToken      string `env:"CALENDAR_TOKEN"`
	EmailRelayURL      string `env:"EMAIL_RELAY_URL,required=true"`
	DispatchRatePerSec int    `env:"DISPATCH_RATE_PER_SEC,default=20"`
	CandidateCeiling   int    `env:"CANDIDATE_CEILING,default=50000"`
	APIPort            int    `env:"API_PORT,default=8080"`
	LogLevel           string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}
