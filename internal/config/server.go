package config

import "github.com/caarlos0/env/v11"

type ServerConfig struct {
	PostgresDSN string `env:"POSTGRES_DSN,required,notEmpty"`
	HTTPAddr    string `env:"HTTP_ADDR" envDefault:":8080"`

	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// PayoutMultiplier is applied to the stake of a winning bet. The
	// default is even money: a winning stake of 100 credits 200.
	PayoutMultiplier int64 `env:"PAYOUT_MULTIPLIER" envDefault:"2"`

	// SessionMinutes is the fixed duration of a trading session.
	SessionMinutes int `env:"SESSION_MINUTES" envDefault:"5"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
