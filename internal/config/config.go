package config

import (
	"fmt"
	"time"

	env "github.com/caarlos0/env/v11"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	JWTSecret   string `env:"JWT_SECRET,required"`
	JWTExpiryH  int    `env:"JWT_EXPIRY_H" envDefault:"24"`
	Port        int    `env:"PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`

	// Credit amounts, in FireCredits.
	SignupBonus    float64 `env:"SIGNUP_BONUS" envDefault:"300"`
	TopUpAmount    float64 `env:"TOPUP_AMOUNT" envDefault:"800"`
	ReservationFee float64 `env:"RESERVATION_FEE" envDefault:"15"`
	PostingFee     float64 `env:"POSTING_FEE" envDefault:"25"`

	ReservationTTLS int `env:"RESERVATION_TTL_S" envDefault:"7200"`
	SweepIntervalS  int `env:"SWEEP_INTERVAL_S" envDefault:"60"`
	TxMaxRetries    int `env:"TX_MAX_RETRIES" envDefault:"3"`

	DBMaxOpenConns     int `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns     int `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetimeS int `env:"DB_CONN_MAX_LIFETIME_S" envDefault:"300"`
	DBConnMaxIdleTimeS int `env:"DB_CONN_MAX_IDLE_TIME_S" envDefault:"60"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) ReservationTTL() time.Duration {
	return time.Duration(c.ReservationTTLS) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalS) * time.Second
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryH) * time.Hour
}
