package config

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap/zapcore"

	"github.com/urveshtaral/library-management-system/internal/server"
	"github.com/urveshtaral/library-management-system/pkg/kafka"
	"github.com/urveshtaral/library-management-system/pkg/logger"
	"github.com/urveshtaral/library-management-system/pkg/postgres"
)

// Policy collects the lending business rules that were scattered as
// literals across the original route handlers.
type Policy struct {
	FinePerDay      int `yaml:"finePerDay" envconfig:"POLICY_FINE_PER_DAY" default:"5"`
	MaxRenewals     int `yaml:"maxRenewals" envconfig:"POLICY_MAX_RENEWALS" default:"2"`
	DefaultLoanDays int `yaml:"defaultLoanDays" envconfig:"POLICY_DEFAULT_LOAN_DAYS" default:"14"`
	RenewalDays     int `yaml:"renewalDays" envconfig:"POLICY_RENEWAL_DAYS" default:"7"`
}

type Auth struct {
	JWTKey   string        `envconfig:"AUTH_JWT_KEY"`
	TokenTTL time.Duration `envconfig:"AUTH_TOKEN_TTL" default:"24h"`
}

type Config struct {
	Server   server.Config   `yaml:"server"`
	Database postgres.Config `yaml:"database"`
	Kafka    kafka.Config
	Policy   Policy `yaml:"policy"`
	Auth     Auth
	Log      logger.Log `yaml:"log"`
}

var (
	once sync.Once
	cfg  Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = config
		printConfig(cfg)
	})

	return &cfg
}

func printConfig(cfg Config) {
	cfg.Auth.JWTKey = "***"
	cfg.Database.Password = "***"
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Println(string(jscfg))
}

type Option func(*Config)

func WithLogLevel(level zapcore.Level) Option {
	return func(c *Config) {
		c.Log.LogLevel = level
	}
}

func WithWriteTimeout(d time.Duration) Option {
	return func(c *Config) {
		c.Server.WriteTimeout = d
	}
}
