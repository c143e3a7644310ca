package main

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// BaseConfig is the process configuration, loaded from the environment.
type BaseConfig struct {
	Server      Server      `envPrefix:"AUTH_API_"`
	Persistence Persistence `envPrefix:"AUTH_API_DB_"`
	Auth        AuthConfig  `envPrefix:"AUTH_API_AUTH_"`
}

func (c BaseConfig) Validate() error {
	if c.Auth.SigningKey == "" {
		return fmt.Errorf("AUTH_API_AUTH_SIGNING_KEY is required")
	}
	return nil
}

func (c *BaseConfig) GetServer() *Server           { return &c.Server }
func (c *BaseConfig) GetPersistence() *Persistence { return &c.Persistence }
func (c *BaseConfig) GetAuth() *AuthConfig         { return &c.Auth }

// LoadConfig parses the environment into a BaseConfig.
func LoadConfig() (*BaseConfig, error) {
	cfg, err := env.ParseAs[BaseConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

type Server struct {
	Addr  string `env:"ADDR" envDefault:":8572"`
	Debug bool   `env:"DEBUG" envDefault:"false"`
}

func (s Server) GetAddr() string { return s.Addr }

type Persistence struct {
	Debug                 bool   `env:"DEBUG" envDefault:"false"`
	DSN                   string `env:"DSN" envDefault:"file:auth.db?cache=shared&_pragma=foreign_keys(1)"`
	PingTimeoutExpression string `env:"PING_TIMEOUT" envDefault:"5s"`
}

func (p Persistence) GetDebug() bool { return p.Debug }
func (p Persistence) GetDSN() string { return p.DSN }

func (p Persistence) GetPingTimeout() time.Duration {
	dur, err := time.ParseDuration(p.PingTimeoutExpression)
	if err != nil {
		panic(
			fmt.Sprintf("unable to parse time: expr %s", p.PingTimeoutExpression),
		)
	}
	return dur
}

// AuthConfig satisfies auth.Config. The signing key has no default on
// purpose; the process refuses to start without one.
type AuthConfig struct {
	SigningKey      string   `env:"SIGNING_KEY"`
	SigningMethod   string   `env:"SIGNING_METHOD" envDefault:"HS256"`
	ContextKey      string   `env:"CONTEXT_KEY" envDefault:"user"`
	TokenExpiration int      `env:"TOKEN_EXPIRATION_HOURS" envDefault:"24"`
	TokenLookup     string   `env:"TOKEN_LOOKUP" envDefault:"header:Authorization"`
	AuthScheme      string   `env:"AUTH_SCHEME" envDefault:"Bearer"`
	Issuer          string   `env:"ISSUER" envDefault:"go-auth-api"`
	Audience        []string `env:"AUDIENCE" envDefault:"api"`
}

func (a *AuthConfig) GetSigningKey() string    { return a.SigningKey }
func (a *AuthConfig) GetSigningMethod() string { return a.SigningMethod }
func (a *AuthConfig) GetContextKey() string    { return a.ContextKey }
func (a *AuthConfig) GetTokenExpiration() int  { return a.TokenExpiration }
func (a *AuthConfig) GetTokenLookup() string   { return a.TokenLookup }
func (a *AuthConfig) GetAuthScheme() string    { return a.AuthScheme }
func (a *AuthConfig) GetIssuer() string        { return a.Issuer }
func (a *AuthConfig) GetAudience() []string    { return a.Audience }
