package config

import (
	"errors"
	"math"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/todoapp/todoapp-go/internal/crypto"
)

// DevSecret is the token secret used when JWT_SECRET is unset. It is
// rejected in production.
const DevSecret = "dev-secret-change-in-production"

var (
	ErrMissingSecret = errors.New("JWT_SECRET must be set")
	ErrWeakSecret    = errors.New("JWT_SECRET must be set to at least 32 characters in production")
	ErrNegativeTTL   = errors.New("TOKEN_TTL must not be negative")
	ErrArgon2Range   = errors.New("ARGON2_MEMORY_KIB and ARGON2_ITERATIONS must fit in 32 bits")
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	MongoURI string
	MongoDB  string

	JWTSecret string
	TokenTTL  time.Duration

	HashAlgorithm    string
	BcryptCost       int
	Argon2MemoryKiB  uint
	Argon2Iterations uint

	CORSOrigins    string
	RateLimitRPS   float64
	RateLimitBurst int
}

// Flags binds every setting of cfg to a command line flag with an
// environment variable fallback.
func Flags(cfg *Config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "port",
			Usage:       "Port the HTTP server listens on",
			EnvVars:     []string{"PORT"},
			Value:       "8080",
			Destination: &cfg.Port,
		},
		&cli.StringFlag{
			Name:        "env",
			Usage:       "Deployment environment (development or production)",
			EnvVars:     []string{"ENV"},
			Value:       "development",
			Destination: &cfg.Env,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Minimum log level (trace, debug, info, warn, error)",
			EnvVars:     []string{"LOG_LEVEL"},
			Value:       "info",
			Destination: &cfg.LogLevel,
		},
		&cli.StringFlag{
			Name:        "mongodb-uri",
			Usage:       "MongoDB connection string",
			EnvVars:     []string{"MONGODB_URI"},
			Value:       "mongodb://localhost:27017",
			Destination: &cfg.MongoURI,
		},
		&cli.StringFlag{
			Name:        "mongodb-db",
			Usage:       "MongoDB database holding the users and todos collections",
			EnvVars:     []string{"MONGODB_DB"},
			Value:       "TodoApp",
			Destination: &cfg.MongoDB,
		},
		&cli.StringFlag{
			Name:        "jwt-secret",
			Usage:       "Secret used to sign auth tokens",
			EnvVars:     []string{"JWT_SECRET"},
			Value:       DevSecret,
			Destination: &cfg.JWTSecret,
		},
		&cli.DurationFlag{
			Name:        "token-ttl",
			Usage:       "Lifetime of auth tokens, 0 keeps them valid until logout",
			EnvVars:     []string{"TOKEN_TTL"},
			Value:       0,
			Destination: &cfg.TokenTTL,
		},
		&cli.StringFlag{
			Name:        "hash-algorithm",
			Usage:       "Password hash algorithm for new passwords (argon2id or bcrypt)",
			EnvVars:     []string{"HASH_ALGORITHM"},
			Value:       crypto.AlgorithmArgon2id,
			Destination: &cfg.HashAlgorithm,
		},
		&cli.IntFlag{
			Name:        "bcrypt-cost",
			Usage:       "bcrypt work factor",
			EnvVars:     []string{"BCRYPT_COST"},
			Value:       crypto.DefaultBcryptCost,
			Destination: &cfg.BcryptCost,
		},
		&cli.UintFlag{
			Name:        "argon2-memory-kib",
			Usage:       "argon2id memory cost in KiB",
			EnvVars:     []string{"ARGON2_MEMORY_KIB"},
			Value:       uint(crypto.DefaultHashParams().Memory),
			Destination: &cfg.Argon2MemoryKiB,
		},
		&cli.UintFlag{
			Name:        "argon2-iterations",
			Usage:       "argon2id time cost",
			EnvVars:     []string{"ARGON2_ITERATIONS"},
			Value:       uint(crypto.DefaultHashParams().Iterations),
			Destination: &cfg.Argon2Iterations,
		},
		&cli.StringFlag{
			Name:        "cors-origins",
			Usage:       "Comma separated list of allowed CORS origins",
			EnvVars:     []string{"CORS_ORIGINS"},
			Value:       "*",
			Destination: &cfg.CORSOrigins,
		},
		&cli.Float64Flag{
			Name:        "rate-limit-rps",
			Usage:       "Requests per second allowed per IP on register and login, 0 disables",
			EnvVars:     []string{"RATE_LIMIT_RPS"},
			Value:       5,
			Destination: &cfg.RateLimitRPS,
		},
		&cli.IntFlag{
			Name:        "rate-limit-burst",
			Usage:       "Burst size of the register and login rate limit",
			EnvVars:     []string{"RATE_LIMIT_BURST"},
			Value:       10,
			Destination: &cfg.RateLimitBurst,
		},
	}
}

// Validate reports settings the server cannot start with.
func (c Config) Validate() error {
	if c.JWTSecret == "" {
		return ErrMissingSecret
	}
	if c.Env == "production" && (c.JWTSecret == DevSecret || len(c.JWTSecret) < crypto.MinSecretLength) {
		return ErrWeakSecret
	}
	if c.TokenTTL < 0 {
		return ErrNegativeTTL
	}
	if uint64(c.Argon2MemoryKiB) > math.MaxUint32 || uint64(c.Argon2Iterations) > math.MaxUint32 {
		return ErrArgon2Range
	}
	return nil
}

// Addr returns the listen address of the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// AllowedOrigins splits CORSOrigins into its entries.
func (c Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// HashParams returns the argon2id parameters with the configured costs applied.
func (c Config) HashParams() crypto.HashParams {
	params := crypto.DefaultHashParams()
	params.Memory = uint32(c.Argon2MemoryKiB)
	params.Iterations = uint32(c.Argon2Iterations)
	return params
}
