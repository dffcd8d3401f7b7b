// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11:
// .env files are read into the process environment, then parsed into any
// struct through `env` and `envDefault` field tags. Each configuration type
// is parsed once and cached for the life of the process.
//
// # Usage
//
//	type CacheConfig struct {
//		Dir      string        `env:"CACHE_DIR"`
//		TTL      time.Duration `env:"CACHE_TTL" envDefault:"1h"`
//		Capacity int           `env:"CACHE_MEMORY_CAPACITY" envDefault:"10000"`
//	}
//
//	var cfg CacheConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// Load reads ./.env once, if it exists. Additional files can be loaded
// first with LoadEnv; later files override earlier ones, and variables
// already set in the process environment always win.
//
// # Errors
//
//   - ErrParsingConfig: the environment does not satisfy the struct tags.
//   - ErrNilPointer: Load got a nil pointer.
//   - ErrEnvFile: a .env file passed to LoadEnv could not be read.
//
// Failed parses are not cached. In tests, use ResetCache or
// ForceReloadConfig after changing the environment.
package config
