package redis

import "time"

// Config describes the optional remote cache connection.
// An empty ConnectionURL disables the remote tier.
type Config struct {
	ConnectionURL    string        `env:"REDIS_URL"`                                  // ConnectionURL is the URL of the database, e.g. "redis://:password@localhost:6379/0".
	RetryAttempts    int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`        // RetryAttempts is the number of connection attempts.
	RetryInterval    time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"1s"`       // RetryInterval is the pause between connection attempts.
	ConnectTimeout   time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"5s"`      // ConnectTimeout bounds Connect as a whole, retries included.
	OperationTimeout time.Duration `env:"REDIS_OPERATION_TIMEOUT" envDefault:"250ms"` // OperationTimeout bounds every Storage call.
	KeyPrefix        string        `env:"REDIS_KEY_PREFIX" envDefault:"styledoc:cache:"`
	ScanBatchSize    int           `env:"REDIS_SCAN_BATCH_SIZE" envDefault:"1000"`
}

// Enabled reports whether a connection URL is configured.
func (c Config) Enabled() bool {
	return c.ConnectionURL != ""
}
