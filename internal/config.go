package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host     string `env:"HOST,default=localhost"`
	Port     int    `env:"PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=INFO"`

	BadgerFilepath   string        `env:"BADGER_FILEPATH,required=true"`
	RetentionWindow  time.Duration `env:"RETENTION_WINDOW,default=24h"`
	SnapshotInterval time.Duration `env:"SNAPSHOT_INTERVAL,default=5m"`
	SweepInterval    time.Duration `env:"SWEEP_INTERVAL,default=1h"`
	PersistTimeout   time.Duration `env:"PERSIST_TIMEOUT,default=5s"`

	MetricInterval  time.Duration `env:"METRIC_INTERVAL,default=30s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=1s"`

	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=64"`
	KeepAliveInterval    time.Duration `env:"KEEP_ALIVE_INTERVAL,default=15s"`

	MaxSessionsPerDevice int     `env:"MAX_SESSIONS_PER_DEVICE,default=0"`
	SendRatePerSecond    float64 `env:"SEND_RATE_PER_SECOND,default=0"`
	SendBurst            int     `env:"SEND_BURST,default=1"`

	CensoredWordsFile string `env:"CENSORED_WORDS_FILE"`
	CharReplacement   string `env:"CHARACTER_REPLACEMENT,default=*"`

	DebugPort int `env:"DEBUG_PORT,default=8081"`
}

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

// Validate rejects values that would make the relay misbehave at runtime.
func (c Config) Validate() error {
	switch {
	case c.RetentionWindow <= 0:
		return fmt.Errorf("RETENTION_WINDOW must be positive, got %s", c.RetentionWindow)
	case c.SnapshotInterval <= 0 || c.SweepInterval <= 0 || c.MetricInterval <= 0:
		return fmt.Errorf("SNAPSHOT_INTERVAL, SWEEP_INTERVAL and METRIC_INTERVAL must be positive")
	case c.BufferSize <= 0 || c.ConnectionBufferSize <= 0:
		return fmt.Errorf("BUFFER_SIZE and CONNECTION_BUFFER_SIZE must be positive")
	case c.MaxSessionsPerDevice < 0 || c.SendRatePerSecond < 0:
		return fmt.Errorf("MAX_SESSIONS_PER_DEVICE and SEND_RATE_PER_SECOND cannot be negative")
	}
	return nil
}
