package internal

import "time"

type Config struct {
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	OutboundBufferSize   int           `env:"OUTBOUND_BUFFER_SIZE,required=true"`
	InboundBufferSize    int           `env:"INBOUND_BUFFER_SIZE,required=true"`
	IdleTimeout          time.Duration `env:"IDLE_TIMEOUT,required=true"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,required=true"`
	BadgerFilepath       string        `env:"BADGER_FILEPATH,required=true"`
	RedisAddr            string        `env:"REDIS_ADDR"`
	LogLevel             string        `env:"LOG_LEVEL,required=true"`
	Host                 string        `env:"HOST,required=true"`
	Port                 int           `env:"PORT,required=true"`
	DebugPort            int           `env:"DEBUG_PORT"`
}

// UsesRedis reports whether the shared bus should back the broadcaster.
// Without an address the process runs on the in-memory loopback bus.
func (c Config) UsesRedis() bool {
	return c.RedisAddr != ""
}
