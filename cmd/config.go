package main

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
	Host                 string        `env:"HOST,default=localhost"`
	Port                 int           `env:"PORT,default=8080"`
	DebugPort            int           `env:"DEBUG_PORT"`
}
