package constants

import "time"

const (
	SeasonLoadConcurrency = 4
	SeasonLoadTimeout     = 30 * time.Second
)

const (
	RequestTimeout    = 10 * time.Second
	ReadHeaderTimeout = 5 * time.Second
	ShutdownTimeout   = 5 * time.Second
)

const (
	RequestIDHeader = "X-Request-ID"
)
