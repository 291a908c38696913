package config

import (
	"time"

	"github.com/spf13/cast"
)

const (
	gatewayURLVar     = "GATEWAY_URL"
	requestTimeoutVar = "REQUEST_TIMEOUT"
)

type Gateway struct{}

var _ GatewayConfig = Gateway{}

// GetGatewayBaseURL returns the base URL of the remote catalog gateway,
// e.g. "http://localhost:3001/api".
func (Gateway) GetGatewayBaseURL() string {
	return GetEnv(gatewayURLVar, "http://localhost:3001/api")
}

func (Gateway) GetRequestTimeout() string {
	return GetEnv(requestTimeoutVar, "15s")
}

// RequestTimeout parses the configured timeout, falling back to 15s on
// unparsable values.
func RequestTimeout(c GatewayConfig) time.Duration {
	d, err := time.ParseDuration(c.GetRequestTimeout())
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

type Scanner struct{}

var _ ScannerConfig = Scanner{}

// GetScannerFPS returns the decode sampling rate in frames per second
// (default 10).
func (Scanner) GetScannerFPS() int {
	fps := cast.ToInt(GetEnv("SCANNER_FPS", "10"))
	if fps <= 0 {
		return 10
	}
	return fps
}

func (Scanner) GetScannerRegion() string {
	return GetEnv("SCANNER_REGION", "default")
}
