package config

type Config interface {
	EnvConfig
	GatewayConfig
	ScannerConfig
}

type GatewayConfig interface {
	GetGatewayBaseURL() string
	GetRequestTimeout() string
}

type ScannerConfig interface {
	GetScannerFPS() int
	GetScannerRegion() string
}

type mainConfig struct {
	EnvVars
	Gateway
	Scanner
}

func New() Config {
	loadDotEnv()
	return mainConfig{}
}
