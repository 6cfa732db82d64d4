package config

type Config interface {
	EnvConfig
	APIConfig
	PaymentConfig
}

type EnvConfig interface {
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
}

type mainConfig struct {
	EnvVars
	API
	Payment
}

func New() Config {
	return mainConfig{}
}
