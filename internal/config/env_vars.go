package config

import (
	"fmt"
	"strings"
)

const (
	devEnv  = "DEV"
	prodEnv = "PROD"
)

type EnvVars struct {
	Port        string `env:"PORT" envDefault:"5001"`
	AppName     string `env:"APP_NAME" envDefault:"fb-ads-gateway"`
	Environment string `env:"ENV" envDefault:"PROD"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port == "" {
		port = "5001"
	}
	if !strings.HasPrefix(port, ":") {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Environment == "" {
		return prodEnv
	}
	return strings.ToUpper(e.Environment)
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

func (e EnvVars) IsDev() bool {
	return e.GetEnv() == devEnv
}
