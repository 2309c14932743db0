package config

const (
	// DefaultServerName is reported to clients during initialization.
	DefaultServerName = "glmcp"

	DefaultHost = "localhost"
	DefaultPort = 8090
)

// GetDefaultConfig returns the default configuration.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Name:      DefaultServerName,
			Transport: TransportStdio,
			Host:      DefaultHost,
			Port:      DefaultPort,
		},
		LogLevel:  "info",
		LogFormat: "text",
	}
}
