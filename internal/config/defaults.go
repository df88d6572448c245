package config

const (
	defaultConfigPath     = "~/.config/optflow/config.toml"
	projectConfigName     = "optflow.toml"
	defaultOptDir         = "~/.local/share/optflow/opts"
	defaultHistoryPath    = "~/.local/share/optflow/history.db"
	defaultEditor         = "vim"
	defaultRunner         = "python3"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultDebounceMillis = 300
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OptDir: defaultOptDir,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Watch: Watch{
			DebounceMillis: defaultDebounceMillis,
		},
	}
}
