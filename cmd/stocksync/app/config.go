package app

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agentstation/stocksync/internal/config"
	"github.com/agentstation/stocksync/pkg/constants"
	"github.com/agentstation/stocksync/pkg/errors"
)

// Settings holds the process-level CLI settings. The service
// configuration itself lives in config.Config.
type Settings struct {
	ConfigFile string

	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	LogLevel  string
	LogFormat string
	LogOutput string
}

// LoadSettings reads the CLI settings from the environment. Flags parsed
// later take precedence.
func LoadSettings() *Settings {
	loadEnvFiles()
	return &Settings{
		ConfigFile: os.Getenv(constants.EnvPrefix + "_CONFIG"),
		Format:     os.Getenv(constants.EnvPrefix + "_FORMAT"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		LogFormat:  getEnvOrDefault("LOG_FORMAT", "auto"),
		LogOutput:  getEnvOrDefault("LOG_OUTPUT", "stderr"),
	}
}

// UpdateFromFlags applies parsed flag values over the environment.
func (s *Settings) UpdateFromFlags(configFile string, verbose, quiet, noColor bool, format, logLevel string) {
	if configFile != "" {
		s.ConfigFile = configFile
	}
	s.Verbose = verbose
	s.Quiet = quiet
	s.NoColor = noColor
	if format != "" {
		s.Format = format
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
}

// flagKeys maps command flags onto configuration keys.
var flagKeys = map[string]string{
	"host":         "server.host",
	"port":         "server.port",
	"rate-limit":   "server.rate_limit",
	"cors":         "server.cors",
	"cors-origins": "server.cors_origins",
	"metrics":      "server.metrics",
	"mock-vendor":  "server.mock_vendor",
	"cron":         "sync.cron",
	"store-driver": "store.driver",
	"store-dsn":    "store.dsn",
	"redis-addr":   "notify.redis_addr",
}

// LoadConfig builds the service configuration in order of precedence:
//  1. command flags that were set (see flagKeys)
//  2. STOCKSYNC_* environment variables (and .env files)
//  3. the config file (explicit path, or stocksync.yaml in . or
//     $HOME/.config/stocksync)
//  4. defaults
//
// A missing explicit file is an error; a missing default file is not.
// flags may be nil.
func LoadConfig(file string, flags *pflag.FlagSet) (*config.Config, error) {
	v := viper.New()
	v.SetEnvPrefix(constants.EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	config.SetDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.NewConfigError("stocksync", "cannot bind flag --"+name, err)
				}
			}
		}
	}

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.NewConfigError("stocksync", "cannot read "+file, err)
		}
		return config.Load(v)
	}

	v.SetConfigName(constants.ConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "stocksync"))
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("stocksync", "cannot read config file", err)
		}
	}
	return config.Load(v)
}

// loadEnvFiles loads .env then .env.local. Existing variables win.
func loadEnvFiles() {
	for _, f := range []string{".env", ".env.local"} {
		_ = godotenv.Load(f)
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
