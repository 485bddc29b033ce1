package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
)

// Config is the top-level configuration for the sensor. It replaces the
// module-level globals of older honeypot setups (paths, ports, host
// key location) with one explicit struct handed to each component at
// construction. Tags map YAML keys to struct fields.
type Config struct {
	LogLevel    string        `mapstructure:"log_level"`
	DataDir     string        `mapstructure:"data_dir"`
	AdminPort   string        `mapstructure:"admin_port"`
	GracePeriod time.Duration `mapstructure:"grace_period"`

	SSH    SSHConfig     `mapstructure:"ssh"`
	FTP    ServiceConfig `mapstructure:"ftp"`
	Telnet ServiceConfig `mapstructure:"telnet"`
	Web    ServiceConfig `mapstructure:"web"`

	Enrich EnrichConfig `mapstructure:"enrich"`
}

// ServiceConfig is shared by every emulated endpoint. MaxSessions of 0
// means unbounded, one goroutine per connection.
type ServiceConfig struct {
	Listen      string        `mapstructure:"listen"`
	MaxSessions int           `mapstructure:"max_sessions"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// SSHConfig adds the transport-specific knobs on top of ServiceConfig.
type SSHConfig struct {
	ServiceConfig    `mapstructure:",squash"`
	HostKeyPath      string        `mapstructure:"host_key_path"`
	HandshakeTimeout time.Duration `mapstructure:"handshake_timeout"`
	ChannelWindow    time.Duration `mapstructure:"channel_window"`
}

// EnrichConfig drives the geolocation cache refresh.
type EnrichConfig struct {
	CachePath  string        `mapstructure:"cache_path"`
	APIBaseURL string        `mapstructure:"api_base_url"`
	Delay      time.Duration `mapstructure:"delay"`
}

// Loader owns the viper instance so the same source can be re-read on
// file change.
type Loader struct {
	v *viper.Viper
}

// NewLoader prepares a loader. path may be empty, in which case
// config.yaml is searched in the working directory and /etc/decoynet/.
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/decoynet/")
	}

	v.SetDefault("log_level", "info")
	v.SetDefault("data_dir", "logs")
	v.SetDefault("admin_port", "8081")
	v.SetDefault("grace_period", "5s")

	v.SetDefault("ssh.listen", ":2222")
	v.SetDefault("ssh.max_sessions", 0)
	v.SetDefault("ssh.idle_timeout", "5m")
	v.SetDefault("ssh.host_key_path", "config/server.key")
	v.SetDefault("ssh.handshake_timeout", "30s")
	v.SetDefault("ssh.channel_window", "10s")

	v.SetDefault("ftp.listen", ":2121")
	v.SetDefault("ftp.max_sessions", 0)
	v.SetDefault("ftp.idle_timeout", "5m")

	v.SetDefault("telnet.listen", ":2323")
	v.SetDefault("telnet.max_sessions", 0)
	v.SetDefault("telnet.idle_timeout", "5m")

	v.SetDefault("web.listen", ":8080")
	v.SetDefault("web.max_sessions", 0)
	v.SetDefault("web.idle_timeout", "0")

	v.SetDefault("enrich.cache_path", "logs/geolocation.json")
	v.SetDefault("enrich.api_base_url", "http://ip-api.com/json")
	v.SetDefault("enrich.delay", "1s")

	v.SetEnvPrefix("DECOYNET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Loader{v: v}
}

// Load reads the configuration file, falling back to defaults and
// environment variables when the file is absent.
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Watch re-reads the configuration whenever the file changes and hands
// the result to onChange. Only settings consumed live (log level) take
// effect without a restart; listener ports are bound once.
func (l *Loader) Watch(logger zerolog.Logger, onChange func(*Config)) {
	l.v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info().Str("file", e.Name).Msg("Configuration file changed, reloading")
		var cfg Config
		if err := l.v.Unmarshal(&cfg); err != nil {
			logger.Error().Err(err).Msg("Reload failed, keeping previous configuration")
			return
		}
		onChange(&cfg)
	})
	l.v.WatchConfig()
}
