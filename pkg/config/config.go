package config

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server ServerConfig
	DB     DBConfig
	Redis  RedisConfig
	Chat   ChatConfig
	Auth   AuthConfig
	Log    LogConfig
}

type ServerConfig struct {
	Address string
}

type DBConfig struct {
	Driver   string // "postgres" or "memory"
	Host     string
	User     string
	Password string
	Name     string
	Port     int
	SSLMode  string `mapstructure:"sslmode"`
	TimeZone string `mapstructure:"timezone"`
}

// RedisConfig enables cross-process room fan-out when Enabled is set.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
	PoolSize int    `mapstructure:"pool_size"`
	Channel  string // pub/sub channel shared by every chat process
}

type ChatConfig struct {
	AutoReplyDelay   time.Duration `mapstructure:"auto_reply_delay"`
	AutoReplyMessage string        `mapstructure:"auto_reply_message"`
	HistoryLimit     int           `mapstructure:"history_limit"`
	HelpNotice       string        `mapstructure:"help_notice"`
}

// AuthConfig controls the optional connection identity. With Required unset,
// sockets without a token fall back to client-declared identities.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Required  bool
}

type LogConfig struct {
	Level       string
	Development bool
}

// SetDefaults registers a default for every key so the service starts without a config file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":3000")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.name", "im_chat")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Bangkok")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.channel", "imchat:rooms")

	v.SetDefault("chat.auto_reply_delay", time.Second)
	v.SetDefault("chat.auto_reply_message", "Hello! I am Khun Preaw. How can I help you today?")
	v.SetDefault("chat.history_limit", 50)
	v.SetDefault("chat.help_notice", "User requested help!")

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.required", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
}

func Load() (*Config, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if path := os.Getenv("IMCHAT_CONFIG_PATH"); path != "" {
		v.AddConfigPath(path)
	}
	v.AddConfigPath("./pkg/config")

	v.SetEnvPrefix("IMCHAT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// a missing file is fine, defaults and env cover every key
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
