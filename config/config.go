package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"foodieconnect/policy"
)

const EnvPrefix = "FOODIE"

type Config struct {
	ServerAddr      string
	ShutdownTimeout time.Duration

	DatastoreEngine string
	DatastoreURI    string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnTimeout     time.Duration

	JWTSecret string
	TokenTTL  time.Duration
	AuthzMode policy.Mode

	GroupWindow    time.Duration
	PersonalWindow time.Duration
	FriendWindow   time.Duration

	UploadDir      string
	AllowedOrigins []string

	AMQPURL      string
	AMQPExchange string

	MetricsEnabled bool
}

// Defaults registers the default value of every key on v.
func Defaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown-timeout", 10*time.Second)

	v.SetDefault("datastore.engine", "mysql")
	v.SetDefault("datastore.uri", "root:root@tcp(localhost:3306)/foodieconnect?charset=utf8mb4&parseTime=True&loc=UTC")
	v.SetDefault("datastore.max-open-conns", 25)
	v.SetDefault("datastore.max-idle-conns", 5)
	v.SetDefault("datastore.conn-timeout", time.Minute)

	v.SetDefault("auth.jwt-secret", "foodieconnect-secret-key-change-in-production")
	v.SetDefault("auth.token-ttl", 30*24*time.Hour)
	v.SetDefault("authz.mode", policy.GroupScoped.String())

	v.SetDefault("feed.group-window", time.Duration(0))
	v.SetDefault("feed.personal-window", 7*24*time.Hour)
	v.SetDefault("feed.friend-window", time.Duration(0))

	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("cors.allowed-origins", "http://localhost:5173,http://localhost:3000")

	v.SetDefault("amqp.url", "")
	v.SetDefault("amqp.exchange", "foodieconnect.events")

	v.SetDefault("metrics.enabled", true)
}

// Init loads .env (if present) and wires environment lookups into v.
// FOODIE_DATASTORE_URI overrides datastore.uri, and so on.
func Init(v *viper.Viper) {
	_ = godotenv.Load()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/foodieconnect")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	Defaults(v)
}

// ReadFile merges config.yaml when one exists.
func ReadFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// Load builds a validated Config from v.
func Load(v *viper.Viper) (*Config, error) {
	mode, err := policy.ParseMode(v.GetString("authz.mode"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerAddr:      v.GetString("server.addr"),
		ShutdownTimeout: v.GetDuration("server.shutdown-timeout"),
		DatastoreEngine: strings.ToLower(v.GetString("datastore.engine")),
		DatastoreURI:    v.GetString("datastore.uri"),
		MaxOpenConns:    v.GetInt("datastore.max-open-conns"),
		MaxIdleConns:    v.GetInt("datastore.max-idle-conns"),
		ConnTimeout:     v.GetDuration("datastore.conn-timeout"),
		JWTSecret:       v.GetString("auth.jwt-secret"),
		TokenTTL:        v.GetDuration("auth.token-ttl"),
		AuthzMode:       mode,
		GroupWindow:     v.GetDuration("feed.group-window"),
		PersonalWindow:  v.GetDuration("feed.personal-window"),
		FriendWindow:    v.GetDuration("feed.friend-window"),
		UploadDir:       v.GetString("upload.dir"),
		AllowedOrigins:  splitList(v.GetString("cors.allowed-origins")),
		AMQPURL:         v.GetString("amqp.url"),
		AMQPExchange:    v.GetString("amqp.exchange"),
		MetricsEnabled:  v.GetBool("metrics.enabled"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatastoreEngine {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unknown datastore engine: %q", c.DatastoreEngine)
	}
	if c.DatastoreURI == "" {
		return errors.New("datastore uri is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt secret is required")
	}
	if c.TokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if c.GroupWindow < 0 || c.PersonalWindow < 0 || c.FriendWindow < 0 {
		return errors.New("feed windows must not be negative")
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
