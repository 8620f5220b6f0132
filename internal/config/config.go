package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverDapr     = "dapr"
	DriverMemory   = "memory"
)

type Settings struct {
	Application ApplicationSettings `mapstructure:"application"`
	Database    DatabaseSettings    `mapstructure:"database"`
	Telemetry   TelemetrySettings   `mapstructure:"telemetry"`
}

type ApplicationSettings struct {
	Host    string `mapstructure:"host" validate:"required"`
	Port    int    `mapstructure:"port" validate:"min=0,max=65535"`
	Name    string `mapstructure:"name" validate:"required"`
	Version string `mapstructure:"version"`
	GinMode string `mapstructure:"gin_mode" validate:"omitempty,oneof=debug release test"`
}

// Address is the host:port the HTTP listener binds to.
func (a ApplicationSettings) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

type DatabaseSettings struct {
	Driver          string        `mapstructure:"driver" validate:"oneof=postgres dapr memory"`
	Host            string        `mapstructure:"host" validate:"required_if=Driver postgres"`
	Port            int           `mapstructure:"port" validate:"min=0,max=65535"`
	Username        string        `mapstructure:"username" validate:"required_if=Driver postgres"`
	Password        Secret        `mapstructure:"password"`
	DatabaseName    string        `mapstructure:"database_name" validate:"required_if=Driver postgres"`
	SSLMode         string        `mapstructure:"ssl_mode" validate:"oneof=disable allow prefer require verify-ca verify-full"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"min=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"min=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	DaprStore       string        `mapstructure:"dapr_store" validate:"required_if=Driver dapr"`
}

// ConnectionString targets DatabaseName on the configured server.
func (d DatabaseSettings) ConnectionString() Secret {
	return Secret(d.ConnectionStringWithoutDB().Expose() + " dbname=" + quoteConnValue(d.DatabaseName))
}

// ConnectionStringWithoutDB targets the server itself, e.g. to issue CREATE DATABASE.
func (d DatabaseSettings) ConnectionStringWithoutDB() Secret {
	return Secret(fmt.Sprintf("host=%s port=%d user=%s password=%s sslmode=%s",
		quoteConnValue(d.Host), d.Port, quoteConnValue(d.Username),
		quoteConnValue(d.Password.Expose()), quoteConnValue(d.SSLMode)))
}

var connValueEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// quoteConnValue wraps a libpq keyword value in single quotes so empty values
// and values with spaces survive parsing.
func quoteConnValue(s string) string {
	return "'" + connValueEscaper.Replace(s) + "'"
}

type TelemetrySettings struct {
	LogLevel      string `mapstructure:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
	LogFormat     string `mapstructure:"log_format" validate:"oneof=json text"`
	TraceExporter string `mapstructure:"trace_exporter" validate:"oneof=stdout none"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("application.host", "127.0.0.1")
	v.SetDefault("application.port", 8000)
	v.SetDefault("application.name", "newsletter")
	v.SetDefault("application.version", "0.1.0")
	v.SetDefault("application.gin_mode", "")

	v.SetDefault("database.driver", DriverPostgres)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.username", "postgres")
	v.SetDefault("database.password", "password")
	v.SetDefault("database.database_name", "newsletter")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 25)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)
	v.SetDefault("database.dapr_store", "statestore")

	v.SetDefault("telemetry.log_level", "info")
	v.SetDefault("telemetry.log_format", "json")
	v.SetDefault("telemetry.trace_exporter", "stdout")
}

// Load reads configuration.yaml (if any) from the working directory, ./configuration
// or $APP_CONFIG_DIR, then applies APP_* environment overrides.
func Load() (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetConfigName("configuration")
	v.SetConfigType("yaml")
	if dir := os.Getenv("APP_CONFIG_DIR"); dir != "" {
		v.AddConfigPath(dir)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./configuration")

	return load(v)
}

// LoadFile reads settings from an explicit yaml file, still honouring APP_* overrides.
func LoadFile(path string) (*Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	return load(v)
}

func load(v *viper.Viper) (*Settings, error) {
	setDefaults(v)
	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	if err := validator.New().Struct(&settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &settings, nil
}
