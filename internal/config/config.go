/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables (with an
 * optional .env file), providing a centralized way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the banking-service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort            string `mapstructure:"SERVER_PORT"`
	DatabaseURL           string `mapstructure:"DATABASE_URL"`
	DBUser                string `mapstructure:"DB_USER"`
	DBPassword            string `mapstructure:"DB_PASSWORD"`
	DBHost                string `mapstructure:"DB_HOST"`
	DBName                string `mapstructure:"DB_NAME"`
	DBConnectAttempts     int    `mapstructure:"DB_CONNECT_ATTEMPTS"`
	DBConnectDelaySeconds int    `mapstructure:"DB_CONNECT_DELAY_SECONDS"`
	SessionSecret         string `mapstructure:"SESSION_SECRET"`
	SessionTTLMinutes     int    `mapstructure:"SESSION_TTL_MINUTES"`
	RedisURL              string `mapstructure:"REDIS_URL"`
	LoginRateLimitPerMin  int    `mapstructure:"LOGIN_RATE_LIMIT_PER_MINUTE"`
	RabbitMQURL           string `mapstructure:"RABBITMQ_URL"`
	AllowedOrigins        string `mapstructure:"ALLOWED_ORIGINS"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DB_CONNECT_ATTEMPTS", 10)
	viper.SetDefault("DB_CONNECT_DELAY_SECONDS", 5)
	viper.SetDefault("SESSION_TTL_MINUTES", 60)
	viper.SetDefault("LOGIN_RATE_LIMIT_PER_MINUTE", 10)
	viper.SetDefault("ALLOWED_ORIGINS", "*")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("DB_USER")
	_ = viper.BindEnv("DB_PASSWORD")
	_ = viper.BindEnv("DB_HOST")
	_ = viper.BindEnv("DB_NAME")
	_ = viper.BindEnv("DB_CONNECT_ATTEMPTS")
	_ = viper.BindEnv("DB_CONNECT_DELAY_SECONDS")
	_ = viper.BindEnv("SESSION_SECRET")
	_ = viper.BindEnv("SESSION_TTL_MINUTES")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("LOGIN_RATE_LIMIT_PER_MINUTE")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("ALLOWED_ORIGINS")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Warning: Error reading config file: %s", err)
		}
	}

	if err := viper.Unmarshal(&config); err != nil {
		return config, err
	}

	return config, nil
}

// AllowedOriginList splits ALLOWED_ORIGINS into individual origins, trimming
// the whitespace a value like "a.com, b.com" carries and dropping empties.
func (c Config) AllowedOriginList() []string {
	origins := []string{}
	for _, origin := range strings.Split(c.AllowedOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// ResolveDatabaseURL returns DATABASE_URL when set, otherwise assembles a DSN
// from the discrete DB_USER / DB_PASSWORD / DB_HOST / DB_NAME variables.
func (c Config) ResolveDatabaseURL() (string, error) {
	if strings.TrimSpace(c.DatabaseURL) != "" {
		return c.DatabaseURL, nil
	}
	if c.DBUser == "" || c.DBHost == "" || c.DBName == "" {
		return "", fmt.Errorf("database connection not configured: set DATABASE_URL or DB_USER/DB_PASSWORD/DB_HOST/DB_NAME")
	}
	// Credentials may contain URL metacharacters (@, /, #); escape them so the
	// assembled DSN stays parsable.
	return fmt.Sprintf("postgres://%s:%s@%s/%s",
		url.QueryEscape(c.DBUser), url.QueryEscape(c.DBPassword), c.DBHost, c.DBName), nil
}
