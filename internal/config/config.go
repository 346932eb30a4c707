package config

import (
	"github.com/spf13/viper"
)

// Config holds all configuration for the engine
type Config struct {
	MongoDB  MongoDBConfig
	Engine   EngineConfig
	Notifier NotifierConfig
	LogLevel string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
	// Connect and ping deadline, in seconds
	ConnectTimeoutSeconds int
}

// EngineConfig holds reward-engine tunables
type EngineConfig struct {
	// How often the expiration sweep runs, in seconds
	SweepIntervalSeconds int
	// Batch ceiling per sweep run
	SweepBatchSize int
	// Fallback collectable lifetime for winnings of prizes that do not
	// configure their own, in days
	DefaultWinningValidityDays int
}

// NotifierConfig holds notification gateway configuration
type NotifierConfig struct {
	BaseURL string
	APIKey  string
	Mock    bool
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		// Config file is optional, environment variables still apply
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "fitspin-rewards")
	viper.SetDefault("MongoDB.ConnectTimeoutSeconds", 10)
	viper.SetDefault("Engine.SweepIntervalSeconds", 300)
	viper.SetDefault("Engine.SweepBatchSize", 500)
	viper.SetDefault("Engine.DefaultWinningValidityDays", 30)
	viper.SetDefault("Notifier.Mock", true)
	viper.SetDefault("LogLevel", "info")
}
