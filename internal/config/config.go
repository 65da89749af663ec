package config

import (
	"errors"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server      ServerConfig
	MongoDB     MongoDBConfig
	JWT         JWTConfig
	Raffle      RaffleConfig
	TokenLedger TokenLedgerConfig
	Oracle      OracleConfig
	Admin       AdminConfig
	LogLevel    string
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port         string
	AllowedHosts []string
}

// MongoDBConfig holds MongoDB-specific configuration
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds JWT-specific configuration
type JWTConfig struct {
	Secret    string
	ExpiresIn int // seconds
}

// RaffleConfig holds the ledger-wide raffle settings
type RaffleConfig struct {
	Owner        string
	FeeBps       uint64
	FeeCollector string
}

// TokenLedgerConfig holds token ledger service configuration
type TokenLedgerConfig struct {
	BaseURL        string
	APIKey         string
	CustodyAccount string
	Mock           bool
}

// OracleConfig holds randomness oracle service configuration
type OracleConfig struct {
	BaseURL        string
	APIKey         string
	CallbackURL    string
	CallbackSecret string
	Mock           bool
}

// AdminConfig holds the seed operator account created at startup
type AdminConfig struct {
	Email    string
	Password string
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// It's okay if config file is not found, we'll use environment variables
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	// Unmarshal configuration
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT.Secret must be configured")
	}
	if !config.Oracle.Mock && config.Oracle.CallbackSecret == "" {
		return nil, errors.New("Oracle.CallbackSecret must be configured when the oracle is not mocked")
	}

	return &config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	viper.SetDefault("Server.Port", "4000")
	viper.SetDefault("Server.AllowedHosts", []string{"localhost:3000"})
	viper.SetDefault("MongoDB.URI", "mongodb://localhost:27017")
	viper.SetDefault("MongoDB.Database", "tickethaus")
	viper.SetDefault("JWT.ExpiresIn", 24*60*60) // 24 hours
	viper.SetDefault("LogLevel", "info")
	viper.SetDefault("Raffle.Owner", "operator")
	viper.SetDefault("Raffle.FeeBps", 250)
	viper.SetDefault("Raffle.FeeCollector", "treasury")
	viper.SetDefault("TokenLedger.CustodyAccount", "raffle-custody")
	viper.SetDefault("TokenLedger.Mock", true)
	viper.SetDefault("Oracle.Mock", true)
}
