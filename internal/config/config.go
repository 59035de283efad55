package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Solana   SolanaConfig
	Platform PlatformConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret string
}

// SolanaConfig holds token ledger settings
type SolanaConfig struct {
	Network                 string
	TokenMintAddress        string
	CustodyWalletPrivateKey string
	LedgerBackend           string // "solana" or "memory" (local development)
}

// PlatformConfig holds settlement engine settings
type PlatformConfig struct {
	FeeBasisPoints uint64
	ResolverPolicy string // "open" (reference behavior) or "admin"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	feeBps, err := strconv.ParseUint(getEnv("PLATFORM_FEE_BPS", "200"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid PLATFORM_FEE_BPS: %w", err)
	}

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "film_bet"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Solana: SolanaConfig{
			Network:                 getEnv("SOLANA_NETWORK", "devnet"),
			TokenMintAddress:        getEnv("TOKEN_MINT_ADDRESS", ""),
			CustodyWalletPrivateKey: getEnv("CUSTODY_WALLET_PRIVATE_KEY", ""),
			LedgerBackend:           getEnv("LEDGER_BACKEND", "memory"),
		},
		Platform: PlatformConfig{
			FeeBasisPoints: feeBps,
			ResolverPolicy: getEnv("RESOLVER_POLICY", "open"),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if config.Platform.FeeBasisPoints > 1000 {
		return nil, fmt.Errorf("PLATFORM_FEE_BPS must not exceed 1000 (10%%)")
	}

	if config.Solana.LedgerBackend == "solana" {
		if config.Solana.TokenMintAddress == "" || config.Solana.CustodyWalletPrivateKey == "" {
			return nil, fmt.Errorf("TOKEN_MINT_ADDRESS and CUSTODY_WALLET_PRIVATE_KEY are required for the solana ledger backend")
		}
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
