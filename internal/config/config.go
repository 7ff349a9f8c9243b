package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	App        AppConfig
	Chain      ChainConfig
	TweetScout TweetScoutConfig
	Identity   IdentityConfig
	Processor  ProcessorConfig
	Faucet     FaucetConfig
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
	JWTSecret          string
	ReplyPollInterval  time.Duration
	InitialUserBalance string
}

// ChainConfig holds blockchain RPC settings
type ChainConfig struct {
	RPCURL           string
	ChainID          int64
	TokenAddress     string
	SignerPrivateKey string
}

// TweetScoutConfig holds tweet-metadata/scoring API settings
type TweetScoutConfig struct {
	APIKey  string
	BaseURL string
}

// IdentityConfig holds identity-provider settings
type IdentityConfig struct {
	VerifyURL string
	AppSecret string
}

// ProcessorConfig holds the external reply-processor settings
type ProcessorConfig struct {
	URL    string
	APIKey string
}

// FaucetConfig holds faucet settings
type FaucetConfig struct {
	Amount            string
	RequestsPerMinute int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "buzz"),
		},
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
		},
		App: AppConfig{
			JWTSecret:          getEnv("JWT_SECRET", ""),
			ReplyPollInterval:  getEnvDuration("REPLY_POLL_INTERVAL", 5*time.Second),
			InitialUserBalance: getEnv("INITIAL_USER_BALANCE", "0"),
		},
		Chain: ChainConfig{
			RPCURL:           getEnv("CHAIN_RPC_URL", ""),
			ChainID:          getEnvInt64("CHAIN_ID", 8453),
			TokenAddress:     getEnv("TOKEN_CONTRACT_ADDRESS", ""),
			SignerPrivateKey: getEnv("SIGNER_PRIVATE_KEY", ""),
		},
		TweetScout: TweetScoutConfig{
			APIKey:  getEnv("TWEETSCOUT_API_KEY", ""),
			BaseURL: getEnv("TWEETSCOUT_BASE_URL", ""),
		},
		Identity: IdentityConfig{
			VerifyURL: getEnv("IDENTITY_VERIFY_URL", ""),
			AppSecret: getEnv("IDENTITY_APP_SECRET", ""),
		},
		Processor: ProcessorConfig{
			URL:    getEnv("REPLY_PROCESSOR_URL", ""),
			APIKey: getEnv("REPLY_PROCESSOR_API_KEY", ""),
		},
		Faucet: FaucetConfig{
			Amount:            getEnv("FAUCET_AMOUNT", "100"),
			RequestsPerMinute: int(getEnvInt64("FAUCET_REQUESTS_PER_MINUTE", 1)),
		},
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
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

// getEnvInt64 gets an integer environment variable with a fallback default value
func getEnvInt64(key string, defaultValue int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return defaultValue
	}
	return n
}

// getEnvDuration gets a duration environment variable with a fallback default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}
