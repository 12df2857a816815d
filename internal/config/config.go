package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
)

type Config struct {
	// RPC settings
	RPCUrl       string
	ProgramID    string
	RPCTimeout   time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
	Commitment   string

	// API server
	APIAddr   string
	APIKey    string
	DevMode   bool
	PublicURL string

	// Swaps
	TokensFile         string
	DefaultSlippageBps int

	// Payment gate
	PaymentEnabled    bool
	FacilitatorURL    string
	PaymentNetwork    string
	PaymentAsset      string
	PaymentPayTo      string
	PaymentAmount     string
	PaymentMaxTimeout int
	PaymentFeePayer   string
	VerifyTimeout     time.Duration
	SettleTimeout     time.Duration
	SettleRetryAfter  time.Duration

	// Redis settings (receipt store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	ReceiptTTL    time.Duration

	// ClickHouse settings (conversion audit)
	ClickHouseAddr     string
	ClickHouseDatabase string
	ClickHouseUsername string
	ClickHousePassword string

	// CLI
	WalletPrivateKey   string
	ApprovalWebhookURL string
}

func Load() *Config {
	return &Config{
		// RPC
		RPCUrl:       getEnv("SOLANA_RPC_URL", "https://api.mainnet-beta.solana.com"),
		ProgramID:    getEnv("PROGRAM_ID", constants.DefaultProgramID),
		RPCTimeout:   getDurationEnv("RPC_TIMEOUT", 10*time.Second),
		MaxRetries:   getIntEnv("MAX_RETRIES", 0),
		RetryBackoff: getDurationEnv("RETRY_BACKOFF", 500*time.Millisecond),
		Commitment:   getEnv("COMMITMENT", "confirmed"),

		// API
		APIAddr:   getEnv("API_ADDR", ":8090"),
		APIKey:    getEnv("API_KEY", ""),
		DevMode:   getBoolEnv("DEV_MODE", false),
		PublicURL: getEnv("PUBLIC_URL", ""),

		// Swaps
		TokensFile:         getEnv("TOKENS_FILE", ""),
		DefaultSlippageBps: getIntEnv("DEFAULT_SLIPPAGE_BPS", constants.DefaultSlippageBps),

		// Payment
		PaymentEnabled:    getBoolEnv("PAYMENT_ENABLED", true),
		FacilitatorURL:    getEnv("FACILITATOR_URL", "https://x402.org/facilitator"),
		PaymentNetwork:    getEnv("PAYMENT_NETWORK", "solana"),
		PaymentAsset:      getEnv("PAYMENT_ASSET", constants.USDCMint),
		PaymentPayTo:      getEnv("PAYMENT_PAY_TO", ""),
		PaymentAmount:     getEnv("PAYMENT_AMOUNT", "1000"),
		PaymentMaxTimeout: getIntEnv("PAYMENT_MAX_TIMEOUT_SECONDS", 60),
		PaymentFeePayer:   getEnv("PAYMENT_FEE_PAYER", ""),
		VerifyTimeout:     getDurationEnv("VERIFY_TIMEOUT", constants.DefaultVerifyTimeout),
		SettleTimeout:     getDurationEnv("SETTLE_TIMEOUT", constants.DefaultSettleTimeout),
		SettleRetryAfter:  getDurationEnv("SETTLE_RETRY_AFTER", constants.DefaultSettleRetryHint),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getIntEnv("REDIS_DB", 0),
		ReceiptTTL:    getDurationEnv("RECEIPT_TTL", 24*time.Hour),

		// ClickHouse
		ClickHouseAddr:     getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDatabase: getEnv("CLICKHOUSE_DATABASE", "a2a"),
		ClickHouseUsername: getEnv("CLICKHOUSE_USERNAME", ""),
		ClickHousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),

		// CLI
		WalletPrivateKey:   getEnv("WALLET_PRIVATE_KEY", ""),
		ApprovalWebhookURL: getEnv("APPROVAL_WEBHOOK_URL", ""),
	}
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.RPCUrl) == "" {
		errs = append(errs, errors.New("SOLANA_RPC_URL is required"))
	}
	if _, err := solana.PublicKeyFromBase58(c.ProgramID); err != nil {
		errs = append(errs, fmt.Errorf("PROGRAM_ID: %w", err))
	}
	if c.RPCTimeout <= 0 {
		errs = append(errs, errors.New("RPC_TIMEOUT must be positive"))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, errors.New("MAX_RETRIES must not be negative"))
	}
	switch c.Commitment {
	case "processed", "confirmed", "finalized":
	default:
		errs = append(errs, fmt.Errorf("COMMITMENT %q must be processed, confirmed or finalized", c.Commitment))
	}
	if c.DefaultSlippageBps < 1 || c.DefaultSlippageBps > constants.BpsDenominator {
		errs = append(errs, fmt.Errorf("DEFAULT_SLIPPAGE_BPS must be within 1..%d", constants.BpsDenominator))
	}
	if c.PaymentEnabled {
		if strings.TrimSpace(c.PaymentPayTo) == "" {
			errs = append(errs, errors.New("PAYMENT_PAY_TO is required when PAYMENT_ENABLED"))
		}
		if n, err := strconv.ParseUint(c.PaymentAmount, 10, 64); err != nil || n == 0 {
			errs = append(errs, errors.New("PAYMENT_AMOUNT must be a positive integer in atomic units"))
		}
		if c.SettleTimeout <= 0 {
			errs = append(errs, errors.New("SETTLE_TIMEOUT must be positive"))
		}
	}
	return errors.Join(errs...)
}

// Network names the cluster the RPC URL points at, for display.
func (c *Config) Network() string {
	u := strings.ToLower(c.RPCUrl)
	switch {
	case strings.Contains(u, "devnet"):
		return "devnet"
	case strings.Contains(u, "testnet"):
		return "testnet"
	case strings.Contains(u, "mainnet"):
		return "mainnet-beta"
	case strings.Contains(u, "localhost"), strings.Contains(u, "127.0.0.1"):
		return "localnet"
	}
	return "custom"
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getDurationEnv(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

func getBoolEnv(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
