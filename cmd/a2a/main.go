package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/a2a-swap/internal/client"
	"github.com/aman-zulfiqar/a2a-swap/internal/config"
	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/rpc"
	"github.com/aman-zulfiqar/a2a-swap/internal/tokens"
	"github.com/aman-zulfiqar/a2a-swap/internal/wallet"
)

func main() {
	root := &cobra.Command{
		Use:          "a2a",
		Short:        "Client for the a2a-swap constant-product AMM",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("rpc", "", "Solana RPC URL (default $SOLANA_RPC_URL)")
	root.PersistentFlags().String("program", "", "program id (default $PROGRAM_ID)")
	root.PersistentFlags().String("tokens-file", "", "extra token symbols, YAML (default $TOKENS_FILE)")
	root.PersistentFlags().String("keypair", "", "signing key: base58, JSON array or keypair path (default $WALLET_PRIVATE_KEY)")
	root.PersistentFlags().Bool("json", false, "print results as JSON")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(simulateCmd(), poolInfoCmd(), myPositionsCmd(), myFeesCmd())
	root.AddCommand(convertCmd(), createPoolCmd(), provideCmd(), removeCmd(), claimFeesCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app is what every subcommand needs, built from env plus flags.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	rpc      *rpc.Client
	client   *client.Client
	registry *tokens.Registry
	asJSON   bool
	keypair  string
}

func newApp(cmd *cobra.Command) (*app, error) {
	_ = godotenv.Load()

	cfg := config.Load()
	if v, _ := cmd.Flags().GetString("rpc"); v != "" {
		cfg.RPCUrl = v
	}
	if v, _ := cmd.Flags().GetString("program"); v != "" {
		cfg.ProgramID = v
	}
	if v, _ := cmd.Flags().GetString("tokens-file"); v != "" {
		cfg.TokensFile = v
	}
	// the CLI never takes payments
	cfg.PaymentEnabled = false
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q", levelName)
	}
	logger.SetLevel(level)

	rpcClient := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.RPCTimeout,
		Commitment:   cfg.Commitment,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})

	registry, err := tokens.NewRegistry(constants.KnownTokens)
	if err != nil {
		return nil, err
	}
	if cfg.TokensFile != "" {
		if err := registry.LoadFile(cfg.TokensFile); err != nil {
			return nil, err
		}
	}

	asJSON, _ := cmd.Flags().GetBool("json")
	keypair, _ := cmd.Flags().GetString("keypair")
	if keypair == "" {
		keypair = cfg.WalletPrivateKey
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		rpc:    rpcClient,
		client: client.New(rpcClient, client.Config{
			ProgramID:          solana.MustPublicKeyFromBase58(cfg.ProgramID),
			DefaultSlippageBps: uint16(cfg.DefaultSlippageBps),
			Logger:             logger,
		}),
		registry: registry,
		asJSON:   asJSON,
		keypair:  keypair,
	}, nil
}

// wallet loads the signing key. Only write commands call it.
func (a *app) wallet() (*wallet.Wallet, error) {
	if a.keypair == "" {
		return nil, fmt.Errorf("a signing key is required: pass --keypair or set WALLET_PRIVATE_KEY")
	}
	return wallet.NewWallet(wallet.WalletConfig{
		PrivateKey: a.keypair,
		Commitment: a.cfg.Commitment,
	}, a.rpc)
}

func (a *app) mint(s string) (solana.PublicKey, error) {
	return a.registry.ResolveString(s)
}

// print writes v as indented JSON, or calls text for the human form.
func (a *app) print(v any, text func()) error {
	if a.asJSON || text == nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text()
	return nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
