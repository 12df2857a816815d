package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/a2a-swap/internal/approval"
	"github.com/aman-zulfiqar/a2a-swap/internal/cache"
	"github.com/aman-zulfiqar/a2a-swap/internal/client"
	"github.com/aman-zulfiqar/a2a-swap/internal/constants"
	"github.com/aman-zulfiqar/a2a-swap/internal/wallet"
)

func convertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert <in> <out> <amount>",
		Short: "Swap tokens through the pool for the pair",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			mintIn, err := a.mint(args[0])
			if err != nil {
				return err
			}
			mintOut, err := a.mint(args[1])
			if err != nil {
				return err
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			w, err := a.wallet()
			if err != nil {
				return err
			}

			mode, _ := cmd.Flags().GetString("approval-mode")
			mode = strings.ToLower(strings.TrimSpace(mode))
			webhookURL, _ := cmd.Flags().GetString("webhook-url")
			if webhookURL == "" {
				webhookURL = a.cfg.ApprovalWebhookURL
			}
			maxAmount, _ := cmd.Flags().GetUint64("max-amount")
			dailyLimit, _ := cmd.Flags().GetUint64("daily-limit")
			maxImpact, _ := cmd.Flags().GetFloat64("max-impact")
			allow, _ := cmd.Flags().GetStringSlice("allow-tokens")

			ctx, stop := signalContext()
			defer stop()

			opts := approval.Options{
				WebhookURL: webhookURL,
				Logger:     a.logger,
				Policy: approval.PolicyConfig{
					MaxAmountIn:       maxAmount,
					DailyLimit:        dailyLimit,
					MaxPriceImpactPct: maxImpact,
					AllowedTokens:     allow,
				},
			}
			if mode == approval.ModePolicy && dailyLimit > 0 {
				usage, closeUsage, err := a.usageStore(ctx)
				if err != nil {
					return err
				}
				defer closeUsage()
				opts.Usage = usage
			}
			gate, err := approval.New(mode, opts)
			if err != nil {
				return err
			}

			params := client.SwapParams{Agent: w.PublicKey(), MintIn: mintIn, MintOut: mintOut, AmountIn: amount}
			if cmd.Flags().Changed("max-slippage") {
				bps, _ := cmd.Flags().GetUint16("max-slippage")
				params.MaxSlippageBps = &bps
			}

			var result *client.SwapResult
			approverKey, _ := cmd.Flags().GetString("approver-key")
			if approverKey != "" {
				// co-signed swaps carry their approval on chain
				approver, err := wallet.LoadPrivateKey(approverKey)
				if err != nil {
					return fmt.Errorf("approver key: %w", err)
				}
				result, err = a.client.ApproveAndExecute(ctx, w, approver, params)
				if err != nil {
					return err
				}
			} else {
				plan, err := a.client.BuildSwap(ctx, params)
				if err != nil {
					return err
				}
				for _, warn := range plan.Warnings {
					a.logger.Warn(warn)
				}
				err = gate.Approve(ctx, approval.Request{
					Agent:          w.Address(),
					Pool:           plan.Pool.String(),
					TokenIn:        a.registry.Label(mintIn),
					TokenOut:       a.registry.Label(mintOut),
					AmountIn:       plan.Simulation.AmountIn,
					EstimatedOut:   plan.Simulation.EstimatedOut,
					MinAmountOut:   plan.MinAmountOut,
					PriceImpactPct: plan.Simulation.PriceImpactPct,
				})
				if err != nil {
					return err
				}
				result, err = a.client.SubmitSwap(ctx, w, plan)
				if err != nil {
					return err
				}
			}

			return a.print(result, func() {
				fmt.Printf("signature      %s\n", result.Signature)
				fmt.Printf("pool           %s\n", result.Pool)
				fmt.Printf("amount in      %d %s\n", result.AmountIn, a.registry.Label(mintIn))
				fmt.Printf("estimated out  %d %s (min %d)\n", result.EstimatedOut, a.registry.Label(mintOut), result.MinAmountOut)
			})
		},
	}
	cmd.Flags().Uint16("max-slippage", constants.DefaultSlippageBps, "max slippage in bps; 0 disables the guard")
	cmd.Flags().String("approval-mode", approval.ModeNone, "approval before sending (none, webhook, policy)")
	cmd.Flags().String("webhook-url", "", "approval webhook URL (default $APPROVAL_WEBHOOK_URL)")
	cmd.Flags().String("approver-key", "", "co-signing approver key; sends approve_and_execute")
	cmd.Flags().Uint64("max-amount", 0, "policy: max amount in per swap, atomic units")
	cmd.Flags().Uint64("daily-limit", 0, "policy: max input volume per token in 24h, atomic units; tracked in $REDIS_ADDR")
	cmd.Flags().Float64("max-impact", 0, "policy: max price impact in percent")
	cmd.Flags().StringSlice("allow-tokens", nil, "policy: token whitelist (comma-separated)")
	return cmd
}

// usageStore connects the Redis store that carries daily policy volume
// between runs.
func (a *app) usageStore(ctx context.Context) (*cache.UsageStore, func(), error) {
	if a.cfg.RedisAddr == "" {
		return nil, nil, fmt.Errorf("--daily-limit needs REDIS_ADDR to track volume across runs")
	}
	rclient, err := cache.NewRedisClient(ctx, a.cfg.RedisAddr, a.cfg.RedisPassword, a.cfg.RedisDB)
	if err != nil {
		return nil, nil, err
	}
	store, err := cache.NewUsageStore(rclient)
	if err != nil {
		_ = rclient.Close()
		return nil, nil, err
	}
	return store, func() { _ = rclient.Close() }, nil
}

func createPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create-pool <tokenA> <tokenB>",
		Short: "Initialise a pool for a token pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			mintA, err := a.mint(args[0])
			if err != nil {
				return err
			}
			mintB, err := a.mint(args[1])
			if err != nil {
				return err
			}
			w, err := a.wallet()
			if err != nil {
				return err
			}
			fee, _ := cmd.Flags().GetUint16("fee-bps")

			ctx, stop := signalContext()
			defer stop()

			res, err := a.client.CreatePool(ctx, w, mintA, mintB, fee)
			if err != nil {
				return err
			}
			return a.print(res, func() {
				fmt.Printf("signature  %s\n", res.Signature)
				fmt.Printf("pool       %s\n", res.Pool)
				fmt.Printf("vault A    %s\n", res.VaultA)
				fmt.Printf("vault B    %s\n", res.VaultB)
				fmt.Printf("fee        %d bps\n", res.FeeRateBps)
			})
		},
	}
	cmd.Flags().Uint16("fee-bps", constants.DefaultFeeRateBps, "LP fee in bps (1-100)")
	return cmd
}

func provideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provide <tokenA> <tokenB> <amountA>",
		Short: "Deposit liquidity; the second amount is computed from reserves unless given",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			mintA, err := a.mint(args[0])
			if err != nil {
				return err
			}
			mintB, err := a.mint(args[1])
			if err != nil {
				return err
			}
			amountA, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			w, err := a.wallet()
			if err != nil {
				return err
			}

			params := client.ProvideParams{MintA: mintA, MintB: mintB, AmountA: amountA}
			if cmd.Flags().Changed("amount-b") {
				b, _ := cmd.Flags().GetUint64("amount-b")
				params.AmountB = &b
			}
			params.MinLP, _ = cmd.Flags().GetUint64("min-lp")
			params.AutoCompound, _ = cmd.Flags().GetBool("auto-compound")
			params.CompoundThreshold, _ = cmd.Flags().GetUint64("compound-threshold")

			ctx, stop := signalContext()
			defer stop()

			res, err := a.client.ProvideLiquidity(ctx, w, params)
			if err != nil {
				return err
			}
			return a.print(res, func() {
				fmt.Printf("signature  %s\n", res.Signature)
				fmt.Printf("position   %s\n", res.Position)
				fmt.Printf("deposited  A %d  B %d (pool order)\n", res.AmountA, res.AmountB)
				fmt.Printf("lp shares  ~%d\n", res.EstimatedLPShares)
			})
		},
	}
	cmd.Flags().Uint64("amount-b", 0, "second token amount; required for an empty pool")
	cmd.Flags().Uint64("min-lp", 0, "minimum LP shares to accept")
	cmd.Flags().Bool("auto-compound", false, "reinvest fees as LP shares on claim")
	cmd.Flags().Uint64("compound-threshold", 0, "minimum fees before compounding")
	return cmd
}

func removeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove <tokenA> <tokenB> <lpShares>",
		Short: "Burn LP shares and withdraw both tokens",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			mintA, err := a.mint(args[0])
			if err != nil {
				return err
			}
			mintB, err := a.mint(args[1])
			if err != nil {
				return err
			}
			shares, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			w, err := a.wallet()
			if err != nil {
				return err
			}
			minA, _ := cmd.Flags().GetUint64("min-a")
			minB, _ := cmd.Flags().GetUint64("min-b")

			ctx, stop := signalContext()
			defer stop()

			res, err := a.client.RemoveLiquidity(ctx, w, client.RemoveParams{
				MintA:    mintA,
				MintB:    mintB,
				LPShares: shares,
				MinA:     minA,
				MinB:     minB,
			})
			if err != nil {
				return err
			}
			return a.print(res, func() {
				fmt.Printf("signature  %s\n", res.Signature)
				fmt.Printf("burned     %d lp\n", res.LPShares)
				fmt.Printf("expected   A %d  B %d (pool order)\n", res.ExpectedA, res.ExpectedB)
			})
		},
	}
	cmd.Flags().Uint64("min-a", 0, "minimum pool token A to receive")
	cmd.Flags().Uint64("min-b", 0, "minimum pool token B to receive")
	return cmd
}

func claimFeesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim-fees <tokenA> <tokenB>",
		Short: "Claim accrued LP fees for a pair",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			mintA, err := a.mint(args[0])
			if err != nil {
				return err
			}
			mintB, err := a.mint(args[1])
			if err != nil {
				return err
			}
			w, err := a.wallet()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			res, err := a.client.ClaimFees(ctx, w, mintA, mintB)
			if err != nil {
				return err
			}
			return a.print(res, func() {
				fmt.Printf("signature  %s\n", res.Signature)
				fmt.Printf("fees       A %d  B %d\n", res.Preview.FeesA, res.Preview.FeesB)
				if res.Preview.Compounds {
					fmt.Printf("compounded into ~%d lp shares\n", res.Preview.NewLPShares)
				}
			})
		},
	}
}
