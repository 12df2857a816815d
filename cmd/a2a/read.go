package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/cobra"

	"github.com/aman-zulfiqar/a2a-swap/internal/codec"
)

func simulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <in> <out> <amount>",
		Short: "Estimate a swap against live reserves",
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

			ctx, stop := signalContext()
			defer stop()

			sim, err := a.client.Simulate(ctx, mintIn, mintOut, amount)
			if err != nil {
				return err
			}
			return a.print(sim, func() {
				fmt.Printf("pool            %s\n", sim.Pool)
				fmt.Printf("%s -> %s\n", a.registry.Label(mintIn), a.registry.Label(mintOut))
				fmt.Printf("amount in       %d\n", sim.AmountIn)
				fmt.Printf("protocol fee    %d\n", sim.ProtocolFee)
				fmt.Printf("lp fee          %d (%d bps)\n", sim.LPFee, sim.FeeRateBps)
				fmt.Printf("estimated out   %d\n", sim.EstimatedOut)
				fmt.Printf("effective rate  %.9f\n", sim.EffectiveRate)
				fmt.Printf("price impact    %.4f%%\n", sim.PriceImpactPct)
			})
		},
	}
}

func poolInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool-info <tokenA> <tokenB>",
		Short: "Show reserves, fee rate and spot price for a pair",
		Long:  "Show reserves, fee rate and spot price for a pair. The pair may also be given as one SOL-USDC argument.",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				parts := strings.SplitN(args[0], "-", 2)
				if len(parts) != 2 {
					return fmt.Errorf("pair must be two tokens, e.g. SOL-USDC")
				}
				args = parts
			}
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

			ctx, stop := signalContext()
			defer stop()

			info, err := a.client.PoolInfo(ctx, mintA, mintB)
			if err != nil {
				return err
			}
			labelA := a.registry.Label(solana.MustPublicKeyFromBase58(info.TokenAMint))
			labelB := a.registry.Label(solana.MustPublicKeyFromBase58(info.TokenBMint))
			return a.print(info, func() {
				fmt.Printf("pool        %s\n", info.Pool)
				fmt.Printf("token A     %s (%s) reserve %d\n", labelA, info.TokenAMint, info.ReserveA)
				fmt.Printf("token B     %s (%s) reserve %d\n", labelB, info.TokenBMint, info.ReserveB)
				fmt.Printf("lp supply   %d\n", info.LPSupply)
				fmt.Printf("fee         %d bps\n", info.FeeRateBps)
				fmt.Printf("spot        1 %s = %.9f %s\n", labelA, info.SpotPriceAToB, labelB)
			})
		},
	}
}

func myPositionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "my-positions [pubkey]",
		Short: "List LP positions for a wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			owner, err := a.owner(args)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			positions, err := a.client.MyPositions(ctx, owner)
			if err != nil {
				return err
			}
			return a.print(positions, func() {
				if len(positions) == 0 {
					fmt.Println("no positions")
					return
				}
				for _, p := range positions {
					fmt.Printf("%s  pool %s  lp %d  auto-compound %t\n", p.Position, p.Pool, p.LPShares, p.AutoCompound)
				}
			})
		},
	}
}

func myFeesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "my-fees [pubkey]",
		Short: "Show claimable fees for a wallet",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			owner, err := a.owner(args)
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			fees, err := a.client.MyFees(ctx, owner)
			if err != nil {
				return err
			}
			return a.print(fees, func() {
				for _, p := range fees.Positions {
					fmt.Printf("%s  A %d  B %d\n", p.Position, p.TotalFeesA, p.TotalFeesB)
				}
				for mint, total := range fees.TotalByMint {
					fmt.Printf("total %s: %d\n", a.registry.Label(solana.MustPublicKeyFromBase58(mint)), total)
				}
			})
		},
	}
}

// owner is the explicit pubkey argument, else the configured wallet.
func (a *app) owner(args []string) (solana.PublicKey, error) {
	if len(args) == 1 {
		return codec.DecodeAddress(args[0])
	}
	w, err := a.wallet()
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("pass a pubkey or a signing key: %w", err)
	}
	return w.PublicKey(), nil
}

func parseAmount(s string) (uint64, error) {
	n, err := strconv.ParseUint(strings.ReplaceAll(s, "_", ""), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("amount %q must be a whole number of atomic units", s)
	}
	if n == 0 {
		return 0, fmt.Errorf("amount must be greater than zero")
	}
	return n, nil
}
