package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/polkiloo/cardshop/internal/config"
	"github.com/polkiloo/cardshop/internal/server/http/dto"
)

func newRootCmd(open facadeOpener) *cobra.Command {
	root := &cobra.Command{
		Use:           "cardshopctl",
		Short:         "Operator tool for the cardshop fulfillment engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(reconcileCmd(open))
	root.AddCommand(cleanupCmd(open))
	root.AddCommand(fulfillCmd(open))
	root.AddCommand(unbanCmd(open))
	root.AddCommand(statsCmd(open))

	return root
}

func reconcileCmd(open facadeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Repair card bindings that disagree with order state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFacade(cmd, open, nil, func(ctx context.Context, f operatorFacade) (any, error) {
				return f.Reconcile(ctx)
			})
		},
	}
}

func cleanupCmd(open facadeOpener) *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Expire pending orders older than the payment timeout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			adjust := func(cfg *config.Config) {
				if timeout > 0 {
					cfg.PendingOrderTimeout = timeout
				}
			}
			return withFacade(cmd, open, adjust, func(ctx context.Context, f operatorFacade) (any, error) {
				n, err := f.Cleanup(ctx)
				return dto.CleanupResponse{Expired: n}, err
			})
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Override the pending order timeout")
	return cmd
}

func fulfillCmd(open facadeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "fulfill <order-id>",
		Short: "Deliver a paid order or resend the card of a delivered one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd, open, nil, func(ctx context.Context, f operatorFacade) (any, error) {
				outcome, err := f.Fulfill(ctx, args[0])
				return dto.FulfillResponse{OrderID: args[0], Outcome: string(outcome)}, err
			})
		},
	}
}

func unbanCmd(open facadeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "unban <account-id>",
		Short: "Lift the suspension of an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFacade(cmd, open, nil, func(ctx context.Context, f operatorFacade) (any, error) {
				removed, err := f.Unban(ctx, args[0])
				return dto.UnbanResponse{AccountID: args[0], Removed: removed}, err
			})
		},
	}
}

func statsCmd(open facadeOpener) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show card inventory and order counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withFacade(cmd, open, nil, func(ctx context.Context, f operatorFacade) (any, error) {
				stats, err := f.Stats(ctx)
				if err != nil {
					return nil, err
				}
				orders := make(map[string]int64, len(stats.Orders))
				for status, n := range stats.Orders {
					orders[string(status)] = n
				}
				return dto.StatsResponse{
					CardsTotal:     stats.CardsTotal,
					CardsUsed:      stats.CardsUsed,
					CardsAvailable: stats.CardsAvailable(),
					Orders:         orders,
				}, nil
			})
		},
	}
}

// withFacade loads configuration, opens the engine, runs op and prints its result as JSON.
func withFacade(
	cmd *cobra.Command,
	open facadeOpener,
	adjust func(*config.Config),
	op func(context.Context, operatorFacade) (any, error),
) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if adjust != nil {
		adjust(cfg)
	}

	ctx := cmd.Context()
	facade, closeFn, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeFn()

	result, err := op(ctx, facade)
	if err != nil {
		return fmt.Errorf("%s: %w", cmd.Name(), err)
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
