package main

import (
	"fmt"
	"time"

	"github.com/layer-3/walletredirect/service"
	"github.com/spf13/cobra"
)

var (
	sweepKeep      []string
	sweepOlderThan time.Duration
	sweepDryRun    bool
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Remove pending access keys left behind by abandoned sign-ins",
	Long: `Remove pending access keys left behind by abandoned sign-ins.

A pending key is stashed when a sign-in starts and promoted when the wallet
returns. Keys of sign-ins that never returned stay behind until swept. Only
keys stashed longer ago than --older-than are removed, so sign-ins still at
the wallet keep their keys. Every browser's key scope is swept.

Examples:
  # Remove pending keys stashed more than a day ago
  walletredirect sweep

  # List pending keys and their age without removing anything
  walletredirect sweep --dry-run

  # Remove keys older than an hour, keeping one sign-in still in flight
  walletredirect sweep --older-than 1h --keep ed25519:8hSHprDq2StXwMtNd43wDTXQYsjXcD4MJTXQYsjXcD4M`,
	Args: cobra.NoArgs,
	RunE: runSweep,
}

func init() {
	sweepCmd.Flags().StringSliceVar(&sweepKeep, "keep", nil, "public keys whose pending records are kept")
	sweepCmd.Flags().DurationVar(&sweepOlderThan, "older-than", 24*time.Hour, "only remove keys stashed at least this long ago")
	sweepCmd.Flags().BoolVar(&sweepDryRun, "dry-run", false, "list pending keys without removing them")
}

func runSweep(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	ctx := cmd.Context()

	networks, err := rt.keyStore.ScopedNetworks(ctx, rt.cfg.NetworkID)
	if err != nil {
		return err
	}
	networks = append([]string{rt.cfg.NetworkID}, networks...)

	keep := make(map[string]bool, len(sweepKeep))
	for _, pk := range sweepKeep {
		keep[pk] = true
	}

	out := cmd.OutOrStdout()
	for _, network := range networks {
		keys := service.NewKeyLifecycle(rt.keyStore, network, rt.logger)

		if sweepDryRun {
			pending, err := keys.PendingKeys(ctx)
			if err != nil {
				return err
			}
			for _, p := range pending {
				age := "unknown"
				if !p.StashedAt.IsZero() {
					age = time.Since(p.StashedAt).Truncate(time.Second).String()
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", network, p.PublicKey, age)
			}
			continue
		}

		removed, err := keys.SweepPendingKeys(ctx, sweepOlderThan, func(publicKey string) bool {
			return keep[publicKey]
		})
		for _, pk := range removed {
			fmt.Fprintf(out, "%s\t%s\n", network, pk)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
