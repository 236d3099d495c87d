package main

import (
	"fmt"

	"github.com/layer-3/walletredirect/adapters/page"
	"github.com/layer-3/walletredirect/adapters/store"
	"github.com/spf13/cobra"
)

var completeCmd = &cobra.Command{
	Use:   "complete RETURN_URL",
	Short: "Complete a sign-in from the URL the wallet returned to",
	Long: `Complete a sign-in from the URL the wallet returned to. The session is
stored in redis and the pending access key is promoted to the account.

Examples:
  walletredirect complete 'https://app.example/?account_id=alice.testnet&public_key=ed25519:...&all_keys=ed25519:...'`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func runComplete(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	p := page.NewMemoryPage(args[0])
	conn, err := rt.connect(cmd.Context(), p, store.NewRedisStorage(rt.redis, rt.cfg.Redis.KeyPrefix), rt.keyStore, nil)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if result := conn.Completion(); result != nil {
		if result.WalletErr != nil {
			return result.WalletErr
		}
		if result.PromoteErr != nil {
			fmt.Fprintf(out, "warning: %v\n", result.PromoteErr)
		}
	}
	if !conn.IsSignedIn() {
		return fmt.Errorf("no account in %s", args[0])
	}

	fmt.Fprintf(out, "signed in as %s\n", conn.AccountID())
	fmt.Fprintln(out, p.CurrentURL())
	return nil
}
