package main

import (
	"errors"
	"fmt"

	"github.com/layer-3/walletredirect/adapters/page"
	"github.com/layer-3/walletredirect/adapters/store"
	"github.com/layer-3/walletredirect/service"
	"github.com/spf13/cobra"
)

var (
	signInPage       string
	signInContract   string
	signInMethods    []string
	signInSuccessURL string
	signInFailureURL string
)

var signInURLCmd = &cobra.Command{
	Use:   "sign-in-url",
	Short: "Print a wallet sign-in URL and stash its pending key",
	Long: `Print a wallet sign-in URL for an app page and stash the pending access
key in the configured key store, so the page can complete the sign-in when
the wallet sends the browser back.

Examples:
  walletredirect sign-in-url --page https://app.example/ --contract app.testnet --method add_message`,
	Args: cobra.NoArgs,
	RunE: runSignInURL,
}

func init() {
	signInURLCmd.Flags().StringVar(&signInPage, "page", "", "URL of the app page the wallet returns to")
	signInURLCmd.Flags().StringVar(&signInContract, "contract", "", "contract the access key is limited to")
	signInURLCmd.Flags().StringSliceVar(&signInMethods, "method", nil, "contract methods the access key may call")
	signInURLCmd.Flags().StringVar(&signInSuccessURL, "success-url", "", "URL to return to on success")
	signInURLCmd.Flags().StringVar(&signInFailureURL, "failure-url", "", "URL to return to on failure")
	_ = signInURLCmd.MarkFlagRequired("page")
}

func runSignInURL(cmd *cobra.Command, args []string) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()

	p := page.NewMemoryPage(signInPage)
	conn, err := rt.connect(cmd.Context(), p, store.NewRedisStorage(rt.redis, rt.cfg.Redis.KeyPrefix), rt.keyStore, nil)
	if err != nil {
		return err
	}

	err = conn.RequestSignIn(cmd.Context(), service.SignInOptions{
		ContractID:  signInContract,
		MethodNames: signInMethods,
		SuccessURL:  signInSuccessURL,
		FailureURL:  signInFailureURL,
	})
	if err != nil {
		return err
	}

	navigations := p.Navigations()
	if len(navigations) == 0 {
		return errors.New("sign-in did not produce a wallet URL")
	}
	fmt.Fprintln(cmd.OutOrStdout(), navigations[len(navigations)-1])
	return nil
}
