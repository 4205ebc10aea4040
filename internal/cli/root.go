package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/sling/internal/app"
	"github.com/trebuchet-org/sling/internal/config"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	var cleanup []func()

	rootCmd := &cobra.Command{
		Use:   "sling",
		Short: "Sequential contract deployment with deterministic addresses",
		Long: `Sling deploys a plan of contracts to an EVM network one step at a time,
recording every address in a per-network address book so interrupted runs
resume where they stopped. Stalled signer transactions are healed before
anything new is sent.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)

			appInstance, appCleanup, err := app.InitApp(v)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}
			cleanup = append(cleanup, appCleanup)

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				cleanup = append(cleanup, cancel)
			}
			cmd.SetContext(ctx)

			return nil
		},
	}
	cobra.OnFinalize(func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
		cleanup = nil
	})

	// Global flags
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (a [networks] entry of sling.toml)")
	rootCmd.PersistentFlags().String("config", "", "Path to sling.toml (defaults to the project root)")
	rootCmd.PersistentFlags().String("addressbook", "", "Address book backend: file or sqlite")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().Duration("timeout", 0, "Overall command timeout (default 10m)")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	predictCmd := NewPredictCmd()
	predictCmd.GroupID = "main"
	rootCmd.AddCommand(predictCmd)

	addressesCmd := NewAddressesCmd()
	addressesCmd.GroupID = "management"
	rootCmd.AddCommand(addressesCmd)

	nonceCmd := NewNonceCmd()
	nonceCmd.GroupID = "management"
	rootCmd.AddCommand(nonceCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	app, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return app, nil
}
