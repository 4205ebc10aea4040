package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/sling/internal/cli/render"
	"github.com/trebuchet-org/sling/internal/config"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Run the deployment plan against a network",
		Long: `Run every step of the deployment plan in order against the selected network.

Steps already recorded in the address book are skipped, so an interrupted run
can simply be started again. Stalled transactions of the signer are replaced
before the first deployment is sent.

Examples:
  sling deploy -n localhost
  sling deploy -n sepolia --dry-run
  sling deploy -n sepolia --exit-after-heal`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			cfg := app.Config

			specs, err := config.LoadPlan(cfg.Deploy.PlanFile)
			if err != nil {
				return err
			}

			params := usecase.DeployContractsParams{
				Specs:         specs,
				DryRun:        cfg.DryRun,
				ExitAfterHeal: cfg.ExitAfterHeal,
				SkipConfirm:   cfg.Yes || (cfg.Network != nil && cfg.Network.Local),
			}

			result, runErr := app.DeployContracts.Run(cmd.Context(), params)
			if err := render.NewDeployRenderer(cmd.OutOrStdout()).Render(result); err != nil {
				return err
			}

			if cfg.MetricsFile != "" {
				if err := app.Metrics.WriteFile(cfg.MetricsFile); err != nil {
					app.Logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
				}
			}

			if errors.Is(runErr, usecase.ErrDeploymentCancelled) {
				fmt.Fprintln(cmd.ErrOrStderr(), render.FormatWarning("Deployment cancelled"))
				return nil
			}
			return deployError(runErr)
		},
	}

	cmd.Flags().String("plan", "", "Deployment plan file (default deploy.yaml)")
	cmd.Flags().Bool("dry-run", false, "Predict addresses and nonces without sending anything")
	cmd.Flags().Bool("exit-after-heal", false, "Stop after healing a nonce gap")
	cmd.Flags().BoolP("yes", "y", false, "Skip the broadcast confirmation")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics of the run to this file")

	return cmd
}

// deployError adds an operator hint to errors that need manual action
func deployError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrConfirmationTimeout):
		return fmt.Errorf("%w\nthe transaction may still be mined; run `sling nonce` before retrying", err)
	case errors.Is(err, domain.ErrNonceGapDetected):
		return fmt.Errorf("%w\ninspect the signer with `sling nonce --heal`", err)
	case errors.Is(err, domain.ErrAddressConflict):
		return fmt.Errorf("%w\nremove the stale entry with `sling addresses clear`", err)
	default:
		return err
	}
}
