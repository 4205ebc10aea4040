package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/sling/internal/cli/render"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// NewNonceCmd creates the nonce command
func NewNonceCmd() *cobra.Command {
	var heal bool

	cmd := &cobra.Command{
		Use:   "nonce",
		Short: "Show the signer's confirmed and pending nonce",
		Long: `Show the confirmed and pending transaction count of the signer.

A pending count above the confirmed one means transactions are stuck in the
mempool. With --heal each of them is replaced by a zero-value transaction at a
higher gas price.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.InspectNonce.Run(cmd.Context(), usecase.InspectNonceParams{Heal: heal})
			if err != nil {
				return err
			}
			return render.NewNonceRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().BoolVar(&heal, "heal", false, "Replace stalled transactions")
	return cmd
}
