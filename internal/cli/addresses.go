package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/sling/internal/cli/render"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// NewAddressesCmd creates the addresses command
func NewAddressesCmd() *cobra.Command {
	var filter string

	cmd := &cobra.Command{
		Use:     "addresses",
		Aliases: []string{"ls"},
		Short:   "Show the address book of a network",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ShowAddresses.Run(cmd.Context(), usecase.ShowAddressesParams{Filter: filter})
			if err != nil {
				return err
			}
			return render.NewAddressesRenderer(cmd.OutOrStdout()).Render(result)
		},
	}

	cmd.Flags().StringVar(&filter, "filter", "", "Only show names containing this text")
	cmd.AddCommand(newAddressesClearCmd())

	return cmd
}

func newAddressesClearCmd() *cobra.Command {
	var all, force bool

	cmd := &cobra.Command{
		Use:   "clear [NAME...]",
		Short: "Remove entries so the next deploy sends them again",
		RunE: func(cmd *cobra.Command, args []string) error {
			if all && len(args) > 0 {
				return fmt.Errorf("pass names or --all, not both")
			}

			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			result, err := app.ClearAddress.Run(cmd.Context(), usecase.ClearAddressParams{
				Names: args,
				All:   all,
				Force: force,
			})
			if errors.Is(err, usecase.ErrDeploymentCancelled) {
				fmt.Fprintln(cmd.ErrOrStderr(), render.FormatWarning("Nothing removed"))
				return nil
			}
			if err != nil {
				return err
			}
			return render.NewAddressesRenderer(cmd.OutOrStdout()).RenderCleared(result)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Remove every entry of the network")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip the confirmation prompt")

	return cmd
}
