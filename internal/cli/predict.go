package cli

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/sling/internal/cli/render"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// NewPredictCmd creates the predict command group
func NewPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Derive deterministic addresses without deploying",
		Long: `Derive the CREATE2 address of a pool, a minimal proxy clone or an artifact.

Names are resolved through the address book when --network is given, and the
output then also shows whether the address already holds code.`,
	}

	cmd.PersistentFlags().String("deployer", "", "CREATE2 deployer (defaults to the configured factory)")

	cmd.AddCommand(newPredictPoolCmd(), newPredictCloneCmd(), newPredictCreate2Cmd())
	return cmd
}

func newPredictPoolCmd() *cobra.Command {
	var tokenA, tokenB, implementation string
	var fee uint32

	cmd := &cobra.Command{
		Use:   "pool",
		Short: "Predict the address of a pool for a token pair and fee",
		Long: `Predict the address of a pool for a token pair and fee.

The pair is sorted before hashing, so the token order does not matter.

Example:
  sling predict pool --implementation PoolImpl \
    --token-a 0x1111111111111111111111111111111111111111 \
    --token-b 0x2222222222222222222222222222222222222222 --fee 3000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := parseAddress("token-a", tokenA)
			if err != nil {
				return err
			}
			b, err := parseAddress("token-b", tokenB)
			if err != nil {
				return err
			}
			return runPredict(cmd, usecase.PredictAddressParams{
				Kind:           usecase.PredictPool,
				Implementation: implementation,
				TokenA:         a,
				TokenB:         b,
				Fee:            fee,
			})
		},
	}

	cmd.Flags().StringVar(&implementation, "implementation", "", "Pool implementation address or recorded name")
	cmd.Flags().StringVar(&tokenA, "token-a", "", "First token of the pair")
	cmd.Flags().StringVar(&tokenB, "token-b", "", "Second token of the pair")
	cmd.Flags().Uint32Var(&fee, "fee", 3000, "Fee tier")
	_ = cmd.MarkFlagRequired("implementation")
	_ = cmd.MarkFlagRequired("token-a")
	_ = cmd.MarkFlagRequired("token-b")

	return cmd
}

func newPredictCloneCmd() *cobra.Command {
	var implementation, salt, saltString string
	var rawArgs []string

	cmd := &cobra.Command{
		Use:   "clone",
		Short: "Predict the address of a minimal proxy clone",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctorArgs, err := parseArgFlags(rawArgs)
			if err != nil {
				return err
			}
			return runPredict(cmd, usecase.PredictAddressParams{
				Kind:           usecase.PredictClone,
				Implementation: implementation,
				Args:           ctorArgs,
				Salt:           salt,
				SaltString:     saltString,
			})
		},
	}

	cmd.Flags().StringVar(&implementation, "implementation", "", "Implementation address or recorded name")
	cmd.Flags().StringVar(&salt, "salt", "", "Explicit 32-byte salt")
	cmd.Flags().StringVar(&saltString, "salt-string", "", "Salt derived from a string")
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "Salt argument as type:value (value @Name reads the address book)")
	_ = cmd.MarkFlagRequired("implementation")
	cmd.MarkFlagsMutuallyExclusive("salt", "salt-string")

	return cmd
}

func newPredictCreate2Cmd() *cobra.Command {
	var artifact, salt, saltString string
	var rawArgs, rawLibs []string

	cmd := &cobra.Command{
		Use:   "create2",
		Short: "Predict the CREATE2 address of an artifact",
		Long: `Predict the CREATE2 address of an artifact with its constructor arguments.

Example:
  sling predict create2 --artifact PoolFactory --salt-string SALT_V1 --arg address:@WETH9`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctorArgs, err := parseArgFlags(rawArgs)
			if err != nil {
				return err
			}
			libs, err := parseLibraryFlags(rawLibs)
			if err != nil {
				return err
			}
			return runPredict(cmd, usecase.PredictAddressParams{
				Kind:       usecase.PredictCreate2,
				Artifact:   artifact,
				Args:       ctorArgs,
				Libraries:  libs,
				Salt:       salt,
				SaltString: saltString,
			})
		},
	}

	cmd.Flags().StringVar(&artifact, "artifact", "", "Contract artifact name")
	cmd.Flags().StringVar(&salt, "salt", "", "Explicit 32-byte salt")
	cmd.Flags().StringVar(&saltString, "salt-string", "", "Salt derived from a string")
	cmd.Flags().StringArrayVar(&rawArgs, "arg", nil, "Constructor argument as type:value (value @Name reads the address book)")
	cmd.Flags().StringArrayVar(&rawLibs, "library", nil, "Library link as Name=address-or-recorded-name")
	_ = cmd.MarkFlagRequired("artifact")
	cmd.MarkFlagsMutuallyExclusive("salt", "salt-string")

	return cmd
}

func runPredict(cmd *cobra.Command, params usecase.PredictAddressParams) error {
	app, err := getApp(cmd)
	if err != nil {
		return err
	}

	if raw, _ := cmd.Flags().GetString("deployer"); raw != "" {
		deployer, err := parseAddress("deployer", raw)
		if err != nil {
			return err
		}
		params.Deployer = &deployer
	}

	result, err := app.PredictAddress.Run(cmd.Context(), params)
	if err != nil {
		return err
	}
	return render.NewPredictRenderer(cmd.OutOrStdout()).Render(result)
}

func parseAddress(flag, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("--%s: %q is not an address", flag, value)
	}
	return common.HexToAddress(value), nil
}

// parseArgFlags reads type:value pairs. A value of @Name references a
// recorded address and ascii:text packs text into a fixed bytes type.
func parseArgFlags(raw []string) ([]domain.Argument, error) {
	args := make([]domain.Argument, 0, len(raw))
	for _, r := range raw {
		typ, value, ok := strings.Cut(r, ":")
		if !ok || typ == "" {
			return nil, fmt.Errorf("--arg %q: expected type:value", r)
		}
		arg := domain.Argument{Type: typ}
		switch {
		case strings.HasPrefix(value, "@"):
			arg.Ref = strings.TrimPrefix(value, "@")
		case strings.HasPrefix(value, "ascii:"):
			arg.Value = strings.TrimPrefix(value, "ascii:")
			arg.Encoding = domain.EncodingASCII
		default:
			arg.Value = value
		}
		args = append(args, arg)
	}
	return args, nil
}

func parseLibraryFlags(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	libs := make(map[string]string, len(raw))
	for _, r := range raw {
		name, target, ok := strings.Cut(r, "=")
		if !ok || name == "" || target == "" {
			return nil, fmt.Errorf("--library %q: expected Name=target", r)
		}
		libs[name] = target
	}
	return libs, nil
}
