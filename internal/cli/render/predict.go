package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/sling/internal/usecase"
)

// PredictRenderer renders a predicted address
type PredictRenderer struct {
	out io.Writer
}

// NewPredictRenderer creates a new predict renderer
func NewPredictRenderer(out io.Writer) *PredictRenderer {
	return &PredictRenderer{out: out}
}

// Render prints the address and the inputs it was derived from
func (r *PredictRenderer) Render(result *usecase.PredictAddressResult) error {
	fmt.Fprintf(r.out, "%s %s\n", sectionHeaderStyle.Sprintf("%s address:", title(string(result.Kind))), addressStyle.Sprint(result.Address.Hex()))
	fmt.Fprintf(r.out, "  deployer:       %s\n", result.Deployer.Hex())
	fmt.Fprintf(r.out, "  salt:           %s\n", result.Salt.Hex())
	fmt.Fprintf(r.out, "  init code hash: %s\n", result.InitCodeHash.Hex())

	if result.Deployed != nil {
		if *result.Deployed {
			fmt.Fprintf(r.out, "  status:         %s\n", successStyle.Sprint("deployed"))
		} else {
			fmt.Fprintf(r.out, "  status:         %s\n", pendingStyle.Sprint("not deployed"))
		}
	}
	return nil
}
