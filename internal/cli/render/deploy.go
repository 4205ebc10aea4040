package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/sling/internal/domain"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// DeployRenderer renders the outcome of a deployment run
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{out: out}
}

// Render prints the run header, any healed nonces and the step table. It
// accepts the partial result of a failed run.
func (r *DeployRenderer) Render(result *usecase.DeployContractsResult) error {
	if result == nil {
		return nil
	}

	header := fmt.Sprintf("Deploying to %s (chain %d) from %s", result.Network, result.ChainID, result.Account.Hex())
	if result.DryRun {
		header = "[dry run] " + header
	}
	fmt.Fprintln(r.out, sectionHeaderStyle.Sprint(header))
	if result.NonceState.HasGap() {
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("signer nonce gap: confirmed %d, pending %d", result.NonceState.Latest, result.NonceState.Pending)))
	}

	if len(result.Healed) > 0 {
		fmt.Fprintln(r.out)
		renderHealed(r.out, result.Healed)
	}

	if result.Stopped {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatSuccess("Nonce gap healed, stopping as requested"))
		return nil
	}

	if len(result.Steps) == 0 {
		return nil
	}

	fmt.Fprintln(r.out)
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Step", "Strategy", "State", "Address", "Nonce", "Tx"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight},
	})

	for _, step := range result.Steps {
		address := ""
		if step.State != domain.StepSkipped && step.State != domain.StepFailed {
			address = addressStyle.Sprint(step.Address.Hex())
		}
		nonce := ""
		if step.Sent || step.State == domain.StepPredicted {
			nonce = fmt.Sprintf("%d", step.Nonce)
		}
		t.AppendRow(table.Row{
			nameStyle.Sprint(step.Name),
			title(string(step.Strategy)),
			stateStyle(step.State).Sprint(stateLabel(step)),
			address,
			nonce,
			faintStyle.Sprint(shortHash(step.TxHash)),
		})
	}
	t.Render()

	fmt.Fprintln(r.out)
	switch {
	case result.DryRun:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Dry run complete, %d step(s) would be deployed", countState(result.Steps, domain.StepPredicted))))
	case len(result.Steps) > 0 && result.Steps[len(result.Steps)-1].State == domain.StepFailed:
		// the caller reports the error
	default:
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Deployment complete, %d transaction(s) sent", result.Transactions())))
	}
	return nil
}

func renderHealed(out io.Writer, healed []usecase.HealResult) {
	for _, h := range healed {
		if h.Settled {
			fmt.Fprintf(out, "  %s nonce %d settled before it could be replaced\n", successStyle.Sprint("✓"), h.Nonce)
			continue
		}
		fmt.Fprintf(out, "  %s healed nonce %d with %s %s\n", successStyle.Sprint("✓"), h.Nonce, shortHash(h.TxHash), faintStyle.Sprintf("(gas price %s wei)", h.GasPrice))
	}
}

func stateLabel(step usecase.StepResult) string {
	if step.State == domain.StepAddressKnown && step.OnChain {
		return "on-chain"
	}
	return string(step.State)
}

func stateStyle(state domain.StepState) *color.Color {
	switch state {
	case domain.StepConfirmed:
		return successStyle
	case domain.StepPredicted, domain.StepSubmitting:
		return pendingStyle
	case domain.StepFailed:
		return failedStyle
	default:
		return faintStyle
	}
}

func countState(steps []usecase.StepResult, state domain.StepState) int {
	n := 0
	for _, s := range steps {
		if s.State == state {
			n++
		}
	}
	return n
}
