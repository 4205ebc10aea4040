package render

import (
	"fmt"
	"io"

	"github.com/trebuchet-org/sling/internal/usecase"
)

// NonceRenderer renders the signer's nonce state
type NonceRenderer struct {
	out io.Writer
}

// NewNonceRenderer creates a new nonce renderer
func NewNonceRenderer(out io.Writer) *NonceRenderer {
	return &NonceRenderer{out: out}
}

// Render prints the confirmed and pending nonce and any heals
func (r *NonceRenderer) Render(result *usecase.InspectNonceResult) error {
	fmt.Fprintln(r.out, sectionHeaderStyle.Sprintf("Signer %s on %s", result.Account.Hex(), result.Network))
	fmt.Fprintf(r.out, "  confirmed nonce: %d\n", result.State.Latest)
	fmt.Fprintf(r.out, "  pending nonce:   %d\n", result.State.Pending)

	if len(result.Healed) > 0 {
		fmt.Fprintln(r.out)
		renderHealed(r.out, result.Healed)
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Healed %d nonce(s)", len(result.Healed))))
		return nil
	}

	if result.State.HasGap() {
		fmt.Fprintln(r.out)
		fmt.Fprintln(r.out, FormatWarning(fmt.Sprintf("%d transaction(s) stalled, run with --heal to replace them", len(result.State.Gap()))))
		return nil
	}

	fmt.Fprintln(r.out, FormatSuccess("No pending transactions"))
	return nil
}
