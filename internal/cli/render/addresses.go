package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// AddressesRenderer renders address book contents
type AddressesRenderer struct {
	out io.Writer
}

// NewAddressesRenderer creates a new addresses renderer
func NewAddressesRenderer(out io.Writer) *AddressesRenderer {
	return &AddressesRenderer{out: out}
}

// Render prints the recorded addresses of a network
func (r *AddressesRenderer) Render(result *usecase.ShowAddressesResult) error {
	if len(result.Entries) == 0 {
		fmt.Fprintf(r.out, "No addresses recorded on %s\n", result.Network)
		return nil
	}

	fmt.Fprintln(r.out, sectionHeaderStyle.Sprintf("Address book: %s", result.Network))
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Address"})
	for _, e := range result.Entries {
		t.AppendRow(table.Row{nameStyle.Sprint(e.Name), addressStyle.Sprint(e.Address.Hex())})
	}
	t.Render()
	return nil
}

// RenderCleared prints the removed entries
func (r *AddressesRenderer) RenderCleared(result *usecase.ClearAddressResult) error {
	for _, e := range result.Removed {
		fmt.Fprintf(r.out, "  removed %s %s\n", nameStyle.Sprint(e.Name), faintStyle.Sprint(e.Address.Hex()))
	}
	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Cleared %d address(es) from %s", len(result.Removed), result.Network)))
	return nil
}
