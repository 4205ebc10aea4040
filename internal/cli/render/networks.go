package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/trebuchet-org/sling/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out io.Writer
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer) *NetworksRenderer {
	return &NetworksRenderer{out: out}
}

// RenderNetworksList renders the configured networks
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in sling.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"", "Network", "Chain ID", "RPC", "Verify"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 3, Align: text.AlignRight},
	})

	for _, network := range result.Networks {
		marker := ""
		if network.Name == result.Selected {
			marker = "*"
		}
		if network.Error != nil {
			t.AppendRow(table.Row{marker, network.Name, "", failedStyle.Sprintf("error: %v", network.Error), ""})
			continue
		}

		name := network.Name
		if network.Local {
			name += faintStyle.Sprint(" (local)")
		}
		chainID := faintStyle.Sprint("any")
		if network.ChainID != 0 {
			chainID = fmt.Sprintf("%d", network.ChainID)
		}
		verify := ""
		if network.Verification {
			verify = successStyle.Sprint("✓")
		}
		t.AppendRow(table.Row{marker, name, chainID, network.RPCURL, verify})
	}
	t.Render()
	return nil
}
