// Package anvil runs a throwaway local anvil node, used by the end-to-end tests
// of the chain adapter.
package anvil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/rpc"
)

const (
	// DefaultChainID is the chain id anvil reports unless told otherwise
	DefaultChainID = 31337

	// DevKey is the private key of anvil's first prefunded account
	DevKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

	// startupTimeout bounds the wait for the RPC endpoint
	startupTimeout = 15 * time.Second
)

// ErrNotInstalled is returned when no anvil binary is on PATH
var ErrNotInstalled = errors.New("anvil not found on PATH")

// Node is a local anvil process
type Node struct {
	Port    int
	ChainID uint64
	LogFile string

	cmd    *exec.Cmd
	client *rpc.Client
}

// NewNode describes a node on port. A zero port picks a free one on Start.
func NewNode(port int) *Node {
	return &Node{Port: port, ChainID: DefaultChainID}
}

// RPCURL returns the HTTP endpoint of the node
func (n *Node) RPCURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", n.Port)
}

// Start launches anvil and waits until it answers RPC calls
func (n *Node) Start(ctx context.Context) error {
	if n.cmd != nil {
		return fmt.Errorf("anvil on port %d is already running", n.Port)
	}

	bin, err := exec.LookPath("anvil")
	if err != nil {
		return ErrNotInstalled
	}

	if n.Port == 0 {
		if n.Port, err = freePort(); err != nil {
			return fmt.Errorf("failed to pick a port: %w", err)
		}
	}
	if n.LogFile == "" {
		n.LogFile = filepath.Join(os.TempDir(), fmt.Sprintf("sling-anvil-%d.log", n.Port))
	}

	logFile, err := os.Create(n.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(bin,
		"--port", strconv.Itoa(n.Port),
		"--host", "127.0.0.1",
		"--chain-id", strconv.FormatUint(n.ChainID, 10),
	)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start anvil: %w", err)
	}
	n.cmd = cmd

	if err := n.waitHealthy(ctx); err != nil {
		_ = n.Stop()
		return fmt.Errorf("anvil did not come up (logs: %s): %w", n.LogFile, err)
	}
	return nil
}

// Stop terminates the node
func (n *Node) Stop() error {
	if n.client != nil {
		n.client.Close()
		n.client = nil
	}
	if n.cmd == nil || n.cmd.Process == nil {
		return nil
	}

	_ = n.cmd.Process.Signal(os.Interrupt)
	done := make(chan error, 1)
	go func() { done <- n.cmd.Wait() }()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = n.cmd.Process.Kill()
		<-done
	}
	n.cmd = nil
	return nil
}

// SetAutomine turns mining of every submitted transaction on or off
func (n *Node) SetAutomine(ctx context.Context, enabled bool) error {
	return n.call(ctx, nil, "evm_setAutomine", enabled)
}

// Mine mines one block with whatever is in the mempool
func (n *Node) Mine(ctx context.Context) error {
	return n.call(ctx, nil, "evm_mine")
}

func (n *Node) call(ctx context.Context, result any, method string, args ...any) error {
	if n.client == nil {
		client, err := rpc.DialContext(ctx, n.RPCURL())
		if err != nil {
			return err
		}
		n.client = client
	}
	if err := n.client.CallContext(ctx, result, method, args...); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	return nil
}

func (n *Node) waitHealthy(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		var chainID string
		err := n.call(ctx, &chainID, "eth_chainId")
		if err == nil {
			return nil
		}

		select {
		case <-ctx.Done():
			return err
		case <-ticker.C:
		}
	}
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
