package interactive

import (
	"context"
	"errors"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/trebuchet-org/sling/internal/domain/config"
	"github.com/trebuchet-org/sling/internal/usecase"
	"golang.org/x/term"
)

// Confirmer asks the operator yes/no questions on the terminal
type Confirmer struct {
	cfg        *config.RuntimeConfig
	isTerminal func() bool
	prompt     func(label string) error
}

// NewConfirmer creates a terminal confirmer
func NewConfirmer(cfg *config.RuntimeConfig) *Confirmer {
	return &Confirmer{
		cfg:        cfg,
		isTerminal: func() bool { return term.IsTerminal(int(os.Stdin.Fd())) },
		prompt: func(label string) error {
			p := promptui.Prompt{Label: label, IsConfirm: true}
			_, err := p.Run()
			return err
		},
	}
}

// Confirm returns true without asking when --yes is set, in non-interactive
// mode or when stdin is not a terminal
func (c *Confirmer) Confirm(ctx context.Context, label string) (bool, error) {
	if c.cfg.Yes || c.cfg.NonInteractive || !c.isTerminal() {
		return true, nil
	}

	err := c.prompt(label)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, promptui.ErrAbort), errors.Is(err, promptui.ErrInterrupt):
		return false, nil
	default:
		return false, err
	}
}

var _ usecase.Confirmer = (*Confirmer)(nil)
