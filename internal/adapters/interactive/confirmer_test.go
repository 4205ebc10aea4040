package interactive

import (
	"context"
	"errors"
	"testing"

	"github.com/manifoldco/promptui"
	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/sling/internal/domain/config"
)

func TestConfirmer(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.RuntimeConfig
		terminal  bool
		promptErr error
		want      bool
		wantErr   bool
		asked     bool
	}{
		{name: "yes flag", cfg: config.RuntimeConfig{Yes: true}, terminal: true, want: true},
		{name: "non-interactive", cfg: config.RuntimeConfig{NonInteractive: true}, terminal: true, want: true},
		{name: "no terminal", terminal: false, want: true},
		{name: "accepted", terminal: true, want: true, asked: true},
		{name: "declined", terminal: true, promptErr: promptui.ErrAbort, want: false, asked: true},
		{name: "interrupted", terminal: true, promptErr: promptui.ErrInterrupt, want: false, asked: true},
		{name: "broken prompt", terminal: true, promptErr: errors.New("eof"), wantErr: true, asked: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			asked := false
			cfg := tt.cfg
			c := &Confirmer{
				cfg:        &cfg,
				isTerminal: func() bool { return tt.terminal },
				prompt: func(string) error {
					asked = true
					return tt.promptErr
				},
			}

			ok, err := c.Confirm(context.Background(), "Broadcast?")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, ok)
			assert.Equal(t, tt.asked, asked)
		})
	}
}
