package remote

import (
	"fmt"

	"github.com/example/stacksync/internal/config"
	"go.uber.org/zap"
)

// New selects the backend variant the effective configuration asks for.
// Callers above this point never branch on the mode again.
func New(eff *config.Effective, logger *zap.Logger) (Backend, error) {
	switch eff.Mode {
	case config.ModeSSH:
		return NewSSH(eff.Host, eff.SSHUser, eff.SSHKey, eff.HostDir, logger), nil
	case config.ModePortainer:
		return NewPortainer(eff.Host, eff.APIKey, logger), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", eff.Mode)
	}
}
