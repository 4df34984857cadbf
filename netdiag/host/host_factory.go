package host

import (
	"fmt"
	"log/slog"
	"os/user"

	"github.com/steelcutops/netdiag/netdiag/commandmanager"
	"github.com/steelcutops/netdiag/netdiag/networkmanager"
)

// NewHost builds the managers for hostname. An empty hostname means the
// local machine.
func NewHost(hostname string, options ...HostOption) (*Host, error) {
	h := &Host{Hostname: hostname}

	for _, option := range options {
		option(h)
	}

	if !h.IsLocal() {
		if err := setDefaultUserIfEmpty(h); err != nil {
			return nil, err
		}
		if h.SSHClient == nil {
			h.SSHClient = RealSSHClient{}
		}
	}

	if h.CommandManager == nil {
		h.CommandManager = &commandmanager.UnixCommandManager{
			Hostname:    hostname,
			SSHClient:   h.SSHClient,
			Credentials: h.Credentials,
		}
	}
	h.NetworkManager = &networkmanager.UnixNetworkManager{CommandManager: h.CommandManager}

	slog.Debug("Host configured", "hostname", hostname, "local", h.IsLocal())
	return h, nil
}

func setDefaultUserIfEmpty(h *Host) error {
	if h.User != "" {
		return nil
	}
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("could not get current user: %w", err)
	}
	h.User = currentUser.Username
	return nil
}
