package host

import (
	"time"

	"github.com/steelcutops/netdiag/netdiag/commandmanager"
	"github.com/steelcutops/netdiag/netdiag/common"
	"github.com/steelcutops/netdiag/netdiag/networkmanager"
	"golang.org/x/crypto/ssh"
)

// Host is the machine the echo-test utility runs on: the local machine, or a
// remote vantage point reached over SSH.
type Host struct {
	Hostname string
	common.Credentials
	SSHClient commandmanager.SSHDialer

	CommandManager commandmanager.CommandManager
	NetworkManager networkmanager.NetworkManager
}

// IsLocal reports whether commands run on this machine.
func (h *Host) IsLocal() bool {
	return h.Hostname == "" || h.Hostname == "localhost" || h.Hostname == "127.0.0.1"
}

type RealSSHClient struct{}

func (RealSSHClient) Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error) {
	config.Timeout = timeout
	return ssh.Dial(network, addr, config)
}
