package host

import "github.com/steelcutops/netdiag/netdiag/commandmanager"

type HostOption func(*Host)

// WithUser returns a HostOption that sets the user for a Host.
func WithUser(user string) HostOption {
	return func(host *Host) {
		host.User = user
	}
}

// WithPassword returns a HostOption that sets the password for a Host.
func WithPassword(password string) HostOption {
	return func(host *Host) {
		host.Password = password
	}
}

// WithKeyPassphrase returns a HostOption that sets the key passphrase for a Host.
func WithKeyPassphrase(keyPassphrase string) HostOption {
	return func(host *Host) {
		host.KeyPassphrase = keyPassphrase
	}
}

// WithSSHClient sets the dialer used to reach a remote Host.
func WithSSHClient(client commandmanager.SSHDialer) HostOption {
	return func(host *Host) {
		host.SSHClient = client
	}
}

// WithCommandManager replaces the command manager, mostly for tests.
func WithCommandManager(manager commandmanager.CommandManager) HostOption {
	return func(host *Host) {
		host.CommandManager = manager
	}
}
