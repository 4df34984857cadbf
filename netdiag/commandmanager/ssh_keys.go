package commandmanager

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
)

// ErrNoKeys is returned when no usable private key was found.
var ErrNoKeys = errors.New("no usable SSH private keys")

type SSHKeyManager interface {
	ReadPrivateKeys(keyPassphrase string) ([]ssh.Signer, error)
}

// FileSSHKeyManager loads id_* keys from Dir, or ~/.ssh when Dir is empty.
type FileSSHKeyManager struct {
	Dir string
}

type AgentSSHKeyManager struct{}

func (km AgentSSHKeyManager) ReadPrivateKeys(_ string) ([]ssh.Signer, error) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, fmt.Errorf("SSH_AUTH_SOCK not set")
	}

	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("could not connect to SSH agent: %w", err)
	}
	defer conn.Close()

	signers, err := agent.NewClient(conn).Signers()
	if err != nil {
		return nil, fmt.Errorf("could not get signers from SSH agent: %w", err)
	}
	if len(signers) == 0 {
		return nil, fmt.Errorf("SSH agent: %w", ErrNoKeys)
	}

	return signers, nil
}

func (km FileSSHKeyManager) keyDir() (string, error) {
	if km.Dir != "" {
		return km.Dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".ssh"), nil
}

func (km FileSSHKeyManager) ReadPrivateKeys(keyPassphrase string) ([]ssh.Signer, error) {
	dir, err := km.keyDir()
	if err != nil {
		return nil, err
	}

	files, err := filepath.Glob(filepath.Join(dir, "id_*"))
	if err != nil {
		return nil, err
	}

	var signers []ssh.Signer
	for _, file := range files {
		if strings.HasSuffix(file, ".pub") {
			continue
		}

		keyBytes, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}

		var signer ssh.Signer
		if keyPassphrase != "" {
			signer, err = ssh.ParsePrivateKeyWithPassphrase(keyBytes, []byte(keyPassphrase))
		} else {
			signer, err = ssh.ParsePrivateKey(keyBytes)
		}
		if err != nil {
			// wrong passphrase or not a key; try the next file
			continue
		}

		signers = append(signers, signer)
	}

	if len(signers) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoKeys)
	}

	return signers, nil
}
