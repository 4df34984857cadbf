package commandmanager

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/steelcutops/netdiag/netdiag/common"
	"golang.org/x/crypto/ssh"
)

type SSHDialer interface {
	Dial(network, addr string, config *ssh.ClientConfig, timeout time.Duration) (*ssh.Client, error)
}

type UnixCommandManager struct {
	Hostname  string
	SSHClient SSHDialer
	common.Credentials
}

// StreamLocal starts the command with stderr and stdout sharing one pipe and
// scans it line by line until the command closes it.
func (u *UnixCommandManager) StreamLocal(ctx context.Context, config CommandConfig, onLine LineHandler) (CommandResult, error) {
	start := time.Now()

	cmd := exec.CommandContext(ctx, config.Command, config.Args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return CommandResult{Command: config.Command}, fmt.Errorf("%w: %v", ErrStart, err)
	}
	cmd.Stderr = cmd.Stdout

	slog.Debug("Starting local command", "command", config.Command, "args", config.Args)
	if err := cmd.Start(); err != nil {
		return CommandResult{Command: config.Command}, fmt.Errorf("%w: %s: %v", ErrStart, config.Command, err)
	}

	// Wait closes the pipe, so every read has to be done before it is called.
	// After a scan error the rest is drained, or the child blocks on a full pipe.
	scanErr := scanLines(stdout, onLine)
	_, _ = io.Copy(io.Discard, stdout)
	waitErr := cmd.Wait()

	result := CommandResult{
		Command:   config.Command,
		ExitCode:  getExitCode(waitErr),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if scanErr != nil {
		return result, fmt.Errorf("reading output of %s: %w", config.Command, scanErr)
	}

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return result, waitErr
	}
	return result, nil
}

// authMethod prefers the password; otherwise keys come from files when a
// passphrase was given, or from the SSH agent.
func (u *UnixCommandManager) authMethod() (ssh.AuthMethod, error) {
	if u.Password != "" {
		slog.Debug("Using password authentication", "hostname", u.Hostname)
		return ssh.Password(u.Password), nil
	}

	var keyManager SSHKeyManager = AgentSSHKeyManager{}
	if u.KeyPassphrase != "" {
		keyManager = FileSSHKeyManager{}
	}
	slog.Debug("Using public key authentication", "hostname", u.Hostname, "keys", fmt.Sprintf("%T", keyManager))

	keys, err := keyManager.ReadPrivateKeys(u.KeyPassphrase)
	if err != nil {
		return nil, err
	}
	return ssh.PublicKeys(keys...), nil
}

// dial opens an SSH connection to the vantage host. The caller closes the client.
func (u *UnixCommandManager) dial(ctx context.Context) (*ssh.Client, error) {
	if u.SSHClient == nil {
		return nil, errors.New("SSHClient is not initialized")
	}

	auth, err := u.authMethod()
	if err != nil {
		return nil, err
	}
	sshConfig := &ssh.ClientConfig{
		User:            u.User,
		Auth:            []ssh.AuthMethod{auth},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
	}

	dialTimeout := 15 * time.Minute
	if deadline, ok := ctx.Deadline(); ok {
		dialTimeout = time.Until(deadline)
	}

	return u.SSHClient.Dial("tcp", u.Hostname+":22", sshConfig, dialTimeout)
}

func remoteCommandLine(config CommandConfig) string {
	parts := []string{shellQuote(config.Command)}
	for _, arg := range config.Args {
		parts = append(parts, shellQuote(arg))
	}
	return strings.Join(parts, " ")
}

// StreamRemote is the SSH counterpart of StreamLocal. Both output streams of
// the remote command are written into one pipe.
func (u *UnixCommandManager) StreamRemote(ctx context.Context, config CommandConfig, onLine LineHandler) (CommandResult, error) {
	cmdStr := remoteCommandLine(config)
	slog.Debug("Streaming remote command", "hostname", u.Hostname, "command", cmdStr)

	client, err := u.dial(ctx)
	if err != nil {
		return CommandResult{Command: cmdStr}, fmt.Errorf("%w: %v", ErrStart, err)
	}
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return CommandResult{Command: cmdStr}, fmt.Errorf("%w: %v", ErrStart, err)
	}
	defer session.Close()

	pr, pw := io.Pipe()
	session.Stdout = pw
	session.Stderr = pw

	start := time.Now()
	if err := session.Start(cmdStr); err != nil {
		pw.Close()
		return CommandResult{Command: cmdStr}, fmt.Errorf("%w: %v", ErrStart, err)
	}

	stop := context.AfterFunc(ctx, func() { session.Close() })
	defer stop()

	waitCh := make(chan error, 1)
	go func() {
		err := session.Wait()
		pw.Close()
		waitCh <- err
	}()

	scanErr := scanLines(pr, onLine)
	// Drain so the session goroutines never block on a full pipe.
	_, _ = io.Copy(io.Discard, pr)
	waitErr := <-waitCh

	result := CommandResult{
		Command:   cmdStr,
		ExitCode:  getExitCode(waitErr),
		Duration:  time.Since(start),
		Timestamp: start,
	}

	if ctx.Err() != nil {
		return result, ctx.Err()
	}
	if scanErr != nil {
		return result, fmt.Errorf("reading output of %s: %w", cmdStr, scanErr)
	}

	var exitErr *ssh.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return result, waitErr
	}
	return result, nil
}

func (u *UnixCommandManager) Stream(ctx context.Context, config CommandConfig, onLine LineHandler) (CommandResult, error) {
	if u.isLocal() {
		return u.StreamLocal(ctx, config, onLine)
	}
	return u.StreamRemote(ctx, config, onLine)
}

func (u *UnixCommandManager) isLocal() bool {
	return u.Hostname == "" || u.Hostname == "localhost" || u.Hostname == "127.0.0.1"
}

func scanLines(r io.Reader, onLine LineHandler) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		onLine(strings.TrimRight(scanner.Text(), "\r"))
	}
	return scanner.Err()
}

// shellQuote wraps s in single quotes for the remote shell unless it is made
// of characters that never need quoting.
func shellQuote(s string) string {
	if s != "" && strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || strings.ContainsRune("-_./:@%+=,", r))
	}) < 0 {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func getExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitError *exec.ExitError
	if errors.As(err, &exitError) {
		if status, ok := exitError.Sys().(syscall.WaitStatus); ok {
			return status.ExitStatus()
		}
		return exitError.ExitCode()
	}
	var sshExit *ssh.ExitError
	if errors.As(err, &sshExit) {
		return sshExit.ExitStatus()
	}
	return -1
}
