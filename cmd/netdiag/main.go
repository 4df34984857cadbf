package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	multierror "github.com/hashicorp/go-multierror"
	"github.com/steelcutops/netdiag/logger"
	"github.com/steelcutops/netdiag/netdiag/host"
	"github.com/steelcutops/netdiag/netdiag/interfacemanager"
	"github.com/steelcutops/netdiag/netdiag/networkmanager"

	"golang.org/x/term"
)

// maxHostLen bounds the target token read from the operator.
const maxHostLen = 63

var programLevel = new(slog.LevelVar)

type flags struct {
	Count          int
	Debug          bool
	Host           string
	KeyPassPrompt  bool
	LogFileName    string
	PasswordPrompt bool
	Username       string
	Via            string
}

func parseFlags(args []string, output io.Writer) (*flags, error) {
	f := &flags{}
	fs := flag.NewFlagSet("netdiag", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug log level")
	fs.BoolVar(&f.KeyPassPrompt, "keypass", false, "Passphrase for decrypting SSH keys")
	fs.BoolVar(&f.PasswordPrompt, "password", false, "Use a password for the SSH connection to the vantage host")
	fs.IntVar(&f.Count, "count", 4, "Number of echo requests to send")
	fs.StringVar(&f.Host, "host", "", "Target host; read from standard input when empty")
	fs.StringVar(&f.LogFileName, "log", "", "Write diagnostics to this file instead of stderr")
	fs.StringVar(&f.Username, "username", "", "Username to use for the SSH connection")
	fs.StringVar(&f.Via, "via", "", "Run the echo-test utility on this host over SSH instead of locally")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.Count <= 0 {
		return nil, fmt.Errorf("-count must be positive, got %d", f.Count)
	}
	return f, nil
}

// configureLogger installs the slog default and returns the logger used by
// the command. With -log both go to the file; the command's own entries are
// written by logrus.
func configureLogger(f *flags, stderr io.Writer) (logger.Logger, func(), error) {
	if f.Debug {
		programLevel.Set(slog.LevelDebug)
	} else {
		programLevel.Set(slog.LevelInfo)
	}

	if f.LogFileName == "" {
		l := logger.New(stderr, programLevel)
		slog.SetDefault(l.(*logger.StdLogger).Slog())
		return l, func() {}, nil
	}

	file, err := os.OpenFile(f.LogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(file, &slog.HandlerOptions{Level: programLevel})))
	return logger.NewLogrus(file, f.Debug), func() { file.Close() }, nil
}

func readPasswords(f *flags) (password, keyPass string) {
	if f.PasswordPrompt {
		fmt.Print("Enter the password: ")
		passwordBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			slog.Error("Failed to read password", "error", err)
		}
		password = string(passwordBytes)
		fmt.Println()
	}

	if f.KeyPassPrompt {
		fmt.Print("Enter the key passphrase: ")
		keyPassBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			slog.Error("Failed to read key passphrase", "error", err)
		}
		keyPass = string(keyPassBytes)
		fmt.Println()
	}
	return
}

func buildHostOptions(f *flags, password, keyPass string) []host.HostOption {
	var options []host.HostOption
	if f.Username != "" {
		options = append(options, host.WithUser(f.Username))
	}
	if password != "" {
		options = append(options, host.WithPassword(password))
	}
	if keyPass != "" {
		options = append(options, host.WithKeyPassphrase(keyPass))
	}
	return options
}

// readTarget reads one whitespace-delimited token, cut to maxHostLen.
func readTarget(r io.Reader) (string, error) {
	var target string
	if _, err := fmt.Fscan(r, &target); err != nil {
		return "", err
	}
	if len(target) > maxHostLen {
		target = target[:maxHostLen]
	}
	return target, nil
}

type diagnostics struct {
	out        io.Writer
	log        logger.Logger
	interfaces interfacemanager.InterfaceManager
	network    networkmanager.NetworkManager
	count      int
}

func (d *diagnostics) listInterfaces() error {
	if err := interfacemanager.Report(d.out, d.interfaces); err != nil {
		d.log.Error("Failed to list interface addresses", "error", err)
		return err
	}
	return nil
}

// probe runs the echo-test utility once and reports both metrics from that
// single run. Probe failures are reported and never abort the run.
func (d *diagnostics) probe(ctx context.Context, target string) error {
	d.log.Debug("Probing target", "host", target, "count", d.count)
	result, err := d.network.Probe(ctx, target, d.count)
	if err != nil {
		d.log.Warn("Probe failed", "host", target, "error", err)
	}

	var errs *multierror.Error
	errs = multierror.Append(errs, reportLatency(d.out, target, result, err))
	errs = multierror.Append(errs, reportLoss(d.out, target, result, err))
	return errs.ErrorOrNil()
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	f, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	log, closeLog, err := configureLogger(f, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open log file: %v\n", err)
		return 2
	}
	defer closeLog()

	password, keyPass := readPasswords(f)
	vantage, err := host.NewHost(f.Via, buildHostOptions(f, password, keyPass)...)
	if err != nil {
		log.Error("Failed to configure vantage host", "host", f.Via, "error", err)
		return 2
	}

	d := &diagnostics{
		out:        stdout,
		log:        log,
		interfaces: &interfacemanager.UnixInterfaceManager{},
		network:    vantage.NetworkManager,
		count:      f.Count,
	}

	var result *multierror.Error
	if err := d.listInterfaces(); err != nil {
		result = multierror.Append(result, err)
	}

	target := f.Host
	if target == "" {
		fmt.Fprint(stdout, "\nEnter the host to test: ")
		target, err = readTarget(stdin)
		if err != nil {
			fmt.Fprintln(stdout, "Invalid input.")
			return 1
		}
	} else if len(target) > maxHostLen {
		target = target[:maxHostLen]
	}

	if err := d.probe(ctx, target); err != nil {
		result = multierror.Append(result, err)
	}

	logOutcome(log, result)
	return 0
}

// logOutcome records every measurement that could not be taken. The user has
// already seen a notice for each, so this only goes to the debug log.
func logOutcome(log logger.Logger, result *multierror.Error) {
	if err := result.ErrorOrNil(); err != nil {
		log.Debug("Run finished with unavailable measurements", "count", len(result.Errors), "error", err)
	}
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	cancel()
	os.Exit(code)
}
