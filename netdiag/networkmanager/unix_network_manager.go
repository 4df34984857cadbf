package networkmanager

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	cm "github.com/steelcutops/netdiag/netdiag/commandmanager"
)

const defaultPingCommand = "ping"

type UnixNetworkManager struct {
	CommandManager cm.CommandManager

	// PingCommand overrides the echo-test utility, "ping" by default.
	PingCommand string
}

func (unm *UnixNetworkManager) pingConfig(host string, count int) cm.CommandConfig {
	command := unm.PingCommand
	if command == "" {
		command = defaultPingCommand
	}
	return cm.CommandConfig{
		Command: command,
		Args:    []string{"-c", strconv.Itoa(count), host},
	}
}

func validateHost(host string) error {
	if host == "" || strings.HasPrefix(host, "-") || strings.ContainsAny(host, " \t\r\n") {
		return ErrInvalidHost
	}
	return nil
}

// Probe runs "ping -c count host" once, with stderr folded into stdout, and
// parses the report while it streams. The exit status of ping is not a
// failure by itself; only the absence of both summaries is.
func (unm *UnixNetworkManager) Probe(ctx context.Context, host string, count int) (ProbeResult, error) {
	if count <= 0 {
		return ProbeResult{}, &ProbeError{Host: host, Kind: ErrInvalidCount}
	}
	if err := validateHost(host); err != nil {
		return ProbeResult{}, &ProbeError{Host: host, Kind: err}
	}

	var parser Parser
	config := unm.pingConfig(host, count)
	output, err := unm.CommandManager.Stream(ctx, config, parser.ParseLine)
	if err != nil {
		if errors.Is(err, cm.ErrStart) {
			return ProbeResult{}, &ProbeError{Host: host, Kind: ErrProcessLaunch, Err: err}
		}
		if ctx.Err() != nil {
			return ProbeResult{}, err
		}
		// Whatever was read before the failure is still usable.
		slog.Warn("Echo-test output ended with an error", "host", host, "error", err)
	}

	result := parser.Result()
	result.Address = host
	result.ExitCode = output.ExitCode
	slog.Debug("Probe finished", "host", host, "exitCode", output.ExitCode, "hasLoss", result.HasLoss, "hasRTT", result.HasRTT)

	if !result.Success() {
		return result, &ProbeError{Host: host, Kind: ErrParse}
	}
	return result, nil
}

func (unm *UnixNetworkManager) MeasureLatency(ctx context.Context, host string, count int) (float64, error) {
	result, err := unm.Probe(ctx, host, count)
	if err != nil {
		return 0, err
	}
	return result.Latency()
}

func (unm *UnixNetworkManager) MeasureLoss(ctx context.Context, host string, count int) (float64, error) {
	result, err := unm.Probe(ctx, host, count)
	if err != nil {
		return 0, err
	}
	return result.Loss()
}
