package networkmanager

import (
	"context"
	"errors"
	"fmt"
)

// Failure kinds of a probe. A *ProbeError matches its kind with errors.Is.
var (
	// ErrProcessLaunch means the echo-test utility could not be started.
	ErrProcessLaunch = errors.New("echo-test utility could not be started")
	// ErrParse means the utility ran but printed neither a loss nor an RTT
	// summary. An unreachable host that prints no summary and an unknown
	// output format look the same here.
	ErrParse = errors.New("no loss or RTT summary in echo-test output")
	// ErrNoRTT means the probe ran but no RTT summary line was found.
	ErrNoRTT = errors.New("no RTT summary line in echo-test output")
	// ErrNoLoss means the probe ran but no packet loss line was found.
	ErrNoLoss = errors.New("no packet loss line in echo-test output")

	ErrInvalidCount = errors.New("packet count must be positive")
	ErrInvalidHost  = errors.New("invalid target host")
)

// ProbeError reports why a probe against Host produced no value.
type ProbeError struct {
	Host string
	Kind error
	Err  error
}

func (e *ProbeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("probe %s: %v: %v", e.Host, e.Kind, e.Err)
	}
	return fmt.Sprintf("probe %s: %v", e.Host, e.Kind)
}

func (e *ProbeError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ProbeResult holds what was extracted from one run of the echo-test utility.
// HasLoss and HasRTT tell whether the matching summary line was seen; a zero
// LossPercent with HasLoss set is a real 0% loss.
type ProbeResult struct {
	Address string

	Transmitted int
	Received    int
	LossPercent float64
	HasLoss     bool

	RTTMin  float64 // milliseconds
	RTTAvg  float64 // milliseconds
	RTTMax  float64 // milliseconds
	RTTMdev float64 // milliseconds, only when HasMdev
	HasRTT  bool
	HasMdev bool

	// ExitCode of the utility. Informational: ping exits non-zero on packet
	// loss alone.
	ExitCode int
}

// Success reports whether at least one summary line was parsed.
func (r ProbeResult) Success() bool {
	return r.HasLoss || r.HasRTT
}

// Latency returns the mean round-trip time in milliseconds.
func (r ProbeResult) Latency() (float64, error) {
	if !r.HasRTT {
		return 0, &ProbeError{Host: r.Address, Kind: ErrNoRTT}
	}
	return r.RTTAvg, nil
}

// Loss returns the packet loss percentage.
func (r ProbeResult) Loss() (float64, error) {
	if !r.HasLoss {
		return 0, &ProbeError{Host: r.Address, Kind: ErrNoLoss}
	}
	return r.LossPercent, nil
}

// NetworkManager measures reachability of a target with an external
// echo-test utility.
type NetworkManager interface {
	// Probe runs the utility once and parses its report.
	Probe(ctx context.Context, host string, count int) (ProbeResult, error)

	MeasureLatency(ctx context.Context, host string, count int) (float64, error)
	MeasureLoss(ctx context.Context, host string, count int) (float64, error)
}
