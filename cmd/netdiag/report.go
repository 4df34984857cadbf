package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/steelcutops/netdiag/netdiag/networkmanager"
)

// reportLatency prints the mean RTT line or the notice explaining why there
// is none. probeErr is the error of the probe that produced result.
func reportLatency(w io.Writer, target string, result networkmanager.ProbeResult, probeErr error) error {
	err := probeErr
	var rtt float64
	if err == nil {
		rtt, err = result.Latency()
	}

	switch {
	case err == nil:
		fmt.Fprintf(w, "RTT average for %s = %.2f ms\n", target, rtt)
	case errors.Is(err, networkmanager.ErrNoRTT):
		fmt.Fprintf(w, "Probe ran, but no RTT line found in output for %s\n", target)
	default:
		fmt.Fprintf(w, "Could not obtain latency via echo-test for %s\n", target)
	}
	return err
}

func reportLoss(w io.Writer, target string, result networkmanager.ProbeResult, probeErr error) error {
	err := probeErr
	var loss float64
	if err == nil {
		loss, err = result.Loss()
	}

	switch {
	case err == nil:
		fmt.Fprintf(w, "Packet loss for %s = %.2f%%\n", target, loss)
	case errors.Is(err, networkmanager.ErrNoLoss):
		fmt.Fprintf(w, "Probe ran, but no packet loss line found in output for %s\n", target)
	default:
		fmt.Fprintf(w, "Could not obtain packet loss via echo-test for %s\n", target)
	}
	return err
}
