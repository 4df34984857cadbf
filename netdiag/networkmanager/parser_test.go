package networkmanager

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iputilsOutput = `PING example.com (93.184.216.34) 56(84) bytes of data.
64 bytes from 93.184.216.34: icmp_seq=1 ttl=56 time=11.0 ms
64 bytes from 93.184.216.34: icmp_seq=2 ttl=56 time=11.4 ms
64 bytes from 93.184.216.34: icmp_seq=3 ttl=56 time=10.1 ms
64 bytes from 93.184.216.34: icmp_seq=4 ttl=56 time=12.3 ms

--- example.com ping statistics ---
4 packets transmitted, 4 received, 0% packet loss, time 3004ms
rtt min/avg/max/mdev = 10.1/11.2/12.3/0.4 ms
`

const bsdOutput = `PING example.com (93.184.216.34): 56 data bytes
64 bytes from 93.184.216.34: icmp_seq=0 ttl=56 time=14.125 ms
64 bytes from 93.184.216.34: icmp_seq=1 ttl=56 time=16.301 ms
Request timeout for icmp_seq 2

--- example.com ping statistics ---
3 packets transmitted, 2 packets received, 33.3% packet loss
round-trip min/avg/max/stddev = 14.125/15.213/16.301/1.088 ms
`

const busyboxOutput = `PING 10.0.0.1 (10.0.0.1): 56 data bytes
64 bytes from 10.0.0.1: seq=0 ttl=64 time=5.000 ms

--- 10.0.0.1 ping statistics ---
2 packets transmitted, 2 packets received, 0% packet loss
round-trip min/avg/max = 5.0/6.0/7.0 ms
`

const unreachableOutput = `PING 10.255.255.1 (10.255.255.1) 56(84) bytes of data.
From 10.0.0.1 icmp_seq=1 Destination Host Unreachable

--- 10.255.255.1 ping statistics ---
4 packets transmitted, 0 received, +4 errors, 100% packet loss, time 3055ms
`

// parseReport feeds a complete report through a Parser, the way Probe does
// while the utility streams.
func parseReport(report string) (ProbeResult, error) {
	var p Parser
	for _, line := range strings.Split(report, "\n") {
		p.ParseLine(line)
	}
	result := p.Result()
	if !result.Success() {
		return result, &ProbeError{Kind: ErrParse}
	}
	return result, nil
}

func parseLines(lines ...string) ProbeResult {
	var p Parser
	for _, line := range lines {
		p.ParseLine(line)
	}
	return p.Result()
}

func TestParseLossLayouts(t *testing.T) {
	cases := []struct {
		line        string
		transmitted int
		received    int
		loss        float64
	}{
		{"4 packets transmitted, 4 received, 0% packet loss, time 3004ms", 4, 4, 0},
		{"4 packets transmitted, 0 received, +4 errors, 100% packet loss, time 3055ms", 4, 0, 100},
		{"5 packets transmitted, 4 received, +1 duplicates, 20% packet loss, time 4005ms", 5, 4, 20},
		{"3 packets transmitted, 2 packets received, 33.3% packet loss", 3, 2, 33.3},
		{"1 packets transmitted, 0 packets received, 100.0% packet loss", 1, 0, 100},
		{"10 packets transmitted, 10 packets received, 0.0% packet loss", 10, 10, 0},
	}

	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			r := parseLines(tc.line)
			require.True(t, r.HasLoss)
			assert.Equal(t, tc.transmitted, r.Transmitted)
			assert.Equal(t, tc.received, r.Received)
			assert.Equal(t, tc.loss, r.LossPercent)
			assert.False(t, r.HasRTT)
		})
	}
}

func TestParseRTTLayouts(t *testing.T) {
	r := parseLines("rtt min/avg/max/mdev = 10.1/11.2/12.3/0.4 ms")
	require.True(t, r.HasRTT)
	assert.Equal(t, 11.2, r.RTTAvg)
	assert.Equal(t, 10.1, r.RTTMin)
	assert.Equal(t, 12.3, r.RTTMax)
	assert.True(t, r.HasMdev)
	assert.Equal(t, 0.4, r.RTTMdev)

	r = parseLines("round-trip min/avg/max = 5.0/6.0/7.0 ms")
	require.True(t, r.HasRTT)
	assert.Equal(t, 6.0, r.RTTAvg)
	assert.False(t, r.HasMdev)

	r = parseLines("round-trip min/avg/max/stddev = 14.125/15.213/16.301/1.088 ms")
	require.True(t, r.HasRTT)
	assert.Equal(t, 15.213, r.RTTAvg)
}

func TestParseIgnoresNonSummaryLines(t *testing.T) {
	r := parseLines(
		"PING example.com (93.184.216.34) 56(84) bytes of data.",
		"64 bytes from 93.184.216.34: icmp_seq=1 ttl=56 time=11.0 ms",
		"rtt without an equals sign",
		"round-trip min/avg/max = n/a",
		"something about packet loss but no numbers",
	)
	assert.False(t, r.Success())
}

func TestParseKeepsFirstSummary(t *testing.T) {
	r := parseLines(
		"4 packets transmitted, 3 received, 25% packet loss, time 3004ms",
		"4 packets transmitted, 4 received, 0% packet loss, time 3004ms",
		"rtt min/avg/max/mdev = 1.0/2.0/3.0/0.5 ms",
		"rtt min/avg/max/mdev = 9.0/9.0/9.0/0.0 ms",
	)
	assert.Equal(t, 25.0, r.LossPercent)
	assert.Equal(t, 2.0, r.RTTAvg)
}

func TestParseLineWithBothSummaries(t *testing.T) {
	r := parseLines("1 packets transmitted, 1 received, 0% packet loss; rtt min/avg/max/mdev = 1.5/2.5/3.5/0.1 ms")
	assert.True(t, r.HasLoss)
	assert.True(t, r.HasRTT)
	assert.Equal(t, 2.5, r.RTTAvg)
}

func TestParseReportFormats(t *testing.T) {
	r, err := parseReport(iputilsOutput)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r.LossPercent)
	assert.True(t, r.HasLoss)
	assert.Equal(t, 11.2, r.RTTAvg)

	r, err = parseReport(bsdOutput)
	require.NoError(t, err)
	assert.Equal(t, 33.3, r.LossPercent)
	assert.Equal(t, 15.213, r.RTTAvg)

	r, err = parseReport(busyboxOutput)
	require.NoError(t, err)
	assert.Equal(t, 6.0, r.RTTAvg)

	r, err = parseReport(unreachableOutput)
	require.NoError(t, err)
	assert.True(t, r.HasLoss)
	assert.Equal(t, 100.0, r.LossPercent)
	assert.False(t, r.HasRTT)
}

func TestParseReportNoSummary(t *testing.T) {
	_, err := parseReport("ping: unknown host nowhere.invalid\n")
	assert.ErrorIs(t, err, ErrParse)
}

func TestParseReportIsDeterministic(t *testing.T) {
	first, err := parseReport(iputilsOutput)
	require.NoError(t, err)
	second, err := parseReport(iputilsOutput)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResultAccessors(t *testing.T) {
	r := ProbeResult{Address: "example.com", HasLoss: true, LossPercent: 0}
	loss, err := r.Loss()
	require.NoError(t, err)
	assert.Equal(t, 0.0, loss)

	_, err = r.Latency()
	assert.ErrorIs(t, err, ErrNoRTT)

	_, err = ProbeResult{HasRTT: true}.Loss()
	assert.ErrorIs(t, err, ErrNoLoss)
}
