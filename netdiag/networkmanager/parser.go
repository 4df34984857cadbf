package networkmanager

import (
	"regexp"
	"strconv"
	"strings"
)

// Summary layouts differ between ping implementations. Each list is tried in
// order and the first match wins; the order matters since the shorter RTT
// layout is a prefix of the longer one.
var (
	lossLayouts = []*regexp.Regexp{
		// iputils: "4 packets transmitted, 4 received, 0% packet loss, time 3004ms"
		regexp.MustCompile(`(\d+) packets transmitted, (\d+) received,.*?(\d+(?:\.\d+)?)% packet loss`),
		// BSD, macOS, busybox: "4 packets transmitted, 4 packets received, 0.0% packet loss"
		regexp.MustCompile(`(\d+) packets transmitted, (\d+) packets received,.*?(\d+(?:\.\d+)?)% packet loss`),
	}

	rttLayouts = []*regexp.Regexp{
		// min/avg/max/mdev (iputils) or min/avg/max/stddev (BSD)
		regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)/(\d+(?:\.\d+)?)/(\d+(?:\.\d+)?)/(\d+(?:\.\d+)?)`),
		// min/avg/max (busybox)
		regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)/(\d+(?:\.\d+)?)/(\d+(?:\.\d+)?)`),
	}
)

// Parser accumulates a ProbeResult from echo-test output lines. The zero
// value is ready to use.
type Parser struct {
	result ProbeResult
}

// ParseLine feeds one output line. A line may carry both summaries. The first
// loss line and the first RTT line seen are kept.
func (p *Parser) ParseLine(line string) {
	if !p.result.HasLoss && strings.Contains(line, "packet loss") {
		p.parseLoss(line)
	}
	if !p.result.HasRTT && (strings.Contains(line, "rtt ") || strings.Contains(line, "round-trip")) {
		p.parseRTT(line)
	}
}

func (p *Parser) Result() ProbeResult {
	return p.result
}

func (p *Parser) parseLoss(line string) {
	for _, layout := range lossLayouts {
		m := layout.FindStringSubmatch(line)
		if len(m) != 4 {
			continue
		}

		transmitted, err1 := strconv.Atoi(m[1])
		received, err2 := strconv.Atoi(m[2])
		loss, err3 := strconv.ParseFloat(m[3], 64)
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}

		p.result.Transmitted = transmitted
		p.result.Received = received
		p.result.LossPercent = loss
		p.result.HasLoss = true
		return
	}
}

func (p *Parser) parseRTT(line string) {
	eq := strings.IndexByte(line, '=')
	if eq < 0 {
		return
	}
	stats := line[eq+1:]

	for _, layout := range rttLayouts {
		m := layout.FindStringSubmatch(stats)
		if m == nil {
			continue
		}

		values := make([]float64, 0, len(m)-1)
		for _, s := range m[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				break
			}
			values = append(values, v)
		}
		if len(values) != len(m)-1 {
			continue
		}

		p.result.RTTMin = values[0]
		p.result.RTTAvg = values[1]
		p.result.RTTMax = values[2]
		if len(values) == 4 {
			p.result.RTTMdev = values[3]
			p.result.HasMdev = true
		}
		p.result.HasRTT = true
		return
	}
}
