// Package command parses inbound request lines into device commands.
package command

import (
	"fmt"
	"net/url"
	"strings"
)

// Command is a recognized state mutation.
type Command string

const (
	None     Command = ""
	AlarmOn  Command = "alarm_on"
	AlarmOff Command = "alarm_off"
	FanOn    Command = "fan_on"
	FanOff   Command = "fan_off"
)

// Priority is the fixed evaluation order. The first match wins.
var Priority = []Command{AlarmOn, AlarmOff, FanOn, FanOff}

// MatchMode selects how tokens are located in a request line.
type MatchMode string

const (
	// MatchSegment requires a token to be a whole path segment or the
	// value of the cmd query parameter.
	MatchSegment MatchMode = "segment"

	// MatchSubstring accepts "GET /<token>" anywhere in the request text.
	MatchSubstring MatchMode = "substring"
)

// ParseMode validates a configured match mode.
func ParseMode(s string) (MatchMode, error) {
	switch MatchMode(s) {
	case MatchSegment, MatchSubstring:
		return MatchMode(s), nil
	case "":
		return MatchSegment, nil
	}
	return "", fmt.Errorf("unknown match mode %q (want %q or %q)", s, MatchSegment, MatchSubstring)
}

// Parse returns the command carried by a request line such as
// "GET /alarm_on HTTP/1.1", or None.
func Parse(line string, mode MatchMode) Command {
	if mode == MatchSubstring {
		return parseSubstring(line)
	}
	return parseSegments(line)
}

func parseSubstring(line string) Command {
	for _, c := range Priority {
		if strings.Contains(line, "GET /"+string(c)) {
			return c
		}
	}
	return None
}

func parseSegments(line string) Command {
	target := line
	if fields := strings.Fields(line); len(fields) >= 2 {
		if fields[0] != "GET" {
			return None
		}
		target = fields[1]
	}

	u, err := url.Parse(target)
	if err != nil {
		return None
	}

	present := make(map[string]bool)
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			present[seg] = true
		}
	}
	for _, v := range u.Query()["cmd"] {
		present[v] = true
	}

	for _, c := range Priority {
		if present[string(c)] {
			return c
		}
	}
	return None
}
