package command

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSegment(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"GET /alarm_on HTTP/1.1", AlarmOn},
		{"GET /alarm_off HTTP/1.1", AlarmOff},
		{"GET /fan_on HTTP/1.1", FanOn},
		{"GET /fan_off HTTP/1.1", FanOff},
		{"GET / HTTP/1.1", None},
		{"GET /index.html HTTP/1.1", None},
		{"GET /favicon.ico HTTP/1.1", None},
		{"GET /panel/fan_on HTTP/1.1", FanOn},
		{"GET /fan_on/ HTTP/1.1", FanOn},
		{"GET /?cmd=alarm_off HTTP/1.1", AlarmOff},
		{"GET /status?cmd=fan_on&x=1 HTTP/1.1", FanOn},
		// Tokens embedded in unrelated segments are not commands.
		{"GET /my_alarm_on_page HTTP/1.1", None},
		{"GET /fan_onion HTTP/1.1", None},
		{"GET /?note=alarm_on HTTP/1.1", None},
		// Only GET dispatches.
		{"POST /alarm_on HTTP/1.1", None},
		// Bare targets are accepted without a method.
		{"/fan_off", FanOff},
		{"", None},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line, MatchSegment))
		})
	}
}

func TestParseSubstring(t *testing.T) {
	tests := []struct {
		line string
		want Command
	}{
		{"GET /alarm_on HTTP/1.1\r\nHost: x\r\n", AlarmOn},
		{"GET /alarm_off HTTP/1.1", AlarmOff},
		{"GET /fan_on HTTP/1.1", FanOn},
		{"GET /fan_off HTTP/1.1", FanOff},
		{"GET / HTTP/1.1", None},
		// Legacy matching accepts prefixes of longer paths.
		{"GET /fan_onion HTTP/1.1", FanOn},
		{"POST /alarm_on HTTP/1.1", None},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line, MatchSubstring))
		})
	}
}

func TestParsePriorityOrder(t *testing.T) {
	// When several tokens appear, the earliest in Priority wins regardless
	// of where it sits in the line.
	tests := []struct {
		name string
		line string
		mode MatchMode
		want Command
	}{
		{"segment fan_off before alarm_on", "GET /fan_off/alarm_on HTTP/1.1", MatchSegment, AlarmOn},
		{"segment alarm_off and fan_on", "GET /fan_on/alarm_off HTTP/1.1", MatchSegment, AlarmOff},
		{"segment query and path", "GET /fan_off?cmd=fan_on HTTP/1.1", MatchSegment, FanOn},
		{"segment all four", "GET /fan_off/fan_on/alarm_off/alarm_on HTTP/1.1", MatchSegment, AlarmOn},
		{"substring referer carries alarm_off", "GET /fan_on HTTP/1.1\r\nX: GET /alarm_off\r\n", MatchSubstring, AlarmOff},
		{"substring on and off", "GET /alarm_off GET /alarm_on", MatchSubstring, AlarmOn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Parse(tt.line, tt.mode))
		})
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("segment")
	require.NoError(t, err)
	assert.Equal(t, MatchSegment, m)

	m, err = ParseMode("substring")
	require.NoError(t, err)
	assert.Equal(t, MatchSubstring, m)

	m, err = ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, MatchSegment, m)

	_, err = ParseMode("regex")
	assert.Error(t, err)
}
