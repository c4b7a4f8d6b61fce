package logx

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestFormatFields_SortedErrorLast(t *testing.T) {
	out := formatFields(map[string]any{
		"type":     "application/javascript",
		"error":    errors.New("resolve \"vue\": no matching package"),
		"resolved": "/node_modules/vue/index.js",
		"empty":    "  ",
		"nil":      nil,
	})
	want := `resolved=/node_modules/vue/index.js type=application/javascript error="resolve \"vue\": no matching package"`
	if out != want {
		t.Fatalf("out=%q\nwant=%q", out, want)
	}
}

func TestFormatRequestLine_NoColor(t *testing.T) {
	ts := time.Date(2026, 1, 26, 17, 44, 22, 0, time.UTC)
	line := FormatRequestLine(ts, 404, 1234567*time.Nanosecond, " 127.0.0.1 ", "GET", "/missing.js", nil, false)
	want := `[DEV] 2026/01/26 - 17:44:22 | 404 | 1.2ms | 127.0.0.1 | GET "/missing.js"`
	if line != want {
		t.Fatalf("line=%q\nwant=%q", line, want)
	}
}

func TestColorizeStatus(t *testing.T) {
	if got := ColorizeStatus(200, true); !strings.HasPrefix(got, green) || !strings.HasSuffix(got, reset) {
		t.Fatalf("200 colored=%q", got)
	}
	if got := ColorizeStatus(500, true); !strings.HasPrefix(got, red) {
		t.Fatalf("500 colored=%q", got)
	}
	if got := ColorizeStatus(404, false); got != "404" {
		t.Fatalf("uncolored=%q", got)
	}
}
