package logx

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
)

var enableColor = isatty.IsTerminal(os.Stdout.Fd()) && strings.TrimSpace(os.Getenv("NO_COLOR")) == ""

func ColorEnabled() bool { return enableColor }

const (
	reset  = "\x1b[0m"
	red    = "\x1b[31m"
	green  = "\x1b[32m"
	yellow = "\x1b[33m"
	cyan   = "\x1b[36m"
)

func ColorizeStatus(status int, color bool) string {
	s := strconv.Itoa(status)
	if !color {
		return s
	}
	switch {
	case status >= 200 && status < 300:
		return green + s + reset
	case status >= 300 && status < 400:
		return cyan + s + reset
	case status >= 400 && status < 500:
		return yellow + s + reset
	default:
		return red + s + reset
	}
}

// FormatRequestLine renders one access log line.
//
// Example:
// [DEV] 2026/01/26 - 17:44:22 | 200 | 1.2ms | 127.0.0.1 | GET "/@modules/vue" | resolved=/node_modules/vue/dist/vue.esm.js type=application/javascript
func FormatRequestLine(
	ts time.Time,
	status int,
	latency time.Duration,
	clientIP string,
	method string,
	path string,
	fields map[string]any,
	color bool,
) string {
	base := fmt.Sprintf(
		`[DEV] %s | %s | %s | %s | %s %q`,
		ts.Format("2006/01/02 - 15:04:05"),
		ColorizeStatus(status, color),
		roundLatency(latency).String(),
		strings.TrimSpace(clientIP),
		strings.TrimSpace(method),
		path,
	)
	extra := formatFields(fields)
	if extra == "" {
		return base
	}
	return base + " | " + extra
}

func roundLatency(d time.Duration) time.Duration {
	switch {
	case d >= time.Second:
		return d.Round(time.Millisecond)
	case d >= time.Millisecond:
		return d.Round(100 * time.Microsecond)
	default:
		return d.Round(time.Microsecond)
	}
}

// formatFields renders key=value pairs sorted by key, with "error" last so
// long messages do not hide the other fields. Empty values are skipped.
func formatFields(fields map[string]any) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != "error" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := fields["error"]; ok {
		keys = append(keys, "error")
	}

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		s := formatValue(fields[k])
		if s == "" {
			continue
		}
		parts = append(parts, k+"="+s)
	}
	return strings.Join(parts, " ")
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(t)
		if strings.ContainsAny(s, " \t\n") {
			return strconv.Quote(s)
		}
		return s
	case error:
		return strconv.Quote(t.Error())
	default:
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "<nil>" {
			return ""
		}
		return s
	}
}
