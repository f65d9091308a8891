package annotations

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// OutputFormatter renders Events as human-readable, optionally
// colorized lines.
type OutputFormatter struct {
	useColor bool
	writer   io.Writer
}

// NewOutputFormatter builds a formatter writing to w, auto-detecting
// color support when w is a terminal file.
func NewOutputFormatter(w io.Writer) *OutputFormatter {
	if w == nil {
		w = os.Stderr
	}
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isTerminal(f.Fd())
	}
	return &OutputFormatter{useColor: useColor, writer: w}
}

// Handle implements Handler, printing one formatted line per event.
func (f *OutputFormatter) Handle(event Event) {
	if line := f.Format(event); line != "" {
		fmt.Fprintln(f.writer, line)
	}
}

// Format renders a single event.
func (f *OutputFormatter) Format(event Event) string {
	latency := fmt.Sprintf("[%6.2fms]", float64(event.Latency.Microseconds())/1000.0)

	switch event.Name {
	case MinimizeBegin:
		return fmt.Sprintf("%s %s minimizing query with %d body atoms",
			latency, f.colorize("===", color.FgYellow), event.Data["atoms"])

	case AtomRemoved:
		return fmt.Sprintf("%s %s removed redundant atom %s",
			latency, f.colorize("-", color.FgRed), event.Data["atom"])

	case MinimizeComplete:
		return fmt.Sprintf("%s %s core has %d body atoms",
			latency, f.colorize("===", color.FgGreen), event.Data["atoms"])

	case PlanBuilt:
		return fmt.Sprintf("%s %s built plan: %d relation(s), %d join predicate(s)",
			latency, f.colorize("plan", color.FgCyan), event.Data["relations"], event.Data["joins"])

	case PlanCacheHit:
		return fmt.Sprintf("%s %s reused cached plan", latency, f.colorize("plan", color.FgCyan))

	case QueryBegin:
		return fmt.Sprintf("%s %s query: %s",
			latency, f.colorize("===", color.FgYellow), truncate(fmt.Sprint(event.Data["query"])))

	case QueryComplete:
		success, _ := event.Data["success"].(bool)
		if !success {
			return fmt.Sprintf("%s %s query failed: %v",
				latency, f.colorize("x", color.FgRed), event.Data["error"])
		}
		return fmt.Sprintf("%s %s produced %s",
			latency, f.colorize("===", color.FgGreen), f.colorizeCount("tuples", event.Data["tuples"]))

	default:
		return fmt.Sprintf("%s %s", latency, event.Name)
	}
}

func (f *OutputFormatter) colorize(text string, attrs ...color.Attribute) string {
	if !f.useColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func (f *OutputFormatter) colorizeCount(label string, count interface{}) string {
	text := fmt.Sprintf("%v %s", count, label)
	if !f.useColor {
		return text
	}
	return color.MagentaString(text)
}

func truncate(s string) string {
	const maxLen = 80
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// isTerminal reports whether fd is stdout or stderr. A simplified
// stand-in for proper terminal detection (golang.org/x/term).
func isTerminal(fd uintptr) bool {
	return fd == uintptr(1) || fd == uintptr(2)
}
