package progress

import (
	"os"

	"golang.org/x/term"
)

// Capabilities describes the terminal progress is drawn on.
type Capabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
}

// Detect inspects stderr, where progress is written. NO_COLOR disables color
// and STRAPI_PLUGIN_ASCII=1 forces ASCII symbols.
func Detect() Capabilities {
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))
	return Capabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && os.Getenv("NO_COLOR") == "",
		SupportsUnicode: isTTY && os.Getenv("STRAPI_PLUGIN_ASCII") != "1",
	}
}

// Symbols are the marks drawn for finished tasks.
type Symbols struct {
	Success    string
	Failure    string
	SpinnerSet int
}

// SelectSymbols picks unicode or ASCII marks.
func SelectSymbols(caps Capabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{Success: "✔", Failure: "✖", SpinnerSet: 14}
	}
	return Symbols{Success: "[OK]", Failure: "[FAIL]", SpinnerSet: 9}
}

func successMark(s Symbols, color bool) string {
	if color {
		return "\033[32m" + s.Success + "\033[0m"
	}
	return s.Success
}

func failureMark(s Symbols, color bool) string {
	if color {
		return "\033[31m" + s.Failure + "\033[0m"
	}
	return s.Failure
}
