package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// ASCII logo for the application
const ASCIILogo = `
    ╔════════════════════════════════════════════════╗
    ║   ___     _               _    _                ║
    ║  | __| _ (_)___ _ _  __| |__| |_  _ _ __  _ __  ║
    ║  | _| '_|| / -_) ' \/ _' / _' | || | '  \| '_ \ ║
    ║  |_||_|  |_\___|_||_\__,_\__,_|\_,_|_|_|_| .__/ ║
    ║                                          |_|    ║
    ║        FRIENDS GRAPH EXPORT UTILITY             ║
    ╚════════════════════════════════════════════════╝
`

var (
	out     io.Writer = os.Stdout
	colored           = term.IsTerminal(int(os.Stdout.Fd()))
	quiet   bool
)

// SetQuietMode suppresses everything except errors
func SetQuietMode(enabled bool) {
	quiet = enabled
}

// SetColor forces colour output on or off
func SetColor(enabled bool) {
	colored = enabled
}

// SetOutput redirects all printing to w; colour is disabled unless w is a terminal
func SetOutput(w io.Writer) {
	out = w
	f, ok := w.(*os.File)
	colored = ok && term.IsTerminal(int(f.Fd()))
}

// Output returns the writer used for printing
func Output() io.Writer {
	return out
}

// Color functions for terminal output
var (
	Cyan    = colorize("\033[36m%s\033[0m")
	Yellow  = colorize("\033[33m%s\033[0m")
	Red     = colorize("\033[31m%s\033[0m")
	Green   = colorize("\033[32m%s\033[0m")
	Magenta = colorize("\033[35m%s\033[0m")
	Dim     = colorize("\033[2m%s\033[0m")
)

// colorize returns a function that wraps text with ANSI color codes
func colorize(colorString string) func(string) string {
	return func(text string) string {
		if !colored {
			return text
		}
		return fmt.Sprintf(colorString, text)
	}
}

// PrintLogo prints the ASCII logo with color
func PrintLogo() {
	if quiet {
		return
	}
	fmt.Fprint(out, Cyan(ASCIILogo))
}

// PrintError prints an error message in red
func PrintError(msg string, args ...interface{}) {
	if len(args) > 0 && fmt.Sprint(args[0]) != "" {
		fmt.Fprintln(out, Red(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Red(msg))
	}
}

// PrintSuccess prints a success message in green
func PrintSuccess(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, Green(msg))
}

// PrintInfo prints an info message in cyan
func PrintInfo(label string, value string) {
	if quiet {
		return
	}
	fmt.Fprintf(out, "%s: %s\n", Cyan(label), Yellow(value))
}

// PrintWarning prints a warning message in yellow
func PrintWarning(msg string, args ...interface{}) {
	if quiet {
		return
	}
	if len(args) > 0 && fmt.Sprint(args[0]) != "" {
		fmt.Fprintln(out, Yellow(msg+": "+fmt.Sprintf("%v", args[0])))
	} else {
		fmt.Fprintln(out, Yellow(msg))
	}
}

// PrintHighlight prints a highlighted message in magenta
func PrintHighlight(msg string) {
	if quiet {
		return
	}
	fmt.Fprintln(out, Magenta(msg))
}
