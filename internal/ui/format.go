// Package ui prints status lines and runs interactive prompts.
package ui

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"

	"grocerybi/pkg/errors"

	"github.com/mattn/go-isatty"
	"github.com/mgutz/ansi"
)

var (
	mu sync.RWMutex

	// supportsColor is true when stdout is a terminal
	supportsColor = isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	colorDisabled bool

	output io.Writer = os.Stdout

	ColorSuccess  = colorFunc(ansi.Green)
	ColorError    = colorFunc(ansi.Red)
	ColorWarning  = colorFunc(ansi.Yellow)
	ColorInfo     = colorFunc(ansi.Cyan)
	ColorProgress = colorFunc(ansi.Blue)
	ColorBold     = colorFunc("default+b")
	ColorDim      = colorFunc("default+h")
)

// DisableColor turns color off regardless of the terminal
func DisableColor(disabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colorDisabled = disabled
}

// ColorEnabled reports whether status lines are colored
func ColorEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return supportsColor && !colorDisabled
}

// SetOutput redirects status lines, returning the previous writer
func SetOutput(w io.Writer) io.Writer {
	mu.Lock()
	defer mu.Unlock()
	prev := output
	output = w
	return prev
}

func out() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return output
}

func colorFunc(color string) func(string) string {
	return func(text string) string {
		if ColorEnabled() {
			return ansi.Color(text, color)
		}
		return text
	}
}

// ShowHeader displays a framed title
func ShowHeader(title string) {
	width := len(title) + 6
	if width < 50 {
		width = 50
	}
	padding := (width - len(title) - 2) / 2

	w := out()
	fmt.Fprintln(w, "\n+"+strings.Repeat("-", width-2)+"+")
	fmt.Fprintf(w, "|%s%s%s|\n",
		strings.Repeat(" ", padding),
		ColorBold(title),
		strings.Repeat(" ", width-2-padding-len(title)),
	)
	fmt.Fprintln(w, "+"+strings.Repeat("-", width-2)+"+")
}

// ShowError prints an error with its code, context and suggestions
func ShowError(err error) {
	w := out()

	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		fmt.Fprintf(w, "%s %s\n", ColorError("ERROR:"), err.Error())
		return
	}

	fmt.Fprintf(w, "%s [%s] %s\n", ColorError("ERROR:"), appErr.Code, appErr.Message)
	if appErr.Cause != nil {
		fmt.Fprintf(w, "  %s\n", ColorDim("cause: "+appErr.Cause.Error()))
	}
	for _, key := range sortedKeys(appErr.Context) {
		fmt.Fprintf(w, "  %s\n", ColorDim(fmt.Sprintf("%s: %v", key, appErr.Context[key])))
	}
	for _, s := range appErr.Suggestions {
		fmt.Fprintf(w, "  %s %s\n", ColorInfo("TIP:"), s)
	}
}

// ShowSuccess displays a success message
func ShowSuccess(message string) {
	fmt.Fprintf(out(), "%s %s\n", ColorSuccess("SUCCESS:"), message)
}

// ShowWarning displays a warning message
func ShowWarning(message string) {
	fmt.Fprintf(out(), "%s %s\n", ColorWarning("WARNING:"), ColorWarning(message))
}

// ShowInfo displays an info message
func ShowInfo(message string) {
	fmt.Fprintf(out(), "%s %s\n", ColorInfo("INFO:"), message)
}

// KeyValue prints aligned label/value pairs
func KeyValue(pairs ...[2]string) {
	width := 0
	for _, p := range pairs {
		if len(p[0]) > width {
			width = len(p[0])
		}
	}
	w := out()
	for _, p := range pairs {
		fmt.Fprintf(w, "  %s %s\n", ColorBold(fmt.Sprintf("%-*s", width+1, p[0]+":")), p[1])
	}
}

// Mask hides all but the last two characters of a secret
func Mask(secret string) string {
	if secret == "" {
		return ColorDim("(not set)")
	}
	if len(secret) <= 2 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-2) + secret[len(secret)-2:]
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
