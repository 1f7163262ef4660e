package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/luamagic/luamagic/internal/compiler/scanner"
	"github.com/luamagic/luamagic/runtime/binding"
)

// ErrorLevel represents the severity of an error message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	Hint         string
	HelpCommands []string
	NoColor      bool
}

func (l ErrorLevel) style() (header, body *color.Color, symbol string) {
	switch l {
	case ErrorLevelWarning:
		return color.New(color.FgYellow, color.Bold), color.New(color.FgYellow), "⚠️"
	case ErrorLevelInfo:
		return color.New(color.FgCyan, color.Bold), color.New(color.FgCyan), "ℹ️"
	default:
		return color.New(color.FgRed, color.Bold), color.New(color.FgRed), "❌"
	}
}

func colored(noColor bool, attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	if noColor {
		c.DisableColor()
	}
	return c
}

// FormatError creates a standardized error message
//
// Example output:
//
//	❌ GENERATE FAILED: 2 errors in ./game
//	   player.go:12:2: type Player: [DCL101] field 'hp' is already declared on Player
//	   status.go:9:1: compile Ghost: [CMP201] type Ghost was never declared
//
//	   → Inspect declarations: luamagic inspect ./game
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	headerColor, bodyColor, symbol := opts.Level.style()
	if opts.NoColor {
		headerColor.DisableColor()
		bodyColor.DisableColor()
	}

	if opts.Context != "" {
		headerColor.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(opts.Context), opts.Problem)
	} else {
		headerColor.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, line := range opts.Details {
		bodyColor.Fprintf(&b, "   %s\n", line)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		colored(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if opts.Hint != "" {
		b.WriteString("\n")
		colored(opts.NoColor, color.FgYellow).Fprintf(&b, "   Hint: %s\n", opts.Hint)
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := colored(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return colored(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// describe splits err into detail lines and the first suggestion a
// *binding.Error carries. Scanner error lists yield one line per error.
func describe(err error) (details []string, hint string) {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		for _, e := range list {
			details = append(details, e.Error())
			if hint == "" {
				hint = suggestionOf(e)
			}
		}
		return details, hint
	}
	return []string{err.Error()}, suggestionOf(err)
}

func suggestionOf(err error) string {
	var be *binding.Error
	if errors.As(err, &be) {
		return be.Suggestion
	}
	return ""
}

func countErrors(err error) int {
	var list scanner.ErrorList
	if errors.As(err, &list) {
		return len(list)
	}
	return 1
}

// GenerateError creates a standardized code generation error
func GenerateError(dir string, err error, noColor bool) string {
	details, hint := describe(err)
	problem := "1 error in " + dir
	if n := countErrors(err); n > 1 {
		problem = fmt.Sprintf("%d errors in %s", n, dir)
	}
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "GENERATE FAILED",
		Problem: problem,
		Details: details,
		Hint:    hint,
		HelpCommands: []string{
			"Inspect declarations: luamagic inspect " + dir,
			"Get help: luamagic generate --help",
		},
		NoColor: noColor,
	})
}

// ScriptError creates a standardized Lua script error
func ScriptError(script string, err error, noColor bool) string {
	details, hint := describe(err)
	return FormatError(ErrorOptions{
		Level:        ErrorLevelError,
		Context:      "SCRIPT FAILED",
		Problem:      script,
		Details:      details,
		Hint:         hint,
		HelpCommands: []string{"Get help: luamagic run --help"},
		NoColor:      noColor,
	})
}

// TypeNotFoundError creates a standardized unknown type error
func TypeNotFoundError(typeName string, suggestions []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:       ErrorLevelError,
		Context:     "TYPE NOT FOUND",
		Problem:     fmt.Sprintf("No bound type '%s'.", typeName),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See all bound types: luamagic inspect",
		},
		NoColor: noColor,
	})
}

// ConfigError creates a standardized configuration error
func ConfigError(err error, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelError,
		Context: "CONFIGURATION ERROR",
		Problem: err.Error(),
		HelpCommands: []string{
			"Write a default config: luamagic init",
			"Get help: luamagic --help",
		},
		NoColor: noColor,
	})
}

// Warning creates a standardized warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelWarning,
		Problem: message,
		NoColor: noColor,
	})
}

// Info creates a standardized info message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
