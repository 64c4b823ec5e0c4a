package style

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/v2"
	"gopkg.in/yaml.v3"
)

var (
	// Color palette
	PrimaryTextColor = lipgloss.Color("#E4E4E7")
	ErrorColor       = lipgloss.Color("#FF6B6B")
	ErrorBgColor     = lipgloss.Color("#3D2020")
	WarningColor     = lipgloss.Color("#FFA726")
	SuccessColor     = lipgloss.Color("#66BB6A")
	InfoColor        = lipgloss.Color("#42A5F5")
	MutedColor       = lipgloss.Color("#6C757D")
	AccentColor      = lipgloss.Color("#7C3AED")
	CodeColor        = lipgloss.Color("#D4D4D4")

	// Base styles
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor).Bold(true)
	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor).Bold(true)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor).Bold(true)
	MutedStyle   = lipgloss.NewStyle().Foreground(MutedColor)
	AccentStyle  = lipgloss.NewStyle().Foreground(AccentColor)

	FileStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true).
			Underline(true)

	KindStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	MessageStyle = lipgloss.NewStyle().
			Foreground(PrimaryTextColor)

	CodeStyle = lipgloss.NewStyle().
			Foreground(CodeColor).
			Padding(0, 1)

	LineNumberStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Width(5).
			Align(lipgloss.Right)

	ErrorLineStyle = lipgloss.NewStyle().
			Background(ErrorBgColor)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(ErrorColor).
			Bold(true)

	SuggestionTitleStyle = lipgloss.NewStyle().
				Foreground(SuccessColor).
				Bold(true)

	SuggestionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#B8BCC2"))

	// Tree and context output
	NodeKindStyle = lipgloss.NewStyle().
			Foreground(InfoColor)

	NameStyle = lipgloss.NewStyle().
			Foreground(AccentColor)

	ValueStyle = lipgloss.NewStyle().
			Foreground(WarningColor)

	PromptStyle = lipgloss.NewStyle().
			Foreground(AccentColor).
			Bold(true)
)

// RenderCodeLine renders a line of source with its line number
func RenderCodeLine(lineNum int, content string, isError bool) string {
	lineNumStr := LineNumberStyle.Render(fmt.Sprintf("%d", lineNum))
	separator := MutedStyle.Render(" │ ")

	if isError {
		return fmt.Sprintf("%s%s%s", lineNumStr, separator, ErrorLineStyle.Render(content))
	}
	return fmt.Sprintf("%s%s%s", lineNumStr, separator, content)
}

// RenderHighlightIndicator renders carets under columns startCol to
// startCol+length-1 of a line printed by RenderCodeLine
func RenderHighlightIndicator(startCol, length int) string {
	if length <= 0 {
		return ""
	}
	if startCol < 1 {
		startCol = 1
	}

	spaces := strings.Repeat(" ", startCol-1)
	carets := HighlightStyle.Render(strings.Repeat("^", length))
	padding := LineNumberStyle.Render("") + MutedStyle.Render(" │ ")

	return fmt.Sprintf("%s%s%s", padding, spaces, carets)
}

// RenderSuggestion renders a hint with optional examples
func RenderSuggestion(title, description string, examples []string) string {
	var result strings.Builder

	result.WriteString(SuggestionTitleStyle.Render("💡 " + title))
	if description != "" {
		result.WriteString(SuggestionStyle.Render(": " + description))
	}
	result.WriteString("\n")

	if len(examples) > 0 {
		result.WriteString(MutedStyle.Render("    Examples:") + "\n")
		for _, example := range examples {
			result.WriteString("      " + CodeStyle.Render(example) + "\n")
		}
	}

	return result.String()
}

// SourceError carries what RenderSourceError needs to point at a location
// in a program
type SourceError struct {
	Kind       string
	Message    string
	File       string
	Source     string
	Line       int
	Column     int
	Width      int
	Suggestion string
}

// RenderSourceError renders a positioned error: a header, the offending
// source line and a caret under the failing column
func RenderSourceError(e SourceError) string {
	var b strings.Builder

	header := ErrorIcon() + " " + KindStyle.Render(e.Kind)
	if e.File != "" {
		header += " " + FileStyle.Render(fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column))
	} else if e.Line > 0 {
		header += " " + MutedStyle.Render(fmt.Sprintf("at %d:%d", e.Line, e.Column))
	}
	b.WriteString(header + "\n")
	b.WriteString("  " + MessageStyle.Render(e.Message) + "\n")

	lines := strings.Split(e.Source, "\n")
	if e.Line >= 1 && e.Line <= len(lines) {
		width := e.Width
		if width <= 0 {
			width = 1
		}
		b.WriteString("\n")
		b.WriteString(RenderCodeLine(e.Line, lines[e.Line-1], true) + "\n")
		b.WriteString(RenderHighlightIndicator(e.Column, width) + "\n")
	}

	if e.Suggestion != "" {
		b.WriteString("\n" + RenderSuggestion("Hint", e.Suggestion, nil))
	}

	return b.String()
}

// FormatFilePath formats a file path with proper styling
func FormatFilePath(path string) string {
	return FileStyle.Render(path)
}

// PrintJSON outputs data as indented JSON
func PrintJSON(w io.Writer, data interface{}) {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(w, "Error encoding JSON: %v\n", err)
	}
}

// PrintYAML outputs data as YAML
func PrintYAML(w io.Writer, data interface{}) {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(data); err != nil {
		fmt.Fprintf(w, "Error encoding YAML: %v\n", err)
	}
	encoder.Close()
}

func SuccessIcon() string {
	return SuccessStyle.Render("✓")
}

func ErrorIcon() string {
	return ErrorStyle.Render("✗")
}

func WarningIcon() string {
	return WarningStyle.Render("⚠")
}

func InfoIcon() string {
	return InfoStyle.Render("ℹ")
}

// Success prints a success message with styling
func Success(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", SuccessIcon(), lipgloss.NewStyle().Foreground(SuccessColor).Render(message))
}

// Error prints an error message with styling
func Error(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", ErrorIcon(), lipgloss.NewStyle().Foreground(ErrorColor).Render(message))
}

// Warning prints a warning message with styling
func Warning(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", WarningIcon(), lipgloss.NewStyle().Foreground(WarningColor).Render(message))
}

// Info prints an info message with styling
func Info(w io.Writer, message string) {
	fmt.Fprintf(w, "%s %s\n", InfoIcon(), lipgloss.NewStyle().Foreground(InfoColor).Render(message))
}
