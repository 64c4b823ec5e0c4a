package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/lacquerai/minijs/internal/parser"
	"github.com/lacquerai/minijs/internal/store"
	"github.com/lacquerai/minijs/internal/style"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// errFailed is returned by commands whose failure has already been
// reported on stderr
var errFailed = errors.New("minijs: run failed")

// readSource returns the program text and a display name for it: the -e
// expression, the named file, or stdin for "-" and no argument
func readSource(in io.Reader, args []string, expr string) (string, string, error) {
	if expr != "" {
		return expr, "", nil
	}

	var (
		data []byte
		name string
		err  error
	)
	if len(args) == 0 || args[0] == "-" {
		data, err = io.ReadAll(in)
		name = "<stdin>"
	} else {
		name = args[0]
		data, err = os.ReadFile(name)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to read program: %w", err)
	}

	return strings.TrimRight(string(data), "\r\n"), name, nil
}

// loadContext reads a YAML or JSON document holding the variables
func loadContext(path string) (map[string]interface{}, error) {
	vars := map[string]interface{}{}
	if path == "" {
		return vars, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read context: %w", err)
	}
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("failed to parse context %s: %w", path, err)
	}
	if vars == nil {
		vars = map[string]interface{}{}
	}

	for k, v := range vars {
		vars[k] = store.Normalize(v)
	}
	return vars, nil
}

// applySets applies name=value and name.property=value assignments. Values
// are YAML scalars, so 3, true and "3" keep their types.
func applySets(vars map[string]interface{}, sets []string) error {
	for _, set := range sets {
		key, raw, ok := strings.Cut(set, "=")
		if !ok || key == "" {
			return fmt.Errorf("invalid --set %q, expected name=value", set)
		}

		var value interface{}
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return fmt.Errorf("invalid value in --set %q: %w", set, err)
		}
		if value == nil && raw == "" {
			value = ""
		}
		value = store.Normalize(value)

		name, property, nested := strings.Cut(key, ".")
		if !nested {
			vars[name] = value
			continue
		}

		inner, ok := vars[name].(map[string]interface{})
		if !ok {
			if _, exists := vars[name]; exists {
				return fmt.Errorf("invalid --set %q: %s is not a mapping", set, name)
			}
			inner = map[string]interface{}{}
			vars[name] = inner
		}
		inner[property] = value
	}
	return nil
}

func formatValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case map[string]interface{}:
		if len(val) == 0 {
			return "{}"
		}
	}
	return fmt.Sprintf("%v", v)
}

// formatContext renders vars one binding per line, sorted by name, with
// nested mappings flattened to name.property lines
func formatContext(vars map[string]interface{}) string {
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, name := range names {
		nested, ok := vars[name].(map[string]interface{})
		if !ok || len(nested) == 0 {
			fmt.Fprintf(&b, "%s = %s\n", name, formatValue(vars[name]))
			continue
		}

		props := make([]string, 0, len(nested))
		for prop := range nested {
			props = append(props, prop)
		}
		sort.Strings(props)
		for _, prop := range props {
			fmt.Fprintf(&b, "%s.%s = %s\n", name, prop, formatValue(nested[prop]))
		}
	}
	return b.String()
}

// printContext writes vars in the configured output format
func printContext(w io.Writer, vars map[string]interface{}) {
	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(w, vars)
	case "yaml":
		style.PrintYAML(w, vars)
	default:
		fmt.Fprint(w, formatContext(vars))
	}
}

// printDiff writes a line diff between two contexts: removed lines in red
// prefixed with "-", added lines in green prefixed with "+"
func printDiff(w io.Writer, before, after map[string]interface{}) {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(formatContext(before), formatContext(after))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	removed := color.New(color.FgRed)
	added := color.New(color.FgGreen)

	for _, d := range diffs {
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			line = strings.TrimSuffix(line, "\n")
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				removed.Fprintf(w, "- %s\n", line)
			case diffmatchpatch.DiffInsert:
				added.Fprintf(w, "+ %s\n", line)
			default:
				fmt.Fprintf(w, "  %s\n", line)
			}
		}
	}
}

// errorMessage strips the "kind at line:col: " prefix minijs errors carry
func errorMessage(err error) string {
	msg := err.Error()
	if minijs.ErrorKind(err) == "" {
		return msg
	}
	if _, rest, ok := strings.Cut(msg, ": "); ok {
		return rest
	}
	return msg
}

// printError renders err on w, pointing into source when err carries a
// position
func printError(w io.Writer, err error, source, file string) {
	kind := minijs.ErrorKind(err)
	pos, ok := minijs.ErrorPosition(err)
	if kind == "" || !ok {
		style.Error(w, err.Error())
		return
	}

	srcErr := style.SourceError{
		Kind:    kind,
		Message: errorMessage(err),
		File:    file,
		Source:  source,
		Line:    pos.Line,
		Column:  pos.Column,
		Width:   1,
	}

	var synErr *parser.SyntaxError
	if errors.As(err, &synErr) {
		srcErr.Suggestion = synErr.Suggestion
		srcErr.Message = synErr.Message
		if lexeme := synErr.Lexeme(); lexeme != "" {
			srcErr.Width = len(lexeme)
		}
	}

	fmt.Fprint(w, style.RenderSourceError(srcErr))
}
