package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/internal/style"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// programExtensions are the file extensions validate picks up when walking
// directories
var programExtensions = []string{".mjs", ".js", ".minijs"}

func newValidateCmd() *cobra.Command {
	var (
		recursive bool
		showAll   bool
	)

	cmd := &cobra.Command{
		Use:   "validate [files...]",
		Short: "Check programs for lex and syntax errors",
		Long: `Parse program files without running them and report every lex or syntax
error with its position.

Examples:
  minijs validate program.js                  # Validate single file
  minijs validate *.js                        # Validate multiple files
  minijs validate --recursive ./programs      # Validate directory recursively
  minijs validate --output json program.js    # JSON output for CI/CD`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return validatePrograms(cmd.OutOrStdout(), cmd.ErrOrStderr(), args, recursive, showAll)
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "recursively validate files in directories")
	cmd.Flags().BoolVar(&showAll, "show-all", false, "show all validation results, including successful ones")

	return cmd
}

// ValidationResult represents the result of validating one program file
type ValidationResult struct {
	File     string           `json:"file" yaml:"file"`
	Valid    bool             `json:"valid" yaml:"valid"`
	Duration time.Duration    `json:"duration_ms" yaml:"duration_ms"`
	Kind     string           `json:"kind,omitempty" yaml:"kind,omitempty"`
	Error    string           `json:"error,omitempty" yaml:"error,omitempty"`
	Position *minijs.Position `json:"position,omitempty" yaml:"position,omitempty"`

	rendered string
}

// ValidationSummary represents the summary of all validation results
type ValidationSummary struct {
	Total    int                `json:"total" yaml:"total"`
	Valid    int                `json:"valid" yaml:"valid"`
	Invalid  int                `json:"invalid" yaml:"invalid"`
	Duration time.Duration      `json:"total_duration_ms" yaml:"total_duration_ms"`
	Results  []ValidationResult `json:"results" yaml:"results"`
}

func validatePrograms(stdout, stderr io.Writer, args []string, recursive, showAll bool) error {
	start := time.Now()

	files, err := collectFiles(args, recursive)
	if err != nil {
		return err
	}

	if len(files) == 0 {
		style.Warning(stderr, "No program files found to validate")
		return nil
	}

	text := viper.GetString("output") == "text"
	quiet := viper.GetBool("quiet")

	spin := style.NewSpinner(stderr)
	spin.SetSuffix(fmt.Sprintf(" Validating %d file(s)", len(files)))
	if text && !quiet {
		spin.Start()
	}

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, validateSingleFile(file))
	}
	spin.Stop()

	summary := ValidationSummary{
		Total:    len(results),
		Duration: time.Since(start),
		Results:  results,
	}
	for _, result := range results {
		if result.Valid {
			summary.Valid++
		} else {
			summary.Invalid++
		}
	}

	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(stdout, summary)
	case "yaml":
		style.PrintYAML(stdout, summary)
	default:
		printValidationResults(stdout, stderr, summary, showAll)
	}

	if summary.Invalid > 0 {
		return fmt.Errorf("%d of %d program(s) failed validation", summary.Invalid, summary.Total)
	}
	return nil
}

func validateSingleFile(filename string) ValidationResult {
	start := time.Now()
	result := ValidationResult{File: filename, Valid: true}

	defer func() {
		log.Debug().
			Str("file", filename).
			Bool("valid", result.Valid).
			Dur("duration", result.Duration).
			Msg("Validated program file")
	}()

	data, err := os.ReadFile(filename)
	if err != nil {
		result.Valid = false
		result.Error = err.Error()
		result.Duration = time.Since(start)
		return result
	}
	source := strings.TrimRight(string(data), "\r\n")

	program, err := minijs.Parse(source)
	if err == nil {
		err = ast.Validate(program).ToError()
	}
	result.Duration = time.Since(start)

	if err != nil {
		result.Valid = false
		result.Kind = minijs.ErrorKind(err)
		result.Error = errorMessage(err)
		if pos, ok := minijs.ErrorPosition(err); ok {
			result.Position = &pos
		}

		var buf bytes.Buffer
		printError(&buf, err, source, filename)
		result.rendered = buf.String()
	}

	return result
}

func collectFiles(args []string, recursive bool) ([]string, error) {
	var files []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			files = append(files, arg)
			continue
		}

		if !recursive {
			return nil, fmt.Errorf("%s is a directory, use --recursive to validate directories", arg)
		}

		err = filepath.Walk(arg, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() && isProgramFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking directory %s: %w", arg, err)
		}
	}

	return files, nil
}

func isProgramFile(filename string) bool {
	ext := filepath.Ext(filename)
	for _, candidate := range programExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func printValidationResults(stdout, stderr io.Writer, summary ValidationSummary, showAll bool) {
	if viper.GetBool("quiet") {
		return
	}

	for _, result := range summary.Results {
		switch {
		case !result.Valid && result.rendered != "":
			fmt.Fprint(stderr, result.rendered)
		case !result.Valid:
			style.Error(stderr, fmt.Sprintf("%s: %s", result.File, result.Error))
		case showAll:
			style.Success(stdout, fmt.Sprintf("%s (%v)", style.FormatFilePath(result.File), result.Duration))
		}
	}

	fmt.Fprintln(stdout)
	if summary.Invalid == 0 {
		style.Success(stdout, fmt.Sprintf("All %d program(s) are valid (%v)", summary.Total, summary.Duration))
	} else {
		style.Error(stdout, fmt.Sprintf("%d of %d program(s) failed validation (%v)", summary.Invalid, summary.Total, summary.Duration))
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(stdout, "\nDetailed results:\n")
		headers := []string{"File", "Status", "Duration"}
		rows := make([][]string, len(summary.Results))
		for i, result := range summary.Results {
			status := "valid"
			if !result.Valid {
				status = "invalid"
			}
			rows[i] = []string{result.File, status, result.Duration.String()}
		}
		printTable(stdout, headers, rows)
	}
}

// printTable outputs data in a human-readable table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	for i, header := range headers {
		fmt.Fprintf(w, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(w)

	for i := range headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i])+"  ")
	}
	fmt.Fprintln(w)

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(w, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w)
	}
}
