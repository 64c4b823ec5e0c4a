package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/lacquerai/minijs/internal/ast"
	"github.com/lacquerai/minijs/internal/cache"
	"github.com/lacquerai/minijs/internal/evaluator"
	"github.com/lacquerai/minijs/internal/style"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

const (
	promptMain = "minijs> "
	promptCont = "   ...> "
)

const replHelp = `Enter a program to run it against the session context. Input that
ends in the middle of a program continues on the next line.

Commands:
  :ctx               print the context
  :set name=value    set a context value (name.property=value for mappings)
  :reset             restore the context the REPL started with
  :load <file>       run a program file against the context
  :tree <program>    print the syntax tree of a program without running it
  :help              show this help
  :quit              leave the REPL (also Ctrl+D)
`

func newReplCmd() *cobra.Command {
	var (
		contextFile string
		sets        []string
		historyPath string
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Start an interactive session",
		Long: `Start an interactive read-eval-print loop. Every program runs against the
context left by the previous one, and the value of each program is printed.

` + replHelp,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			vars, err := loadContext(contextFile)
			if err != nil {
				return err
			}
			if err := applySets(vars, sets); err != nil {
				return err
			}

			if historyPath == "" {
				historyPath = filepath.Join(configDir(), "history")
			}

			ln := liner.NewLiner()
			defer ln.Close()
			ln.SetCtrlCAborts(true)

			if f, err := os.Open(historyPath); err == nil {
				_, _ = ln.ReadHistory(f)
				_ = f.Close()
			}
			defer func() {
				if err := os.MkdirAll(filepath.Dir(historyPath), 0o755); err != nil {
					return
				}
				if f, err := os.Create(historyPath); err == nil {
					_, _ = ln.WriteHistory(f)
					_ = f.Close()
				}
			}()

			fmt.Fprintln(cmd.OutOrStdout(), style.MutedStyle.Render("minijs "+Version+" - type :help for help"))
			return newREPL(ln, cmd.OutOrStdout(), cmd.ErrOrStderr(), vars).loop()
		},
	}

	cmd.Flags().StringVarP(&contextFile, "context", "c", "", "YAML or JSON file holding the starting context")
	cmd.Flags().StringArrayVar(&sets, "set", nil, "set a context value (name=value or name.property=value)")
	cmd.Flags().StringVar(&historyPath, "history", "", "history file (default $HOME/.minijs/history)")

	return cmd
}

// lineReader is the part of liner.State the REPL uses
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type repl struct {
	in      lineReader
	out     io.Writer
	errOut  io.Writer
	vars    evaluator.Context
	initial evaluator.Context
	cache   *cache.ProgramCache
}

func newREPL(in lineReader, out, errOut io.Writer, vars map[string]interface{}) *repl {
	return &repl{
		in:      in,
		out:     out,
		errOut:  errOut,
		vars:    evaluator.Context(vars).Copy(),
		initial: evaluator.Context(vars).Copy(),
		cache:   cache.New(cache.DefaultSize),
	}
}

func (r *repl) loop() error {
	for {
		source, ok := r.read(promptMain, promptCont)
		if !ok {
			fmt.Fprintln(r.out)
			return nil
		}

		line := strings.TrimSpace(source)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, ":") {
			r.in.AppendHistory(line)
			if r.command(line) {
				return nil
			}
			continue
		}

		r.eval(source, "")
		r.in.AppendHistory(source)
	}
}

// read returns one program, prompting for more lines while the input so far
// ends in the middle of a program. Lines are joined with a space since
// programs are a single line.
func (r *repl) read(prompt, cont string) (string, bool) {
	var b strings.Builder

	for {
		p := prompt
		if b.Len() > 0 {
			p = cont
		}

		line, err := r.in.Prompt(p)
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), true
			}
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}

		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(line)

		source := b.String()
		if strings.HasPrefix(strings.TrimSpace(source), ":") {
			return source, true
		}
		if _, err := r.parse(source); err != nil && minijs.IsIncomplete(err) {
			continue
		}
		return source, true
	}
}

func (r *repl) parse(source string) (*ast.Program, error) {
	if program, ok := r.cache.Get(source); ok {
		return program, nil
	}
	program, err := minijs.Parse(source)
	if err != nil {
		return nil, err
	}
	r.cache.Put(source, program)
	return program, nil
}

// eval runs source against a copy of the context and keeps the copy only
// when the run succeeds
func (r *repl) eval(source, file string) {
	program, err := r.parse(source)
	if err != nil {
		printError(r.errOut, err, source, file)
		return
	}
	if program.IsEmpty() {
		return
	}

	work := r.vars.Copy()
	value, err := evaluator.Evaluate(program.Body, work)
	if err != nil {
		printError(r.errOut, err, source, file)
		return
	}
	r.vars = work

	if value.Type() != evaluator.TypeNil {
		fmt.Fprintln(r.out, style.ValueStyle.Render(value.String()))
	}
}

// command runs a :command and reports whether the REPL should exit
func (r *repl) command(line string) bool {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch strings.ToLower(name) {
	case ":help":
		fmt.Fprint(r.out, replHelp)

	case ":quit", ":exit":
		return true

	case ":ctx":
		if len(r.vars) == 0 {
			fmt.Fprintln(r.out, style.MutedStyle.Render("(empty context)"))
			return false
		}
		fmt.Fprint(r.out, formatContext(r.vars))

	case ":set":
		if arg == "" {
			fmt.Fprintln(r.errOut, "usage: :set name=value")
			return false
		}
		if err := applySets(r.vars, []string{arg}); err != nil {
			style.Error(r.errOut, err.Error())
		}

	case ":reset":
		r.vars = r.initial.Copy()
		fmt.Fprintln(r.out, "context reset.")

	case ":load":
		if arg == "" {
			fmt.Fprintln(r.errOut, "usage: :load <file>")
			return false
		}
		source, file, err := readSource(nil, []string{arg}, "")
		if err != nil {
			style.Error(r.errOut, err.Error())
			return false
		}
		r.eval(source, file)

	case ":tree":
		if arg == "" {
			fmt.Fprintln(r.errOut, "usage: :tree <program>")
			return false
		}
		program, err := r.parse(arg)
		if err != nil {
			printError(r.errOut, err, arg, "")
			return false
		}
		fmt.Fprint(r.out, ast.Tree(program))

	default:
		fmt.Fprintf(r.errOut, "unknown command %s. Type :help for help.\n", name)
	}
	return false
}
