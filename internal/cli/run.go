package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/lacquerai/minijs/internal/store"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type runOptions struct {
	expr        string
	contextFile string
	sets        []string
	diff        bool
	session     string
	storePath   string
}

func newRunCmd() *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [file|-]",
		Short: "Run a program against a context",
		Long: `Run a program against a context and print the updated context.

The program is read from the file argument, from stdin when the argument is
"-" or missing, or from --expr. The context is loaded from a YAML or JSON
file and adjusted with --set. The input context is never modified; the
printed context is a copy.

With --session the context is loaded from the session store and the result
is saved back. --context and --set seed a new session or update the stored
one before the program runs.

Examples:
  minijs run -e 'a = a + 1' --set a=1           # Prints a = 2
  minijs run program.js -c context.yaml          # Context from a file
  minijs run program.js -c context.json --diff   # Show what changed
  echo 'b.x = 3' | minijs run - --set b.x=0      # Program from stdin
  minijs run -e 'n = n + 1' --session counter    # Persist between runs`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.storePath == "" {
				opts.storePath = viper.GetString("store.path")
			}
			return runProgram(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.expr, "expr", "e", "", "program source given on the command line")
	cmd.Flags().StringVarP(&opts.contextFile, "context", "c", "", "YAML or JSON file holding the context")
	cmd.Flags().StringArrayVar(&opts.sets, "set", nil, "set a context value (name=value or name.property=value)")
	cmd.Flags().BoolVar(&opts.diff, "diff", false, "print a diff of the context before and after the run")
	cmd.Flags().StringVarP(&opts.session, "session", "s", "", "load and save the context in this named session")
	cmd.Flags().StringVar(&opts.storePath, "store", "", "session store database (default from store.path)")

	return cmd
}

func runProgram(cmd *cobra.Command, args []string, opts *runOptions) error {
	stdout, stderr := cmd.OutOrStdout(), cmd.ErrOrStderr()

	if output := viper.GetString("output"); opts.diff && output != "text" {
		return fmt.Errorf("--diff needs text output, got --output %s", output)
	}

	source, file, err := readSource(cmd.InOrStdin(), args, opts.expr)
	if err != nil {
		return err
	}

	vars, err := loadContext(opts.contextFile)
	if err != nil {
		return err
	}
	if err := applySets(vars, opts.sets); err != nil {
		return err
	}

	start := time.Now()
	var before, after map[string]interface{}
	if opts.session != "" {
		before, after, err = runInSession(cmd, opts, source, vars)
	} else {
		before = vars
		after, err = minijs.Run(source, vars)
	}

	log.Debug().
		Str("file", file).
		Str("session", opts.session).
		Dur("duration", time.Since(start)).
		Bool("ok", err == nil).
		Msg("Program run")

	if err != nil {
		if minijs.ErrorKind(err) == "" {
			return err
		}
		printError(stderr, err, source, file)
		return errFailed
	}

	if opts.diff {
		printDiff(stdout, before, after)
		return nil
	}
	printContext(stdout, after)
	return nil
}

// runInSession runs source against a stored session. Seed variables are
// merged into the stored context first, creating the session if needed.
func runInSession(cmd *cobra.Command, opts *runOptions, source string, seed map[string]interface{}) (map[string]interface{}, map[string]interface{}, error) {
	ctx := cmd.Context()

	st, err := openStore(opts.storePath)
	if err != nil {
		return nil, nil, err
	}
	defer st.Close()

	stored, err := st.Get(ctx, opts.session)
	switch {
	case errors.Is(err, store.ErrNotFound):
		stored = map[string]interface{}{}
	case err != nil:
		return nil, nil, err
	}

	if len(seed) > 0 || len(stored) == 0 {
		for k, v := range seed {
			stored[k] = v
		}
		if err := st.Put(ctx, opts.session, stored); err != nil {
			return nil, nil, err
		}
	}

	after, err := st.Run(ctx, opts.session, source)
	if err != nil {
		return nil, nil, err
	}
	return stored, after, nil
}

// openStore opens the session store, creating its directory if needed
func openStore(path string) (*store.Store, error) {
	if err := ensureStoreDir(path); err != nil {
		return nil, err
	}
	return store.Open(path)
}

func ensureStoreDir(path string) error {
	if path == "" || path == store.MemoryPath {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}
