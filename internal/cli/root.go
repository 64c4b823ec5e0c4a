package cli

import (
	"context"
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/fang"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/charmbracelet/lipgloss/v2"
	"github.com/lacquerai/minijs/internal/style"
)

// cfgFile is the --config flag of the most recently built root command
var cfgFile string

// NewRootCmd builds the minijs command tree. Every call returns fresh
// commands and flag values.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minijs",
		Short: "minijs - run tiny JavaScript-like programs against a context",
		Long: `minijs parses and evaluates a small JavaScript-like language against a
context of variables, and returns the updated context.

The language has assignment to existing names, single-level property access
(a.x), + and -, > and ==, && and ||, if/else, number, boolean and string
literals, and (...) / {...} grouping. All binary operators share one
precedence level and associate left to right.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initConfig(cmd.ErrOrStderr())
			initLogging(cmd.ErrOrStderr())
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.minijs/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "disabled", "log level (debug, info, warn, error, disabled)")
	rootCmd.PersistentFlags().String("output", "text", "output format (text, json, yaml)")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress non-essential output")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")

	_ = viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	rootCmd.AddCommand(
		newRunCmd(),
		newParseCmd(),
		newValidateCmd(),
		newReplCmd(),
		newServeCmd(),
		newSchemaCmd(),
		newVersionCmd(),
	)

	return rootCmd
}

// Execute builds the command tree and runs it. This is called by main.main().
func Execute() error {
	return fang.Execute(context.Background(), NewRootCmd(), fang.WithColorSchemeFunc(func(lightDark lipgloss.LightDarkFunc) fang.ColorScheme {
		return fang.ColorScheme{
			Base:           style.PrimaryTextColor,
			Title:          style.AccentColor,
			Description:    style.PrimaryTextColor,
			Codeblock:      style.CodeColor,
			Program:        style.AccentColor,
			DimmedArgument: style.MutedColor,
			Comment:        style.MutedColor,
			Flag:           style.InfoColor,
			FlagDefault:    style.MutedColor,
			Command:        style.SuccessColor,
			QuotedString:   style.WarningColor,
			Argument:       style.PrimaryTextColor,
			Help:           style.InfoColor,
			Dash:           style.MutedColor,
			ErrorHeader:    [2]color.Color{style.ErrorColor, style.ErrorBgColor},
			ErrorDetails:   style.ErrorColor,
		}
	}))
}

// configDir is $HOME/.minijs, or .minijs when the home directory is unknown
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".minijs"
	}
	return filepath.Join(home, ".minijs")
}

// initConfig reads in config file and ENV variables if set.
func initConfig(stderr io.Writer) {
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(configDir())
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.metrics", true)
	viper.SetDefault("store.path", filepath.Join(configDir(), "sessions.db"))

	// MINIJS_SERVER_PORT, MINIJS_STORE_PATH, ...
	viper.SetEnvPrefix("MINIJS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		if !viper.GetBool("quiet") {
			fmt.Fprintf(stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// initLogging configures the global logger
func initLogging(stderr io.Writer) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	switch viper.GetString("log-level") {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.Disabled)
	}

	if !viper.GetBool("quiet") && viper.GetString("output") == "text" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: stderr})
	}
}

// getVersion returns the version information
func getVersion() string {
	return fmt.Sprintf("%s (commit: %s, built: %s, go: %s)", Version, Commit, Date, GoVersion)
}
