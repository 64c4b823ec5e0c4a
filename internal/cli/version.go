package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/Masterminds/semver/v3"
	"github.com/lacquerai/minijs/internal/style"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Build-time variables (set by goreleaser or build scripts)
var (
	Version   = "dev"
	Commit    = "unknown"
	Date      = "unknown"
	BuiltBy   = "unknown"
	GoVersion = runtime.Version()
)

// VersionInfo represents version information
type VersionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

func newVersionCmd() *cobra.Command {
	var require string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version information for minijs, including build details.`,
		Example: `
  minijs version                     # Show the version
  minijs version --output json       # Show version info as JSON
  minijs version --require ">= 0.3"  # Fail unless the version satisfies the constraint`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if require != "" {
				if err := checkVersion(Version, require); err != nil {
					return err
				}
			}
			showVersion(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().StringVar(&require, "require", "", "semver constraint the version must satisfy")

	return cmd
}

// checkVersion returns an error unless version satisfies constraint
func checkVersion(version, constraint string) error {
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return fmt.Errorf("invalid version constraint %q: %w", constraint, err)
	}

	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("version %q is not a release version: %w", version, err)
	}

	if !c.Check(v) {
		return fmt.Errorf("minijs %s does not satisfy %s", v, constraint)
	}
	return nil
}

func showVersion(w io.Writer) {
	versionInfo := VersionInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		BuiltBy:   BuiltBy,
		GoVersion: GoVersion,
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}

	switch viper.GetString("output") {
	case "json":
		style.PrintJSON(w, versionInfo)
	case "yaml":
		style.PrintYAML(w, versionInfo)
	default:
		fmt.Fprintln(w, versionInfo.Version)
	}
}
