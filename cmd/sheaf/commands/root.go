// Package commands implements the CLI commands for sheaf.
package commands

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/sheaf/internal/adapters/transforms"
	"go.trai.ch/sheaf/internal/app"
	"go.trai.ch/sheaf/internal/build"
	"go.trai.ch/sheaf/internal/core/domain"
)

// verboser is implemented by loggers whose level can be lowered to debug.
type verboser interface {
	SetVerbose(enable bool)
}

// CLI represents the command line interface for sheaf.
type CLI struct {
	components *app.Components
	rootCmd    *cobra.Command
}

// New creates a new CLI instance over the given components.
func New(components *app.Components) *CLI {
	rootCmd := &cobra.Command{
		Use:           "sheaf",
		Short:         "Bundle scripts and the stylesheets of the packages they use",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	// Persistent flags first so -v stays with --verbose.
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to "+domain.ConfigFileName+" (default: search from the working directory)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log every file written and every cache event")

	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	c := &CLI{
		components: components,
		rootCmd:    rootCmd,
	}

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, _ []string) {
		verbose, _ := cmd.Flags().GetBool("verbose")
		if v, ok := c.components.Logger.(verboser); ok {
			v.SetVerbose(verbose)
		}
	}

	if components.Listener != nil {
		components.App.Subscribe(components.Listener)
	}

	rootCmd.AddCommand(c.newBundleCmd())
	rootCmd.AddCommand(c.newWatchCmd())
	rootCmd.AddCommand(c.newCleanCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput redirects command output. Used for testing.
func (c *CLI) SetOutput(stdout, stderr io.Writer) {
	c.rootCmd.SetOut(stdout)
	c.rootCmd.SetErr(stderr)
}

// loadConfig reads the project configuration and registers its command transforms.
func (c *CLI) loadConfig(cmd *cobra.Command) (*domain.ProjectConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	var (
		cfg *domain.ProjectConfig
		err error
	)
	if path != "" {
		if path, err = filepath.Abs(path); err != nil {
			return nil, err
		}
		cfg, err = c.components.ConfigLoader.LoadFile(path)
	} else {
		var cwd string
		if cwd, err = os.Getwd(); err != nil {
			return nil, err
		}
		cfg, err = c.components.ConfigLoader.Load(cwd)
	}
	if err != nil {
		return nil, err
	}

	transforms.RegisterCommands(c.components.Transforms, c.components.Runner, cfg.Root, cfg.Commands)
	return cfg, nil
}
