package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/sheaf/internal/app"
	"go.trai.ch/sheaf/internal/core/domain"
)

func (c *CLI) newBundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle [entries...]",
		Short: "Bundle the entry files and the assets of their packages",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts, err := buildOptions(cmd, args, cfg)
			if err != nil {
				return err
			}
			_, err = c.components.App.Build(cmd.Context(), opts)
			return err
		},
	}
	addBuildFlags(cmd)
	return cmd
}

func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().String("cache-file", "", "Dependency cache location (default: "+domain.DefaultCachePath()+")")
	cmd.Flags().StringP("outfile", "o", "", "Write the bundle to this file instead of stdout")
	cmd.Flags().String("css-file", "", "Write the package assets to this file")
	cmd.Flags().StringP("bundle-name", "n", "", "Write <name>.js and <name>.css")
	cmd.Flags().Bool("no-cache", false, "Ignore the dependency cache and rebuild every module")
}

// buildOptions merges flags and positional entries over the configuration.
// Relative flag paths are relative to the working directory, configured paths
// to the configuration root.
func buildOptions(cmd *cobra.Command, args []string, cfg *domain.ProjectConfig) (app.BuildOptions, error) {
	opts := app.BuildOptions{
		CacheFile:  cfg.CacheFile,
		BundlePath: cfg.BundleOutput,
		AssetPath:  cfg.AssetOutput,
		Stdout:     cmd.OutOrStdout(),
	}

	if len(args) > 0 {
		for _, arg := range args {
			abs, err := filepath.Abs(arg)
			if err != nil {
				return opts, err
			}
			opts.Entries = append(opts.Entries, abs)
		}
	} else {
		for _, entry := range cfg.Entries {
			if !filepath.IsAbs(entry) {
				entry = filepath.Join(cfg.Root, entry)
			}
			opts.Entries = append(opts.Entries, entry)
		}
	}

	flags := cmd.Flags()
	opts.NoCache, _ = flags.GetBool("no-cache")

	if name, _ := flags.GetString("bundle-name"); name != "" {
		opts.BundlePath, opts.AssetPath = domain.BundleOutputPaths(name)
	}

	overrides := []struct {
		flag   string
		target *string
	}{
		{"cache-file", &opts.CacheFile},
		{"outfile", &opts.BundlePath},
		{"css-file", &opts.AssetPath},
	}
	for _, o := range overrides {
		if v, _ := flags.GetString(o.flag); v != "" {
			*o.target = v
		}
	}

	for _, p := range []*string{&opts.CacheFile, &opts.BundlePath, &opts.AssetPath} {
		if *p == "" {
			continue
		}
		abs, err := filepath.Abs(*p)
		if err != nil {
			return opts, err
		}
		*p = abs
	}
	return opts, nil
}
