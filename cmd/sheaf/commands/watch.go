package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/sheaf/internal/app"
)

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [entries...]",
		Short: "Rebuild whenever a file under the project root changes",
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
			return c.components.App.Watch(cmd.Context(), app.WatchOptions{
				Build:    opts,
				Root:     cfg.Root,
				Ignore:   cfg.WatchIgnore,
				Debounce: cfg.WatchDebounce,
				OnBuild: func(_ *app.BuildResult, err error) {
					if err != nil {
						c.components.Logger.Error(err)
					}
				},
			})
		},
	}
	addBuildFlags(cmd)
	return cmd
}
