package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"
	"go.trai.ch/sheaf/internal/core/domain"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the dependency cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			path := cfg.CacheFile
			if v, _ := cmd.Flags().GetString("cache-file"); v != "" {
				if path, err = filepath.Abs(v); err != nil {
					return err
				}
			}
			return c.components.App.Clean(cmd.Context(), path)
		},
	}
	cmd.Flags().String("cache-file", "", "Dependency cache location (default: "+domain.DefaultCachePath()+")")
	return cmd
}
