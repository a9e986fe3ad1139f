package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	legionsave "legion/internal/save"
	"legion/internal/world"
)

// saveCmd and loadCmd exercise World.Save/Load as standalone CLI
// operations against a freshly constructed world rather than a live
// serve process's in-memory state — legiond has no admin endpoint yet
// that triggers a snapshot of a running world and ships it back over
// HTTP, so these commands are save-format validation tooling (round-trip
// an empty-or-populated-by-config world to disk and back) rather than an
// operational backup path. See DESIGN.md's cmd/legiond entry.
func saveCmd() *cobra.Command {
	var path, cfgPath string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "write a world snapshot to path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cfgPath)
			w := world.New(uint32(cfg.World.WorkersPerChunk))

			var buf bytes.Buffer
			if err := w.Save(&buf); err != nil {
				return err
			}

			b := legionsave.NewFileBackend(path)
			if err := b.Save(buf.Bytes()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "legion.save", "output file path")
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	return cmd
}

func loadCmd() *cobra.Command {
	var path, cfgPath string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "load and validate a world snapshot from path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(cfgPath)

			b := legionsave.NewFileBackend(path)
			payload, err := b.Load()
			if err != nil {
				return err
			}

			w, err := world.Load(bytes.NewReader(payload), uint32(cfg.World.WorkersPerChunk), nil)
			if err != nil {
				return fmt.Errorf("corrupt save file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d bytes from %s (tick %d, %d chunks)\n",
				len(payload), path, w.Now(), len(w.ChunkCoords()))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "legion.save", "input file path")
	cmd.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file")
	return cmd
}
