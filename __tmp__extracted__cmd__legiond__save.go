package main

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	legionsave "legion/internal/save"
)

func saveCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "save",
		Short: "write an empty world snapshot to path",
		RunE: func(cmd *cobra.Command, args []string) error {
			var buf bytes.Buffer
			w := legionsave.NewWriter(&buf)
			w.WriteMagic(legionsave.MagicWorld)
			w.WriteUint64(0) // tick count; replaced by the world's own tick once wired
			w.WriteMagic(legionsave.MagicWorld)
			if err := w.Err(); err != nil {
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
	return cmd
}

func loadCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "load and validate a world snapshot from path",
		RunE: func(cmd *cobra.Command, args []string) error {
			b := legionsave.NewFileBackend(path)
			payload, err := b.Load()
			if err != nil {
				return err
			}

			r := legionsave.NewReader(bytes.NewReader(payload))
			r.ReadMagic(legionsave.MagicWorld)
			tick := r.ReadUint64()
			if err := r.Err(); err != nil {
				return fmt.Errorf("corrupt save file: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "loaded %d bytes from %s (tick %d)\n", len(payload), path, tick)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "legion.save", "input file path")
	return cmd
}


