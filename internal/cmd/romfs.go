package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/connesc/ctrextract"
	"github.com/spf13/cobra"
)

var romfsOutput string

func init() {
	romfsCmd.Flags().StringVarP(&romfsOutput, "output", "o", "romfs.bin", "output path for the RomFS image")
	rootCmd.AddCommand(romfsCmd)
}

var romfsCmd = &cobra.Command{
	Use:   "romfs <file>",
	Short: "Extract the RomFS of a plaintext NCCH",
	Long:  "Extract the level-3 RomFS payload of a plaintext NCCH image, as found in shared system archives",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read file: %v\n", err)
			os.Exit(2)
		}

		// ExtractSharedRomFS expects pre-validated plaintext input, so run
		// the streaming decoder over it first.
		container := ctrextract.NewContainer(bytes.NewReader(data), nil)
		if err := container.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Invalid NCCH: %v\n", err)
			os.Exit(3)
		}
		if container.Encrypted() {
			fmt.Fprintln(os.Stderr, "NCCH is encrypted; only plaintext images are supported here")
			os.Exit(3)
		}
		if !container.HasRomFS() {
			fmt.Fprintln(os.Stderr, "NCCH has no RomFS")
			os.Exit(3)
		}

		romfs := ctrextract.ExtractSharedRomFS(data)

		if err := os.WriteFile(romfsOutput, romfs, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to write RomFS: %v\n", err)
			os.Exit(2)
		}
	},
}
