package cmd

import (
	"bytes"
	"fmt"
	"image/png"
	"os"

	"github.com/connesc/ctrextract"
	"github.com/spf13/cobra"
)

var iconOutput string

func init() {
	iconCmd.Flags().StringVarP(&iconOutput, "output", "o", "icon.png", "output path for the PNG image")
	rootCmd.AddCommand(iconCmd)
}

var iconCmd = &cobra.Command{
	Use:   "icon <file>",
	Short: "Extract the application icon as PNG",
	Long:  "Decrypt the icon ExeFS section and decode its large (48x48) image to a PNG file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		file, err := os.Open(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to open file: %v\n", err)
			os.Exit(2)
		}
		defer file.Close()

		container := ctrextract.NewContainer(file, openKeys())
		data, err := container.LoadSectionExeFS("icon")
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to extract icon: %v\n", err)
			os.Exit(3)
		}

		smdh, err := ctrextract.ParseSMDH(bytes.NewReader(data))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid icon: %v\n", err)
			os.Exit(3)
		}

		img, err := smdh.LargeIcon()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to decode icon image: %v\n", err)
			os.Exit(3)
		}

		output, err := os.Create(iconOutput)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to create output: %v\n", err)
			os.Exit(2)
		}
		defer output.Close()

		if err := png.Encode(output, img); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to encode PNG: %v\n", err)
			os.Exit(2)
		}
	},
}
