package cmd

import (
	"fmt"
	"os"

	"github.com/connesc/ctrextract"
	"github.com/spf13/cobra"
)

var extractOutput string

func init() {
	extractCmd.Flags().StringVarP(&extractOutput, "output", "o", "", "output path (defaults to the section name, '-' for stdout)")
	rootCmd.AddCommand(extractCmd)
}

var extractCmd = &cobra.Command{
	Use:   "extract <section> <file>",
	Short: "Extract one ExeFS section",
	Long:  "Decrypt the named ExeFS section (e.g. .code, icon, banner, logo) and write it to a file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		name, filename := args[0], args[1]

		file, err := os.Open(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to open file: %v\n", err)
			os.Exit(2)
		}
		defer file.Close()

		container := ctrextract.NewContainer(file, openKeys())
		data, err := container.LoadSectionExeFS(name)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to extract section: %v\n", err)
			os.Exit(3)
		}

		output := extractOutput
		if output == "" {
			output = name
		}
		if output == "-" {
			if _, err := os.Stdout.Write(data); err != nil {
				fmt.Fprintf(os.Stderr, "Unable to write section: %v\n", err)
				os.Exit(2)
			}
			return
		}

		if err := os.WriteFile(output, data, 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "Unable to write section: %v\n", err)
			os.Exit(2)
		}
	},
}
