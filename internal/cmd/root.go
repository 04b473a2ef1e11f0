package cmd

import (
	"fmt"
	"os"

	"github.com/connesc/ctrextract/keys"
	"github.com/spf13/cobra"
)

var keysPath string

var rootCmd = &cobra.Command{
	Use:   "ctrextract",
	Short: "Decrypt and extract the contents of Nintendo 3DS NCCH containers",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&keysPath, "keys", "k", "", "path to an aes_keys.txt file holding console KeyX values")
}

// Execute the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openKeys loads the key database selected with --keys, or an empty one when
// the flag is unset. Plaintext and fixed-key containers need no keys at all.
func openKeys() *keys.Database {
	if keysPath == "" {
		return keys.NewDatabase()
	}

	db, err := keys.LoadFile(keysPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to load keys: %v\n", err)
		os.Exit(2)
	}
	return db
}
