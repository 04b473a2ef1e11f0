package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/connesc/ctrextract"
	"github.com/spf13/pflag"
)

type processFunc func(filename *string, container *ctrextract.Container) interface{}

var (
	processFlags pflag.FlagSet
	compact      = processFlags.BoolP("compact", "c", false, "disable pretty-printing of JSON output")
)

// processFiles opens each file as an NCCH container and JSON-encodes the
// result of process. With no arguments, stdin is buffered into memory first
// since the decoder needs a seekable input.
func processFiles(filenames []string, process processFunc) {
	encoder := json.NewEncoder(os.Stdout)
	if !*compact {
		encoder.SetIndent("", "  ")
	}
	encoder.SetEscapeHTML(false)

	if len(filenames) == 0 {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to read stdin: %v\n", err)
			os.Exit(2)
		}
		container := ctrextract.NewContainer(bytes.NewReader(data), openKeys())
		encoder.Encode(process(nil, container))
		return
	}

	for _, filename := range filenames {
		file, err := os.Open(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Unable to open file: %v\n", err)
			os.Exit(2)
		}

		container := ctrextract.NewContainer(file, openKeys())
		encoder.Encode(process(&filename, container))
		file.Close()
	}
}
