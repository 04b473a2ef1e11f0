package main

import (
	"github.com/connesc/ctrextract/internal/cmd"
)

func main() {
	cmd.Execute()
}
