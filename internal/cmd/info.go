package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/connesc/ctrextract"
	"github.com/spf13/cobra"
)

func init() {
	infoCmd.Flags().AddFlagSet(&processFlags)
	rootCmd.AddCommand(infoCmd)
}

type ncchInfo struct {
	File *string `json:",omitempty"`

	PartitionID ctrextract.Hex64
	ProgramID   ctrextract.Hex64
	ProductCode string
	Version     uint16
	Encrypted   bool

	HasExHeader bool
	HasExeFS    bool
	HasRomFS    bool

	ExHeader  *exheaderInfo     `json:",omitempty"`
	ExtdataID *ctrextract.Hex64 `json:",omitempty"`
	Icon      *ctrextract.SMDH  `json:",omitempty"`
}

type exheaderInfo struct {
	Name                  string
	EntryPoint            ctrextract.Hex32
	CodeSize              ctrextract.Hex32
	StackSize             ctrextract.Hex32
	BSSSize               ctrextract.Hex32
	CoreVersion           uint32
	Priority              uint8
	SystemMode            uint8
	ResourceLimitCategory uint8
}

var infoCmd = &cobra.Command{
	Use:   "info [file...]",
	Short: "Show NCCH metadata",
	Long:  "Show the metadata of NCCH files given as arguments, or stdin if none is given",
	Run: func(cmd *cobra.Command, args []string) {
		processFiles(args, func(filename *string, container *ctrextract.Container) interface{} {
			if err := container.Load(); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid NCCH: %v\n", err)
				os.Exit(3)
			}

			header := container.Header()
			info := ncchInfo{
				File:        filename,
				PartitionID: ctrextract.Hex64(header.PartitionID),
				ProgramID:   ctrextract.Hex64(header.ProgramID),
				ProductCode: header.ProductCode,
				Version:     header.Version,
				Encrypted:   container.Encrypted(),
				HasExHeader: container.HasExHeader(),
				HasExeFS:    container.HasExeFS(),
				HasRomFS:    container.HasRomFS(),
			}

			if exheader := container.ExHeader(); exheader != nil {
				info.ExHeader = &exheaderInfo{
					Name:                  exheader.Name,
					EntryPoint:            ctrextract.Hex32(exheader.Text.Address),
					CodeSize:              ctrextract.Hex32(exheader.Text.Size),
					StackSize:             ctrextract.Hex32(exheader.StackSize),
					BSSSize:               ctrextract.Hex32(exheader.BSSSize),
					CoreVersion:           exheader.CoreVersion,
					Priority:              exheader.Priority,
					SystemMode:            exheader.SystemMode,
					ResourceLimitCategory: exheader.ResourceLimitCategory,
				}

				if extdataID, err := container.ReadExtdataID(); err == nil {
					id := ctrextract.Hex64(extdataID)
					info.ExtdataID = &id
				} else if !errors.Is(err, ctrextract.ErrNotFound) {
					fmt.Fprintf(os.Stderr, "Unable to read extdata ID: %v\n", err)
					os.Exit(3)
				}
			}

			if icon, err := container.LoadSectionExeFS("icon"); err == nil {
				smdh, err := ctrextract.ParseSMDH(bytes.NewReader(icon))
				if err != nil {
					fmt.Fprintf(os.Stderr, "Invalid icon: %v\n", err)
					os.Exit(3)
				}
				info.Icon = smdh
			} else if !errors.Is(err, ctrextract.ErrNotFound) && !errors.Is(err, ctrextract.ErrReadFailed) {
				fmt.Fprintf(os.Stderr, "Unable to read icon: %v\n", err)
				os.Exit(3)
			}

			return info
		})
	},
}
