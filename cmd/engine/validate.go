package main

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/location"
)

var validateCmd = &cobra.Command{
	Use:   "validate-config",
	Short: "Check the config file and the location reference",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	path, err := configPath()
	if err != nil {
		return err
	}
	cfg, vr, err := readConfig(path)
	if err != nil {
		return err
	}
	pterm.Info.Printfln("config: %s", path)

	for _, w := range vr.Warnings {
		pterm.Warning.Println(w)
	}
	for _, e := range vr.Errors {
		pterm.Error.Println(e)
	}

	tree, lerr := location.Load(cfg.Reference.LocationsPath)
	if lerr != nil {
		pterm.Error.Printfln("reference.locations_path: %v", lerr)
	} else {
		pterm.Info.Printfln("locations: %d regions, %d prefectures", len(tree.Regions()), len(tree.Prefectures()))
	}

	if !vr.OK() || lerr != nil {
		return errors.New("config is invalid")
	}
	pterm.Success.Println(fmt.Sprintf("ok (%d sheet url(s))", len(cfg.Source.URLs)))
	return nil
}
