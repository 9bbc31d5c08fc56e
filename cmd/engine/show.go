package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/store"
)

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print one job record",
	Long:  "Prints one record. With --offline it is read straight from the stored snapshot.",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Describe the stored snapshot",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(showCmd, statusCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	var rec domain.JobRecord
	var ok bool
	if flagOffline {
		rec, ok, err = store.GetRecord(cmd.Context(), a.db.Pool, args[0])
		if err != nil {
			return err
		}
	} else {
		rec, ok = a.snapshot(cmd.Context()).Get(args[0])
	}
	if !ok {
		return fmt.Errorf("no record with id %q", args[0])
	}

	return pterm.DefaultTable.WithData(detailTable(rec)).Render()
}

func detailTable(r domain.JobRecord) pterm.TableData {
	rows := pterm.TableData{
		{"店舗名", r.Name},
		{"勤務地", placeLabel(r)},
		{"住所", r.Address},
		{"最寄駅", r.Station},
		{"職種", r.JobLabel},
		{"雇用形態", r.Employment},
		{"時給", wageLabel(r.Wage)},
		{"年収目安", annualLabel(r.AnnualIncome)},
		{"勤務時間", r.TimeShort},
		{"給与", r.PayDetail},
		{"URL", r.ExternalURL},
	}
	out := pterm.TableData{{"ID", r.ID}}
	for _, row := range rows {
		if row[1] != "" && row[1] != "-" {
			out = append(out, row)
		}
	}
	return out
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	meta, err := store.Meta(cmd.Context(), a.db.Pool)
	if errors.Is(err, store.ErrNoSnapshot) {
		pterm.Warning.Println("no snapshot stored yet")
		return nil
	}
	if err != nil {
		return err
	}
	pterm.Info.Printfln("%d records from %s, loaded %s (%s ago)",
		meta.Count, meta.Source, meta.LoadedAt.Format(time.RFC3339), time.Since(meta.LoadedAt).Round(time.Second))
	return nil
}
