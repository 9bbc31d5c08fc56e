package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/catalog"
	"jobsearch-engine/internal/store"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Print the option lists every picker offers",
	RunE:  runCatalog,
}

var catalogJSON bool

func init() {
	catalogCmd.Flags().BoolVar(&catalogJSON, "json", false, "Print JSON instead of tables")
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	snap := a.snapshot(cmd.Context())
	cat := catalog.Build(a.tree, snap.Records, catalog.Fixed{
		Popular:     a.cfg.Filters.Popular,
		Annuals:     a.cfg.Filters.Annuals,
		Employments: a.cfg.Filters.Employments,
	})
	if catalogJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cat)
	}

	// counts come from the stored snapshot, which the load above refreshed
	counts, err := store.CountByPrefecture(cmd.Context(), a.db.Pool)
	if err != nil {
		return err
	}
	pterm.DefaultSection.Println("勤務地")
	if err := pterm.DefaultTable.WithHasHeader().WithData(locationTable(cat, counts)).Render(); err != nil {
		return err
	}

	pterm.DefaultSection.Println("選択肢")
	annuals := make([]string, len(cat.Annuals))
	for i, v := range cat.Annuals {
		annuals[i] = strconv.Itoa(v)
	}
	return pterm.DefaultTable.WithHasHeader().WithData(pterm.TableData{
		{"項目", "選択肢"},
		{"職種", strings.Join(cat.JobCategories, "、")},
		{"こだわり", strings.Join(cat.Preferences, "、")},
		{"人気のこだわり", strings.Join(cat.Popular, "、")},
		{"年収(万円)", strings.Join(annuals, "、")},
		{"雇用形態", strings.Join(cat.Employments, "、")},
	}).Render()
}

// locationTable lists prefectures that have records.
func locationTable(cat catalog.Catalog, counts map[string]int) pterm.TableData {
	data := pterm.TableData{{"地方", "都道府県", "件数", "市区町村"}}
	for _, r := range cat.Regions {
		for _, p := range r.Prefectures {
			n := counts[p]
			if n == 0 {
				continue
			}
			data = append(data, []string{r.Name, p, fmt.Sprint(n), strings.Join(cat.CitiesByPref[p], "、")})
		}
	}
	return data
}
