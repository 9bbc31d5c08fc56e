package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/filter"
	"jobsearch-engine/internal/form"
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Filter job records from the terminal",
	Long: "Applies the given criteria to the current records and prints the matches. " +
		"Locations use the pref/city/ward form, e.g. --location 京都府/京都市.",
	RunE: runSearch,
}

type searchOpts struct {
	keyword     string
	locations   []string
	categories  []string
	preferences []string
	popular     []string
	employments []string
	income      int
	policy      string
	explain     bool
	asJSON      bool
	limit       int
}

var searchFlags searchOpts

func init() {
	f := searchCmd.Flags()
	f.StringVarP(&searchFlags.keyword, "keyword", "k", "", "Free-text keyword")
	f.StringSliceVarP(&searchFlags.locations, "location", "l", nil, "Location path (repeatable)")
	f.StringSliceVar(&searchFlags.categories, "category", nil, "Job category (repeatable)")
	f.StringSliceVar(&searchFlags.preferences, "preference", nil, "Preference tag (repeatable)")
	f.StringSliceVar(&searchFlags.popular, "popular", nil, "Popular tag (repeatable)")
	f.StringSliceVar(&searchFlags.employments, "employment", nil, "Employment type (repeatable)")
	f.IntVar(&searchFlags.income, "income", -1, "Annual income floor in 万円 (-1 for none)")
	f.StringVar(&searchFlags.policy, "income-policy", "", "strict or inclusive (default from config)")
	f.BoolVar(&searchFlags.explain, "explain", false, "List why each dropped record was dropped")
	f.BoolVar(&searchFlags.asJSON, "json", false, "Print JSON instead of a table")
	f.IntVar(&searchFlags.limit, "limit", 50, "Rows to print (0 for all)")

	rootCmd.AddCommand(searchCmd)
}

// state turns the flags into a validated FilterState.
func (o searchOpts) state() (domain.FilterState, error) {
	s := domain.FilterState{
		Keyword:         o.keyword,
		JobCategories:   o.categories,
		Preferences:     o.preferences,
		PopularTags:     o.popular,
		EmploymentTypes: o.employments,
	}
	for _, raw := range o.locations {
		p, err := domain.ParseLocationPath(raw)
		if err != nil {
			return domain.FilterState{}, err
		}
		s.Locations = append(s.Locations, p)
	}
	if o.income >= 0 {
		s.AnnualIncomeMin = domain.IntPtr(o.income)
	}
	if err := s.Validate(); err != nil {
		return domain.FilterState{}, err
	}
	return s.Normalize(), nil
}

func runSearch(cmd *cobra.Command, _ []string) error {
	state, err := searchFlags.state()
	if err != nil {
		return err
	}
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	eng, err := a.engine(searchFlags.policy)
	if err != nil {
		return err
	}
	snap := a.snapshot(cmd.Context())
	out := eng.Filter(state, snap.Records)

	if searchFlags.asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	if state.IsEmpty() {
		pterm.Info.Printfln("条件なし: %d件すべて (%s)", len(out), snap.Origin)
	} else {
		pterm.Info.Printfln("%d / %d件 (%s) 年収: %s", len(out), len(snap.Records), snap.Origin,
			form.IncomeLabel(state.AnnualIncomeMin, eng.IncomePolicy()))
	}
	shown := out
	if searchFlags.limit > 0 && len(shown) > searchFlags.limit {
		shown = shown[:searchFlags.limit]
	}
	if len(shown) > 0 {
		if err := pterm.DefaultTable.WithHasHeader().WithData(resultTable(shown, true)).Render(); err != nil {
			return err
		}
	}

	if searchFlags.explain {
		return renderReasons(eng.ExplainAll(state, snap.Records))
	}
	return nil
}

func resultTable(recs []domain.JobRecord, color bool) pterm.TableData {
	data := pterm.TableData{{"ID", "店舗名", "勤務地", "職種", "雇用形態", "時給", "年収目安"}}
	for _, r := range recs {
		wage := wageLabel(r.Wage)
		if color {
			wage = colorWage(r.Wage, wage)
		}
		data = append(data, []string{
			r.ID,
			r.Name,
			placeLabel(r),
			strings.Join(r.Categories, "、"),
			strings.Join(r.EmploymentTypes(), "、"),
			wage,
			annualLabel(r.AnnualIncome),
		})
	}
	return data
}

func renderReasons(verdicts []filter.Verdict) error {
	data := pterm.TableData{{"ID", "除外理由"}}
	for _, v := range verdicts {
		if v.Reason != "" {
			data = append(data, []string{v.ID, v.Reason})
		}
	}
	if len(data) == 1 {
		return nil
	}
	pterm.DefaultSection.Println("除外された求人")
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func placeLabel(r domain.JobRecord) string {
	parts := []string{r.Prefecture}
	if r.City != "" {
		parts = append(parts, r.City)
	}
	if r.Ward != "" {
		parts = append(parts, r.Ward)
	}
	return strings.Join(parts, " ")
}

func wageLabel(w int) string {
	if w <= 0 {
		return "-"
	}
	return fmt.Sprintf("%s円", humanize.Comma(int64(w)))
}

func annualLabel(v int) string {
	if v <= 0 {
		return "-"
	}
	return fmt.Sprintf("%s万円", humanize.Comma(int64(v)))
}

func colorWage(w int, label string) string {
	switch {
	case w >= 1500:
		return pterm.Green(label)
	case w >= 1200:
		return pterm.LightGreen(label)
	case w >= 1000:
		return pterm.Yellow(label)
	default:
		return label
	}
}
