package domain

import "strings"

// JobRecord is one spreadsheet row. Records are never mutated after load.
type JobRecord struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Prefecture   string   `json:"prefecture"`
	City         string   `json:"city"`
	Ward         string   `json:"ward,omitempty"`
	Address      string   `json:"address"`
	Station      string   `json:"station"`
	Categories   []string `json:"categories"`
	JobLabel     string   `json:"jobLabel"`
	Employment   string   `json:"employment"` // comma-joined
	Wage         int      `json:"wage"`
	AnnualIncome int      `json:"annualIncome"` // 万円
	TimeShort    string   `json:"timeShort,omitempty"`
	TimeDetail   string   `json:"timeDetail,omitempty"`
	PayDetail    string   `json:"payDetail,omitempty"`
	PlaceDetail  string   `json:"placeDetail,omitempty"`
	ExternalURL  string   `json:"externalUrl,omitempty"`
	LineID       string   `json:"lineId,omitempty"`
	Images       []string `json:"images,omitempty"`
	Features     []string `json:"features"`
}

func (r JobRecord) EmploymentTypes() []string {
	return SplitList(r.Employment)
}

// SearchText is every field the keyword criterion looks at, lower-cased.
func (r JobRecord) SearchText() []string {
	out := make([]string, 0, 5+len(r.Categories)+len(r.Features))
	out = append(out, r.Name, r.Station, r.JobLabel, r.City, r.Address)
	out = append(out, r.Categories...)
	out = append(out, r.Features...)
	for i := range out {
		out[i] = strings.ToLower(out[i])
	}
	return out
}

// SplitList splits a comma-joined cell, trimming and dropping empties.
// Full-width commas are accepted too.
func SplitList(s string) []string {
	s = strings.ReplaceAll(s, "、", ",")
	s = strings.ReplaceAll(s, "，", ",")
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
