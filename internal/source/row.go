// Package source loads job records from a published spreadsheet.
package source

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"jobsearch-engine/internal/domain"
)

// Row is one sheet row keyed by its header cell.
type Row map[string]string

// Column headers of the job sheet. Some fields accept several header
// spellings; the first non-empty one wins.
const (
	colID          = "id"
	colName        = "店舗名"
	colPrefecture  = "都道府県"
	colCity        = "市区町村"
	colWard        = "区"
	colAddress     = "住所"
	colStation     = "最寄駅"
	colJobLabel    = "職種表示文"
	colEmployment  = "雇用形態"
	colWage        = "時給"
	colAnnual      = "年収目安"
	colTimeShort   = "勤務時間概要"
	colTimeDetail  = "勤務時間詳細"
	colPayDetail   = "給与詳細"
	colPlaceDetail = "勤務地詳細"
	colExternalURL = "外部URL"
	colLineID      = "LINE_ID"
)

var (
	colCategories = []string{"職種カテゴリ（カンマ区切り）", "職種カテゴリ", "職種"}
	colImages     = []string{"画像URL（カンマ区切り）", "画像URL"}
	colFeatures   = []string{"こだわり（カンマ区切り）", "こだわり"}
)

func (r Row) get(key string) string {
	return strings.TrimSpace(r[key])
}

func (r Row) first(keys []string) string {
	for _, k := range keys {
		if v := r.get(k); v != "" {
			return v
		}
	}
	return ""
}

// NormalizeRow maps a sheet row onto a JobRecord. Missing or malformed
// cells become zero values.
func NormalizeRow(r Row) domain.JobRecord {
	return domain.JobRecord{
		ID:           r.get(colID),
		Name:         r.get(colName),
		Prefecture:   r.get(colPrefecture),
		City:         r.get(colCity),
		Ward:         r.get(colWard),
		Address:      r.get(colAddress),
		Station:      r.get(colStation),
		Categories:   domain.SplitList(r.first(colCategories)),
		JobLabel:     r.get(colJobLabel),
		Employment:   r.get(colEmployment),
		Wage:         ParseInt(r.get(colWage)),
		AnnualIncome: ParseInt(r.get(colAnnual)),
		TimeShort:    r.get(colTimeShort),
		TimeDetail:   r.get(colTimeDetail),
		PayDetail:    r.get(colPayDetail),
		PlaceDetail:  r.get(colPlaceDetail),
		ExternalURL:  r.get(colExternalURL),
		LineID:       r.get(colLineID),
		Images:       domain.SplitList(r.first(colImages)),
		Features:     domain.SplitList(r.first(colFeatures)),
	}
}

// NormalizeRows converts rows, dropping rows with no content at all and
// assigning positional ids ("row-3") to rows without one.
func NormalizeRows(rows []Row) []domain.JobRecord {
	return normalizeRows(rows, "")
}

// normalizeRows is NormalizeRows with prefix put in front of generated ids.
func normalizeRows(rows []Row, prefix string) []domain.JobRecord {
	out := make([]domain.JobRecord, 0, len(rows))
	for i, r := range rows {
		if r.blank() {
			continue
		}
		rec := NormalizeRow(r)
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("%srow-%d", prefix, i+1)
		}
		out = append(out, rec)
	}
	return out
}

func (r Row) blank() bool {
	for _, v := range r {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// ParseInt reads the leading integer of s, ignoring thousands separators
// ("1,200円" -> 1200). Full-width digits are folded first. Anything
// unparsable is 0.
func ParseInt(s string) int {
	s = strings.TrimSpace(norm.NFKC.String(s))
	s = strings.NewReplacer(",", "", "，", "", " ", "").Replace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
