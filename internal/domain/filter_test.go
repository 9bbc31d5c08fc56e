package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterState_IsEmpty(t *testing.T) {
	assert.True(t, FilterState{}.IsEmpty())
	assert.True(t, FilterState{Keyword: "   "}.IsEmpty())
	assert.False(t, FilterState{AnnualIncomeMin: IntPtr(0)}.IsEmpty())
	assert.False(t, FilterState{Locations: []LocationPath{PrefPath("京都府")}}.IsEmpty())
}

func TestFilterState_CloneIsDeep(t *testing.T) {
	orig := FilterState{
		JobCategories:   []string{"接客"},
		Locations:       []LocationPath{PrefPath("京都府")},
		AnnualIncomeMin: IntPtr(300),
	}
	c := orig.Clone()
	c.JobCategories[0] = "事務"
	c.Locations[0] = PrefPath("大阪府")
	*c.AnnualIncomeMin = 500

	assert.Equal(t, "接客", orig.JobCategories[0])
	assert.Equal(t, PrefPath("京都府"), orig.Locations[0])
	assert.Equal(t, 300, *orig.AnnualIncomeMin)
}

func TestFilterState_Normalize(t *testing.T) {
	s := FilterState{
		Keyword:         "  カフェ ",
		JobCategories:   []string{" 接客", "接客", "", "事務"},
		EmploymentTypes: []string{"正社員", " 正社員 "},
		Locations:       []LocationPath{PrefPath("京都府"), PrefPath("京都府"), {}},
	}.Normalize()

	assert.Equal(t, "カフェ", s.Keyword)
	assert.Equal(t, []string{"接客", "事務"}, s.JobCategories)
	assert.Equal(t, []string{"正社員"}, s.EmploymentTypes)
	assert.Equal(t, []LocationPath{PrefPath("京都府")}, s.Locations)
}

func TestFilterState_Validate(t *testing.T) {
	ok := FilterState{AnnualIncomeMin: IntPtr(300), JobCategories: []string{"接客"}}
	require.NoError(t, ok.Validate())

	neg := FilterState{AnnualIncomeMin: IntPtr(-1)}
	assert.Error(t, neg.Validate())

	emptyItem := FilterState{Preferences: []string{""}}
	assert.Error(t, emptyItem.Validate())

	badPath := FilterState{Locations: []LocationPath{{Pref: "京都府", Ward: "北区"}}}
	var pathErr *InvalidPathError
	assert.ErrorAs(t, badPath.Validate(), &pathErr)
}

func TestJobRecord_EmploymentTypes(t *testing.T) {
	r := JobRecord{Employment: "正社員, アルバイト,,"}
	assert.Equal(t, []string{"正社員", "アルバイト"}, r.EmploymentTypes())
	assert.Nil(t, JobRecord{}.EmploymentTypes())
}
