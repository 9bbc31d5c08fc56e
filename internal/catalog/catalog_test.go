package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/location"
)

func records() []domain.JobRecord {
	return []domain.JobRecord{
		{Prefecture: "京都府", City: "宇治市", Categories: []string{"接客", "調理"}, Features: []string{"駅近"}},
		{Prefecture: "京都府", City: "京都市", Categories: []string{"接客"}},
		{Prefecture: "大阪府", Categories: []string{"事務"}, Features: []string{"高収入", "駅近"}},
		{City: "orphan"},
	}
}

func TestBuild(t *testing.T) {
	fixed := Fixed{Popular: []string{"高収入"}, Annuals: []int{200, 300}, Employments: []string{"正社員"}}
	c := Build(location.Default(), records(), fixed)

	assert.Equal(t, map[string][]string{"京都府": {"京都市", "宇治市"}, "大阪府": {}}, c.CitiesByPref)
	assert.Equal(t, []string{"事務", "接客", "調理"}, c.JobCategories)
	assert.Equal(t, []string{"駅近", "高収入"}, c.Preferences)
	assert.Equal(t, fixed.Annuals, c.Annuals)
	assert.Len(t, c.Regions, 8)
}

func TestBuild_NoRecords(t *testing.T) {
	c := Build(location.Default(), nil, Fixed{})
	assert.Empty(t, c.CitiesByPref)
	assert.Empty(t, c.JobCategories)
	assert.NotNil(t, c.JobCategories)
}

func TestLocationsAndTreeFor(t *testing.T) {
	tree, err := location.Parse([]byte(`
regions:
  近畿: [京都府, 大阪府]
prefectures:
  大阪府:
    大阪市: [北区]
`))
	require.NoError(t, err)

	ext := TreeFor(tree, records())
	assert.Equal(t, []string{"京都市", "宇治市"}, ext.Cities("京都府"))
	assert.Equal(t, []string{"大阪市"}, ext.Cities("大阪府"), "reference cities win")

	view := Locations(ext)
	require.Len(t, view, 1)
	assert.Equal(t, "近畿", view[0].Name)
	assert.Equal(t, PrefectureView{Name: "大阪府", Cities: []CityView{{Name: "大阪市", Wards: []string{"北区"}}}}, view[0].Prefectures[1])
}
