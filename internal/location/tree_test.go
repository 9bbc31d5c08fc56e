package location

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
regions:
  近畿: [京都府, 大阪府]
  北海道・東北: [北海道, 青森県]
prefectures:
  京都府:
    京都市: [北区, 上京区]
    宇治市: []
    久御山町:
  大阪府: [堺市, 豊中市]
  北海道: ~
`

func TestParse_BothPrefectureShapes(t *testing.T) {
	tree, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, []string{"京都市", "宇治市", "久御山町"}, tree.Cities("京都府"))
	assert.Equal(t, []string{"北区", "上京区"}, tree.Wards("京都府", "京都市"))
	assert.Empty(t, tree.Wards("京都府", "宇治市"))
	assert.Empty(t, tree.Wards("京都府", "久御山町"))

	assert.Equal(t, []string{"堺市", "豊中市"}, tree.Cities("大阪府"))
	assert.Empty(t, tree.Wards("大阪府", "堺市"))

	assert.True(t, tree.HasPrefecture("北海道"))
	assert.Empty(t, tree.Cities("北海道"))
}

func TestParse_SplitsHokkaidoTohoku(t *testing.T) {
	tree, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	var names []string
	for _, r := range tree.Regions() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"近畿", "北海道", "東北"}, names)
	assert.Equal(t, "東北", tree.RegionOf("青森県"))
	assert.Equal(t, "北海道", tree.RegionOf("北海道"))
	assert.Equal(t, []string{"京都府", "大阪府", "北海道", "青森県"}, tree.Prefectures())
}

func TestParse_DefaultRegionsWhenOmitted(t *testing.T) {
	tree, err := Parse([]byte("prefectures:\n  京都府: [宇治市]\n"))
	require.NoError(t, err)
	assert.Len(t, tree.Prefectures(), 47)
	assert.Equal(t, []string{"宇治市"}, tree.Cities("京都府"))
	assert.Equal(t, "近畿", tree.RegionOf("京都府"))
}

func TestParse_RegionListForm(t *testing.T) {
	tree, err := Parse([]byte(`
regions:
  - name: 関東
    prefectures: [東京都]
`))
	require.NoError(t, err)
	r, ok := tree.Region("関東")
	require.True(t, ok)
	assert.Equal(t, []string{"東京都"}, r.Prefectures)
}

func TestNew_RejectsDuplicatePrefecture(t *testing.T) {
	_, err := New([]Region{
		{Name: "a", Prefectures: []string{"京都府"}},
		{Name: "b", Prefectures: []string{"京都府"}},
	}, nil)
	assert.Error(t, err)
}

func TestHasWard_ExactNames(t *testing.T) {
	tree, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	assert.True(t, tree.HasWard("京都府", "京都市", "北区"))
	assert.False(t, tree.HasWard("京都府", "京都", "北区"))
	assert.False(t, tree.HasCity("京都", "京都市"))
	assert.False(t, tree.HasCity("京都府", "京都"))
}

func TestWithCities_FillsOnlyEmptyPrefectures(t *testing.T) {
	tree, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	got := tree.WithCities(map[string][]string{
		"北海道": {"札幌市", "旭川市", "札幌市", ""},
		"京都府": {"福知山市"},
	})
	assert.Equal(t, []string{"旭川市", "札幌市"}, got.Cities("北海道"))
	assert.Equal(t, []string{"京都市", "宇治市", "久御山町"}, got.Cities("京都府"))
	assert.Empty(t, tree.Cities("北海道"), "original tree must stay untouched")
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locations.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o644))

	tree, err := Load(path)
	require.NoError(t, err)
	assert.True(t, tree.HasCity("大阪府", "堺市"))

	def, err := Load("")
	require.NoError(t, err)
	assert.Len(t, def.Regions(), 8)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
