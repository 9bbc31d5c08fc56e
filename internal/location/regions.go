package location

import "strings"

var tohoku = map[string]bool{
	"青森県": true, "岩手県": true, "宮城県": true, "秋田県": true, "山形県": true, "福島県": true,
}

// DefaultRegions is the national region table. The combined 北海道・東北 entry
// is split by NormalizeRegions.
func DefaultRegions() []Region {
	return []Region{
		{Name: "北海道・東北", Prefectures: []string{"北海道", "青森県", "岩手県", "宮城県", "秋田県", "山形県", "福島県"}},
		{Name: "関東", Prefectures: []string{"茨城県", "栃木県", "群馬県", "埼玉県", "千葉県", "東京都", "神奈川県"}},
		{Name: "中部", Prefectures: []string{"新潟県", "富山県", "石川県", "福井県", "山梨県", "長野県", "岐阜県", "静岡県", "愛知県"}},
		{Name: "近畿", Prefectures: []string{"三重県", "滋賀県", "京都府", "大阪府", "兵庫県", "奈良県", "和歌山県"}},
		{Name: "中国", Prefectures: []string{"鳥取県", "島根県", "岡山県", "広島県", "山口県"}},
		{Name: "四国", Prefectures: []string{"徳島県", "香川県", "愛媛県", "高知県"}},
		{Name: "九州・沖縄", Prefectures: []string{"福岡県", "佐賀県", "長崎県", "熊本県", "大分県", "宮崎県", "鹿児島県", "沖縄県"}},
	}
}

// NormalizeRegions splits a combined "北海道・東北" region into 北海道 and 東北,
// merging with any existing region of the same name. Order is preserved.
func NormalizeRegions(in []Region) []Region {
	var out []Region
	idx := map[string]int{}
	add := func(name string, prefs []string) {
		if len(prefs) == 0 {
			return
		}
		if i, ok := idx[name]; ok {
			out[i].Prefectures = append(out[i].Prefectures, prefs...)
			return
		}
		idx[name] = len(out)
		out = append(out, Region{Name: name, Prefectures: append([]string(nil), prefs...)})
	}

	for _, r := range in {
		if strings.Contains(r.Name, "北海道") && strings.Contains(r.Name, "東北") {
			var hokkaido, north []string
			for _, p := range r.Prefectures {
				switch {
				case p == "北海道":
					hokkaido = append(hokkaido, p)
				case tohoku[p]:
					north = append(north, p)
				}
			}
			add("北海道", hokkaido)
			add("東北", north)
			continue
		}
		add(r.Name, r.Prefectures)
	}
	return out
}

// Default is the built-in tree: every prefecture, no reference cities.
func Default() *Tree {
	t, _ := New(NormalizeRegions(DefaultRegions()), nil)
	return t
}
