package recipe

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Policy 缺少餐別時的處理方式
type Policy int

const (
	// Permissive 偵測不到餐別時預設為 Lunch + Dinner
	Permissive Policy = iota
	// RequireMealType 明確的 mealType 欄位為空時拒絕該筆紀錄
	RequireMealType
)

// Normalizer 將原始 JSON 紀錄轉為 Recipe
type Normalizer struct {
	Policy Policy
}

// Normalize 以預設（寬鬆）策略正規化
func Normalize(raw json.RawMessage) (*Recipe, bool) {
	return Normalizer{}.Normalize(raw)
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 小寫化並將非英數字元轉為單一 '-'
func Slugify(s string) string {
	return strings.Trim(slugInvalid.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// hashSlug 標題沒有任何英數字元時，以標題雜湊產生穩定的 slug
func hashSlug(title string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(title))))
	return "recipe-" + hex.EncodeToString(sum[:])[:12]
}

// Humanize 將 slug 轉回可讀標題
func Humanize(slug string) string {
	words := strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-' || r == '_' || unicode.IsSpace(r)
	})
	for i, w := range words {
		rs := []rune(w)
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

// mealMatchers 依序比對的餐別關鍵字
var mealMatchers = []struct {
	meal MealType
	re   *regexp.Regexp
}{
	{Breakfast, regexp.MustCompile(`breakfast`)},
	{Lunch, regexp.MustCompile(`lunch`)},
	{Dinner, regexp.MustCompile(`dinner|supper|main`)},
	{Snack, regexp.MustCompile(`snack`)},
}

// DetectMealTypes 以關鍵字掃描字串，維持出現順序且不重複
func DetectMealTypes(values ...string) []MealType {
	var out []MealType
	seen := make(map[MealType]bool)
	for _, v := range values {
		for _, part := range SplitTags(v) {
			lower := strings.ToLower(part)
			for _, m := range mealMatchers {
				if !seen[m.meal] && m.re.MatchString(lower) {
					seen[m.meal] = true
					out = append(out, m.meal)
				}
			}
		}
	}
	return out
}

// BandFor 依熱量計算區間（含上限，最低區間優先）
func BandFor(kcal float64) KcalBand {
	switch {
	case kcal <= 400:
		return Band400
	case kcal <= 600:
		return Band600
	case kcal <= 800:
		return Band800
	default:
		return BandNone
	}
}

// ParseBand 辨識既有的區間字串（接受 "<=400" 寫法）
func ParseBand(s string) KcalBand {
	s = strings.ReplaceAll(strings.TrimSpace(s), "<=", "≤")
	for _, b := range KcalBands {
		if string(b) == s {
			return b
		}
	}
	return BandNone
}

// Normalize 轉換單筆紀錄；非物件或無法解碼時回傳 false
func (n Normalizer) Normalize(data json.RawMessage) (*Recipe, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return nil, false
	}
	var raw RawRecipe
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	return n.FromRaw(raw)
}

// FromRaw 由已解碼的原始紀錄建立 Recipe
func (n Normalizer) FromRaw(raw RawRecipe) (*Recipe, bool) {
	explicit := DetectMealTypes(raw.MealType...)
	if n.Policy == RequireMealType && len(explicit) == 0 {
		return nil, false
	}

	r := &Recipe{
		Dietary:          cleanTags(raw.Dietary),
		NutritionFocus:   cleanTags(raw.NutritionFocus),
		Protocols:        cleanTags(raw.Protocols),
		CostPrep:         cleanTags(raw.CostPrep),
		CostTag:          strings.TrimSpace(string(raw.CostTag)),
		Tags:             cleanTags(raw.Tags),
		TimeLabel:        strings.TrimSpace(string(raw.TimeLabel)),
		SlowCook:         bool(raw.SlowCook),
		NoCook:           bool(raw.NoCook),
		Serves:           string(raw.Serves),
		Method:           cleanTags(raw.Method),
		AllergensPresent: cleanTags(raw.AllergensPresent),
		Swaps:            cleanTags(raw.Swaps),
		HydrationTip:     string(raw.HydrationTip),
	}

	// 標題：title > name > 由 slug 還原 > "Untitled"
	slug := strings.TrimSpace(string(raw.Slug))
	r.Title = strings.TrimSpace(string(raw.Title))
	if r.Title == "" {
		r.Title = strings.TrimSpace(string(raw.Name))
	}
	if r.Title == "" {
		r.Title = Humanize(slug)
	}
	if r.Title == "" {
		r.Title = "Untitled"
	}
	if slug == "" {
		slug = Slugify(r.Title)
	}
	if slug == "" {
		slug = hashSlug(r.Title)
	}
	r.Slug = slug

	// 餐別：明確欄位 ∪ 標籤掃描，皆無則預設 Lunch + Dinner
	tagText := append(append(append(append(append([]string{}, r.Tags...), r.Dietary...), r.NutritionFocus...), r.Protocols...), r.CostPrep...)
	tagText = append(tagText, r.CostTag)
	r.MealTypes = mergeMeals(explicit, DetectMealTypes(tagText...))
	if len(r.MealTypes) == 0 {
		r.MealTypes = []MealType{Lunch, Dinner}
	}

	if raw.TimeMins.Valid && raw.TimeMins.Value > 0 {
		r.TimeMins = int(math.Round(raw.TimeMins.Value))
	}
	if raw.SpiceLevel.Valid {
		r.SpiceLevel = clamp(int(math.Round(raw.SpiceLevel.Value)), 0, 3)
	}

	for _, ing := range raw.Ingredients {
		r.Ingredients = append(r.Ingredients, Ingredient{
			Qty:       string(ing.Qty),
			Item:      string(ing.Item),
			PantryKey: string(ing.PantryKey),
		})
	}

	r.Nutrition = Nutrition{
		Kcal:    raw.Nutrition.Kcal.Ptr(),
		Protein: raw.Nutrition.Protein.Value,
		Carbs:   raw.Nutrition.Carbs.Value,
		Fat:     raw.Nutrition.Fat.Value,
		Fibre:   raw.Nutrition.Fibre.Ptr(),
		Sugar:   raw.Nutrition.Sugar.Ptr(),
		Salt:    raw.Nutrition.Salt.Ptr(),
	}

	r.KcalBand = ParseBand(string(raw.KcalBand))
	if r.KcalBand == BandNone && r.Nutrition.Kcal != nil {
		r.KcalBand = BandFor(*r.Nutrition.Kcal)
	}

	r.PantryKeys = pantryKeys(raw.PantryKeys)
	if len(r.PantryKeys) == 0 {
		keys := make([]string, 0, len(r.Ingredients))
		for _, ing := range r.Ingredients {
			k := ing.PantryKey
			if strings.TrimSpace(k) == "" {
				k = ing.Item
			}
			keys = append(keys, k)
		}
		r.PantryKeys = pantryKeys(keys)
	}

	return r, true
}

func mergeMeals(a, b []MealType) []MealType {
	out := append([]MealType{}, a...)
	for _, m := range b {
		found := false
		for _, e := range out {
			if e == m {
				found = true
				break
			}
		}
		if !found {
			out = append(out, m)
		}
	}
	return out
}

// cleanTags 去除空白與空值，保留原始大小寫
func cleanTags(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func pantryKeys(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			out = append(out, k)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
