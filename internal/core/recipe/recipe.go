package recipe

import "strings"

// MealType 餐別
type MealType string

const (
	Breakfast MealType = "Breakfast"
	Lunch     MealType = "Lunch"
	Dinner    MealType = "Dinner"
	Snack     MealType = "Snack"
)

// MealTypes 固定順序的所有餐別
var MealTypes = []MealType{Breakfast, Lunch, Dinner, Snack}

// KcalBand 熱量區間
type KcalBand string

const (
	BandNone KcalBand = ""
	Band400  KcalBand = "≤400"
	Band600  KcalBand = "≤600"
	Band800  KcalBand = "≤800"
)

// KcalBands 所有有效的熱量區間
var KcalBands = []KcalBand{Band400, Band600, Band800}

// Ingredient 食材
type Ingredient struct {
	Qty       string `json:"qty,omitempty"`
	Item      string `json:"item"`
	PantryKey string `json:"pantryKey,omitempty"`
}

// Nutrition 每份營養資訊
type Nutrition struct {
	Kcal    *float64 `json:"kcal,omitempty"`
	Protein float64  `json:"protein_g"`
	Carbs   float64  `json:"carbs_g"`
	Fat     float64  `json:"fat_g"`
	Fibre   *float64 `json:"fibre_g,omitempty"`
	Sugar   *float64 `json:"sugar_g,omitempty"`
	Salt    *float64 `json:"salt_g,omitempty"`
}

// Macros 計畫項目使用的營養摘要
type Macros struct {
	Kcal    float64 `json:"kcal"`
	Protein float64 `json:"protein_g"`
	Carbs   float64 `json:"carbs_g"`
	Fat     float64 `json:"fat_g"`
}

// Add 累加營養
func (m Macros) Add(o Macros) Macros {
	return Macros{
		Kcal:    m.Kcal + o.Kcal,
		Protein: m.Protein + o.Protein,
		Carbs:   m.Carbs + o.Carbs,
		Fat:     m.Fat + o.Fat,
	}
}

// Recipe 正規化後的食譜，載入完成後唯讀
type Recipe struct {
	Slug             string       `json:"slug"`
	Title            string       `json:"title"`
	MealTypes        []MealType   `json:"mealType"`
	Dietary          []string     `json:"dietary"`
	NutritionFocus   []string     `json:"nutritionFocus"`
	Protocols        []string     `json:"protocols"`
	CostPrep         []string     `json:"costPrep"`
	CostTag          string       `json:"costTag,omitempty"`
	Tags             []string     `json:"tags"`
	KcalBand         KcalBand     `json:"kcalBand,omitempty"`
	TimeMins         int          `json:"time_mins"`
	TimeLabel        string       `json:"time_label,omitempty"`
	SlowCook         bool         `json:"slowCook"`
	NoCook           bool         `json:"noCook"`
	SpiceLevel       int          `json:"spiceLevel"`
	Serves           string       `json:"serves,omitempty"`
	PantryKeys       []string     `json:"pantryKeys"`
	Ingredients      []Ingredient `json:"ingredients"`
	Method           []string     `json:"method"`
	Nutrition        Nutrition    `json:"nutritionPerServing"`
	AllergensPresent []string     `json:"allergensPresent"`
	Swaps            []string     `json:"swaps,omitempty"`
	HydrationTip     string       `json:"hydrationTip,omitempty"`
}

// PrimaryMealType 顯示用的主要餐別
func (r *Recipe) PrimaryMealType() MealType {
	if len(r.MealTypes) == 0 {
		return ""
	}
	return r.MealTypes[0]
}

// HasMealType 是否屬於指定餐別
func (r *Recipe) HasMealType(mt MealType) bool {
	for _, m := range r.MealTypes {
		if m == mt {
			return true
		}
	}
	return false
}

// Macros 取出計畫項目用的營養摘要
func (r *Recipe) Macros() Macros {
	m := Macros{
		Protein: r.Nutrition.Protein,
		Carbs:   r.Nutrition.Carbs,
		Fat:     r.Nutrition.Fat,
	}
	if r.Nutrition.Kcal != nil {
		m.Kcal = *r.Nutrition.Kcal
	}
	return m
}

// TagSet 合併 dietary、nutritionFocus、protocols、costPrep、costTag 的正規化標籤集合
func (r *Recipe) TagSet() TagSet {
	set := NewTagSet(r.Dietary...)
	set.Add(r.NutritionFocus...)
	set.Add(r.Protocols...)
	set.Add(r.CostPrep...)
	if r.CostTag != "" {
		set.Add(r.CostTag)
	}
	return set
}

// PantrySet 食譜所需的食材鍵集合
func (r *Recipe) PantrySet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.PantryKeys))
	for _, k := range r.PantryKeys {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

// Haystack 搜尋用文字：標題、餐別、標籤與食材名稱
func (r *Recipe) Haystack() string {
	parts := make([]string, 0, 8+len(r.Ingredients))
	parts = append(parts, r.Title)
	for _, m := range r.MealTypes {
		parts = append(parts, string(m))
	}
	parts = append(parts, r.Dietary...)
	parts = append(parts, r.NutritionFocus...)
	parts = append(parts, r.Protocols...)
	for _, ing := range r.Ingredients {
		parts = append(parts, ing.Item)
	}
	return NormalizeText(strings.Join(parts, " "))
}
