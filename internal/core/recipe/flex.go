package recipe

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// 原始食譜資料的欄位型別並不一致（字串、陣列、數字混用），
// 以下型別在解碼時盡量容忍，無法辨識的值一律視為缺少。

var tagDelimiters = regexp.MustCompile(`[,&/|]`)

// SplitTags 以 , & / | 切分標籤字串
func SplitTags(s string) []string {
	var out []string
	for _, p := range tagDelimiters.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// TagList 可為字串（以分隔符切分）或陣列
type TagList []string

// UnmarshalJSON 實作 json.Unmarshaler
func (l *TagList) UnmarshalJSON(data []byte) error {
	*l = nil
	var s string
	if json.Unmarshal(data, &s) == nil {
		*l = SplitTags(s)
		return nil
	}
	*l = decodeScalarArray(data)
	return nil
}

// TextList 可為單一字串或陣列，不做切分
type TextList []string

// UnmarshalJSON 實作 json.Unmarshaler
func (l *TextList) UnmarshalJSON(data []byte) error {
	*l = nil
	var s string
	if json.Unmarshal(data, &s) == nil {
		if s = strings.TrimSpace(s); s != "" {
			*l = TextList{s}
		}
		return nil
	}
	*l = decodeScalarArray(data)
	return nil
}

func decodeScalarArray(data []byte) []string {
	var items []json.RawMessage
	if json.Unmarshal(data, &items) != nil {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, raw := range items {
		var t Text
		_ = t.UnmarshalJSON(raw)
		if v := strings.TrimSpace(string(t)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Text 字串或數字
type Text string

// UnmarshalJSON 實作 json.Unmarshaler
func (t *Text) UnmarshalJSON(data []byte) error {
	*t = ""
	var s string
	if json.Unmarshal(data, &s) == nil {
		*t = Text(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if json.Unmarshal(data, &n) == nil {
		*t = Text(n.String())
	}
	return nil
}

// Number 數字或數字字串；Valid 表示值存在且可解析
type Number struct {
	Value float64
	Valid bool
}

// UnmarshalJSON 實作 json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = Number{}
	data = bytes.TrimSpace(data)
	var f float64
	if json.Unmarshal(data, &f) == nil {
		*n = Number{Value: f, Valid: true}
		return nil
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*n = Number{Value: f, Valid: true}
		}
	}
	return nil
}

// Ptr 有值時回傳指標
func (n Number) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Value
	return &v
}

// Flag 布林、"true"/"yes"/"1" 或非零數字
type Flag bool

// UnmarshalJSON 實作 json.Unmarshaler
func (f *Flag) UnmarshalJSON(data []byte) error {
	*f = false
	var b bool
	if json.Unmarshal(data, &b) == nil {
		*f = Flag(b)
		return nil
	}
	var s string
	if json.Unmarshal(data, &s) == nil {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true", "yes", "y", "1":
			*f = true
		}
		return nil
	}
	var n float64
	if json.Unmarshal(data, &n) == nil {
		*f = n != 0
	}
	return nil
}

// RawIngredient 食材，可為物件或單純字串
type RawIngredient struct {
	Qty       Text `json:"qty"`
	Item      Text `json:"item"`
	PantryKey Text `json:"pantryKey"`
}

// UnmarshalJSON 實作 json.Unmarshaler
func (i *RawIngredient) UnmarshalJSON(data []byte) error {
	*i = RawIngredient{}
	var s string
	if json.Unmarshal(data, &s) == nil {
		i.Item = Text(strings.TrimSpace(s))
		return nil
	}
	type plain RawIngredient
	var p plain
	if json.Unmarshal(data, &p) == nil {
		*i = RawIngredient(p)
	}
	return nil
}

// RawNutrition 每份營養資訊（原始）
type RawNutrition struct {
	Kcal    Number `json:"kcal"`
	Protein Number `json:"protein_g"`
	Carbs   Number `json:"carbs_g"`
	Fat     Number `json:"fat_g"`
	Fibre   Number `json:"fibre_g"`
	Sugar   Number `json:"sugar_g"`
	Salt    Number `json:"salt_g"`
}

// RawRecipe 原始食譜紀錄
type RawRecipe struct {
	Title            Text            `json:"title"`
	Name             Text            `json:"name"`
	Slug             Text            `json:"slug"`
	MealType         TagList         `json:"mealType"`
	Dietary          TagList         `json:"dietary"`
	NutritionFocus   TagList         `json:"nutritionFocus"`
	Protocols        TagList         `json:"protocols"`
	CostPrep         TagList         `json:"costPrep"`
	CostTag          Text            `json:"costTag"`
	Tags             TagList         `json:"tags"`
	TimeMins         Number          `json:"time_mins"`
	TimeLabel        Text            `json:"time_label"`
	SlowCook         Flag            `json:"slowCook"`
	NoCook           Flag            `json:"noCook"`
	SpiceLevel       Number          `json:"spiceLevel"`
	Serves           Text            `json:"serves"`
	Ingredients      []RawIngredient `json:"-"`
	Method           TextList        `json:"method"`
	Nutrition        RawNutrition    `json:"nutritionPerServing"`
	AllergensPresent TagList         `json:"allergensPresent"`
	Swaps            TextList        `json:"swaps"`
	HydrationTip     Text            `json:"hydrationTip"`
	PantryKeys       TagList         `json:"pantryKeys"`
	KcalBand         Text            `json:"kcalBand"`
}

// UnmarshalJSON 容忍 ingredients 與 nutritionPerServing 的錯誤型別
func (r *RawRecipe) UnmarshalJSON(data []byte) error {
	type plain RawRecipe
	var aux struct {
		plain
		Ingredients json.RawMessage `json:"ingredients"`
		Nutrition   json.RawMessage `json:"nutritionPerServing"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = RawRecipe(aux.plain)
	r.Ingredients = nil
	var ings []RawIngredient
	if len(aux.Ingredients) > 0 && json.Unmarshal(aux.Ingredients, &ings) == nil {
		for _, ing := range ings {
			if ing.Item != "" || ing.PantryKey != "" {
				r.Ingredients = append(r.Ingredients, ing)
			}
		}
	}
	r.Nutrition = RawNutrition{}
	if len(aux.Nutrition) > 0 {
		_ = json.Unmarshal(aux.Nutrition, &r.Nutrition)
	}
	return nil
}
