package filter

import (
	"sort"

	"recipe-browser/internal/core/recipe"
)

// DefaultExtras 寬鬆模式下允許缺少的食材數
const DefaultExtras = 2

// Facet 單一篩選類別中同時啟用的選項（正規化鍵 -> 顯示值）
type Facet map[string]string

// NewFacet 由選項建立 Facet
func NewFacet(values ...string) Facet {
	f := make(Facet, len(values))
	f.Add(values...)
	return f
}

// Add 加入選項
func (f Facet) Add(values ...string) {
	for _, v := range values {
		if k := recipe.NormalizeTag(v); k != "" {
			f[k] = v
		}
	}
}

// Remove 移除選項
func (f Facet) Remove(value string) {
	delete(f, recipe.NormalizeTag(value))
}

// Toggle 切換選項，回傳切換後是否啟用
func (f Facet) Toggle(value string) bool {
	if f.Has(value) {
		f.Remove(value)
		return false
	}
	f.Add(value)
	return true
}

// Has 選項是否啟用
func (f Facet) Has(value string) bool {
	_, ok := f[recipe.NormalizeTag(value)]
	return ok
}

// Values 依正規化鍵排序的顯示值
func (f Facet) Values() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, f[k])
	}
	return out
}

func (f Facet) clone() Facet {
	if f == nil {
		return nil
	}
	c := make(Facet, len(f))
	for k, v := range f {
		c[k] = v
	}
	return c
}

// Pantry 食材櫃模式
type Pantry struct {
	Active      bool     `json:"active"`
	Keys        []string `json:"keys"`
	Strict      bool     `json:"strict"`
	Extras      int      `json:"extras"`
	Budget      bool     `json:"budget"`
	RespectDiet bool     `json:"respectDiet"`
}

// DefaultPantry 未啟用、允許 2 項額外食材、遵守飲食篩選
func DefaultPantry() Pantry {
	return Pantry{Keys: []string{}, Extras: DefaultExtras, RespectDiet: true}
}

// State 篩選狀態；由呼叫端持有並傳入 Engine
type State struct {
	ShowAll   bool
	Search    string
	MealType  Facet
	Dietary   Facet
	Nutrition Facet
	KcalBand  Facet
	Protocols Facet
	Time      Facet
	CostPrep  Facet
	Pantry    Pantry
}

// NewState 所有 Facet 為空的初始狀態
func NewState() State {
	return State{
		MealType:  NewFacet(),
		Dietary:   NewFacet(),
		Nutrition: NewFacet(),
		KcalBand:  NewFacet(),
		Protocols: NewFacet(),
		Time:      NewFacet(),
		CostPrep:  NewFacet(),
		Pantry:    DefaultPantry(),
	}
}

// Facets 依固定順序列出各 Facet
func (s State) Facets() []Facet {
	return []Facet{s.MealType, s.Dietary, s.Nutrition, s.KcalBand, s.Protocols, s.Time, s.CostPrep}
}

// Active 是否有任何搜尋、Facet 選項或食材櫃條件
func (s State) Active() bool {
	if recipe.NormalizeText(s.Search) != "" || s.Pantry.Active {
		return true
	}
	for _, f := range s.Facets() {
		if len(f) > 0 {
			return true
		}
	}
	return false
}

// Clone 深拷貝
func (s State) Clone() State {
	c := s
	c.MealType = s.MealType.clone()
	c.Dietary = s.Dietary.clone()
	c.Nutrition = s.Nutrition.clone()
	c.KcalBand = s.KcalBand.clone()
	c.Protocols = s.Protocols.clone()
	c.Time = s.Time.clone()
	c.CostPrep = s.CostPrep.clone()
	c.Pantry.Keys = append([]string{}, s.Pantry.Keys...)
	return c
}

// ExcludingMealType 去除餐別條件的副本，供餐點計畫使用。
// ALL 只是列表的顯示開關，計畫仍套用其餘條件，因此一併清除。
func (s State) ExcludingMealType() State {
	c := s.Clone()
	c.MealType = NewFacet()
	c.ShowAll = false
	return c
}
