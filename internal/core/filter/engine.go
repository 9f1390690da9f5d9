// Package filter 以篩選狀態判斷食譜是否符合條件。Engine 為純函式，不保存狀態。
package filter

import (
	"strings"

	"recipe-browser/internal/core/recipe"
)

// Policy 沒有任何條件時的顯示方式
type Policy int

const (
	// StartEmpty 未選任何條件且未按 ALL 時不顯示任何食譜
	StartEmpty Policy = iota
	// ShowEverything 沒有任何條件時顯示全部
	ShowEverything
)

// 特殊選項
const (
	Spicy      = "Spicy"
	Under15Min = "≤15 min"
	Under30Min = "≤30 min"
	SlowCook   = "Slow-cook"
	NoCook     = "No-cook"
)

// Engine 篩選引擎
type Engine struct {
	Policy Policy
}

// Matches 食譜是否通過目前狀態
func (e Engine) Matches(r *recipe.Recipe, s State) bool {
	if r == nil {
		return false
	}
	if s.ShowAll {
		return matchSearch(r, s.Search) && matchPantry(r, s)
	}
	if !s.Active() {
		return e.Policy == ShowEverything
	}
	return Predicates(r, s)
}

// Apply 篩選集合，保留原始順序
func (e Engine) Apply(recipes []*recipe.Recipe, s State) []*recipe.Recipe {
	out := make([]*recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if e.Matches(r, s) {
			out = append(out, r)
		}
	}
	return out
}

// Predicates 依序套用所有條件（不含 ALL / 空狀態判斷）；空的 Facet 不設限
func Predicates(r *recipe.Recipe, s State) bool {
	if r == nil {
		return false
	}
	tags := r.TagSet()
	return matchSearch(r, s.Search) &&
		matchMealType(r, s.MealType) &&
		matchAll(tags, s.Dietary) &&
		matchNutrition(r, tags, s.Nutrition) &&
		matchKcal(r, s.KcalBand) &&
		matchAll(tags, s.Protocols) &&
		matchTime(r, tags, s.Time) &&
		matchAll(tags, s.CostPrep) &&
		matchPantry(r, s)
}

func matchSearch(r *recipe.Recipe, q string) bool {
	q = recipe.NormalizeText(q)
	return q == "" || strings.Contains(r.Haystack(), q)
}

func matchMealType(r *recipe.Recipe, f Facet) bool {
	if len(f) == 0 {
		return true
	}
	for _, v := range f {
		for _, mt := range recipe.DetectMealTypes(v) {
			if r.HasMealType(mt) {
				return true
			}
		}
	}
	return false
}

// matchAll 每個選項都必須存在於食譜的合併標籤中（經別名表比對）
func matchAll(tags recipe.TagSet, f Facet) bool {
	for _, v := range f {
		if !tags.Matches(v) {
			return false
		}
	}
	return true
}

func matchNutrition(r *recipe.Recipe, tags recipe.TagSet, f Facet) bool {
	for k, v := range f {
		if k == recipe.NormalizeTag(Spicy) {
			if r.SpiceLevel < 1 {
				return false
			}
			continue
		}
		if !tags.Matches(v) {
			return false
		}
	}
	return true
}

func matchKcal(r *recipe.Recipe, f Facet) bool {
	if len(f) == 0 {
		return true
	}
	if r.KcalBand == recipe.BandNone {
		return false
	}
	for _, v := range f {
		if recipe.ParseBand(v) == r.KcalBand {
			return true
		}
	}
	return false
}

func matchTime(r *recipe.Recipe, tags recipe.TagSet, f Facet) bool {
	for _, v := range f {
		var ok bool
		switch normalizeTimeToken(v) {
		case "≤15 min":
			ok = r.TimeMins > 0 && r.TimeMins <= 15
		case "≤30 min":
			ok = r.TimeMins > 0 && r.TimeMins <= 30
		case "slow-cook":
			ok = r.SlowCook
		case "no-cook":
			ok = r.NoCook
		default:
			ok = tags.Matches(v)
		}
		if !ok {
			return false
		}
	}
	return true
}

func normalizeTimeToken(v string) string {
	return strings.ReplaceAll(recipe.NormalizeTag(v), "<=", "≤")
}

// PantryMatch 食譜所需食材中已擁有的數量與仍需添購的數量
func PantryMatch(r *recipe.Recipe, owned []string) (matched, extrasNeeded int) {
	have := make(map[string]struct{}, len(r.PantryKeys))
	for _, k := range r.PantryKeys {
		if k = recipe.NormalizeText(k); k != "" {
			have[k] = struct{}{}
		}
	}
	own := make(map[string]struct{}, len(owned))
	for _, k := range owned {
		if k = recipe.NormalizeText(k); k != "" {
			own[k] = struct{}{}
		}
	}
	for k := range have {
		if _, ok := own[k]; ok {
			matched++
		}
	}
	extrasNeeded = len(have) - matched
	if extrasNeeded < 0 {
		extrasNeeded = 0
	}
	return matched, extrasNeeded
}

func matchPantry(r *recipe.Recipe, s State) bool {
	p := s.Pantry
	if !p.Active {
		return true
	}
	tags := r.TagSet()
	if p.Budget && !tags.IsBudget() {
		return false
	}
	_, extras := PantryMatch(r, p.Keys)
	if p.Strict {
		if extras != 0 {
			return false
		}
	} else if extras > p.Extras {
		return false
	}
	if p.RespectDiet && len(s.Dietary) > 0 && !matchAll(tags, s.Dietary) {
		return false
	}
	return true
}
