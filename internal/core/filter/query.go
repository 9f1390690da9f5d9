package filter

import (
	"net/url"
	"strconv"
	"strings"
)

// 查詢參數名稱
const (
	ParamAll         = "all"
	ParamSearch      = "q"
	ParamMeal        = "meal"
	ParamDiet        = "diet"
	ParamFocus       = "focus"
	ParamKcal        = "kcal"
	ParamProtocol    = "protocol"
	ParamTime        = "time"
	ParamCost        = "cost"
	ParamPantry      = "pantry"
	ParamStrict      = "strict"
	ParamExtras      = "extras"
	ParamBudget      = "budget"
	ParamRespectDiet = "respect_diet"
)

// ParseQuery 將 HTTP 查詢參數轉成篩選狀態。
// 多選可重複參數或以逗號分隔；帶有 pantry 參數（即使為空）即啟用食材櫃模式。
func ParseQuery(q url.Values) State {
	s := NewState()
	s.ShowAll = parseBool(q.Get(ParamAll), false)
	s.Search = strings.TrimSpace(q.Get(ParamSearch))

	s.MealType.Add(listParam(q, ParamMeal)...)
	s.Dietary.Add(listParam(q, ParamDiet)...)
	s.Nutrition.Add(listParam(q, ParamFocus)...)
	s.KcalBand.Add(listParam(q, ParamKcal)...)
	s.Protocols.Add(listParam(q, ParamProtocol)...)
	s.Time.Add(listParam(q, ParamTime)...)
	s.CostPrep.Add(listParam(q, ParamCost)...)

	if _, ok := q[ParamPantry]; ok {
		s.Pantry.Active = true
		s.Pantry.Keys = listParam(q, ParamPantry)
	}
	s.Pantry.Strict = parseBool(q.Get(ParamStrict), false)
	s.Pantry.Budget = parseBool(q.Get(ParamBudget), false)
	s.Pantry.RespectDiet = parseBool(q.Get(ParamRespectDiet), true)
	if n, err := strconv.Atoi(strings.TrimSpace(q.Get(ParamExtras))); err == nil && n >= 0 {
		s.Pantry.Extras = n
	}
	return s
}

// Encode 將狀態轉回查詢參數（ParseQuery 的反向）
func (s State) Encode() url.Values {
	q := url.Values{}
	if s.ShowAll {
		q.Set(ParamAll, "1")
	}
	if s.Search != "" {
		q.Set(ParamSearch, s.Search)
	}
	for param, f := range map[string]Facet{
		ParamMeal: s.MealType, ParamDiet: s.Dietary, ParamFocus: s.Nutrition, ParamKcal: s.KcalBand,
		ParamProtocol: s.Protocols, ParamTime: s.Time, ParamCost: s.CostPrep,
	} {
		for _, v := range f.Values() {
			q.Add(param, v)
		}
	}
	if s.Pantry.Active {
		q.Set(ParamPantry, strings.Join(s.Pantry.Keys, ","))
		q.Set(ParamStrict, strconv.FormatBool(s.Pantry.Strict))
		q.Set(ParamExtras, strconv.Itoa(s.Pantry.Extras))
		q.Set(ParamBudget, strconv.FormatBool(s.Pantry.Budget))
		q.Set(ParamRespectDiet, strconv.FormatBool(s.Pantry.RespectDiet))
	}
	return q
}

// listParam 合併重複參數並以逗號切分（不切 '/'，保留 "Low cost / Budget" 這類選項）
func listParam(q url.Values, key string) []string {
	out := []string{}
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func parseBool(s string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
