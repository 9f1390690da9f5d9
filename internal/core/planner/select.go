package planner

import (
	"math/rand"
	"strings"

	"recipe-browser/internal/core/filter"
	"recipe-browser/internal/core/recipe"
)

// Rand 隨機來源；測試時可注入固定序列
type Rand interface {
	Intn(n int) int
}

// globalRand 使用 math/rand 的全域來源（可並行使用）
type globalRand struct{}

func (globalRand) Intn(n int) int { return rand.Intn(n) }

// cheapChip 平價週計畫額外加上的成本條件
const cheapChip = "Low cost / Budget"

// candidateEngine 沒有任何條件時接受全部
var candidateEngine = filter.Engine{Policy: filter.ShowEverything}

// CandidatesFor 屬於該餐次且通過目前篩選（不含餐別條件）的食譜
func CandidatesFor(recipes []*recipe.Recipe, s filter.State, slot Slot) []*recipe.Recipe {
	mt := slot.MealType()
	state := s.ExcludingMealType()
	out := make([]*recipe.Recipe, 0, len(recipes))
	for _, r := range recipes {
		if r != nil && r.HasMealType(mt) && candidateEngine.Matches(r, state) {
			out = append(out, r)
		}
	}
	return out
}

// PickUnique 從候選中排除 avoid 後均勻隨機挑選；沒有候選時回傳 nil
func PickUnique(rnd Rand, candidates []*recipe.Recipe, avoid map[string]bool) *recipe.Recipe {
	pool := make([]*recipe.Recipe, 0, len(candidates))
	for _, r := range candidates {
		if !avoid[slugKey(r.Slug)] {
			pool = append(pool, r)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	return pool[rnd.Intn(len(pool))]
}

// CheapState 在狀態上加上平價條件
func CheapState(s filter.State) filter.State {
	c := s.Clone()
	if c.CostPrep == nil {
		c.CostPrep = filter.NewFacet()
	}
	c.CostPrep.Add(cheapChip)
	return c
}

func slugKey(slug string) string {
	return strings.ToLower(strings.TrimSpace(slug))
}
