package planner

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"recipe-browser/internal/core/filter"
	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/core/store"
	"recipe-browser/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// firstRand 永遠挑第一個候選
type firstRand struct{}

func (firstRand) Intn(int) int { return 0 }

// lastRand 永遠挑最後一個候選
type lastRand struct{}

func (lastRand) Intn(n int) int { return n - 1 }

func kcal(v float64) *float64 { return &v }

func mk(slug string, meals ...recipe.MealType) *recipe.Recipe {
	return &recipe.Recipe{
		Slug: slug, Title: slug, MealTypes: meals,
		Nutrition: recipe.Nutrition{Kcal: kcal(100), Protein: 10, Carbs: 5, Fat: 2},
	}
}

// catalog 每個餐別 n 道食譜
func catalog(n int) []*recipe.Recipe {
	var out []*recipe.Recipe
	for _, mt := range recipe.MealTypes {
		for i := 0; i < n; i++ {
			out = append(out, mk(fmt.Sprintf("%s-%02d", mt, i), mt))
		}
	}
	return out
}

func assertNoDuplicates(t *testing.T, w Week) {
	t.Helper()
	seen := map[string]bool{}
	for _, s := range w.Slugs() {
		assert.False(t, seen[s], "duplicate %s", s)
		seen[s] = true
	}
}

func TestAutoPlanWeek_FillsWithoutDuplicates(t *testing.T) {
	ctx := context.Background()
	recipes := catalog(10)
	// 同時屬於多個餐別的食譜也只能出現一次
	recipes = append(recipes, mk("anytime", recipe.MealTypes...))

	for _, rnd := range []Rand{firstRand{}, lastRand{}, nil} {
		s := New(store.NewMemory(), rnd).Session("")
		res, err := s.AutoPlanWeek(ctx, recipes, filter.NewState())
		require.NoError(t, err)

		assert.Equal(t, 28, res.Placed)
		assert.Zero(t, res.Empty)
		assert.Equal(t, 28, res.Week.Filled())
		assertNoDuplicates(t, res.Week)

		for _, d := range res.Week {
			for _, slot := range Slots {
				it := d.Get(slot)
				require.NotNil(t, it)
				if it.Slug != "anytime" {
					assert.Equal(t, slot.MealType(), it.MealType)
				}
			}
		}
	}
}

func TestAutoPlanWeek_LeavesEmptyWhenPoolExhausted(t *testing.T) {
	ctx := context.Background()
	recipes := []*recipe.Recipe{
		mk("porridge", recipe.Breakfast),
		mk("eggs", recipe.Breakfast),
		mk("soup", recipe.Lunch, recipe.Dinner),
	}
	s := New(store.NewMemory(), firstRand{}).Session("")

	res, err := s.AutoPlanWeek(ctx, recipes, filter.NewState())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Placed)
	assert.Equal(t, 25, res.Empty)
	assert.Equal(t, "porridge", res.Week[0].Breakfast.Slug)
	assert.Equal(t, "soup", res.Week[0].Lunch.Slug)
	assert.Nil(t, res.Week[0].Dinner)
	assert.Equal(t, "eggs", res.Week[1].Breakfast.Slug)
	assertNoDuplicates(t, res.Week)

	// 再跑一次：既有格子保留，也不會再放入已使用的食譜
	res, err = s.AutoPlanWeek(ctx, recipes, filter.NewState())
	require.NoError(t, err)
	assert.Zero(t, res.Placed)
	assert.Equal(t, 3, res.Week.Filled())
}

func TestAutoPlanWeek_UsesFilterExceptMealType(t *testing.T) {
	ctx := context.Background()
	vegan := mk("vegan-curry", recipe.Dinner)
	vegan.Dietary = []string{"Vegan"}
	meat := mk("beef-stew", recipe.Dinner)

	state := filter.NewState()
	state.MealType.Add("Breakfast")
	state.Dietary.Add("Vegan")

	s := New(store.NewMemory(), firstRand{}).Session("")
	res, err := s.AutoPlanWeek(ctx, []*recipe.Recipe{meat, vegan}, state)
	require.NoError(t, err)

	assert.Equal(t, []string{"vegan-curry"}, res.Week.Slugs())
	assert.Equal(t, "vegan-curry", res.Week[0].Dinner.Slug)
}

func TestAutoPlanWeek_ShowAllKeepsOtherFacets(t *testing.T) {
	ctx := context.Background()
	vegan := mk("vegan-curry", recipe.Dinner)
	vegan.Dietary = []string{"Vegan"}
	meat := mk("beef-stew", recipe.Dinner)

	state := filter.NewState()
	state.ShowAll = true
	state.Dietary.Add("Vegan")

	s := New(store.NewMemory(), firstRand{}).Session("")
	res, err := s.AutoPlanWeek(ctx, []*recipe.Recipe{meat, vegan}, state)
	require.NoError(t, err)
	assert.Equal(t, []string{"vegan-curry"}, res.Week.Slugs())

	// 只有 ALL 時所有同餐別的食譜都是候選
	all := filter.NewState()
	all.ShowAll = true
	assert.Len(t, CandidatesFor([]*recipe.Recipe{meat, vegan}, all, SlotDinner), 2)
}

func TestAutoPlanWeek_NonLatinTitlesSurviveReload(t *testing.T) {
	ctx := context.Background()
	recipes := catalog(3)
	for _, doc := range []string{
		`{"title":"日本のカレー","mealType":"dinner"}`,
		`{"title":"麻婆豆腐","mealType":"dinner"}`,
	} {
		r, ok := recipe.Normalize([]byte(doc))
		require.True(t, ok)
		require.NotEmpty(t, r.Slug)
		recipes = append(recipes, r)
	}

	s := New(store.NewMemory(), firstRand{}).Session("")
	res, err := s.AutoPlanWeek(ctx, recipes, filter.NewState())
	require.NoError(t, err)
	assert.Equal(t, 14, res.Placed)
	assertNoDuplicates(t, res.Week)

	w, err := s.Week(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.Placed, w.Filled())
	assert.Equal(t, res.Week.Slugs(), w.Slugs())

	today, err := s.AddToday(ctx, SlotDinner, recipes[len(recipes)-1])
	require.NoError(t, err)
	reloaded, err := s.Today(ctx)
	require.NoError(t, err)
	require.Len(t, reloaded.Dinner, 1)
	assert.Equal(t, today.Dinner, reloaded.Dinner)
}

func TestAutoPlanWeek_Cheap(t *testing.T) {
	ctx := context.Background()
	cheap := mk("lentil-dal", recipe.Dinner)
	cheap.CostPrep = []string{"Low cost"}
	pricey := mk("steak", recipe.Dinner)

	s := New(store.NewMemory(), firstRand{}).Session("")
	res, err := s.AutoPlanWeek(ctx, []*recipe.Recipe{pricey, cheap}, CheapState(filter.NewState()))
	require.NoError(t, err)
	assert.Equal(t, []string{"lentil-dal"}, res.Week.Slugs())
}

func TestSwapSlot(t *testing.T) {
	ctx := context.Background()
	recipes := catalog(2)
	s := New(store.NewMemory(), firstRand{}).Session("")

	// 空格：直接填入
	w, swapped, err := s.SwapSlot(ctx, recipes, filter.NewState(), 2, SlotDinner)
	require.NoError(t, err)
	require.True(t, swapped)
	assert.Equal(t, "Dinner-00", w[2].Dinner.Slug)

	// 已有內容：換成另一道
	w, swapped, err = s.SwapSlot(ctx, recipes, filter.NewState(), 2, SlotDinner)
	require.NoError(t, err)
	require.True(t, swapped)
	assert.Equal(t, "Dinner-01", w[2].Dinner.Slug)
	assert.Equal(t, 1, w.Filled())

	// 另一格已使用 Dinner-00，這格沒有其他選擇
	_, _, err = s.SwapSlot(ctx, recipes, filter.NewState(), 3, SlotDinner)
	require.NoError(t, err)
	before, err := s.Week(ctx)
	require.NoError(t, err)
	w, swapped, err = s.SwapSlot(ctx, recipes, filter.NewState(), 2, SlotDinner)
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, before, w)

	after, err := s.Week(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestSwapSlot_OnlyCandidateIsCurrent(t *testing.T) {
	ctx := context.Background()
	recipes := []*recipe.Recipe{mk("only-snack", recipe.Snack)}
	s := New(store.NewMemory(), firstRand{}).Session("")

	_, swapped, err := s.SwapSlot(ctx, recipes, filter.NewState(), 0, SlotSnack)
	require.NoError(t, err)
	require.True(t, swapped)

	w, swapped, err := s.SwapSlot(ctx, recipes, filter.NewState(), 0, SlotSnack)
	require.NoError(t, err)
	assert.False(t, swapped)
	assert.Equal(t, "only-snack", w[0].Snack.Slug)
}

func TestSwapSlot_InvalidArgs(t *testing.T) {
	s := New(store.NewMemory(), nil).Session("")
	_, _, err := s.SwapSlot(context.Background(), nil, filter.NewState(), 7, SlotSnack)
	assert.True(t, errors.Is(err, common.ErrInvalidDay))
	_, _, err = s.SwapSlot(context.Background(), nil, filter.NewState(), 0, Slot("brunch"))
	assert.True(t, errors.Is(err, common.ErrInvalidSlot))
}

func TestWeek_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	s := New(store.NewMemory(), firstRand{}).Session("")
	_, err := s.AutoPlanWeek(ctx, catalog(7), filter.NewState())
	require.NoError(t, err)

	w, err := s.RemoveWeek(ctx, 6, SlotSnack)
	require.NoError(t, err)
	assert.Nil(t, w[6].Snack)
	assert.Equal(t, 27, w.Filled())

	w, err = s.ClearWeek(ctx)
	require.NoError(t, err)
	assert.Zero(t, w.Filled())

	w, err = s.Week(ctx)
	require.NoError(t, err)
	assert.Equal(t, Week{}, w)
}

func TestToday(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	s := New(st, nil).Session("abc")

	oats := mk("oats", recipe.Breakfast)
	toast := mk("toast", recipe.Breakfast)
	_, err := s.AddToday(ctx, SlotBreakfast, oats)
	require.NoError(t, err)
	_, err = s.AddToday(ctx, SlotBreakfast, toast)
	require.NoError(t, err)
	today, err := s.AddToday(ctx, SlotSnack, oats)
	require.NoError(t, err)

	assert.Len(t, today.Breakfast, 2)
	assert.Equal(t, recipe.Macros{Kcal: 300, Protein: 30, Carbs: 15, Fat: 6}, today.Totals())

	_, err = s.AddToday(ctx, SlotLunch, nil)
	assert.True(t, errors.Is(err, common.ErrRecipeNotFound))

	today, err = s.RemoveToday(ctx, SlotBreakfast, 0)
	require.NoError(t, err)
	require.Len(t, today.Breakfast, 1)
	assert.Equal(t, "toast", today.Breakfast[0].Slug)

	_, err = s.RemoveToday(ctx, SlotBreakfast, 5)
	assert.True(t, errors.Is(err, common.ErrIndexOutOfRange))

	// 新的 Planner 讀到同一份資料
	reloaded, err := New(st, nil).Session("abc").Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, today, reloaded)

	// 不同工作階段互不影響
	other, err := New(st, nil).Session("xyz").Today(ctx)
	require.NoError(t, err)
	assert.Equal(t, NewToday(), other)

	today, err = s.ClearToday(ctx)
	require.NoError(t, err)
	assert.Equal(t, NewToday(), today)
}

func TestLoad_MalformedStorage(t *testing.T) {
	ctx := context.Background()
	cases := map[string]struct{ key, data string }{
		"today garbage":         {TodayKey, `{not json`},
		"today missing slot":    {TodayKey, `{"breakfast":[],"lunch":[],"dinner":[]}`},
		"today wrong type":      {TodayKey, `{"breakfast":"oats","lunch":[],"dinner":[],"snack":[]}`},
		"today item no slug":    {TodayKey, `{"breakfast":[{"title":"x"}],"lunch":[],"dinner":[],"snack":[]}`},
		"today array":           {TodayKey, `[]`},
		"week garbage":          {WeekKey, `[[[`},
		"week six days":         {WeekKey, `[{},{},{},{},{},{}]`},
		"week missing slot":     {WeekKey, week7(`{"breakfast":null,"lunch":null,"dinner":null}`)},
		"week wrong cell":       {WeekKey, week7(`{"breakfast":1,"lunch":null,"dinner":null,"snack":null}`)},
		"week null day":         {WeekKey, `[null,null,null,null,null,null,null]`},
		"week object":           {WeekKey, `{"Mon":{}}`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			st := store.NewMemory()
			require.NoError(t, st.Set(ctx, tc.key, []byte(tc.data)))
			s := New(st, firstRand{}).Session("")

			today, err := s.Today(ctx)
			require.NoError(t, err)
			assert.Equal(t, NewToday(), today)

			w, err := s.Week(ctx)
			require.NoError(t, err)
			assert.Equal(t, Week{}, w)

			// 損壞的內容在下一次變更時被覆寫
			_, err = s.AddToday(ctx, SlotLunch, mk("soup", recipe.Lunch))
			require.NoError(t, err)
			today, err = s.Today(ctx)
			require.NoError(t, err)
			assert.Len(t, today.Lunch, 1)
		})
	}
}

func TestLoad_ValidWeekRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemory()
	data := week7(`{"breakfast":{"slug":"oats","title":"Oats","kcal":350},"lunch":null,"dinner":null,"snack":null}`)
	require.NoError(t, st.Set(ctx, WeekKey, []byte(data)))

	w, err := New(st, nil).Session("").Week(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, w.Filled())
	assert.Equal(t, 350.0, w[3].Breakfast.Kcal)
	assert.Equal(t, recipe.Macros{Kcal: 350}, w[3].Totals())
}

func week7(day string) string {
	out := "["
	for i := 0; i < 7; i++ {
		if i > 0 {
			out += ","
		}
		out += day
	}
	return out + "]"
}

func TestCandidatesFor(t *testing.T) {
	recipes := []*recipe.Recipe{mk("a", recipe.Breakfast), mk("b", recipe.Lunch, recipe.Breakfast), nil}
	assert.Len(t, CandidatesFor(recipes, filter.NewState(), SlotBreakfast), 2)
	assert.Empty(t, CandidatesFor(recipes, filter.NewState(), SlotSnack))
}

func TestPickUnique(t *testing.T) {
	cands := []*recipe.Recipe{mk("a"), mk("B"), mk("c")}
	assert.Equal(t, "B", PickUnique(firstRand{}, cands, map[string]bool{"a": true}).Slug)
	assert.Equal(t, "c", PickUnique(lastRand{}, cands, nil).Slug)
	assert.Nil(t, PickUnique(firstRand{}, cands, map[string]bool{"a": true, "b": true, "c": true}))
	assert.Nil(t, PickUnique(firstRand{}, nil, nil))
}

func TestParse(t *testing.T) {
	slot, err := ParseSlot(" Dinner ")
	require.NoError(t, err)
	assert.Equal(t, SlotDinner, slot)
	_, err = ParseSlot("brunch")
	assert.Error(t, err)

	for in, want := range map[string]int{"0": 0, "6": 6, "mon": 0, "Sunday": 6, "WED": 2} {
		d, err := ParseDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, d, in)
	}
	for _, in := range []string{"7", "-1", "mo", "funday", ""} {
		_, err := ParseDay(in)
		assert.Error(t, err, in)
	}
}
