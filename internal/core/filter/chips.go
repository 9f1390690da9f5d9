package filter

// ChipGroup 前端篩選列的一組選項
type ChipGroup struct {
	ID    string   `json:"id"`
	Label string   `json:"label"`
	Param string   `json:"param"`
	Chips []string `json:"chips"`
}

// Chips 篩選列的選項，依顯示順序排列
var Chips = []ChipGroup{
	{ID: "ALL", Label: "ALL", Param: ParamAll},
	{ID: "MealType", Label: "Meal Type", Param: ParamMeal, Chips: []string{"Breakfast", "Lunch", "Dinner", "Snack"}},
	{ID: "Dietary", Label: "Dietary", Param: ParamDiet, Chips: []string{"Vegetarian", "Vegan", "Gluten-free", "Dairy-free", "Nut-free", "Egg-free", "Soy-free"}},
	{ID: "Nutrition", Label: "Nutrition Focus", Param: ParamFocus, Chips: []string{"High protein", "High carb / Endurance", "Low carb", "High fibre", Spicy}},
	{ID: "KcalBand", Label: "Low calorie", Param: ParamKcal, Chips: []string{"≤400", "≤600", "≤800"}},
	{ID: "Protocols", Label: "Protocols", Param: ParamProtocol, Chips: []string{"Low FODMAP", "Low sodium"}},
	{ID: "Time", Label: "Time", Param: ParamTime, Chips: []string{Under15Min, Under30Min, SlowCook, NoCook}},
	{ID: "CostPrep", Label: "Cost/Prep", Param: ParamCost, Chips: []string{"Low cost / Budget", "Batch-cook", "Freezer-friendly", "One-pan", "Air-fryer"}},
}
