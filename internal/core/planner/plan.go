package planner

import (
	"encoding/json"
	"strconv"
	"strings"

	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/pkg/common"
)

// 儲存鍵
const (
	TodayKey = "fff_mealplan_today_v1"
	WeekKey  = "fff_mealplan_week_v1"
)

// Slot 餐次
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotSnack     Slot = "snack"
)

// Slots 固定順序的餐次
var Slots = []Slot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// ParseSlot 解析餐次（不分大小寫）
func ParseSlot(s string) (Slot, error) {
	slot := Slot(strings.ToLower(strings.TrimSpace(s)))
	for _, v := range Slots {
		if v == slot {
			return v, nil
		}
	}
	return "", common.ErrInvalidSlot
}

// MealType 餐次對應的餐別
func (s Slot) MealType() recipe.MealType {
	switch s {
	case SlotBreakfast:
		return recipe.Breakfast
	case SlotLunch:
		return recipe.Lunch
	case SlotDinner:
		return recipe.Dinner
	case SlotSnack:
		return recipe.Snack
	}
	return ""
}

// Days 一週七天（週一開始）
var Days = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// ParseDay 接受 0-6 或星期名稱（"mon"、"Monday"）
func ParseDay(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n >= 0 && n < len(Days) {
			return n, nil
		}
		return 0, common.ErrInvalidDay
	}
	if len(s) >= 3 {
		for i, d := range Days {
			if strings.HasPrefix(s, strings.ToLower(d)) {
				return i, nil
			}
		}
	}
	return 0, common.ErrInvalidDay
}

// Item 計畫中的輕量食譜項目
type Item struct {
	Slug     string          `json:"slug"`
	Title    string          `json:"title"`
	MealType recipe.MealType `json:"mealType,omitempty"`
	recipe.Macros
}

// NewItem 由食譜建立計畫項目
func NewItem(r *recipe.Recipe) Item {
	return Item{
		Slug:     r.Slug,
		Title:    r.Title,
		MealType: r.PrimaryMealType(),
		Macros:   r.Macros(),
	}
}

func (i Item) key() string {
	return slugKey(i.Slug)
}

// Today 今日計畫：每個餐次一個清單
type Today struct {
	Breakfast []Item `json:"breakfast"`
	Lunch     []Item `json:"lunch"`
	Dinner    []Item `json:"dinner"`
	Snack     []Item `json:"snack"`
}

// NewToday 空的今日計畫
func NewToday() Today {
	return Today{Breakfast: []Item{}, Lunch: []Item{}, Dinner: []Item{}, Snack: []Item{}}
}

func (t *Today) list(slot Slot) *[]Item {
	switch slot {
	case SlotBreakfast:
		return &t.Breakfast
	case SlotLunch:
		return &t.Lunch
	case SlotDinner:
		return &t.Dinner
	case SlotSnack:
		return &t.Snack
	}
	return nil
}

// Items 餐次中的項目
func (t Today) Items(slot Slot) []Item {
	if l := t.list(slot); l != nil {
		return *l
	}
	return nil
}

// Totals 今日營養合計
func (t Today) Totals() recipe.Macros {
	var m recipe.Macros
	for _, slot := range Slots {
		for _, it := range t.Items(slot) {
			m = m.Add(it.Macros)
		}
	}
	return m
}

// Day 一天的四個餐次，空格為 nil
type Day struct {
	Breakfast *Item `json:"breakfast"`
	Lunch     *Item `json:"lunch"`
	Dinner    *Item `json:"dinner"`
	Snack     *Item `json:"snack"`
}

func (d *Day) cell(slot Slot) **Item {
	switch slot {
	case SlotBreakfast:
		return &d.Breakfast
	case SlotLunch:
		return &d.Lunch
	case SlotDinner:
		return &d.Dinner
	case SlotSnack:
		return &d.Snack
	}
	return nil
}

// Get 取得餐次內容
func (d Day) Get(slot Slot) *Item {
	if c := d.cell(slot); c != nil {
		return *c
	}
	return nil
}

// Totals 當日營養合計
func (d Day) Totals() recipe.Macros {
	var m recipe.Macros
	for _, slot := range Slots {
		if it := d.Get(slot); it != nil {
			m = m.Add(it.Macros)
		}
	}
	return m
}

// Week 七天計畫
type Week [7]Day

// Slugs 依天、餐次順序列出已排入的 slug
func (w Week) Slugs() []string {
	var out []string
	for _, d := range w {
		for _, slot := range Slots {
			if it := d.Get(slot); it != nil {
				out = append(out, it.Slug)
			}
		}
	}
	return out
}

// Filled 已排入的格數
func (w Week) Filled() int {
	return len(w.Slugs())
}

// avoidSet 週計畫中已使用的 slug，略過 (skipDay, skipSlot) 這一格
func (w Week) avoidSet(skipDay int, skipSlot Slot) map[string]bool {
	avoid := make(map[string]bool)
	for i, d := range w {
		for _, slot := range Slots {
			if i == skipDay && slot == skipSlot {
				continue
			}
			if it := d.Get(slot); it != nil {
				avoid[it.key()] = true
			}
		}
	}
	return avoid
}

// decodeToday 解析儲存內容；格式錯誤或缺少餐次時回傳 false
func decodeToday(data []byte) (Today, bool) {
	var raw map[string]json.RawMessage
	if json.Unmarshal(data, &raw) != nil || raw == nil {
		return NewToday(), false
	}
	t := NewToday()
	for _, slot := range Slots {
		v, ok := raw[string(slot)]
		if !ok {
			return NewToday(), false
		}
		var items []Item
		if json.Unmarshal(v, &items) != nil {
			return NewToday(), false
		}
		for _, it := range items {
			if strings.TrimSpace(it.Slug) == "" {
				return NewToday(), false
			}
		}
		if items == nil {
			items = []Item{}
		}
		*t.list(slot) = items
	}
	return t, true
}

// decodeWeek 解析儲存內容；必須是 7 天且每天四個餐次
func decodeWeek(data []byte) (Week, bool) {
	var days []map[string]json.RawMessage
	if json.Unmarshal(data, &days) != nil || len(days) != len(Days) {
		return Week{}, false
	}
	var w Week
	for i, raw := range days {
		if raw == nil {
			return Week{}, false
		}
		for _, slot := range Slots {
			v, ok := raw[string(slot)]
			if !ok {
				return Week{}, false
			}
			var it *Item
			if json.Unmarshal(v, &it) != nil {
				return Week{}, false
			}
			if it != nil && strings.TrimSpace(it.Slug) == "" {
				return Week{}, false
			}
			*w[i].cell(slot) = it
		}
	}
	return w, true
}
