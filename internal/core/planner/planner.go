// Package planner 管理今日計畫與週計畫，並在每次變更後寫入儲存。
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"recipe-browser/internal/core/filter"
	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/core/store"
	"recipe-browser/internal/pkg/common"

	"go.uber.org/zap"
)

// Planner 計畫引擎；所有變更以同一把鎖序列化
type Planner struct {
	store store.Store
	rand  Rand
	mu    sync.Mutex
}

// New 創建計畫引擎；rnd 為 nil 時使用 math/rand
func New(st store.Store, rnd Rand) *Planner {
	if rnd == nil {
		rnd = globalRand{}
	}
	return &Planner{store: st, rand: rnd}
}

// Session 取得某個使用者工作階段的計畫；id 為空時使用未加前綴的鍵
func (p *Planner) Session(id string) *Session {
	return &Session{p: p, store: store.WithNamespace(p.store, id)}
}

// Session 單一工作階段的計畫操作
type Session struct {
	p     *Planner
	store store.Store
}

// AutoResult 自動排週計畫的結果
type AutoResult struct {
	Week   Week `json:"week"`
	Placed int  `json:"placed"`
	Empty  int  `json:"empty"`
}

// Today 讀取今日計畫；內容損壞時視為空
func (s *Session) Today(ctx context.Context) (Today, error) {
	return s.loadToday(ctx)
}

// AddToday 將食譜加到餐次清單末端
func (s *Session) AddToday(ctx context.Context, slot Slot, r *recipe.Recipe) (Today, error) {
	if r == nil {
		return Today{}, common.ErrRecipeNotFound
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	t, err := s.loadToday(ctx)
	if err != nil {
		return t, err
	}
	l := t.list(slot)
	if l == nil {
		return t, common.ErrInvalidSlot
	}
	*l = append(*l, NewItem(r))
	return t, s.save(ctx, TodayKey, t)
}

// RemoveToday 依位置移除
func (s *Session) RemoveToday(ctx context.Context, slot Slot, index int) (Today, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	t, err := s.loadToday(ctx)
	if err != nil {
		return t, err
	}
	l := t.list(slot)
	if l == nil {
		return t, common.ErrInvalidSlot
	}
	if index < 0 || index >= len(*l) {
		return t, common.ErrIndexOutOfRange
	}
	*l = append((*l)[:index:index], (*l)[index+1:]...)
	return t, s.save(ctx, TodayKey, t)
}

// ClearToday 清空四個餐次
func (s *Session) ClearToday(ctx context.Context) (Today, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	t := NewToday()
	return t, s.save(ctx, TodayKey, t)
}

// Week 讀取週計畫；內容損壞時視為空
func (s *Session) Week(ctx context.Context) (Week, error) {
	return s.loadWeek(ctx)
}

// AutoPlanWeek 依固定順序填滿空格，整週不重複；沒有候選的格子保持空白
func (s *Session) AutoPlanWeek(ctx context.Context, recipes []*recipe.Recipe, state filter.State) (AutoResult, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	w, err := s.loadWeek(ctx)
	if err != nil {
		return AutoResult{Week: w}, err
	}

	candidates := make(map[Slot][]*recipe.Recipe, len(Slots))
	for _, slot := range Slots {
		candidates[slot] = CandidatesFor(recipes, state, slot)
	}

	res := AutoResult{}
	avoid := w.avoidSet(-1, "")
	for i := range w {
		for _, slot := range Slots {
			c := w[i].cell(slot)
			if *c != nil {
				continue
			}
			pick := PickUnique(s.p.rand, candidates[slot], avoid)
			if pick == nil {
				res.Empty++
				continue
			}
			it := NewItem(pick)
			*c = &it
			avoid[slugKey(pick.Slug)] = true
			res.Placed++
		}
	}
	res.Week = w

	if res.Empty > 0 {
		common.LogDebug("週計畫有無法填入的餐次", zap.Int("empty", res.Empty))
	}
	return res, s.save(ctx, WeekKey, w)
}

// SwapSlot 以週計畫中尚未使用的其他食譜替換一格。
// 沒有其他候選時回傳 false，週計畫保持不變。
func (s *Session) SwapSlot(ctx context.Context, recipes []*recipe.Recipe, state filter.State, day int, slot Slot) (Week, bool, error) {
	if day < 0 || day >= len(Days) {
		return Week{}, false, common.ErrInvalidDay
	}
	if slot.MealType() == "" {
		return Week{}, false, common.ErrInvalidSlot
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	w, err := s.loadWeek(ctx)
	if err != nil {
		return w, false, err
	}

	avoid := w.avoidSet(day, slot)
	c := w[day].cell(slot)
	if *c != nil {
		avoid[(*c).key()] = true
	}
	pick := PickUnique(s.p.rand, CandidatesFor(recipes, state, slot), avoid)
	if pick == nil {
		return w, false, nil
	}
	it := NewItem(pick)
	*c = &it
	return w, true, s.save(ctx, WeekKey, w)
}

// RemoveWeek 清空單一格
func (s *Session) RemoveWeek(ctx context.Context, day int, slot Slot) (Week, error) {
	if day < 0 || day >= len(Days) {
		return Week{}, common.ErrInvalidDay
	}
	if slot.MealType() == "" {
		return Week{}, common.ErrInvalidSlot
	}
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	w, err := s.loadWeek(ctx)
	if err != nil {
		return w, err
	}
	*w[day].cell(slot) = nil
	return w, s.save(ctx, WeekKey, w)
}

// ClearWeek 清空全部 28 格
func (s *Session) ClearWeek(ctx context.Context) (Week, error) {
	s.p.mu.Lock()
	defer s.p.mu.Unlock()

	var w Week
	return w, s.save(ctx, WeekKey, w)
}

func (s *Session) loadToday(ctx context.Context) (Today, error) {
	data, ok, err := s.store.Get(ctx, TodayKey)
	if err != nil {
		return NewToday(), err
	}
	if !ok {
		return NewToday(), nil
	}
	t, valid := decodeToday(data)
	if !valid {
		common.LogWarn("今日計畫內容無法解析，改用空白計畫", zap.String("key", TodayKey))
	}
	return t, nil
}

func (s *Session) loadWeek(ctx context.Context) (Week, error) {
	data, ok, err := s.store.Get(ctx, WeekKey)
	if err != nil {
		return Week{}, err
	}
	if !ok {
		return Week{}, nil
	}
	w, valid := decodeWeek(data)
	if !valid {
		common.LogWarn("週計畫內容無法解析，改用空白計畫", zap.String("key", WeekKey))
	}
	return w, nil
}

func (s *Session) save(ctx context.Context, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.store.Set(ctx, key, data)
}
