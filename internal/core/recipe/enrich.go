package recipe

import (
	"strconv"
	"strings"
)

// ClassifyInput 分類啟發式的輸入
type ClassifyInput struct {
	Title      string
	Method     []string
	TimeLabel  string
	TimeMins   int
	PantryKeys []string
	Allergens  []string
	SlowCook   bool // 資料本身已標記為慢煮
}

// Classification 文字啟發式的結果
type Classification struct {
	SlowCook bool
	NoCook   bool
	FreeTags []string // 可安全加上的 Dairy-free / Egg-free / Nut-free / Soy-free
}

// Classifier 以固定關鍵字表判斷慢煮、免開火與過敏原
type Classifier struct {
	keywords Keywords
	m        matchers
}

// NewClassifier 以關鍵字表建立分類器
func NewClassifier(k Keywords) *Classifier {
	return &Classifier{keywords: k, m: k.compile()}
}

var defaultClassifier = NewClassifier(DefaultKeywords)

// Classify 以預設關鍵字表分類
func Classify(in ClassifyInput) Classification {
	return defaultClassifier.Classify(in)
}

// Classify 純函式：只依賴輸入與關鍵字表
func (c *Classifier) Classify(in ClassifyInput) Classification {
	text := strings.ToLower(strings.Join([]string{in.Title, strings.Join(in.Method, " "), in.TimeLabel}, " "))
	keys := strings.ToLower(strings.Join(in.PantryKeys, " | "))
	allergens := strings.ToLower(strings.Join(in.Allergens, " | "))

	var out Classification
	for _, g := range c.m.allergens {
		if g.keywords.MatchString(keys) || g.keywords.MatchString(text) ||
			g.keywords.MatchString(allergens) || g.names.MatchString(allergens) {
			continue
		}
		out.FreeTags = append(out.FreeTags, g.freeTag)
	}

	out.SlowCook = in.SlowCook ||
		c.m.slowCook.MatchString(text) ||
		in.TimeMins >= c.keywords.SlowCookMins ||
		c.maxHours(text) >= c.keywords.SlowCookHrs

	out.NoCook = !c.m.heat.MatchString(text) &&
		!c.m.riskyProtein.MatchString(keys) && !c.m.riskyProtein.MatchString(text) &&
		!c.m.heatStaples.MatchString(keys) && !c.m.heatStaples.MatchString(text)

	return out
}

// maxHours 文字中提到的最大小時數
func (c *Classifier) maxHours(text string) float64 {
	var best float64
	for _, m := range c.m.hours.FindAllStringSubmatch(text, -1) {
		if h, err := strconv.ParseFloat(m[1], 64); err == nil && h > best {
			best = h
		}
	}
	return best
}

// Enrich 對去重後的完整集合做第二階段補充（就地修改）
func Enrich(recipes []*Recipe) {
	defaultClassifier.Enrich(recipes)
}

// Enrich 加上不含過敏原標籤、慢煮/免開火旗標，並鏡射成本與低鈉標籤
func (c *Classifier) Enrich(recipes []*Recipe) {
	for _, r := range recipes {
		if r == nil {
			continue
		}
		cl := c.Classify(ClassifyInput{
			Title:      r.Title,
			Method:     r.Method,
			TimeLabel:  r.TimeLabel,
			TimeMins:   r.TimeMins,
			PantryKeys: r.PantryKeys,
			Allergens:  r.AllergensPresent,
			SlowCook:   r.SlowCook,
		})

		for _, tag := range cl.FreeTags {
			r.Dietary = appendTag(r.Dietary, tag)
		}
		r.SlowCook = cl.SlowCook
		r.NoCook = cl.NoCook
		if r.NoCook && !strings.Contains(NormalizeText(r.TimeLabel), "no-cook") {
			if strings.TrimSpace(r.TimeLabel) == "" {
				r.TimeLabel = "No-cook"
			} else {
				r.TimeLabel = strings.TrimSpace(r.TimeLabel) + " · No-cook"
			}
		}

		mirrorTags(r)
	}
}

// mirrorTags 成本別名與低鈉標籤鏡射
func mirrorTags(r *Recipe) {
	if containsTag(r.CostPrep, "Low cost") {
		r.CostPrep = appendTag(r.CostPrep, "Low cost / Budget")
	}
	if NormalizeTag(r.CostTag) == "budget" {
		r.CostPrep = appendTag(r.CostPrep, "Budget")
	}
	if containsTag(r.Dietary, "Low sodium") || containsTag(r.Protocols, "Low sodium") {
		r.Dietary = appendTag(r.Dietary, "Low sodium")
		r.Protocols = appendTag(r.Protocols, "Low sodium")
	}
}
