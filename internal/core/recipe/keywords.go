package recipe

import (
	"regexp"
	"strings"
)

// KeywordsVersion 關鍵字表版本，調整清單時請一併更新
const KeywordsVersion = "2024.2"

// AllergenGroup 一組過敏原關鍵字與其「不含」標籤
type AllergenGroup struct {
	FreeTag  string   // 例如 "Dairy-free"
	Keywords []string // 出現任一即不加標籤
	Names    []string // allergensPresent 中代表同一類的名稱
}

// Keywords 文字啟發式使用的關鍵字設定
type Keywords struct {
	Version      string
	Allergens    []AllergenGroup
	SlowCook     []string // 正規表示式片段
	SlowCookMins int
	SlowCookHrs  float64
	HeatVerbs    []string // 正規表示式片段
	RiskyProtein []string
	HeatStaples  []string
}

// DefaultKeywords 預設關鍵字表
var DefaultKeywords = Keywords{
	Version: KeywordsVersion,
	Allergens: []AllergenGroup{
		{
			FreeTag:  "Dairy-free",
			Keywords: []string{"milk", "butter", "cheese", "yoghurt", "yogurt", "cream", "ghee"},
			Names:    []string{"dairy", "milk", "lactose"},
		},
		{
			FreeTag:  "Egg-free",
			Keywords: []string{"egg", "eggs"},
			Names:    []string{"egg", "eggs"},
		},
		{
			FreeTag: "Nut-free",
			Keywords: []string{
				"almond", "almonds", "walnut", "walnuts", "hazelnut", "hazelnuts", "pecan", "pecans",
				"cashew", "cashews", "peanut", "peanuts", "pistachio", "pistachios", "nut", "nuts",
			},
			Names: []string{"nut", "nuts", "tree nuts", "peanut", "peanuts"},
		},
		{
			FreeTag:  "Soy-free",
			Keywords: []string{"soy", "soya", "soy sauce", "soya sauce", "tofu", "tempeh", "edamame", "miso", "tamari"},
			Names:    []string{"soy", "soya", "soybean", "soybeans"},
		},
	},
	SlowCook: []string{
		`slow[-\s]?cook`, `slow cooker`, `crock[-\s]?pot`, `low and slow`,
		`braise`, `stew`, `pulled`, `cook on low`,
	},
	SlowCookMins: 180,
	SlowCookHrs:  3,
	HeatVerbs: []string{
		`bak(?:e|ed|es|ing)`, `roast\w*`, `boil\w*`, `simmer\w*`, `sear(?:ed|ing|s)?\b`,
		`pan-fr\w*`, `deep-fr\w*`, `air-fr\w*`, `fry`, `fries`, `fried`, `frying`,
		`saut(?:e|é)\w*`, `grill\w*`, `broil\w*`, `steam\w*`, `poach\w*`, `brais\w*`,
		`stew\w*`, `pressure-cook\w*`,
	},
	RiskyProtein: []string{
		"chicken", "beef", "pork", "lamb", "turkey", "duck", "fish", "salmon", "tuna", "cod",
		"prawn", "prawns", "shrimp", "seafood", "mince", "sausage", "sausages", "egg", "eggs",
	},
	HeatStaples: []string{
		"rice", "pasta", "potato", "potatoes", "noodle", "noodles", "lentil", "lentils",
		"quinoa", "dried beans", "polenta", "dry couscous", "gnocchi",
	},
}

// matchers 由 Keywords 編譯出的正規表示式
type matchers struct {
	allergens    []allergenMatcher
	slowCook     *regexp.Regexp
	hours        *regexp.Regexp
	heat         *regexp.Regexp
	riskyProtein *regexp.Regexp
	heatStaples  *regexp.Regexp
}

type allergenMatcher struct {
	freeTag  string
	keywords *regexp.Regexp
	names    *regexp.Regexp
}

var hoursPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:h|hr|hrs|hour|hours)\b`)

func (k Keywords) compile() matchers {
	m := matchers{
		slowCook:     regexp.MustCompile(strings.Join(k.SlowCook, "|")),
		hours:        hoursPattern,
		heat:         regexp.MustCompile(`\b(?:` + strings.Join(k.HeatVerbs, "|") + `)`),
		riskyProtein: wordPattern(k.RiskyProtein),
		heatStaples:  wordPattern(k.HeatStaples),
	}
	for _, g := range k.Allergens {
		m.allergens = append(m.allergens, allergenMatcher{
			freeTag:  g.FreeTag,
			keywords: wordPattern(g.Keywords),
			names:    wordPattern(g.Names),
		})
	}
	return m
}

// wordPattern 將字詞清單編譯成以字詞邊界包住的正規表示式
func wordPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(w)))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
