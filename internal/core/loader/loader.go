// Package loader 由多個 JSON 來源並行載入食譜，合併、正規化、去重並補充衍生欄位。
package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"strings"
	"time"

	"recipe-browser/internal/core/recipe"
	"recipe-browser/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Failure 單一來源的失敗紀錄
type Failure struct {
	Path  string `json:"path"`
	Error string `json:"error"`
	Err   error  `json:"-"`
}

// Result 一次載入的結果；零筆食譜也是合法結果
type Result struct {
	Recipes  []*recipe.Recipe `json:"-"`
	Loaded   int              `json:"loaded"`
	Sources  []string         `json:"sources"`
	Failures []Failure        `json:"failures"`
	Tried    []string         `json:"tried"`
	At       time.Time        `json:"loadedAt"`
}

// Options 載入器設定
type Options struct {
	BaseURL    string        // 相對路徑的基準位置
	Timeout    time.Duration // 單一來源逾時，0 表示不限制
	Normalizer recipe.Normalizer
	Classifier *recipe.Classifier
	Client     *resty.Client
}

// Loader 多來源載入器
type Loader struct {
	client     *resty.Client
	base       *url.URL
	timeout    time.Duration
	normalizer recipe.Normalizer
	classifier *recipe.Classifier
}

// New 創建載入器
func New(opts Options) (*Loader, error) {
	l := &Loader{
		client:     opts.Client,
		timeout:    opts.Timeout,
		normalizer: opts.Normalizer,
		classifier: opts.Classifier,
	}
	if l.client == nil {
		l.client = newClient()
	}
	if l.classifier == nil {
		l.classifier = recipe.NewClassifier(recipe.DefaultKeywords)
	}
	if opts.BaseURL != "" {
		base, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, err
		}
		l.base = base
	}
	return l, nil
}

// outcome 單一來源的處理結果
type outcome struct {
	loc     string
	records []json.RawMessage
	err     error
}

// LoadAll 並行讀取所有來源並等待全部完成；單一來源失敗不影響其他來源
func (l *Loader) LoadAll(ctx context.Context, paths []string) *Result {
	outcomes := make([]outcome, len(paths))

	var g errgroup.Group
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			outcomes[i] = l.loadOne(ctx, p)
			return nil
		})
	}
	_ = g.Wait()

	res := &Result{
		Sources:  []string{},
		Failures: []Failure{},
		Tried:    append([]string{}, paths...),
		At:       time.Now(),
	}
	var merged []json.RawMessage
	for i, o := range outcomes {
		if o.err != nil {
			res.Failures = append(res.Failures, Failure{Path: paths[i], Error: o.err.Error(), Err: o.err})
			continue
		}
		res.Sources = append(res.Sources, o.loc)
		merged = append(merged, o.records...)
	}

	res.Recipes = l.build(merged)
	res.Loaded = len(res.Recipes)

	if len(res.Failures) > 0 {
		msgs := make([]string, 0, len(res.Failures))
		for _, f := range res.Failures {
			msgs = append(msgs, f.Error)
		}
		common.LogError("部分食譜來源載入失敗", zap.Strings("failures", msgs))
	}
	common.LogInfo("食譜載入完成",
		zap.Int("loaded", res.Loaded),
		zap.Strings("sources", res.Sources),
		zap.Int("failed", len(res.Failures)),
	)
	return res
}

func (l *Loader) loadOne(ctx context.Context, path string) outcome {
	loc, body, err := l.fetch(ctx, path)
	if err != nil {
		return outcome{loc: loc, err: err}
	}
	records, err := parseDocument(loc, body)
	if err != nil {
		return outcome{loc: loc, err: err}
	}
	return outcome{loc: loc, records: records}
}

// parseDocument 接受頂層陣列或 {"recipes": [...]}；其他結構貢獻零筆
func parseDocument(path string, body []byte) ([]json.RawMessage, error) {
	var doc json.RawMessage
	if err := common.ParseJSONBytes(body, &doc); err != nil {
		return nil, newParseError(path, body, err)
	}

	doc = bytes.TrimSpace(doc)
	switch {
	case len(doc) > 0 && doc[0] == '[':
		var records []json.RawMessage
		if err := json.Unmarshal(doc, &records); err != nil {
			return nil, newParseError(path, body, err)
		}
		return records, nil
	case len(doc) > 0 && doc[0] == '{':
		var wrapped struct {
			Recipes json.RawMessage `json:"recipes"`
		}
		if err := json.Unmarshal(doc, &wrapped); err != nil {
			return nil, newParseError(path, body, err)
		}
		var records []json.RawMessage
		if json.Unmarshal(wrapped.Recipes, &records) != nil {
			return nil, nil
		}
		return records, nil
	default:
		return nil, nil
	}
}

// build 正規化、去重後再做補充
func (l *Loader) build(records []json.RawMessage) []*recipe.Recipe {
	out := make([]*recipe.Recipe, 0, len(records))
	seen := make(map[string]bool, len(records))
	rejected := 0
	for _, raw := range records {
		r, ok := l.normalizer.Normalize(raw)
		if !ok {
			rejected++
			continue
		}
		key := DedupKey(r)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
	}
	if rejected > 0 {
		common.LogDebug("略過無法正規化的紀錄", zap.Int("rejected", rejected))
	}

	l.classifier.Enrich(out)
	return out
}

// DedupKey 去重鍵：slug（不分大小寫、去空白），沒有 slug 時改用標題
func DedupKey(r *recipe.Recipe) string {
	if key := strings.ToLower(strings.TrimSpace(r.Slug)); key != "" {
		return key
	}
	return "title:" + strings.ToLower(strings.TrimSpace(r.Title))
}
