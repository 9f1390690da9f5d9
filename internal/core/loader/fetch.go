package loader

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"recipe-browser/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	fileScheme   = "file://"
	parentPrefix = "../"
)

// fetch 讀取單一來源，回傳實際成功的位置與內容
func (l *Loader) fetch(ctx context.Context, path string) (string, []byte, error) {
	if strings.HasPrefix(path, fileScheme) {
		return l.readFile(path)
	}

	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}

	loc, body, status, err := l.get(ctx, path)
	if err == nil && status == http.StatusNotFound && !strings.HasPrefix(path, parentPrefix) {
		fallback := parentPrefix + path
		common.LogWarn("來源 404，改用上層路徑",
			zap.String("path", path),
			zap.String("fallback", fallback),
		)
		loc, body, status, err = l.get(ctx, fallback)
	}
	if err != nil {
		return loc, nil, err
	}
	if status < 200 || status >= 300 {
		return loc, nil, &HTTPError{URL: loc, Status: status}
	}
	return loc, body, nil
}

// get 發出 GET 請求；路徑未帶查詢字串時附加 v=<毫秒時間戳> 避免快取
func (l *Loader) get(ctx context.Context, path string) (string, []byte, int, error) {
	target, err := l.resolve(path)
	if err != nil {
		return path, nil, 0, fmt.Errorf("%s: %w", path, err)
	}

	req := l.client.R().SetContext(ctx)
	if !strings.Contains(path, "?") {
		req.SetQueryParam("v", strconv.FormatInt(time.Now().UnixMilli(), 10))
	}

	resp, err := req.Get(target)
	if err != nil {
		return path, nil, 0, fmt.Errorf("%s: %w", path, err)
	}
	return path, resp.Body(), resp.StatusCode(), nil
}

// resolve 以 base URL 解析相對路徑（與瀏覽器解析相對連結相同）
func (l *Loader) resolve(path string) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	if l.base == nil || ref.IsAbs() {
		return ref.String(), nil
	}
	return l.base.ResolveReference(ref).String(), nil
}

func (l *Loader) readFile(path string) (string, []byte, error) {
	body, err := os.ReadFile(strings.TrimPrefix(path, fileScheme))
	if err != nil {
		return path, nil, fmt.Errorf("%s: %w", path, err)
	}
	return path, body, nil
}

func newClient() *resty.Client {
	return resty.New().
		SetHeader("Accept", "application/json").
		SetHeader("Cache-Control", "no-cache")
}
