package loader

import (
	"fmt"
	"regexp"
)

// HTTPError 來源回傳非 2xx 狀態碼
type HTTPError struct {
	URL    string
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s → HTTP %d", e.URL, e.Status)
}

// ParseError 來源內容不是合法 JSON
type ParseError struct {
	Path      string
	TwoArrays bool // 內容看起來是兩個串接的頂層陣列
	Err       error
}

func (e *ParseError) Error() string {
	if e.TwoArrays {
		return e.Path + ": Looks like TWO top-level arrays back-to-back. Merge into one array or split into separate files."
	}
	return e.Path + ": Invalid JSON (missing comma / trailing comma?)."
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

var twoArrays = regexp.MustCompile(`(?s)^\s*\[.*\]\s*\[.*\]\s*$`)

func newParseError(path string, body []byte, err error) *ParseError {
	return &ParseError{
		Path:      path,
		TwoArrays: twoArrays.Match(body),
		Err:       err,
	}
}
