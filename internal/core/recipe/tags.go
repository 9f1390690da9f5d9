package recipe

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// dashes 視為 ASCII '-' 的 Unicode 破折號
var dashes = map[rune]bool{
	'\u2010': true, // hyphen
	'\u2011': true, // non-breaking hyphen
	'\u2012': true, // figure dash
	'\u2013': true, // en dash
	'\u2014': true, // em dash
	'\u2212': true, // minus sign
}

func dashToHyphen(r rune) rune {
	if dashes[r] {
		return '-'
	}
	return r
}

// NormalizeText 小寫化、NFKC、破折號轉 '-'，並合併空白
func NormalizeText(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFKC, runes.Map(dashToHyphen))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.Map(dashToHyphen, s)
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

// NormalizeTag 標籤比對用的正規化形式
func NormalizeTag(tag string) string {
	return NormalizeText(tag)
}

// TagSet 正規化後的標籤集合
type TagSet map[string]struct{}

// NewTagSet 由原始標籤建立集合
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	s.Add(tags...)
	return s
}

// Add 加入標籤（自動正規化，忽略空字串）
func (s TagSet) Add(tags ...string) {
	for _, t := range tags {
		if n := NormalizeTag(t); n != "" {
			s[n] = struct{}{}
		}
	}
}

// Has 精確（正規化後）成員檢查
func (s TagSet) Has(tag string) bool {
	_, ok := s[NormalizeTag(tag)]
	return ok
}

// HasAny 任一標籤存在
func (s TagSet) HasAny(tags ...string) bool {
	for _, t := range tags {
		if s.Has(t) {
			return true
		}
	}
	return false
}

// TagAliases 標籤別名表：chip 值 -> 可接受的標籤
//
// "Low cost / Budget" 是最寬的一組；"Budget" 只接受明確的 budget 標記，
// "Low cost" 則同時接受 budget。
var TagAliases = map[string][]string{
	"low cost / budget": {"budget", "low cost", "low cost / budget"},
	"budget":            {"budget", "low cost / budget"},
	"low cost":          {"low cost", "low cost / budget", "budget"},
}

// BudgetTags 被視為「平價」的標籤
var BudgetTags = TagAliases["low cost / budget"]

// Matches 以別名表做寬鬆成員檢查
func (s TagSet) Matches(chip string) bool {
	if variants, ok := TagAliases[NormalizeTag(chip)]; ok {
		return s.HasAny(variants...)
	}
	return s.Has(chip)
}

// IsBudget 是否帶有任何平價標籤
func (s TagSet) IsBudget() bool {
	return s.HasAny(BudgetTags...)
}

// containsTag 以正規化形式檢查切片中是否已有標籤
func containsTag(tags []string, tag string) bool {
	n := NormalizeTag(tag)
	for _, t := range tags {
		if NormalizeTag(t) == n {
			return true
		}
	}
	return false
}

// appendTag 不存在時才附加
func appendTag(tags []string, tag string) []string {
	if containsTag(tags, tag) {
		return tags
	}
	return append(tags, tag)
}
