// Package security はユーザー入力の無害化を提供する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザーが入力した自由記述テキストからHTMLを除去する。
// プロフィール概要、投稿タイトル・本文、レビュー本文の保存前に使用する。
type TextSanitizer interface {
	// Sanitize はタグをすべて除去したプレーンテキストを返す。前後の空白も除く。
	Sanitize(s string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyを使うTextSanitizerを生成する。
func NewTextSanitizer() TextSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去する。StrictPolicyがエスケープした文字実体は元に戻す。
// 応答はJSONで返し、表示側でエスケープされる前提。
func (s *textSanitizer) Sanitize(in string) string {
	if in == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(in)))
}

// NopSanitizer は入力をそのまま返す。テスト用。
type NopSanitizer struct{}

// Sanitize は前後の空白だけを除く。
func (NopSanitizer) Sanitize(in string) string { return strings.TrimSpace(in) }
