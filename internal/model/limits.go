package model

import (
	"fmt"
	"unicode/utf8"
)

// 入力値の上限。各値はマイグレーションの列定義と一致させる。
const (
	MaxUserNameLength  = 100 // users.first_name, users.last_name
	MaxEmailLength     = 255
	MaxTextLength      = 255 // profiles.name/university/city/country, posts.title
	MaxShortTextLength = 100 // profiles.term, profiles.language
	MaxCurrencyLength  = 10

	// MaxBudget はNUMERIC(12,2)に収まらない最小値。budgetはこれ未満でなければならない。
	MaxBudget = 1e10
)

// CheckMaxLength は値の文字数(ルーン数)がlimitを超える場合にFieldErrorを返す。
// VARCHAR(n)は文字数で数えるため、バイト数ではなくルーン数で比較する。
func CheckMaxLength(field, value string, limit int) (FieldError, bool) {
	if utf8.RuneCountInString(value) <= limit {
		return FieldError{}, true
	}
	return FieldError{Field: field, Message: fmt.Sprintf("must be at most %d characters", limit)}, false
}
