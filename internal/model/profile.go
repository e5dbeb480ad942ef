package model

import "time"

// Profile は留学期間を説明するユーザーごとのプロフィール。
// 1ユーザーにつき1件まで。
type Profile struct {
	ID         int64
	UserID     int64
	Name       string
	University string
	City       string
	Country    string
	Term       string
	Budget     *float64
	Currency   string
	Language   string
	Summary    string
	Rating     *int
	CreatedAt  time.Time
}

// ProfileInput はプロフィール作成・全体更新の入力値。
// 空文字列の任意項目はNULLとして保存する。
type ProfileInput struct {
	Name       string
	University string
	City       string
	Country    string
	Term       string
	Budget     *float64
	Currency   string
	Language   string
	Summary    string
	Rating     *int
}

// ProfilePatch はプロフィール部分更新の入力値。
// nilのフィールドは変更しない。
type ProfilePatch struct {
	Name       *string
	University *string
	City       *string
	Country    *string
	Term       *string
	Budget     *float64
	Currency   *string
	Language   *string
	Summary    *string
	Rating     *int
}

// IsEmpty は更新対象のフィールドが1つもないかを返す。
func (p ProfilePatch) IsEmpty() bool {
	return p.Name == nil && p.University == nil && p.City == nil &&
		p.Country == nil && p.Term == nil && p.Budget == nil &&
		p.Currency == nil && p.Language == nil && p.Summary == nil &&
		p.Rating == nil
}
