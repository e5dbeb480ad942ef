package model

import "time"

// User はアカウントを表す。
// PasswordHashはレスポンスやログに出してはならない。
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// Identity はトークンから復元されたリクエスト単位の認証主体。
type Identity struct {
	UserID int64
	Email  string
}
