package model

import "time"

// Post はプロフィールに紐づく投稿を表す。
type Post struct {
	ID        int64
	ProfileID int64
	Title     string
	Body      string
	CreatedAt time.Time
	Images    []PostImage
}

// PostWithProfile は投稿一覧用に投稿者プロフィールの一部を結合したモデル。
type PostWithProfile struct {
	Post
	University string
	City       string
	Term       string
}

// PostImage は外部アップロードストアが返した公開パスを保持する。
// 画像バイト列そのものは扱わない。
type PostImage struct {
	ID        int64
	PostID    int64
	URL       string
	CreatedAt time.Time
}
