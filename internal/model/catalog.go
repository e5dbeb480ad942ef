package model

import "time"

// University は大学カタログのエントリ。
type University struct {
	ID          int64
	Name        string
	City        string
	Country     string
	Description string
	CreatedAt   time.Time
}

// Course は大学に属する科目。
// UniversityName、City、Countryは大学テーブルとの結合結果。
type Course struct {
	ID             int64
	UniversityID   int64
	SubjectName    string
	CourseCode     string
	Description    string
	UniversityName string
	City           string
	Country        string
	CreatedAt      time.Time
}

// UniversityReview は大学へのレビュー。
// FirstName、LastNameはレビュー投稿者の表示名。
type UniversityReview struct {
	ID           int64
	UniversityID int64
	UserID       int64
	Rating       int
	ReviewText   string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// CourseReview はコースへのレビュー。評価は3軸（総合・楽しさ・難易度）。
type CourseReview struct {
	ID           int64
	CourseID     int64
	UserID       int64
	Rating       int
	Enjoyability int
	Difficulty   int
	ReviewText   string
	FirstName    string
	LastName     string
	CreatedAt    time.Time
}

// CourseAverages はコースレビューの平均値。レビューがなければ全てnil。
type CourseAverages struct {
	Rating       *float64
	Enjoyability *float64
	Difficulty   *float64
}
