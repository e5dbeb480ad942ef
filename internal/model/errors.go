// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// FieldError はフィールド単位のバリデーションエラーを表す。
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string         // エラーコード
	Message  string         // エラーメッセージ
	Category string         // カテゴリ: auth, validation, permission, resource, system
	Action   string         // ユーザー向け対処方法
	Fields   []FieldError   // validationカテゴリのフィールド詳細
	Details  map[string]any // クライアントに返してよい補足情報
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation             = "VALIDATION_FAILED"
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeInvalidFilter          = "INVALID_FILTER"
	ErrCodeInvalidID              = "INVALID_ID"
	ErrCodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	ErrCodePasswordMismatch       = "PASSWORDS_DO_NOT_MATCH"
	ErrCodeProfileAlreadyExists   = "PROFILE_ALREADY_EXISTS"
	ErrCodeNoUpdatableFields      = "NO_UPDATABLE_FIELDS"

	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeTokenExpired       = "TOKEN_EXPIRED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	ErrCodeForbidden = "FORBIDDEN"

	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeProfileNotFound    = "PROFILE_NOT_FOUND"
	ErrCodePostNotFound       = "POST_NOT_FOUND"
	ErrCodeUniversityNotFound = "UNIVERSITY_NOT_FOUND"
	ErrCodeCourseNotFound     = "COURSE_NOT_FOUND"
	ErrCodeRouteNotFound      = "ROUTE_NOT_FOUND"

	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"

	ErrCodeConfiguration = "CONFIGURATION_ERROR"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryAuth       = "auth"
	CategoryPermission = "permission"
	CategoryResource   = "resource"
	CategorySystem     = "system"
)

// リポジトリ層からサービス層へ通知するセンチネル。
var (
	// ErrDuplicate は一意制約違反。
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound は参照先の行が存在しない。
	ErrNotFound = errors.New("record not found")
	// ErrNotOwner は行は存在するが操作ユーザーの所有ではない。
	ErrNotOwner = errors.New("record not owned by user")
	// ErrValueOutOfRange は値が列の長さや精度に収まらない。
	ErrValueOutOfRange = errors.New("value out of column range")
)

// NewValidationError はフィールド単位の詳細を含むバリデーションエラーを生成する。
func NewValidationError(fields ...FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  "The request contains invalid fields.",
		Category: CategoryValidation,
		Action:   "Fix the listed fields and try again.",
		Fields:   fields,
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  reason,
		Category: CategoryValidation,
		Action:   "Send a well-formed JSON body.",
	}
}

// NewInvalidFilterError は一覧クエリのフィルタ値が不正な場合のエラーを生成する。
func NewInvalidFilterError(fields ...FieldError) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  "One or more filter parameters are invalid.",
		Category: CategoryValidation,
		Action:   "Numeric filters must be numbers; limit and offset must be non-negative integers.",
		Fields:   fields,
	}
}

// NewInvalidIDError はパスパラメータのIDが不正な場合のエラーを生成する。
func NewInvalidIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("invalid id: %q", raw),
		Category: CategoryValidation,
		Action:   "Use a positive integer id.",
	}
}

// NewEmailAlreadyRegisteredError はメールアドレス重複エラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "Email already registered.",
		Category: CategoryValidation,
		Action:   "Log in instead, or sign up with a different email.",
		Fields:   []FieldError{{Field: "email", Message: "already registered"}},
	}
}

// NewPasswordMismatchError はパスワード確認の不一致エラーを生成する。
func NewPasswordMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodePasswordMismatch,
		Message:  "Passwords do not match.",
		Category: CategoryValidation,
		Action:   "Re-enter the same password in both fields.",
		Fields:   []FieldError{{Field: "confirmPassword", Message: "must match password"}},
	}
}

// NewProfileAlreadyExistsError は1ユーザー1プロフィール制約の違反エラーを生成する。
// 既存プロフィールIDが分かっている場合はDetailsに含める。
func NewProfileAlreadyExistsError(profileID int64) *APIError {
	e := &APIError{
		Code:     ErrCodeProfileAlreadyExists,
		Message:  "You already have a profile. Please edit your existing profile instead.",
		Category: CategoryValidation,
		Action:   "Edit your existing profile.",
	}
	if profileID > 0 {
		e.Details = map[string]any{"profile_id": profileID}
	}
	return e
}

// NewNoUpdatableFieldsError は部分更新で更新対象がない場合のエラーを生成する。
func NewNoUpdatableFieldsError() *APIError {
	return &APIError{
		Code:     ErrCodeNoUpdatableFields,
		Message:  "no updatable fields",
		Category: CategoryValidation,
		Action:   "Include at least one editable field.",
	}
}

// NewUnauthorizedError は認証失敗エラーを生成する。
// トークンの欠落と不正は区別しない。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "Authentication required.",
		Category: CategoryAuth,
		Action:   "Log in and retry with a valid token.",
	}
}

// NewTokenExpiredError は期限切れトークンのエラーを生成する。
// クライアントの再ログイン導線のため、期限切れだけは区別して返す。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "Token expired.",
		Category: CategoryAuth,
		Action:   "Log in again to obtain a new token.",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// メール未登録とパスワード不一致は同じメッセージにする。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password.",
		Category: CategoryAuth,
		Action:   "Check your email and password.",
	}
}

// NewForbiddenError は認可エラーを生成する。
func NewForbiddenError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  message,
		Category: CategoryPermission,
		Action:   "You can only modify resources you own.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: CategoryResource,
		Action:   "Log in again.",
	}
}

// NewProfileNotFoundError はプロフィールが見つからない場合のエラーを生成する。
func NewProfileNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeProfileNotFound,
		Message:  "Profile not found.",
		Category: CategoryResource,
		Action:   "Create a profile first, or check the profile id.",
	}
}

// NewPostNotFoundError は投稿が見つからない場合のエラーを生成する。
func NewPostNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePostNotFound,
		Message:  "Post not found.",
		Category: CategoryResource,
		Action:   "Check the post id.",
	}
}

// NewUniversityNotFoundError は大学が見つからない場合のエラーを生成する。
func NewUniversityNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUniversityNotFound,
		Message:  "University not found.",
		Category: CategoryResource,
		Action:   "Check the university id.",
	}
}

// NewCourseNotFoundError はコースが見つからない場合のエラーを生成する。
func NewCourseNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeCourseNotFound,
		Message:  "Course not found.",
		Category: CategoryResource,
		Action:   "Check the course id.",
	}
}

// NewRouteNotFoundError は未定義のパスへのリクエストに対するエラーを生成する。
func NewRouteNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeRouteNotFound,
		Message:  "Route not found.",
		Category: CategoryResource,
		Action:   "Check the request path.",
	}
}

// NewMethodNotAllowedError は未対応のHTTPメソッドに対するエラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{
		Code:     ErrCodeMethodNotAllowed,
		Message:  "Method not allowed.",
		Category: CategoryValidation,
		Action:   "Check the HTTP method for this endpoint.",
	}
}

// NewConfigurationError はサーバー設定不備のエラーを生成する。
// 詳細はログのみに記録し、クライアントには一般的なメッセージを返す。
func NewConfigurationError() *APIError {
	return &APIError{
		Code:     ErrCodeConfiguration,
		Message:  "Server configuration error.",
		Category: CategorySystem,
		Action:   "Contact the administrator.",
	}
}

// NewInternalError は予期しないエラーの統一レスポンスを生成する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: CategorySystem,
		Action:   "Please wait a moment and try again.",
	}
}
