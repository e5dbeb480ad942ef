// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/studyabroad/internal/middleware"
	"github.com/hitoshi/studyabroad/internal/model"
)

// maxBodyBytes はJSONリクエストボディの上限。
const maxBodyBytes = 1 << 20

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	middleware.WriteErrorResponse(w, statusCode, apiErr)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
// APIError以外はDBエラー等の内部エラーとみなし、詳細はログのみに残す。
// 列の長さや精度を超えた値はバリデーションエラーとして扱う。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}
	// サービス層の検証をすり抜けて列の上限に達した値
	if errors.Is(err, model.ErrValueOutOfRange) {
		slog.Warn("value rejected by column limits", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError())
		return
	}

	slog.Error("internal server error",
		slog.String("error", err.Error()),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", middleware.RequestIDFromContext(r.Context())),
	)
	writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeUnauthorized, model.ErrCodeTokenExpired, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeProfileNotFound, model.ErrCodePostNotFound,
		model.ErrCodeUniversityNotFound, model.ErrCodeCourseNotFound:
		return http.StatusNotFound
	case model.ErrCodeConfiguration, model.ErrCodeInternal:
		return http.StatusInternalServerError
	}

	switch apiErr.Category {
	case model.CategoryValidation:
		return http.StatusBadRequest
	case model.CategoryAuth:
		return http.StatusUnauthorized
	case model.CategoryPermission:
		return http.StatusForbidden
	case model.CategoryResource:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON はリクエストボディをvにデコードする。
// 失敗した場合は400レスポンスを書き込んでfalseを返す。
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		msg := "Request body could not be parsed."
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			msg = "Request body is empty."
		case errors.As(err, &typeErr) && typeErr.Field != "":
			msg = fmt.Sprintf("Field %q has the wrong type.", typeErr.Field)
		case errors.As(err, &maxErr):
			msg = "Request body is too large."
		}
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(msg))
		return false
	}
	return true
}

// pathID はURLパラメータから正の整数IDを取り出す。
// 不正な場合は400レスポンスを書き込んでfalseを返す。
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidIDError(raw))
		return 0, false
	}
	return id, true
}

// requireUserID はRequireAuth配下のハンドラーで認証済みユーザーIDを取り出す。
func requireUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return 0, false
	}
	return userID, true
}
