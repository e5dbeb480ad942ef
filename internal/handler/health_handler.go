package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/studyabroad/internal/model"
)

// HealthChecker はDBの疎通確認と時刻取得のインターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
	Now(ctx context.Context) (time.Time, error)
}

// HealthHandler はヘルスチェック用のHTTPハンドラー。
type HealthHandler struct {
	checker   HealthChecker
	startedAt time.Time
	now       func() time.Time
}

// NewHealthHandler はHealthHandlerを生成する。startedAtは稼働時間の起点。
func NewHealthHandler(checker HealthChecker, startedAt time.Time) *HealthHandler {
	return &HealthHandler{checker: checker, startedAt: startedAt, now: time.Now}
}

// Health はプロセスの稼働状況を返す。DBに接続できない場合は503。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	uptime := h.now().Sub(h.startedAt).Seconds()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.checker.Ping(ctx); err != nil {
		slog.Error("health check: database unreachable", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":         "unavailable",
			"uptime_seconds": uptime,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": uptime,
	})
}

// DBTime はDBサーバーの現在時刻を返す。
// GET /db-time
func (h *HealthHandler) DBTime(w http.ResponseWriter, r *http.Request) {
	now, err := h.checker.Now(r.Context())
	if err != nil {
		slog.Error("db-time query failed", slog.String("error", err.Error()))
		writeAPIErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"db_time": now})
}
