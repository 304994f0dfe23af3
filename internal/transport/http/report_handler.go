package http

import (
	"errors"
	"fmt"
	"net/http"

	"countdown-quiz/internal/app"
	"countdown-quiz/internal/domain"
	"github.com/rs/zerolog"
)

// ReportHandler serves the plain-text review sheet of submitted sessions.
type ReportHandler struct {
	service *app.QuizService
	log     zerolog.Logger
}

func NewReportHandler(service *app.QuizService, log zerolog.Logger) *ReportHandler {
	return &ReportHandler{service: service, log: log}
}

// ServeReport handles GET /reports/{sessionID}.
func (h *ReportHandler) ServeReport(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("sessionID")
	report, err := h.service.Report(r.Context(), sessionID)
	if errors.Is(err, domain.ErrReportNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("session", sessionID).Msg("load report failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", report.FileName))
	_, _ = w.Write([]byte(report.Body))
}
