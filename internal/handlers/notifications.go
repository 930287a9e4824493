package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/notify"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

type NotificationHandlers struct {
	dispatcher *notify.Dispatcher
	store      *services.Store
	logger     *slog.Logger
}

func NewNotificationHandlers(dispatcher *notify.Dispatcher, store *services.Store, logger *slog.Logger) *NotificationHandlers {
	return &NotificationHandlers{
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
}

// sendRequest carries the channel, template and per-request credentials.
// The filter selection rides in the query string like on every page, so
// the dispatch targets exactly the currently filtered view.
type sendRequest struct {
	Channel string                  `json:"channel"`
	Message string                  `json:"message"`
	SMS     *notify.SMSCredentials  `json:"sms,omitempty"`
	SMTP    *notify.SMTPCredentials `json:"smtp,omitempty"`
}

// HandleSend runs the per-row dispatch loop and returns the full report.
func (h *NotificationHandlers) HandleSend(w http.ResponseWriter, r *http.Request) {
	requestID := observability.GetRequestID(r.Context())

	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apperrors.WriteError(w, h.logger, apperrors.BadRequestWrap(err, "invalid request body"), requestID)
		return
	}

	sel, err := parseSelection(r)
	if err != nil {
		apperrors.WriteError(w, h.logger, err, requestID)
		return
	}
	sel, err = h.store.Normalize(sel)
	if err != nil {
		apperrors.WriteError(w, h.logger, err, requestID)
		return
	}

	report, err := h.dispatcher.Dispatch(r.Context(), h.store.Schema(), notify.Request{
		Channel:  notify.Channel(req.Channel),
		Template: req.Message,
		SMS:      req.SMS,
		SMTP:     req.SMTP,
		Rows:     h.store.Filter(sel),
	})
	if err != nil {
		apperrors.WriteError(w, h.logger, err, requestID)
		return
	}

	apperrors.WriteSuccess(w, report)
}
