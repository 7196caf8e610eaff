package webhook

import (
	"io"
	"net/http"

	"yoyaku/internal/line"
	"yoyaku/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

// Handler receives signed webhook deliveries. Signature verification happens
// in middleware before this handler runs; the platform only needs a bare
// status code, so responses carry no JSON body.
type Handler struct {
	dispatcher *Dispatcher
	log        *logger.Logger
}

func NewHandler(dispatcher *Dispatcher, log *logger.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		log:        log,
	}
}

func (h *Handler) Receive(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.log.Error("failed to read webhook body", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	req, err := line.ParseWebhookRequest(body)
	if err != nil {
		h.log.Error("failed to parse webhook body", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	if err := h.dispatcher.Dispatch(r.Context(), req.Events); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/webhook", h.Receive)
}
