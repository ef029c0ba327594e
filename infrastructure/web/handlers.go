// Package web is the thin HTTP and websocket surface in front of the
// coordination core: request/response plumbing only, no room state.
package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"

	"board-chat/domain"
	boarderrors "board-chat/errors"
	"board-chat/observability"
	"board-chat/projection"
	"board-chat/services"
	"board-chat/sink"

	"github.com/go-playground/validator/v10"
)

type Handler struct {
	log      *slog.Logger
	svc      services.IChatService
	monitor  *observability.Monitor
	langs    *sink.LanguageStats
	activity *projection.Activity
	validate *validator.Validate
}

func NewHandler(
	log *slog.Logger,
	svc services.IChatService,
	monitor *observability.Monitor,
	langs *sink.LanguageStats,
	activity *projection.Activity,
) *Handler {
	return &Handler{
		log:      log,
		svc:      svc,
		monitor:  monitor,
		langs:    langs,
		activity: activity,
		validate: validator.New(),
	}
}

// Routes mounts every endpoint on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/register", h.handleRegister)
	mux.HandleFunc("GET /api/boards", h.handleBoards)
	mux.HandleFunc("GET /api/boards/{id}/messages", h.handleHistory)
	mux.HandleFunc("GET /api/boards/{id}/search", h.handleSearch)
	mux.HandleFunc("GET /api/stats", h.handleStats)
	mux.HandleFunc("GET /api/health", h.handleHealth)
	mux.HandleFunc("GET /ws", h.handleWS)
	return mux
}

type registerRequest struct {
	DisplayName string `json:"displayName" validate:"required"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var request registerRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := h.validate.Struct(request); err != nil {
		writeError(w, http.StatusBadRequest, boarderrors.ErrNameRequired.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Register(request.DisplayName))
}

func (h *Handler) handleBoards(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Boards())
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	board := domain.BoardID(r.PathValue("id"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	messages, err := h.svc.History(board, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	board := domain.BoardID(r.PathValue("id"))
	terms := strings.TrimSpace(r.URL.Query().Get("q"))
	if terms == "" {
		writeError(w, http.StatusBadRequest, "query required")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	results, err := h.svc.Search(r.Context(), board, terms, limit)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) handleStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"runtime":         h.monitor.GetLatest(),
		"languages":       h.langs.Tally(),
		"recent_activity": h.activity.Recent(),
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	origin := originFrom(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Websocket upgrade failed", "err", err)
		return
	}

	client := newClient(h.log, conn)
	go client.writePump()

	session, err := h.svc.Connect(r.Context(), origin, client)
	if err != nil {
		// Rejection notice is already queued; the write pump drains it
		// and closes the socket.
		return
	}
	client.readPump(r.Context(), session)
}

// originFrom resolves the network origin used for ban checks: the first
// hop of X-Forwarded-For when a proxy fronts us, the peer address
// otherwise.
func originFrom(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return strings.TrimSpace(strings.Split(forwarded, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, boarderrors.ErrUnknownBoard) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.log.Error("Request failed", "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
