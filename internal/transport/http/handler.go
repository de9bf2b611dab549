package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/stayhive/conversation-service/internal/domain"
	httpmw "github.com/stayhive/conversation-service/internal/transport/http/middleware"
	"github.com/stayhive/conversation-service/internal/transport/ws"

	"github.com/go-chi/chi/v5"
)

type ConversationSvc interface {
	GetOrCreate(ctx context.Context, userID, peerID int64, propertyID *string) (*domain.Conversation, error)
	Get(ctx context.Context, conversationID string, userID int64) (*domain.Conversation, error)
	ListForUser(ctx context.Context, userID int64) ([]domain.Conversation, error)
}

type MessageSvc interface {
	Append(ctx context.Context, conversationID string, senderID int64, content string) (*domain.Message, error)
	History(ctx context.Context, conversationID string, userID int64, after string, limit int) ([]domain.Message, string, error)
}

type MaintenanceSvc interface {
	PurgeForUser(ctx context.Context, userID int64) (int64, error)
}

// RepairEnqueuer ставит batch-repair snapshot-ов в очередь обслуживания.
type RepairEnqueuer interface {
	EnqueueRepair(ctx context.Context) (taskID string, err error)
}

type Handler struct {
	convSvc        ConversationSvc
	msgSvc         MessageSvc
	maintenanceSvc MaintenanceSvc
	repair         RepairEnqueuer
}

func NewHandler(conv ConversationSvc, msg MessageSvc, maintenance MaintenanceSvc, repair RepairEnqueuer) *Handler {
	return &Handler{
		convSvc:        conv,
		msgSvc:         msg,
		maintenanceSvc: maintenance,
		repair:         repair,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError маппит сентинелы доменных ошибок в HTTP-статусы.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrConversationNotFound),
		errors.Is(err, domain.ErrMessageNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNotParticipant),
		errors.Is(err, domain.ErrNotMessageAuthor),
		errors.Is(err, domain.ErrSystemMessage):
		writeJSON(w, http.StatusForbidden, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrEmptyMessage),
		errors.Is(err, domain.ErrMessageTooLong),
		errors.Is(err, domain.ErrSelfConversation),
		errors.Is(err, domain.ErrPropertyInactive):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidCursor):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
	default:
		slog.Error("http handler failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
	}
}

// POST /conversations
func (h *Handler) OpenConversation(w http.ResponseWriter, r *http.Request) {
	var req OpenConversationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}
	if req.PeerID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "peer_id is required"})
		return
	}

	userID := httpmw.UserIDFromCtx(r.Context())
	conv, err := h.convSvc.GetOrCreate(r.Context(), userID, req.PeerID, req.PropertyID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toConversationItem(conv))
}

// GET /conversations
func (h *Handler) ListConversations(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	convs, err := h.convSvc.ListForUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := ConversationsListResponse{Items: make([]ConversationItem, 0, len(convs))}
	for i := range convs {
		resp.Items = append(resp.Items, toConversationItem(&convs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GET /conversations/{id}
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	conv, err := h.convSvc.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toConversationItem(conv))
}

// GET /conversations/{id}/messages?after=&limit=
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())

	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}

	msgs, next, err := h.msgSvc.History(r.Context(), chi.URLParam(r, "id"), userID,
		r.URL.Query().Get("after"), limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := MessagesListResponse{Items: make([]ws.MessageItem, 0, len(msgs)), NextCursor: next}
	for i := range msgs {
		resp.Items = append(resp.Items, ws.ToMessageItem(&msgs[i]))
	}
	writeJSON(w, http.StatusOK, resp)
}

// POST /conversations/{id}/messages — REST-путь той же записи, что и
// send_message в live-протоколе.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	userID := httpmw.UserIDFromCtx(r.Context())
	msg, err := h.msgSvc.Append(r.Context(), chi.URLParam(r, "id"), userID, req.Content)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ws.ToMessageItem(msg))
}

// POST /admin/summaries/recompute
func (h *Handler) RecomputeSummaries(w http.ResponseWriter, r *http.Request) {
	taskID, err := h.repair.EnqueueRepair(r.Context())
	if err != nil {
		slog.Error("enqueue repair failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "enqueue failed"})
		return
	}
	writeJSON(w, http.StatusAccepted, RepairEnqueuedResponse{TaskID: taskID})
}

// DELETE /admin/users/{user_id}/conversations
func (h *Handler) PurgeUserConversations(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "user_id"), 10, 64)
	if err != nil || userID <= 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
		return
	}

	n, err := h.maintenanceSvc.PurgeForUser(r.Context(), userID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, PurgeResponse{Deleted: n})
}
