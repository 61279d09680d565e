// Package httpapi exposes the chat core over HTTP: a JSON REST surface
// for durable operations and an SSE stream for live push delivery.
package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"studyhub/contract"
	"studyhub/domain"
	"studyhub/domain/chat"
	apperrors "studyhub/errors"
	"studyhub/services"
)

const userIDHeader = "X-User-ID"

// Handler wires the service layer to the router. The idle timeout
// bounds how long a silent SSE stream is kept open.
type Handler struct {
	log           *slog.Logger
	chat          services.IChatService
	notifications services.INotificationService
	registry      contract.IRegistry
	idleTimeout   time.Duration
}

func NewHandler(log *slog.Logger, chatService services.IChatService,
	notifications services.INotificationService, registry contract.IRegistry,
	idleTimeout time.Duration) *Handler {
	if idleTimeout <= 0 {
		idleTimeout = 30 * time.Minute
	}
	return &Handler{
		log:           log,
		chat:          chatService,
		notifications: notifications,
		registry:      registry,
		idleTimeout:   idleTimeout,
	}
}

func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/subscribe", h.Subscribe).Methods("GET")
	r.HandleFunc("/rooms", h.CreateRoom).Methods("POST")
	r.HandleFunc("/rooms", h.ListRooms).Methods("GET")
	r.HandleFunc("/rooms/{roomId}", h.DeleteRoom).Methods("DELETE")
	r.HandleFunc("/rooms/{roomId}/messages", h.DirectHistory).Methods("GET")
	r.HandleFunc("/rooms/{roomId}/messages", h.PostMessage).Methods("POST")
	r.HandleFunc("/rooms/{roomId}/group-messages", h.GroupHistory).Methods("GET")
	r.HandleFunc("/rooms/{roomId}/read", h.MarkRead).Methods("POST")
	r.HandleFunc("/rooms/{roomId}/members", h.JoinRoom).Methods("POST")
	r.HandleFunc("/rooms/{roomId}/members", h.LeaveRoom).Methods("DELETE")
	r.HandleFunc("/notifications", h.Notify).Methods("POST")
	r.HandleFunc("/health", h.Health).Methods("GET")
	return r
}

// Subscribe upgrades the request to an SSE stream bound to the caller's
// push channel. A newer subscription for the same user ends this one.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	stream := h.registry.Subscribe(userID)
	defer h.registry.Unsubscribe(stream)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	idle := time.NewTimer(h.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-idle.C:
			h.log.Debug("stream idle timeout", "user_id", userID)
			return
		case evt, open := <-stream.Events():
			if !open {
				// Superseded by a newer subscription
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Event, evt.Data)
			flusher.Flush()
			if !idle.Stop() {
				<-idle.C
			}
			idle.Reset(h.idleTimeout)
		}
	}
}

type createRoomRequest struct {
	Kind      chat.RoomKind `json:"kind"`
	MemberIDs []int         `json:"memberIds"`
}

func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var body createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if body.Kind != chat.RoomKindDirect && body.Kind != chat.RoomKindGroup {
		http.Error(w, fmt.Sprintf("unknown room kind %q", body.Kind), http.StatusBadRequest)
		return
	}
	room, err := h.chat.CreateRoom(r.Context(), body.Kind, body.MemberIDs)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, map[string]any{
		"roomId": int(room.ID),
		"kind":   string(room.Kind),
	})
}

func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rooms, err := h.chat.RoomsOf(userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	out := make([]map[string]any, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, map[string]any{
			"roomId": int(room.ID),
			"kind":   string(room.Kind),
		})
	}
	h.respond(w, http.StatusOK, out)
}

func (h *Handler) DeleteRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.chat.DeleteRoom(r.Context(), roomID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) DirectHistory(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := h.chat.History(roomID, userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, records)
}

func (h *Handler) GroupHistory(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	records, err := h.chat.GroupHistory(roomID, userID)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusOK, records)
}

type postMessageRequest struct {
	Message string `json:"message"`
}

func (h *Handler) PostMessage(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var body postMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	saved, err := h.chat.PostMessage(r.Context(), chat.PostMessageCommand{
		Room:     roomID,
		SenderID: userID,
		Body:     body.Message,
	})
	if err != nil {
		h.fail(w, err)
		return
	}
	h.respond(w, http.StatusCreated, map[string]any{"messageId": int(saved.ID)})
}

func (h *Handler) MarkRead(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.chat.MarkRead(r.Context(), chat.MarkReadCommand{Room: roomID, UserID: userID}); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.chat.JoinRoom(r.Context(), roomID, userID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID, err := pathRoomID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID, err := callerID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.chat.LeaveRoom(r.Context(), roomID, userID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type notifyRequest struct {
	RecipientID int             `json:"recipientId"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
}

func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	var body notifyRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.notifications.Notify(body.RecipientID, domain.NotificationType(body.Type), body.Payload); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.respond(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) respond(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.log.Warn("response not written", "error", err)
	}
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	var invalid validator.ValidationErrors
	if errors.As(err, &invalid) {
		http.Error(w, invalid.Error(), http.StatusBadRequest)
		return
	}
	status := apperrors.MapToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.log.Error("request failed", "error", err)
	}
	http.Error(w, err.Error(), status)
}

func pathRoomID(r *http.Request) (chat.RoomID, error) {
	raw := mux.Vars(r)["roomId"]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid room id %q", raw)
	}
	return chat.RoomID(id), nil
}

func callerID(r *http.Request) (int, error) {
	raw := r.Header.Get(userIDHeader)
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("missing or invalid %s header", userIDHeader)
	}
	return id, nil
}
