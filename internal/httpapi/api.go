package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/clubhub/wifimon/internal/model"
	"github.com/clubhub/wifimon/internal/roster"
	"github.com/clubhub/wifimon/internal/schedule"
	"github.com/clubhub/wifimon/internal/service"
)

// API is the admin surface: member registration, monitor status and the
// cycle-event stream. The dashboard frontend consuming it lives in a
// separate repository.
type API struct {
	monitor   *service.Monitor
	roster    *roster.Store
	scheduler *schedule.Scheduler
	hub       *Hub
	logger    *slog.Logger
}

func New(monitor *service.Monitor, rosterStore *roster.Store, scheduler *schedule.Scheduler, hub *Hub, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{monitor: monitor, roster: rosterStore, scheduler: scheduler, hub: hub, logger: logger}
}

// Logger implements the middleware LogProvider hook.
func (a *API) Logger() *slog.Logger {
	return a.logger
}

func (a *API) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "members": a.roster.Len()})
}

func (a *API) listMembers(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"items": a.roster.Members()})
}

type memberPayload struct {
	StudentID string `json:"student_id"`
	Name      string `json:"name"`
	MAC       string `json:"mac"`
}

// registerMember accepts MACs in either colon- or dash-separated form; the
// roster normalizes at the boundary so both collide onto the same entry.
func (a *API) registerMember(w http.ResponseWriter, r *http.Request) {
	var payload memberPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_payload", "Invalid JSON payload")
		return
	}
	if strings.TrimSpace(payload.StudentID) == "" || strings.TrimSpace(payload.Name) == "" {
		writeError(w, http.StatusBadRequest, "missing_fields", "student_id and name are required")
		return
	}

	member, err := a.roster.Upsert(model.Member{
		StudentID: strings.TrimSpace(payload.StudentID),
		Name:      strings.TrimSpace(payload.Name),
		MAC:       payload.MAC,
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_mac", err.Error())
		return
	}
	if err := a.roster.Save(); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	a.logger.Info("member registered", "student_id", member.StudentID, "mac", member.MAC)
	writeJSON(w, http.StatusCreated, member)
}

func (a *API) deleteMember(w http.ResponseWriter, r *http.Request) {
	removed, err := a.roster.Delete(chi.URLParam(r, "mac"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_mac", err.Error())
		return
	}
	if !removed {
		writeError(w, http.StatusNotFound, "not_found", "Member not found")
		return
	}
	if err := a.roster.Save(); err != nil {
		writeError(w, http.StatusInternalServerError, "save_failed", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (a *API) status(w http.ResponseWriter, _ *http.Request) {
	summary, ok := a.monitor.LastSummary()
	if !ok {
		writeJSON(w, http.StatusOK, map[string]any{"ran": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ran": true, "last_cycle": summary})
}

func (a *API) refresh(w http.ResponseWriter, _ *http.Request) {
	a.scheduler.TriggerRefresh()
	writeJSON(w, http.StatusAccepted, map[string]any{"ok": true})
}

func (a *API) events(w http.ResponseWriter, r *http.Request) {
	if a.hub == nil {
		writeError(w, http.StatusNotFound, "events_disabled", "Event stream not enabled")
		return
	}
	if err := a.hub.Subscribe(w, r); err != nil {
		a.logger.Debug("websocket subscriber dropped", "err", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	})
}
