package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pkt.systems/hintx/core"
	"pkt.systems/hintx/internal/logx"
	"pkt.systems/hintx/schema"
)

// Server serves the HTTP API.
type Server struct {
	cfg     Config
	service core.Service
	hub     *Hub
	metrics http.Handler
	mount   mount
}

// NewServer constructs an HTTP server. metrics may be nil to disable /metrics.
func NewServer(cfg Config, service core.Service, hub *Hub, metrics http.Handler) *Server {
	return &Server{
		cfg:     cfg,
		service: service,
		hub:     hub,
		metrics: metrics,
		mount:   newMount(cfg.BaseURL, cfg.BasePath),
	}
}

// Handler returns an http.Handler for the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.Handle("/assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assetsFS))))

	mux.HandleFunc("/api/request", s.handleRequest)
	mux.HandleFunc("/api/tabs/event", s.handleTabEvent)
	mux.HandleFunc("/api/tabs/previous", s.handlePrevious)
	mux.HandleFunc("/api/tabs/recent", s.handleRecent)
	mux.HandleFunc("/api/tabs/state", s.handleState)
	mux.HandleFunc("/api/tabs/focus", s.handleFocus)
	mux.HandleFunc("/api/stream", s.handleStream)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}

	return s.mount.wrap(withRequestLogging(mux))
}

func (s *Server) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sender, err := parseSender(r)
	if err != nil {
		logx.Ctx(r.Context()).Warn("http request sender invalid", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log := logx.WithSender(r.Context(), sender)
	if client := r.Header.Get(schema.HeaderClient); client != "" {
		log = log.With("client", client)
	}
	ctx := logx.ContextWithSenderLogger(r.Context(), log, sender)
	var msg schema.Message
	if err := decodeJSON(r.Body, &msg); err != nil {
		log.Warn("http request decode failed", "err", err)
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: %v", schema.ErrInvalidRequest, err))
		return
	}
	result, err := s.service.Dispatch(ctx, sender, msg)
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, schema.RequestResponse{Result: result})
}

func (s *Server) handleTabEvent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	var req schema.TabEventRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		logx.Ctx(r.Context()).Warn("http tab event decode failed", "err", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	log := logx.WithWindowTab(r.Context(), req.WindowID, req.TabID)
	var err error
	switch req.Type {
	case schema.TabActivated:
		err = s.service.ActivateTab(r.Context(), req.WindowID, req.TabID)
	case schema.TabRemoved:
		err = s.service.RemoveTab(r.Context(), req.WindowID, req.TabID)
	default:
		err = fmt.Errorf("%w: tab event %q", schema.ErrInvalidRequest, req.Type)
	}
	if err != nil {
		log.Warn("http tab event failed", "type", req.Type, "err", err)
		writeError(w, statusForError(err), err)
		return
	}
	log.Debug("http tab event", "type", req.Type)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	windowID, err := parseID(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: window: %v", schema.ErrInvalidWindow, err))
		return
	}
	tabID, err := s.service.PreviousTab(r.Context(), schema.WindowID(windowID))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tab_id": tabID})
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	windowID, err := parseID(r.URL.Query().Get("window"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: window: %v", schema.ErrInvalidWindow, err))
		return
	}
	tabs, err := s.service.RecentTabs(r.Context(), schema.WindowID(windowID))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	if tabs == nil {
		tabs = []schema.TabID{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tabs": tabs})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tabID, err := parseID(r.URL.Query().Get("tab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: tab: %v", schema.ErrInvalidTab, err))
		return
	}
	state, err := s.service.CurrentTabState(r.Context(), schema.TabID(tabID))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleFocus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	tabID, err := parseID(r.URL.Query().Get("tab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: tab: %v", schema.ErrInvalidTab, err))
		return
	}
	frameID, err := s.service.FocusedFrame(r.Context(), schema.TabID(tabID))
	if err != nil {
		writeError(w, statusForError(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"frame_id": frameID})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("stream unsupported"))
		return
	}
	tabValue, err := parseID(r.URL.Query().Get("tab"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("%w: tab: %v", schema.ErrInvalidTab, err))
		return
	}
	tabID := schema.TabID(tabValue)
	log := logx.WithTab(r.Context(), tabID)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	lastID := parseUint(r.Header.Get("Last-Event-ID"))
	ch, unsubscribe, history := s.hub.Subscribe(tabID)
	defer unsubscribe()

	snapshot := StreamEvent{Type: "snapshot", Timestamp: time.Now()}
	if state, err := s.service.CurrentTabState(r.Context(), tabID); err == nil {
		snapshot.State = &state
	}
	_ = writeSSEvent(w, snapshot)

	sent := lastID
	replayCount := 0
	if lastID > 0 {
		for _, event := range history {
			if event.Seq <= lastID {
				continue
			}
			_ = writeSSEvent(w, event)
			sent = event.Seq
			replayCount++
		}
	} else if len(history) > 0 {
		sent = history[len(history)-1].Seq
	}
	flusher.Flush()

	notify := r.Context().Done()
	log.Info("http stream opened", "last_id", lastID, "replay", replayCount)
	for {
		select {
		case <-notify:
			log.Info("http stream closed")
			return
		case event, ok := <-ch:
			if !ok {
				return
			}
			if event.Seq <= sent {
				continue
			}
			_ = writeSSEvent(w, event)
			sent = event.Seq
			flusher.Flush()
		}
	}
}

func parseSender(r *http.Request) (schema.Sender, error) {
	tabID, err := parseID(r.Header.Get(schema.HeaderTab))
	if err != nil {
		return schema.Sender{}, fmt.Errorf("%w: %s: %v", schema.ErrInvalidTab, schema.HeaderTab, err)
	}
	frameID := 0
	if value := r.Header.Get(schema.HeaderFrame); value != "" {
		frameID, err = parseID(value)
		if err != nil {
			return schema.Sender{}, fmt.Errorf("%w: %s: %v", schema.ErrInvalidRequest, schema.HeaderFrame, err)
		}
	}
	return schema.Sender{TabID: schema.TabID(tabID), FrameID: schema.FrameID(frameID)}, nil
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalidRequest),
		errors.Is(err, schema.ErrInvalidTab),
		errors.Is(err, schema.ErrInvalidWindow),
		errors.Is(err, schema.ErrInvalidLabel):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrUnknownAction),
		errors.Is(err, schema.ErrTabNotFound),
		errors.Is(err, schema.ErrNoPreviousTab):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrActionUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(body io.Reader, target any) error {
	decoder := json.NewDecoder(body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{"error": err.Error()})
}

func writeSSEvent(w http.ResponseWriter, event StreamEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if event.Seq > 0 {
		_, _ = fmt.Fprintf(w, "id: %d\n", event.Seq)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", strings.TrimSpace(string(data)))
	return nil
}

func parseUint(value string) uint64 {
	if value == "" {
		return 0
	}
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func parseID(value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, errors.New("missing id")
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	if parsed < 0 {
		return 0, fmt.Errorf("negative id %d", parsed)
	}
	return parsed, nil
}
