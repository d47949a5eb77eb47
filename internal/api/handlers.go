package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edu-arcade/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/vmihailenco/msgpack/v5"
)

// MsgpackContentType selects the binary snapshot encoding
const MsgpackContentType = "application/msgpack"

// maxBodyBytes caps request bodies
const maxBodyBytes = 16 << 10

// StartGameRequest mounts a game into a host container
type StartGameRequest struct {
	ContainerID string  `json:"containerId"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	Mode        string  `json:"mode"`
	Quiz        *bool   `json:"quiz,omitempty"`
	Table       int     `json:"table,omitempty"`
	Seed        int64   `json:"seed,omitempty"`
	Player      string  `json:"player,omitempty"`
}

// StartGameResponse carries the control token and the first frame
type StartGameResponse struct {
	ContainerID string            `json:"containerId"`
	Token       string            `json:"token"`
	Snapshot    game.GameSnapshot `json:"snapshot"`
}

// InputRequest is one player command
type InputRequest struct {
	Command string  `json:"command" msgpack:"command"`
	Lane    int     `json:"lane,omitempty" msgpack:"lane,omitempty"`
	DX      float64 `json:"dx,omitempty" msgpack:"dx,omitempty"`
	DY      float64 `json:"dy,omitempty" msgpack:"dy,omitempty"`
}

// ToCommand converts the request into an engine command
func (r InputRequest) ToCommand() (game.Command, error) {
	kind, err := game.ParseCommandKind(r.Command)
	if err != nil {
		return game.Command{}, err
	}
	return game.Command{Kind: kind, Lane: r.Lane, DX: r.DX, DY: r.DY}, nil
}

// GameSummary is one row of the game list
type GameSummary struct {
	ContainerID string          `json:"containerId"`
	State       string          `json:"state"`
	Created     time.Time       `json:"created"`
	Stats       game.SceneStats `json:"stats"`
}

func (h *routerHandlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"engine":    h.engine.Stats(),
		"clients": h.limits.Clients(),
	})
}

func (h *routerHandlers) board(w http.ResponseWriter, r *http.Request) (*game.Leaderboard, bool) {
	mode, err := game.ParseMode(chi.URLParam(r, "mode"))
	if err != nil {
		writeError(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return h.engine.Leaderboard(mode), true
}

func (h *routerHandlers) handleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	lb, ok := h.board(w, r)
	if !ok {
		return
	}
	limit := queryInt(r, "limit", 10, 100)
	writeJSON(w, map[string]interface{}{
		"players": lb.Len(),
		"top":     lb.Top(limit),
	})
}

func (h *routerHandlers) handleGetPlayerRank(w http.ResponseWriter, r *http.Request) {
	lb, ok := h.board(w, r)
	if !ok {
		return
	}
	player := chi.URLParam(r, "player")
	rank := lb.Rank(player)
	if rank == 0 {
		writeError(w, "player has no ranked round", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{
		"player": player,
		"rank":   rank,
		"around": lb.Around(player, 2, 2),
	})
}

func (h *routerHandlers) handleListGames(w http.ResponseWriter, r *http.Request) {
	sessions := h.engine.Sessions()
	out := make([]GameSummary, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, GameSummary{
			ContainerID: s.ID(),
			State:       s.State().String(),
			Created:     s.Created(),
			Stats:       s.Stats(),
		})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req StartGameRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	opts := game.Options{
		Mode:   game.Mode(strings.ToLower(strings.TrimSpace(req.Mode))),
		Quiz:   req.Quiz,
		Table:  req.Table,
		Seed:   req.Seed,
		Player: req.Player,
	}
	sess, err := h.engine.StartGame(req.ContainerID, game.Dimensions{Width: req.Width, Height: req.Height}, opts)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	w.Header().Set("Location", "/api/games/"+sess.ID())
	writeJSONStatus(w, http.StatusCreated, StartGameResponse{
		ContainerID: sess.ID(),
		Token:       h.tokens.Issue(sess.ID()),
		Snapshot:    sess.Snapshot(),
	})
}

// session resolves {containerID} or writes a 404
func (h *routerHandlers) session(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	sess, err := h.engine.Session(chi.URLParam(r, "containerID"))
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return nil, false
	}
	return sess, true
}

func (h *routerHandlers) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	snap := sess.Snapshot()
	if wantsMsgpack(r) {
		writeMsgpack(w, &snap)
		return
	}
	writeJSON(w, &snap)
}

// handleGetFrame renders the latest snapshot; ?scale=0.5 shrinks it
func (h *routerHandlers) handleGetFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	scale := 1.0
	if v := r.URL.Query().Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 2 {
			writeError(w, "scale must be in (0, 2]", http.StatusBadRequest)
			return
		}
		scale = f
	}

	snap := sess.Snapshot()
	var buf bytes.Buffer
	if err := h.frames.EncodePNG(&buf, &snap, scale); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(buf.Bytes())
}

func (h *routerHandlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "containerID")
	if _, ok := h.session(w, r); !ok {
		return
	}

	events := h.engine.Events().Recent(id, queryInt(r, "limit", 50, 500))
	out := make([]map[string]interface{}, 0, len(events))
	for _, ev := range events {
		out = append(out, map[string]interface{}{
			"sequence":  ev.Sequence,
			"type":      ev.Type.String(),
			"frame":     ev.Frame,
			"timestamp": ev.Timestamp,
			"payload":   json.RawMessage(ev.Payload),
		})
	}
	writeJSON(w, out)
}

func (h *routerHandlers) handleInput(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req InputRequest
	if wantsMsgpackBody(r) {
		if err := msgpack.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
			writeError(w, "Invalid request", http.StatusBadRequest)
			return
		}
	} else if !decodeJSON(w, r, &req) {
		return
	}

	cmd, err := req.ToCommand()
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := sess.Input(cmd); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSONStatus(w, http.StatusAccepted, map[string]bool{"queued": true})
}

func (h *routerHandlers) handleResize(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req game.Dimensions
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := sess.Resize(req.Width, req.Height); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	snap := sess.Snapshot()
	writeJSON(w, &snap)
}

func (h *routerHandlers) handleRestart(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	sess.Restart()
	snap := sess.Snapshot()
	writeJSON(w, &snap)
}

func (h *routerHandlers) handleDestroy(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.Destroy(chi.URLParam(r, "containerID")); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// statusFor maps engine errors to HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrSessionExists):
		return http.StatusConflict
	case errors.Is(err, game.ErrTooManySessions), errors.Is(err, game.ErrEngineClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, game.ErrInputRateLimited), errors.Is(err, game.ErrInputQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, game.ErrSessionStopped):
		return http.StatusGone
	case errors.Is(err, game.ErrInvalidContainer), errors.Is(err, game.ErrInvalidDimensions),
		errors.Is(err, game.ErrUnknownMode), errors.Is(err, game.ErrEmptyQuestionBank):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Helper functions (package-level for reuse)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst); err != nil {
		writeError(w, "Invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, def, max int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n <= 0 {
		return def
	}
	if n > max {
		return max
	}
	return n
}

func wantsMsgpack(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), MsgpackContentType)
}

func wantsMsgpackBody(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), MsgpackContentType)
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeJSONStatus(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(data)
}

func writeMsgpack(w http.ResponseWriter, data interface{}) {
	b, err := msgpack.Marshal(data)
	if err != nil {
		writeError(w, "encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", MsgpackContentType)
	w.Write(b)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
