package api

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// GameTokenHeader carries the control token of a mounted game
const GameTokenHeader = "X-Game-Token"

// GameTokens signs per-container control tokens. Whoever mounts a game gets a
// token back; input, resize, restart and destroy require it. Reads stay open.
type GameTokens struct {
	secretKey []byte
}

// NewGameTokens creates a signer. An empty secret generates a random one, so
// tokens do not survive a restart.
func NewGameTokens(secret string) *GameTokens {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			log.Printf("⚠️ Failed to generate token secret: %v", err)
			key = []byte("edu-arcade-fallback-token-secret")
		}
	}
	return &GameTokens{secretKey: key}
}

// Issue returns the token for a container
func (gt *GameTokens) Issue(containerID string) string {
	mac := hmac.New(sha256.New, gt.secretKey)
	mac.Write([]byte(containerID))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Verify checks a token in constant time
func (gt *GameTokens) Verify(containerID, token string) bool {
	if token == "" {
		return false
	}
	return hmac.Equal([]byte(token), []byte(gt.Issue(containerID)))
}

// tokenFrom reads the token from the header, a bearer credential or the query
func tokenFrom(r *http.Request) string {
	if t := r.Header.Get(GameTokenHeader); t != "" {
		return t
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// RequireGameToken rejects requests whose token does not match the
// {containerID} route parameter
func (gt *GameTokens) RequireGameToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "containerID")
		if !gt.Verify(id, tokenFrom(r)) {
			RecordConnectionRejected("token")
			writeError(w, "missing or invalid game token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}
