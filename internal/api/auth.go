package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// loginRequest is the login endpoint payload.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse carries the issued access token.
type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleLogin authenticates the admin credentials and issues a JWT.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	if !s.checkCredentials(req.Username, req.Password) {
		// Log the attempt but do not reveal which part failed
		s.logger.Warn("failed login attempt", "username", req.Username, "remote", r.RemoteAddr)
		writeUnauthorized(w, "invalid credentials")
		return
	}

	ttl := time.Duration(s.secCfg.JWT.AccessTokenTTL) * time.Minute
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	expiresAt := time.Now().Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": req.Username,
		"iat": time.Now().Unix(),
		"exp": expiresAt.Unix(),
	})
	signed, err := token.SignedString([]byte(s.secCfg.JWT.Secret))
	if err != nil {
		s.logger.Error("signing access token", "error", err)
		writeInternalError(w, "token generation failed")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     signed,
		ExpiresAt: expiresAt,
	})
}

// checkCredentials compares the supplied credentials against the configured
// admin account in constant time.
func (s *Server) checkCredentials(username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.secCfg.Admin.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(s.secCfg.Admin.Password)) == 1
	return userOK && passOK
}

// wsTicketResponse carries a single-use WebSocket ticket.
type wsTicketResponse struct {
	Ticket    string    `json:"ticket"`
	ExpiresAt time.Time `json:"expires_at"`
}

// handleWSTicket issues a short-lived single-use ticket for WebSocket
// upgrades. Browsers cannot set an Authorization header on a WebSocket
// handshake, so the client authenticates here first and presents the
// ticket as a query parameter.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	subject, _ := r.Context().Value(ctxKeySubject).(string)

	ticket, expiresAt := s.tickets.issue(subject)
	writeJSON(w, http.StatusOK, wsTicketResponse{
		Ticket:    ticket,
		ExpiresAt: expiresAt,
	})
}

// ticketTTL is how long an issued WebSocket ticket remains redeemable.
const ticketTTL = 30 * time.Second

// ticketStore holds pending single-use WebSocket tickets.
type ticketStore struct {
	mu      sync.Mutex
	tickets map[string]ticketEntry
}

type ticketEntry struct {
	subject   string
	expiresAt time.Time
}

func newTicketStore() *ticketStore {
	return &ticketStore{
		tickets: make(map[string]ticketEntry),
	}
}

// issue creates a new ticket for the given subject.
func (ts *ticketStore) issue(subject string) (string, time.Time) {
	ticket := uuid.NewString()
	expiresAt := time.Now().Add(ticketTTL)

	ts.mu.Lock()
	ts.tickets[ticket] = ticketEntry{subject: subject, expiresAt: expiresAt}
	ts.mu.Unlock()

	return ticket, expiresAt
}

// redeem consumes a ticket. A ticket validates at most once; a second
// redemption of the same ticket fails.
func (ts *ticketStore) redeem(ticket string) (string, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	entry, ok := ts.tickets[ticket]
	if !ok {
		return "", false
	}
	delete(ts.tickets, ticket)

	if time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.subject, true
}

// cleanLoop periodically drops expired tickets that were never redeemed.
func (ts *ticketStore) cleanLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ts.clean()
		}
	}
}

func (ts *ticketStore) clean() {
	now := time.Now()
	ts.mu.Lock()
	for ticket, entry := range ts.tickets {
		if now.After(entry.expiresAt) {
			delete(ts.tickets, ticket)
		}
	}
	ts.mu.Unlock()
}
