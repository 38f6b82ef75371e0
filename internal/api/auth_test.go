package api

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTicketStore_SingleUse(t *testing.T) {
	ts := newTicketStore()

	ticket, _ := ts.issue("admin")

	subject, ok := ts.redeem(ticket)
	if !ok || subject != "admin" {
		t.Fatalf("redeem() = (%q, %v), want (admin, true)", subject, ok)
	}

	if _, ok := ts.redeem(ticket); ok {
		t.Errorf("second redeem of the same ticket succeeded")
	}
}

func TestTicketStore_Unknown(t *testing.T) {
	ts := newTicketStore()
	if _, ok := ts.redeem("never-issued"); ok {
		t.Errorf("redeem of unknown ticket succeeded")
	}
}

func TestTicketStore_Expired(t *testing.T) {
	ts := newTicketStore()
	ticket, _ := ts.issue("admin")

	ts.mu.Lock()
	entry := ts.tickets[ticket]
	entry.expiresAt = time.Now().Add(-time.Second)
	ts.tickets[ticket] = entry
	ts.mu.Unlock()

	if _, ok := ts.redeem(ticket); ok {
		t.Errorf("redeem of expired ticket succeeded")
	}
}

func TestTicketStore_CleanDropsExpired(t *testing.T) {
	ts := newTicketStore()
	expired, _ := ts.issue("a")
	live, _ := ts.issue("b")

	ts.mu.Lock()
	entry := ts.tickets[expired]
	entry.expiresAt = time.Now().Add(-time.Second)
	ts.tickets[expired] = entry
	ts.mu.Unlock()

	ts.clean()

	ts.mu.Lock()
	_, hasExpired := ts.tickets[expired]
	_, hasLive := ts.tickets[live]
	ts.mu.Unlock()

	if hasExpired {
		t.Errorf("clean left expired ticket in store")
	}
	if !hasLive {
		t.Errorf("clean removed a live ticket")
	}
}

func TestValidateToken_Expired(t *testing.T) {
	srv := newTestServer(t).srv

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := srv.validateToken(signed); err == nil {
		t.Errorf("validateToken accepted an expired token")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	srv := newTestServer(t).srv

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte("another-secret-another-secret-xx"))
	if err != nil {
		t.Fatalf("signing token: %v", err)
	}

	if _, err := srv.validateToken(signed); err == nil {
		t.Errorf("validateToken accepted a token signed with the wrong secret")
	}
}
