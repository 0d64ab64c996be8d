package auth

import (
	"strings"
	"time"

	"clientbook-backend/internal/pkg/constants"
	"clientbook-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

// Identity is the object stored in session and returned by /me. Actor is the
// name every mutation is recorded under.
type Identity struct {
	Actor      string    `json:"actor"`
	Role       string    `json:"role"`
	UnlockedAt time.Time `json:"unlocked_at"`
}

// Unlocker verifies a passcode (for production bcrypt hashes or test doubles).
type Unlocker interface {
	Unlock(passcode, actor string) (*Identity, error)
}

// Gate checks a shared passcode against bcrypt hashes from config. The admin
// hash is tried first; the viewer hash unlocks read-only access.
type Gate struct {
	AdminHash  string
	ViewerHash string
	Now        func() time.Time
}

func (g *Gate) Unlock(passcode, actor string) (*Identity, error) {
	actor = strings.TrimSpace(actor)
	if passcode == "" || actor == "" {
		return nil, ErrPasscodeRequired
	}
	if !validation.IsValidActor(actor) {
		return nil, ErrInvalidActor
	}
	if g.AdminHash == "" && g.ViewerHash == "" {
		return nil, ErrGateNotConfigured
	}
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	for _, candidate := range []struct{ hash, role string }{
		{g.AdminHash, constants.Admin},
		{g.ViewerHash, constants.Viewer},
	} {
		if candidate.hash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(candidate.hash), []byte(passcode)) == nil {
			return &Identity{Actor: actor, Role: candidate.role, UnlockedAt: now().UTC()}, nil
		}
	}
	return nil, ErrIncorrectPasscode
}

// HashPasscode produces a value for PASSCODE_HASH / VIEWER_PASSCODE_HASH.
func HashPasscode(passcode string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyUser validates the session user and returns the shape for /me.
func VerifyUser(sessionUser interface{}) (*Identity, error) {
	if sessionUser == nil {
		return nil, ErrNotAuthenticated
	}
	m, ok := sessionUser.(map[string]interface{})
	if !ok {
		return nil, ErrNotAuthenticated
	}
	actor, _ := m["actor"].(string)
	role, _ := m["role"].(string)
	if actor == "" || !constants.IsValidRole(role) {
		return nil, ErrNotAuthenticated
	}
	out := &Identity{Actor: actor, Role: role}
	if s, ok := m["unlocked_at"].(string); ok {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			out.UnlockedAt = t
		}
	}
	return out, nil
}
