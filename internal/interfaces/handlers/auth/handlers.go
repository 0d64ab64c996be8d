package auth

import (
	"context"
	"errors"

	authsvc "clientbook-backend/internal/application/auth"
	"clientbook-backend/internal/middleware"
	"clientbook-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Handlers holds dependencies for the passcode gate endpoints.
type Handlers struct {
	Gate   authsvc.Unlocker
	Rdb    *redis.Client
	Config middleware.SessionConfig
}

// UnlockRequest body. Actor is the name mutations are recorded under.
type UnlockRequest struct {
	Passcode string `json:"passcode"`
	Actor    string `json:"actor"`
}

// Unlock POST /api/v1/auth/unlock: check passcode, start a session, set cookie.
func (h *Handlers) Unlock(c *fiber.Ctx) error {
	if h.Gate == nil {
		return response.Internal(c)
	}
	var req UnlockRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, authsvc.ErrPasscodeRequired.Error())
	}

	id, err := h.Gate.Unlock(req.Passcode, req.Actor)
	if err != nil {
		switch {
		case errors.Is(err, authsvc.ErrPasscodeRequired), errors.Is(err, authsvc.ErrInvalidActor):
			return response.BadRequest(c, err.Error())
		case errors.Is(err, authsvc.ErrIncorrectPasscode):
			log.Warn().Str("actor", req.Actor).Str("ip", c.IP()).Msg("Unlock rejected")
			return response.Unauthorized(c, err.Error())
		case errors.Is(err, authsvc.ErrGateNotConfigured):
			return response.Error(c, err.Error(), fiber.StatusServiceUnavailable, nil)
		default:
			return response.Internal(c)
		}
	}

	// Drop the previous session, if any, before issuing a new id.
	if old := middleware.GetSessionID(c); old != "" && h.Rdb != nil {
		_ = h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+old).Err()
	}
	sessionID := middleware.RegenerateSessionID(c)
	middleware.SetSessionUser(c, middleware.SessionUser{
		Actor:      id.Actor,
		Role:       id.Role,
		UnlockedAt: id.UnlockedAt,
	})

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = "s:" + sessionID
	c.Cookie(&cookie)

	log.Info().Str("actor", id.Actor).Str("role", id.Role).Msg("Unlocked")
	return response.Success(c, "Unlocked", fiber.Map{"user": id}, nil)
}

// Me GET /api/v1/auth/me: current unlocked identity.
func (h *Handlers) Me(c *fiber.Ctx) error {
	user, err := authsvc.VerifyUser(middleware.GetUser(c))
	if err != nil {
		return response.Unauthorized(c, "Not authenticated")
	}
	return response.Success(c, "Authenticated", fiber.Map{"user": user}, nil)
}

// Lock DELETE /api/v1/auth/lock: end the session and clear the cookie.
func (h *Handlers) Lock(c *fiber.Ctx) error {
	sessionID := middleware.GetSessionID(c)
	if sessionID != "" && h.Rdb != nil {
		_ = h.Rdb.Del(context.Background(), middleware.SessionRedisPrefix+sessionID).Err()
	}
	middleware.DestroySession(c)

	cookie := middleware.SessionCookieConfig(h.Config)
	cookie.Value = ""
	cookie.MaxAge = -1
	c.Cookie(&cookie)

	return response.Success(c, "Locked", nil, nil)
}
