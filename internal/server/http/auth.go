package http

import (
	"errors"
	"strings"
	"time"

	"chessworker/internal/server/core"
	"chessworker/internal/server/service"
	"chessworker/internal/server/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// RegisterRequest creates an account. Games started with the returned token
// are recorded under the account.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,username"`
	Email    string `json:"email" validate:"omitempty,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128,password"`
}

type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required,max=255"` // username or email
	Password   string `json:"password" validate:"required,max=128"`
}

type AuthResponse struct {
	Token     string    `json:"token"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// AccountResponse describes the caller and the games recorded for them
type AccountResponse struct {
	UserID    string        `json:"userId"`
	Username  string        `json:"username"`
	Email     string        `json:"email,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
	Games     []GameSummary `json:"games"`
}

// GameSummary is one recorded game: the human's side and the depth the
// computer searched at when it started
type GameSummary struct {
	GameID      string    `json:"gameId"`
	PlayerColor string    `json:"playerColor"`
	Depth       int       `json:"depth"`
	StartedAt   time.Time `json:"startedAt"`
}

// Register creates an account and signs it in
func (h *HTTPHandler) Register(c *fiber.Ctx) error {
	req, err := validatedBody[RegisterRequest](c)
	if err != nil {
		return err
	}

	user, err := h.svc.CreateUser(strings.ToLower(req.Username), strings.ToLower(req.Email), req.Password)
	if err != nil {
		return accountError(c, err, "username or email already taken")
	}
	return h.signIn(c, user, fiber.StatusCreated)
}

// Login exchanges a username or email and password for a token
func (h *HTTPHandler) Login(c *fiber.Ctx) error {
	req, err := validatedBody[LoginRequest](c)
	if err != nil {
		return err
	}

	user, err := h.svc.AuthenticateUser(strings.ToLower(req.Identifier), req.Password)
	if err != nil {
		return accountError(c, err, "")
	}

	if err := h.svc.UpdateLastLogin(user.UserID); err != nil {
		log.Warn().Err(err).Str("user", user.UserID).Msg("Last login update failed")
	}
	return h.signIn(c, user, fiber.StatusOK)
}

// Account returns the authenticated user with their recorded games
func (h *HTTPHandler) Account(c *fiber.Ctx) error {
	userID, _ := c.Locals("userID").(string)

	user, err := h.svc.GetUserByID(userID)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(core.ErrorResponse{
			Error: "user not found",
			Code:  core.ErrInvalidRequest,
		})
	}

	records, err := h.svc.UserGames(userID)
	if err != nil {
		return accountError(c, err, "")
	}

	games := make([]GameSummary, 0, len(records))
	for _, r := range records {
		games = append(games, GameSummary{
			GameID:      r.GameID,
			PlayerColor: r.PlayerColor,
			Depth:       r.SearchDepth,
			StartedAt:   r.StartTimeUTC,
		})
	}

	return c.JSON(AccountResponse{
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
		Games:     games,
	})
}

func (h *HTTPHandler) signIn(c *fiber.Ctx, user *service.User, status int) error {
	token, err := h.svc.GenerateUserToken(user.UserID)
	if err != nil {
		log.Error().Err(err).Str("user", user.UserID).Msg("Token generation failed")
		return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
			Error: "failed to generate token",
			Code:  core.ErrInternalError,
		})
	}

	return c.Status(status).JSON(AuthResponse{
		Token:     token,
		UserID:    user.UserID,
		Username:  user.Username,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(service.TokenTTL),
	})
}

// accountError maps account service errors onto responses. Unknown users and
// wrong passwords share one answer.
func accountError(c *fiber.Ctx, err error, conflict string) error {
	switch {
	case errors.Is(err, service.ErrStorageDisabled):
		return c.Status(fiber.StatusServiceUnavailable).JSON(core.ErrorResponse{
			Error:   "user accounts unavailable",
			Code:    core.ErrInternalError,
			Details: "server runs without storage",
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(core.ErrorResponse{
			Error: "invalid credentials",
			Code:  core.ErrUnauthorized,
		})
	case errors.Is(err, storage.ErrUserExists):
		return c.Status(fiber.StatusConflict).JSON(core.ErrorResponse{
			Error:   "user already exists",
			Code:    core.ErrInvalidRequest,
			Details: conflict,
		})
	}

	log.Error().Err(err).Msg("Account request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(core.ErrorResponse{
		Error: "account request failed",
		Code:  core.ErrInternalError,
	})
}
