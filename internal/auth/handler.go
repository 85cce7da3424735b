package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/nextplay/nextplay-auth/internal/apperr"
	"github.com/nextplay/nextplay-auth/internal/identity"
)

// Handler exposes the /auth endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message string           `json:"message"`
	User    identity.Profile `json:"user"`
	Token   string           `json:"token"`
}

type userResponse struct {
	User identity.Profile `json:"user"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	sess, err := h.svc.Register(c.UserContext(), RegisterInput{Username: req.Username, Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(sessionResponse{Message: "user registered successfully", User: sess.User, Token: sess.Token})
}

// Login handles POST /auth/login.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	sess, err := h.svc.Login(c.UserContext(), LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(sessionResponse{Message: "login successful", User: sess.User, Token: sess.Token})
}

// Me handles GET /auth/me. It must sit behind middleware.RequireAuth.
func (h *Handler) Me(c *fiber.Ctx) error {
	uid, ok := UserIDFrom(c.UserContext())
	if !ok {
		return apperr.Auth(TokenMissing.String())
	}
	user, err := h.svc.CurrentUser(c.UserContext(), uid)
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(userResponse{User: user})
}
