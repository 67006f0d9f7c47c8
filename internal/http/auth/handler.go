package auth

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MrJamesThe3rd/fintrack/internal/auth"
	"github.com/MrJamesThe3rd/fintrack/internal/errs"
	"github.com/MrJamesThe3rd/fintrack/internal/http/request"
	"github.com/MrJamesThe3rd/fintrack/internal/http/respond"
	"github.com/MrJamesThe3rd/fintrack/internal/user"
)

type Handler struct {
	authSvc *auth.Service
	userSvc *user.Service
}

func NewHandler(authSvc *auth.Service, userSvc *user.Service) *Handler {
	return &Handler{authSvc: authSvc, userSvc: userSvc}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/token", h.token)
	r.Post("/register", h.register)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (h *Handler) token(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		respond.Error(w, r, errs.Invalid("failed to parse form: %v", err))
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")

	if username == "" || password == "" {
		respond.Error(w, r, errs.Invalid("username and password are required"))
		return
	}

	token, err := h.authSvc.Login(r.Context(), username, password)
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int64(h.authSvc.TokenTTL() / time.Second),
	})
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	IsLocked  bool      `json:"is_locked"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := request.DecodeJSON(w, r, &req); err != nil {
		respond.Error(w, r, err)
		return
	}

	u, err := h.userSvc.Register(r.Context(), user.RegisterParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respond.Error(w, r, err)
		return
	}

	respond.JSON(w, http.StatusCreated, userResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		IsLocked:  u.IsLocked,
		CreatedAt: u.CreatedAt,
	})
}
