package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ccournoyer/firesale-backend/internal/auth"
	"github.com/ccournoyer/firesale-backend/internal/domain"
	"github.com/ccournoyer/firesale-backend/internal/logging"
	"github.com/ccournoyer/firesale-backend/internal/service"
)

type AuthHandler struct {
	accounts  *service.AccountService
	jwtSecret string
	jwtExpiry time.Duration
}

func NewAuthHandler(accounts *service.AccountService, jwtSecret string, jwtExpiry time.Duration) *AuthHandler {
	return &AuthHandler{accounts: accounts, jwtSecret: jwtSecret, jwtExpiry: jwtExpiry}
}

type signupRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	StoreName string `json:"store_name"`
	Address   string `json:"address"`
}

func (req *signupRequest) validate() (string, bool) {
	if !strings.Contains(req.Email, "@") {
		return "a valid email is required", false
	}
	if len(req.Password) < 8 {
		return "password must be at least 8 characters", false
	}
	role := domain.Role(req.Role)
	if role != domain.RoleBuyer && role != domain.RoleSeller {
		return "role must be buyer or seller", false
	}
	if role == domain.RoleSeller && req.StoreName == "" {
		return "store_name is required for sellers", false
	}
	return "", true
}

type accountResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Role      string  `json:"role"`
	StoreName *string `json:"store_name,omitempty"`
	Address   *string `json:"address,omitempty"`
	Balance   string  `json:"balance"`
	CreatedAt string  `json:"created_at"`
}

func toAccountResponse(a *domain.Account) accountResponse {
	return accountResponse{
		ID:        a.ID.String(),
		Email:     a.Email,
		Role:      string(a.Role),
		StoreName: a.StoreName,
		Address:   a.Address,
		Balance:   a.Balance.String(),
		CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req signupRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if msg, ok := req.validate(); !ok {
		RespondValidationError(w, msg)
		return
	}

	account, err := h.accounts.Signup(r.Context(), service.SignupInput{
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Password:  req.Password,
		Role:      domain.Role(req.Role),
		StoreName: req.StoreName,
		Address:   req.Address,
	})
	if err != nil {
		if !errors.Is(err, domain.ErrEmailTaken) {
			log.Error("signup failed", "error", err)
		}
		RespondDomainError(w, err)
		return
	}

	token, err := auth.GenerateToken(account.ID, account.Email, account.Role, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		log.Error("token generation failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusCreated, map[string]any{
		"account": toAccountResponse(account),
		"token":   token,
	})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var req loginRequest
	if err := DecodeJSON(r, &req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	account, err := h.accounts.Authenticate(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			RespondAppError(w, ErrInvalidCredentials, nil)
			return
		}
		log.Error("login failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	token, err := auth.GenerateToken(account.ID, account.Email, account.Role, h.jwtSecret, h.jwtExpiry)
	if err != nil {
		log.Error("token generation failed", "error", err)
		RespondAppError(w, ErrInternalError, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"account": toAccountResponse(account),
		"token":   token,
	})
}
