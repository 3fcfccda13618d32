package transport

import (
	"net/http"
	"time"

	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/middleware"
	"handcrafted-haven/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RegisterRequest represents the signup form
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Username string `json:"username" validate:"required,min=3,max=50,alphanum"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=user seller"`
}

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest carries a refresh token for refresh and logout
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	ExpiresIn    int64       `json:"expiresIn"`
	User         UserProfile `json:"user"`
}

// RefreshResponse represents the token refresh response
type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

// UserProfile is the public view of an account
type UserProfile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func newUserProfile(user *domain.User) UserProfile {
	return UserProfile{
		ID:        user.ID,
		Name:      user.Name,
		Username:  user.Username,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	}
}

// UserHandler handles HTTP requests for accounts and sessions
type UserHandler struct {
	userService service.UserService
	logger      *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userService service.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger,
	}
}

// RegisterRoutes registers all user routes
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.RefreshToken)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/logout", h.Logout)
			r.Get("/profile", h.GetProfile)
		})
	})
}

// Register handles user registration
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Registration validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	user, err := h.userService.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Registration", err)
		return
	}

	h.logger.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("role", user.Role),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, newUserProfile(user))
}

// Login handles user authentication
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		h.logger.Debug("Login validation failed", zap.Error(err))
		respondWithDecodeError(w, err)
		return
	}

	tokens, user, err := h.userService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.logger, "Login", err)
		return
	}

	h.logger.Info("User logged in successfully", zap.String("user_id", user.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		ExpiresIn:    tokens.ExpiresIn,
		User:         newUserProfile(user),
	})
}

// Logout revokes the posted refresh token
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	if err := h.userService.Logout(r.Context(), req.RefreshToken); err != nil {
		respondWithServiceError(w, h.logger, "Logout", err)
		return
	}

	h.logger.Info("User logged out successfully",
		zap.String("user_id", middleware.IdentityFromContext(r.Context()).UserID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "logged out successfully"})
}

// RefreshToken handles token refresh
func (h *UserHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	newAccessToken, err := h.userService.RefreshToken(r.Context(), req.RefreshToken)
	if err != nil {
		respondWithServiceError(w, h.logger, "Token refresh", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, RefreshResponse{AccessToken: newAccessToken})
}

// GetProfile returns the caller's own account
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.userService.GetUserByID(r.Context(), identity.UserID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get profile", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, newUserProfile(user))
}
