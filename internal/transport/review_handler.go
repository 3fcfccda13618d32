package transport

import (
	"net/http"

	"handcrafted-haven/internal/middleware"
	"handcrafted-haven/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateReviewRequest is the body of POST /api/reviews
type CreateReviewRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Rating    int    `json:"rating" validate:"required,gte=1,lte=5"`
	Title     string `json:"title" validate:"required,max=120"`
	Comment   string `json:"comment" validate:"required,max=2000"`
}

// ReviewHandler handles HTTP requests for product reviews
type ReviewHandler struct {
	reviewService service.ReviewService
	logger        *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviewService service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger,
	}
}

// RegisterRoutes registers the review routes. Listing is public.
func (h *ReviewHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/reviews", func(r chi.Router) {
		r.Get("/", h.ListReviews)
		r.With(authMiddleware).Post("/", h.CreateReview)
	})
}

// ListReviews returns the reviews of ?productId= newest first
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("productId")
	if raw == "" {
		middleware.RespondWithError(w, http.StatusBadRequest, "productId is required")
		return
	}

	productID, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid productId")
		return
	}

	reviews, err := h.reviewService.List(r.Context(), productID)
	if err != nil {
		respondWithServiceError(w, h.logger, "List reviews", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}

// CreateReview stores a review by the caller and answers 201
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	if !identity.Authenticated() {
		middleware.RespondWithError(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateReviewRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	review, err := h.reviewService.Create(r.Context(), identity, service.CreateReviewInput{
		ProductID: uuid.MustParse(req.ProductID),
		Rating:    req.Rating,
		Title:     req.Title,
		Comment:   req.Comment,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Create review", err)
		return
	}

	h.logger.Info("Review submitted",
		zap.String("review_id", review.ID.String()),
		zap.String("user_id", identity.UserID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, review)
}
