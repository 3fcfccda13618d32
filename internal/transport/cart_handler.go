package transport

import (
	"net/http"

	"handcrafted-haven/internal/middleware"
	"handcrafted-haven/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AddToCartRequest is the body of POST /api/cart. Quantity defaults to 1.
type AddToCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"omitempty,gte=1"`
}

// UpdateCartRequest is the body of PUT /api/cart
type UpdateCartRequest struct {
	ProductID string `json:"productId" validate:"required,uuid"`
	Quantity  *int   `json:"quantity" validate:"required,gte=0"`
}

// CartHandler handles HTTP requests for the caller's cart
type CartHandler struct {
	cartService service.CartService
	logger      *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(cartService service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		logger:      logger,
	}
}

// RegisterRoutes registers the cart routes; all of them require a token
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/", h.AddItem)
		r.Put("/", h.UpdateItem)
		r.Delete("/", h.RemoveItem)
	})
}

// GetCart returns the caller's cart with product details
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	cart, err := h.cartService.GetCart(r.Context(), middleware.IdentityFromContext(r.Context()))
	if err != nil {
		respondWithServiceError(w, h.logger, "Get cart", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// AddItem answers 201 when a new line is created and 200 when merged
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddToCartRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	cart, merged, err := h.cartService.AddItem(r.Context(), middleware.IdentityFromContext(r.Context()), uuid.MustParse(req.ProductID), quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Add to cart", err)
		return
	}

	status := http.StatusCreated
	if merged {
		status = http.StatusOK
	}
	middleware.RespondWithJSON(w, status, cart)
}

// UpdateItem sets a line quantity; zero removes the line
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req UpdateCartRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	cart, err := h.cartService.SetQuantity(r.Context(), middleware.IdentityFromContext(r.Context()), uuid.MustParse(req.ProductID), *req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Update cart", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}

// RemoveItem drops one line when productId is given, otherwise clears the cart
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFromContext(r.Context())
	raw := r.URL.Query().Get("productId")

	if raw == "" {
		cart, err := h.cartService.Clear(r.Context(), identity)
		if err != nil {
			respondWithServiceError(w, h.logger, "Clear cart", err)
			return
		}
		middleware.RespondWithJSON(w, http.StatusOK, cart)
		return
	}

	productID, err := uuid.Parse(raw)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid productId")
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), identity, productID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Remove from cart", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, cart)
}
