package transport

import (
	"net/http"

	"handcrafted-haven/internal/domain"
	"handcrafted-haven/internal/middleware"
	"handcrafted-haven/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CreateProductRequest is the body of POST /api/products
type CreateProductRequest struct {
	Title         string          `json:"title" validate:"required,max=200"`
	Description   string          `json:"description" validate:"required,max=5000"`
	Price         decimal.Decimal `json:"price"`
	Category      string          `json:"category" validate:"required,oneof=art textiles jewelry home accessories"`
	Image         string          `json:"image" validate:"required,url"`
	StockQuantity *int            `json:"stockQuantity" validate:"omitempty,gte=0"`
	Tags          []string        `json:"tags" validate:"max=20,dive,max=40"`
}

// ProductHandler handles HTTP requests for the catalogue
type ProductHandler struct {
	productService service.ProductService
	logger         *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalogue routes; only sellers and admins list products
func (h *ProductHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Use(middleware.RequireRole(h.logger, domain.RoleSeller, domain.RoleAdmin))
			r.Post("/", h.CreateProduct)
		})
	})
}

// ListProducts supports ?category=, ?search= and ?seller=
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	products, err := h.productService.List(r.Context(), domain.ProductFilter{
		Category:       domain.Category(query.Get("category")),
		Search:         query.Get("search"),
		SellerUsername: query.Get("seller"),
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "List products", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		return
	}

	product, err := h.productService.Get(r.Context(), id)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get product", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := middleware.DecodeAndValidate(w, r, &req); err != nil {
		respondWithDecodeError(w, err)
		return
	}

	identity := middleware.IdentityFromContext(r.Context())
	product, err := h.productService.Create(r.Context(), identity, service.CreateProductInput{
		Title:         req.Title,
		Description:   req.Description,
		Price:         req.Price,
		Category:      domain.Category(req.Category),
		ImageURL:      req.Image,
		StockQuantity: req.StockQuantity,
		Tags:          req.Tags,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Create product", err)
		return
	}

	h.logger.Info("Product listed",
		zap.String("product_id", product.ID.String()),
		zap.String("seller_id", identity.UserID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}
