package delivery

import (
	"net/http"
	"strconv"

	"bamazon/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type ProductHandler struct {
	catalog  usecase.CatalogUseCase
	purchase usecase.PurchaseUseCase
	log      *logrus.Logger
}

func NewProductHandler(catalog usecase.CatalogUseCase, purchase usecase.PurchaseUseCase, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		purchase: purchase,
		log:      logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProductByID)
		products.POST("/:id/purchase", h.Purchase)
	}
}

func parseProductID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.catalog.ListProducts(c.Request.Context())
	if err != nil {
		h.log.Errorf("HTTP Handler: Failed to list products: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to list products: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", products)
}

func (h *ProductHandler) GetProductByID(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		h.log.Warnf("HTTP Handler: Invalid product ID parameter: %s", c.Param("id"))
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.log.Warnf("HTTP Handler: Failed to get product by ID %d: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to retrieve product: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Product retrieved successfully", product)
}

type purchaseRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

func (h *ProductHandler) Purchase(c *gin.Context) {
	id, ok := parseProductID(c)
	if !ok {
		h.log.Warnf("HTTP Handler: Invalid product ID parameter for purchase: %s", c.Param("id"))
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return
	}

	var req purchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("HTTP Handler: Failed to bind JSON for purchase of product %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := h.purchase.Purchase(c.Request.Context(), id, *req.Quantity)
	if err != nil {
		h.log.Warnf("HTTP Handler: Purchase of product %d rejected: %v", id, err)
		ErrorResponse(c, mapErrorToStatus(err), err.Error())
		return
	}

	statusCode := purchaseStatusCode(outcome)
	if !outcome.Succeeded() {
		h.log.WithFields(logrus.Fields{
			"product_id": id,
			"quantity":   *req.Quantity,
			"outcome":    outcome.Status,
		}).Warn("HTTP Handler: Purchase not completed")
		FailResponse(c, statusCode, outcome.Message(), outcome)
		return
	}
	SuccessResponse(c, statusCode, outcome.Message(), outcome)
}
