package delivery

import (
	"net/http"

	"bamazon/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func NewRouter(catalog usecase.CatalogUseCase, purchase usecase.PurchaseUseCase, department usecase.DepartmentUseCase, logger *logrus.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		if err := catalog.Healthy(c.Request.Context()); err != nil {
			logger.Errorf("HTTP Handler: Health check failed: %v", err)
			ErrorResponse(c, http.StatusServiceUnavailable, "Catalog store unavailable")
			return
		}
		SuccessResponse(c, http.StatusOK, "ok", nil)
	})

	NewProductHandler(catalog, purchase, logger).RegisterRoutes(router)
	NewDepartmentHandler(department, logger).RegisterRoutes(router)

	return router
}
