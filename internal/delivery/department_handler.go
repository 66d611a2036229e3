package delivery

import (
	"net/http"

	"bamazon/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type DepartmentHandler struct {
	useCase usecase.DepartmentUseCase
	log     *logrus.Logger
}

func NewDepartmentHandler(uc usecase.DepartmentUseCase, logger *logrus.Logger) *DepartmentHandler {
	return &DepartmentHandler{
		useCase: uc,
		log:     logger,
	}
}

func (h *DepartmentHandler) RegisterRoutes(router gin.IRouter) {
	departments := router.Group("/departments")
	{
		departments.GET("", h.ListDepartments)
		departments.POST("", h.RegisterDepartment)
		departments.GET("/profit", h.ProfitReport)
	}
}

func (h *DepartmentHandler) ListDepartments(c *gin.Context) {
	names, err := h.useCase.ListDepartmentNames(c.Request.Context())
	if err != nil {
		h.log.Errorf("HTTP Handler: Failed to list departments: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to list departments: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Departments retrieved successfully", names)
}

type registerDepartmentRequest struct {
	Name         string   `json:"department_name"`
	OverheadCost *float64 `json:"over_head_costs" binding:"required"`
}

func (h *DepartmentHandler) RegisterDepartment(c *gin.Context) {
	var req registerDepartmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("HTTP Handler: Failed to bind JSON for register department: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := h.useCase.RegisterDepartment(c.Request.Context(), req.Name, *req.OverheadCost)
	if err != nil {
		h.log.WithError(err).WithField("department_name", req.Name).Warn("HTTP Handler: Department registration returned an error")
		if outcome.Status == "" {
			ErrorResponse(c, mapErrorToStatus(err), "Failed to register department: "+err.Error())
			return
		}
	}
	statusCode := registrationStatusCode(outcome)
	if outcome.Rejected() {
		h.log.WithFields(logrus.Fields{
			"department_name": req.Name,
			"outcome":         outcome.Status,
		}).Warn("HTTP Handler: Department registration rejected")
		FailResponse(c, statusCode, outcome.Message(), outcome)
		return
	}
	SuccessResponse(c, statusCode, outcome.Message(), outcome.Department)
}

func (h *DepartmentHandler) ProfitReport(c *gin.Context) {
	report, err := h.useCase.DepartmentReport(c.Request.Context())
	if err != nil {
		h.log.Errorf("HTTP Handler: Failed to build profit report: %v", err)
		ErrorResponse(c, mapErrorToStatus(err), "Failed to build profit report: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Profit report built successfully", report)
}
