package delivery

import (
	"errors"
	"net/http"

	"bamazon/internal/domain"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status  string      `json:"Status"`
	Message string      `json:"Message"`
	Data    interface{} `json:"Data,omitempty"`
}

func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Success",
		Message: message,
		Data:    data,
	})
}

func ErrorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
	})
}

// FailResponse is ErrorResponse with a payload, for business rejections that
// still carry a result.
func FailResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, Response{
		Status:  "Fail",
		Message: message,
		Data:    data,
	})
}

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func purchaseStatusCode(outcome domain.PurchaseOutcome) int {
	switch outcome.Status {
	case domain.PurchaseSuccess:
		return http.StatusOK
	case domain.PurchaseInsufficientStock, domain.PurchaseTransactionFailed:
		return http.StatusConflict
	case domain.PurchaseStoreUnavailable:
		if errors.Is(outcome.Err, domain.ErrStoreUnavailable) {
			return http.StatusServiceUnavailable
		}
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

func registrationStatusCode(outcome domain.RegistrationOutcome) int {
	switch outcome.Status {
	case domain.RegistrationSuccess:
		return http.StatusCreated
	case domain.RegistrationDuplicateName, domain.RegistrationRaceLost:
		return http.StatusConflict
	case domain.RegistrationInvalidInput:
		return http.StatusBadRequest
	case domain.RegistrationStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
