package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/smallbiznis/duebook/internal/catalog/domain"
	paymentdomain "github.com/smallbiznis/duebook/internal/payment/domain"
	settlementdomain "github.com/smallbiznis/duebook/internal/settlement/domain"
	subscriptiondomain "github.com/smallbiznis/duebook/internal/subscription/domain"
)

type errorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// notFoundErrors: the referenced entity does not exist. No retry will help.
var notFoundErrors = []error{
	catalogdomain.ErrClientNotFound,
	catalogdomain.ErrServiceNotFound,
	subscriptiondomain.ErrSubscriptionNotFound,
	paymentdomain.ErrPaymentNotFound,
}

// invalidStateErrors: the operation is refused before any destructive step.
var invalidStateErrors = []error{
	catalogdomain.ErrClientHasOpenLedger,
	catalogdomain.ErrDuplicateServiceCode,
	settlementdomain.ErrAlreadyPaid,
}

// validationErrors: malformed input, rejected before any write.
var validationErrors = []error{
	catalogdomain.ErrInvalidName,
	catalogdomain.ErrInvalidBasePrice,
	catalogdomain.ErrInvalidID,
	subscriptiondomain.ErrInvalidID,
	subscriptiondomain.ErrInvalidBillingMode,
	subscriptiondomain.ErrPeriodRequired,
	subscriptiondomain.ErrInvalidPeriod,
	subscriptiondomain.ErrInvalidChargeDay,
	subscriptiondomain.ErrInvalidCustomPrice,
	subscriptiondomain.ErrInvalidStartDate,
	subscriptiondomain.ErrInvalidFilter,
	paymentdomain.ErrInvalidID,
	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidDueDate,
	paymentdomain.ErrInvalidClient,
	settlementdomain.ErrInvalidPeriodsPaid,
}

// ErrorHandlingMiddleware maps domain errors onto HTTP statuses. Anything not
// matched is a storage failure: the whole operation rolled back and the
// caller may retry it as a unit.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() || len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, kind := classify(err)
		c.JSON(status, errorResponse{Error: errorPayload{
			Type:    kind,
			Message: err.Error(),
		}})
	}
}

func classify(err error) (int, string) {
	for _, target := range notFoundErrors {
		if errors.Is(err, target) {
			return http.StatusNotFound, "not_found"
		}
	}
	for _, target := range invalidStateErrors {
		if errors.Is(err, target) {
			return http.StatusConflict, "invalid_state"
		}
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, "validation_error"
		}
	}
	return http.StatusInternalServerError, "storage_failure"
}
