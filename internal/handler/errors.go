package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"procurement-service/internal/ledger"
	"procurement-service/internal/planning"
	"procurement-service/internal/status"
	"procurement-service/prometheus"
)

// respondError maps engine errors onto HTTP statuses. Anything unmapped is a
// 500 with a generic body; the detailed error stays in the logs.
func respondError(c echo.Context, err error) error {
	var (
		validationErr  *planning.ValidationError
		notEligibleErr *planning.NotEligibleError
		inactiveErr    *planning.InactiveSupplierError
		mismatchErr    *planning.QuantityMismatchError
		notFoundErr    *planning.NotFoundError
		planErr        *planning.PlanInvalidError
		transitionErr  *status.InvalidTransitionError
		capacityErr    *ledger.CapacityExceededError
		conflictErr    *ledger.ConcurrencyConflictError
		ledgerMissing  *ledger.NotFoundError
	)

	switch {
	case errors.As(err, &validationErr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": validationErr.Error()})
	case errors.As(err, &notFoundErr):
		return c.JSON(http.StatusNotFound, echo.Map{"error": notFoundErr.Error()})
	case errors.As(err, &ledgerMissing):
		return c.JSON(http.StatusNotFound, echo.Map{"error": ledgerMissing.Error()})
	case errors.As(err, &transitionErr):
		return c.JSON(http.StatusConflict, echo.Map{"error": transitionErr.Error()})
	case errors.As(err, &capacityErr):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     capacityErr.Error(),
			"requested": capacityErr.Requested,
			"available": capacityErr.Available,
			"shortfall": capacityErr.Shortfall(),
		})
	case errors.As(err, &conflictErr):
		prometheus.RecordLedgerConflict()
		return c.JSON(http.StatusConflict, echo.Map{"error": conflictErr.Error()})
	case errors.As(err, &planErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{
			"error":   "distribution plan is invalid",
			"details": planErr.Result.ErrorMessages(),
		})
	case errors.As(err, &notEligibleErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": notEligibleErr.Error()})
	case errors.As(err, &inactiveErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": inactiveErr.Error()})
	case errors.As(err, &mismatchErr):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": mismatchErr.Error()})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}

// actorID reads the authenticated user from the request context.
func actorID(c echo.Context) uint {
	if id, ok := c.Get("user_id").(uint); ok {
		return id
	}
	return 0
}
