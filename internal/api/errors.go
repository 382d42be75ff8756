package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"saldoya/internal/service"
)

// statusFor maps service error codes to HTTP statuses.
func statusFor(code string) int {
	switch code {
	case service.CodeInvalidInput:
		return http.StatusBadRequest
	case service.CodeUnauthorized, service.CodeInvalidCredentials:
		return http.StatusUnauthorized
	case service.CodeNotFound:
		return http.StatusNotFound
	case service.CodeConflict, service.CodeAlreadyProcessed, service.CodeDuplicateReference,
		service.CodePhoneInUse, service.CodeGiftAlreadyRedeemed:
		return http.StatusConflict
	case service.CodeInsufficientBalance, service.CodePurchaseLimit, service.CodeOfferExpired,
		service.CodeGiftExpired, service.CodeGiftLimitReached, service.CodeWithdrawalClosed,
		service.CodeWithdrawalLimit, service.CodeNoPayoutAccount, service.CodeInvalidReferral,
		service.CodeRechargeExpired:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// fail writes the error response. Service errors carry their own user
// message; anything else becomes a generic 500 and is logged.
func fail(c *gin.Context, err error) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		c.JSON(statusFor(svcErr.Code), gin.H{"error": gin.H{
			"code":    svcErr.Code,
			"message": svcErr.UserMessage,
		}})
		return
	}

	slog.Error("Request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
		"code":    "INTERNAL",
		"message": "Ocurrió un error inesperado. Inténtalo de nuevo.",
	}})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
		"code":    service.CodeInvalidInput,
		"message": "Datos inválidos: " + err.Error(),
	}})
}
