package service

import "fmt"

// Error codes surfaced to the API layer.
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeNotFound            = "NOT_FOUND"
	CodeConflict            = "CONFLICT"
	CodeAlreadyProcessed    = "ALREADY_PROCESSED"
	CodeDuplicateReference  = "DUPLICATE_REFERENCE"
	CodePhoneInUse          = "PHONE_IN_USE"
	CodeInvalidReferral     = "INVALID_REFERRAL"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodePurchaseLimit       = "PURCHASE_LIMIT"
	CodeOfferExpired        = "OFFER_EXPIRED"
	CodeGiftExpired         = "GIFT_EXPIRED"
	CodeGiftLimitReached    = "GIFT_LIMIT_REACHED"
	CodeGiftAlreadyRedeemed = "GIFT_ALREADY_REDEEMED"
	CodeWithdrawalClosed    = "WITHDRAWAL_CLOSED"
	CodeWithdrawalLimit     = "WITHDRAWAL_LIMIT"
	CodeNoPayoutAccount     = "NO_PAYOUT_ACCOUNT"
	CodeRechargeExpired     = "RECHARGE_EXPIRED"
	CodeDatabaseError       = "DATABASE_ERROR"
)

// Error carries a machine code, an internal message for logs and a Spanish
// user-facing message for the UI.
type Error struct {
	Code        string
	Message     string
	UserMessage string
}

func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func newError(code, message, userMessage string) *Error {
	return &Error{Code: code, Message: message, UserMessage: userMessage}
}

func errInvalidInput(userMessage, details string, args ...any) *Error {
	return newError(CodeInvalidInput, fmt.Sprintf(details, args...), userMessage)
}

func errNotFound(what string) *Error {
	return newError(CodeNotFound, what+" not found", "No se encontró el registro solicitado.")
}

func errConflict(details string) *Error {
	return newError(CodeConflict, details,
		"Los datos fueron modificados por otro proceso. Actualiza e inténtalo de nuevo.")
}

func errAlreadyProcessed() *Error {
	return newError(CodeAlreadyProcessed, "request already processed",
		"La solicitud ya ha sido procesada.")
}

func errInsufficientBalance() *Error {
	return newError(CodeInsufficientBalance, "insufficient balance",
		"No tienes suficiente saldo para esta operación.")
}
