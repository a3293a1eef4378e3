package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/deckvault/deckvault/pkg/collection"
)

func errorResponse(code string, message string) gin.H {
	return gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	}
}

// statusForError maps domain sentinels onto HTTP status plus a short machine
// code for the error envelope.
func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, collection.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, collection.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, collection.ErrInsufficientQuantity):
		return http.StatusConflict, "insufficient_quantity"
	case errors.Is(err, collection.ErrSlotOverfilled):
		return http.StatusConflict, "slot_overfilled"
	case errors.Is(err, collection.ErrReservedRowInTrash):
		return http.StatusConflict, "reserved_row_in_trash"
	case errors.Is(err, collection.ErrDeckHasReservations):
		return http.StatusConflict, "deck_has_reservations"
	case errors.Is(err, collection.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, collection.ErrInvalidOwnerID),
		errors.Is(err, collection.ErrInvalidCardName),
		errors.Is(err, collection.ErrInvalidFolder),
		errors.Is(err, collection.ErrInvalidQuantity),
		errors.Is(err, collection.ErrInvalidPrice),
		errors.Is(err, collection.ErrInvalidDeckName),
		errors.Is(err, collection.ErrInvalidFillMode):
		return http.StatusBadRequest, "validation_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (handler *httpHandler) respondError(ctx *gin.Context, err error) {
	status, code := statusForError(err)
	if status == http.StatusInternalServerError {
		handler.logger.Error("request failed",
			zap.String("path", ctx.FullPath()),
			zap.Error(err))
		ctx.JSON(status, errorResponse(code, "internal error"))
		return
	}
	ctx.JSON(status, errorResponse(code, err.Error()))
}
