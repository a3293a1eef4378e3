package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deckvault/deckvault/pkg/collection"
)

type createDeckRequest struct {
	Name       string `json:"name"`
	Commander  string `json:"commander"`
	Format     string `json:"format"`
	IsInstance bool   `json:"is_instance"`
}

func (handler *httpHandler) handleCreateDeck(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request createDeckRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	deck, err := handler.service.CreateDeck(requestCtx, ownerID, collection.NewDeckInput{
		Name:       request.Name,
		Commander:  request.Commander,
		Format:     request.Format,
		IsInstance: request.IsInstance,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"deck": mapDeckPayload(deck)})
}

type renameDeckRequest struct {
	Name string `json:"name"`
}

func (handler *httpHandler) handleRenameDeck(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request renameDeckRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	if err := handler.service.RenameDeck(requestCtx, ownerID, ctx.Param("id"), request.Name); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (handler *httpHandler) handleDeleteDeck(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	if err := handler.service.DeleteDeck(requestCtx, ownerID, ctx.Param("id")); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

type setSlotsRequest struct {
	Slots []slotInputPayload `json:"slots"`
}

type slotInputPayload struct {
	CardName string `json:"card_name"`
	Required int    `json:"required"`
}

func (handler *httpHandler) handleSetDeckSlots(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request setSlotsRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	inputs := make([]collection.SlotInput, 0, len(request.Slots))
	for _, slot := range request.Slots {
		inputs = append(inputs, collection.SlotInput{
			CardName: slot.CardName,
			Required: slot.Required,
		})
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	slots, err := handler.service.SetDeckSlots(requestCtx, ownerID, ctx.Param("id"), inputs)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]slotInputPayload, 0, len(slots))
	for _, slot := range slots {
		payloads = append(payloads, slotInputPayload{
			CardName: slot.CardName,
			Required: slot.Required,
		})
	}
	ctx.JSON(http.StatusOK, gin.H{"slots": payloads})
}

type addCardRequest struct {
	InventoryItemID string `json:"inventory_item_id"`
	Quantity        int    `json:"quantity"`
}

func (handler *httpHandler) handleAddCard(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request addCardRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	reservation, err := handler.service.AddCardToDeck(requestCtx, ownerID, ctx.Param("id"), request.InventoryItemID, request.Quantity)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"reservation": mapReservationPayload(reservation)})
}

type removeCardRequest struct {
	ReservationID string `json:"reservation_id"`
	Quantity      int    `json:"quantity"`
}

func (handler *httpHandler) handleRemoveCard(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request removeCardRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	if err := handler.service.RemoveCardFromDeck(requestCtx, ownerID, ctx.Param("id"), request.ReservationID, request.Quantity); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (handler *httpHandler) handleAutoFill(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	fills, err := handler.service.AutoFillDeck(requestCtx, ownerID, ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"slots": mapSlotFillPayloads(fills)})
}

type autoFillSlotRequest struct {
	CardName string `json:"card_name"`
	Quantity int    `json:"quantity"`
}

func (handler *httpHandler) handleAutoFillSlot(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request autoFillSlotRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	fill, err := handler.service.AutoFillSlot(requestCtx, ownerID, ctx.Param("id"), request.CardName, request.Quantity)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"slot": mapSlotFillPayloads([]collection.SlotFill{fill})[0]})
}

func (handler *httpHandler) handleReoptimize(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	fills, err := handler.service.ReoptimizeDeck(requestCtx, ownerID, ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"slots": mapSlotFillPayloads(fills)})
}

func (handler *httpHandler) handleRelease(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	if err := handler.service.ReleaseDeck(requestCtx, ownerID, ctx.Param("id")); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

type sellDeckRequest struct {
	SellPriceCents int64 `json:"sell_price_cents"`
}

func (handler *httpHandler) handleSellDeck(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request sellDeckRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	sellPrice, err := collection.NewPriceCents(request.SellPriceCents)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	sale, err := handler.service.SellDeck(requestCtx, ownerID, ctx.Param("id"), sellPrice)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"sale": mapSalePayload(sale)})
}

type moveCardRequest struct {
	ReservationID string `json:"reservation_id"`
	TargetDeckID  string `json:"target_deck_id"`
	TargetFolder  string `json:"target_folder"`
}

func (handler *httpHandler) handleMoveCard(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request moveCardRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	switch {
	case strings.TrimSpace(request.TargetDeckID) != "":
		if err := handler.service.MoveCardBetweenDecks(requestCtx, ownerID, request.ReservationID, request.TargetDeckID); err != nil {
			handler.respondError(ctx, err)
			return
		}
	case strings.TrimSpace(request.TargetFolder) != "":
		folder, err := collection.NewFolder(request.TargetFolder)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		if err := handler.service.MoveCardFromDeckToFolder(requestCtx, ownerID, request.ReservationID, folder); err != nil {
			handler.respondError(ctx, err)
			return
		}
	default:
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "target_deck_id or target_folder is required"))
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

func (handler *httpHandler) handleDeckDetails(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	view, err := handler.service.DeckDetails(requestCtx, ownerID, ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, mapDeckViewPayload(view))
}
