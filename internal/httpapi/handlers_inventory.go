package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/deckvault/deckvault/pkg/collection"
)

func parsePositiveInt(raw string) (int, error) {
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	if parsed <= 0 {
		return 0, strconv.ErrRange
	}
	return parsed, nil
}

type addInventoryRequest struct {
	CardName           string `json:"card_name"`
	SetCode            string `json:"set_code"`
	SetName            string `json:"set_name"`
	Quantity           int    `json:"quantity"`
	Folder             string `json:"folder"`
	PurchasePriceCents int64  `json:"purchase_price_cents"`
	Foil               bool   `json:"foil"`
	Quality            string `json:"quality"`
	ImageURL           string `json:"image_url"`
	ExternalID         string `json:"external_id"`
}

func (handler *httpHandler) handleAddInventory(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request addInventoryRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	row, err := handler.service.AddInventoryRow(requestCtx, ownerID, collection.NewInventoryRowInput{
		CardName:           request.CardName,
		SetCode:            request.SetCode,
		SetName:            request.SetName,
		Quantity:           request.Quantity,
		Folder:             request.Folder,
		PurchasePriceCents: request.PurchasePriceCents,
		Foil:               request.Foil,
		Quality:            request.Quality,
		ImageURL:           request.ImageURL,
		ExternalID:         request.ExternalID,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"item": mapRowPayload(row)})
}

func (handler *httpHandler) handleListInventory(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	rows, err := handler.service.ListInventory(requestCtx, ownerID, ctx.Query("folder"))
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"items": mapRowPayloads(rows)})
}

type updateInventoryRequest struct {
	CardName           *string `json:"card_name"`
	SetCode            *string `json:"set_code"`
	SetName            *string `json:"set_name"`
	Quantity           *int    `json:"quantity"`
	Folder             *string `json:"folder"`
	PurchasePriceCents *int64  `json:"purchase_price_cents"`
	Foil               *bool   `json:"foil"`
	Quality            *string `json:"quality"`
	ImageURL           *string `json:"image_url"`
}

func (handler *httpHandler) handleUpdateInventory(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request updateInventoryRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	err := handler.service.UpdateInventoryRow(requestCtx, ownerID, ctx.Param("id"), collection.InventoryPatch{
		CardName:           request.CardName,
		SetCode:            request.SetCode,
		SetName:            request.SetName,
		Quantity:           request.Quantity,
		Folder:             request.Folder,
		PurchasePriceCents: request.PurchasePriceCents,
		Foil:               request.Foil,
		Quality:            request.Quality,
		ImageURL:           request.ImageURL,
	})
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

type adjustInventoryRequest struct {
	Delta int `json:"delta"`
}

func (handler *httpHandler) handleAdjustInventory(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request adjustInventoryRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	if err := handler.service.AdjustInventoryQuantity(requestCtx, ownerID, ctx.Param("id"), request.Delta); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

type moveInventoryRequest struct {
	Folder string `json:"folder"`
}

func (handler *httpHandler) handleMoveInventory(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request moveInventoryRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	folder, err := collection.NewFolder(request.Folder)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	if err := handler.service.MoveInventoryToFolder(requestCtx, ownerID, ctx.Param("id"), folder); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"ok": true})
}

type sellCardRequest struct {
	SellPriceCents int64 `json:"sell_price_cents"`
	Quantity       int   `json:"quantity"`
}

func (handler *httpHandler) handleSellCard(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request sellCardRequest
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
	sale, err := handler.service.SellCard(requestCtx, ownerID, ctx.Param("id"), sellPrice, request.Quantity)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"sale": mapSalePayload(sale)})
}

func (handler *httpHandler) handlePurgeTrash(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	purged, err := handler.service.PurgeTrash(requestCtx, ownerID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"purged": purged})
}

func (handler *httpHandler) handleFolderSummaries(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	summaries, err := handler.service.FolderSummaries(requestCtx, ownerID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"folders": mapFolderSummaryPayloads(summaries)})
}

type recordSaleRequest struct {
	ItemType        string `json:"item_type"`
	ItemID          string `json:"item_id"`
	InventoryItemID string `json:"inventory_item_id"`
	SellPriceCents  int64  `json:"sell_price_cents"`
	Quantity        int    `json:"quantity"`
}

func (handler *httpHandler) handleRecordSale(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	var request recordSaleRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	sellPrice, err := collection.NewPriceCents(request.SellPriceCents)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	itemID := request.ItemID
	if itemID == "" {
		itemID = request.InventoryItemID
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	var sale collection.Sale
	switch strings.TrimSpace(request.ItemType) {
	case "", string(collection.SaleItemCard):
		sale, err = handler.service.SellCard(requestCtx, ownerID, itemID, sellPrice, request.Quantity)
	case string(collection.SaleItemDeck):
		sale, err = handler.service.SellDeck(requestCtx, ownerID, itemID, sellPrice)
	default:
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "item_type must be card or deck"))
		return
	}
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"sale": mapSalePayload(sale)})
}

func (handler *httpHandler) handleListSales(ctx *gin.Context) {
	ownerID, ok := handler.owner(ctx)
	if !ok {
		return
	}
	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		parsed, err := parsePositiveInt(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	requestCtx, cancel := handler.requestContext(ctx)
	defer cancel()
	sales, err := handler.service.ListSales(requestCtx, ownerID, limit)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	payloads := make([]salePayload, 0, len(sales))
	for _, sale := range sales {
		payloads = append(payloads, mapSalePayload(sale))
	}
	ctx.JSON(http.StatusOK, gin.H{"sales": payloads})
}
