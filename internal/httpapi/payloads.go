package httpapi

import "github.com/deckvault/deckvault/pkg/collection"

type inventoryRowPayload struct {
	ID                 string `json:"id"`
	CardName           string `json:"card_name"`
	SetCode            string `json:"set_code,omitempty"`
	SetName            string `json:"set_name,omitempty"`
	Quantity           int    `json:"quantity"`
	Reserved           int    `json:"reserved"`
	Available          int    `json:"available"`
	Folder             string `json:"folder"`
	PurchasePriceCents int64  `json:"purchase_price_cents"`
	Foil               bool   `json:"foil"`
	Quality            string `json:"quality,omitempty"`
	ImageURL           string `json:"image_url,omitempty"`
	ExternalID         string `json:"external_id,omitempty"`
	CreatedUnixUTC     int64  `json:"created_unix_utc"`
}

func mapRowPayload(row collection.InventoryRow) inventoryRowPayload {
	return inventoryRowPayload{
		ID:                 row.ID,
		CardName:           row.CardName,
		SetCode:            row.SetCode,
		SetName:            row.SetName,
		Quantity:           row.Quantity,
		Reserved:           row.Reserved,
		Available:          row.Available(),
		Folder:             row.Folder,
		PurchasePriceCents: row.PurchasePriceCents,
		Foil:               row.Foil,
		Quality:            row.Quality,
		ImageURL:           row.ImageURL,
		ExternalID:         row.ExternalID,
		CreatedUnixUTC:     row.CreatedUnixUTC,
	}
}

func mapRowPayloads(rows []collection.InventoryRow) []inventoryRowPayload {
	payloads := make([]inventoryRowPayload, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, mapRowPayload(row))
	}
	return payloads
}

type deckPayload struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Commander      string `json:"commander,omitempty"`
	Format         string `json:"format,omitempty"`
	IsInstance     bool   `json:"is_instance"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

func mapDeckPayload(deck collection.Deck) deckPayload {
	return deckPayload{
		ID:             deck.ID,
		Name:           deck.Name,
		Commander:      deck.Commander,
		Format:         deck.Format,
		IsInstance:     deck.IsInstance,
		CreatedUnixUTC: deck.CreatedUnixUTC,
	}
}

type reservationPayload struct {
	ID             string `json:"id"`
	DeckID         string `json:"deck_id"`
	InventoryRowID string `json:"inventory_item_id"`
	Quantity       int    `json:"quantity"`
	OriginalFolder string `json:"original_folder,omitempty"`
	CreatedUnixUTC int64  `json:"created_unix_utc"`
}

func mapReservationPayload(reservation collection.Reservation) reservationPayload {
	return reservationPayload{
		ID:             reservation.ID,
		DeckID:         reservation.DeckID,
		InventoryRowID: reservation.InventoryRowID,
		Quantity:       reservation.Quantity,
		OriginalFolder: reservation.OriginalFolder,
		CreatedUnixUTC: reservation.CreatedUnixUTC,
	}
}

type slotFillPayload struct {
	CardName     string `json:"card_name"`
	Required     int    `json:"required"`
	Reserved     int    `json:"reserved"`
	Filled       int    `json:"filled"`
	StillMissing int    `json:"still_missing"`
}

func mapSlotFillPayloads(fills []collection.SlotFill) []slotFillPayload {
	payloads := make([]slotFillPayload, 0, len(fills))
	for _, fill := range fills {
		payloads = append(payloads, slotFillPayload{
			CardName:     fill.CardName,
			Required:     fill.Required,
			Reserved:     fill.Reserved,
			Filled:       fill.Filled,
			StillMissing: fill.StillMissing,
		})
	}
	return payloads
}

type slotStatusPayload struct {
	CardName string `json:"card_name"`
	Required int    `json:"required"`
	Reserved int    `json:"reserved"`
	Missing  int    `json:"missing"`
}

type deckViewPayload struct {
	Deck           deckPayload          `json:"deck"`
	Slots          []slotStatusPayload  `json:"slots"`
	Reservations   []reservationPayload `json:"reservations"`
	ReservedCount  int                  `json:"reserved_count"`
	DecklistTotal  int                  `json:"decklist_total"`
	MissingCount   int                  `json:"missing_count"`
	ExtrasCount    int                  `json:"extras_count"`
	TotalCostCents int64                `json:"total_cost_cents"`
}

func mapDeckViewPayload(view collection.DeckView) deckViewPayload {
	slots := make([]slotStatusPayload, 0, len(view.Slots))
	for _, slot := range view.Slots {
		slots = append(slots, slotStatusPayload{
			CardName: slot.CardName,
			Required: slot.Required,
			Reserved: slot.Reserved,
			Missing:  slot.Missing,
		})
	}
	reservations := make([]reservationPayload, 0, len(view.Reservations))
	for _, reservation := range view.Reservations {
		reservations = append(reservations, mapReservationPayload(reservation))
	}
	return deckViewPayload{
		Deck:           mapDeckPayload(view.Deck),
		Slots:          slots,
		Reservations:   reservations,
		ReservedCount:  view.ReservedCount,
		DecklistTotal:  view.DecklistTotal,
		MissingCount:   view.MissingCount,
		ExtrasCount:    view.ExtrasCount,
		TotalCostCents: view.TotalCostCents,
	}
}

type salePayload struct {
	ID                 string `json:"id"`
	ItemType           string `json:"item_type"`
	ItemID             string `json:"item_id"`
	ItemName           string `json:"item_name"`
	PurchasePriceCents int64  `json:"purchase_price_cents"`
	SellPriceCents     int64  `json:"sell_price_cents"`
	Quantity           int    `json:"quantity"`
	ProfitCents        int64  `json:"profit_cents"`
	CreatedUnixUTC     int64  `json:"created_unix_utc"`
}

func mapSalePayload(sale collection.Sale) salePayload {
	return salePayload{
		ID:                 sale.ID,
		ItemType:           string(sale.ItemType),
		ItemID:             sale.ItemID,
		ItemName:           sale.ItemName,
		PurchasePriceCents: sale.PurchasePriceCents,
		SellPriceCents:     sale.SellPriceCents,
		Quantity:           sale.Quantity,
		ProfitCents:        sale.ProfitCents,
		CreatedUnixUTC:     sale.CreatedUnixUTC,
	}
}

type folderSummaryPayload struct {
	Folder          string `json:"folder"`
	UniqueCards     int    `json:"unique_cards"`
	TotalAvailable  int    `json:"total_available"`
	TotalValueCents int64  `json:"total_value_cents"`
}

func mapFolderSummaryPayloads(summaries []collection.FolderSummary) []folderSummaryPayload {
	payloads := make([]folderSummaryPayload, 0, len(summaries))
	for _, summary := range summaries {
		payloads = append(payloads, folderSummaryPayload{
			Folder:          summary.Folder,
			UniqueCards:     summary.UniqueCards,
			TotalAvailable:  summary.TotalAvailable,
			TotalValueCents: summary.TotalValueCents,
		})
	}
	return payloads
}
