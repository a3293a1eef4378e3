package collection

import "context"

// Store is the persistence contract used by Service. Implementations back
// every call with a transactional database; WithTx runs fn against a store
// bound to one transaction, and lock methods take row locks that live until
// that transaction ends.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error

	// Inventory. Reads fill the derived Reserved field.
	InsertInventoryRow(ctx context.Context, row InventoryRow) (InventoryRow, error)
	GetInventoryRow(ctx context.Context, ownerID string, rowID string) (InventoryRow, error)
	LockInventoryRow(ctx context.Context, ownerID string, rowID string) (InventoryRow, error)
	UpdateInventoryRow(ctx context.Context, ownerID string, rowID string, patch InventoryPatch) error
	SetInventoryQuantity(ctx context.Context, ownerID string, rowID string, quantity int) error
	SetInventoryFolder(ctx context.Context, ownerID string, rowID string, folder string) error
	DeleteInventoryRow(ctx context.Context, ownerID string, rowID string) error
	ListInventory(ctx context.Context, ownerID string, folder string) ([]InventoryRow, error)
	ListTrashRows(ctx context.Context, ownerID string) ([]InventoryRow, error)
	// SlotCandidates returns non-trash rows matching the normalized card key,
	// ordered by (created_at asc, purchase_price asc, id asc).
	SlotCandidates(ctx context.Context, ownerID string, cardKey string) ([]InventoryRow, error)

	// Decks and slots.
	CreateDeck(ctx context.Context, deck Deck) (Deck, error)
	GetDeck(ctx context.Context, ownerID string, deckID string) (Deck, error)
	RenameDeck(ctx context.Context, ownerID string, deckID string, name string) error
	DeleteDeck(ctx context.Context, ownerID string, deckID string) error
	ReplaceDeckSlots(ctx context.Context, deckID string, slots []DeckSlot) error
	GetDeckSlots(ctx context.Context, deckID string) ([]DeckSlot, error)

	// Reservations.
	InsertReservation(ctx context.Context, reservation Reservation) (Reservation, error)
	GetReservation(ctx context.Context, reservationID string) (Reservation, error)
	FindReservation(ctx context.Context, deckID string, rowID string) (Reservation, bool, error)
	SetReservationQuantity(ctx context.Context, reservationID string, quantity int) error
	SetReservationDeck(ctx context.Context, reservationID string, deckID string) error
	DeleteReservation(ctx context.Context, reservationID string) error
	DeleteDeckReservations(ctx context.Context, deckID string) error
	ListDeckReservations(ctx context.Context, deckID string) ([]Reservation, error)
	ListRowReservations(ctx context.Context, rowID string) ([]Reservation, error)

	// Sales and audit log.
	InsertSale(ctx context.Context, sale Sale) (Sale, error)
	ListSales(ctx context.Context, ownerID string, limit int) ([]Sale, error)
	AppendChangeLog(ctx context.Context, entry ChangeLogEntry) error

	// Read projections.
	FolderSummaries(ctx context.Context, ownerID string) ([]FolderSummary, error)
}
