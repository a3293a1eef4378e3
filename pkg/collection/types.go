package collection

import (
	"fmt"
	"strings"
)

// PriceCents is an integer price in cents.
type PriceCents int64

// OwnerID identifies the owner of inventory rows, decks, and sales.
type OwnerID struct {
	value string
}

// NewOwnerID validates and normalizes an owner id.
func NewOwnerID(raw string) (OwnerID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return OwnerID{}, fmt.Errorf("%w: empty value", ErrInvalidOwnerID)
	}
	return OwnerID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id OwnerID) String() string {
	return id.value
}

// Folder is a validated folder name.
type Folder struct {
	value string
}

// Reserved folder names. Uncategorized is the default landing folder,
// Trash is the soft-delete tombstone.
const (
	FolderUncategorized = "Uncategorized"
	FolderTrash         = "Trash"
)

// NewFolder validates a folder name.
func NewFolder(raw string) (Folder, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Folder{}, fmt.Errorf("%w: empty value", ErrInvalidFolder)
	}
	return Folder{value: trimmed}, nil
}

// String returns the folder name.
func (folder Folder) String() string {
	return folder.value
}

// IsTrash reports whether the folder is the trash tombstone.
func (folder Folder) IsTrash() bool {
	return folder.value == FolderTrash
}

// NewPriceCents validates a non-negative price.
func NewPriceCents(raw int64) (PriceCents, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidPrice)
	}
	return PriceCents(raw), nil
}

// Int64 returns the raw cent value.
func (price PriceCents) Int64() int64 {
	return int64(price)
}

// NewCopyCount validates a strictly positive copy count.
func NewCopyCount(raw int) (int, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidQuantity)
	}
	return raw, nil
}

// FillMode selects slot-cap enforcement for AddCardToDeck and AutoFillSlot.
type FillMode string

const (
	FillModeStrict     FillMode = "strict"
	FillModePermissive FillMode = "permissive"
)

// ParseFillMode validates a fill mode string.
func ParseFillMode(raw string) (FillMode, error) {
	switch FillMode(strings.ToLower(strings.TrimSpace(raw))) {
	case FillModeStrict:
		return FillModeStrict, nil
	case FillModePermissive:
		return FillModePermissive, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFillMode, raw)
}

// InventoryRow is one physical-copy ledger row. Reserved is derived from the
// reservations referencing the row and is filled by the store on read.
type InventoryRow struct {
	ID                 string
	OwnerID            string
	CardName           string
	CardKey            string
	SetCode            string
	SetName            string
	Quantity           int
	Reserved           int
	Folder             string
	PurchasePriceCents int64
	Foil               bool
	Quality            string
	ImageURL           string
	ExternalID         string
	CreatedUnixUTC     int64
}

// Available returns the unreserved copy count.
func (row InventoryRow) Available() int {
	return row.Quantity - row.Reserved
}

// NewInventoryRowInput carries the caller-supplied fields for a new row.
type NewInventoryRowInput struct {
	CardName           string
	SetCode            string
	SetName            string
	Quantity           int
	Folder             string
	PurchasePriceCents int64
	Foil               bool
	Quality            string
	ImageURL           string
	ExternalID         string
}

// InventoryPatch is a partial update; nil fields are untouched.
type InventoryPatch struct {
	CardName           *string
	SetCode            *string
	SetName            *string
	Quantity           *int
	Folder             *string
	PurchasePriceCents *int64
	Foil               *bool
	Quality            *string
	ImageURL           *string
}

// Deck is a decklist definition.
type Deck struct {
	ID             string
	OwnerID        string
	Name           string
	Commander      string
	Format         string
	IsInstance     bool
	CreatedUnixUTC int64
}

// DeckSlot is one (card, required copies) entry of a decklist.
type DeckSlot struct {
	CardName string
	CardKey  string
	Required int
}

// SlotInput is a caller-supplied decklist entry before merging.
type SlotInput struct {
	CardName string
	Required int
}

// NewDeckSlots validates slot inputs and merges duplicate card names by
// summing their required counts. Slot order of first appearance is kept.
func NewDeckSlots(inputs []SlotInput) ([]DeckSlot, error) {
	slots := make([]DeckSlot, 0, len(inputs))
	index := make(map[string]int, len(inputs))
	for _, input := range inputs {
		name := strings.TrimSpace(input.CardName)
		if name == "" {
			return nil, fmt.Errorf("%w: empty card name", ErrInvalidCardName)
		}
		if input.Required <= 0 {
			return nil, fmt.Errorf("%w: slot %q requires %d", ErrInvalidQuantity, name, input.Required)
		}
		key := NormalizeName(name)
		if at, ok := index[key]; ok {
			slots[at].Required += input.Required
			continue
		}
		index[key] = len(slots)
		slots = append(slots, DeckSlot{CardName: name, CardKey: key, Required: input.Required})
	}
	return slots, nil
}

// Reservation claims copies of one inventory row for one deck.
type Reservation struct {
	ID             string
	DeckID         string
	InventoryRowID string
	Quantity       int
	OriginalFolder string
	CreatedUnixUTC int64
}

// SaleItemType distinguishes card and deck sales.
type SaleItemType string

const (
	SaleItemCard SaleItemType = "card"
	SaleItemDeck SaleItemType = "deck"
)

// Sale records a completed sale with its cost basis.
type Sale struct {
	ID                 string
	OwnerID            string
	ItemType           SaleItemType
	ItemID             string
	ItemName           string
	PurchasePriceCents int64
	SellPriceCents     int64
	Quantity           int
	ProfitCents        int64
	CreatedUnixUTC     int64
}

// ChangeLogEntry is one append-only audit record.
type ChangeLogEntry struct {
	OwnerID        string
	Operation      string
	ItemType       string
	ItemID         string
	QuantityDelta  int
	PayloadJSON    string
	CreatedUnixUTC int64
}
