package gormstore

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// InventoryRow mirrors the inventory_rows table. The reserved count is not a
// column; it is derived from the reservations table on read.
type InventoryRow struct {
	ID                 string `gorm:"type:uuid;primaryKey"`
	OwnerID            string `gorm:"not null;index:idx_inventory_owner_folder,priority:1;index:idx_inventory_owner_card,priority:1"`
	CardName           string `gorm:"not null"`
	CardKey            string `gorm:"not null;index:idx_inventory_owner_card,priority:2"`
	SetCode            string
	SetName            string
	Quantity           int    `gorm:"not null"`
	Folder             string `gorm:"not null;index:idx_inventory_owner_folder,priority:2"`
	PurchasePriceCents int64  `gorm:"not null"`
	Foil               bool
	Quality            string
	ImageURL           string
	ExternalID         string
	CreatedAt          time.Time `gorm:"not null"`
	UpdatedAt          time.Time `gorm:"not null"`
}

func (InventoryRow) TableName() string { return "inventory_rows" }

func (row *InventoryRow) BeforeCreate(tx *gorm.DB) error {
	if row.ID == "" {
		row.ID = uuid.NewString()
	}
	return nil
}

// Deck mirrors the decks table.
type Deck struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	OwnerID    string `gorm:"not null;index:idx_decks_owner"`
	Name       string `gorm:"not null"`
	Commander  string
	Format     string
	IsInstance bool
	CreatedAt  time.Time `gorm:"not null"`
}

func (Deck) TableName() string { return "decks" }

func (deck *Deck) BeforeCreate(tx *gorm.DB) error {
	if deck.ID == "" {
		deck.ID = uuid.NewString()
	}
	return nil
}

// DeckSlot mirrors the deck_slots table. One row per card per deck.
type DeckSlot struct {
	DeckID   string `gorm:"type:uuid;primaryKey"`
	CardKey  string `gorm:"primaryKey"`
	CardName string `gorm:"not null"`
	Required int    `gorm:"not null"`
	Position int    `gorm:"not null"`
}

func (DeckSlot) TableName() string { return "deck_slots" }

// Reservation mirrors the reservations table. The unique index on
// (deck_id, inventory_row_id) keeps one reservation per pair.
type Reservation struct {
	ID             string `gorm:"type:uuid;primaryKey"`
	DeckID         string `gorm:"type:uuid;not null;index:uniq_reservation_deck_row,unique,priority:1"`
	InventoryRowID string `gorm:"type:uuid;not null;index:uniq_reservation_deck_row,unique,priority:2;index:idx_reservations_row"`
	Quantity       int    `gorm:"not null"`
	OriginalFolder string
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (Reservation) TableName() string { return "reservations" }

func (reservation *Reservation) BeforeCreate(tx *gorm.DB) error {
	if reservation.ID == "" {
		reservation.ID = uuid.NewString()
	}
	return nil
}

// Sale mirrors the sales table.
type Sale struct {
	ID                 string `gorm:"type:uuid;primaryKey"`
	OwnerID            string `gorm:"not null;index:idx_sales_owner_created,priority:1"`
	ItemType           string `gorm:"not null"`
	ItemID             string `gorm:"not null"`
	ItemName           string
	PurchasePriceCents int64     `gorm:"not null"`
	SellPriceCents     int64     `gorm:"not null"`
	Quantity           int       `gorm:"not null"`
	ProfitCents        int64     `gorm:"not null"`
	CreatedAt          time.Time `gorm:"not null;index:idx_sales_owner_created,priority:2"`
}

func (Sale) TableName() string { return "sales" }

func (sale *Sale) BeforeCreate(tx *gorm.DB) error {
	if sale.ID == "" {
		sale.ID = uuid.NewString()
	}
	return nil
}

// ChangeLogEntry mirrors the append-only transaction_log table.
type ChangeLogEntry struct {
	ID            string `gorm:"type:uuid;primaryKey"`
	OwnerID       string `gorm:"not null;index:idx_changelog_owner_created,priority:1"`
	Operation     string `gorm:"not null"`
	ItemType      string
	ItemID        string
	QuantityDelta int
	Payload       datatypes.JSON `gorm:"not null"`
	CreatedAt     time.Time      `gorm:"not null;index:idx_changelog_owner_created,priority:2"`
}

func (ChangeLogEntry) TableName() string { return "transaction_log" }

func (entry *ChangeLogEntry) BeforeCreate(tx *gorm.DB) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	return nil
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{
		&InventoryRow{},
		&Deck{},
		&DeckSlot{},
		&Reservation{},
		&Sale{},
		&ChangeLogEntry{},
	}
}
