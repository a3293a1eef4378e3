package collection

// SlotStatus is the per-slot fill decomposition of a deck view.
type SlotStatus struct {
	CardName string
	Required int
	Reserved int
	Missing  int
}

// DeckView is the read model for one deck.
type DeckView struct {
	Deck           Deck
	Slots          []SlotStatus
	Reservations   []Reservation
	ReservedCount  int
	DecklistTotal  int
	MissingCount   int
	ExtrasCount    int
	TotalCostCents int64
}

// SlotFill reports the outcome of filling one slot.
type SlotFill struct {
	CardName     string
	Required     int
	Reserved     int
	Filled       int
	StillMissing int
}

// FolderSummary aggregates one folder of an owner's inventory.
type FolderSummary struct {
	Folder          string
	UniqueCards     int
	TotalAvailable  int
	TotalValueCents int64
}

// ProjectDeckView computes the deck read model from committed state. Pure;
// rowsByID must contain every row referenced by the reservations.
func ProjectDeckView(deck Deck, slots []DeckSlot, reservations []Reservation, rowsByID map[string]InventoryRow) DeckView {
	view := DeckView{
		Deck:         deck,
		Slots:        make([]SlotStatus, 0, len(slots)),
		Reservations: reservations,
	}
	reservedByKey := make(map[string]int)
	for _, reservation := range reservations {
		view.ReservedCount += reservation.Quantity
		row, ok := rowsByID[reservation.InventoryRowID]
		if !ok {
			continue
		}
		reservedByKey[row.CardKey] += reservation.Quantity
		view.TotalCostCents += int64(reservation.Quantity) * row.PurchasePriceCents
	}
	for _, slot := range slots {
		reserved := reservedByKey[slot.CardKey]
		missing := slot.Required - reserved
		if missing < 0 {
			missing = 0
		}
		view.DecklistTotal += slot.Required
		view.Slots = append(view.Slots, SlotStatus{
			CardName: slot.CardName,
			Required: slot.Required,
			Reserved: reserved,
			Missing:  missing,
		})
	}
	if view.DecklistTotal > view.ReservedCount {
		view.MissingCount = view.DecklistTotal - view.ReservedCount
	}
	if view.ReservedCount > view.DecklistTotal {
		view.ExtrasCount = view.ReservedCount - view.DecklistTotal
	}
	return view
}
