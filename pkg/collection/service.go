package collection

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Service contains the reservation domain logic over a Store. Every mutating
// operation runs inside one store transaction; inventory rows touched by an
// operation are locked in ascending id order.
type Service struct {
	store                  Store
	nowFn                  func() int64
	logger                 OperationLogger
	fillMode               FillMode
	restoreFolderOnRelease bool
}

// NewService wires a Service.
func NewService(store Store, now func() int64, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now, fillMode: FillModeStrict}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// AddCardToDeck reserves up to desiredQuantity copies of one inventory row
// for a deck. When fewer copies are available the request degrades to the
// available count; zero available copies fail with ErrInsufficientQuantity.
// Under STRICT fill mode the resulting slot total must not exceed the slot's
// required count.
func (service *Service) AddCardToDeck(ctx context.Context, ownerID OwnerID, deckID string, inventoryRowID string, desiredQuantity int) (Reservation, error) {
	var reservation Reservation
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := NewCopyCount(desiredQuantity); err != nil {
			return err
		}
		deck, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID)
		if err != nil {
			return err
		}
		row, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), inventoryRowID)
		if err != nil {
			return err
		}
		take := desiredQuantity
		if available := row.Available(); take > available {
			// Internal retry with desired-1 down to 1 collapses to taking
			// whatever is available.
			take = available
		}
		if take <= 0 {
			return ErrInsufficientQuantity
		}
		if service.fillMode == FillModeStrict {
			if err := service.checkSlotCap(ctx, transactionStore, deck.ID, row, take); err != nil {
				return err
			}
		}
		reservation, err = service.upsertReservation(ctx, transactionStore, deck.ID, row, take)
		if err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationAddCard,
			ItemType:       itemTypeInventoryRow,
			ItemID:         row.ID,
			QuantityDelta:  take,
			PayloadJSON:    fmt.Sprintf(`{"deck_id":%q}`, deck.ID),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationAddCard,
		OwnerID:        ownerID,
		DeckID:         deckID,
		InventoryRowID: inventoryRowID,
		ReservationID:  reservation.ID,
		Quantity:       desiredQuantity,
		Error:          operationError,
	})
	return reservation, operationError
}

// RemoveCardFromDeck decrements a reservation and deletes it at zero. The
// inventory row's quantity is untouched.
func (service *Service) RemoveCardFromDeck(ctx context.Context, ownerID OwnerID, deckID string, reservationID string, quantity int) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := NewCopyCount(quantity); err != nil {
			return err
		}
		if _, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID); err != nil {
			return err
		}
		reservation, err := transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if reservation.DeckID != deckID {
			return fmt.Errorf("%w: reservation belongs to another deck", ErrNotFound)
		}
		if _, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), reservation.InventoryRowID); err != nil {
			return err
		}
		remaining := reservation.Quantity - quantity
		if remaining > 0 {
			if err := transactionStore.SetReservationQuantity(ctx, reservation.ID, remaining); err != nil {
				return err
			}
		} else {
			if err := transactionStore.DeleteReservation(ctx, reservation.ID); err != nil {
				return err
			}
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationRemoveCard,
			ItemType:       itemTypeInventoryRow,
			ItemID:         reservation.InventoryRowID,
			QuantityDelta:  -quantity,
			PayloadJSON:    fmt.Sprintf(`{"deck_id":%q}`, deckID),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationRemoveCard,
		OwnerID:       ownerID,
		DeckID:        deckID,
		ReservationID: reservationID,
		Quantity:      quantity,
		Error:         operationError,
	})
	return operationError
}

// AutoFillDeck fills every slot of a deck toward its required count using the
// selection policy. Returns per-slot outcomes; already-filled slots report
// zero newly filled copies. Idempotent: a second run reserves nothing new.
func (service *Service) AutoFillDeck(ctx context.Context, ownerID OwnerID, deckID string) ([]SlotFill, error) {
	var report []SlotFill
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		deck, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID)
		if err != nil {
			return err
		}
		slots, err := transactionStore.GetDeckSlots(ctx, deck.ID)
		if err != nil {
			return err
		}
		report, err = service.fillSlots(ctx, transactionStore, ownerID, deck, slots)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationAutoFill,
		OwnerID:   ownerID,
		DeckID:    deckID,
		Error:     operationError,
	})
	return report, operationError
}

// AutoFillSlot fills a single slot with at most count copies. The UI uses
// this for a single-card fill gesture.
func (service *Service) AutoFillSlot(ctx context.Context, ownerID OwnerID, deckID string, cardName string, count int) (SlotFill, error) {
	var fill SlotFill
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := NewCopyCount(count); err != nil {
			return err
		}
		deck, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID)
		if err != nil {
			return err
		}
		slots, err := transactionStore.GetDeckSlots(ctx, deck.ID)
		if err != nil {
			return err
		}
		cardKey := NormalizeName(cardName)
		var slot DeckSlot
		found := false
		for _, candidate := range slots {
			if candidate.CardKey == cardKey {
				slot = candidate
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: deck has no slot for %q", ErrNotFound, cardName)
		}
		reservedByKey, _, err := service.deckReservationTotals(ctx, transactionStore, ownerID, deck.ID)
		if err != nil {
			return err
		}
		reserved := reservedByKey[slot.CardKey]
		toFill := count
		if deficit := slot.Required - reserved; service.fillMode == FillModeStrict && toFill > deficit {
			toFill = deficit
		}
		fill, err = service.fillOneSlot(ctx, transactionStore, ownerID, deck, slot, reserved, toFill)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationAutoFillSlot,
		OwnerID:   ownerID,
		DeckID:    deckID,
		Quantity:  count,
		Error:     operationError,
	})
	return fill, operationError
}

// ReoptimizeDeck releases every reservation of the deck and refills all slots
// in one pass inside a single transaction, so older or cheaper copies that
// have become available supplant the previous picks.
func (service *Service) ReoptimizeDeck(ctx context.Context, ownerID OwnerID, deckID string) ([]SlotFill, error) {
	var report []SlotFill
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		deck, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID)
		if err != nil {
			return err
		}
		reservations, err := transactionStore.ListDeckReservations(ctx, deck.ID)
		if err != nil {
			return err
		}
		if _, err := service.lockReservedRows(ctx, transactionStore, ownerID, reservations); err != nil {
			return err
		}
		if err := transactionStore.DeleteDeckReservations(ctx, deck.ID); err != nil {
			return err
		}
		slots, err := transactionStore.GetDeckSlots(ctx, deck.ID)
		if err != nil {
			return err
		}
		report, err = service.fillSlots(ctx, transactionStore, ownerID, deck, slots)
		return err
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationReoptimize,
		OwnerID:   ownerID,
		DeckID:    deckID,
		Error:     operationError,
	})
	return report, operationError
}

// ReleaseDeck drops every reservation of the deck and deletes the deck.
// Inventory quantities are unchanged; the copies become available again.
func (service *Service) ReleaseDeck(ctx context.Context, ownerID OwnerID, deckID string) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		deck, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID)
		if err != nil {
			return err
		}
		reservations, err := transactionStore.ListDeckReservations(ctx, deck.ID)
		if err != nil {
			return err
		}
		rows, err := service.lockReservedRows(ctx, transactionStore, ownerID, reservations)
		if err != nil {
			return err
		}
		if service.restoreFolderOnRelease {
			if err := service.restoreFolders(ctx, transactionStore, ownerID, reservations, rows); err != nil {
				return err
			}
		}
		if err := transactionStore.DeleteDeckReservations(ctx, deck.ID); err != nil {
			return err
		}
		if err := transactionStore.DeleteDeck(ctx, ownerID.String(), deck.ID); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationRelease,
			ItemType:       itemTypeDeck,
			ItemID:         deck.ID,
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationRelease,
		OwnerID:   ownerID,
		DeckID:    deckID,
		Error:     operationError,
	})
	return operationError
}

// fillSlots runs the selection policy across all slots in order.
func (service *Service) fillSlots(ctx context.Context, transactionStore Store, ownerID OwnerID, deck Deck, slots []DeckSlot) ([]SlotFill, error) {
	reservedByKey, _, err := service.deckReservationTotals(ctx, transactionStore, ownerID, deck.ID)
	if err != nil {
		return nil, err
	}
	report := make([]SlotFill, 0, len(slots))
	for _, slot := range slots {
		reserved := reservedByKey[slot.CardKey]
		remaining := slot.Required - reserved
		fill, err := service.fillOneSlot(ctx, transactionStore, ownerID, deck, slot, reserved, remaining)
		if err != nil {
			return nil, err
		}
		report = append(report, fill)
	}
	return report, nil
}

// fillOneSlot reserves up to remaining copies for a slot. Candidate rows are
// locked in ascending id order before availability is re-checked.
func (service *Service) fillOneSlot(ctx context.Context, transactionStore Store, ownerID OwnerID, deck Deck, slot DeckSlot, alreadyReserved int, remaining int) (SlotFill, error) {
	fill := SlotFill{
		CardName: slot.CardName,
		Required: slot.Required,
		Reserved: alreadyReserved,
	}
	if remaining <= 0 {
		fill.StillMissing = missingFor(slot.Required, alreadyReserved)
		return fill, nil
	}
	candidates, err := transactionStore.SlotCandidates(ctx, ownerID.String(), slot.CardKey)
	if err != nil {
		return SlotFill{}, err
	}
	picks := SelectCopies(candidates, remaining)
	sort.Slice(picks, func(i, j int) bool { return picks[i].InventoryRowID < picks[j].InventoryRowID })
	for _, pick := range picks {
		row, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), pick.InventoryRowID)
		if err != nil {
			return SlotFill{}, err
		}
		take := pick.Take
		if available := row.Available(); take > available {
			take = available
		}
		if take <= 0 {
			continue
		}
		if _, err := service.upsertReservation(ctx, transactionStore, deck.ID, row, take); err != nil {
			return SlotFill{}, err
		}
		fill.Filled += take
		fill.Reserved += take
	}
	fill.StillMissing = missingFor(slot.Required, fill.Reserved)
	return fill, nil
}

// upsertReservation merges into an existing reservation for the same
// (deck, row) pair or inserts a new one snapshotting the row's folder.
func (service *Service) upsertReservation(ctx context.Context, transactionStore Store, deckID string, row InventoryRow, take int) (Reservation, error) {
	existing, found, err := transactionStore.FindReservation(ctx, deckID, row.ID)
	if err != nil {
		return Reservation{}, err
	}
	if found {
		existing.Quantity += take
		if err := transactionStore.SetReservationQuantity(ctx, existing.ID, existing.Quantity); err != nil {
			return Reservation{}, err
		}
		return existing, nil
	}
	return transactionStore.InsertReservation(ctx, Reservation{
		DeckID:         deckID,
		InventoryRowID: row.ID,
		Quantity:       take,
		OriginalFolder: row.Folder,
		CreatedUnixUTC: service.nowFn(),
	})
}

// checkSlotCap enforces the STRICT slot cap for a pending take. A card that
// has no slot in the deck has a required count of zero.
func (service *Service) checkSlotCap(ctx context.Context, transactionStore Store, deckID string, row InventoryRow, take int) error {
	slots, err := transactionStore.GetDeckSlots(ctx, deckID)
	if err != nil {
		return err
	}
	required := 0
	for _, slot := range slots {
		if MatchesSlot(row, slot) {
			required = slot.Required
			break
		}
	}
	reservedByKey, _, err := service.deckReservationTotals(ctx, transactionStore, OwnerID{value: row.OwnerID}, deckID)
	if err != nil {
		return err
	}
	if reservedByKey[row.CardKey]+take > required {
		return fmt.Errorf("%w: slot %q holds %d of %d", ErrSlotOverfilled, row.CardName, reservedByKey[row.CardKey], required)
	}
	return nil
}

// deckReservationTotals sums reserved quantities per normalized card key and
// returns the referenced rows keyed by id.
func (service *Service) deckReservationTotals(ctx context.Context, transactionStore Store, ownerID OwnerID, deckID string) (map[string]int, map[string]InventoryRow, error) {
	reservations, err := transactionStore.ListDeckReservations(ctx, deckID)
	if err != nil {
		return nil, nil, err
	}
	totals := make(map[string]int, len(reservations))
	rows := make(map[string]InventoryRow, len(reservations))
	for _, reservation := range reservations {
		row, err := transactionStore.GetInventoryRow(ctx, ownerID.String(), reservation.InventoryRowID)
		if err != nil {
			return nil, nil, err
		}
		totals[row.CardKey] += reservation.Quantity
		rows[row.ID] = row
	}
	return totals, rows, nil
}

// lockReservedRows locks every row referenced by the reservations in
// ascending id order and returns them keyed by id.
func (service *Service) lockReservedRows(ctx context.Context, transactionStore Store, ownerID OwnerID, reservations []Reservation) (map[string]InventoryRow, error) {
	ids := make([]string, 0, len(reservations))
	seen := make(map[string]bool, len(reservations))
	for _, reservation := range reservations {
		if seen[reservation.InventoryRowID] {
			continue
		}
		seen[reservation.InventoryRowID] = true
		ids = append(ids, reservation.InventoryRowID)
	}
	sort.Strings(ids)
	rows := make(map[string]InventoryRow, len(ids))
	for _, id := range ids {
		row, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), id)
		if err != nil {
			return nil, err
		}
		rows[id] = row
	}
	return rows, nil
}

// restoreFolders rewrites each reserved row's folder back to the snapshot
// taken at reservation time, but only for rows with no reservations beyond
// the ones being released.
func (service *Service) restoreFolders(ctx context.Context, transactionStore Store, ownerID OwnerID, reservations []Reservation, rows map[string]InventoryRow) error {
	releasedByRow := make(map[string]int, len(reservations))
	for _, reservation := range reservations {
		releasedByRow[reservation.InventoryRowID] += reservation.Quantity
	}
	for _, reservation := range reservations {
		if reservation.OriginalFolder == "" {
			continue
		}
		row, ok := rows[reservation.InventoryRowID]
		if !ok || row.Folder == reservation.OriginalFolder {
			continue
		}
		if row.Reserved > releasedByRow[row.ID] {
			continue
		}
		if err := transactionStore.SetInventoryFolder(ctx, ownerID.String(), row.ID, reservation.OriginalFolder); err != nil {
			return err
		}
	}
	return nil
}

// withTx runs fn in one transaction and retries a bounded number of times on
// optimistic-concurrency conflicts.
func (service *Service) withTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	var operationError error
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		operationError = service.store.WithTx(ctx, fn)
		if !errors.Is(operationError, ErrConflict) {
			return operationError
		}
	}
	return operationError
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}

func missingFor(required int, reserved int) int {
	if reserved >= required {
		return 0
	}
	return required - reserved
}
