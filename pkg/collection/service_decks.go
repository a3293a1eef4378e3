package collection

import (
	"context"
	"fmt"
	"strings"
)

// NewDeckInput carries the caller-supplied fields for a new deck.
type NewDeckInput struct {
	Name       string
	Commander  string
	Format     string
	IsInstance bool
}

// CreateDeck creates a decklist definition.
func (service *Service) CreateDeck(ctx context.Context, ownerID OwnerID, input NewDeckInput) (Deck, error) {
	var created Deck
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidDeckName)
		}
		var err error
		created, err = transactionStore.CreateDeck(ctx, Deck{
			OwnerID:        ownerID.String(),
			Name:           name,
			Commander:      strings.TrimSpace(input.Commander),
			Format:         strings.TrimSpace(input.Format),
			IsInstance:     input.IsInstance,
			CreatedUnixUTC: service.nowFn(),
		})
		if err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationCreateDeck,
			ItemType:       itemTypeDeck,
			ItemID:         created.ID,
			PayloadJSON:    fmt.Sprintf(`{"name":%q}`, created.Name),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationCreateDeck,
		OwnerID:   ownerID,
		DeckID:    created.ID,
		Error:     operationError,
	})
	return created, operationError
}

// SetDeckSlots replaces the decklist. Duplicate card names merge by summing
// required counts; non-positive counts are rejected.
func (service *Service) SetDeckSlots(ctx context.Context, ownerID OwnerID, deckID string, inputs []SlotInput) ([]DeckSlot, error) {
	var slots []DeckSlot
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		deck, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID)
		if err != nil {
			return err
		}
		slots, err = NewDeckSlots(inputs)
		if err != nil {
			return err
		}
		if err := transactionStore.ReplaceDeckSlots(ctx, deck.ID, slots); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationSetSlots,
			ItemType:       itemTypeDeck,
			ItemID:         deck.ID,
			QuantityDelta:  len(slots),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationSetSlots,
		OwnerID:   ownerID,
		DeckID:    deckID,
		Error:     operationError,
	})
	return slots, operationError
}

// RenameDeck changes a deck's display name.
func (service *Service) RenameDeck(ctx context.Context, ownerID OwnerID, deckID string, name string) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return fmt.Errorf("%w: empty name", ErrInvalidDeckName)
		}
		if _, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID); err != nil {
			return err
		}
		if err := transactionStore.RenameDeck(ctx, ownerID.String(), deckID, trimmed); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationRenameDeck,
			ItemType:       itemTypeDeck,
			ItemID:         deckID,
			PayloadJSON:    fmt.Sprintf(`{"name":%q}`, trimmed),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationRenameDeck,
		OwnerID:   ownerID,
		DeckID:    deckID,
		Error:     operationError,
	})
	return operationError
}

// DeleteDeck removes a deck that holds no reservations. Decks with
// reservations go through ReleaseDeck or SellDeck instead.
func (service *Service) DeleteDeck(ctx context.Context, ownerID OwnerID, deckID string) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		deck, err := transactionStore.GetDeck(ctx, ownerID.String(), deckID)
		if err != nil {
			return err
		}
		reservations, err := transactionStore.ListDeckReservations(ctx, deck.ID)
		if err != nil {
			return err
		}
		if len(reservations) > 0 {
			return fmt.Errorf("%w: %d reservations", ErrDeckHasReservations, len(reservations))
		}
		if err := transactionStore.DeleteDeck(ctx, ownerID.String(), deck.ID); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationDeleteDeck,
			ItemType:       itemTypeDeck,
			ItemID:         deck.ID,
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationDeleteDeck,
		OwnerID:   ownerID,
		DeckID:    deckID,
		Error:     operationError,
	})
	return operationError
}

// DeckDetails computes the deck read model from committed state.
func (service *Service) DeckDetails(ctx context.Context, ownerID OwnerID, deckID string) (DeckView, error) {
	deck, err := service.store.GetDeck(ctx, ownerID.String(), deckID)
	if err != nil {
		return DeckView{}, err
	}
	slots, err := service.store.GetDeckSlots(ctx, deck.ID)
	if err != nil {
		return DeckView{}, err
	}
	reservations, err := service.store.ListDeckReservations(ctx, deck.ID)
	if err != nil {
		return DeckView{}, err
	}
	rowsByID := make(map[string]InventoryRow, len(reservations))
	for _, reservation := range reservations {
		if _, ok := rowsByID[reservation.InventoryRowID]; ok {
			continue
		}
		row, err := service.store.GetInventoryRow(ctx, ownerID.String(), reservation.InventoryRowID)
		if err != nil {
			return DeckView{}, err
		}
		rowsByID[row.ID] = row
	}
	return ProjectDeckView(deck, slots, reservations, rowsByID), nil
}
