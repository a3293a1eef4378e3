package collection

import (
	"context"
	"fmt"
)

// MoveCardBetweenDecks moves a reservation to another deck of the same owner,
// preserving its quantity. Reservations for the same row in the target deck
// are merged. Fails with ErrNotFound when the target deck is gone.
func (service *Service) MoveCardBetweenDecks(ctx context.Context, ownerID OwnerID, reservationID string, targetDeckID string) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if _, err := transactionStore.GetDeck(ctx, ownerID.String(), reservation.DeckID); err != nil {
			return err
		}
		if reservation.DeckID == targetDeckID {
			return nil
		}
		target, err := transactionStore.GetDeck(ctx, ownerID.String(), targetDeckID)
		if err != nil {
			return err
		}
		if _, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), reservation.InventoryRowID); err != nil {
			return err
		}
		existing, found, err := transactionStore.FindReservation(ctx, target.ID, reservation.InventoryRowID)
		if err != nil {
			return err
		}
		if found {
			if err := transactionStore.SetReservationQuantity(ctx, existing.ID, existing.Quantity+reservation.Quantity); err != nil {
				return err
			}
			if err := transactionStore.DeleteReservation(ctx, reservation.ID); err != nil {
				return err
			}
		} else if err := transactionStore.SetReservationDeck(ctx, reservation.ID, target.ID); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationMoveDeck,
			ItemType:       itemTypeInventoryRow,
			ItemID:         reservation.InventoryRowID,
			QuantityDelta:  reservation.Quantity,
			PayloadJSON:    fmt.Sprintf(`{"from_deck_id":%q,"to_deck_id":%q}`, reservation.DeckID, target.ID),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationMoveDeck,
		OwnerID:       ownerID,
		DeckID:        targetDeckID,
		ReservationID: reservationID,
		Error:         operationError,
	})
	return operationError
}

// MoveCardFromDeckToFolder drops a reservation and moves its inventory row
// into the target folder in one transaction.
func (service *Service) MoveCardFromDeckToFolder(ctx context.Context, ownerID OwnerID, reservationID string, targetFolder Folder) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		reservation, err := transactionStore.GetReservation(ctx, reservationID)
		if err != nil {
			return err
		}
		if _, err := transactionStore.GetDeck(ctx, ownerID.String(), reservation.DeckID); err != nil {
			return err
		}
		if _, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), reservation.InventoryRowID); err != nil {
			return err
		}
		if err := transactionStore.DeleteReservation(ctx, reservation.ID); err != nil {
			return err
		}
		if err := transactionStore.SetInventoryFolder(ctx, ownerID.String(), reservation.InventoryRowID, targetFolder.String()); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationMoveToFolder,
			ItemType:       itemTypeInventoryRow,
			ItemID:         reservation.InventoryRowID,
			QuantityDelta:  -reservation.Quantity,
			PayloadJSON:    fmt.Sprintf(`{"deck_id":%q,"folder":%q}`, reservation.DeckID, targetFolder.String()),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:     operationMoveToFolder,
		OwnerID:       ownerID,
		ReservationID: reservationID,
		Error:         operationError,
	})
	return operationError
}

// MoveInventoryToFolder changes a row's folder. Allowed while reservations
// exist; reservations keep their original-folder snapshot.
func (service *Service) MoveInventoryToFolder(ctx context.Context, ownerID OwnerID, inventoryRowID string, targetFolder Folder) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		row, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), inventoryRowID)
		if err != nil {
			return err
		}
		if row.Folder == targetFolder.String() {
			return nil
		}
		if err := transactionStore.SetInventoryFolder(ctx, ownerID.String(), row.ID, targetFolder.String()); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationMoveInventory,
			ItemType:       itemTypeInventoryRow,
			ItemID:         row.ID,
			PayloadJSON:    fmt.Sprintf(`{"from":%q,"to":%q}`, row.Folder, targetFolder.String()),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationMoveInventory,
		OwnerID:        ownerID,
		InventoryRowID: inventoryRowID,
		Error:          operationError,
	})
	return operationError
}
