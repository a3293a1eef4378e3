package collection

import (
	"context"
	"fmt"
	"strings"
)

// AddInventoryRow creates a new inventory row. The folder defaults to
// Uncategorized and the quantity must be at least one.
func (service *Service) AddInventoryRow(ctx context.Context, ownerID OwnerID, input NewInventoryRowInput) (InventoryRow, error) {
	var created InventoryRow
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		name := strings.TrimSpace(input.CardName)
		if name == "" {
			return fmt.Errorf("%w: empty card name", ErrInvalidCardName)
		}
		if _, err := NewCopyCount(input.Quantity); err != nil {
			return err
		}
		price, err := NewPriceCents(input.PurchasePriceCents)
		if err != nil {
			return err
		}
		folder := strings.TrimSpace(input.Folder)
		if folder == "" {
			folder = FolderUncategorized
		}
		created, err = transactionStore.InsertInventoryRow(ctx, InventoryRow{
			OwnerID:            ownerID.String(),
			CardName:           name,
			CardKey:            NormalizeName(name),
			SetCode:            NormalizeSetCode(input.SetCode),
			SetName:            strings.TrimSpace(input.SetName),
			Quantity:           input.Quantity,
			Folder:             folder,
			PurchasePriceCents: price.Int64(),
			Foil:               input.Foil,
			Quality:            strings.TrimSpace(input.Quality),
			ImageURL:           input.ImageURL,
			ExternalID:         input.ExternalID,
			CreatedUnixUTC:     service.nowFn(),
		})
		if err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationInsertRow,
			ItemType:       itemTypeInventoryRow,
			ItemID:         created.ID,
			QuantityDelta:  created.Quantity,
			PayloadJSON:    fmt.Sprintf(`{"card_name":%q,"folder":%q}`, created.CardName, created.Folder),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationInsertRow,
		OwnerID:        ownerID,
		InventoryRowID: created.ID,
		Quantity:       input.Quantity,
		Error:          operationError,
	})
	return created, operationError
}

// UpdateInventoryRow applies a partial update. Quantity changes that would
// drop below the reserved count are rejected.
func (service *Service) UpdateInventoryRow(ctx context.Context, ownerID OwnerID, inventoryRowID string, patch InventoryPatch) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		row, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), inventoryRowID)
		if err != nil {
			return err
		}
		if patch.Quantity != nil {
			if *patch.Quantity < 0 {
				return fmt.Errorf("%w: negative quantity", ErrInvalidQuantity)
			}
			if *patch.Quantity < row.Reserved {
				return fmt.Errorf("%w: %d copies reserved", ErrInsufficientQuantity, row.Reserved)
			}
		}
		if patch.PurchasePriceCents != nil {
			if _, err := NewPriceCents(*patch.PurchasePriceCents); err != nil {
				return err
			}
		}
		if patch.CardName != nil {
			if strings.TrimSpace(*patch.CardName) == "" {
				return fmt.Errorf("%w: empty card name", ErrInvalidCardName)
			}
		}
		if patch.Folder != nil {
			if _, err := NewFolder(*patch.Folder); err != nil {
				return err
			}
		}
		if err := transactionStore.UpdateInventoryRow(ctx, ownerID.String(), row.ID, patch); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationUpdateRow,
			ItemType:       itemTypeInventoryRow,
			ItemID:         row.ID,
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationUpdateRow,
		OwnerID:        ownerID,
		InventoryRowID: inventoryRowID,
		Error:          operationError,
	})
	return operationError
}

// AdjustInventoryQuantity applies an atomic quantity delta. The result may
// not go negative or below the reserved count.
func (service *Service) AdjustInventoryQuantity(ctx context.Context, ownerID OwnerID, inventoryRowID string, delta int) error {
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		row, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), inventoryRowID)
		if err != nil {
			return err
		}
		adjusted := row.Quantity + delta
		if adjusted < 0 || adjusted < row.Reserved {
			return fmt.Errorf("%w: %d copies, %d reserved, delta %d", ErrInsufficientQuantity, row.Quantity, row.Reserved, delta)
		}
		if err := transactionStore.SetInventoryQuantity(ctx, ownerID.String(), row.ID, adjusted); err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationAdjustRow,
			ItemType:       itemTypeInventoryRow,
			ItemID:         row.ID,
			QuantityDelta:  delta,
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationAdjustRow,
		OwnerID:        ownerID,
		InventoryRowID: inventoryRowID,
		Quantity:       delta,
		Error:          operationError,
	})
	return operationError
}

// PurgeTrash permanently deletes every row in the Trash folder. A reserved
// row anywhere in the trash aborts the whole purge.
func (service *Service) PurgeTrash(ctx context.Context, ownerID OwnerID) (int, error) {
	purged := 0
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		trashRows, err := transactionStore.ListTrashRows(ctx, ownerID.String())
		if err != nil {
			return err
		}
		// The listed rows are a stale read; only the state returned by the
		// lock decides whether a row may be deleted.
		locked := make([]InventoryRow, 0, len(trashRows))
		for _, row := range trashRows {
			current, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), row.ID)
			if err != nil {
				return err
			}
			if current.Reserved > 0 {
				return fmt.Errorf("%w: %q has %d reserved copies", ErrReservedRowInTrash, current.CardName, current.Reserved)
			}
			locked = append(locked, current)
		}
		for _, row := range locked {
			if err := transactionStore.DeleteInventoryRow(ctx, ownerID.String(), row.ID); err != nil {
				return err
			}
			purged++
		}
		if purged == 0 {
			return nil
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationPurgeTrash,
			ItemType:       itemTypeInventoryRow,
			QuantityDelta:  -purged,
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation: operationPurgeTrash,
		OwnerID:   ownerID,
		Quantity:  purged,
		Error:     operationError,
	})
	if operationError != nil {
		return 0, operationError
	}
	return purged, nil
}

// ListInventory lists rows for one folder, or every non-trash row when the
// folder is empty.
func (service *Service) ListInventory(ctx context.Context, ownerID OwnerID, folder string) ([]InventoryRow, error) {
	return service.store.ListInventory(ctx, ownerID.String(), strings.TrimSpace(folder))
}

// GetInventoryRow fetches one row with its derived reserved count.
func (service *Service) GetInventoryRow(ctx context.Context, ownerID OwnerID, inventoryRowID string) (InventoryRow, error) {
	return service.store.GetInventoryRow(ctx, ownerID.String(), inventoryRowID)
}

// FolderSummaries aggregates the owner's folders: unique cards, available
// copies, and value at purchase price. Trash is reported as its own folder.
func (service *Service) FolderSummaries(ctx context.Context, ownerID OwnerID) ([]FolderSummary, error) {
	return service.store.FolderSummaries(ctx, ownerID.String())
}
