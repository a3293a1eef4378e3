package collection

import (
	"context"
	"fmt"
)

// SellDeck consumes a deck's reservations in one transaction: the cost basis
// is summed, each referenced row's quantity is decremented by the reserved
// count (rows reaching zero are deleted), reservations and the deck are
// removed, and a deck sale is recorded.
func (service *Service) SellDeck(ctx context.Context, ownerID OwnerID, deckID string, sellPrice PriceCents) (Sale, error) {
	var sale Sale
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
		var costBasisCents int64
		consumedByRow := make(map[string]int, len(reservations))
		for _, reservation := range reservations {
			row, ok := rows[reservation.InventoryRowID]
			if !ok {
				return fmt.Errorf("%w: reserved row %s", ErrNotFound, reservation.InventoryRowID)
			}
			costBasisCents += int64(reservation.Quantity) * row.PurchasePriceCents
			consumedByRow[row.ID] += reservation.Quantity
		}
		if err := transactionStore.DeleteDeckReservations(ctx, deck.ID); err != nil {
			return err
		}
		for rowID, consumed := range consumedByRow {
			row := rows[rowID]
			remaining := row.Quantity - consumed
			if remaining < 0 {
				return fmt.Errorf("%w: row %s over-reserved", ErrConflict, rowID)
			}
			if remaining == 0 {
				if err := transactionStore.DeleteInventoryRow(ctx, ownerID.String(), rowID); err != nil {
					return err
				}
				continue
			}
			if err := transactionStore.SetInventoryQuantity(ctx, ownerID.String(), rowID, remaining); err != nil {
				return err
			}
		}
		if err := transactionStore.DeleteDeck(ctx, ownerID.String(), deck.ID); err != nil {
			return err
		}
		sale, err = transactionStore.InsertSale(ctx, Sale{
			OwnerID:            ownerID.String(),
			ItemType:           SaleItemDeck,
			ItemID:             deck.ID,
			ItemName:           deck.Name,
			PurchasePriceCents: costBasisCents,
			SellPriceCents:     sellPrice.Int64(),
			Quantity:           1,
			ProfitCents:        sellPrice.Int64() - costBasisCents,
			CreatedUnixUTC:     service.nowFn(),
		})
		if err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationSellDeck,
			ItemType:       itemTypeDeck,
			ItemID:         deck.ID,
			PayloadJSON:    fmt.Sprintf(`{"sale_id":%q,"sell_price_cents":%d}`, sale.ID, sellPrice.Int64()),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:   operationSellDeck,
		OwnerID:     ownerID,
		DeckID:      deckID,
		AmountCents: sellPrice,
		Error:       operationError,
	})
	return sale, operationError
}

// SellCard sells copies straight out of inventory. The quantity must not
// exceed the row's available (unreserved) count; a row reaching zero copies
// is deleted.
func (service *Service) SellCard(ctx context.Context, ownerID OwnerID, inventoryRowID string, sellPrice PriceCents, quantity int) (Sale, error) {
	var sale Sale
	operationError := service.withTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if _, err := NewCopyCount(quantity); err != nil {
			return err
		}
		row, err := transactionStore.LockInventoryRow(ctx, ownerID.String(), inventoryRowID)
		if err != nil {
			return err
		}
		if quantity > row.Available() {
			return fmt.Errorf("%w: %d requested, %d available", ErrInsufficientQuantity, quantity, row.Available())
		}
		remaining := row.Quantity - quantity
		if remaining == 0 {
			if err := transactionStore.DeleteInventoryRow(ctx, ownerID.String(), row.ID); err != nil {
				return err
			}
		} else if err := transactionStore.SetInventoryQuantity(ctx, ownerID.String(), row.ID, remaining); err != nil {
			return err
		}
		sale, err = transactionStore.InsertSale(ctx, Sale{
			OwnerID:            ownerID.String(),
			ItemType:           SaleItemCard,
			ItemID:             row.ID,
			ItemName:           row.CardName,
			PurchasePriceCents: row.PurchasePriceCents,
			SellPriceCents:     sellPrice.Int64(),
			Quantity:           quantity,
			ProfitCents:        (sellPrice.Int64() - row.PurchasePriceCents) * int64(quantity),
			CreatedUnixUTC:     service.nowFn(),
		})
		if err != nil {
			return err
		}
		return transactionStore.AppendChangeLog(ctx, ChangeLogEntry{
			OwnerID:        ownerID.String(),
			Operation:      operationSellCard,
			ItemType:       itemTypeInventoryRow,
			ItemID:         row.ID,
			QuantityDelta:  -quantity,
			PayloadJSON:    fmt.Sprintf(`{"sale_id":%q,"sell_price_cents":%d}`, sale.ID, sellPrice.Int64()),
			CreatedUnixUTC: service.nowFn(),
		})
	})
	service.logOperation(ctx, OperationLog{
		Operation:      operationSellCard,
		OwnerID:        ownerID,
		InventoryRowID: inventoryRowID,
		Quantity:       quantity,
		AmountCents:    sellPrice,
		Error:          operationError,
	})
	return sale, operationError
}

// ListSales returns the owner's most recent sales.
func (service *Service) ListSales(ctx context.Context, ownerID OwnerID, limit int) ([]Sale, error) {
	if limit <= 0 {
		limit = defaultSalesLimit
	}
	return service.store.ListSales(ctx, ownerID.String(), limit)
}
