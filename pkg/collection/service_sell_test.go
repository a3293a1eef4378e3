package collection

import (
	"context"
	"errors"
	"testing"
)

func TestSellDeckConsumesReservedCopies(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Lightning Bolt", Quantity: 4, PurchasePriceCents: 100})
	store.seedRow(test, InventoryRow{ID: "row-b", OwnerID: testOwnerValue, CardName: "Sol Ring", Quantity: 1, PurchasePriceCents: 250})
	store.seedDeck(test, testOwnerValue, "deck-1", "Burn", nil)
	store.seedReservation(test, Reservation{ID: "res-a", DeckID: "deck-1", InventoryRowID: "row-a", Quantity: 3})
	store.seedReservation(test, Reservation{ID: "res-b", DeckID: "deck-1", InventoryRowID: "row-b", Quantity: 1})
	service := mustNewService(test, store)

	sale, err := service.SellDeck(context.Background(), ownerID, "deck-1", mustPrice(test, 1000))
	if err != nil {
		test.Fatalf("sell deck: %v", err)
	}
	if sale.ItemType != SaleItemDeck || sale.Quantity != 1 {
		test.Fatalf("unexpected sale record: %+v", sale)
	}
	if sale.PurchasePriceCents != 550 {
		test.Fatalf("expected cost basis 550, got %d", sale.PurchasePriceCents)
	}
	if sale.ProfitCents != 450 {
		test.Fatalf("expected profit 450, got %d", sale.ProfitCents)
	}
	rowA, err := store.GetInventoryRow(context.Background(), testOwnerValue, "row-a")
	if err != nil {
		test.Fatalf("get row-a: %v", err)
	}
	if rowA.Quantity != 1 {
		test.Fatalf("expected row-a decremented to 1, got %d", rowA.Quantity)
	}
	if _, ok := store.rows["row-b"]; ok {
		test.Fatalf("expected row-b deleted at zero copies")
	}
	if _, ok := store.decks["deck-1"]; ok {
		test.Fatalf("expected deck deleted after sale")
	}
	if len(store.reservations) != 0 {
		test.Fatalf("expected reservations consumed, got %d", len(store.reservations))
	}
}

func TestSellDeckWithoutReservations(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedDeck(test, testOwnerValue, "deck-1", "Empty", []DeckSlot{mustSlot("Sol Ring", 1)})
	service := mustNewService(test, store)

	sale, err := service.SellDeck(context.Background(), ownerID, "deck-1", mustPrice(test, 500))
	if err != nil {
		test.Fatalf("sell deck: %v", err)
	}
	if sale.PurchasePriceCents != 0 || sale.ProfitCents != 500 {
		test.Fatalf("unexpected sale for empty deck: %+v", sale)
	}
	if _, ok := store.decks["deck-1"]; ok {
		test.Fatalf("expected deck deleted")
	}
}

func TestSellDeckUnknownDeck(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	service := mustNewService(test, store)

	_, err := service.SellDeck(context.Background(), ownerID, "deck-missing", mustPrice(test, 100))
	if !errors.Is(err, ErrNotFound) {
		test.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSellCardDecrementsQuantity(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Lightning Bolt", Quantity: 5, PurchasePriceCents: 100})
	service := mustNewService(test, store)

	sale, err := service.SellCard(context.Background(), ownerID, "row-a", mustPrice(test, 150), 2)
	if err != nil {
		test.Fatalf("sell card: %v", err)
	}
	if sale.ItemType != SaleItemCard || sale.Quantity != 2 {
		test.Fatalf("unexpected sale record: %+v", sale)
	}
	if sale.ProfitCents != 100 {
		test.Fatalf("expected profit 100, got %d", sale.ProfitCents)
	}
	row, err := store.GetInventoryRow(context.Background(), testOwnerValue, "row-a")
	if err != nil {
		test.Fatalf("get row: %v", err)
	}
	if row.Quantity != 3 {
		test.Fatalf("expected 3 remaining, got %d", row.Quantity)
	}
}

func TestSellCardDeletesRowAtZero(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Lightning Bolt", Quantity: 2, PurchasePriceCents: 100})
	service := mustNewService(test, store)

	if _, err := service.SellCard(context.Background(), ownerID, "row-a", mustPrice(test, 150), 2); err != nil {
		test.Fatalf("sell card: %v", err)
	}
	if _, ok := store.rows["row-a"]; ok {
		test.Fatalf("expected row deleted at zero copies")
	}
}

func TestSellCardRejectsReservedCopies(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Lightning Bolt", Quantity: 4, PurchasePriceCents: 100})
	store.seedDeck(test, testOwnerValue, "deck-1", "Burn", nil)
	store.seedReservation(test, Reservation{ID: "res-1", DeckID: "deck-1", InventoryRowID: "row-a", Quantity: 3})
	service := mustNewService(test, store)

	_, err := service.SellCard(context.Background(), ownerID, "row-a", mustPrice(test, 150), 2)
	if !errors.Is(err, ErrInsufficientQuantity) {
		test.Fatalf("expected ErrInsufficientQuantity, got %v", err)
	}
}

func TestDeleteDeckBlockedByReservations(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Sol Ring", Quantity: 1})
	store.seedDeck(test, testOwnerValue, "deck-1", "Artifacts", nil)
	store.seedReservation(test, Reservation{ID: "res-1", DeckID: "deck-1", InventoryRowID: "row-a", Quantity: 1})
	service := mustNewService(test, store)

	err := service.DeleteDeck(context.Background(), ownerID, "deck-1")
	if !errors.Is(err, ErrDeckHasReservations) {
		test.Fatalf("expected ErrDeckHasReservations, got %v", err)
	}
	if _, ok := store.decks["deck-1"]; !ok {
		test.Fatalf("deck must survive a blocked delete")
	}
}

func TestPurgeTrashDeletesUnreservedRows(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Chaff One", Quantity: 1, Folder: FolderTrash})
	store.seedRow(test, InventoryRow{ID: "row-b", OwnerID: testOwnerValue, CardName: "Chaff Two", Quantity: 3, Folder: FolderTrash})
	store.seedRow(test, InventoryRow{ID: "row-c", OwnerID: testOwnerValue, CardName: "Keeper", Quantity: 1, Folder: "Binder"})
	service := mustNewService(test, store)

	purged, err := service.PurgeTrash(context.Background(), ownerID)
	if err != nil {
		test.Fatalf("purge: %v", err)
	}
	if purged != 2 {
		test.Fatalf("expected 2 purged rows, got %d", purged)
	}
	if _, ok := store.rows["row-c"]; !ok {
		test.Fatalf("purge must not touch rows outside the trash")
	}
}

func TestPurgeTrashAbortsOnReservedRow(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Chaff", Quantity: 1, Folder: FolderTrash})
	store.seedRow(test, InventoryRow{ID: "row-b", OwnerID: testOwnerValue, CardName: "Still Wanted", Quantity: 1, Folder: FolderTrash})
	store.seedDeck(test, testOwnerValue, "deck-1", "Deck", nil)
	store.seedReservation(test, Reservation{ID: "res-1", DeckID: "deck-1", InventoryRowID: "row-b", Quantity: 1})
	service := mustNewService(test, store)

	_, err := service.PurgeTrash(context.Background(), ownerID)
	if !errors.Is(err, ErrReservedRowInTrash) {
		test.Fatalf("expected ErrReservedRowInTrash, got %v", err)
	}
	if len(store.rows) != 2 {
		test.Fatalf("a blocked purge must delete nothing, %d rows left", len(store.rows))
	}
}

func TestPurgeTrashUsesLockedStateNotListedState(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Wanted Again", Quantity: 2, Folder: FolderTrash})
	store.seedDeck(test, testOwnerValue, "deck-1", "Deck", nil)
	// A reservation lands on the row after the trash listing but before the
	// row lock, as a concurrent add-card commit would under row locking.
	store.beforeLockRow = func(rowID string) {
		if rowID != "row-a" {
			return
		}
		store.beforeLockRow = nil
		store.reservations["res-1"] = Reservation{ID: "res-1", DeckID: "deck-1", InventoryRowID: "row-a", Quantity: 1}
	}
	service := mustNewService(test, store)

	_, err := service.PurgeTrash(context.Background(), ownerID)
	if !errors.Is(err, ErrReservedRowInTrash) {
		test.Fatalf("expected ErrReservedRowInTrash, got %v", err)
	}
	if _, ok := store.rows["row-a"]; !ok {
		test.Fatalf("a row reserved at lock time must survive the purge")
	}
}

func TestListSalesUsesDefaultLimit(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	ownerID := mustOwnerID(test, testOwnerValue)
	store.sales = append(store.sales, Sale{ID: "sale-1", OwnerID: testOwnerValue, ItemType: SaleItemCard})
	service := mustNewService(test, store)

	sales, err := service.ListSales(context.Background(), ownerID, 0)
	if err != nil {
		test.Fatalf("list sales: %v", err)
	}
	if len(sales) != 1 {
		test.Fatalf("expected 1 sale, got %d", len(sales))
	}
}
