package collection

import (
	"context"
	"errors"
	"testing"
)

var errStoreFailure = errors.New("store error")

func TestAddCardToDeckReturnsStoreErrors(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name      string
		configure func(store *stubStore)
	}{
		{
			name:      "deck lookup error",
			configure: func(store *stubStore) { store.getDeckError = errStoreFailure },
		},
		{
			name:      "row lock error",
			configure: func(store *stubStore) { store.lockRowError = errStoreFailure },
		},
		{
			name:      "reservation insert error",
			configure: func(store *stubStore) { store.insertReservationError = errStoreFailure },
		},
		{
			name:      "changelog append error",
			configure: func(store *stubStore) { store.appendLogError = errStoreFailure },
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			store := newStubStore(test)
			store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Sol Ring", Quantity: 4})
			store.seedDeck(test, testOwnerValue, "deck-1", "Deck", []DeckSlot{mustSlot("Sol Ring", 4)})
			testCase.configure(store)
			service := mustNewService(test, store)
			ownerID := mustOwnerID(test, testOwnerValue)

			_, err := service.AddCardToDeck(context.Background(), ownerID, "deck-1", "row-a", 1)
			if !errors.Is(err, errStoreFailure) {
				test.Fatalf("expected store error, got %v", err)
			}
		})
	}
}

func TestAutoFillDeckReturnsStoreErrors(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name      string
		configure func(store *stubStore)
	}{
		{
			name:      "candidate query error",
			configure: func(store *stubStore) { store.candidatesError = errStoreFailure },
		},
		{
			name:      "reservation list error",
			configure: func(store *stubStore) { store.listDeckReservationsError = errStoreFailure },
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			store := newStubStore(test)
			store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Sol Ring", Quantity: 4})
			store.seedDeck(test, testOwnerValue, "deck-1", "Deck", []DeckSlot{mustSlot("Sol Ring", 2)})
			testCase.configure(store)
			service := mustNewService(test, store)
			ownerID := mustOwnerID(test, testOwnerValue)

			_, err := service.AutoFillDeck(context.Background(), ownerID, "deck-1")
			if !errors.Is(err, errStoreFailure) {
				test.Fatalf("expected store error, got %v", err)
			}
		})
	}
}

func TestSellDeckReturnsStoreErrors(test *testing.T) {
	test.Parallel()
	testCases := []struct {
		name      string
		configure func(store *stubStore)
	}{
		{
			name:      "reservation cleanup error",
			configure: func(store *stubStore) { store.deleteDeckReservationsError = errStoreFailure },
		},
		{
			name:      "quantity update error",
			configure: func(store *stubStore) { store.setQuantityError = errStoreFailure },
		},
		{
			name:      "sale insert error",
			configure: func(store *stubStore) { store.insertSaleError = errStoreFailure },
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		test.Run(testCase.name, func(test *testing.T) {
			test.Parallel()
			store := newStubStore(test)
			store.seedRow(test, InventoryRow{ID: "row-a", OwnerID: testOwnerValue, CardName: "Sol Ring", Quantity: 4, PurchasePriceCents: 100})
			store.seedDeck(test, testOwnerValue, "deck-1", "Deck", nil)
			store.seedReservation(test, Reservation{ID: "res-1", DeckID: "deck-1", InventoryRowID: "row-a", Quantity: 2})
			testCase.configure(store)
			service := mustNewService(test, store)
			ownerID := mustOwnerID(test, testOwnerValue)

			_, err := service.SellDeck(context.Background(), ownerID, "deck-1", mustPrice(test, 500))
			if !errors.Is(err, errStoreFailure) {
				test.Fatalf("expected store error, got %v", err)
			}
		})
	}
}

func TestNewServiceRejectsNilDependencies(test *testing.T) {
	test.Parallel()
	if _, err := NewService(nil, func() int64 { return 0 }); !errors.Is(err, ErrInvalidServiceConfig) {
		test.Fatalf("expected invalid config for nil store, got %v", err)
	}
	store := newStubStore(test)
	if _, err := NewService(store, nil); !errors.Is(err, ErrInvalidServiceConfig) {
		test.Fatalf("expected invalid config for nil clock, got %v", err)
	}
}
