package collection

import (
	"context"
	"fmt"
	"sort"
	"testing"
)

// stubStore is an in-memory Store for service tests. Reserved counts are
// derived from the reservation map the way the real store derives them from
// the reservations table.
type stubStore struct {
	nextID       int
	rows         map[string]InventoryRow
	decks        map[string]Deck
	slots        map[string][]DeckSlot
	reservations map[string]Reservation
	sales        []Sale
	changeLog    []ChangeLogEntry

	conflictsBeforeSuccess int
	txAttempts             int

	beforeLockRow func(rowID string)

	lockRowError                error
	getRowError                 error
	insertRowError              error
	updateRowError              error
	setQuantityError            error
	setFolderError              error
	deleteRowError              error
	listTrashError              error
	candidatesError             error
	getDeckError                error
	insertReservationError      error
	setReservationQuantityError error
	deleteReservationError      error
	deleteDeckReservationsError error
	listDeckReservationsError   error
	insertSaleError             error
	appendLogError              error
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{
		rows:         make(map[string]InventoryRow),
		decks:        make(map[string]Deck),
		slots:        make(map[string][]DeckSlot),
		reservations: make(map[string]Reservation),
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	store.txAttempts++
	if store.conflictsBeforeSuccess > 0 {
		store.conflictsBeforeSuccess--
		return ErrConflict
	}
	return fn(ctx, store)
}

func (store *stubStore) reservedFor(rowID string) int {
	total := 0
	for _, reservation := range store.reservations {
		if reservation.InventoryRowID == rowID {
			total += reservation.Quantity
		}
	}
	return total
}

func (store *stubStore) withReserved(row InventoryRow) InventoryRow {
	row.Reserved = store.reservedFor(row.ID)
	return row
}

func (store *stubStore) InsertInventoryRow(ctx context.Context, row InventoryRow) (InventoryRow, error) {
	if store.insertRowError != nil {
		return InventoryRow{}, store.insertRowError
	}
	if row.ID == "" {
		store.nextID++
		row.ID = fmt.Sprintf("row-%03d", store.nextID)
	}
	store.rows[row.ID] = row
	return row, nil
}

func (store *stubStore) GetInventoryRow(ctx context.Context, ownerID string, rowID string) (InventoryRow, error) {
	if store.getRowError != nil {
		return InventoryRow{}, store.getRowError
	}
	row, ok := store.rows[rowID]
	if !ok || row.OwnerID != ownerID {
		return InventoryRow{}, ErrNotFound
	}
	return store.withReserved(row), nil
}

func (store *stubStore) LockInventoryRow(ctx context.Context, ownerID string, rowID string) (InventoryRow, error) {
	if store.lockRowError != nil {
		return InventoryRow{}, store.lockRowError
	}
	if store.beforeLockRow != nil {
		store.beforeLockRow(rowID)
	}
	return store.GetInventoryRow(ctx, ownerID, rowID)
}

func (store *stubStore) UpdateInventoryRow(ctx context.Context, ownerID string, rowID string, patch InventoryPatch) error {
	if store.updateRowError != nil {
		return store.updateRowError
	}
	row, ok := store.rows[rowID]
	if !ok || row.OwnerID != ownerID {
		return ErrNotFound
	}
	if patch.CardName != nil {
		row.CardName = *patch.CardName
		row.CardKey = NormalizeName(*patch.CardName)
	}
	if patch.SetCode != nil {
		row.SetCode = NormalizeSetCode(*patch.SetCode)
	}
	if patch.SetName != nil {
		row.SetName = *patch.SetName
	}
	if patch.Quantity != nil {
		row.Quantity = *patch.Quantity
	}
	if patch.Folder != nil {
		row.Folder = *patch.Folder
	}
	if patch.PurchasePriceCents != nil {
		row.PurchasePriceCents = *patch.PurchasePriceCents
	}
	if patch.Foil != nil {
		row.Foil = *patch.Foil
	}
	if patch.Quality != nil {
		row.Quality = *patch.Quality
	}
	if patch.ImageURL != nil {
		row.ImageURL = *patch.ImageURL
	}
	store.rows[rowID] = row
	return nil
}

func (store *stubStore) SetInventoryQuantity(ctx context.Context, ownerID string, rowID string, quantity int) error {
	if store.setQuantityError != nil {
		return store.setQuantityError
	}
	row, ok := store.rows[rowID]
	if !ok || row.OwnerID != ownerID {
		return ErrNotFound
	}
	row.Quantity = quantity
	store.rows[rowID] = row
	return nil
}

func (store *stubStore) SetInventoryFolder(ctx context.Context, ownerID string, rowID string, folder string) error {
	if store.setFolderError != nil {
		return store.setFolderError
	}
	row, ok := store.rows[rowID]
	if !ok || row.OwnerID != ownerID {
		return ErrNotFound
	}
	row.Folder = folder
	store.rows[rowID] = row
	return nil
}

func (store *stubStore) DeleteInventoryRow(ctx context.Context, ownerID string, rowID string) error {
	if store.deleteRowError != nil {
		return store.deleteRowError
	}
	row, ok := store.rows[rowID]
	if !ok || row.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(store.rows, rowID)
	return nil
}

func (store *stubStore) ListInventory(ctx context.Context, ownerID string, folder string) ([]InventoryRow, error) {
	matches := make([]InventoryRow, 0, len(store.rows))
	for _, row := range store.rows {
		if row.OwnerID != ownerID {
			continue
		}
		if folder == "" && row.Folder == FolderTrash {
			continue
		}
		if folder != "" && row.Folder != folder {
			continue
		}
		matches = append(matches, store.withReserved(row))
	}
	sortRows(matches)
	return matches, nil
}

func (store *stubStore) ListTrashRows(ctx context.Context, ownerID string) ([]InventoryRow, error) {
	if store.listTrashError != nil {
		return nil, store.listTrashError
	}
	matches := make([]InventoryRow, 0)
	for _, row := range store.rows {
		if row.OwnerID == ownerID && row.Folder == FolderTrash {
			matches = append(matches, store.withReserved(row))
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (store *stubStore) SlotCandidates(ctx context.Context, ownerID string, cardKey string) ([]InventoryRow, error) {
	if store.candidatesError != nil {
		return nil, store.candidatesError
	}
	matches := make([]InventoryRow, 0)
	for _, row := range store.rows {
		if row.OwnerID != ownerID || row.CardKey != cardKey || row.Folder == FolderTrash {
			continue
		}
		matches = append(matches, store.withReserved(row))
	}
	sortRows(matches)
	return matches, nil
}

func sortRows(rows []InventoryRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedUnixUTC != rows[j].CreatedUnixUTC {
			return rows[i].CreatedUnixUTC < rows[j].CreatedUnixUTC
		}
		if rows[i].PurchasePriceCents != rows[j].PurchasePriceCents {
			return rows[i].PurchasePriceCents < rows[j].PurchasePriceCents
		}
		return rows[i].ID < rows[j].ID
	})
}

func (store *stubStore) CreateDeck(ctx context.Context, deck Deck) (Deck, error) {
	if deck.ID == "" {
		store.nextID++
		deck.ID = fmt.Sprintf("deck-%03d", store.nextID)
	}
	store.decks[deck.ID] = deck
	return deck, nil
}

func (store *stubStore) GetDeck(ctx context.Context, ownerID string, deckID string) (Deck, error) {
	if store.getDeckError != nil {
		return Deck{}, store.getDeckError
	}
	deck, ok := store.decks[deckID]
	if !ok || deck.OwnerID != ownerID {
		return Deck{}, ErrNotFound
	}
	return deck, nil
}

func (store *stubStore) RenameDeck(ctx context.Context, ownerID string, deckID string, name string) error {
	deck, ok := store.decks[deckID]
	if !ok || deck.OwnerID != ownerID {
		return ErrNotFound
	}
	deck.Name = name
	store.decks[deckID] = deck
	return nil
}

func (store *stubStore) DeleteDeck(ctx context.Context, ownerID string, deckID string) error {
	deck, ok := store.decks[deckID]
	if !ok || deck.OwnerID != ownerID {
		return ErrNotFound
	}
	delete(store.decks, deckID)
	delete(store.slots, deckID)
	return nil
}

func (store *stubStore) ReplaceDeckSlots(ctx context.Context, deckID string, slots []DeckSlot) error {
	store.slots[deckID] = append([]DeckSlot(nil), slots...)
	return nil
}

func (store *stubStore) GetDeckSlots(ctx context.Context, deckID string) ([]DeckSlot, error) {
	return append([]DeckSlot(nil), store.slots[deckID]...), nil
}

func (store *stubStore) InsertReservation(ctx context.Context, reservation Reservation) (Reservation, error) {
	if store.insertReservationError != nil {
		return Reservation{}, store.insertReservationError
	}
	for _, existing := range store.reservations {
		if existing.DeckID == reservation.DeckID && existing.InventoryRowID == reservation.InventoryRowID {
			return Reservation{}, ErrConflict
		}
	}
	if reservation.ID == "" {
		store.nextID++
		reservation.ID = fmt.Sprintf("res-%03d", store.nextID)
	}
	store.reservations[reservation.ID] = reservation
	return reservation, nil
}

func (store *stubStore) GetReservation(ctx context.Context, reservationID string) (Reservation, error) {
	reservation, ok := store.reservations[reservationID]
	if !ok {
		return Reservation{}, ErrNotFound
	}
	return reservation, nil
}

func (store *stubStore) FindReservation(ctx context.Context, deckID string, rowID string) (Reservation, bool, error) {
	for _, reservation := range store.reservations {
		if reservation.DeckID == deckID && reservation.InventoryRowID == rowID {
			return reservation, true, nil
		}
	}
	return Reservation{}, false, nil
}

func (store *stubStore) SetReservationQuantity(ctx context.Context, reservationID string, quantity int) error {
	if store.setReservationQuantityError != nil {
		return store.setReservationQuantityError
	}
	reservation, ok := store.reservations[reservationID]
	if !ok {
		return ErrNotFound
	}
	reservation.Quantity = quantity
	store.reservations[reservationID] = reservation
	return nil
}

func (store *stubStore) SetReservationDeck(ctx context.Context, reservationID string, deckID string) error {
	reservation, ok := store.reservations[reservationID]
	if !ok {
		return ErrNotFound
	}
	reservation.DeckID = deckID
	store.reservations[reservationID] = reservation
	return nil
}

func (store *stubStore) DeleteReservation(ctx context.Context, reservationID string) error {
	if store.deleteReservationError != nil {
		return store.deleteReservationError
	}
	if _, ok := store.reservations[reservationID]; !ok {
		return ErrNotFound
	}
	delete(store.reservations, reservationID)
	return nil
}

func (store *stubStore) DeleteDeckReservations(ctx context.Context, deckID string) error {
	if store.deleteDeckReservationsError != nil {
		return store.deleteDeckReservationsError
	}
	for id, reservation := range store.reservations {
		if reservation.DeckID == deckID {
			delete(store.reservations, id)
		}
	}
	return nil
}

func (store *stubStore) ListDeckReservations(ctx context.Context, deckID string) ([]Reservation, error) {
	if store.listDeckReservationsError != nil {
		return nil, store.listDeckReservationsError
	}
	matches := make([]Reservation, 0)
	for _, reservation := range store.reservations {
		if reservation.DeckID == deckID {
			matches = append(matches, reservation)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (store *stubStore) ListRowReservations(ctx context.Context, rowID string) ([]Reservation, error) {
	matches := make([]Reservation, 0)
	for _, reservation := range store.reservations {
		if reservation.InventoryRowID == rowID {
			matches = append(matches, reservation)
		}
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].ID < matches[j].ID })
	return matches, nil
}

func (store *stubStore) InsertSale(ctx context.Context, sale Sale) (Sale, error) {
	if store.insertSaleError != nil {
		return Sale{}, store.insertSaleError
	}
	if sale.ID == "" {
		store.nextID++
		sale.ID = fmt.Sprintf("sale-%03d", store.nextID)
	}
	store.sales = append(store.sales, sale)
	return sale, nil
}

func (store *stubStore) ListSales(ctx context.Context, ownerID string, limit int) ([]Sale, error) {
	matches := make([]Sale, 0, len(store.sales))
	for index := len(store.sales) - 1; index >= 0 && len(matches) < limit; index-- {
		if store.sales[index].OwnerID == ownerID {
			matches = append(matches, store.sales[index])
		}
	}
	return matches, nil
}

func (store *stubStore) AppendChangeLog(ctx context.Context, entry ChangeLogEntry) error {
	if store.appendLogError != nil {
		return store.appendLogError
	}
	store.changeLog = append(store.changeLog, entry)
	return nil
}

func (store *stubStore) FolderSummaries(ctx context.Context, ownerID string) ([]FolderSummary, error) {
	byFolder := make(map[string]*FolderSummary)
	for _, row := range store.rows {
		if row.OwnerID != ownerID {
			continue
		}
		summary, ok := byFolder[row.Folder]
		if !ok {
			summary = &FolderSummary{Folder: row.Folder}
			byFolder[row.Folder] = summary
		}
		summary.UniqueCards++
		summary.TotalAvailable += row.Quantity - store.reservedFor(row.ID)
		summary.TotalValueCents += int64(row.Quantity) * row.PurchasePriceCents
	}
	folders := make([]string, 0, len(byFolder))
	for folder := range byFolder {
		folders = append(folders, folder)
	}
	sort.Strings(folders)
	summaries := make([]FolderSummary, 0, len(folders))
	for _, folder := range folders {
		summaries = append(summaries, *byFolder[folder])
	}
	return summaries, nil
}

func (store *stubStore) mustReservation(test *testing.T, reservationID string) Reservation {
	test.Helper()
	reservation, ok := store.reservations[reservationID]
	if !ok {
		test.Fatalf("reservation %s not found", reservationID)
	}
	return reservation
}

func (store *stubStore) seedRow(test *testing.T, row InventoryRow) InventoryRow {
	test.Helper()
	if row.ID == "" {
		test.Fatalf("seed row needs an id")
	}
	if row.CardKey == "" {
		row.CardKey = NormalizeName(row.CardName)
	}
	if row.Folder == "" {
		row.Folder = FolderUncategorized
	}
	store.rows[row.ID] = row
	return row
}

func (store *stubStore) seedDeck(test *testing.T, ownerID string, deckID string, name string, slots []DeckSlot) Deck {
	test.Helper()
	deck := Deck{ID: deckID, OwnerID: ownerID, Name: name}
	store.decks[deckID] = deck
	store.slots[deckID] = append([]DeckSlot(nil), slots...)
	return deck
}

func (store *stubStore) seedReservation(test *testing.T, reservation Reservation) Reservation {
	test.Helper()
	if reservation.ID == "" {
		test.Fatalf("seed reservation needs an id")
	}
	store.reservations[reservation.ID] = reservation
	return reservation
}

func mustNewService(test *testing.T, store Store, options ...ServiceOption) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return 100 }, options...)
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustOwnerID(test *testing.T, raw string) OwnerID {
	test.Helper()
	value, err := NewOwnerID(raw)
	if err != nil {
		test.Fatalf("owner id: %v", err)
	}
	return value
}

func mustFolder(test *testing.T, raw string) Folder {
	test.Helper()
	value, err := NewFolder(raw)
	if err != nil {
		test.Fatalf("folder: %v", err)
	}
	return value
}

func mustPrice(test *testing.T, raw int64) PriceCents {
	test.Helper()
	value, err := NewPriceCents(raw)
	if err != nil {
		test.Fatalf("price: %v", err)
	}
	return value
}

func mustSlot(name string, required int) DeckSlot {
	return DeckSlot{CardName: name, CardKey: NormalizeName(name), Required: required}
}
