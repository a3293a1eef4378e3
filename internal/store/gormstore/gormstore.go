package gormstore

import (
	"context"
	"errors"
	"time"

	"github.com/deckvault/deckvault/pkg/collection"
	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultPayloadJSON    = "{}"
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
	errorOperationStore   = "store"
	errorSubjectInventory = "inventory"
	errorSubjectDeck      = "deck"
	errorSubjectSlot      = "slot"
	errorSubjectRes       = "reservation"
	errorSubjectSale      = "sale"
	errorSubjectLog       = "changelog"
	errorSubjectFolder    = "folder"
	errorCodeInsert       = "insert"
	errorCodeGet          = "get"
	errorCodeLock         = "lock"
	errorCodeUpdate       = "update"
	errorCodeDelete       = "delete"
	errorCodeList         = "list"
	errorCodeReserved     = "reserved_sum"
	errorCodeDuplicate    = "duplicate"
	errorCodeSummaries    = "summaries"

	sqlFolderSummaries = `
		select i.folder as folder,
		       count(*) as unique_cards,
		       coalesce(sum(i.quantity), 0) - coalesce(sum(r.reserved), 0) as total_available,
		       coalesce(sum(i.quantity * i.purchase_price_cents), 0) as total_value_cents
		from inventory_rows i
		left join (
			select inventory_row_id, sum(quantity) as reserved
			from reservations
			group by inventory_row_id
		) r on r.inventory_row_id = i.id
		where i.owner_id = ?
		group by i.folder
		order by i.folder`
)

// Store implements collection.Store using GORM. It works against both the
// postgres and the sqlite dialect.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by the given gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a database transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore collection.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

func (store *Store) InsertInventoryRow(ctx context.Context, row collection.InventoryRow) (collection.InventoryRow, error) {
	model := InventoryRow{
		ID:                 row.ID,
		OwnerID:            row.OwnerID,
		CardName:           row.CardName,
		CardKey:            row.CardKey,
		SetCode:            row.SetCode,
		SetName:            row.SetName,
		Quantity:           row.Quantity,
		Folder:             row.Folder,
		PurchasePriceCents: row.PurchasePriceCents,
		Foil:               row.Foil,
		Quality:            row.Quality,
		ImageURL:           row.ImageURL,
		ExternalID:         row.ExternalID,
		CreatedAt:          unixToTime(row.CreatedUnixUTC),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return collection.InventoryRow{}, wrapStoreError(errorSubjectInventory, errorCodeInsert, err)
	}
	return mapInventoryRow(model, 0), nil
}

func (store *Store) GetInventoryRow(ctx context.Context, ownerID string, rowID string) (collection.InventoryRow, error) {
	return store.fetchInventoryRow(ctx, ownerID, rowID, false)
}

func (store *Store) LockInventoryRow(ctx context.Context, ownerID string, rowID string) (collection.InventoryRow, error) {
	return store.fetchInventoryRow(ctx, ownerID, rowID, true)
}

func (store *Store) fetchInventoryRow(ctx context.Context, ownerID string, rowID string, forUpdate bool) (collection.InventoryRow, error) {
	query := store.db.WithContext(ctx)
	errorCode := errorCodeGet
	if forUpdate {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		errorCode = errorCodeLock
	}
	var model InventoryRow
	err := query.Where("owner_id = ? AND id = ?", ownerID, rowID).Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = collection.ErrNotFound
		}
		return collection.InventoryRow{}, wrapStoreError(errorSubjectInventory, errorCode, err)
	}
	reserved, err := store.reservedForRow(ctx, model.ID)
	if err != nil {
		return collection.InventoryRow{}, err
	}
	return mapInventoryRow(model, reserved), nil
}

func (store *Store) UpdateInventoryRow(ctx context.Context, ownerID string, rowID string, patch collection.InventoryPatch) error {
	updates := map[string]any{}
	if patch.CardName != nil {
		updates["card_name"] = *patch.CardName
		updates["card_key"] = collection.NormalizeName(*patch.CardName)
	}
	if patch.SetCode != nil {
		updates["set_code"] = collection.NormalizeSetCode(*patch.SetCode)
	}
	if patch.SetName != nil {
		updates["set_name"] = *patch.SetName
	}
	if patch.Quantity != nil {
		updates["quantity"] = *patch.Quantity
	}
	if patch.Folder != nil {
		updates["folder"] = *patch.Folder
	}
	if patch.PurchasePriceCents != nil {
		updates["purchase_price_cents"] = *patch.PurchasePriceCents
	}
	if patch.Foil != nil {
		updates["foil"] = *patch.Foil
	}
	if patch.Quality != nil {
		updates["quality"] = *patch.Quality
	}
	if patch.ImageURL != nil {
		updates["image_url"] = *patch.ImageURL
	}
	if len(updates) == 0 {
		return nil
	}
	result := store.db.WithContext(ctx).
		Model(&InventoryRow{}).
		Where("owner_id = ? AND id = ?", ownerID, rowID).
		Updates(updates)
	return affectedOrNotFound(result, errorSubjectInventory, errorCodeUpdate)
}

func (store *Store) SetInventoryQuantity(ctx context.Context, ownerID string, rowID string, quantity int) error {
	result := store.db.WithContext(ctx).
		Model(&InventoryRow{}).
		Where("owner_id = ? AND id = ?", ownerID, rowID).
		Update("quantity", quantity)
	return affectedOrNotFound(result, errorSubjectInventory, errorCodeUpdate)
}

func (store *Store) SetInventoryFolder(ctx context.Context, ownerID string, rowID string, folder string) error {
	result := store.db.WithContext(ctx).
		Model(&InventoryRow{}).
		Where("owner_id = ? AND id = ?", ownerID, rowID).
		Update("folder", folder)
	return affectedOrNotFound(result, errorSubjectInventory, errorCodeUpdate)
}

func (store *Store) DeleteInventoryRow(ctx context.Context, ownerID string, rowID string) error {
	result := store.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, rowID).
		Delete(&InventoryRow{})
	return affectedOrNotFound(result, errorSubjectInventory, errorCodeDelete)
}

func (store *Store) ListInventory(ctx context.Context, ownerID string, folder string) ([]collection.InventoryRow, error) {
	query := store.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if folder == "" {
		query = query.Where("folder <> ?", collection.FolderTrash)
	} else {
		query = query.Where("folder = ?", folder)
	}
	var models []InventoryRow
	if err := query.Order("created_at asc, id asc").Find(&models).Error; err != nil {
		return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
	}
	return store.attachReserved(ctx, models)
}

func (store *Store) ListTrashRows(ctx context.Context, ownerID string) ([]collection.InventoryRow, error) {
	var models []InventoryRow
	err := store.db.WithContext(ctx).
		Where("owner_id = ? AND folder = ?", ownerID, collection.FolderTrash).
		Order("id asc").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
	}
	return store.attachReserved(ctx, models)
}

func (store *Store) SlotCandidates(ctx context.Context, ownerID string, cardKey string) ([]collection.InventoryRow, error) {
	var models []InventoryRow
	err := store.db.WithContext(ctx).
		Where("owner_id = ? AND card_key = ? AND folder <> ?", ownerID, cardKey, collection.FolderTrash).
		Order("created_at asc, purchase_price_cents asc, id asc").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectInventory, errorCodeList, err)
	}
	return store.attachReserved(ctx, models)
}

func (store *Store) CreateDeck(ctx context.Context, deck collection.Deck) (collection.Deck, error) {
	model := Deck{
		ID:         deck.ID,
		OwnerID:    deck.OwnerID,
		Name:       deck.Name,
		Commander:  deck.Commander,
		Format:     deck.Format,
		IsInstance: deck.IsInstance,
		CreatedAt:  unixToTime(deck.CreatedUnixUTC),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return collection.Deck{}, wrapStoreError(errorSubjectDeck, errorCodeInsert, err)
	}
	return mapDeck(model), nil
}

func (store *Store) GetDeck(ctx context.Context, ownerID string, deckID string) (collection.Deck, error) {
	var model Deck
	err := store.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, deckID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = collection.ErrNotFound
		}
		return collection.Deck{}, wrapStoreError(errorSubjectDeck, errorCodeGet, err)
	}
	return mapDeck(model), nil
}

func (store *Store) RenameDeck(ctx context.Context, ownerID string, deckID string, name string) error {
	result := store.db.WithContext(ctx).
		Model(&Deck{}).
		Where("owner_id = ? AND id = ?", ownerID, deckID).
		Update("name", name)
	return affectedOrNotFound(result, errorSubjectDeck, errorCodeUpdate)
}

func (store *Store) DeleteDeck(ctx context.Context, ownerID string, deckID string) error {
	result := store.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, deckID).
		Delete(&Deck{})
	if err := affectedOrNotFound(result, errorSubjectDeck, errorCodeDelete); err != nil {
		return err
	}
	if err := store.db.WithContext(ctx).Where("deck_id = ?", deckID).Delete(&DeckSlot{}).Error; err != nil {
		return wrapStoreError(errorSubjectSlot, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) ReplaceDeckSlots(ctx context.Context, deckID string, slots []collection.DeckSlot) error {
	if err := store.db.WithContext(ctx).Where("deck_id = ?", deckID).Delete(&DeckSlot{}).Error; err != nil {
		return wrapStoreError(errorSubjectSlot, errorCodeDelete, err)
	}
	if len(slots) == 0 {
		return nil
	}
	models := make([]DeckSlot, 0, len(slots))
	for position, slot := range slots {
		models = append(models, DeckSlot{
			DeckID:   deckID,
			CardKey:  slot.CardKey,
			CardName: slot.CardName,
			Required: slot.Required,
			Position: position,
		})
	}
	if err := store.db.WithContext(ctx).Create(&models).Error; err != nil {
		return wrapStoreError(errorSubjectSlot, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) GetDeckSlots(ctx context.Context, deckID string) ([]collection.DeckSlot, error) {
	var models []DeckSlot
	err := store.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("position asc").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectSlot, errorCodeList, err)
	}
	slots := make([]collection.DeckSlot, 0, len(models))
	for _, model := range models {
		slots = append(slots, collection.DeckSlot{
			CardName: model.CardName,
			CardKey:  model.CardKey,
			Required: model.Required,
		})
	}
	return slots, nil
}

func (store *Store) InsertReservation(ctx context.Context, reservation collection.Reservation) (collection.Reservation, error) {
	model := Reservation{
		ID:             reservation.ID,
		DeckID:         reservation.DeckID,
		InventoryRowID: reservation.InventoryRowID,
		Quantity:       reservation.Quantity,
		OriginalFolder: reservation.OriginalFolder,
		CreatedAt:      unixToTime(reservation.CreatedUnixUTC),
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isUniqueViolation(err) {
		return collection.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeDuplicate, collection.ErrConflict)
	}
	if err != nil {
		return collection.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeInsert, err)
	}
	return mapReservation(model), nil
}

func (store *Store) GetReservation(ctx context.Context, reservationID string) (collection.Reservation, error) {
	var model Reservation
	err := store.db.WithContext(ctx).
		Where("id = ?", reservationID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			err = collection.ErrNotFound
		}
		return collection.Reservation{}, wrapStoreError(errorSubjectRes, errorCodeGet, err)
	}
	return mapReservation(model), nil
}

func (store *Store) FindReservation(ctx context.Context, deckID string, rowID string) (collection.Reservation, bool, error) {
	var model Reservation
	err := store.db.WithContext(ctx).
		Where("deck_id = ? AND inventory_row_id = ?", deckID, rowID).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return collection.Reservation{}, false, nil
		}
		return collection.Reservation{}, false, wrapStoreError(errorSubjectRes, errorCodeGet, err)
	}
	return mapReservation(model), true, nil
}

func (store *Store) SetReservationQuantity(ctx context.Context, reservationID string, quantity int) error {
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ?", reservationID).
		Update("quantity", quantity)
	return affectedOrNotFound(result, errorSubjectRes, errorCodeUpdate)
}

func (store *Store) SetReservationDeck(ctx context.Context, reservationID string, deckID string) error {
	result := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Where("id = ?", reservationID).
		Update("deck_id", deckID)
	if isUniqueViolation(result.Error) {
		return wrapStoreError(errorSubjectRes, errorCodeDuplicate, collection.ErrConflict)
	}
	return affectedOrNotFound(result, errorSubjectRes, errorCodeUpdate)
}

func (store *Store) DeleteReservation(ctx context.Context, reservationID string) error {
	result := store.db.WithContext(ctx).
		Where("id = ?", reservationID).
		Delete(&Reservation{})
	return affectedOrNotFound(result, errorSubjectRes, errorCodeDelete)
}

func (store *Store) DeleteDeckReservations(ctx context.Context, deckID string) error {
	err := store.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Delete(&Reservation{}).Error
	if err != nil {
		return wrapStoreError(errorSubjectRes, errorCodeDelete, err)
	}
	return nil
}

func (store *Store) ListDeckReservations(ctx context.Context, deckID string) ([]collection.Reservation, error) {
	var models []Reservation
	err := store.db.WithContext(ctx).
		Where("deck_id = ?", deckID).
		Order("created_at asc, id asc").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRes, errorCodeList, err)
	}
	return mapReservations(models), nil
}

func (store *Store) ListRowReservations(ctx context.Context, rowID string) ([]collection.Reservation, error) {
	var models []Reservation
	err := store.db.WithContext(ctx).
		Where("inventory_row_id = ?", rowID).
		Order("created_at asc, id asc").
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRes, errorCodeList, err)
	}
	return mapReservations(models), nil
}

func (store *Store) InsertSale(ctx context.Context, sale collection.Sale) (collection.Sale, error) {
	model := Sale{
		ID:                 sale.ID,
		OwnerID:            sale.OwnerID,
		ItemType:           string(sale.ItemType),
		ItemID:             sale.ItemID,
		ItemName:           sale.ItemName,
		PurchasePriceCents: sale.PurchasePriceCents,
		SellPriceCents:     sale.SellPriceCents,
		Quantity:           sale.Quantity,
		ProfitCents:        sale.ProfitCents,
		CreatedAt:          unixToTime(sale.CreatedUnixUTC),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return collection.Sale{}, wrapStoreError(errorSubjectSale, errorCodeInsert, err)
	}
	return mapSale(model), nil
}

func (store *Store) ListSales(ctx context.Context, ownerID string, limit int) ([]collection.Sale, error) {
	var models []Sale
	err := store.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at desc, id asc").
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectSale, errorCodeList, err)
	}
	sales := make([]collection.Sale, 0, len(models))
	for _, model := range models {
		sales = append(sales, mapSale(model))
	}
	return sales, nil
}

func (store *Store) AppendChangeLog(ctx context.Context, entry collection.ChangeLogEntry) error {
	model := ChangeLogEntry{
		OwnerID:       entry.OwnerID,
		Operation:     entry.Operation,
		ItemType:      entry.ItemType,
		ItemID:        entry.ItemID,
		QuantityDelta: entry.QuantityDelta,
		Payload:       payloadJSON(entry.PayloadJSON),
		CreatedAt:     unixToTime(entry.CreatedUnixUTC),
	}
	if err := store.db.WithContext(ctx).Create(&model).Error; err != nil {
		return wrapStoreError(errorSubjectLog, errorCodeInsert, err)
	}
	return nil
}

func (store *Store) FolderSummaries(ctx context.Context, ownerID string) ([]collection.FolderSummary, error) {
	var results []struct {
		Folder          string
		UniqueCards     int
		TotalAvailable  int
		TotalValueCents int64
	}
	err := store.db.WithContext(ctx).Raw(sqlFolderSummaries, ownerID).Scan(&results).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectFolder, errorCodeSummaries, err)
	}
	summaries := make([]collection.FolderSummary, 0, len(results))
	for _, result := range results {
		summaries = append(summaries, collection.FolderSummary{
			Folder:          result.Folder,
			UniqueCards:     result.UniqueCards,
			TotalAvailable:  result.TotalAvailable,
			TotalValueCents: result.TotalValueCents,
		})
	}
	return summaries, nil
}

func (store *Store) reservedForRow(ctx context.Context, rowID string) (int, error) {
	var total int64
	err := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Select("coalesce(sum(quantity), 0)").
		Where("inventory_row_id = ?", rowID).
		Scan(&total).Error
	if err != nil {
		return 0, wrapStoreError(errorSubjectRes, errorCodeReserved, err)
	}
	return int(total), nil
}

func (store *Store) attachReserved(ctx context.Context, models []InventoryRow) ([]collection.InventoryRow, error) {
	if len(models) == 0 {
		return []collection.InventoryRow{}, nil
	}
	ids := make([]string, 0, len(models))
	for _, model := range models {
		ids = append(ids, model.ID)
	}
	var grouped []struct {
		InventoryRowID string
		Total          int64
	}
	err := store.db.WithContext(ctx).
		Model(&Reservation{}).
		Select("inventory_row_id, coalesce(sum(quantity), 0) as total").
		Where("inventory_row_id in ?", ids).
		Group("inventory_row_id").
		Scan(&grouped).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectRes, errorCodeReserved, err)
	}
	reservedByRow := make(map[string]int, len(grouped))
	for _, group := range grouped {
		reservedByRow[group.InventoryRowID] = int(group.Total)
	}
	rows := make([]collection.InventoryRow, 0, len(models))
	for _, model := range models {
		rows = append(rows, mapInventoryRow(model, reservedByRow[model.ID]))
	}
	return rows, nil
}

func affectedOrNotFound(result *gorm.DB, subject string, code string) error {
	if result.Error != nil {
		return wrapStoreError(subject, code, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(subject, code, collection.ErrNotFound)
	}
	return nil
}

func wrapStoreError(subject string, code string, err error) error {
	return collection.WrapError(errorOperationStore, subject, code, err)
}

func mapInventoryRow(model InventoryRow, reserved int) collection.InventoryRow {
	return collection.InventoryRow{
		ID:                 model.ID,
		OwnerID:            model.OwnerID,
		CardName:           model.CardName,
		CardKey:            model.CardKey,
		SetCode:            model.SetCode,
		SetName:            model.SetName,
		Quantity:           model.Quantity,
		Reserved:           reserved,
		Folder:             model.Folder,
		PurchasePriceCents: model.PurchasePriceCents,
		Foil:               model.Foil,
		Quality:            model.Quality,
		ImageURL:           model.ImageURL,
		ExternalID:         model.ExternalID,
		CreatedUnixUTC:     model.CreatedAt.Unix(),
	}
}

func mapDeck(model Deck) collection.Deck {
	return collection.Deck{
		ID:             model.ID,
		OwnerID:        model.OwnerID,
		Name:           model.Name,
		Commander:      model.Commander,
		Format:         model.Format,
		IsInstance:     model.IsInstance,
		CreatedUnixUTC: model.CreatedAt.Unix(),
	}
}

func mapReservation(model Reservation) collection.Reservation {
	return collection.Reservation{
		ID:             model.ID,
		DeckID:         model.DeckID,
		InventoryRowID: model.InventoryRowID,
		Quantity:       model.Quantity,
		OriginalFolder: model.OriginalFolder,
		CreatedUnixUTC: model.CreatedAt.Unix(),
	}
}

func mapReservations(models []Reservation) []collection.Reservation {
	reservations := make([]collection.Reservation, 0, len(models))
	for _, model := range models {
		reservations = append(reservations, mapReservation(model))
	}
	return reservations
}

func mapSale(model Sale) collection.Sale {
	return collection.Sale{
		ID:                 model.ID,
		OwnerID:            model.OwnerID,
		ItemType:           collection.SaleItemType(model.ItemType),
		ItemID:             model.ItemID,
		ItemName:           model.ItemName,
		PurchasePriceCents: model.PurchasePriceCents,
		SellPriceCents:     model.SellPriceCents,
		Quantity:           model.Quantity,
		ProfitCents:        model.ProfitCents,
		CreatedUnixUTC:     model.CreatedAt.Unix(),
	}
}

func unixToTime(unixUTC int64) time.Time {
	if unixUTC == 0 {
		return time.Now().UTC()
	}
	return time.Unix(unixUTC, 0).UTC()
}

func payloadJSON(raw string) datatypes.JSON {
	if raw == "" {
		return datatypes.JSON([]byte(defaultPayloadJSON))
	}
	return datatypes.JSON([]byte(raw))
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgError *pgconn.PgError
	if errors.As(err, &pgError) {
		return pgError.Code == pgUniqueViolationCode
	}
	var sqliteError *gosqlite.Error
	if errors.As(err, &sqliteError) {
		return sqliteError.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
