package collection

const (
	operationAddCard       = "add_card"
	operationRemoveCard    = "remove_card"
	operationMoveDeck      = "move_between_decks"
	operationMoveToFolder  = "move_to_folder"
	operationMoveInventory = "move_inventory"
	operationAutoFill      = "auto_fill"
	operationAutoFillSlot  = "auto_fill_slot"
	operationReoptimize    = "reoptimize"
	operationRelease       = "release_deck"
	operationSellDeck      = "sell_deck"
	operationSellCard      = "sell_card"
	operationInsertRow     = "insert_row"
	operationUpdateRow     = "update_row"
	operationAdjustRow     = "adjust_quantity"
	operationPurgeTrash    = "purge_trash"
	operationCreateDeck    = "create_deck"
	operationSetSlots      = "set_slots"
	operationRenameDeck    = "rename_deck"
	operationDeleteDeck    = "delete_deck"

	operationStatusOK    = "ok"
	operationStatusError = "error"

	itemTypeInventoryRow = "inventory_row"
	itemTypeDeck         = "deck"

	maxConflictRetries = 3
	defaultSalesLimit  = 50
)
