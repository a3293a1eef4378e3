package collection

// SlotPick names an inventory row and how many copies to take from it.
type SlotPick struct {
	InventoryRowID string
	Take           int
}

// SelectCopies walks candidates in the supplied order and takes
// min(available, remaining) from each until remaining reaches zero or the
// candidates run out. Callers pass candidates already ordered oldest first,
// then cheapest, then by id; the walk itself never reorders.
func SelectCopies(candidates []InventoryRow, remaining int) []SlotPick {
	picks := make([]SlotPick, 0, len(candidates))
	for _, candidate := range candidates {
		if remaining == 0 {
			break
		}
		available := candidate.Available()
		if available <= 0 {
			continue
		}
		take := available
		if take > remaining {
			take = remaining
		}
		picks = append(picks, SlotPick{InventoryRowID: candidate.ID, Take: take})
		remaining -= take
	}
	return picks
}
