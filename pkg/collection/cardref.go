package collection

import "strings"

// NormalizeName produces the matching key for a card name: trimmed, internal
// whitespace collapsed, case-folded. The display form is stored separately.
func NormalizeName(raw string) string {
	return strings.ToLower(strings.Join(strings.Fields(raw), " "))
}

// NormalizeSetCode produces the canonical set code form.
func NormalizeSetCode(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// MatchesSlot reports whether an inventory row satisfies a deck slot.
// Set code is not part of slot matching.
func MatchesSlot(row InventoryRow, slot DeckSlot) bool {
	return row.CardKey == slot.CardKey
}
