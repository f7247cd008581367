// Package models defines the record collections and the shared entity
// envelope persisted locally and synced with the remote row store.
package models

// Collection identifies one locally replicated record collection.
type Collection string

const (
	Transactions Collection = "transactions"
	CreditCards  Collection = "creditCards"
	Recurring    Collection = "recurring"
	Assets       Collection = "assets"
	Budgets      Collection = "budgets"
	Categories   Collection = "categories"
	Settings     Collection = "settings"
)

// SettingsRecordID is the fixed id of the single settings row. Every device
// writes settings under the same id so edits converge through the normal
// conflict resolution path.
const SettingsRecordID = "settings_default"

// syncOrder is the fixed order the orchestrator syncs collections in.
// Collections are independent; the order only keeps test expectations
// deterministic.
var syncOrder = []Collection{
	Transactions,
	CreditCards,
	Recurring,
	Assets,
	Budgets,
	Categories,
	Settings,
}

var remoteTables = map[Collection]string{
	Transactions: "transactions",
	CreditCards:  "credit_cards",
	Recurring:    "recurring",
	Assets:       "assets",
	Budgets:      "budgets",
	Categories:   "categories",
	Settings:     "settings",
}

// Collections returns every known collection in sync order. The returned
// slice is a copy and safe to mutate.
func Collections() []Collection {
	out := make([]Collection, len(syncOrder))
	copy(out, syncOrder)
	return out
}

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	_, ok := remoteTables[c]
	return ok
}

// RemoteTable returns the remote row-store table name for the collection.
// Returns "" for unknown collections.
func (c Collection) RemoteTable() string {
	return remoteTables[c]
}

func (c Collection) String() string {
	return string(c)
}
