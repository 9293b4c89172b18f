package models

type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusSynced  SyncStatus = "synced"
)

const (
	SyncOperationUpsert = "upsert"
)

// MaxSyncRetries is the outbox retry budget; entries at or beyond it are
// poisoned and excluded from automatic drains.
const MaxSyncRetries = 5

// Ledger table names as the sync core addresses them.
const (
	TableSales     = "sales"
	TableProducts  = "products"
	TableCustomers = "customers"
	TableOrders    = "orders"
	TableExpenses  = "expenses"
	TablePurchases = "purchases"
)

var queueEligibleTables = map[string]bool{
	TableSales:     true,
	TableProducts:  true,
	TableCustomers: true,
	TableOrders:    true,
	TableExpenses:  true,
	TablePurchases: true,
}

// IsQueueEligible reports whether rows of the table carry sync columns and
// may enter the outbox. Inventory, staff and settings are bulk-synced only.
func IsQueueEligible(table string) bool {
	return queueEligibleTables[table]
}
