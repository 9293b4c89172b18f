package models

import (
	"log"

	"bitbucket.org/mmdatafocus/pos_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Sale{}, &SaleItem{}, &SalePayment{},
		&Product{},
		&Customer{},
		&Order{},
		&Expense{},
		&Purchase{}, &PurchaseItem{},
		&RawInventory{}, &FinishedInventory{},
		&User{},
		&Setting{}, &License{},
		&SyncQueueEntry{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
