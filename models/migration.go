package models

import (
	"log"

	"github.com/Iseids/restaurant-pos-backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Account{}, &AccountTransaction{}, &AccountTransfer{},
		&AuditLog{},
		&CashierExpense{}, &Customer{},
		&ItemOption{}, &ItemOptionGroup{},
		&MenuCategory{}, &MenuItem{},
		&Order{}, &OrderCounter{}, &OrderItem{}, &OrderItemCustomization{},
		&Payment{}, &PaymentMethodMapping{}, &PrintQueueItem{},
		&Shift{},
		&Table{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
