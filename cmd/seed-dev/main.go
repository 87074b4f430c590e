// seed-dev loads a small development dataset: a few tables, two menu
// categories with items and option groups, and a walk-in customer.
// Safe to rerun, existing rows are left alone.
//
// Usage (from backend directory):
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"fmt"
	"os"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/models"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	models.MigrateTable()

	for i := 1; i <= 8; i++ {
		table := models.Table{Name: fmt.Sprintf("T%d", i), IsActive: utils.NewTrue()}
		mustSeed(db, "name", table.Name, &table)
	}

	kitchen := models.MenuCategory{Name: "Kitchen", PrinterKey: "kitchen", IsActive: utils.NewTrue()}
	mustSeed(db, "name", kitchen.Name, &kitchen)
	bar := models.MenuCategory{Name: "Drinks", PrinterKey: "bar", IsActive: utils.NewTrue()}
	mustSeed(db, "name", bar.Name, &bar)

	noodle := models.MenuItem{
		CategoryId: kitchen.ID,
		Name:       "Shan Noodles",
		Price:      decimal.NewFromInt(3500),
		IsActive:   utils.NewTrue(),
	}
	mustSeed(db, "name", noodle.Name, &noodle)

	tea := models.MenuItem{
		CategoryId: bar.ID,
		Name:       "Milk Tea",
		Price:      decimal.NewFromInt(1000),
		IsActive:   utils.NewTrue(),
	}
	mustSeed(db, "name", tea.Name, &tea)

	spice := models.ItemOptionGroup{
		MenuItemId: noodle.ID,
		Name:       "Spice Level",
		IsRequired: utils.NewTrue(),
		MaxSelect:  intPtr(1),
		IsActive:   utils.NewTrue(),
	}
	mustSeed(db, "name", spice.Name, &spice)
	for _, name := range []string{"Mild", "Medium", "Hot"} {
		option := models.ItemOption{GroupId: spice.ID, Name: name, IsActive: utils.NewTrue()}
		mustSeedOption(db, &option)
	}

	extras := models.ItemOptionGroup{
		MenuItemId:    noodle.ID,
		Name:          "Extras",
		AllowQuantity: utils.NewTrue(),
		IsActive:      utils.NewTrue(),
	}
	mustSeed(db, "name", extras.Name, &extras)
	egg := models.ItemOption{GroupId: extras.ID, Name: "Extra Egg", PriceDelta: decimal.NewFromInt(500), MaxQuantity: intPtr(3), IsActive: utils.NewTrue()}
	mustSeedOption(db, &egg)

	walkIn := models.Customer{Name: "Walk-in", IsActive: utils.NewTrue()}
	mustSeed(db, "name", walkIn.Name, &walkIn)

	fmt.Println("seed complete")
}

func intPtr(v int) *int { return &v }

func mustSeed(db *gorm.DB, column string, value string, model interface{}) {
	err := db.Where(column+" = ?", value).FirstOrCreate(model).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed for %v: %v\n", value, err)
		os.Exit(1)
	}
}

func mustSeedOption(db *gorm.DB, option *models.ItemOption) {
	err := db.Where("group_id = ? AND name = ?", option.GroupId, option.Name).
		FirstOrCreate(option).Error
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed failed for option %v: %v\n", option.Name, err)
		os.Exit(1)
	}
}
