package models

import (
	"context"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/shopspring/decimal"
)

// Menu/category/customer CRUD lives in the admin surface; the settlement
// engine only reads active rows from these tables.

type MenuCategory struct {
	ID         int       `gorm:"primary_key" json:"id"`
	Name       string    `gorm:"size:100;not null" json:"name"`
	PrinterKey string    `gorm:"size:50" json:"printer_key"`
	IsActive   *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type MenuItem struct {
	ID         int             `gorm:"primary_key" json:"id"`
	CategoryId int             `gorm:"index;not null" json:"category_id"`
	Name       string          `gorm:"index;size:100;not null" json:"name"`
	Price      decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price"`
	IsActive   *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt  time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Customer struct {
	ID              int             `gorm:"primary_key" json:"id"`
	Name            string          `gorm:"index;size:100;not null" json:"name"`
	Phone           string          `gorm:"size:50" json:"phone"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	IsActive        *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type Table struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	IsActive  *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// PaymentMethodMapping is the operator-configured fallback that routes a
// payment method to an arbitrary account when no system account matches.
type PaymentMethodMapping struct {
	ID        int       `gorm:"primary_key" json:"id"`
	Method    string    `gorm:"uniqueIndex;size:50;not null" json:"method" binding:"required"`
	AccountId int       `gorm:"index;not null" json:"account_id" binding:"required"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// GetActiveMenuItem returns the item plus the printer key of its category.
func GetActiveMenuItem(ctx context.Context, id int) (*MenuItem, string, error) {
	db := config.GetDB()

	var item MenuItem
	err := db.WithContext(ctx).Where("is_active = ?", true).First(&item, id).Error
	if err != nil {
		return nil, "", utils.ErrorRecordNotFound
	}

	var category MenuCategory
	printerKey := ""
	if err := db.WithContext(ctx).First(&category, item.CategoryId).Error; err == nil {
		printerKey = category.PrinterKey
	}
	return &item, printerKey, nil
}

func GetActiveCustomer(ctx context.Context, id int) (*Customer, error) {
	db := config.GetDB()

	var customer Customer
	err := db.WithContext(ctx).Where("is_active = ?", true).First(&customer, id).Error
	if err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &customer, nil
}

func CreatePaymentMethodMapping(ctx context.Context, method string, accountId int) (*PaymentMethodMapping, error) {
	method = NormalizePaymentMethod(method)
	if err := utils.ValidateUnique[PaymentMethodMapping](ctx, "method", method, 0); err != nil {
		return nil, err
	}
	if err := utils.ValidateResourceId[Account](ctx, accountId); err != nil {
		return nil, err
	}

	mapping := PaymentMethodMapping{
		Method:    method,
		AccountId: accountId,
	}
	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&mapping).Error; err != nil {
		return nil, err
	}
	return &mapping, nil
}
