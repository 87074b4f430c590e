package models

import (
	"context"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderItem struct {
	ID         int  `gorm:"primary_key" json:"id"`
	OrderId    int  `gorm:"index;not null" json:"order_id"`
	MenuItemId *int `gorm:"index" json:"menu_item_id"`
	// Name and UnitPrice are copied at add time; menu edits never reprice
	// lines already on an order.
	Name            string          `gorm:"size:255;not null" json:"name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount_percent"`
	IsVoided        *bool           `gorm:"not null;default:false" json:"is_voided"`
	VoidReason      string          `gorm:"size:255" json:"void_reason"`
	VoidedBy        string          `gorm:"size:100" json:"voided_by"`
	VoidedAt        *time.Time      `json:"voided_at"`
	PrinterKey      string          `gorm:"size:50" json:"printer_key"`
	KitchenPrintedAt *time.Time     `json:"kitchen_printed_at"`
	Note            string          `gorm:"size:255" json:"note"`
	// canonical customization signature; nil when the line has none
	Signature *string   `gorm:"size:500" json:"signature"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// OrderItemCustomization is the frozen per-line snapshot of a chosen option.
// It survives option edits and deletions.
type OrderItemCustomization struct {
	ID          int             `gorm:"primary_key" json:"id"`
	OrderItemId int             `gorm:"index;not null" json:"order_item_id"`
	OptionId    int             `gorm:"not null" json:"option_id"`
	GroupName   string          `gorm:"size:255" json:"group_name"`
	OptionName  string          `gorm:"size:255" json:"option_name"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	PriceDelta  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_delta"`
}

type NewOrderItem struct {
	MenuItemId     int                      `json:"menu_item_id" binding:"required"`
	Quantity       decimal.Decimal          `json:"quantity" binding:"required"`
	Note           string                   `json:"note"`
	Customizations []CustomizationSelection `json:"customizations"`
}

type UpdateOrderItemInput struct {
	Quantity        *decimal.Decimal          `json:"quantity"`
	DiscountAmount  *decimal.Decimal          `json:"discount_amount"`
	DiscountPercent *decimal.Decimal          `json:"discount_percent"`
	Note            *string                   `json:"note"`
	Customizations  *[]CustomizationSelection `json:"customizations"`
}

func fetchMutableOrder(ctx context.Context, orderId int) (*Order, error) {
	order, err := utils.FetchModel[Order](ctx, orderId)
	if err != nil {
		return nil, err
	}
	if order.Status == OrderStatusPaid {
		return nil, utils.NewRuleError(utils.RuleOrderLocked, "order is already settled")
	}
	return order, nil
}

// AddOrderItem validates customizations against the item's active option
// groups, freezes name/price/snapshot, and either merges into a matching
// un-printed line or inserts a new one. New lines are queued for the
// kitchen printer of the item's category.
func AddOrderItem(ctx context.Context, orderId int, input *NewOrderItem) (*OrderItem, error) {
	order, err := fetchMutableOrder(ctx, orderId)
	if err != nil {
		return nil, err
	}
	if input.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, "quantity must be positive")
	}

	menuItem, printerKey, err := GetActiveMenuItem(ctx, input.MenuItemId)
	if err != nil {
		return nil, err
	}

	groups, err := LoadActiveOptionGroups(ctx, input.MenuItemId)
	if err != nil {
		return nil, err
	}
	custom, err := ValidateCustomizations(groups, input.Customizations)
	if err != nil {
		return nil, err
	}

	unitPrice := menuItem.Price.Add(custom.PriceDelta)

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	existing, err := findMergeableLine(tx, ctx, order.ID, input.MenuItemId, custom.Signature, input.Note, unitPrice)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if existing != nil {
		newQty := existing.Quantity.Add(input.Quantity)
		if err := tx.Model(existing).Update("Quantity", newQty).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		existing.Quantity = newQty
		if err := tx.Commit().Error; err != nil {
			return nil, err
		}
		return existing, nil
	}

	item := OrderItem{
		OrderId:    order.ID,
		MenuItemId: &menuItem.ID,
		Name:       menuItem.Name,
		Quantity:   input.Quantity,
		UnitPrice:  unitPrice,
		IsVoided:   utils.NewFalse(),
		PrinterKey: printerKey,
		Note:       input.Note,
		Signature:  custom.Signature,
	}
	if err := tx.Create(&item).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := insertCustomizationRows(tx, item.ID, custom.Rows); err != nil {
		tx.Rollback()
		return nil, err
	}

	if printerKey != "" {
		if err := enqueuePrintJob(tx, order.ID, item.ID, printerKey); err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	WriteAuditLog(ctx, "order_item.add", "OrderItem", item.ID, item)
	return &item, nil
}

// A line can absorb more quantity only while still editable at the till:
// not voided, not yet printed to the kitchen, same customization signature,
// same note, same price.
func findMergeableLine(tx *gorm.DB, ctx context.Context, orderId int, menuItemId int, signature *string, note string, unitPrice decimal.Decimal) (*OrderItem, error) {
	dbCtx := tx.WithContext(ctx).
		Where("order_id = ? AND menu_item_id = ? AND is_voided = ? AND kitchen_printed_at IS NULL", orderId, menuItemId, false).
		Where("note = ? AND unit_price = ?", note, unitPrice)
	if signature == nil {
		dbCtx = dbCtx.Where("signature IS NULL")
	} else {
		dbCtx = dbCtx.Where("signature = ?", *signature)
	}

	var existing OrderItem
	err := dbCtx.First(&existing).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &existing, nil
}

func insertCustomizationRows(tx *gorm.DB, orderItemId int, rows []ResolvedCustomization) error {
	for _, row := range rows {
		snapshot := OrderItemCustomization{
			OrderItemId: orderItemId,
			OptionId:    row.OptionId,
			GroupName:   row.GroupName,
			OptionName:  row.OptionName,
			Quantity:    row.Quantity,
			PriceDelta:  row.PriceDelta,
		}
		if err := tx.Create(&snapshot).Error; err != nil {
			return err
		}
	}
	return nil
}

func GetOrderItems(ctx context.Context, orderId int) ([]*OrderItem, error) {
	db := config.GetDB()
	var results []*OrderItem
	err := db.WithContext(ctx).Where("order_id = ?", orderId).Order("id").Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// UpdateOrderItem patches quantity, discount and note. Replacing
// customizations re-validates them and re-derives the unit price from the
// frozen base, so the line tracks its original menu price even after the
// menu changed.
func UpdateOrderItem(ctx context.Context, id int, input *UpdateOrderItemInput) (*OrderItem, error) {
	item, err := utils.FetchModel[OrderItem](ctx, id)
	if err != nil {
		return nil, err
	}
	if item.IsVoided != nil && *item.IsVoided {
		return nil, utils.NewRuleError(utils.RuleOrderLocked, "item is voided")
	}
	if _, err := fetchMutableOrder(ctx, item.OrderId); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Quantity != nil {
		if input.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, "quantity must be positive")
		}
		updates["Quantity"] = *input.Quantity
	}
	if input.DiscountAmount != nil {
		updates["DiscountAmount"] = *input.DiscountAmount
	}
	if input.DiscountPercent != nil {
		updates["DiscountPercent"] = *input.DiscountPercent
	}
	if input.Note != nil {
		updates["Note"] = *input.Note
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}

	if input.Customizations != nil {
		if item.MenuItemId == nil {
			tx.Rollback()
			return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, "line has no menu item")
		}
		groups, err := LoadActiveOptionGroups(ctx, *item.MenuItemId)
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		custom, err := ValidateCustomizations(groups, *input.Customizations)
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		// base price = current unit price minus the delta of the rows being
		// replaced, so a deleted menu item still reprices correctly
		var oldRows []OrderItemCustomization
		if err := tx.Where("order_item_id = ?", item.ID).Find(&oldRows).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		oldDelta := decimal.Zero
		for _, row := range oldRows {
			oldDelta = oldDelta.Add(row.PriceDelta.Mul(row.Quantity))
		}
		basePrice := item.UnitPrice.Sub(oldDelta)

		if err := tx.Where("order_item_id = ?", item.ID).Delete(&OrderItemCustomization{}).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
		if err := insertCustomizationRows(tx, item.ID, custom.Rows); err != nil {
			tx.Rollback()
			return nil, err
		}

		updates["UnitPrice"] = basePrice.Add(custom.PriceDelta)
		if custom.Signature == nil {
			updates["Signature"] = gorm.Expr("NULL")
		} else {
			updates["Signature"] = *custom.Signature
		}
	}

	if len(updates) > 0 {
		if err := tx.Model(item).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}

	WriteAuditLog(ctx, "order_item.update", "OrderItem", item.ID, updates)
	return utils.FetchModel[OrderItem](ctx, id)
}

// VoidOrderItem marks a line voided with a mandatory reason. Voided lines
// stay on the order for the record but leave every total.
func VoidOrderItem(ctx context.Context, id int, reason string) (*OrderItem, error) {
	if reason == "" {
		return nil, utils.NewRuleError(utils.RuleVoidReasonRequired, "void reason is required")
	}

	item, err := utils.FetchModel[OrderItem](ctx, id)
	if err != nil {
		return nil, err
	}
	if item.IsVoided != nil && *item.IsVoided {
		return item, nil
	}
	if _, err := fetchMutableOrder(ctx, item.OrderId); err != nil {
		return nil, err
	}

	username, _ := utils.GetUsernameFromContext(ctx)
	now := time.Now()

	db := config.GetDB()
	err = db.WithContext(ctx).Model(item).Updates(map[string]interface{}{
		"IsVoided":   true,
		"VoidReason": reason,
		"VoidedBy":   username,
		"VoidedAt":   now,
	}).Error
	if err != nil {
		return nil, err
	}

	WriteAuditLog(ctx, "order_item.void", "OrderItem", item.ID, map[string]string{"reason": reason})
	return item, nil
}
