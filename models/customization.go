package models

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/shopspring/decimal"
)

type ItemOptionGroup struct {
	ID            int          `gorm:"primary_key" json:"id"`
	MenuItemId    int          `gorm:"index;not null" json:"menu_item_id"`
	Name          string       `gorm:"size:100;not null" json:"name"`
	IsRequired    *bool        `gorm:"not null;default:false" json:"is_required"`
	MinSelect     int          `gorm:"not null;default:0" json:"min_select"`
	MaxSelect     *int         `json:"max_select"`
	AllowQuantity *bool        `gorm:"not null;default:false" json:"allow_quantity"`
	IsActive      *bool        `gorm:"not null;default:true" json:"is_active"`
	Options       []ItemOption `gorm:"foreignKey:GroupId" json:"options"`
	CreatedAt     time.Time    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"autoUpdateTime" json:"updated_at"`
}

type ItemOption struct {
	ID          int             `gorm:"primary_key" json:"id"`
	GroupId     int             `gorm:"index;not null" json:"group_id"`
	Name        string          `gorm:"size:100;not null" json:"name"`
	PriceDelta  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"price_delta"`
	MaxQuantity *int            `json:"max_quantity"`
	IsActive    *bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CustomizationSelection is one requested (option, qty) pair.
type CustomizationSelection struct {
	OptionId int             `json:"option_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ResolvedCustomization is the denormalized snapshot persisted per order
// item, so historical tickets survive later menu edits.
type ResolvedCustomization struct {
	GroupId    int
	GroupName  string
	OptionId   int
	OptionName string
	Quantity   decimal.Decimal
	PriceDelta decimal.Decimal
}

// CustomizationResult carries the validated outcome back to the item path.
type CustomizationResult struct {
	PriceDelta decimal.Decimal
	Signature  *string
	Rows       []ResolvedCustomization
}

func LoadActiveOptionGroups(ctx context.Context, menuItemId int) ([]ItemOptionGroup, error) {
	db := config.GetDB()
	var groups []ItemOptionGroup
	err := db.WithContext(ctx).
		Where("menu_item_id = ? AND is_active = ?", menuItemId, true).
		Preload("Options", "is_active = ?", true).
		Order("id").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// ValidateCustomizations checks a selection set against a menu item's active
// option groups and computes the price delta, the canonical signature and the
// snapshot rows. Pure: the caller loads the groups.
func ValidateCustomizations(groups []ItemOptionGroup, selections []CustomizationSelection) (*CustomizationResult, error) {
	// aggregate requested quantity per option; duplicate option ids collapse
	requested := map[int]decimal.Decimal{}
	for _, sel := range selections {
		if sel.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, fmt.Sprintf("option %d: quantity must be positive", sel.OptionId))
		}
		requested[sel.OptionId] = requested[sel.OptionId].Add(sel.Quantity)
	}

	result := CustomizationResult{PriceDelta: decimal.Zero}
	matched := map[int]bool{}

	for _, group := range groups {
		selectedCount := 0
		for _, option := range group.Options {
			qty, ok := requested[option.ID]
			if !ok {
				continue
			}
			matched[option.ID] = true

			if group.AllowQuantity == nil || !*group.AllowQuantity {
				if !qty.Equal(decimal.NewFromInt(1)) {
					return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, fmt.Sprintf("option %q does not allow quantity selection", option.Name))
				}
			} else if option.MaxQuantity != nil && qty.GreaterThan(decimal.NewFromInt(int64(*option.MaxQuantity))) {
				return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, fmt.Sprintf("option %q exceeds max quantity %d", option.Name, *option.MaxQuantity))
			}

			selectedCount++
			result.PriceDelta = result.PriceDelta.Add(option.PriceDelta.Mul(qty))
			result.Rows = append(result.Rows, ResolvedCustomization{
				GroupId:    group.ID,
				GroupName:  group.Name,
				OptionId:   option.ID,
				OptionName: option.Name,
				Quantity:   qty,
				PriceDelta: option.PriceDelta,
			})
		}

		minSelect := group.MinSelect
		if group.IsRequired != nil && *group.IsRequired {
			if minSelect < 1 {
				minSelect = 1
			}
			if selectedCount < minSelect {
				return nil, utils.NewRuleError(utils.RuleCustomizationRequired, fmt.Sprintf("group %q requires at least %d selection(s)", group.Name, minSelect))
			}
		} else if selectedCount > 0 && selectedCount < minSelect {
			return nil, utils.NewRuleError(utils.RuleCustomizationRequired, fmt.Sprintf("group %q requires at least %d selection(s)", group.Name, minSelect))
		}
		if group.MaxSelect != nil && selectedCount > *group.MaxSelect {
			return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, fmt.Sprintf("group %q allows at most %d selection(s)", group.Name, *group.MaxSelect))
		}
	}

	// selections pointing at unknown or inactive options
	for optionId := range requested {
		if !matched[optionId] {
			return nil, utils.NewRuleError(utils.RuleCustomizationInvalid, fmt.Sprintf("option %d not available for this item", optionId))
		}
	}

	result.Signature = CustomizationSignature(result.Rows)
	return &result, nil
}

// CustomizationSignature canonicalizes resolved rows into "optionId:qty"
// pairs, sorted and pipe-joined. Nil for an empty selection. Two item
// requests with equal signatures are mergeable into one order line.
func CustomizationSignature(rows []ResolvedCustomization) *string {
	if len(rows) == 0 {
		return nil
	}
	parts := make([]string, 0, len(rows))
	for _, row := range rows {
		parts = append(parts, fmt.Sprintf("%d:%s", row.OptionId, row.Quantity.String()))
	}
	sort.Strings(parts)
	signature := strings.Join(parts, "|")
	return &signature
}
