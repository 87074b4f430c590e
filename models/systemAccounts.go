package models

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"gorm.io/gorm"
)

// System accounts: one permanent vault_base account per method key, plus per
// open shift one shift_session account per key under a non-transactional
// "session main" parent. All are provisioned lazily on first need.

const vaultAccountsCacheKey = "VaultAccounts"

// NormalizePaymentMethod lowercases the free-form method token and folds
// aliases onto the system account keys ("bank" settles like "card").
func NormalizePaymentMethod(method string) string {
	method = strings.ToLower(strings.TrimSpace(method))
	if method == "bank" {
		return AccountKeyCard
	}
	return method
}

func accountTypeForKey(key string) AccountType {
	switch key {
	case AccountKeyCash:
		return AccountTypeCash
	case AccountKeyCard, AccountKeyCheque:
		return AccountTypeBank
	default:
		return AccountTypeOther
	}
}

func titleKey(key string) string {
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func vaultAccountName(key string) string {
	return "Vault " + titleKey(key)
}

// GetVaultAccount returns the permanent vault account for a method key,
// creating it on first use. Account ids (never balances) are cached in redis.
func GetVaultAccount(tx *gorm.DB, ctx context.Context, key string) (*Account, error) {
	var vaultIds map[string]int
	exists, err := config.GetRedisObject(vaultAccountsCacheKey, &vaultIds)
	if err != nil {
		return nil, err
	}
	if exists {
		if id, ok := vaultIds[key]; ok {
			var account Account
			if err := tx.WithContext(ctx).First(&account, id).Error; err == nil {
				return &account, nil
			}
			// stale cache entry; fall through to re-provision
			_ = config.RemoveRedisKey(vaultAccountsCacheKey)
		}
	}

	var account Account
	err = tx.WithContext(ctx).
		Where("scope = ? AND account_key = ?", AccountScopeVaultBase, key).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = Account{
			Name:       vaultAccountName(key),
			Type:       accountTypeForKey(key),
			Scope:      AccountScopeVaultBase,
			AccountKey: key,
			IsActive:   utils.NewTrue(),
			IsSystem:   utils.NewTrue(),
			IsLocked:   utils.NewTrue(),
		}
		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	if err := cacheVaultAccountIds(tx, ctx); err != nil {
		// cache refresh failure is not fatal; the map is an id lookup only
		config.LogError(config.GetLogger(), "systemAccounts.go", "GetVaultAccount", "cacheVaultAccountIds", key, err)
	}
	return &account, nil
}

func cacheVaultAccountIds(tx *gorm.DB, ctx context.Context) error {
	var accounts []*Account
	if err := tx.WithContext(ctx).
		Select("id", "account_key").
		Where("scope = ?", AccountScopeVaultBase).
		Find(&accounts).Error; err != nil {
		return err
	}
	vaultIds := make(map[string]int)
	for _, account := range accounts {
		vaultIds[account.AccountKey] = account.ID
	}
	return config.SetRedisObject(vaultAccountsCacheKey, &vaultIds, 0)
}

func sessionMainAccountName(shiftId int) string {
	return fmt.Sprintf("Shift #%d Session", shiftId)
}

func sessionAccountName(shiftId int, key string) string {
	return fmt.Sprintf("Shift #%d %s", shiftId, titleKey(key))
}

// getSessionMainAccount returns the display-grouping parent for a shift's
// session accounts. It takes no postings itself.
func getSessionMainAccount(tx *gorm.DB, ctx context.Context, shiftId int) (*Account, error) {
	var account Account
	err := tx.WithContext(ctx).
		Where("scope = ? AND shift_id = ? AND account_key = ?", AccountScopeShiftSession, shiftId, "").
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = Account{
			Name:     sessionMainAccountName(shiftId),
			Type:     AccountTypeOther,
			Scope:    AccountScopeShiftSession,
			ShiftId:  &shiftId,
			IsActive: utils.NewTrue(),
			IsSystem: utils.NewTrue(),
			IsLocked: utils.NewTrue(),
		}
		if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
			return nil, err
		}
		return &account, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetShiftSessionAccount returns the shift's session account for a method
// key, creating it (and the session main parent) on first use.
func GetShiftSessionAccount(tx *gorm.DB, ctx context.Context, shiftId int, key string) (*Account, error) {
	var account Account
	err := tx.WithContext(ctx).
		Where("scope = ? AND shift_id = ? AND account_key = ?", AccountScopeShiftSession, shiftId, key).
		First(&account).Error
	if err == nil {
		return &account, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	main, err := getSessionMainAccount(tx, ctx, shiftId)
	if err != nil {
		return nil, err
	}
	vault, err := GetVaultAccount(tx, ctx, key)
	if err != nil {
		return nil, err
	}

	account = Account{
		Name:            sessionAccountName(shiftId, key),
		Type:            accountTypeForKey(key),
		Scope:           AccountScopeShiftSession,
		AccountKey:      key,
		ShiftId:         &shiftId,
		BaseAccountId:   &vault.ID,
		ParentAccountId: &main.ID,
		IsActive:        utils.NewTrue(),
		IsSystem:        utils.NewTrue(),
		IsLocked:        utils.NewTrue(),
	}
	if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// ResolveAccountForPayment picks the ledger account a payment posts to:
// the open shift's session account for the method, else the vault account,
// else an operator-configured mapping.
func ResolveAccountForPayment(tx *gorm.DB, ctx context.Context, shiftId int, method string) (*Account, error) {
	key := NormalizePaymentMethod(method)

	if isSystemAccountKey(key) {
		if shiftId > 0 {
			return GetShiftSessionAccount(tx, ctx, shiftId, key)
		}
		return GetVaultAccount(tx, ctx, key)
	}

	var mapping PaymentMethodMapping
	err := tx.WithContext(ctx).Where("method = ?", key).First(&mapping).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NewRuleError(utils.RulePaymentAmountInvalid, fmt.Sprintf("no account configured for payment method %q", key))
	}
	if err != nil {
		return nil, err
	}
	var account Account
	if err := tx.WithContext(ctx).First(&account, mapping.AccountId).Error; err != nil {
		return nil, utils.ErrorRecordNotFound
	}
	return &account, nil
}

func isSystemAccountKey(key string) bool {
	for _, k := range SystemAccountKeys() {
		if k == key {
			return true
		}
	}
	return false
}
