package utils

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/bsm/redislock"
	"github.com/shopspring/decimal"
)

func NewTrue() *bool {
	b := true
	return &b
}

func NewFalse() *bool {
	b := false
	return &b
}

// ParseDecimal converts a string to a decimal.Decimal value.
func ParseDecimal(value string) (decimal.Decimal, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return decimal.Zero, errors.New("empty decimal string")
	}

	dec, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, err
	}

	return dec, nil
}

// BusinessDate formats a timestamp as the YYYY-MM-DD operational day in the
// configured till timezone (POS_TIMEZONE, default Asia/Yangon).
func BusinessDate(t time.Time) string {
	timezone := config.GetTimezone()
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return t.Format("2006-01-02")
	}
	return t.In(location).Format("2006-01-02")
}

// AcquireOpLock obtains a short redis lock serializing one named operation
// across instances. The returned release func is nil-safe for callers.
func AcquireOpLock(ctx context.Context, lockType string, moduleName string, functionName string) (func(), error) {
	logger := config.GetLogger()
	locker := config.GetRedisLock()
	if locker == nil {
		config.LogError(logger, moduleName, functionName, "Redis lock not initialized", lockType, errors.New("redis lock is nil"))
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("oplock:%s", lockType)
	lock, err := locker.Obtain(ctx, lockKey, 30*time.Second, nil)
	if err == redislock.ErrNotObtained {
		config.LogError(logger, moduleName, functionName, "Could not obtain lock", lockKey, err)
		return nil, errors.New("could not obtain lock: " + lockKey)
	} else if err != nil {
		config.LogError(logger, moduleName, functionName, "Error obtaining lock", lockKey, err)
		return nil, err
	}
	return func() {
		_ = lock.Release(ctx)
	}, nil
}
