package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type AuditLog struct {
	ID            int            `gorm:"primary_key" json:"id"`
	Action        string         `gorm:"size:100;index;not null" json:"action"`
	Entity        string         `gorm:"size:100;not null" json:"entity"`
	EntityId      int            `gorm:"index" json:"entity_id"`
	Data          datatypes.JSON `json:"data"`
	Actor         string         `gorm:"size:100" json:"actor"`
	CorrelationId string         `gorm:"size:50;index" json:"correlation_id"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// WriteAuditLog records a business action. Best-effort: a failed write is
// logged and swallowed, it never fails the operation it describes.
func WriteAuditLog(ctx context.Context, action string, entity string, entityId int, data interface{}) {
	logger := config.GetLogger()

	actor, _ := utils.GetUsernameFromContext(ctx)
	correlationId, ok := utils.GetCorrelationIdFromContext(ctx)
	if !ok || correlationId == "" {
		correlationId = uuid.NewString()
	}

	var payload datatypes.JSON
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			config.LogError(logger, "auditLog.go", "WriteAuditLog", action, data, err)
			raw = []byte("{}")
		}
		payload = datatypes.JSON(raw)
	}

	entry := AuditLog{
		Action:        action,
		Entity:        entity,
		EntityId:      entityId,
		Data:          payload,
		Actor:         actor,
		CorrelationId: correlationId,
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(&entry).Error; err != nil {
		config.LogError(logger, "auditLog.go", "WriteAuditLog", action, entry, err)
	}
}

type AuditLogFilter struct {
	Entity   *string
	EntityId *int
	Action   *string
	Limit    int
}

func ListAuditLogs(ctx context.Context, filter AuditLogFilter) ([]*AuditLog, error) {
	db := config.GetDB()
	dbCtx := db.WithContext(ctx)
	if filter.Entity != nil {
		dbCtx = dbCtx.Where("entity = ?", *filter.Entity)
	}
	if filter.EntityId != nil {
		dbCtx = dbCtx.Where("entity_id = ?", *filter.EntityId)
	}
	if filter.Action != nil {
		dbCtx = dbCtx.Where("action = ?", *filter.Action)
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var results []*AuditLog
	err := dbCtx.Order("id DESC").Limit(limit).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}
