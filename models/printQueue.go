package models

import (
	"context"
	"time"

	"github.com/Iseids/restaurant-pos-backend/config"
	"github.com/Iseids/restaurant-pos-backend/utils"
	"gorm.io/gorm"
)

// PrintQueueItem is one kitchen ticket waiting on a printer. A station polls
// its queue by printer key and acknowledges jobs after printing.
type PrintQueueItem struct {
	ID          int            `gorm:"primary_key" json:"id"`
	OrderId     int            `gorm:"index;not null" json:"order_id"`
	OrderItemId int            `gorm:"index;not null" json:"order_item_id"`
	PrinterKey  string         `gorm:"size:50;index;not null" json:"printer_key"`
	Status      PrintJobStatus `gorm:"type:enum('queued','printed');default:'queued';size:10;not null" json:"status"`
	PrintedAt   *time.Time     `json:"printed_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

func enqueuePrintJob(tx *gorm.DB, orderId int, orderItemId int, printerKey string) error {
	job := PrintQueueItem{
		OrderId:     orderId,
		OrderItemId: orderItemId,
		PrinterKey:  printerKey,
		Status:      PrintJobStatusQueued,
	}
	return tx.Create(&job).Error
}

func GetQueuedPrintJobs(ctx context.Context, printerKey string) ([]*PrintQueueItem, error) {
	db := config.GetDB()
	var results []*PrintQueueItem
	err := db.WithContext(ctx).
		Where("printer_key = ? AND status = ?", printerKey, PrintJobStatusQueued).
		Order("id").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MarkPrintJobDone acknowledges a ticket and stamps the line as printed to
// the kitchen, which stops it from merging with later additions.
func MarkPrintJobDone(ctx context.Context, jobId int) error {
	job, err := utils.FetchModel[PrintQueueItem](ctx, jobId)
	if err != nil {
		return err
	}
	if job.Status == PrintJobStatusPrinted {
		return nil
	}

	now := time.Now()

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	if err := tx.Model(job).Updates(map[string]interface{}{
		"Status":    PrintJobStatusPrinted,
		"PrintedAt": now,
	}).Error; err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Model(&OrderItem{}).
		Where("id = ? AND kitchen_printed_at IS NULL", job.OrderItemId).
		Update("KitchenPrintedAt", now).Error; err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
