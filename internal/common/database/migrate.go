// Package database 提供数据库连接和管理功能
package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/tatchunari/neatly-backend/internal/models"
)

// Migrate 执行数据库迁移
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.RoomType{},
		&models.Room{},
		&models.Addon{},
		&models.Booking{},
		&models.BookingAddon{},
		&models.Payment{},
		&models.PromoCode{},
		&models.ContentBlock{},
		&models.Testimonial{},
		&models.FAQ{},
		&models.ChatSession{},
		&models.ChatMessage{},
	); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	// 并发安全约束只能在 PostgreSQL 上建立：
	// 1) 同一房间在非终态下日期区间互斥（防止双重预订的最后一道防线）
	// 2) 每个预订至多一条成功支付
	if db.Dialector.Name() == "postgres" {
		stmts := []string{
			`CREATE EXTENSION IF NOT EXISTS btree_gist`,
			`ALTER TABLE bookings DROP CONSTRAINT IF EXISTS bookings_no_overlap`,
			`ALTER TABLE bookings ADD CONSTRAINT bookings_no_overlap
				EXCLUDE USING gist (
					room_id WITH =,
					daterange(check_in_date, check_out_date, '[)') WITH &&
				) WHERE (status IN ('pending', 'confirmed'))`,
			`CREATE UNIQUE INDEX IF NOT EXISTS idx_payments_one_completed
				ON payments (booking_id) WHERE (status = 'completed')`,
		}
		for _, stmt := range stmts {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("create constraint failed: %w", err)
			}
		}
	}

	return nil
}
