package store

import (
	"fmt"

	"gorm.io/gorm"
)

// InitDatabase 自动迁移本包的所有表。
// 生产部署使用版本化迁移（internal/migration），
// AutoMigrate 用于开发环境与 sqlite 测试。
func InitDatabase(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&User{},
		&GeneratedImage{},
	); err != nil {
		return fmt.Errorf("failed to auto migrate: %w", err)
	}
	return nil
}
