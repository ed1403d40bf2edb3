package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User 注册用户。
type User struct {
	ID           string    `gorm:"type:uuid;primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	FullName     string    `gorm:"size:255" json:"fullName,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// BeforeCreate 未指定时生成 UUID 主键。
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// GeneratedImage 一次成功生成的持久化记录。
// 记录除删除外不可变：编辑不改写旧记录，而是产生一条新记录。
type GeneratedImage struct {
	ID      string `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID string `gorm:"type:uuid;index;not null" json:"ownerId"`
	Prompt  string `gorm:"type:text;not null" json:"prompt"`
	// ImageReference 远程 URL 或内联 base64 data URI，必非空
	ImageReference string    `gorm:"type:text;not null" json:"imageReference"`
	Model          string    `gorm:"size:255" json:"model,omitempty"`
	TextContent    string    `gorm:"type:text" json:"textContent,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

// BeforeCreate 未指定时生成 UUID 主键。
func (g *GeneratedImage) BeforeCreate(tx *gorm.DB) error {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}
