package store

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// UserStore 用户记录的持久化访问。
type UserStore struct {
	db *gorm.DB
}

// NewUserStore 创建用户存储。
func NewUserStore(db *gorm.DB) *UserStore {
	return &UserStore{db: db}
}

// Create 插入新用户，邮箱重复时返回 DUPLICATE_EMAIL。
func (s *UserStore) Create(ctx context.Context, user *User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicateKeyError(err) {
			return types.NewError(types.ErrDuplicateEmail, "email is already registered").
				WithHTTPStatus(http.StatusConflict).
				WithCause(err)
		}
		return types.NewError(types.ErrInternalError, "failed to create user").WithCause(err)
	}
	return nil
}

// GetByEmail 按邮箱查找用户。
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "user not found").
				WithHTTPStatus(http.StatusNotFound)
		}
		return nil, types.NewError(types.ErrInternalError, "failed to query user").WithCause(err)
	}
	return &user, nil
}

// GetByID 按 ID 查找用户。
func (s *UserStore) GetByID(ctx context.Context, id string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, types.NewError(types.ErrNotFound, "user not found").
				WithHTTPStatus(http.StatusNotFound)
		}
		return nil, types.NewError(types.ErrInternalError, "failed to query user").WithCause(err)
	}
	return &user, nil
}

// isDuplicateKeyError 识别不同驱动的唯一约束冲突。
func isDuplicateKeyError(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique failed") ||
		strings.Contains(msg, "duplicate key")
}
