package store

import (
	"context"
	"net/http"
	"strings"

	"gorm.io/gorm"

	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// ImageStore 生成图像记录的持久化访问。
type ImageStore struct {
	db *gorm.DB
}

// NewImageStore 创建图像记录存储。
func NewImageStore(db *gorm.DB) *ImageStore {
	return &ImageStore{db: db}
}

// Create 插入一条新记录。图像引用为空的记录不允许存在。
func (s *ImageStore) Create(ctx context.Context, img *GeneratedImage) error {
	if strings.TrimSpace(img.ImageReference) == "" {
		return types.NewError(types.ErrInvalidRequest, "image reference must not be empty").
			WithHTTPStatus(http.StatusBadRequest)
	}
	if img.OwnerID == "" {
		return types.NewError(types.ErrInvalidRequest, "owner is required").
			WithHTTPStatus(http.StatusBadRequest)
	}

	if err := s.db.WithContext(ctx).Create(img).Error; err != nil {
		return types.NewError(types.ErrInternalError, "failed to create image record").WithCause(err)
	}
	return nil
}

// ListByOwner 返回指定用户的全部记录，按创建时间倒序。
func (s *ImageStore) ListByOwner(ctx context.Context, ownerID string) ([]GeneratedImage, error) {
	var images []GeneratedImage
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&images).Error
	if err != nil {
		return nil, types.NewError(types.ErrInternalError, "failed to list image records").WithCause(err)
	}
	return images, nil
}

// Delete 删除指定用户拥有的记录。
// owner 不匹配与记录不存在同样返回 NOT_FOUND，不泄露他人记录的存在性。
func (s *ImageStore) Delete(ctx context.Context, ownerID, id string) error {
	result := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&GeneratedImage{})
	if result.Error != nil {
		return types.NewError(types.ErrInternalError, "failed to delete image record").
			WithCause(result.Error)
	}
	if result.RowsAffected == 0 {
		return types.NewError(types.ErrNotFound, "image record not found").
			WithHTTPStatus(http.StatusNotFound)
	}
	return nil
}
