package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/uzhackedpc333/img37-img-ethancer/imagegen"
	"github.com/uzhackedpc333/img37-img-ethancer/internal/metrics"
	"github.com/uzhackedpc333/img37-img-ethancer/store"
	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// =============================================================================
// 🖼️ 图像生成接口 Handler
// =============================================================================

// ImageHandler 图像生成与记录管理处理器
type ImageHandler struct {
	provider imagegen.Provider
	images   *store.ImageStore
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// GenerateImageRequest 图像生成请求
type GenerateImageRequest struct {
	Prompt          string `json:"prompt"`
	EditImageBase64 string `json:"edit_image_base64,omitempty"`
}

// ImageRecord API 返回的图像记录
type ImageRecord struct {
	ID          string    `json:"id"`
	Prompt      string    `json:"prompt"`
	ImageURL    string    `json:"image_url"`
	Model       string    `json:"model,omitempty"`
	TextContent string    `json:"text_content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewImageHandler 创建图像处理器
func NewImageHandler(provider imagegen.Provider, images *store.ImageStore, collector *metrics.Collector, logger *zap.Logger) *ImageHandler {
	return &ImageHandler{
		provider: provider,
		images:   images,
		metrics:  collector,
		logger:   logger,
	}
}

// =============================================================================
// 🎯 HTTP 处理程序
// =============================================================================

// HandleGenerate 处理图像生成请求：调用上游生成，成功后持久化记录
func (h *ImageHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if !ValidateContentType(w, r, h.logger) {
		return
	}

	var req GenerateImageRequest
	if err := DecodeJSONBody(w, r, &req, h.logger); err != nil {
		return
	}

	if strings.TrimSpace(req.Prompt) == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "prompt is required", h.logger)
		return
	}

	start := time.Now()
	result, err := h.provider.Generate(r.Context(), &imagegen.GenerateRequest{
		Prompt:          req.Prompt,
		EditImageBase64: req.EditImageBase64,
	})
	duration := time.Since(start)

	if err != nil {
		h.recordGeneration(result, outcomeFromError(err), duration)
		handleServiceError(w, err, h.logger)
		return
	}

	h.recordGeneration(result, "success", duration)

	record := &store.GeneratedImage{
		OwnerID:        userID,
		Prompt:         req.Prompt,
		ImageReference: result.ImageReference,
		Model:          result.Model,
		TextContent:    result.TextContent,
	}
	if err := h.images.Create(r.Context(), record); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordImageOperation("created")
	}

	h.logger.Info("image generated",
		zap.String("user_id", userID),
		zap.String("record_id", record.ID),
		zap.String("model", result.Model),
		zap.Duration("duration", duration),
	)

	WriteSuccess(w, toImageRecord(record))
}

// HandleList 返回当前用户的全部图像记录，最新在前
func (h *ImageHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	records, err := h.images.ListByOwner(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	result := make([]ImageRecord, 0, len(records))
	for i := range records {
		result = append(result, toImageRecord(&records[i]))
	}

	WriteSuccess(w, result)
}

// HandleDelete 删除当前用户拥有的一条图像记录
func (h *ImageHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	imageID := extractImageID(r)
	if imageID == "" {
		WriteErrorMessage(w, http.StatusBadRequest, types.ErrInvalidRequest, "image ID is required", h.logger)
		return
	}

	if err := h.images.Delete(r.Context(), userID, imageID); err != nil {
		handleServiceError(w, err, h.logger)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordImageOperation("deleted")
	}

	h.logger.Info("image record deleted",
		zap.String("user_id", userID),
		zap.String("record_id", imageID),
	)

	WriteSuccess(w, map[string]string{"id": imageID, "status": "deleted"})
}

// =============================================================================
// 🔧 辅助函数
// =============================================================================

// requireUser 从请求上下文取认证用户 ID，缺失时写 401
func (h *ImageHandler) requireUser(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, ok := types.UserID(r.Context())
	if !ok {
		WriteError(w, types.NewError(types.ErrUnauthorized, "authentication required").
			WithHTTPStatus(http.StatusUnauthorized), h.logger)
		return "", false
	}
	return userID, true
}

func (h *ImageHandler) recordGeneration(result *imagegen.GenerateResult, outcome string, duration time.Duration) {
	if h.metrics == nil {
		return
	}
	model := ""
	if result != nil {
		model = result.Model
	}
	h.metrics.RecordGeneration(h.provider.Name(), model, outcome, duration)
}

func outcomeFromError(err error) string {
	if code := types.GetErrorCode(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

func toImageRecord(img *store.GeneratedImage) ImageRecord {
	return ImageRecord{
		ID:          img.ID,
		Prompt:      img.Prompt,
		ImageURL:    img.ImageReference,
		Model:       img.Model,
		TextContent: img.TextContent,
		CreatedAt:   img.CreatedAt,
	}
}

// extractImageID extracts the image record ID from the URL path.
// Supports both /api/v1/images/{id} (PathValue) and prefix trimming.
func extractImageID(r *http.Request) string {
	if id := r.PathValue("id"); id != "" {
		return id
	}
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/images/")
	if path != "" && path != r.URL.Path && !strings.Contains(path, "/") {
		return path
	}
	return ""
}
