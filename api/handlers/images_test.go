package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/uzhackedpc333/img37-img-ethancer/imagegen"
	"github.com/uzhackedpc333/img37-img-ethancer/store"
	"github.com/uzhackedpc333/img37-img-ethancer/types"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

// stubProvider 可编程的图像生成 Provider
type stubProvider struct {
	result  *imagegen.GenerateResult
	err     error
	calls   int
	lastReq *imagegen.GenerateRequest
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) HealthCheck(ctx context.Context) error { return nil }

func (p *stubProvider) Generate(ctx context.Context, req *imagegen.GenerateRequest) (*imagegen.GenerateResult, error) {
	p.calls++
	p.lastReq = req
	if p.err != nil {
		return nil, p.err
	}
	return p.result, nil
}

type imageTestEnv struct {
	handler  *ImageHandler
	provider *stubProvider
	users    *store.UserStore
	images   *store.ImageStore
}

func setupImageEnv(t *testing.T) *imageTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, store.InitDatabase(db))

	provider := &stubProvider{
		result: &imagegen.GenerateResult{
			ImageReference: "https://images.example.com/img.png",
			Model:          "google/gemini-2.5-flash-image-preview",
		},
	}
	images := store.NewImageStore(db)

	return &imageTestEnv{
		handler:  NewImageHandler(provider, images, nil, zap.NewNop()),
		provider: provider,
		users:    store.NewUserStore(db),
		images:   images,
	}
}

func (e *imageTestEnv) newUser(t *testing.T, email string) *store.User {
	t.Helper()
	user := &store.User{Email: email, PasswordHash: "hashed"}
	require.NoError(t, e.users.Create(context.Background(), user))
	return user
}

// authedRequest 构造带认证用户的请求
func authedRequest(method, target, body, userID string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	if userID != "" {
		r = r.WithContext(types.WithUserID(r.Context(), userID))
	}
	return r
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

// =============================================================================
// 🖼️ 生成接口测试
// =============================================================================

func TestHandleGeneratePersistsRecord(t *testing.T) {
	env := setupImageEnv(t)
	user := env.newUser(t, "alice@example.com")

	w := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/images/generate", `{"prompt":"a red circle"}`, user.ID)

	env.handler.HandleGenerate(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	assert.True(t, resp.Success)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var record ImageRecord
	require.NoError(t, json.Unmarshal(data, &record))

	assert.NotEmpty(t, record.ID)
	assert.Equal(t, "a red circle", record.Prompt)
	assert.Equal(t, "https://images.example.com/img.png", record.ImageURL)
	assert.Equal(t, "google/gemini-2.5-flash-image-preview", record.Model)

	// 记录真的落库，且排在列表首位
	records, err := env.images.ListByOwner(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
}

func TestHandleGeneratePassesEditImage(t *testing.T) {
	env := setupImageEnv(t)
	user := env.newUser(t, "alice@example.com")

	w := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/images/generate",
		`{"prompt":"make it blue","edit_image_base64":"aGVsbG8="}`, user.ID)

	env.handler.HandleGenerate(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, env.provider.lastReq)
	assert.Equal(t, "make it blue", env.provider.lastReq.Prompt)
	assert.Equal(t, "aGVsbG8=", env.provider.lastReq.EditImageBase64)
}

func TestHandleGenerateRequiresAuth(t *testing.T) {
	env := setupImageEnv(t)

	w := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/images/generate", `{"prompt":"a cat"}`, "")

	env.handler.HandleGenerate(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Zero(t, env.provider.calls)
}

func TestHandleGenerateRejectsBlankPrompt(t *testing.T) {
	env := setupImageEnv(t)
	user := env.newUser(t, "alice@example.com")

	w := httptest.NewRecorder()
	r := authedRequest(http.MethodPost, "/api/v1/images/generate", `{"prompt":"   "}`, user.ID)

	env.handler.HandleGenerate(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, env.provider.calls)
}

func TestHandleGenerateUpstreamErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        *types.Error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "rate limited relayed",
			err:        types.NewError(types.ErrRateLimited, "rate limit exceeded").WithHTTPStatus(http.StatusTooManyRequests),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   string(types.ErrRateLimited),
		},
		{
			name:       "payment required relayed",
			err:        types.NewError(types.ErrPaymentRequired, "insufficient credits").WithHTTPStatus(http.StatusPaymentRequired),
			wantStatus: http.StatusPaymentRequired,
			wantCode:   string(types.ErrPaymentRequired),
		},
		{
			name:       "no image produced",
			err:        types.NewError(types.ErrNoImageProduced, "no image in response").WithHTTPStatus(http.StatusUnprocessableEntity),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   string(types.ErrNoImageProduced),
		},
		{
			name:       "upstream failure",
			err:        types.NewError(types.ErrUpstreamError, "upstream returned status 500").WithHTTPStatus(http.StatusBadGateway),
			wantStatus: http.StatusBadGateway,
			wantCode:   string(types.ErrUpstreamError),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupImageEnv(t)
			user := env.newUser(t, "alice@example.com")
			env.provider.err = tt.err

			w := httptest.NewRecorder()
			r := authedRequest(http.MethodPost, "/api/v1/images/generate", `{"prompt":"a cat"}`, user.ID)

			env.handler.HandleGenerate(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decodeResponse(t, w)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)

			// 失败不落库
			records, err := env.images.ListByOwner(context.Background(), user.ID)
			require.NoError(t, err)
			assert.Empty(t, records)
		})
	}
}

// =============================================================================
// 📋 列表与删除接口测试
// =============================================================================

func TestHandleListReturnsOwnRecordsOnly(t *testing.T) {
	env := setupImageEnv(t)
	alice := env.newUser(t, "alice@example.com")
	bob := env.newUser(t, "bob@example.com")
	ctx := context.Background()

	require.NoError(t, env.images.Create(ctx, &store.GeneratedImage{
		OwnerID: alice.ID, Prompt: "first", ImageReference: "https://x/1.png",
	}))
	require.NoError(t, env.images.Create(ctx, &store.GeneratedImage{
		OwnerID: bob.ID, Prompt: "other", ImageReference: "https://x/2.png",
	}))

	w := httptest.NewRecorder()
	env.handler.HandleList(w, authedRequest(http.MethodGet, "/api/v1/images", "", alice.ID))

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)

	data, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var records []ImageRecord
	require.NoError(t, json.Unmarshal(data, &records))

	require.Len(t, records, 1)
	assert.Equal(t, "first", records[0].Prompt)
}

func TestHandleListRequiresAuth(t *testing.T) {
	env := setupImageEnv(t)

	w := httptest.NewRecorder()
	env.handler.HandleList(w, authedRequest(http.MethodGet, "/api/v1/images", "", ""))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHandleDeleteOwnerOnly(t *testing.T) {
	env := setupImageEnv(t)
	alice := env.newUser(t, "alice@example.com")
	bob := env.newUser(t, "bob@example.com")
	ctx := context.Background()

	img := &store.GeneratedImage{OwnerID: alice.ID, Prompt: "keep", ImageReference: "https://x/1.png"}
	require.NoError(t, env.images.Create(ctx, img))

	// 非 owner 删除返回 NOT_FOUND
	w := httptest.NewRecorder()
	env.handler.HandleDelete(w, authedRequest(http.MethodDelete, "/api/v1/images/"+img.ID, "", bob.ID))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// 记录仍然存在
	records, err := env.images.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, records, 1)

	// owner 删除成功
	w = httptest.NewRecorder()
	env.handler.HandleDelete(w, authedRequest(http.MethodDelete, "/api/v1/images/"+img.ID, "", alice.ID))
	assert.Equal(t, http.StatusOK, w.Code)

	records, err = env.images.ListByOwner(ctx, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHandleDeleteMissingID(t *testing.T) {
	env := setupImageEnv(t)
	user := env.newUser(t, "alice@example.com")

	w := httptest.NewRecorder()
	env.handler.HandleDelete(w, authedRequest(http.MethodDelete, "/api/v1/images/", "", user.ID))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
