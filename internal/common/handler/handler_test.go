package handler

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
	"github.com/dumeirei/spacer-backend/internal/common/response"
	"github.com/dumeirei/spacer-backend/internal/middleware"
	"github.com/dumeirei/spacer-backend/internal/service/access"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// 辅助函数：创建测试上下文
func createTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

// 辅助函数：创建已登录的测试上下文
func createAuthenticatedContext(actor access.Actor) (*gin.Context, *httptest.ResponseRecorder) {
	c, w := createTestContext("/")
	c.Set(middleware.ContextKeyActor, actor)
	c.Set(middleware.ContextKeyUserID, actor.ID)
	c.Set(middleware.ContextKeyRole, actor.Role)
	return c, w
}

// 辅助函数：解析响应
func parseResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHandleError(t *testing.T) {
	t.Run("nil 错误", func(t *testing.T) {
		c, w := createTestContext("/")
		assert.False(t, HandleError(c, nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   int
	}{
		{"校验错误", errors.ErrInvalidTimeRange, http.StatusBadRequest, 5001},
		{"未认证", errors.ErrInvalidCredentials, http.StatusUnauthorized, 2005},
		{"无权限", errors.ErrPermissionDenied, http.StatusForbidden, 2004},
		{"不存在", errors.ErrSpaceNotFound, http.StatusNotFound, 4000},
		{"冲突", errors.ErrInvoiceExists, http.StatusConflict, 7001},
		{"限流", errors.ErrRateLimitExceed, http.StatusTooManyRequests, 1008},
		{"存储错误", errors.ErrDatabaseError.WithError(stderrors.New("disk full")), http.StatusInternalServerError, 1004},
		{"普通错误", stderrors.New("boom"), http.StatusInternalServerError, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := createTestContext("/")
			assert.True(t, HandleError(c, tt.err))
			assert.Equal(t, tt.wantStatus, w.Code)

			resp := parseResponse(t, w)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
			assert.NotContains(t, resp.Message, "disk full")
			assert.NotContains(t, resp.Message, "boom")
		})
	}
}

func TestHandleError_RecordsCause(t *testing.T) {
	c, _ := createTestContext("/")
	HandleError(c, errors.ErrDatabaseError.WithError(stderrors.New("disk full")))

	require.Len(t, c.Errors, 1)
	assert.Contains(t, c.Errors[0].Error(), "disk full")
}

func TestMustHelpers(t *testing.T) {
	t.Run("MustSucceed", func(t *testing.T) {
		c, w := createTestContext("/")
		MustSucceed(c, nil, gin.H{"id": 1})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("MustCreate", func(t *testing.T) {
		c, w := createTestContext("/")
		MustCreate(c, nil, gin.H{"id": 1})
		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("MustCreate 错误", func(t *testing.T) {
		c, w := createTestContext("/")
		MustCreate(c, errors.ErrEmailExists, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "email already registered", parseResponse(t, w).Error)
	})

	t.Run("MustSucceedWithMessage", func(t *testing.T) {
		c, w := createTestContext("/")
		MustSucceedWithMessage(c, nil, "Logged out successfully", nil)
		assert.Equal(t, "Logged out successfully", parseResponse(t, w).Message)
	})

	t.Run("MustSucceedPage", func(t *testing.T) {
		c, w := createTestContext("/")
		MustSucceedPage(c, nil, []int{1, 2}, 12, 2, 2)
		assert.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Data struct {
				Total    int64 `json:"total"`
				Page     int   `json:"page"`
				PageSize int   `json:"page_size"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, int64(12), body.Data.Total)
		assert.Equal(t, 2, body.Data.Page)
	})
}

func TestRequireActor(t *testing.T) {
	t.Run("未登录", func(t *testing.T) {
		c, w := createTestContext("/")
		_, ok := RequireActor(c)
		assert.False(t, ok)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("已登录", func(t *testing.T) {
		want := access.Actor{ID: 7, Role: access.RoleOwner}
		c, _ := createAuthenticatedContext(want)
		actor, ok := RequireActor(c)
		assert.True(t, ok)
		assert.Equal(t, want, actor)
	})
}

func TestParseParamID(t *testing.T) {
	tests := []struct {
		value  string
		wantOK bool
		wantID int64
	}{
		{"42", true, 42},
		{"0", false, 0},
		{"-1", false, 0},
		{"abc", false, 0},
		{"", false, 0},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			c, w := createTestContext("/")
			c.Params = gin.Params{{Key: "id", Value: tt.value}}
			id, ok := ParseID(c, "booking")
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
			if !ok {
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Equal(t, "invalid booking id", parseResponse(t, w).Message)
			}
		})
	}
}

func TestRequireActorAndParseID(t *testing.T) {
	c, w := createTestContext("/")
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	_, _, ok := RequireActorAndParseID(c, "space")
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, _ = createAuthenticatedContext(access.Actor{ID: 1, Role: access.RoleAdmin})
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	actor, id, ok := RequireActorAndParseID(c, "space")
	assert.True(t, ok)
	assert.Equal(t, int64(1), actor.ID)
	assert.Equal(t, int64(3), id)
}

func TestParseDateTime(t *testing.T) {
	want := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2025-03-01T10:00:00Z",
		"2025-03-01T11:00:00+01:00",
		"2025-03-01T10:00:00",
		"2025-03-01 10:00:00",
		"2025-03-01T10:00",
	} {
		got, err := ParseDateTime(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(got), s)
		assert.Equal(t, time.UTC, got.Location(), s)
	}

	_, err := ParseDateTime("01/03/2025")
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindValidation))
}

func TestBindPagination(t *testing.T) {
	c, _ := createTestContext("/?page=3&page_size=20")
	p := BindPagination(c)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 40, p.GetOffset())

	c, _ = createTestContext("/")
	p = BindPagination(c)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 10, p.PageSize)

	c, _ = createTestContext("/?page=-1&page_size=1000")
	p = BindPagination(c)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 100, p.PageSize)
}
