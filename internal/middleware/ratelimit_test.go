package middleware

import (
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dumeirei/spacer-backend/internal/common/errors"
)

func setupRateLimitRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestIPRateLimit(t *testing.T) {
	mr, client := setupRateLimitRedis(t)

	r := gin.New()
	r.Use(IPRateLimit(client, nil, 2, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "1", w.Header().Get("X-RateLimit-Remaining"))

	w = performRequest(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = performRequest(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, errors.ErrRateLimitExceed.Code, parseResponse(t, w).Code)
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 窗口结束后恢复
	mr.FastForward(time.Minute + time.Second)
	w = performRequest(r, http.MethodGet, "/x", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUserRateLimit_KeysByUser(t *testing.T) {
	mr, client := setupRateLimitRedis(t)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if id := c.GetHeader("X-User"); id == "1" {
			c.Set(ContextKeyUserID, int64(1))
		}
		c.Next()
	}, UserRateLimit(client, nil, 1, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/x", map[string]string{"X-User": "1"}).Code)
	assert.Equal(t, http.StatusTooManyRequests, performRequest(r, http.MethodGet, "/x", map[string]string{"X-User": "1"}).Code)
	// 匿名请求使用 IP 计数
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/x", nil).Code)

	require.True(t, mr.Exists("ratelimit:user:1"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	mr, client := setupRateLimitRedis(t)
	mr.Close()

	r := gin.New()
	r.Use(IPRateLimit(client, nil, 1, time.Minute))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/x", nil).Code)
	assert.Equal(t, http.StatusOK, performRequest(r, http.MethodGet, "/x", nil).Code)
}
