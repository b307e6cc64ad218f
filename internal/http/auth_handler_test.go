package httpapi

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterLoginAndMeFlow(t *testing.T) {
	env := newTestEnv(t)

	// 注册新用户
	w := env.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": "Test User", "email": "test@example.com"})
	require.Equal(t, http.StatusOK, w.Code)

	var reg map[string]any
	decodeBody(t, w, &reg)
	token := reg["token"].(string)
	userID := reg["user_id"].(string)
	require.NotEmpty(t, token)
	require.NotEmpty(t, userID)

	// /me 返回同一用户
	w = env.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var me map[string]any
	decodeBody(t, w, &me)
	assert.Equal(t, userID, me["user_id"])
	assert.Equal(t, "Test User", me["name"])
	assert.Equal(t, "test@example.com", me["email"])

	// token 登录返回同一身份
	w = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"token": token})
	require.Equal(t, http.StatusOK, w.Code)
	var login map[string]any
	decodeBody(t, w, &login)
	assert.Equal(t, userID, login["user_id"])
	assert.Equal(t, token, login["token"])
}

func TestRegister_RequiresName(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLogin_InvalidToken(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"token": "bogus"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_Unauthorized(t *testing.T) {
	env := newTestEnv(t)

	// 无 token
	w := env.do(t, http.MethodGet, "/api/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// 错误 token
	w = env.do(t, http.MethodGet, "/api/auth/me", "bogus", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealthLatestAndHistoryNoData(t *testing.T) {
	env := newTestEnv(t)

	// 注册拿 token
	w := env.do(t, http.MethodPost, "/api/auth/register", "",
		map[string]string{"name": "Health User"})
	require.Equal(t, http.StatusOK, w.Code)
	var reg map[string]any
	decodeBody(t, w, &reg)
	token := reg["token"].(string)
	userID := reg["user_id"].(string)

	// 无数据时 latest 返回 no_data 状态
	w = env.do(t, http.MethodGet, "/api/health/"+userID+"/latest", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var latest map[string]any
	decodeBody(t, w, &latest)
	assert.Equal(t, userID, latest["user_id"])
	assert.Contains(t, []string{"no_data", "normal", "elevated", "critical"}, latest["status"])

	// 无数据时 history 返回空列表
	w = env.do(t, http.MethodGet, "/api/health/"+userID+"/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history map[string]any
	decodeBody(t, w, &history)
	assert.Equal(t, userID, history["user_id"])
	items, ok := history["history"].([]any)
	require.True(t, ok)
	assert.Empty(t, items)
}

func TestHealth_RequiresAuth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health/user-1/latest", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
