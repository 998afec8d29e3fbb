package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db
}

func serve(t *testing.T, c *DefaultController, path string) (int, map[string]interface{}) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/", c.GetHome)
	router.GET("/health", c.GetHealth)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestGetHome(t *testing.T) {
	code, body := serve(t, NewDefaultController(newTestDB(t), nil), "/")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body["message"], "Eden Store API")
}

func TestGetHealth(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		code, body := serve(t, NewDefaultController(newTestDB(t), stubPinger{}), "/health")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, map[string]interface{}{"database": "ok", "cache": "ok"}, body["checks"])
	})

	t.Run("cache down", func(t *testing.T) {
		c := NewDefaultController(newTestDB(t), stubPinger{err: errors.New("connection refused")})
		code, body := serve(t, c, "/health")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "degraded", body["status"])
		checks := body["checks"].(map[string]interface{})
		assert.Equal(t, "ok", checks["database"])
		assert.Equal(t, "connection refused", checks["cache"])
	})

	t.Run("database closed", func(t *testing.T) {
		db := newTestDB(t)
		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.NoError(t, sqlDB.Close())

		code, body := serve(t, NewDefaultController(db, nil), "/health")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		checks := body["checks"].(map[string]interface{})
		assert.NotEqual(t, "ok", checks["database"])
		assert.Equal(t, "ok", checks["cache"])
	})
}
