package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/web-casa/topoviz/internal/auth"
	"github.com/web-casa/topoviz/internal/database"
	"github.com/web-casa/topoviz/internal/event"
	"github.com/web-casa/topoviz/internal/model"
	"gorm.io/gorm"
)

const testSecret = "handler-test-secret"

var handlerTestCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	t      *testing.T
	db     *gorm.DB
	bus    *event.Bus
	hub    *event.Hub
	router *gin.Engine
	token  string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := fmt.Sprintf("handler_test_%d", handlerTestCounter.Add(1))
	db, err := database.OpenInMemory(name)
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// newTestEnv builds the full router over a fresh database with one admin
// user and a valid token for it
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := event.NewBus(logger)
	hub := event.NewHub(bus, logger)

	hashed, err := auth.HashPassword("admin123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	admin := model.User{Username: "admin", Password: hashed}
	if err := db.Create(&admin).Error; err != nil {
		t.Fatalf("create admin: %v", err)
	}
	token, err := auth.GenerateToken(admin.ID, admin.Username, testSecret)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	router := NewRouter(Deps{
		DB:        db,
		Logger:    logger,
		Bus:       bus,
		Hub:       hub,
		Limiter:   auth.NewRateLimiter(5, 15*time.Minute),
		JWTSecret: testSecret,
	})
	return &testEnv{t: t, db: db, bus: bus, hub: hub, router: router, token: token}
}

// do sends a request through the router; authed requests carry the admin token
func (e *testEnv) do(method, path string, body any, authed bool) *httptest.ResponseRecorder {
	e.t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			e.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) mustCreate(path string, body any) map[string]any {
	e.t.Helper()
	w := e.do(http.MethodPost, path, body, true)
	if w.Code != http.StatusCreated {
		e.t.Fatalf("POST %s: status %d body %s", path, w.Code, w.Body.String())
	}
	return decode(e.t, w)
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return out
}

func idOf(obj map[string]any) uint {
	return uint(obj["id"].(float64))
}

func setAuthContext(c *gin.Context) {
	c.Set("user_id", uint(1))
	c.Set("username", "admin")
}

func countAuditLogs(db *gorm.DB) int64 {
	var count int64
	db.Model(&model.AuditLog{}).Count(&count)
	return count
}

func responseHasErrorKey(w *httptest.ResponseRecorder) bool {
	var resp map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		return false
	}
	keyStr, ok := resp["error_key"].(string)
	return ok && keyStr != ""
}
