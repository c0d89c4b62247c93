package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	originalLog := log
	defer func() { log = originalLog }()

	t.Run("Production", func(t *testing.T) {
		Init("production")
		assert.NotNil(t, log)
	})

	t.Run("Development", func(t *testing.T) {
		Init("development")
		assert.NotNil(t, log)
	})
}

func TestL_LazyInit(t *testing.T) {
	originalLog := log
	defer func() { log = originalLog }()

	log = nil
	t.Setenv("APP_ENV", "test")

	assert.NotNil(t, L())
	assert.NotNil(t, log)
}

func TestMask(t *testing.T) {
	assert.Equal(t, "?", Mask(""))
	assert.Equal(t, "***", Mask("abc"))
	assert.Equal(t, "abc-1***", Mask("abc-123456"))
}

func TestRedacted(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	l := zap.New(core)

	l.Info("settings", Redacted("secret", "top-secret"), Redacted("empty", ""))

	fields := observed.TakeAll()[0].ContextMap()
	assert.Equal(t, "<redacted>", fields["secret"])
	assert.Equal(t, "<empty>", fields["empty"])
}

func TestFromCtx(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	t.Run("WithIDs", func(t *testing.T) {
		ctx := WithRequestID(context.Background(), "req-abc-123")
		ctx = WithTransactionID(ctx, "abc-123")

		FromCtx(ctx).Info("with ids")

		logs := observed.TakeAll()
		assert.Len(t, logs, 1)
		fields := logs[0].ContextMap()
		assert.Equal(t, "req-abc-123", fields["request_id"])
		assert.Equal(t, "abc-123", fields["transaction_id"])
	})

	t.Run("WithoutIDs", func(t *testing.T) {
		FromCtx(context.Background()).Info("without ids")

		logs := observed.TakeAll()
		assert.Len(t, logs, 1)
		_, ok := logs[0].ContextMap()["request_id"]
		assert.False(t, ok)
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestIDFrom(r.Context()))
	}))

	t.Run("Generates ID when missing", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("Preserves existing ID", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "test-id-123")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, "test-id-123", w.Header().Get(RequestIDHeader))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	restore := Replace(zap.New(core))
	defer restore()

	handler := LoggingMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	req := httptest.NewRequest(http.MethodPost, "/callback?MNT_SIGNATURE=abc", nil)

	handler.ServeHTTP(httptest.NewRecorder(), req)

	logs := observed.TakeAll()
	assert.Len(t, logs, 1)
	assert.Equal(t, "incoming request", logs[0].Message)
	fields := logs[0].ContextMap()
	assert.Equal(t, "/callback", fields["path"])
	assert.EqualValues(t, http.StatusTeapot, fields["status"])
}
