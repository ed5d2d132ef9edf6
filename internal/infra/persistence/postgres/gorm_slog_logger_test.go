package postgres

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"kinwatch/config"
	deliverycontext "kinwatch/internal/delivery/context"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestGormLogger(buf *bytes.Buffer, cfg *config.Config) logger.Interface {
	base := slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return newGormSlogLogger(base, cfg)
}

func sqlFn(sql string) func() (string, int64) {
	return func() (string, int64) { return sql, 3 }
}

func TestGormSlogLogger_Trace(t *testing.T) {
	cfg := &config.Config{Storage: &config.StorageConfig{SlowQueryThreshold: 50 * time.Millisecond}}

	t.Run("failed query", func(t *testing.T) {
		var buf bytes.Buffer
		newTestGormLogger(&buf, cfg).Trace(context.Background(), time.Now(), sqlFn("SELECT 1"), errors.New("boom"))

		out := buf.String()
		assert.Contains(t, out, "GORM query failed")
		assert.Contains(t, out, "error=boom")
		assert.Contains(t, out, "component=gorm")
	})

	t.Run("record not found is quiet", func(t *testing.T) {
		var buf bytes.Buffer
		newTestGormLogger(&buf, cfg).Trace(context.Background(), time.Now(), sqlFn("SELECT 1"), gorm.ErrRecordNotFound)
		assert.Empty(t, buf.String())
	})

	t.Run("slow query", func(t *testing.T) {
		var buf bytes.Buffer
		newTestGormLogger(&buf, cfg).Trace(context.Background(), time.Now().Add(-time.Second), sqlFn("SELECT pg_sleep(1)"), nil)
		assert.Contains(t, buf.String(), "GORM slow query")
	})

	t.Run("fast query only in debug", func(t *testing.T) {
		var buf bytes.Buffer
		newTestGormLogger(&buf, cfg).Trace(context.Background(), time.Now(), sqlFn("SELECT 1"), nil)
		assert.Empty(t, buf.String())

		debugCfg := &config.Config{}
		debugCfg.Env.Debug = true
		newTestGormLogger(&buf, debugCfg).Trace(context.Background(), time.Now(), sqlFn("SELECT 1"), nil)
		assert.Contains(t, buf.String(), "GORM query")
	})

	t.Run("silent", func(t *testing.T) {
		var buf bytes.Buffer
		newTestGormLogger(&buf, cfg).LogMode(logger.Silent).Trace(context.Background(), time.Now(), sqlFn("SELECT 1"), errors.New("boom"))
		assert.Empty(t, buf.String())
	})
}

func TestGormSlogLogger_UsesRequestLogger(t *testing.T) {
	var base, scoped bytes.Buffer
	l := newTestGormLogger(&base, &config.Config{})

	reqLogger := slog.New(slog.NewTextHandler(&scoped, nil)).With(slog.String("requestID", "req-9"))
	ctx := deliverycontext.WithLogger(context.Background(), reqLogger)
	l.Trace(ctx, time.Now(), sqlFn(strings.Repeat("x", maxLoggedSQL+10)), errors.New("boom"))

	assert.Empty(t, base.String())
	assert.Contains(t, scoped.String(), "requestID=req-9")
	assert.Contains(t, scoped.String(), "(truncated)")
}
