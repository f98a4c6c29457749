package logger

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/dumeirei/spacer-backend/internal/common/config"
)

func TestNew_Stdout(t *testing.T) {
	log, err := New(&config.LoggerConfig{Level: "info", Format: "console", Output: "stdout"})
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}

func TestNew_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	log, err := New(&config.LoggerConfig{
		Level:    "debug",
		Format:   "json",
		Output:   "file",
		FilePath: path,
		MaxSize:  1,
	})
	require.NoError(t, err)

	log.Info("booking created", BookingID(42), UserID(7), Module("booking"))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"booking created"`)
	assert.Contains(t, string(data), `"booking_id":42`)
	assert.Contains(t, string(data), `"user_id":7`)
	assert.Contains(t, string(data), `"module":"booking"`)
}

func TestNew_FileWithoutPathFallsBackToStdout(t *testing.T) {
	log, err := New(&config.LoggerConfig{Level: "warn", Output: "file"})
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.WarnLevel))
}

func TestGetLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"info", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"verbose", zapcore.InfoLevel},
		{"", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, getLogLevel(tt.in))
		})
	}
}

func TestOrNop(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	log, err := New(&config.LoggerConfig{Level: "info"})
	require.NoError(t, err)
	assert.Same(t, log, OrNop(log))
}

func TestFieldHelpers(t *testing.T) {
	assert.Equal(t, "request_id", RequestID("abc").Key)
	assert.Equal(t, "space_id", SpaceID(1).Key)
	assert.Equal(t, "payment_id", PaymentID(1).Key)
	assert.Equal(t, "invoice_no", InvoiceNo("INV1").Key)
	assert.Equal(t, "action", Action("approve").Key)
	assert.Equal(t, "latency", Latency(time.Second).Key)
}
