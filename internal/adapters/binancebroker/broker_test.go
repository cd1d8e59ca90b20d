package binancebroker

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fxReversalBot/internal/ports"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name: "valid",
			cfg:  Config{APIKey: "key", SecretKey: "secret", Symbol: "EURUSD", Logger: &mockLogger{}},
		},
		{
			name:    "missing logger",
			cfg:     Config{APIKey: "key", SecretKey: "secret", Symbol: "EURUSD"},
			wantErr: "logger is required",
		},
		{
			name:    "missing symbol",
			cfg:     Config{APIKey: "key", SecretKey: "secret", Logger: &mockLogger{}},
			wantErr: "symbol is required",
		},
		{
			name:    "missing keys",
			cfg:     Config{Symbol: "EURUSD", Logger: &mockLogger{}},
			wantErr: "API key and secret are required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, c)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, c)
			// position and order lookups are scoped to this symbol
			assert.Equal(t, "EURUSD", c.symbol)
		})
	}
}

func TestClientOrderID(t *testing.T) {
	id := clientOrderID(234567, "0b9c2f4e-8d1a-4f3b-9c6e-7a5d2e1f0b9c")
	assert.True(t, strings.HasPrefix(id, "fxr-234567-"))
	assert.LessOrEqual(t, len(id), 36)
}

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

var _ ports.Logger = (*mockLogger)(nil)
