package cli

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"room8/internal/config"
	"room8/internal/log"
)

func TestRenderTable(t *testing.T) {
	out := RenderTable(Table{
		Title:   "Balances",
		Headers: []string{"Roommate", "Net"},
		Rows: [][]string{
			{"Alex", "+$20.00"},
			{"Sam", "-$10.00"},
			{SeparatorRow},
			{"Total", "$30.00"},
		},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 9)
	assert.Contains(t, lines[0], "Balances")
	assert.True(t, strings.HasPrefix(lines[1], "╭"))
	assert.Contains(t, lines[2], "Roommate")
	assert.Contains(t, lines[4], "Alex")
	assert.True(t, strings.HasSuffix(lines[4], "+$20.00 │"), "values are right aligned")
	assert.True(t, strings.HasPrefix(lines[6], "├"))
	assert.True(t, strings.HasPrefix(lines[8], "╰"))
}

func TestRenderTableEmpty(t *testing.T) {
	assert.Empty(t, RenderTable(Table{}))
}

func TestFormatters(t *testing.T) {
	assert.Equal(t, "$12.50", FormatMoney(decimal.RequireFromString("12.5")))
	assert.Contains(t, FormatNet(decimal.NewFromInt(20)), "+$20.00")
	assert.Contains(t, FormatNet(decimal.NewFromInt(-10)), "-$10.00")
	assert.Equal(t, "$0.00", FormatNet(decimal.Zero))

	for m, want := range map[int]string{30: "30m", 60: "1h", 90: "1h 30m"} {
		assert.Equal(t, want, FormatMinutes(m))
	}
}

func TestNewLoggerHonoursConfig(t *testing.T) {
	defer slog.SetDefault(slog.Default())

	var buf bytes.Buffer
	logger := newLogger(&buf, &config.Config{LogFormat: "json", LogLevel: "warn"}, log.ComponentWorker)
	logger.Info("hidden")
	logger.Warn("shown")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"component":"worker"`)
}

func TestOpenRuntimeMemory(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("TIMEZONE", "UTC")
	cfg := config.Load()

	var buf bytes.Buffer
	logger := newLogger(&buf, cfg, log.ComponentApp)
	defer slog.SetDefault(slog.Default())

	rt, err := OpenRuntime(context.Background(), logger, cfg)
	require.NoError(t, err)
	defer rt.Close()

	assert.Nil(t, rt.Backend.Broker)
	assert.False(t, rt.Backend.CalendarRemote)
	assert.Equal(t, time.UTC, rt.Household.Scheduler().Location())

	_, err = rt.Household.AddRoommate(context.Background(), "Alex", "", "")
	require.NoError(t, err)
	assert.Len(t, rt.Household.Roommates(), 1)
}
