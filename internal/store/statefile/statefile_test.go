package statefile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nsahay2509/crypto-trade-dashboard/internal/model"
)

func TestPublishState_ReplacesFile(t *testing.T) {
	dir := t.TempDir()
	w := New(filepath.Join(dir, "nested", "state.json"))
	ctx := context.Background()

	_, ok, err := w.Read()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, w.PublishState(ctx, model.BotState{BotStatus: model.StatusRunning, CurrentPrice: 101}))
	require.NoError(t, w.PublishState(ctx, model.BotState{
		BotStatus:    model.StatusIdle,
		CurrentPrice: 99.5,
		Indicators: map[string]model.IndicatorView{
			model.IndRSI: {Value: model.Unusable, Used: true, Signal: "HOLD"},
		},
	}))

	got, ok, err := w.Read()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, model.StatusIdle, got.BotStatus)
	assert.Equal(t, 99.5, got.CurrentPrice)
	assert.False(t, got.Indicators[model.IndRSI].Value.Ready)

	raw, err := os.ReadFile(w.Path())
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"value": null`)

	entries, err := os.ReadDir(filepath.Dir(w.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestPublishState_EmptyPath(t *testing.T) {
	assert.Error(t, New("").PublishState(context.Background(), model.BotState{}))
}
