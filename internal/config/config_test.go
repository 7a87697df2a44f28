package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/photo2video/internal/export"
	"github.com/ivlev/photo2video/internal/sequencer"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 1280, cfg.Render.Width)
	assert.Equal(t, 720, cfg.Render.Height)
	assert.Equal(t, 30, cfg.Render.FPS)
	assert.Equal(t, "auto", cfg.Render.Codec)
	assert.Equal(t, sequencer.HoldHalf, cfg.HoldMode())
	assert.Equal(t, "AssembledVideo.mp4", cfg.Output.BaseName)
	assert.Equal(t, "AnimatedVideo.mp4", cfg.Output.CompositedName)
	assert.Equal(t, 2, cfg.Pool.Buffers)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("PHOTO2VIDEO_RENDER_FPS", "25")
	t.Setenv("PHOTO2VIDEO_RENDER_HOLD", "full")

	v := viper.New()
	SetDefaults(v)
	BindEnv(v)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.Render.FPS)
	assert.Equal(t, sequencer.HoldFull, cfg.HoldMode())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		value  any
		errMsg string
	}{
		{"odd width", "render.width", 1281, "even"},
		{"zero fps", "render.fps", 0, "fps"},
		{"bad hold", "render.hold", "forever", "hold"},
		{"same names", "output.composited_name", "AssembledVideo.mp4", "differ"},
		{"no buffers", "pool.buffers", 0, "buffers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			SetDefaults(v)
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestPreferenceStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "prefs.yaml")

	store, err := OpenPreferenceStore(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), store.Snapshot())
	assert.Equal(t, export.StyleMoveIn, store.Snapshot().Style)
	assert.Equal(t, export.FromTop, store.Snapshot().Direction)
	assert.Equal(t, 1.0, store.Snapshot().Transition)
	assert.Zero(t, store.Snapshot().ItemCount)

	p := store.Snapshot()
	p.Style = export.StyleCube
	p.ItemCount = 4
	require.NoError(t, store.Save(p))

	reopened, err := OpenPreferenceStore(path)
	require.NoError(t, err)
	assert.Equal(t, p, reopened.Snapshot())
}

func TestPreferenceStoreSnapshotIsCopy(t *testing.T) {
	store, err := OpenPreferenceStore(filepath.Join(t.TempDir(), "prefs.yaml"))
	require.NoError(t, err)

	snap := store.Snapshot()
	snap.ItemCount = 99
	assert.Zero(t, store.Snapshot().ItemCount)
}

func TestPreferenceStoreRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	store, err := OpenPreferenceStore(path)
	require.NoError(t, err)

	p := store.Snapshot()
	p.Transition = 0.3
	assert.Error(t, store.Save(p))
	assert.Equal(t, DefaultPreferences(), store.Snapshot())

	require.NoError(t, os.WriteFile(path, []byte("style: spin\n"), 0644))
	_, err = OpenPreferenceStore(path)
	assert.Error(t, err)
}

func TestPreferencesPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")
	require.NoError(t, os.WriteFile(path, []byte("style: fade\nitem_count: 2\n"), 0644))

	store, err := OpenPreferenceStore(path)
	require.NoError(t, err)
	snap := store.Snapshot()
	assert.Equal(t, export.StyleFade, snap.Style)
	assert.Equal(t, 2, snap.ItemCount)
	assert.Equal(t, export.FromTop, snap.Direction)
	assert.Equal(t, DefaultDisplay, snap.Display)
}
