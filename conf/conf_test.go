package conf

import "log/slog"
import "os"
import "path/filepath"
import "testing"

import "github.com/spf13/cobra"
import "github.com/stretchr/testify/assert"
import "github.com/stretchr/testify/require"

func TestDefaults(t *testing.T) {
	s, err := Load(New(), "")
	require.NoError(t, err)
	assert.Equal(t, Settings{
		GridSize: 4,
		CellSize: 8,
		Epochs:   3,
		Split:    0.8,
		LogLevel: "info",
	}, *s)
	assert.Equal(t, slog.LevelInfo, s.Level())
}

func TestEnvFileAndFlags(t *testing.T) {
	t.Setenv("DETECTOR_EPOCHS", "7")
	t.Setenv("DETECTOR_LOG_LEVEL", "debug")

	path := filepath.Join(t.TempDir(), "detector.yaml")
	require.NoError(t, os.WriteFile(path, []byte("grid_size: 2\ncell_size: 6\nepochs: 5\n"), 0o644))

	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().Int("cell-size", 8, "")
	cmd.Flags().Bool("train-on-split", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--cell-size", "10", "--train-on-split"}))

	v := New()
	require.NoError(t, BindFlags(v, cmd))
	s, err := Load(v, path)
	require.NoError(t, err)

	assert.Equal(t, 2, s.GridSize)  // file
	assert.Equal(t, 10, s.CellSize) // flag over file
	assert.Equal(t, 7, s.Epochs)    // env over file
	assert.True(t, s.TrainOnSplit)  // flag
	assert.Equal(t, slog.LevelDebug, s.Level())
}

func TestValidate(t *testing.T) {
	good := Settings{GridSize: 4, CellSize: 8, Split: 0.8}
	require.NoError(t, good.Validate())

	for name, mutate := range map[string]func(*Settings){
		"grid":    func(s *Settings) { s.GridSize = 0 },
		"odd":     func(s *Settings) { s.CellSize = 7 },
		"big":     func(s *Settings) { s.CellSize = 12 },
		"epochs":  func(s *Settings) { s.Epochs = -1 },
		"threads": func(s *Settings) { s.Threads = -2 },
		"split":   func(s *Settings) { s.Split = 0 },
		"level":   func(s *Settings) { s.LogLevel = "loud" },
	} {
		s := good
		mutate(&s)
		assert.ErrorIs(t, s.Validate(), ErrInvalid, name)
	}
}

func TestMissingConfigFile(t *testing.T) {
	_, err := Load(New(), filepath.Join(t.TempDir(), "none.yaml"))
	assert.Error(t, err)
}
