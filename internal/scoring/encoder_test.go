package scoring

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/roadrank/roadrank/internal/errors"
)

func TestEncoderTable_Encode(t *testing.T) {
	enc := NewEncoderTable()

	tests := []struct {
		name     string
		field    string
		raw      string
		expected float64
		wantErr  bool
	}{
		{name: "known road type", field: FieldRoadType, raw: "highway", expected: 0},
		{name: "known residential", field: FieldRoadType, raw: "residential", expected: 3},
		{name: "known time of day", field: FieldTimeOfDay, raw: "late_night", expected: 4},
		{name: "known weather", field: FieldWeather, raw: "sandstorm", expected: 3},
		{name: "unseen value rejected", field: FieldWeather, raw: "hail", wantErr: true},
		{name: "unseen field rejected", field: "moon_phase", raw: "full", wantErr: true},
		{name: "case sensitive", field: FieldRoadType, raw: "Highway", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := enc.Encode(tt.field, tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				var appErr *apperrors.AppError
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperrors.CategoryValidation, appErr.Category)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, code)
		})
	}
}

func TestEncoderTable_Knows(t *testing.T) {
	enc := NewEncoderTable()

	assert.True(t, enc.Knows(FieldTimeOfDay, "morning_rush"))
	assert.False(t, enc.Knows(FieldTimeOfDay, "dawn"))
	assert.False(t, enc.Knows("unknown_field", "anything"))
}

func TestLoadEncoderTable(t *testing.T) {
	dir := t.TempDir()

	t.Run("loads valid artifact", func(t *testing.T) {
		path := filepath.Join(dir, "encoders.json")
		payload := `{"road_type": {"highway": 0, "rural": 4}}`
		require.NoError(t, os.WriteFile(path, []byte(payload), 0o644))

		enc, err := LoadEncoderTable(path)
		require.NoError(t, err)

		code, err := enc.Encode(FieldRoadType, "rural")
		require.NoError(t, err)
		assert.Equal(t, 4.0, code)
	})

	t.Run("rejects empty artifact", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

		_, err := LoadEncoderTable(path)
		assert.Error(t, err)
	})

	t.Run("rejects missing file", func(t *testing.T) {
		_, err := LoadEncoderTable(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})
}
