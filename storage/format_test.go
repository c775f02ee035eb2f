package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"JSON", FormatJSON, false},
		{"sqlite", FormatSQLite, false},
		{" db ", FormatSQLite, false},
		{"adif", FormatADIF, false},
		{"adi", FormatADIF, false},
		{"badger", FormatBadger, false},
		{"csv", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatNames(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatSQLite, FormatADIF, FormatBadger} {
		parsed, err := ParseFormat(f.String())
		require.NoError(t, err)
		assert.Equal(t, f, parsed)
		assert.NotEmpty(t, f.DefaultFileName())
	}
	assert.Equal(t, "Format(42)", Format(42).String())
}
