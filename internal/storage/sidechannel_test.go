package storage

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/replicator/internal/dynamo"
)

func TestEncodeSamples_Layout(t *testing.T) {
	states := []dynamo.State{
		{0.33, 0.33, 0.34},
		{1, 0, 0},
		{0.1234564, 0.1234567, -0.0000001},
	}

	var buf bytes.Buffer
	require.NoError(t, EncodeSamples(&buf, states))

	expected := "0.330000 0.330000 0.340000\n" +
		"1.000000 0.000000 0.000000\n" +
		"0.123456 0.123457 -0.000000\n"
	assert.Equal(t, expected, buf.String())
}

func TestEncodeSamples_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeSamples(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestEncodeSamples_WrongDimension(t *testing.T) {
	var buf bytes.Buffer
	err := EncodeSamples(&buf, []dynamo.State{{0.5, 0.5}})
	assert.Error(t, err)
}

func TestWriteReadSamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.txt")
	states := []dynamo.State{{0.2, 0.3, 0.5}, {0.25, 0.25, 0.5}}

	require.NoError(t, WriteSamples(path, states))

	got, err := ReadSamplesFile(path)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDeltaSlice(t, []float64(states[1]), []float64(got[1]), 1e-12)

	// a second write replaces the first
	require.NoError(t, WriteSamples(path, states[:1]))
	got, err = ReadSamplesFile(path)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestWriteSamples_IOFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "data.txt")

	err := WriteSamples(path, []dynamo.State{{1, 0, 0}})
	require.Error(t, err)
	assert.ErrorIs(t, err, dynamo.ErrIOFailure)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadSamples(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		samples int
		wantErr bool
	}{
		{"empty", "", 0, false},
		{"two lines", "0.1 0.2 0.7\n0.2 0.2 0.6\n", 2, false},
		{"blank lines", "0.1 0.2 0.7\n\n0.2 0.2 0.6\n\n", 2, false},
		{"no trailing newline", "1.000000 0.000000 0.000000", 1, false},
		{"two fields", "0.1 0.9\n", 0, true},
		{"not a number", "0.1 x 0.9\n", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			states, err := ReadSamples(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, states, tt.samples)
		})
	}
}
