package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirReportSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Summary-Beta-Q1.txt"), []byte("beta"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Summary-Alpha-Q1.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	src := NewDirReportSource(dir, nil)
	reports, err := src.List(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "Alpha", reports[0].Fund)
	assert.Equal(t, "Beta", reports[1].Fund)

	text, err := src.Read(context.Background(), reports[0])
	require.NoError(t, err)
	assert.Equal(t, "alpha", text)
}

func TestDirReportSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewDirReportSource(t.TempDir(), nil).List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
