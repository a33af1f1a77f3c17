package parsers

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sid-reconciliation-service/pkg/errors"
)

func writeWorkbook(t *testing.T, path string, rows [][]interface{}) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

func TestFileLoaderWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "case.xlsx")
	writeWorkbook(t, path, [][]interface{}{
		{"Sr", "FIR No", "Date"},
		{1, "11188003250001", 45292},
	})

	grid, err := NewFileLoader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, grid, 2)

	fir, ok := grid.Cell(1, 1)
	assert.True(t, ok)
	assert.Equal(t, "11188003250001", fir)

	date, _ := grid.Cell(1, 2)
	parsed, err := ParseSubmissionDate(date)
	require.NoError(t, err)
	assert.Equal(t, "01/01/2024", parsed.Format("02/01/2006"))

	_, ok = grid.Cell(1, 5)
	assert.False(t, ok)
	assert.Equal(t, 3, grid.Width())
}

func TestFileLoaderCSV(t *testing.T) {
	content := "\xef\xbb\xbfSr,FIR No\n1,11188003250001,extra\n2\n"

	grid, err := NewFileLoader(nil).LoadReader(context.Background(), "case.csv", bytes.NewBufferString(content))
	require.NoError(t, err)
	require.Len(t, grid, 3)
	assert.Equal(t, "Sr", grid[0][0], "byte order mark must be stripped")
	assert.Equal(t, 3, grid.Width())

	cell, ok := grid.Cell(2, 1)
	assert.False(t, ok)
	assert.Empty(t, cell)
}

func TestFileLoaderErrors(t *testing.T) {
	loader := NewFileLoader(nil)
	ctx := context.Background()

	t.Run("missing file", func(t *testing.T) {
		_, err := loader.Load(ctx, filepath.Join(t.TempDir(), "absent.xlsx"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeFileNotFound))
	})

	t.Run("legacy workbook", func(t *testing.T) {
		_, err := loader.LoadReader(ctx, "old.xls", bytes.NewBufferString("binary"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeUnsupportedFormat))
	})

	t.Run("corrupted workbook", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "broken.xlsx")
		require.NoError(t, os.WriteFile(path, []byte("not a zip archive"), 0644))

		_, err := loader.Load(ctx, path)
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeFileCorrupted))
	})

	t.Run("invalid utf-8 csv", func(t *testing.T) {
		_, err := loader.LoadReader(ctx, "sid.csv", bytes.NewBufferString("a,\xff\xfe\n"))
		require.Error(t, err)
		assert.True(t, errors.IsCode(err, errors.CodeInvalidFormat))
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := loader.LoadReader(cancelled, "sid.csv", bytes.NewBufferString("a\n"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestDefaultTableLayout(t *testing.T) {
	layout := DefaultTableLayout()
	require.NoError(t, layout.Validate())

	assert.Equal(t, 11, layout.SID.sidWidth())
	assert.Equal(t, 7, layout.FIR.firWidth())
}
