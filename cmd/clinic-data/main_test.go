package main

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExportCommand(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	out := filepath.Join(t.TempDir(), "out.xlsx")

	rootCmd.SetArgs([]string{"--backend", "memory", "export", "--out", out})
	require.NoError(t, rootCmd.Execute())

	wb, err := excelize.OpenFile(out)
	require.NoError(t, err)
	defer wb.Close()
	v, err := wb.GetCellValue("Appointments", "D2")
	require.NoError(t, err)
	assert.Equal(t, "Toothache", v)
}

func TestResetCommand_RequiresConfirmation(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	resetYes = false

	rootCmd.SetArgs([]string{"--backend", "memory", "reset"})
	assert.Error(t, rootCmd.Execute())
}

func TestResetCommand_LevelDB(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("LEVELDB_PATH", filepath.Join(t.TempDir(), "clinic.ldb"))

	rootCmd.SetArgs([]string{"--backend", "leveldb", "reset", "--yes"})
	require.NoError(t, rootCmd.Execute())
}

func TestUnknownBackend(t *testing.T) {
	rootCmd.SetArgs([]string{"--backend", "floppy", "export"})
	assert.Error(t, rootCmd.Execute())
}
