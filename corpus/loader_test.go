package corpus

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sabela/consulta/core"
)

// writeSheet writes an xlsx fixture with the canonical header plus the given
// rows and returns its path.
func writeSheet(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := []any{"id", "pregunta", "respuesta", "grupo", "tema", "obsoleto", "revisado"}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	for i, row := range rows {
		addr, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, addr, &row))
	}

	path := filepath.Join(t.TempDir(), "faq.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestLoad(t *testing.T) {
	path := writeSheet(t, [][]any{
		{1, "<p>¿Cómo renuevo el carné?</p>", "<p>En secretaría._x000d_\n</p>", 2, "tramites", "", "s"},
		{2, "<p>Obsoleta</p>", "<p>da igual</p>", 2, "", "x", "s"},
		{3, "<p>Sin revisar</p>", "<p>da igual</p>", 3, "", "", ""},
		{4, "<p>Horarios</p>", "<p>De 9 a 14</p>", 5, "", "", "s"},
	})

	loader := NewLoader(true)
	docs, err := loader.Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	// source order preserved
	assert.Equal(t, core.ID(1), docs[0].ID)
	assert.Equal(t, core.ID(4), docs[1].ID)

	// normalized concatenation of question + answer
	assert.Equal(t, "cómo renuevo el carné? en secretaría.", docs[0].Text)
	assert.Equal(t, "horarios de 9 a 14", docs[1].Text)

	// payload preserves the raw markup for display
	assert.Equal(t, "<p>¿Cómo renuevo el carné?</p>", docs[0].Payload.Pregunta)
	assert.Equal(t, "<p>En secretaría._x000d_\n</p>", docs[0].Payload.Respuesta)
	assert.Equal(t, 2, docs[0].Payload.Grupo)
	assert.Equal(t, "tramites", docs[0].Payload.Tema)
}

func TestLoadNumericCellFormats(t *testing.T) {
	// Exported sheets sometimes format integer columns as floats.
	path := writeSheet(t, [][]any{
		{"12.0", "<p>Becas</p>", "<p>Plazo abierto</p>", "3.0", "", "", "s"},
	})

	docs, err := NewLoader(true).Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, core.ID(12), docs[0].ID)
	assert.Equal(t, 3, docs[0].Payload.Grupo)
}

func TestLoadIneligibleRowsMayBeIncomplete(t *testing.T) {
	// Rows that are filtered out must not fail ingestion on their other
	// cells.
	path := writeSheet(t, [][]any{
		{"", "", "", "", "", "x", ""},
		{7, "<p>Valida</p>", "<p>Sí</p>", 1, "", "", "s"},
	})

	docs, err := NewLoader(true).Load(path)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, core.ID(7), docs[0].ID)
}

func TestLoadBadCells(t *testing.T) {
	path := writeSheet(t, [][]any{
		{"not-a-number", "<p>Hola</p>", "<p>Mundo</p>", 1, "", "", "s"},
	})

	_, err := NewLoader(true).Load(path)
	assert.ErrorIs(t, err, ErrBadCell)
}

func TestLoadMissingColumn(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	header := []any{"id", "pregunta", "respuesta"} // no grupo
	require.NoError(t, f.SetSheetRow(sheet, "A1", &header))
	path := filepath.Join(t.TempDir(), "faq.xlsx")
	require.NoError(t, f.SaveAs(path))

	_, err := NewLoader(true).Load(path)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := NewLoader(true).Load(filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.ErrorIs(t, err, ErrSourceUnreadable)
}
