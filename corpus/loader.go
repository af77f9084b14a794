package corpus

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/sabela/consulta/core"
	"github.com/sabela/consulta/textnorm"
)

// Expected header names in the source spreadsheet, matched case-insensitively.
const (
	colID        = "id"
	colPregunta  = "pregunta"
	colRespuesta = "respuesta"
	colGrupo     = "grupo"
	colTema      = "tema"
	colObsoleto  = "obsoleto"
	colRevisado  = "revisado"
)

// Loader reads the FAQ spreadsheet and yields normalized documents for
// ingestion and evaluation. Row order from the source is preserved and no
// content deduplication is performed.
type Loader struct {
	keepAccents bool
	logger      *slog.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger == nil {
			logger = slog.Default()
		}
		l.logger = logger
	}
}

// NewLoader creates a loader. keepAccents selects the normalizer variant and
// must match the variant used everywhere else for the corpus.
func NewLoader(keepAccents bool, opts ...Option) *Loader {
	l := &Loader{
		keepAccents: keepAccents,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load reads the first sheet of the xlsx file at path, filters out obsolete
// and unapproved rows, and returns one document per retained article. The
// document text is normalize(pregunta)+" "+normalize(respuesta); the payload
// keeps the raw HTML for display.
func (l *Loader) Load(path string) ([]core.Document, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: opening %s: %w", ErrSourceUnreadable, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s has no sheets", ErrSourceUnreadable, path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("%w: reading sheet %s: %w", ErrSourceUnreadable, sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: sheet %s is empty", ErrSourceUnreadable, sheets[0])
	}

	cols, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	var docs []core.Document
	for i, row := range rows[1:] {
		// Gating cells decide retention before anything else is parsed, so
		// obsolete or unreviewed rows never fail ingestion on other cells.
		gate := core.Article{
			Obsoleto: strings.TrimSpace(cell(row, cols[colObsoleto])),
			Revisado: strings.TrimSpace(cell(row, cols[colRevisado])),
		}
		if !gate.Eligible() {
			continue
		}

		article, err := l.parseRow(cols, row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if err := core.ValidateArticle(article); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		docs = append(docs, l.document(article))
	}

	l.logger.Info("corpus loaded", "path", path, "rows", len(rows)-1, "retained", len(docs))
	return docs, nil
}

// document derives the normalized embedding text and display payload.
func (l *Loader) document(article *core.Article) core.Document {
	pregunta := textnorm.Normalize(article.Pregunta, l.keepAccents)
	respuesta := textnorm.Normalize(article.Respuesta, l.keepAccents)
	return core.Document{
		ID:   article.ID,
		Text: pregunta + " " + respuesta,
		Payload: core.Payload{
			Pregunta:  article.Pregunta,
			Respuesta: article.Respuesta,
			Grupo:     article.Grupo,
			Tema:      article.Tema,
		},
	}
}

func (l *Loader) parseRow(cols map[string]int, row []string) (*core.Article, error) {
	id, err := parseInt(cell(row, cols[colID]))
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrBadCell, cell(row, cols[colID]))
	}
	grupo, err := parseInt(cell(row, cols[colGrupo]))
	if err != nil {
		return nil, fmt.Errorf("%w: grupo %q", ErrBadCell, cell(row, cols[colGrupo]))
	}

	return &core.Article{
		ID:        core.ID(id),
		Pregunta:  cell(row, cols[colPregunta]),
		Respuesta: cell(row, cols[colRespuesta]),
		Grupo:     int(grupo),
		Tema:      cell(row, cols[colTema]),
		Obsoleto:  strings.TrimSpace(cell(row, cols[colObsoleto])),
		Revisado:  strings.TrimSpace(cell(row, cols[colRevisado])),
	}, nil
}

// headerIndex maps the known column names to their positions. The gating and
// tema columns are optional; identity and content columns are not.
func headerIndex(header []string) (map[string]int, error) {
	cols := map[string]int{
		colTema:     -1,
		colObsoleto: -1,
		colRevisado: -1,
	}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{colID, colPregunta, colRespuesta, colGrupo} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}
	return cols, nil
}

// cell returns the value at idx, tolerating the ragged rows excelize
// produces when trailing cells are empty.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// parseInt accepts both integer and float-formatted numeric cells.
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
