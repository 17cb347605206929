package helpers

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spektr-org/progdash/engine"
	"github.com/spektr-org/progdash/schema"
)

// ============================================================================
// STORE BUILDER — Raw sheets → normalized record store
// ============================================================================
// Pipeline:
//   1. Read every source concurrently
//   2. Pick the header row, normalize each header once
//   3. Bind the config's phrases against the union of headers
//   4. Drop blank rows; numeric columns → ParseNumeric, others → trimmed text
//   5. One store per sheet, concatenated without copying
// ============================================================================

// Sheet is one worksheet or query result as raw rows.
type Sheet struct {
	Name      string
	Rows      [][]string
	HeaderRow int // 1-based; 0 takes the config's header_row
}

// Source yields a sheet. Implementations: FileSource, SQLSource, PostgresSource.
type Source interface {
	Name() string
	Read(ctx context.Context) (*Sheet, error)
}

// FileSource reads a csv, xlsx or xls file.
type FileSource struct {
	Path   string
	Format string // "" = by extension
	Sheet  string // workbook worksheet, "" = first
}

// Name identifies the source in logs.
func (s *FileSource) Name() string {
	if s.Sheet != "" {
		return filepath.Base(s.Path) + ":" + s.Sheet
	}
	return filepath.Base(s.Path)
}

// Read reads the whole file.
func (s *FileSource) Read(ctx context.Context) (*Sheet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := ReadFile(s.Path, s.Format, s.Sheet)
	if err != nil {
		return nil, err
	}
	return &Sheet{Name: s.Name(), Rows: rows}, nil
}

// ReaderSource reads CSV or xlsx bytes already in memory.
type ReaderSource struct {
	Label  string
	Format string
	R      io.Reader
}

// Name identifies the source in logs.
func (s *ReaderSource) Name() string { return s.Label }

// Read parses the stream.
func (s *ReaderSource) Read(ctx context.Context) (*Sheet, error) {
	var (
		rows [][]string
		err  error
	)
	switch s.Format {
	case FormatCSV:
		rows, err = ReadCSV(s.R)
	case FormatXLSX:
		rows, err = ReadExcel(s.R, "")
	default:
		return nil, errors.Wrapf(ErrUnsupportedFormat, "format %q", s.Format)
	}
	if err != nil {
		return nil, err
	}
	return &Sheet{Name: s.Label, Rows: rows}, nil
}

// Dataset is a loaded store plus the dashboard bound to its headers.
type Dataset struct {
	Store     engine.RecordView
	Dashboard engine.Dashboard
	Binding   *schema.Binding
	Headers   []string
	Sources   []string
	LoadedAt  time.Time
}

// EngineOptions returns the engine options implied by a config.
func EngineOptions(cfg *schema.Config, log *zap.Logger) []engine.Option {
	return []engine.Option{
		engine.WithCurrencyGlyph(cfg.DisplayGlyph()),
		engine.WithLogger(log),
	}
}

// EmptyDataset is what callers show when nothing could be loaded: every KPI
// zero, every table empty, every filter offering only All.
func EmptyDataset(cfg *schema.Config) *Dataset {
	dash, binding := cfg.Bind(nil)
	return &Dataset{
		Store:     engine.NewStore(nil, nil, nil),
		Dashboard: dash,
		Binding:   binding,
		LoadedAt:  time.Now(),
	}
}

type parsedSheet struct {
	name    string
	headers []string // normalized; "" marks an unusable column
	rows    [][]string
}

// parseSheet locates the header row and keeps the non-blank data rows.
func parseSheet(sheet *Sheet, cfg *schema.Config) (*parsedSheet, error) {
	headerRow := sheet.HeaderRow
	if headerRow <= 0 {
		headerRow = cfg.HeaderRow
	}
	if headerRow <= 0 {
		headerRow = 1
	}
	if len(sheet.Rows) < headerRow {
		return nil, errors.Wrapf(ErrInsufficientData, "%s: %d rows, header expected on row %d",
			sheet.Name, len(sheet.Rows), headerRow)
	}

	raw := sheet.Rows[headerRow-1]
	headers := make([]string, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, h := range raw {
		n := engine.NormalizeHeader(h)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		headers[i] = n
	}

	p := &parsedSheet{name: sheet.Name, headers: headers}
	for _, row := range sheet.Rows[headerRow:] {
		if engine.IsBlankRow(row) {
			continue
		}
		p.rows = append(p.rows, row)
	}
	return p, nil
}

// toStore converts parsed rows to records under a binding.
func (p *parsedSheet) toStore(b *schema.Binding, glyphs []string) engine.RecordView {
	var dimKeys, mesKeys []string
	for _, h := range p.headers {
		switch {
		case h == "":
		case b.IsNumeric(h):
			mesKeys = append(mesKeys, h)
		default:
			dimKeys = append(dimKeys, h)
		}
	}

	records := make([]engine.Record, 0, len(p.rows))
	for _, row := range p.rows {
		rec := engine.NewRecord()
		for i, h := range p.headers {
			if h == "" {
				continue
			}
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			if b.IsNumeric(h) {
				if v, ok := engine.ParseNumeric(cell, glyphs...); ok {
					rec.Measures[h] = v
				}
				continue
			}
			rec.Dimensions[h] = engine.NormalizeCategory(cell)
		}
		records = append(records, rec)
	}
	return engine.NewStore(records, dimKeys, mesKeys)
}

// BuildStore normalizes one sheet and binds the config against it.
func BuildStore(sheet *Sheet, cfg *schema.Config) (*Dataset, error) {
	p, err := parseSheet(sheet, cfg)
	if err != nil {
		return nil, err
	}
	dash, binding := cfg.Bind(compact(p.headers))
	return &Dataset{
		Store:     p.toStore(binding, cfg.Glyphs()),
		Dashboard: dash,
		Binding:   binding,
		Headers:   compact(p.headers),
		Sources:   []string{sheet.Name},
		LoadedAt:  time.Now(),
	}, nil
}

// LoadAll reads every source concurrently and concatenates them into one
// store. Sheets too short to hold a header are skipped with a warning; if
// none is usable the error wraps ErrInsufficientData.
func LoadAll(ctx context.Context, cfg *schema.Config, log *zap.Logger, sources ...Source) (*Dataset, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if len(sources) == 0 {
		return nil, errors.New("no sources to load")
	}

	sheets := make([]*Sheet, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			sheet, err := src.Read(gctx)
			if err != nil {
				return errors.Wrapf(err, "source %s", src.Name())
			}
			sheets[i] = sheet
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var parsed []*parsedSheet
	var lastErr error
	for _, sheet := range sheets {
		p, err := parseSheet(sheet, cfg)
		if err != nil {
			log.Warn("sheet skipped", zap.String("sheet", sheet.Name), zap.Error(err))
			lastErr = err
			continue
		}
		parsed = append(parsed, p)
	}
	if len(parsed) == 0 {
		return nil, lastErr
	}

	// Bind against the union so a phrase present in any sheet resolves.
	var headers []string
	seen := make(map[string]bool)
	for _, p := range parsed {
		for _, h := range p.headers {
			if h != "" && !seen[h] {
				seen[h] = true
				headers = append(headers, h)
			}
		}
	}
	dash, binding := cfg.Bind(headers)
	for _, phrase := range binding.Missing {
		log.Warn("no column matches field", zap.String("field", phrase))
	}

	views := make([]engine.RecordView, len(parsed))
	names := make([]string, len(parsed))
	for i, p := range parsed {
		views[i] = p.toStore(binding, cfg.Glyphs())
		names[i] = p.name
		log.Debug("sheet loaded", zap.String("sheet", p.name), zap.Int("rows", views[i].Len()))
	}

	store := views[0]
	if len(views) > 1 {
		store = engine.Concat(views...)
	}

	log.Info("dataset loaded",
		zap.Strings("sources", names),
		zap.Int("rows", store.Len()),
		zap.Int("columns", len(headers)))

	return &Dataset{
		Store:     store,
		Dashboard: dash,
		Binding:   binding,
		Headers:   headers,
		Sources:   names,
		LoadedAt:  time.Now(),
	}, nil
}

// Load is LoadAll that falls back to EmptyDataset when no sheet holds data.
func Load(ctx context.Context, cfg *schema.Config, log *zap.Logger, sources ...Source) (*Dataset, error) {
	ds, err := LoadAll(ctx, cfg, log, sources...)
	if errors.Is(err, ErrInsufficientData) {
		return EmptyDataset(cfg), nil
	}
	return ds, err
}

func compact(headers []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if h != "" {
			out = append(out, h)
		}
	}
	return out
}
