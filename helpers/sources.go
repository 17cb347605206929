package helpers

import (
	"context"
	"strings"

	"github.com/pkg/errors"

	"github.com/spektr-org/progdash/schema"
)

// SourcesFromConfig opens the sources a config describes. The returned
// closer releases database handles and is never nil.
func SourcesFromConfig(ctx context.Context, src schema.SourceConfig) ([]Source, func(), error) {
	noop := func() {}

	format := strings.ToLower(src.Kind)
	if format == "" && src.Path != "" {
		f, err := DetectFormat(src.Path)
		if err != nil {
			return nil, noop, err
		}
		format = f
	}

	switch format {
	case FormatCSV, FormatXLSX, FormatXLS:
		if src.Path == "" {
			return nil, noop, errors.New("source path is required")
		}
		if len(src.Sheets) == 0 || format == FormatCSV {
			return []Source{&FileSource{Path: src.Path, Format: format}}, noop, nil
		}
		sources := make([]Source, 0, len(src.Sheets))
		for _, sheet := range src.Sheets {
			sources = append(sources, &FileSource{Path: src.Path, Format: format, Sheet: strings.TrimSpace(sheet)})
		}
		return sources, noop, nil

	case FormatSQLite:
		dsn := src.DSN
		if dsn == "" {
			dsn = src.Path
		}
		if dsn == "" || src.Query == "" {
			return nil, noop, errors.New("sqlite source needs a dsn and a query")
		}
		db, err := OpenSQLite(dsn)
		if err != nil {
			return nil, noop, err
		}
		closer := func() { db.Close() }
		return []Source{&SQLSource{Label: "sqlite", DB: db, Query: src.Query}}, closer, nil

	case FormatPostgres:
		if src.DSN == "" || src.Query == "" {
			return nil, noop, errors.New("postgres source needs a dsn and a query")
		}
		pg, err := NewPostgresSource(ctx, src.DSN, src.Query)
		if err != nil {
			return nil, noop, err
		}
		return []Source{pg}, pg.Close, nil
	}

	return nil, noop, errors.Wrapf(ErrUnsupportedFormat, "source kind %q", src.Kind)
}
