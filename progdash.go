// Package progdash computes a programme performance dashboard from a
// spreadsheet of projects.
//
// Usage:
//
//	import (
//	    "github.com/spektr-org/progdash/engine"
//	    "github.com/spektr-org/progdash/helpers"
//	    "github.com/spektr-org/progdash/schema"
//	)
//
//	cfg, _ := schema.Load("progdash.yaml")
//	ds, _ := helpers.Load(ctx, cfg, logger, &helpers.FileSource{Path: "projects.xlsx"})
//	sess, _ := engine.NewSession(ds.Store, ds.Dashboard, helpers.EngineOptions(cfg, logger)...)
//	_ = sess.Select("COFOG", "Health")
//	result := sess.Snapshot()
//
// The schema package declares the dashboard with logical field phrases and
// binds them to whatever headers the sheet has. The helpers package reads
// CSV, XLSX, XLS, SQLite and Postgres sources into a normalized record store.
// The engine resolves cascading filter options, filters rows and aggregates
// KPIs, summary tables and charts into a render-ready Result. The server
// package exposes the same over a JSON API with per-client sessions.
//
// All computation is local; the engine never calls an external service.
package progdash
