package app

import (
	"context"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"backrefs/internal/core/errors"
	"backrefs/internal/core/ports"
	"backrefs/internal/engine/ast"
	"backrefs/internal/engine/binder"
	"backrefs/internal/engine/facts"
	"backrefs/internal/shared/observability"
)

// scanUnits parses, binds, and scans the given source files, then queues
// their facts for indexing. Units that fail to parse or resolve become
// warnings; invariant violations abort when fail_on_fatal is set.
func (a *App) scanUnits(ctx context.Context, paths []string) (ports.ScanResult, error) {
	return a.scanUnitSet(ctx, paths, nil)
}

// rescanUnits re-scans only the changed files but binds them against the full
// discovered unit set, so names declared in unchanged files keep resolving
// and the replacement fact rows do not lose cross-unit references.
func (a *App) rescanUnits(ctx context.Context, changed []string) (ports.ScanResult, error) {
	all, err := DiscoverUnits(a.scanRoots(), a.Config.Exclude.Dirs, a.Config.Exclude.Files)
	if err != nil {
		return ports.ScanResult{}, err
	}

	only := make(map[string]bool, len(changed))
	known := make(map[string]bool, len(all))
	for _, path := range all {
		known[path] = true
	}
	for _, path := range changed {
		only[path] = true
		if !known[path] {
			all = append(all, path)
		}
	}
	return a.scanUnitSet(ctx, all, only)
}

// scanUnitSet binds every path in the set; when only is non-nil, facts are
// emitted just for the paths it names.
func (a *App) scanUnitSet(ctx context.Context, paths []string, only map[string]bool) (ports.ScanResult, error) {
	var result ports.ScanResult

	units := make([]*ast.CompilationUnit, 0, len(paths))
	for _, path := range paths {
		if !a.parser.IsSupportedPath(path) {
			continue
		}
		content, err := os.ReadFile(path)
		if err != nil {
			result.Warnings = append(result.Warnings, "read "+path+": "+err.Error())
			continue
		}

		started := time.Now()
		unit, err := a.parser.ParseFile(path, content)
		observability.ParsingDuration.WithLabelValues("java").Observe(time.Since(started).Seconds())
		if err != nil {
			observability.ScanFailuresTotal.WithLabelValues(codeLabel(err)).Inc()
			result.Warnings = append(result.Warnings, "parse "+path+": "+err.Error())
			continue
		}
		units = append(units, unit)
	}

	if len(units) == 0 {
		return result, nil
	}

	res := binder.Bind(units)

	workers := a.Config.Scan.Workers
	if workers <= 0 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, unit := range units {
		if only != nil && !only[unit.Path] {
			continue
		}
		g.Go(func() error {
			if err := a.limiter.Wait(gctx, 1); err != nil {
				return err
			}

			collector := facts.NewCollector(unit.Path)
			started := time.Now()
			err := a.scanner.Scan(unit, res, collector)
			observability.ScanDuration.WithLabelValues(a.Config.Language.Level).Observe(time.Since(started).Seconds())

			if err != nil {
				observability.ScanFailuresTotal.WithLabelValues(codeLabel(err)).Inc()
				if errors.IsCode(err, errors.CodeInvariant) && a.Config.Scan.FailOnFatal {
					return errors.AddContext(err, errors.CtxUnit, unit.Path)
				}
				slog.Warn("unit scan failed", "unit", unit.Path, "error", err)
				mu.Lock()
				result.Warnings = append(result.Warnings, "scan "+unit.Path+": "+err.Error())
				mu.Unlock()
				return nil
			}

			uf := collector.Out
			observability.FactsEmittedTotal.WithLabelValues("reference").Add(float64(len(uf.Refs)))
			observability.FactsEmittedTotal.WithLabelValues("class").Add(float64(len(uf.Classes)))
			observability.FactsEmittedTotal.WithLabelValues("member").Add(float64(len(uf.Members)))

			if err := a.enqueueWrite(gctx, ports.WriteRequest{
				Operation: ports.WriteReplace,
				Facts:     uf,
			}); err != nil {
				return errors.Wrap(err, errors.CodeStorageFailed, "enqueue unit facts")
			}

			mu.Lock()
			result.UnitsScanned++
			result.References += len(uf.Refs)
			result.Classes += len(uf.Classes)
			result.Members += len(uf.Members)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}
	if err := a.waitForQueueDrain(ctx); err != nil {
		return result, err
	}
	sort.Strings(result.Warnings)
	return result, nil
}

// removeUnits queues delete requests for source files that no longer exist.
func (a *App) removeUnits(ctx context.Context, paths []string) error {
	for _, path := range paths {
		req := ports.WriteRequest{Operation: ports.WriteDelete}
		req.Facts.Unit = path
		if err := a.enqueueWrite(ctx, req); err != nil {
			return errors.AddContext(
				errors.Wrap(err, errors.CodeStorageFailed, "enqueue unit delete"),
				errors.CtxUnit, path,
			)
		}
	}
	return nil
}

func codeLabel(err error) string {
	for _, code := range []errors.ErrorCode{
		errors.CodeInvariant,
		errors.CodeNotSupported,
		errors.CodeValidationError,
		errors.CodeStorageFailed,
	} {
		if errors.IsCode(err, code) {
			return string(code)
		}
	}
	return string(errors.CodeInternal)
}
