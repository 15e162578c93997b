package app

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"backrefs/internal/core/config"
	"backrefs/internal/core/errors"
	"backrefs/internal/core/ports"
	"backrefs/internal/shared/observability"
)

// scanService is the driving-port implementation over the App pipeline.
type scanService struct {
	app   *App
	watch *watchService
}

func NewScanService(a *App) ports.ScanService {
	return &scanService{
		app:   a,
		watch: newWatchService(a),
	}
}

func (s *scanService) RunScan(ctx context.Context, req ports.ScanRequest) (ports.ScanResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "scanService.RunScan",
		trace.WithAttributes(attribute.Int("scan.roots", len(req.Paths))))
	defer span.End()

	roots := req.Paths
	if len(roots) == 0 {
		roots = s.app.scanRoots()
	}

	units, err := DiscoverUnits(roots, s.app.Config.Exclude.Dirs, s.app.Config.Exclude.Files)
	if err != nil {
		return ports.ScanResult{}, errors.AddContext(err, errors.CtxOperation, "RunScan")
	}

	result, err := s.app.scanUnits(ctx, units)
	if err != nil {
		return result, errors.AddContext(err, errors.CtxOperation, "RunScan")
	}
	span.SetAttributes(
		attribute.Int("scan.units", result.UnitsScanned),
		attribute.Int("scan.references", result.References),
	)
	return result, nil
}

func (s *scanService) AnalyzeImpact(ctx context.Context, symbol string) (ports.ImpactResult, error) {
	ctx, span := observability.Tracer.Start(ctx, "scanService.AnalyzeImpact",
		trace.WithAttributes(attribute.String("impact.symbol", symbol)))
	defer span.End()

	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return ports.ImpactResult{}, errors.New(errors.CodeValidationError, "symbol is required")
	}

	units, err := s.app.store.UnitsReferencing(ctx, symbol)
	if err != nil {
		return ports.ImpactResult{}, errors.AddContext(err, errors.CtxSymbol, symbol)
	}
	return ports.ImpactResult{Symbol: symbol, Units: units}, nil
}

func (s *scanService) SupersOf(ctx context.Context, className string) ([]string, error) {
	ctx, span := observability.Tracer.Start(ctx, "scanService.SupersOf",
		trace.WithAttributes(attribute.String("class.name", className)))
	defer span.End()

	className = strings.TrimSpace(className)
	if className == "" {
		return nil, errors.New(errors.CodeValidationError, "class name is required")
	}
	return s.app.store.Supers(ctx, className)
}

func (s *scanService) WatchService() ports.WatchService {
	return s.watch
}

// scanRoots picks the configured watch paths, falling back to the project
// root when none are set.
func (a *App) scanRoots() []string {
	roots := make([]string, 0, len(a.Config.WatchPaths))
	for _, p := range a.Config.WatchPaths {
		if strings.TrimSpace(p) != "" {
			roots = append(roots, config.ResolveRelative(a.Paths.ProjectRoot, p))
		}
	}
	if len(roots) == 0 {
		roots = append(roots, a.Paths.ProjectRoot)
	}
	return roots
}
