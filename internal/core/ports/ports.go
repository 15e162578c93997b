// Package ports declares the interfaces between the application core and its
// adapters: the parser frontend, the fact write queue, the sqlite index, and
// the driving scan/watch services.
package ports

import (
	"context"
	"time"

	"backrefs/internal/engine/ast"
	"backrefs/internal/engine/facts"
)

// UnitParser abstracts source parsing and language-file support checks.
type UnitParser interface {
	ParseFile(path string, content []byte) (*ast.CompilationUnit, error)
	IsSupportedPath(path string) bool
}

// WriteOperation names the index mutation a queued request performs.
type WriteOperation string

const (
	WriteReplace WriteOperation = "replace"
	WriteDelete  WriteOperation = "delete"
)

// WriteRequest is one queued index mutation: a full fact set for a rescanned
// unit, or a bare path for a deleted one.
type WriteRequest struct {
	Operation WriteOperation  `json:"operation"`
	Facts     facts.UnitFacts `json:"facts"`
}

func (r WriteRequest) UnitPath() string {
	return r.Facts.Unit
}

// EnqueueResult reports whether a request was accepted by the queue.
type EnqueueResult int

const (
	EnqueueAccepted EnqueueResult = iota
	EnqueueDropped
)

func (r EnqueueResult) String() string {
	switch r {
	case EnqueueAccepted:
		return "accepted"
	case EnqueueDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// WriteQueuePort buffers fact writes between scanners and the index writer.
type WriteQueuePort interface {
	Enqueue(req WriteRequest) EnqueueResult
	DequeueBatch(ctx context.Context, maxItems int, wait time.Duration) ([]WriteRequest, error)
	Close() error
	Len() int
}

// SpoolRow is one durable queue entry with its retry bookkeeping.
type SpoolRow struct {
	ID       int64
	Request  WriteRequest
	Attempts int
}

// WriteSpoolPort is the durable overflow queue: requests the in-memory queue
// dropped land here and are retried until acked.
type WriteSpoolPort interface {
	Enqueue(req WriteRequest) error
	DequeueBatch(ctx context.Context, maxItems int) ([]SpoolRow, error)
	Ack(ids []int64) error
	Nack(rows []SpoolRow, nextAttemptAt time.Time, lastErr string) error
	PendingCount(ctx context.Context) (int, error)
	Close() error
}

// IndexStore persists per-unit facts and answers reverse-reference queries.
type IndexStore interface {
	ReplaceUnit(ctx context.Context, uf facts.UnitFacts) error
	DeleteUnit(ctx context.Context, unit string) error
	UnitsReferencing(ctx context.Context, qname string) ([]string, error)
	Supers(ctx context.Context, className string) ([]string, error)
	Close() error
}

// ScanRequest defines a scan operation request for driving adapters.
type ScanRequest struct {
	Paths []string
}

// ScanResult summarizes a completed scan operation.
type ScanResult struct {
	UnitsScanned int
	References   int
	Classes      int
	Members      int
	Warnings     []string
}

// ImpactResult lists the units whose facts mention a symbol.
type ImpactResult struct {
	Symbol string
	Units  []string
}

// WatchUpdate contains state emitted to driving adapters after each
// watch-mode rescan.
type WatchUpdate struct {
	UnitsScanned int
	References   int
	LastUnit     string
	Warnings     []string
}

// WatchService exposes watch lifecycle and updates for driving adapters.
type WatchService interface {
	Start(ctx context.Context) error
	Subscribe(ctx context.Context, handler func(WatchUpdate)) error
}

// ScanService is the driving-port surface over scan and impact use cases.
type ScanService interface {
	RunScan(ctx context.Context, req ScanRequest) (ScanResult, error)
	AnalyzeImpact(ctx context.Context, symbol string) (ImpactResult, error)
	SupersOf(ctx context.Context, className string) ([]string, error)
	WatchService() WatchService
}
