// Copyright © 2024 The pyscope authors

// Package analysis resolves every name in a parsed module to the variable it
// denotes.
//
// Binding runs in two passes over the syntax tree.  The first pass creates
// scopes, defines the variables each scope binds and records every name
// occurrence.  The second pass resolves those occurrences against the scope
// chain, propagating free and cell variables through intermediate scopes.  A
// finishing step then validates nonlocal declarations and the constructs
// that cannot be combined with closures.  The result is an immutable
// Snapshot.
package analysis

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/luthersystems/pyscope/ast"
	"github.com/luthersystems/pyscope/diagnostic"
	"github.com/luthersystems/pyscope/version"
)

// TracerName names the tracer Bind reports spans to.
const TracerName = "github.com/luthersystems/pyscope/analysis"

// Config configures a Binder.
type Config struct {
	// Version selects the scoping rules.  The zero value selects
	// version.Default.
	Version version.Version
	// Filename overrides the file name reported in diagnostics.
	Filename string
}

type phase int

const (
	phaseNew phase = iota
	phaseCollected
	phaseResolved
	phaseFinished
	phaseDone
)

func (p phase) String() string {
	switch p {
	case phaseNew:
		return "new"
	case phaseCollected:
		return "collect"
	case phaseResolved:
		return "resolve"
	case phaseFinished:
		return "finish"
	default:
		return "snapshot"
	}
}

// Binder binds one module.  It is not safe for concurrent use and is
// consumed by Snapshot.
type Binder struct {
	cfg   Config
	mod   *ast.Module
	phase phase
	sink  diagnostic.Sink

	*arena
	state       map[ScopeID]*scopeState
	scopeByNode map[ast.ScopeNode]ScopeID
	enclosing   map[ast.Node]ScopeID
	refByName   map[*ast.Name]RefID

	// iterDepth is positive while walking a non-outermost comprehension
	// iterable.
	iterDepth int

	snap *Snapshot
}

// scopeState holds bookkeeping that only lives while binding.
type scopeState struct {
	used      map[string]*ast.Name // first load of each name
	iterVars  map[string]bool // comprehension iteration variables
	nonlocals []*ast.Name
	free      map[VarID]bool
	cell      map[VarID]bool
	globals   map[VarID]bool

	importStar  ast.Node // first "from m import *"
	dynamicEval ast.Node // first unqualified exec
	classCell   bool     // implicit __class__ reference recorded
}

// NewBinder validates its inputs and returns a binder ready to Collect.
func NewBinder(mod *ast.Module, cfg Config) (*Binder, error) {
	if mod == nil {
		return nil, &ConfigError{Field: "module", Err: errors.New("nil module")}
	}
	if mod.File == nil {
		return nil, &ConfigError{Field: "module", Err: errors.New("module has no source file")}
	}
	if cfg.Version.IsZero() {
		cfg.Version = version.Default
	}
	if cfg.Version.Less(version.Minimum) || version.Maximum.Less(cfg.Version) {
		return nil, &ConfigError{
			Field: "version",
			Err:   fmt.Errorf("%w: %s", version.ErrUnsupported, cfg.Version),
		}
	}
	return &Binder{
		cfg:         cfg,
		mod:         mod,
		arena:       newArena(),
		state:       make(map[ScopeID]*scopeState),
		scopeByNode: make(map[ast.ScopeNode]ScopeID),
		enclosing:   make(map[ast.Node]ScopeID),
		refByName:   make(map[*ast.Name]RefID),
	}, nil
}

func (b *Binder) advance(from, to phase) error {
	if b.phase != from {
		return fmt.Errorf("%w: cannot %s in phase %s", ErrPhaseOrder, to, b.phase)
	}
	b.phase = to
	return nil
}

// Collect runs the first pass: scopes, definitions and name occurrences.
func (b *Binder) Collect() error {
	if err := b.advance(phaseNew, phaseCollected); err != nil {
		return err
	}
	root := b.pushScope(ScopeModule, NoScope, b.mod)
	for _, s := range b.mod.Body {
		b.collectStmt(s, root.ID)
	}
	return nil
}

// Resolve runs the second pass, binding every recorded reference.
func (b *Binder) Resolve() error {
	if err := b.advance(phaseCollected, phaseResolved); err != nil {
		return err
	}
	for _, r := range b.refs[1:] {
		b.resolveRef(r)
	}
	return nil
}

// Finish validates the bound module innermost scope first.
func (b *Binder) Finish() error {
	if err := b.advance(phaseResolved, phaseFinished); err != nil {
		return err
	}
	for i := len(b.scopes) - 1; i > 0; i-- {
		b.finishScope(b.scopes[i])
	}
	return nil
}

// Snapshot freezes the binding.  The binder cannot be used afterwards
// except to retrieve the same snapshot again.
func (b *Binder) Snapshot() (*Snapshot, error) {
	if b.phase == phaseDone {
		return b.snap, nil
	}
	if err := b.advance(phaseFinished, phaseDone); err != nil {
		return nil, err
	}
	b.snap = newSnapshot(b)
	b.state = nil
	return b.snap, nil
}

// Bind runs every binder phase over mod.  Diagnostics about the source are
// part of the returned Snapshot; the error is reserved for invalid input
// and cancellation.
func Bind(ctx context.Context, mod *ast.Module, cfg Config) (*Snapshot, error) {
	b, err := NewBinder(mod, cfg)
	if err != nil {
		return nil, err
	}
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	ctx, span := tracer.Start(ctx, "analysis.Bind", trace.WithAttributes(
		semconv.CodeFilepath(b.filename()),
		attribute.String("pyscope.version", b.cfg.Version.String()),
	))
	defer span.End()

	phases := []struct {
		name string
		run  func() error
	}{
		{"collect", b.Collect},
		{"resolve", b.Resolve},
		{"finish", b.Finish},
	}
	for _, p := range phases {
		if err := ctx.Err(); err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		_, child := tracer.Start(ctx, p.name)
		err := p.run()
		child.End()
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
	}
	snap, err := b.Snapshot()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("pyscope.scopes", len(snap.scopes)-1),
		attribute.Int("pyscope.variables", len(snap.vars)-1),
		attribute.Int("pyscope.references", len(snap.refs)-1),
		attribute.Int("pyscope.diagnostics", len(snap.diags)),
	)
	return snap, nil
}

func (b *Binder) filename() string {
	if b.cfg.Filename != "" {
		return b.cfg.Filename
	}
	return b.mod.File.Name
}

func (b *Binder) span(n ast.Node) diagnostic.Span {
	sp := n.Span()
	ds := diagnostic.SpanOf(b.mod.File, sp.Start, sp.End)
	ds.File = b.filename()
	return ds
}

func (b *Binder) errorf(code string, n ast.Node, format string, v ...interface{}) {
	b.sink.Errorf(code, b.span(n), format, v...)
}

func (b *Binder) warnf(code string, n ast.Node, format string, v ...interface{}) {
	b.sink.Warnf(code, b.span(n), format, v...)
}

// label returns a secondary span at n captioned with text.
func (b *Binder) label(n ast.Node, text string) diagnostic.Span {
	ds := b.span(n)
	ds.Label = text
	return ds
}

// related reports a diagnostic at n followed by secondary spans pointing
// at the other sites involved.
func (b *Binder) related(sev diagnostic.Severity, code string, n ast.Node, others []diagnostic.Span, format string, v ...interface{}) {
	b.sink.Add(diagnostic.Diagnostic{
		Severity: sev,
		Code:     code,
		Message:  fmt.Sprintf(format, v...),
		Spans:    append([]diagnostic.Span{b.span(n)}, others...),
	})
}
