// Package analyzer runs one extraction pass over a source tree: it discovers
// files, parses them, extracts every selected declaration into a fresh
// registry, attaches impl methods to their structs and resolves enum
// flatness.
package analyzer

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mvp-joe/typelink/internal/config"
	"github.com/mvp-joe/typelink/internal/errors"
	"github.com/mvp-joe/typelink/internal/logger"
	"github.com/mvp-joe/typelink/internal/nature"
	"github.com/mvp-joe/typelink/internal/parsers"
	"github.com/mvp-joe/typelink/internal/syntax"
)

// ErrImplTarget marks impl blocks whose methods could not be attached.
var ErrImplTarget = errors.New("impl target")

// skipArg on a method's own attribute leaves the method out of the model.
const skipArg = "skip"

// Parser turns one source file into syntax declarations.
type Parser interface {
	ParseSource(path string, source []byte) (*syntax.File, error)
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithParser replaces the default Rust parser.
func WithParser(p Parser) Option {
	return func(a *Analyzer) { a.parser = p }
}

// WithProgress sets the progress reporter.
func WithProgress(r ProgressReporter) Option {
	return func(a *Analyzer) { a.progress = r }
}

// Analyzer owns the inputs of extraction runs over one root directory. Runs
// are sequential; the parse cache is shared between them.
type Analyzer struct {
	rootDir   string
	cfg       *config.Config
	parser    Parser
	discovery *FileDiscovery
	cache     *parseCache
	progress  ProgressReporter
}

// Result is the outcome of one run.
type Result struct {
	RunID       string          `json:"run_id"`
	Natures     *nature.Natures `json:"-"`
	Files       []string        `json:"files"`
	Diagnostics []Diagnostic    `json:"diagnostics,omitempty"`
	Duration    time.Duration   `json:"duration"`
	Cache       CacheStats      `json:"cache"`
}

// New creates an analyzer for rootDir.
func New(rootDir string, cfg *config.Config, opts ...Option) (*Analyzer, error) {
	discovery, err := NewFileDiscovery(rootDir, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file discovery")
	}

	cache, err := newParseCache(cfg.Analysis.CacheSize)
	if err != nil {
		return nil, err
	}

	a := &Analyzer{
		rootDir:   rootDir,
		cfg:       cfg,
		parser:    parsers.NewRustParser(),
		discovery: discovery,
		cache:     cache,
		progress:  &NoOpProgressReporter{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// RootDir returns the analyzed directory.
func (a *Analyzer) RootDir() string { return a.rootDir }

// Close releases the parse cache.
func (a *Analyzer) Close() {
	a.cache.close()
}

// run carries the mutable state of a single Run.
type run struct {
	*Analyzer
	result  *Result
	methods []pendingMethod
}

// pendingMethod is an impl method waiting for its struct to be registered.
// Impl blocks may live in another file than the struct.
type pendingMethod struct {
	target string
	method *nature.NamedFunc
	pos    syntax.Position
}

// Run performs a full extraction. It returns an error when discovery fails,
// when ctx is cancelled, or on the first declaration error if
// analysis.fail_fast is set. Otherwise declaration errors are collected as
// diagnostics on the result.
func (a *Analyzer) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	r := &run{
		Analyzer: a,
		result: &Result{
			RunID:   uuid.NewString(),
			Natures: nature.NewNatures(),
		},
	}
	log := logger.Logger.With("run", r.result.RunID)

	files, err := a.discovery.DiscoverFiles()
	if err != nil {
		return nil, errors.Wrap(err, "failed to discover files")
	}
	a.progress.OnDiscoveryComplete(len(files))
	log.Debugw("Discovered source files", "root", a.rootDir, "count", len(files))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rel, err := a.discovery.relative(path)
		if err != nil {
			return nil, err
		}
		r.result.Files = append(r.result.Files, rel)

		if err := r.processFile(path, rel); err != nil {
			return nil, err
		}
		a.progress.OnFileProcessed(rel)
	}

	if err := r.attachMethods(); err != nil {
		return nil, err
	}
	if err := nature.ResolveFlatness(r.result.Natures); err != nil {
		return nil, err
	}

	r.result.Duration = time.Since(start)
	r.result.Cache = a.cache.stats()
	log.Infow("Analysis complete",
		"files", len(r.result.Files),
		"natures", r.result.Natures.Len(),
		"diagnostics", len(r.result.Diagnostics),
		"duration", r.result.Duration)

	a.progress.OnComplete(r.result)
	return r.result, nil
}

func (r *run) processFile(path, rel string) error {
	file, err := r.parse(path, rel)
	if err != nil {
		return r.report(syntax.Position{File: rel}, "", err)
	}

	staged := nature.NewNatures()
	for _, item := range file.Items {
		attr, ok := r.selectItem(item.Attributes())
		if !ok {
			continue
		}

		var named nature.Named
		ctx := contextFor(item.Position(), attr)
		switch decl := item.(type) {
		case *syntax.StructDecl:
			named, err = nature.ExtractStruct(decl, ctx)
		case *syntax.EnumDecl:
			named, err = nature.ExtractEnum(decl, ctx)
		case *syntax.FnDecl:
			named, err = nature.ExtractNamedFunc(decl, ctx)
		case *syntax.ImplDecl:
			if err := r.collectImpl(decl, attr); err != nil {
				return err
			}
			continue
		default:
			continue
		}

		if err == nil {
			err = staged.Insert(named.Name(), named)
		}
		if err != nil {
			if err := r.report(item.Position(), item.ItemName(), err); err != nil {
				return err
			}
		}
	}

	logger.Logger.Debugw("Extracted file", "file", rel, "items", len(file.Items), "natures", staged.Len())
	return r.merge(staged)
}

// parse reads and parses path, reusing the cached tree when its content has
// not changed since an earlier run.
func (r *run) parse(path, rel string) (*syntax.File, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", rel)
	}

	key := cacheKey(rel, source)
	if file, ok := r.cache.get(key); ok {
		return file, nil
	}

	file, err := r.parser.ParseSource(rel, source)
	if err != nil {
		return nil, err
	}
	if file.HasErrors {
		logger.Logger.Warnw("Source has syntax errors, extracting recognizable items only", "file", rel)
	}
	r.cache.set(key, file)
	return file, nil
}

// selectItem returns the selection attribute of an item, or a zero
// attribute when select.all takes unannotated items too.
func (r *run) selectItem(attrs []syntax.Attribute) (syntax.Attribute, bool) {
	if attr, ok := syntax.FindAttribute(attrs, r.cfg.Select.Attribute); ok {
		return attr, true
	}
	return syntax.Attribute{}, r.cfg.Select.All
}

func (r *run) collectImpl(decl *syntax.ImplDecl, attr syntax.Attribute) error {
	target := decl.ItemName()
	if decl.Trait != "" {
		logger.Logger.Debugw("Skipping trait impl", "trait", decl.Trait, "target", target, "file", decl.Pos.File)
		return nil
	}

	for i := range decl.Methods {
		m := &decl.Methods[i]
		methodAttr := attr
		if own, ok := syntax.FindAttribute(m.Attrs, r.cfg.Select.Attribute); ok {
			if slices.Contains(own.Args, skipArg) {
				continue
			}
			methodAttr = own
		}

		fn, err := nature.ExtractNamedFunc(m, contextFor(m.Pos, methodAttr))
		if err != nil {
			if err := r.report(m.Pos, target+"::"+m.Name, err); err != nil {
				return err
			}
			continue
		}
		r.methods = append(r.methods, pendingMethod{target: target, method: fn, pos: m.Pos})
	}
	return nil
}

// merge moves a file's natures into the run registry. On a name clash the
// entries are inserted one by one so only the duplicates are dropped.
func (r *run) merge(staged *nature.Natures) error {
	if err := r.result.Natures.Merge(staged); err == nil {
		return nil
	}

	for _, name := range staged.Names() {
		n, _ := staged.Get(name)
		if err := r.result.Natures.Insert(name, n); err != nil {
			err = errors.WithHintf(err, "rename one of the declarations or drop #[%s] from one of them", r.cfg.Select.Attribute)
			if err := r.report(positionOf(n), name, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *run) attachMethods() error {
	for _, p := range r.methods {
		item := p.target + "::" + p.method.Name()

		entry, ok := r.result.Natures.GetMut(p.target)
		if !ok {
			err := errors.Mark(errors.Newf("impl target %s is not registered", p.target), ErrImplTarget)
			if r.skipped(p.target) {
				err = errors.WithHintf(err, "%s was selected but skipped; fix the diagnostic reported for it", p.target)
			} else {
				err = errors.WithHintf(err, "annotate %s with #[%s] or enable select.all", p.target, r.cfg.Select.Attribute)
			}
			if err := r.report(p.pos, item, err); err != nil {
				return err
			}
			continue
		}

		if !nature.IsStruct(entry.Nature) {
			err := errors.Mark(errors.Newf("impl target %s is %s, methods attach only to structs", p.target, entry.Nature.Kind()), ErrImplTarget)
			if err := r.report(p.pos, item, err); err != nil {
				return err
			}
			continue
		}

		if err := nature.Bind(entry.Nature, p.method); err != nil {
			if err := r.report(p.pos, item, err); err != nil {
				return err
			}
		}
	}
	return nil
}

// skipped reports whether name already failed with a diagnostic.
func (r *run) skipped(name string) bool {
	for _, d := range r.result.Diagnostics {
		if d.Item == name {
			return true
		}
	}
	return false
}

// report records a declaration failure, or returns it when fail_fast is set.
func (r *run) report(pos syntax.Position, item string, err error) error {
	if r.cfg.Analysis.FailFast {
		if item == "" {
			return errors.Wrapf(err, "%s", pos.File)
		}
		return errors.Wrapf(err, "%s at %s:%d:%d", item, pos.File, pos.Line, pos.Column)
	}

	d := newDiagnostic(pos, item, err)
	logger.Logger.Warnw("Skipping declaration", "file", d.File, "line", d.Line, "item", d.Item, "error", d.Message)
	r.result.Diagnostics = append(r.result.Diagnostics, d)
	return nil
}

// contextFor builds the declaration-site context of a selected item.
func contextFor(pos syntax.Position, attr syntax.Attribute) nature.Context {
	return nature.Context{
		File:       filepath.ToSlash(pos.File),
		Line:       pos.Line,
		Column:     pos.Column,
		Annotation: attr.Name,
		Args:       slices.Clone(attr.Args),
	}
}

func positionOf(n nature.Nature) syntax.Position {
	named, ok := n.(nature.Named)
	if !ok {
		return syntax.Position{}
	}
	ctx := named.Context()
	return syntax.Position{File: ctx.File, Line: ctx.Line, Column: ctx.Column}
}
