package spec

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"weak"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/vk/contentspec/internal/ctxlog"
	"github.com/vk/contentspec/internal/document"
	"github.com/vk/contentspec/internal/layer"
)

// DefaultCacheSize is how many clean documents a Store keeps parsed.
const DefaultCacheSize = 512

// DefaultDocumentPattern matches the files ExteriorDir enumerates.
const DefaultDocumentPattern = "*.spec"

// Store loads documents through a layer stack, keeps them cached and
// activates spawners through a registry. Modified documents stay in memory
// until saved, whatever the cache size.
//
// A path has at most one live document: a document evicted from the cache
// but still referenced by some Spec is handed out again by the next Fetch.
type Store struct {
	stack    *layer.Stack
	registry *Registry
	logger   *slog.Logger
	pattern  string

	mu    sync.Mutex
	cache *lru.Cache[string, *document.Node]
	dirty map[string]*document.Node
	live  map[string]weak.Pointer[document.Node]
}

// StoreOption configures a Store.
type StoreOption func(*storeOptions)

type storeOptions struct {
	cacheSize int
	pattern   string
}

// WithCacheSize bounds the number of clean documents kept in memory.
func WithCacheSize(n int) StoreOption {
	return func(o *storeOptions) { o.cacheSize = n }
}

// WithDocumentPattern sets the file name pattern ExteriorDir enumerates.
func WithDocumentPattern(pattern string) StoreOption {
	return func(o *storeOptions) { o.pattern = pattern }
}

// NewStore creates a store reading from stack and activating types from
// reg.
func NewStore(ctx context.Context, stack *layer.Stack, reg *Registry, opts ...StoreOption) (*Store, error) {
	o := storeOptions{cacheSize: DefaultCacheSize, pattern: DefaultDocumentPattern}
	for _, opt := range opts {
		opt(&o)
	}

	st := &Store{
		stack:    stack,
		registry: reg,
		logger:   ctxlog.ForComponent(ctx, "spec"),
		pattern:  o.pattern,
		dirty:    make(map[string]*document.Node),
		live:     make(map[string]weak.Pointer[document.Node]),
	}
	cache, err := lru.NewWithEvict(o.cacheSize, st.onEvict)
	if err != nil {
		return nil, fmt.Errorf("failed to create document cache: %w", err)
	}
	st.cache = cache
	return st, nil
}

// Stack returns the layer stack documents are read from.
func (st *Store) Stack() *layer.Stack { return st.stack }

// Registry returns the spawner registry.
func (st *Store) Registry() *Registry { return st.registry }

func (st *Store) onEvict(p string, _ *document.Node) {
	st.logger.Debug("Evicted document from cache.", "path", p)
}

// Fetch returns the root spec of the document at the logical path p. A
// missing file is an error unless acceptAbsence is set, in which case the
// spec starts out empty and Save creates the file.
func (st *Store) Fetch(p string, acceptAbsence bool) (*Spec, error) {
	p, err := layer.Clean(p)
	if err != nil {
		return nil, err
	}
	doc, err := st.load(p, acceptAbsence)
	if err != nil {
		return nil, err
	}
	return &Spec{kind: KindRoot, store: st, path: p, doc: doc}, nil
}

func (st *Store) load(p string, acceptAbsence bool) (*document.Node, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if doc, ok := st.dirty[p]; ok {
		return doc, nil
	}
	if doc, ok := st.cache.Get(p); ok {
		return doc, nil
	}
	if doc := st.live[p].Value(); doc != nil {
		st.logger.Debug("Document still referenced, restoring to cache.", "path", p)
		st.cache.Add(p, doc)
		return doc, nil
	}

	data, f, err := st.stack.ReadFile(p)
	switch {
	case errors.Is(err, layer.ErrNotFound) && acceptAbsence:
		// An absent document is not cached; a later Fetch must see the file
		// once it exists.
		st.logger.Debug("Document absent, starting empty.", "path", p)
		doc := document.NewMapping(p)
		st.dirty[p] = doc
		st.live[p] = weak.Make(doc)
		return doc, nil
	case err != nil:
		return nil, err
	}

	doc, err := document.Parse(p, data)
	if err != nil {
		return nil, err
	}
	st.logger.Debug("Loaded document.", "path", p, "layer", f.Layer.Name)
	st.cache.Add(p, doc)
	st.live[p] = weak.Make(doc)
	return doc, nil
}

// current returns the document Fetch hands out for p, or nil when none is
// in memory. Callers hold st.mu.
func (st *Store) current(p string) *document.Node {
	if doc, ok := st.dirty[p]; ok {
		return doc
	}
	return st.live[p].Value()
}

func (st *Store) markDirty(root *Spec) {
	st.mu.Lock()
	defer st.mu.Unlock()
	cur := st.current(root.path)
	if cur == root.doc {
		if _, ok := st.dirty[root.path]; !ok {
			st.dirty[root.path] = root.doc
			st.cache.Remove(root.path)
		}
		return
	}
	if cur != nil {
		st.logger.Warn("Write to a document replaced after invalidation; fetch it again.", "path", root.path)
		return
	}
	st.dirty[root.path] = root.doc
	st.live[root.path] = weak.Make(root.doc)
}

// Dirty lists the logical paths of documents held only in memory: those
// modified since they were last loaded or saved, and those fetched while
// absent.
func (st *Store) Dirty() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	out := make([]string, 0, len(st.dirty))
	for p := range st.dirty {
		out = append(out, p)
	}
	return out
}

// Save writes the spec's document to the save layer.
func (st *Store) Save(s *Spec) (*layer.File, error) {
	return st.SaveTo(s, "")
}

// SaveTo writes the spec's document to the named layer. A spec fetched
// before its document was invalidated and loaded again is stale and fails
// with ErrStaleDocument.
func (st *Store) SaveTo(s *Spec, layerName string) (*layer.File, error) {
	root := s.root()
	st.mu.Lock()
	cur := st.current(root.path)
	st.mu.Unlock()
	if cur != nil && cur != root.doc {
		return nil, fmt.Errorf("%w: %s", ErrStaleDocument, root.path)
	}

	root.doc.Lock()
	data, err := root.doc.Marshal()
	root.doc.Unlock()
	if err != nil {
		return nil, err
	}

	f, err := st.stack.WriteFile(root.path, layerName, data)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	if doc, ok := st.dirty[root.path]; ok && doc == root.doc {
		delete(st.dirty, root.path)
	}
	st.cache.Add(root.path, root.doc)
	st.live[root.path] = weak.Make(root.doc)
	st.mu.Unlock()

	st.logger.Debug("Saved document.", "path", root.path, "layer", f.Layer.Name, "file", f.Abs)
	return f, nil
}

// Invalidate drops cached copies of the given documents so the next Fetch
// reads them again. Modified documents are kept. Specs fetched earlier keep
// the dropped copy and become stale.
func (st *Store) Invalidate(paths ...string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	for _, p := range paths {
		if doc, ok := st.dirty[p]; ok {
			doc.Lock()
			modified := doc.Len() > 0
			doc.Unlock()
			if modified {
				st.logger.Warn("Document changed on disk while modified in memory; keeping the in-memory copy.", "path", p)
				continue
			}
			delete(st.dirty, p)
		}
		delete(st.live, p)
		if st.cache.Remove(p) {
			st.logger.Debug("Invalidated document.", "path", p)
		}
	}
}

// Activate builds the spawner the root spec's document declares.
func (st *Store) Activate(s *Spec) (Spawner, error) {
	return activate[Spawner](s, "", "")
}

// Mold returns the template of the registered type typeID: the document
// its Check method reads, with every key holding its access code. Types
// that do not implement Checker mold to an empty template.
func (st *Store) Mold(typeID string) (tmpl *document.Node, err error) {
	e, err := st.registry.Lookup(typeID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			def, ok := rec.(*DefinitionError)
			if !ok {
				panic(rec)
			}
			tmpl, err = nil, fmt.Errorf("type %q: %w", typeID, def)
		}
	}()

	p := typeID + ".spec"
	scratch := &Spec{kind: KindRoot, store: st, path: p, doc: document.NewMapping(p)}
	scratch.doc.SetScalar(KeySpawner, typeID)

	var checkErr error
	tmpl, err = scratch.MoldSpec(func(m *Spec) {
		if c, ok := e.Factory(m).(Checker); ok {
			checkErr = c.Check()
		}
	})
	if err != nil {
		return nil, err
	}
	if checkErr != nil {
		return nil, fmt.Errorf("molding %q: %w", typeID, checkErr)
	}
	tmpl.SetScalar(KeySpawner, typeID)
	tmpl.SortKeys(func(a, b string) bool { return a == KeySpawner && b != KeySpawner })
	st.logger.Debug("Molded type template.", "type", typeID, "keys", tmpl.Len())
	return tmpl, nil
}

// Watch invalidates cached documents whenever their files change in any
// layer, until ctx is done or the returned watcher is stopped. onChange, if
// not nil, runs after each batch has been invalidated.
func (st *Store) Watch(ctx context.Context, cfg layer.WatcherConfig, onChange func(paths []string)) (*layer.Watcher, error) {
	w, err := layer.NewWatcher(st.stack, cfg, func(paths []string) {
		st.Invalidate(paths...)
		if onChange != nil {
			onChange(paths)
		}
	})
	if err != nil {
		return nil, err
	}
	if err := w.Start(ctx); err != nil {
		_ = w.Stop()
		return nil, err
	}
	return w, nil
}
