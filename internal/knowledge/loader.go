package knowledge

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/totalquality/qassist/internal/models"
)

// Options locates knowledge overrides. Empty fields fall back to the embedded document.
type Options struct {
	// Path is a YAML knowledge document. Sections it leaves empty keep the embedded defaults.
	Path string
	// MatricesPath is an .xlsx rate sheet that replaces the program matrices.
	MatricesPath string
}

// Load builds a Store from the embedded document plus any overrides in opts.
func Load(opts Options) (*Store, error) {
	doc, err := DefaultDocument()
	if err != nil {
		return nil, err
	}
	if opts.Path != "" {
		override, err := ReadDocument(opts.Path)
		if err != nil {
			return nil, err
		}
		merge(doc, override)
	}
	if opts.MatricesPath != "" {
		matrices, err := ReadMatricesXLSX(opts.MatricesPath)
		if err != nil {
			return nil, fmt.Errorf("load matrices: %w", err)
		}
		doc.Matrices = matrices
	}
	return NewStore(doc)
}

func merge(dst, src *Document) {
	if len(src.Entries) > 0 {
		dst.Entries = src.Entries
	}
	if len(src.Matrices) > 0 {
		dst.Matrices = src.Matrices
	}
	if src.Profile.Company.Name != "" {
		dst.Profile = src.Profile
	}
	if len(src.Suggestions) > 0 {
		dst.Suggestions = src.Suggestions
	}
}

// Reloader holds the current Store and swaps in a new snapshot on Reload.
// Readers always see a complete snapshot; a failed reload keeps the previous one.
type Reloader struct {
	opts    Options
	current atomic.Pointer[Store]
	logger  *zap.Logger

	mu    sync.Mutex
	hooks []func(*Store)
}

// NewReloader loads the initial snapshot. It fails if that first load fails.
func NewReloader(opts Options, logger *zap.Logger) (*Reloader, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	store, err := Load(opts)
	if err != nil {
		return nil, err
	}
	r := &Reloader{opts: opts, logger: logger}
	r.current.Store(store)
	return r, nil
}

// Current returns the active snapshot.
func (r *Reloader) Current() *Store {
	return r.current.Load()
}

// Reload rebuilds the snapshot from disk and swaps it in.
func (r *Reloader) Reload() error {
	store, err := Load(r.opts)
	if err != nil {
		r.logger.Warn("knowledge reload failed, keeping previous snapshot", zap.Error(err))
		return err
	}
	r.current.Store(store)
	r.logger.Info("knowledge reloaded", zap.Int("entries", store.Len()), zap.Int("matrices", len(store.matrices)))

	r.mu.Lock()
	hooks := append([]func(*Store){}, r.hooks...)
	r.mu.Unlock()
	for _, fn := range hooks {
		fn(store)
	}
	return nil
}

// OnReload registers fn to run after each successful reload with the new snapshot.
func (r *Reloader) OnReload(fn func(*Store)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, fn)
}

// Entries returns the entries of the current snapshot.
func (r *Reloader) Entries() []models.KnowledgeEntry {
	return r.Current().Entries()
}

// Get looks up an entry in the current snapshot.
func (r *Reloader) Get(id string) (models.KnowledgeEntry, bool) {
	return r.Current().Get(id)
}

// Profile returns the company profile of the current snapshot.
func (r *Reloader) Profile() models.CompanyProfile {
	return r.Current().Profile()
}

// Paths returns the files whose changes should trigger a reload.
func (r *Reloader) Paths() []string {
	var paths []string
	if r.opts.Path != "" {
		paths = append(paths, r.opts.Path)
	}
	if r.opts.MatricesPath != "" {
		paths = append(paths, r.opts.MatricesPath)
	}
	return paths
}
