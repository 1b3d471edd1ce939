// Package install orchestrates installing documentation sources.
// It drives each source through adapter matching, resolution, fetching and
// extraction, and records the outcome in the install ledger.
package install

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fwojciec/docpkg"
	"github.com/fwojciec/docpkg/cache"
	"github.com/fwojciec/docpkg/fs"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Installer installs named sources into <Root>/<InstallPath>/<name>.
type Installer struct {
	// Adapters in priority order. The first adapter that parses a spec owns it.
	Adapters []docpkg.Adapter
	Ledger   docpkg.LedgerStore

	Root        string
	InstallPath string
	CacheDir    string

	// Concurrency above 1 installs that many sources at once.
	Concurrency int

	Logger *slog.Logger
	Now    func() time.Time
}

// Stage names the pipeline step at which a source failed.
type Stage string

const (
	StageMatch   Stage = "match"
	StageResolve Stage = "resolve"
	StageFetch   Stage = "fetch"
	StageExtract Stage = "extract"
)

// Result holds the outcome of installing a single source.
type Result struct {
	Name  string
	Spec  string
	Entry *docpkg.LedgerEntry

	// Stage and Err are set when the source failed.
	Stage Stage
	Err   error
}

// OK reports whether the source installed successfully.
func (r Result) OK() bool { return r.Err == nil }

// ProgressEvent reports progress during a batch install.
type ProgressEvent struct {
	Type      ProgressType
	Name      string
	Completed int
	Total     int
	Error     error
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	ProgressStarted ProgressType = iota
	ProgressCompleted
	ProgressFailed
	ProgressFinished
)

// ProgressFunc is a callback for reporting install progress.
type ProgressFunc func(event ProgressEvent)

// Install installs every source in sources, keyed by name. Per-source
// failures are reported in the returned results, sorted by name, and never
// abort the batch. The error is non-nil only when the batch itself cannot
// proceed: the cache cannot be locked or the ledger cannot be read or written.
func (in *Installer) Install(ctx context.Context, sources map[string]string, progress ProgressFunc) ([]Result, error) {
	logger := in.logger().With("batch", uuid.New().String())

	if in.CacheDir != "" {
		lock := cache.NewLock(in.CacheDir)
		if err := lock.Lock(); err != nil {
			return nil, docpkg.Wrap(err, "lock cache")
		}
		defer func() { _ = lock.Unlock() }()
	}

	if err := os.MkdirAll(in.installDir(), 0755); err != nil {
		return nil, err
	}

	ledger, err := in.Ledger.Load(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]Result, len(names))
	total := len(names)
	if progress != nil {
		progress(ProgressEvent{Type: ProgressStarted, Total: total})
	}

	report := func(completed int, r Result) {
		if r.Err != nil {
			logger.Error("install failed", "source", r.Name, "stage", string(r.Stage), "error", r.Err)
		} else {
			logger.Info("installed", "source", r.Name, "resolved", r.Entry.Resolved)
		}
		if progress == nil {
			return
		}
		ev := ProgressEvent{Type: ProgressCompleted, Name: r.Name, Completed: completed, Total: total}
		if r.Err != nil {
			ev.Type, ev.Error = ProgressFailed, r.Err
		}
		progress(ev)
	}

	if in.Concurrency <= 1 {
		for i, name := range names {
			results[i] = in.installOne(ctx, name, sources[name])
			report(i+1, results[i])
		}
	} else {
		resultCh := make(chan int, len(names))
		var g errgroup.Group
		g.SetLimit(in.Concurrency)

		go func() {
			for i, name := range names {
				i, name := i, name
				g.Go(func() error {
					results[i] = in.installOne(ctx, name, sources[name])
					resultCh <- i
					return nil
				})
			}
			_ = g.Wait()
			close(resultCh)
		}()

		completed := 0
		for i := range resultCh {
			completed++
			report(completed, results[i])
		}
	}

	// Apply ledger updates after all workers are done so the ledger is only
	// touched from one goroutine.
	for _, r := range results {
		if r.Err == nil {
			ledger.SetEntry(r.Name, r.Entry)
		}
	}

	if err := in.Ledger.Save(ctx, ledger); err != nil {
		return results, err
	}

	if progress != nil {
		progress(ProgressEvent{Type: ProgressFinished, Completed: total, Total: total})
	}
	return results, nil
}

// installOne runs the pipeline for a single source.
func (in *Installer) installOne(ctx context.Context, name, spec string) Result {
	r := Result{Name: name, Spec: spec, Stage: StageMatch}

	if err := docpkg.ValidateSourceName(name); err != nil {
		r.Err = err
		return r
	}

	adapter, parsed, ok := docpkg.MatchAdapter(in.Adapters, spec)
	if !ok {
		r.Err = docpkg.Errorf(docpkg.EINVALID, "no adapter found for spec %q", spec)
		return r
	}

	r.Stage = StageResolve
	resolved, err := adapter.Resolve(ctx, parsed)
	if err != nil {
		r.Err = docpkg.Wrap(err, "resolve %s", spec)
		return r
	}

	r.Stage = StageFetch
	cachedPath, err := adapter.Fetch(ctx, resolved, in.CacheDir)
	if err != nil {
		r.Err = docpkg.Wrap(err, "fetch %s", spec)
		return r
	}

	r.Stage = StageExtract
	target := in.TargetDir(name)
	if err := fs.EmptyDir(target); err != nil {
		r.Err = docpkg.Wrap(err, "clear %s", target)
		return r
	}
	if err := adapter.Extract(ctx, cachedPath, target, resolved); err != nil {
		r.Err = docpkg.Wrap(err, "extract %s", spec)
		return r
	}

	r.Stage = ""
	r.Entry = &docpkg.LedgerEntry{
		ResolvedSource: *resolved,
		ExtractedPath:  in.relative(target),
		InstalledAt:    in.now(),
	}
	return r
}

// Remove deletes the ledger entry and the installed directory for name.
// It reports whether the ledger held an entry for name.
func (in *Installer) Remove(ctx context.Context, name string) (bool, error) {
	if err := docpkg.ValidateSourceName(name); err != nil {
		return false, err
	}

	ledger, err := in.Ledger.Load(ctx)
	if err != nil {
		return false, err
	}
	removed := ledger.RemoveEntry(name)
	if removed {
		if err := in.Ledger.Save(ctx, ledger); err != nil {
			return false, err
		}
	}

	if err := os.RemoveAll(in.TargetDir(name)); err != nil {
		return removed, err
	}
	in.logger().Info("removed", "source", name, "ledger", removed)
	return removed, nil
}

// TargetDir returns the directory a source named name is installed into.
func (in *Installer) TargetDir(name string) string {
	return filepath.Join(in.installDir(), filepath.FromSlash(name))
}

func (in *Installer) installDir() string {
	return filepath.Join(in.Root, in.InstallPath)
}

func (in *Installer) relative(path string) string {
	return relativePath(in.Root, path)
}

func (in *Installer) now() time.Time {
	if in.Now != nil {
		return in.Now().UTC()
	}
	return time.Now().UTC()
}

func (in *Installer) logger() *slog.Logger {
	if in.Logger != nil {
		return in.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// relativePath returns path relative to root in slash form, or path itself
// when it cannot be made relative.
func relativePath(root, path string) string {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return filepath.ToSlash(path)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}
