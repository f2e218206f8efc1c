package indexcache

import (
	"hash/fnv"
	"log/slog"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates cached fingerprints when the backing segment
// directory changes on disk, so the cache never serves a list built
// from a segment an external index builder has since rewritten. It
// deliberately knows nothing about how the builder produces segments —
// only that a write under the watched directory means "forget
// whatever fingerprint that path last resolved to" (spec §10's "kept
// outside the core's scope, only the invalidation signal crosses the
// boundary").
type Watcher struct {
	cache *Cache
	fsw   *fsnotify.Watcher
	log   *slog.Logger

	done chan struct{}
}

// NewWatcher starts watching dir for writes/removes/renames, mapping
// each changed path to a Fingerprint via PathFingerprint and
// invalidating it in cache. Call Close to stop watching.
func NewWatcher(cache *Cache, dir string, log *slog.Logger) (*Watcher, error) {
	if log == nil {
		log = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	w := &Watcher{cache: cache, fsw: fsw, log: log, done: make(chan struct{})}
	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			fp := PathFingerprint(ev.Name)
			w.cache.Invalidate(fp)
			w.log.Debug("indexcache: invalidated fingerprint from fs event", "path", ev.Name, "op", ev.Op.String())
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("indexcache: watcher error", "error", err)
		case <-w.done:
			return
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	close(w.done)
	return w.fsw.Close()
}

// PathFingerprint derives the Fingerprint a cached entry built from
// path would be keyed under. Exported so callers that invalidate
// fingerprints for other reasons (a config change, an explicit
// cache-bust RPC) can compute the same key a filesystem event would.
func PathFingerprint(path string) Fingerprint {
	h := fnv.New64a()
	h.Write([]byte(path))
	return Fingerprint(h.Sum64())
}
