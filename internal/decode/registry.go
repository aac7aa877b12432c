package decode

import (
	"net/url"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// An OpenFunc opens a source URI with a specific backend.
type OpenFunc func(uri string) (Demuxer, error)

// A Backend is a registered decoding implementation.
type Backend struct {
	// Name used to force this backend, e.g. "ffmpeg".
	Name string

	// Backends with higher priority are tried first.
	Priority int

	// Match reports whether the backend can open the URI. A nil Match
	// accepts everything.
	Match func(uri string) bool

	Open OpenFunc
}

var (
	registryMu sync.Mutex
	registry   []Backend
)

// Register a backend. Backends with the same name replace earlier ones.
func Register(b Backend) {
	registryMu.Lock()
	defer registryMu.Unlock()

	for i := range registry {
		if registry[i].Name == b.Name {
			registry[i] = b
			return
		}
	}
	registry = append(registry, b)
	sort.SliceStable(registry, func(i, j int) bool {
		return registry[i].Priority > registry[j].Priority
	})
}

// Backends returns the names of all registered backends, highest priority
// first.
func Backends() []string {
	registryMu.Lock()
	defer registryMu.Unlock()

	var names []string
	for _, b := range registry {
		names = append(names, b.Name)
	}
	return names
}

// Lookup finds the backend for uri. If force is non-empty, only the backend
// with that name is considered.
func Lookup(uri, force string) (Backend, error) {
	registryMu.Lock()
	defer registryMu.Unlock()

	log.Debug("Registered backends: %v", registry)

	for _, b := range registry {
		if force != "" {
			if b.Name == force {
				return b, nil
			}
			continue
		}
		if b.Match == nil || b.Match(uri) {
			return b, nil
		}
	}
	if force != "" {
		return Backend{}, errors.Wrapf(ErrNoBackend, "backend '%s' not registered", force)
	}
	return Backend{}, errors.Wrapf(ErrNoBackend, "%s", uri)
}

// Open a source with the best matching backend.
func Open(uri, force string) (Demuxer, error) {
	b, err := Lookup(uri, force)
	if err != nil {
		return nil, err
	}
	log.Info("Opening %s with %s backend", uri, b.Name)
	d, err := b.Open(uri)
	if err != nil {
		return nil, errors.Wrapf(err, "%s backend", b.Name)
	}
	return d, nil
}

func (b Backend) String() string {
	return b.Name
}

// MatchExtensions returns a Match function accepting URIs whose path ends in
// one of the given extensions, ignoring case and any query string.
func MatchExtensions(exts ...string) func(string) bool {
	return func(uri string) bool {
		ext := strings.ToLower(path.Ext(uriPath(uri)))
		for _, e := range exts {
			if ext == e {
				return true
			}
		}
		return false
	}
}

// MatchScheme returns a Match function accepting URIs with the given scheme.
func MatchScheme(scheme string) func(string) bool {
	return func(uri string) bool {
		u, err := url.Parse(uri)
		return err == nil && u.Scheme == scheme
	}
}

func uriPath(uri string) string {
	if u, err := url.Parse(uri); err == nil && u.Path != "" {
		return u.Path
	}
	return uri
}

// HasFFmpeg reports whether the FFmpeg backend was compiled in.
func HasFFmpeg() bool {
	return ffmpegAvailable
}
