// Package interpreter selects the runtime used to launch the conversion
// program by probing an ordered list of candidate invocations.
package interpreter

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"notionpdf/internal/process"
)

const (
	// DefaultName is used when every candidate fails its probe.
	DefaultName = "python3"

	probeOutputLimit = 64 * 1024
)

// Options configure a Resolver.
type Options struct {
	// Override is probed first when set (PYTHON_PATH).
	Override  string
	Fallbacks []string
	// Default is returned when no candidate answers. Empty means DefaultName.
	Default      string
	ProbeTimeout time.Duration
	// Cache keeps the first candidate that answered for the lifetime of the
	// Resolver. A default fallback is never cached. Without it every call
	// re-probes.
	Cache bool
}

// Resolver probes candidate invocations with "<candidate> --version" and
// returns the first one that answers successfully.
type Resolver struct {
	runner     process.Runner
	candidates []string
	def        string
	timeout    time.Duration
	cache      bool
	log        logrus.FieldLogger

	group  singleflight.Group
	mu     sync.RWMutex
	cached string
	last   string
}

// NewResolver builds a Resolver. Blank and duplicate candidates are dropped.
func NewResolver(runner process.Runner, opt Options, log logrus.FieldLogger) *Resolver {
	def := strings.TrimSpace(opt.Default)
	if def == "" {
		def = DefaultName
	}
	timeout := opt.ProbeTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Resolver{
		runner:     runner,
		candidates: Candidates(opt.Override, opt.Fallbacks),
		def:        def,
		timeout:    timeout,
		cache:      opt.Cache,
		log:        log.WithField("component", "interpreter"),
	}
}

// Candidates returns override followed by fallbacks, trimmed, without blanks
// or repeats, preserving order.
func Candidates(override string, fallbacks []string) []string {
	seen := make(map[string]struct{}, len(fallbacks)+1)
	out := make([]string, 0, len(fallbacks)+1)
	for _, c := range append([]string{override}, fallbacks...) {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Resolve returns the selected invocation. It never fails: an unusable result
// surfaces later when the conversion itself is run.
func (r *Resolver) Resolve(ctx context.Context) string {
	if !r.cache {
		name, _ := r.probeAll(ctx)
		return name
	}

	if cached := r.cachedName(); cached != "" {
		return cached
	}

	v, _, _ := r.group.Do("resolve", func() (any, error) {
		if cached := r.cachedName(); cached != "" {
			return cached, nil
		}
		// Shared by every waiter, so it must not end with the first caller.
		name, ok := r.probeAll(context.WithoutCancel(ctx))
		if ok {
			r.mu.Lock()
			r.cached = name
			r.mu.Unlock()
		}
		return name, nil
	})
	return v.(string)
}

// Last returns the most recent resolution without probing, or "" when
// Resolve has not run yet.
func (r *Resolver) Last() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

func (r *Resolver) cachedName() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cached
}

// probeAll reports the first candidate that answers, or the default with
// ok=false.
func (r *Resolver) probeAll(ctx context.Context) (name string, ok bool) {
	defer func() {
		r.mu.Lock()
		r.last = name
		r.mu.Unlock()
	}()

	for _, c := range r.candidates {
		if err := r.probe(ctx, c); err != nil {
			r.log.WithError(err).WithField("candidate", c).Debug("interpreter probe failed")
			continue
		}
		r.log.WithField("interpreter", c).Debug("interpreter selected")
		return c, true
	}
	r.log.WithFields(logrus.Fields{
		"candidates": r.candidates,
		"fallback":   r.def,
	}).Warn("no interpreter answered its probe, using default")
	return r.def, false
}

func (r *Resolver) probe(ctx context.Context, candidate string) error {
	argv := Split(candidate)
	_, err := r.runner.Run(ctx, process.Command{
		Name:      argv[0],
		Args:      append(argv[1:], "--version"),
		Timeout:   r.timeout,
		MaxOutput: probeOutputLimit,
	})
	return err
}

// Split turns a candidate such as "uv run python" into argv words.
func Split(invocation string) []string {
	words := strings.Fields(invocation)
	if len(words) == 0 {
		return []string{DefaultName}
	}
	return words
}
