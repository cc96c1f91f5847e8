package workflow

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/scanwf/scanwf/pkg/constants"
	"github.com/scanwf/scanwf/pkg/envutil"
	"github.com/scanwf/scanwf/pkg/filename"
	"github.com/scanwf/scanwf/pkg/logger"
	"github.com/scanwf/scanwf/pkg/parser"
	"github.com/scanwf/scanwf/pkg/security"
	"github.com/scanwf/scanwf/pkg/store"
)

var engineLog = logger.New("workflow:engine")

// EngineOptions configures NewEngine. Only Store is required.
type EngineOptions struct {
	Store      store.Store
	Reconciler *Reconciler
	Validator  *parser.Validator
	Scanner    *security.Scanner

	// CacheSize bounds the diagnostics cache. Zero reads SCANWF_PARSE_CACHE_SIZE.
	CacheSize int
}

// Engine runs reconciliation against a content store and validates texts.
// It remembers the last generated text and its diagnostics.
type Engine struct {
	reconciler *Reconciler
	validator  *parser.Validator
	scanner    *security.Scanner
	store      store.Store
	cache      *lru.Cache[string, Diagnostics]

	lastText    string
	lastRemoved RemovalLog
	diagnostics Diagnostics
}

// NewEngine creates an Engine. Missing collaborators get their defaults.
func NewEngine(opts EngineOptions) (*Engine, error) {
	if opts.Store == nil {
		return nil, errors.New("engine requires a content store")
	}
	e := &Engine{
		reconciler: opts.Reconciler,
		validator:  opts.Validator,
		scanner:    opts.Scanner,
		store:      opts.Store,
	}
	if e.reconciler == nil {
		e.reconciler = NewReconciler()
	}
	if e.validator == nil {
		v, err := parser.NewValidator(parser.ValidatorOptions{
			DisableActionlint: envutil.GetBoolFromEnv(constants.NoActionlintEnvVar, false),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create structural validator: %w", err)
		}
		e.validator = v
	}
	if e.scanner == nil {
		e.scanner = security.NewScanner()
	}

	size := opts.CacheSize
	if size <= 0 {
		size = envutil.GetIntFromEnv(constants.ParseCacheSizeEnvVar, constants.DefaultParseCacheSize, 1, 4096, engineLog)
	}
	cache, err := lru.New[string, Diagnostics](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create diagnostics cache: %w", err)
	}
	e.cache = cache
	return e, nil
}

// Reconcile merges cfg and overflow into the stored text, validates the
// result, records it as the last generated text, and persists it.
func (e *Engine) Reconcile(cfg ScanConfig, overflow OverflowData) (string, error) {
	previous, err := e.store.Get()
	if err != nil {
		return "", fmt.Errorf("failed to read stored workflow: %w", err)
	}

	result, err := e.reconciler.Merge(cfg, previous, overflow)
	if err != nil {
		return "", err
	}

	e.lastText = result.Text
	e.lastRemoved = result.Removed
	e.diagnostics = e.Validate(result.Text, e.store.Filename())
	engineLog.Printf("Reconciled: errors=%d warnings=%d", e.diagnostics.ErrorCount(), e.diagnostics.WarningCount())

	if err := e.store.Set(result.Text); err != nil {
		return result.Text, fmt.Errorf("failed to persist workflow: %w", err)
	}
	return result.Text, nil
}

// Validate runs the structural validator, the security scanner and the
// filename checker. Text results are cached by content. Validate is safe
// for concurrent use.
func (e *Engine) Validate(text, name string) Diagnostics {
	key := contentKey(text)
	d, ok := e.cache.Get(key)
	if !ok {
		d = Diagnostics{
			Validation: e.validator.Validate(text),
			Security:   e.scanner.Scan(text),
		}
		e.cache.Add(key, d)
	} else {
		engineLog.Print("Diagnostics cache hit")
	}
	d.Filename = filename.Check(name)
	return d
}

// LastText returns the text produced by the latest Reconcile.
func (e *Engine) LastText() string {
	return e.lastText
}

// LastRemovals returns the fields pruned by the latest Reconcile.
func (e *Engine) LastRemovals() RemovalLog {
	return e.lastRemoved
}

// Diagnostics returns the diagnostics of the latest Reconcile.
func (e *Engine) Diagnostics() Diagnostics {
	return e.diagnostics
}

// Reconciler returns the merge implementation the engine uses.
func (e *Engine) Reconciler() *Reconciler {
	return e.reconciler
}

// Store returns the content store the engine persists to.
func (e *Engine) Store() store.Store {
	return e.store
}

func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
