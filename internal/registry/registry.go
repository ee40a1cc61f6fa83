// Package registry maps opaque external element handles to stable numeric
// ids and back. Handles are non-owning: the referenced element lives in the
// external document and may vanish or detach at any time. When a handle goes
// stale the registry prunes it and, if possible, re-finds the element from a
// stored locator (self-healing).
package registry

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/Aman-CERP/uiground/internal/snapshot"
)

// ElementHandle is a non-owning reference to an element in the external
// document. Implementations must be comparable (pointer-typed) so the
// registry can key on reference identity.
type ElementHandle interface {
	// Valid reports whether the referent still exists at all.
	Valid() bool
	// Connected reports whether the referent is still attached to the
	// live document structure. A detached element exists but cannot be
	// interacted with.
	Connected() bool
	// Name returns the referent's current accessible name.
	Name() string
	// Context returns the referent's current ancestor context strings.
	Context() []string
}

// Document is the external resolver the registry uses to re-find elements
// from their locators.
type Document interface {
	// FindByTestID returns the live element carrying the stable test id.
	FindByTestID(testID string) (ElementHandle, bool)
	// ElementsByRole returns live candidate elements for a role, using a
	// role-appropriate selection strategy.
	ElementsByRole(role snapshot.Role) []ElementHandle
}

// Locator is the fallback descriptor stored per registered id, used only
// when the original handle is no longer resolvable.
type Locator struct {
	TestID  string
	Role    snapshot.Role
	Name    string
	Context []string
	// Index disambiguates among equally-matching candidates. Currently
	// always 0: the first acceptable candidate wins.
	Index int
}

type entry struct {
	handle  ElementHandle
	locator Locator
}

// Registry allocates stable ids for element handles and resolves them back,
// healing stale handles through the document when it can.
type Registry struct {
	mu     sync.Mutex
	doc    Document
	byID   map[uint32]*entry
	byRef  map[ElementHandle]uint32
	nextID uint32
	logger *slog.Logger
}

// New creates a registry resolving against the given document. doc may be
// nil, in which case stale handles are pruned without self-healing.
func New(doc Document) *Registry {
	r := &Registry{doc: doc, logger: slog.Default()}
	r.reset()
	return r
}

func (r *Registry) reset() {
	r.byID = make(map[uint32]*entry)
	r.byRef = make(map[ElementHandle]uint32)
	r.nextID = 1
}

// Register associates a handle with a stable id, storing a locator snapshot
// from the record for fallback resolution. Registration is idempotent by
// handle identity: re-registering a known handle returns its existing id.
func (r *Registry) Register(handle ElementHandle, rec *snapshot.Record) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if id, ok := r.byRef[handle]; ok {
		return id
	}

	id := r.nextID
	r.nextID++

	loc := Locator{
		Role:    rec.Role,
		Name:    rec.Name,
		Context: rec.Context,
	}
	if testID, ok := rec.TestID(); ok {
		loc.TestID = testID
	}

	r.byID[id] = &entry{handle: handle, locator: loc}
	r.byRef[handle] = id
	return id
}

// Element resolves an id back to a live handle. A false result means the
// element is no longer present; that is an expected outcome after document
// churn, not an error, and callers should skip the interaction.
func (r *Registry) Element(id uint32) (ElementHandle, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ent, ok := r.byID[id]
	if !ok {
		return nil, false
	}

	if !ent.handle.Valid() {
		// Referent is gone: prune the stale entry.
		delete(r.byRef, ent.handle)
		delete(r.byID, id)
		return nil, false
	}

	if ent.handle.Connected() {
		return ent.handle, true
	}

	// Exists but detached: try to re-find it from the locator and rebind
	// so later lookups reuse the healed handle without searching again.
	healed, ok := r.resolveByLocator(ent.locator)
	if !ok {
		r.logger.Debug("locator resolution failed", slog.Uint64("id", uint64(id)))
		return nil, false
	}

	delete(r.byRef, ent.handle)
	ent.handle = healed
	r.byRef[healed] = id
	r.logger.Debug("rebound stale element", slog.Uint64("id", uint64(id)))
	return healed, true
}

// ID returns the id registered for a handle, with no side effects.
func (r *Registry) ID(handle ElementHandle) (uint32, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byRef[handle]
	return id, ok
}

// Size returns the number of live associations.
func (r *Registry) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// Clear drops all associations and resets the id counter to 1. Call it at
// the start of every fresh snapshot so stale ids cannot collide with new
// ones.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reset()
}

// resolveByLocator searches the document for an element matching the
// locator: the stable test id wins outright; otherwise the first role
// candidate whose name contains the stored name and whose context overlaps
// the stored context is accepted.
func (r *Registry) resolveByLocator(loc Locator) (ElementHandle, bool) {
	if r.doc == nil {
		return nil, false
	}

	if loc.TestID != "" {
		if h, ok := r.doc.FindByTestID(loc.TestID); ok && h.Valid() && h.Connected() {
			return h, true
		}
	}

	wantName := strings.ToLower(loc.Name)
	for _, cand := range r.doc.ElementsByRole(loc.Role) {
		if !cand.Valid() || !cand.Connected() {
			continue
		}
		if wantName != "" && !strings.Contains(strings.ToLower(cand.Name()), wantName) {
			continue
		}
		if !contextOverlaps(loc.Context, cand.Context()) {
			continue
		}
		return cand, true
	}
	return nil, false
}

// contextOverlaps reports whether the stored and live context lists share
// at least one entry, case-insensitively. An empty stored context imposes
// no constraint.
func contextOverlaps(stored, live []string) bool {
	if len(stored) == 0 {
		return true
	}
	for _, s := range stored {
		for _, l := range live {
			if strings.EqualFold(s, l) {
				return true
			}
		}
	}
	return false
}
