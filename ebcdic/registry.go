package ebcdic

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
)

// ErrUnknownCodePage is returned when no built-in, registered or fallback
// code page matches the requested identifier
var ErrUnknownCodePage = errors.New("ebcdic: unknown code page")

type builtin struct {
	name  string
	build func() [256]rune
}

func fromBase(layers ...overlay) func() [256]rune {
	return func() [256]rune {
		return applyOverlay(cp037, layers...)
	}
}

var builtins = map[int]builtin{
	37:   {"IBM-037", fromBase()},
	273:  {"IBM-273", fromBase(cp273)},
	277:  {"IBM-277", fromBase(cp277)},
	278:  {"IBM-278", fromBase(cp278)},
	280:  {"IBM-280", fromBase(cp280)},
	284:  {"IBM-284", fromBase(cp284)},
	285:  {"IBM-285", fromBase(cp285)},
	297:  {"IBM-297", fromBase(cp297)},
	424:  {"IBM-424", fromBase(cp424)},
	500:  {"IBM-500", fromBase(cp500)},
	870:  {"IBM-870", fromBase(cp870)},
	871:  {"IBM-871", fromBase(cp871)},
	875:  {"IBM-875", fromBase(cp875)},
	930:  {"IBM-930", fromBase(cp290)},
	1025: {"IBM-1025", fromBase(cp1025)},
	1026: {"IBM-1026", fromBase(cp1026)},
	1112: {"IBM-1112", fromBase(cp1112)},
	1122: {"IBM-1122", fromBase(cp278, cp1122)},
	1140: {"IBM-1140", fromBase(euro)},
	1141: {"IBM-1141", fromBase(cp273, euro)},
	1147: {"IBM-1147", fromBase(cp297, euro)},
	1148: {"IBM-1148", fromBase(cp500, euro)},
}

// Registry resolves code pages by CCSID or name. Built-in tables are
// constructed lazily and cached; pages registered at runtime never replace
// a built-in. CCSIDs with neither are built from golang.org/x/text once and
// cached too.
type Registry struct {
	lock       sync.Mutex
	built      map[int]*CodePage
	registered map[int]*CodePage
	fallback   map[int]*CodePage
}

// NewRegistry creates an empty registry backed by the built-in tables
func NewRegistry() *Registry {
	return &Registry{
		built:      make(map[int]*CodePage),
		registered: make(map[int]*CodePage),
		fallback:   make(map[int]*CodePage),
	}
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by Lookup
func Default() *Registry {
	return defaultRegistry
}

// Lookup resolves a CCSID from the process-wide registry
func Lookup(ccsid int) (*CodePage, error) {
	return defaultRegistry.Lookup(ccsid)
}

// LookupName resolves a code page name from the process-wide registry
func LookupName(name string) (*CodePage, error) {
	return defaultRegistry.LookupName(name)
}

// CCSIDs lists the built-in CCSIDs in ascending order
func CCSIDs() []int {
	ccsids := make([]int, 0, len(builtins))
	for ccsid := range builtins {
		ccsids = append(ccsids, ccsid)
	}

	slices.Sort(ccsids)
	return ccsids
}

// IsBuiltin reports whether ccsid has a built-in table
func IsBuiltin(ccsid int) bool {
	_, ok := builtins[ccsid]
	return ok
}

// Lookup returns the code page for ccsid. Built-in tables win over
// registered ones, and registered ones over the golang.org/x/text fallback.
func (r *Registry) Lookup(ccsid int) (*CodePage, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if page, ok := r.built[ccsid]; ok {
		return page, nil
	}

	if def, ok := builtins[ccsid]; ok {
		page, err := NewCodePage(ccsid, def.name, def.build())
		if err != nil {
			return nil, err
		}

		r.built[ccsid] = page
		return page, nil
	}

	if page, ok := r.registered[ccsid]; ok {
		return page, nil
	}

	if page, ok := r.fallback[ccsid]; ok {
		return page, nil
	}

	page, err := fallbackCCSID(ccsid)
	if err != nil {
		return nil, fmt.Errorf("%w: ccsid %d", ErrUnknownCodePage, ccsid)
	}

	r.fallback[ccsid] = page
	return page, nil
}

// LookupName accepts "37", "037", "IBM-037", "IBM037", "CP037" or any name
// known to the golang.org/x/text encoding index.
func (r *Registry) LookupName(name string) (*CodePage, error) {
	if ccsid, ok := parseCCSID(name); ok {
		page, err := r.Lookup(ccsid)
		if err == nil {
			return page, nil
		}
	}

	page, err := fallbackCodePage(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCodePage, name)
	}

	// a name that maps to a known CCSID resolves like the CCSID does
	if page.CCSID() > 0 {
		if cached, err := r.Lookup(page.CCSID()); err == nil {
			return cached, nil
		}
	}

	return page, nil
}

// Register adds a runtime code page, typically loaded from JSON. Registering
// over a built-in CCSID is refused.
func (r *Registry) Register(page *CodePage) error {
	if page == nil {
		return errors.New("ebcdic: cannot register nil code page")
	}

	if IsBuiltin(page.CCSID()) {
		return fmt.Errorf("ebcdic: ccsid %d is built in and cannot be replaced", page.CCSID())
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	r.registered[page.CCSID()] = page
	return nil
}

// Registered lists the runtime-registered CCSIDs in ascending order
func (r *Registry) Registered() []int {
	r.lock.Lock()
	defer r.lock.Unlock()

	ccsids := make([]int, 0, len(r.registered))
	for ccsid := range r.registered {
		ccsids = append(ccsids, ccsid)
	}

	slices.Sort(ccsids)
	return ccsids
}

func parseCCSID(name string) (int, bool) {
	trimmed := strings.ToUpper(strings.TrimSpace(name))
	for _, prefix := range []string{"IBM-", "IBM", "CP", "CCSID"} {
		if strings.HasPrefix(trimmed, prefix) {
			trimmed = trimmed[len(prefix):]
			break
		}
	}

	ccsid, err := strconv.Atoi(trimmed)
	if err != nil || ccsid <= 0 {
		return 0, false
	}

	return ccsid, true
}
