package symtab

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/types"
)

// Table owns every scope ever created for a compilation in a flat pool
// (§3.4 "the symbol table owns all scopes in a flat list") plus a stack of
// currently-open scopes, the top of which is current. It also maintains
// kind-indexed fast-lookup maps for functions, classes(/interfaces/
// traits), and constants (§4.C).
type Table struct {
	pool  []*Scope
	stack []ScopeID

	functions map[string]*Symbol
	classes   map[string]*Symbol
	constants map[string]*Symbol
}

// New creates an uninitialized table. Call Init before use.
func New() *Table {
	return &Table{
		functions: make(map[string]*Symbol),
		classes:   make(map[string]*Symbol),
		constants: make(map[string]*Symbol),
	}
}

// Init creates the global scope and pushes it. Must be called exactly
// once before any other operation.
func (t *Table) Init() ScopeID {
	id := ScopeID(len(t.pool))
	t.pool = append(t.pool, newScope(NoScope, 0, ScopeGlobal, ""))
	t.stack = append(t.stack, id)
	return id
}

// EnterScope creates a child of the current scope, pushes it, and records
// it in the pool. Returns the new scope's stable handle.
func (t *Table) EnterScope(kind ScopeKind, name string) ScopeID {
	parent := t.CurrentScope()
	depth := t.pool[parent].Depth + 1
	id := ScopeID(len(t.pool))
	t.pool = append(t.pool, newScope(parent, depth, kind, name))
	t.stack = append(t.stack, id)
	return id
}

// LeaveScope pops the top scope if its depth is > 0; the global scope is
// never popped. Popping only hides a scope from the stack — it remains
// addressable via its ScopeID (§3.6).
func (t *Table) LeaveScope() {
	if len(t.stack) <= 1 {
		return
	}
	t.stack = t.stack[:len(t.stack)-1]
}

// CurrentScope returns the handle of the top-of-stack scope.
func (t *Table) CurrentScope() ScopeID {
	return t.stack[len(t.stack)-1]
}

// Scope resolves a handle to its Scope value.
func (t *Table) Scope(id ScopeID) *Scope {
	return t.pool[id]
}

// Depth returns the current scope's nesting depth.
func (t *Table) Depth() int {
	return t.pool[t.CurrentScope()].Depth
}

// IsGlobalScope reports whether the current scope is the global scope.
func (t *Table) IsGlobalScope() bool {
	return t.pool[t.CurrentScope()].Kind == ScopeGlobal
}

// IsInFunction reports whether a function scope is anywhere on the
// current parent chain.
func (t *Table) IsInFunction() bool {
	_, ok := t.walkTo(t.CurrentScope(), ScopeFunction)
	return ok
}

// EnclosingFunction walks the parent chain from the current scope and
// returns the nearest function scope, if any.
func (t *Table) EnclosingFunction() (ScopeID, bool) {
	return t.walkTo(t.CurrentScope(), ScopeFunction)
}

// EnclosingClass walks the parent chain from the current scope and
// returns the nearest class scope, if any.
func (t *Table) EnclosingClass() (ScopeID, bool) {
	return t.walkTo(t.CurrentScope(), ScopeClass)
}

func (t *Table) walkTo(from ScopeID, kind ScopeKind) (ScopeID, bool) {
	id := from
	for id != NoScope {
		s := t.pool[id]
		if s.Kind == kind {
			return id, true
		}
		id = s.Parent
	}
	return NoScope, false
}

// Define inserts symbol into the current scope. If its kind is function-
// or-method, class-or-interface-or-trait, or constant, a pointer to the
// inserted symbol is additionally recorded in the matching kind-indexed
// map (§4.C). Name collision within a scope overwrites rather than
// erroring (documented, testable policy — see §4.C "Failure").
func (t *Table) Define(sym *Symbol) {
	t.pool[t.CurrentScope()].set(sym)
	if !sym.Kind.isFastIndexed() {
		return
	}
	switch sym.Kind {
	case KindFunction, KindMethod:
		t.functions[sym.Name] = sym
	case KindClass, KindInterface, KindTrait:
		t.classes[sym.Name] = sym
	case KindConstant:
		t.constants[sym.Name] = sym
	}
}

// DefineVariable defines a mutable, already-initialized variable symbol
// in the current scope (§4.C: "variables are mutable and considered
// initialized at define_variable time").
func (t *Table) DefineVariable(name string, typ types.InferredType, loc ast.SourceLocation) *Symbol {
	sym := &Symbol{
		Name:         name,
		Kind:         KindVariable,
		InferredType: typ,
		Mutable:      true,
		Initialized:  true,
		Location:     loc,
	}
	t.Define(sym)
	return sym
}

// DefineFunction defines an immutable function symbol. Per §6.2 this must
// be called against the global scope by pre-registration callers, but the
// table itself does not enforce that and reports nothing; package irbuilder
// calls it only while lowering top-level function_decl nodes, when the
// global scope is current.
func (t *Table) DefineFunction(name string, params []FunctionParam, returnType types.InferredType, loc ast.SourceLocation) *Symbol {
	sym := &Symbol{
		Name:         name,
		Kind:         KindFunction,
		InferredType: returnType,
		Mutable:      false,
		Initialized:  true,
		Location:     loc,
		Metadata: Metadata{
			Kind:     MetaFunction,
			Function: &FunctionMetadata{Params: params, ReturnType: returnType},
		},
	}
	t.Define(sym)
	return sym
}

// DefineClass defines an immutable class symbol.
func (t *Table) DefineClass(name, parent string, interfaces []string, loc ast.SourceLocation) *Symbol {
	sym := &Symbol{
		Name:         name,
		Kind:         KindClass,
		InferredType: types.Concrete(types.TObject),
		Mutable:      false,
		Initialized:  true,
		Location:     loc,
		ClassName:    name,
		Metadata: Metadata{
			Kind:  MetaClass,
			Class: &ClassMetadata{Parent: parent, Interfaces: interfaces},
		},
	}
	t.Define(sym)
	return sym
}

// DefineConstant defines an immutable constant symbol.
func (t *Table) DefineConstant(name string, typ types.InferredType, loc ast.SourceLocation) *Symbol {
	sym := &Symbol{
		Name:         name,
		Kind:         KindConstant,
		InferredType: typ,
		Mutable:      false,
		Initialized:  true,
		Location:     loc,
	}
	t.Define(sym)
	return sym
}

// Lookup searches the current scope then its parents, linearly.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	id := t.CurrentScope()
	for id != NoScope {
		s := t.pool[id]
		if sym, ok := s.get(name); ok {
			return sym, true
		}
		id = s.Parent
	}
	return nil, false
}

// LookupLocal searches only the current scope.
func (t *Table) LookupLocal(name string) (*Symbol, bool) {
	return t.pool[t.CurrentScope()].get(name)
}

// LookupFunction is an O(1)-expected lookup via the fast-indexed map.
func (t *Table) LookupFunction(name string) (*Symbol, bool) {
	sym, ok := t.functions[name]
	return sym, ok
}

// LookupClass is an O(1)-expected lookup via the fast-indexed map.
func (t *Table) LookupClass(name string) (*Symbol, bool) {
	sym, ok := t.classes[name]
	return sym, ok
}

// LookupConstant is an O(1)-expected lookup via the fast-indexed map.
func (t *Table) LookupConstant(name string) (*Symbol, bool) {
	sym, ok := t.constants[name]
	return sym, ok
}

// UpdateType finds the innermost defining scope of name and rewrites its
// inferred type in place, returning whether an update occurred.
func (t *Table) UpdateType(name string, newType types.InferredType) bool {
	id := t.CurrentScope()
	for id != NoScope {
		s := t.pool[id]
		if sym, ok := s.get(name); ok {
			sym.InferredType = newType
			return true
		}
		id = s.Parent
	}
	return false
}
