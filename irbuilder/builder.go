// Package irbuilder implements the IR builder and constant folder (§4.F):
// it walks an AST, keeps a current module/function/block cursor, consults
// package infer and package symtab, and emits package ir instructions. Of
// the compiler's components this one is the least mechanical — it is
// where SSA form, control-flow lowering, and constant folding meet.
package irbuilder

import (
	"sort"

	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/diagnostics"
	"github.com/wudi/phiri/infer"
	"github.com/wudi/phiri/ir"
	"github.com/wudi/phiri/symtab"
	"github.com/wudi/phiri/types"
)

// Builder owns the in-progress module plus the cursor state §4.F.1
// describes: a current function and a current (positioned) block.
type Builder struct {
	tree    *ast.AST
	symbols *symtab.Table
	diags   *diagnostics.Engine
	infer   *infer.Inferencer

	module *ir.Module
	fn     *ir.Function
	block  ir.BlockID

	// varRegs mirrors the symbol table's scope stack: one map per open
	// scope, tracking variable name -> most recent defining register
	// (§4.F.2 "variable write", §4.F.4).
	varRegs []map[string]ir.Register
}

// New constructs a Builder. tree/symbols/diags are shared with whatever
// driver also runs type inference over the same compilation unit.
func New(tree *ast.AST, symbols *symtab.Table, diags *diagnostics.Engine) *Builder {
	return &Builder{
		tree:    tree,
		symbols: symbols,
		diags:   diags,
		infer:   infer.New(tree, symbols),
		varRegs: []map[string]ir.Register{make(map[string]ir.Register)},
	}
}

// BeginModule starts a fresh module. Must be called before any function.
func (b *Builder) BeginModule(name, sourceFile string) {
	b.module = ir.NewModule(name, sourceFile, b.tree.Strings)
}

// Module returns the module under construction (or just finished).
func (b *Builder) Module() *ir.Module { return b.module }

// enterScope pushes a fresh variable-register map alongside the symbol
// table's own scope push, keeping the two stacks in lockstep.
func (b *Builder) enterScope(kind symtab.ScopeKind, name string) {
	b.symbols.EnterScope(kind, name)
	b.varRegs = append(b.varRegs, make(map[string]ir.Register))
}

// leaveScope pops the innermost variable-register map. A block's own new
// variables simply vanish with it, but a reassignment of a name that was
// already bound in an outer scope is propagated there first (§4.F.4): a
// bare `{ ... }` block isn't a control-flow merge, so its writes to
// pre-existing variables must still be visible once the block ends, not
// discarded along with its scope.
func (b *Builder) leaveScope() {
	b.symbols.LeaveScope()
	if len(b.varRegs) <= 1 {
		return
	}
	inner := b.varRegs[len(b.varRegs)-1]
	b.varRegs = b.varRegs[:len(b.varRegs)-1]
	for name, reg := range inner {
		for i := len(b.varRegs) - 1; i >= 0; i-- {
			if _, ok := b.varRegs[i][name]; ok {
				b.varRegs[i][name] = reg
				break
			}
		}
	}
}

// defineVar records reg as the current defining register for name in the
// innermost scope, per §4.F.2/§4.F.4.
func (b *Builder) defineVar(name string, reg ir.Register) {
	b.varRegs[len(b.varRegs)-1][name] = reg
}

// lookupVar walks the variable-register stack from innermost outward.
func (b *Builder) lookupVar(name string) (ir.Register, bool) {
	for i := len(b.varRegs) - 1; i >= 0; i-- {
		if reg, ok := b.varRegs[i][name]; ok {
			return reg, true
		}
	}
	return ir.Register{}, false
}

// outerVars flattens the entire scope stack into one name -> register view,
// innermost binding winning, i.e. "every variable visible right now".
func (b *Builder) outerVars() map[string]ir.Register {
	flat := make(map[string]ir.Register)
	for _, m := range b.varRegs {
		for name, reg := range m {
			flat[name] = reg
		}
	}
	return flat
}

// snapshotScopes deep-copies the variable-register stack so a branch can be
// lowered against it and then discarded (restoreScopes) without its writes
// leaking into a sibling branch that starts from the same point.
func (b *Builder) snapshotScopes() []map[string]ir.Register {
	snap := make([]map[string]ir.Register, len(b.varRegs))
	for i, m := range b.varRegs {
		cp := make(map[string]ir.Register, len(m))
		for name, reg := range m {
			cp[name] = reg
		}
		snap[i] = cp
	}
	return snap
}

// restoreScopes replaces the live variable-register stack with snap.
func (b *Builder) restoreScopes(snap []map[string]ir.Register) {
	b.varRegs = snap
}

// branchPath is one live (non-terminated) incoming edge into a control-flow
// merge block: the block the edge leaves from, and the full variable view
// at that point.
type branchPath struct {
	exit ir.BlockID
	vars map[string]ir.Register
}

// mergeVars implements §4.F.4's phi insertion at a merge block: for each
// variable visible across the incoming paths, if every path agrees on its
// defining register the value just carries over untouched; otherwise a phi
// combining each path's register is emitted in mergeBB and its result
// becomes the variable's current register going forward.
func (b *Builder) mergeVars(loc ast.SourceLocation, mergeBB ir.BlockID, paths []branchPath) {
	switch len(paths) {
	case 0:
		return
	case 1:
		for name, reg := range paths[0].vars {
			b.defineVar(name, reg)
		}
		return
	}

	names := make(map[string]bool)
	for _, p := range paths {
		for name := range p.vars {
			names[name] = true
		}
	}
	// Sorted so register allocation (and thus the whole function's
	// numbering) is identical across builds of the same AST.
	ordered := make([]string, 0, len(names))
	for name := range names {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	for _, name := range ordered {
		first, ok := paths[0].vars[name]
		if !ok {
			continue
		}
		uniform := true
		for _, p := range paths[1:] {
			reg, ok := p.vars[name]
			if !ok || !reg.Equal(first) {
				uniform = false
				break
			}
		}
		if uniform {
			b.defineVar(name, first)
			continue
		}

		incoming := make([]ir.PhiIncoming, 0, len(paths))
		phiType := first.Type
		for i, p := range paths {
			reg, ok := p.vars[name]
			if !ok {
				reg = first
			}
			incoming = append(incoming, ir.PhiIncoming{Value: reg, Block: p.exit})
			if i > 0 && !phiType.Equal(reg.Type) {
				phiType = ir.PHPValue()
			}
		}
		phi := &ir.Instruction{Op: ir.OpPhi, Location: loc, Incoming: incoming}
		b.newResult(phi, phiType)
		b.fn.EmitPhi(mergeBB, phi)
		b.defineVar(name, *phi.Result)
	}
}

// assignedVarNames collects, into out, every variable name directly
// assigned to (by `=` or `++`/`--`) anywhere within idx's subtree. It does
// not descend into nested closures/arrow functions/function declarations,
// which own their own variable scope.
func (b *Builder) assignedVarNames(idx ast.NodeIndex, out map[string]bool) {
	if idx == ast.NoNode {
		return
	}
	node := b.tree.Node(idx)
	switch node.Tag {
	case ast.TagClosure, ast.TagArrowFunction, ast.TagFunctionDecl:
		return
	case ast.TagAssign, ast.TagPostfixIncDec:
		if len(node.Children) > 0 {
			if target := b.tree.Node(node.Children[0]); target.Tag == ast.TagVariable {
				out[b.tree.Strings.Get(target.Str)] = true
			}
		}
	}
	for _, c := range node.Children {
		b.assignedVarNames(c, out)
	}
}

// seedLoopPhis installs a placeholder phi in headerBB for every base
// variable the loop's condition/step/body may reassign (per assigned).
// headerBB is itself a merge block (preheader edge + latch back-edge,
// §4.F.4), but the latch register isn't known until the body has been
// lowered, so the phi starts with just the preheader incoming and
// closeLoopPhis backfills the rest once the body is done.
func (b *Builder) seedLoopPhis(loc ast.SourceLocation, headerBB, preheader ir.BlockID, base map[string]ir.Register, assigned map[string]bool) map[string]*ir.Instruction {
	ordered := make([]string, 0, len(assigned))
	for name := range assigned {
		ordered = append(ordered, name)
	}
	sort.Strings(ordered)

	phis := make(map[string]*ir.Instruction, len(assigned))
	for _, name := range ordered {
		reg, ok := base[name]
		if !ok {
			continue
		}
		phi := &ir.Instruction{
			Op:       ir.OpPhi,
			Location: loc,
			Incoming: []ir.PhiIncoming{{Value: reg, Block: preheader}},
		}
		b.newResult(phi, reg.Type)
		b.fn.EmitPhi(headerBB, phi)
		b.defineVar(name, *phi.Result)
		phis[name] = phi
	}
	return phis
}

// closeLoopPhis backfills the latch incoming for every phi seedLoopPhis
// created, now that the loop body has a final register for each name.
func (b *Builder) closeLoopPhis(phis map[string]*ir.Instruction, latch ir.BlockID) {
	for name, phi := range phis {
		reg, ok := b.lookupVar(name)
		if !ok {
			continue
		}
		phi.Incoming = append(phi.Incoming, ir.PhiIncoming{Value: reg, Block: latch})
	}
}

// BeginFunction creates a new Function with its entry block, positions the
// cursor at that entry block, and makes it the builder's current function
// (§4.F.1: "every function has an entry block created at function start").
func (b *Builder) BeginFunction(name string, params []ir.Param, ret ir.Type, loc ast.SourceLocation) ir.BlockID {
	fn := ir.NewFunction(name, params, ret, loc)
	b.fn = fn
	entry := fn.NewBlock("entry")
	b.block = entry
	b.enterScope(symtab.ScopeFunction, name)
	for _, p := range params {
		reg := fn.NewRegister(p.Type)
		b.defineVar(p.Name, reg)
	}
	return entry
}

// FinishFunction appends the current function to the module, closes its
// scope, and clears the cursor.
func (b *Builder) FinishFunction() *ir.Function {
	fn := b.fn
	b.module.AddFunction(fn)
	b.leaveScope()
	b.fn = nil
	b.block = ir.NoBlock
	return fn
}

// NewBlock creates a fresh, unpositioned block in the current function
// (§4.F.1: "creating a new block does not switch the cursor").
func (b *Builder) NewBlock(label string) ir.BlockID {
	return b.fn.NewBlock(label)
}

// Position moves the cursor to block id.
func (b *Builder) Position(id ir.BlockID) { b.block = id }

// Current returns the cursor's current block.
func (b *Builder) Current() ir.BlockID { return b.block }

// Terminated reports whether the cursor's current block already has a
// terminator.
func (b *Builder) Terminated() bool { return b.fn.Block(b.block).Terminated() }

// emit appends instr to the current block and returns its result register,
// if any (void ops leave Result nil and emit returns the zero Register).
func (b *Builder) emit(instr *ir.Instruction) ir.Register {
	b.fn.Emit(b.block, instr)
	if instr.Result != nil {
		return *instr.Result
	}
	return ir.Register{}
}

// newResult allocates a register of type t and wires it as instr's result.
func (b *Builder) newResult(instr *ir.Instruction, t ir.Type) ir.Register {
	reg := b.fn.NewRegister(t)
	instr.Result = &reg
	return reg
}

// setTerm terminates the current block and returns its id (so callers can
// still Position elsewhere afterward).
func (b *Builder) setTerm(term *ir.Terminator) ir.BlockID {
	b.fn.SetTerminator(b.block, term)
	return b.block
}

// inferType is a small convenience wrapping the inferencer + lattice->IR
// mapping used throughout lowering.
func (b *Builder) inferType(idx ast.NodeIndex) (types.InferredType, ir.Type) {
	t := b.infer.Infer(idx)
	return t, t.ToIRType()
}

func (b *Builder) loc(idx ast.NodeIndex) ast.SourceLocation {
	if idx == ast.NoNode {
		return ast.NoLocation
	}
	return b.tree.Node(idx).Loc
}
