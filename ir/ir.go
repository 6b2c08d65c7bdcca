package ir

import "github.com/wudi/phiri/ast"

// Register is a value-typed handle to the single value an instruction
// produces. Identity is the ID alone (§3.5): two registers sharing an ID
// compare equal even if constructed through differently-typed views.
type Register struct {
	ID   uint32
	Type Type
}

// Equal compares registers by ID only, per the identity rule in §3.5.
func (r Register) Equal(o Register) bool { return r.ID == o.ID }

// BlockID addresses a BasicBlock within its owning Function's block list.
// Using an index handle rather than a pointer keeps predecessor/successor
// back-references cheap to copy and serialize (§9 design note).
type BlockID int32

const NoBlock BlockID = -1

// PhiIncoming is one (value, predecessor) pair of a phi instruction.
type PhiIncoming struct {
	Value Register
	Block BlockID
}

// SwitchCase is one label->target pair of a switch terminator.
type SwitchCase struct {
	Value int64
	Block BlockID
}

// Instruction is `{result?: Register, op: Op, location}` plus whatever
// operand payload op requires. A single generic shape (register operand
// list + scalar/name payload fields) stands in for a per-op tagged union,
// mirroring how the teacher's own bytecode instruction is one fixed-shape
// struct reused across opcodes rather than one Go type per opcode.
type Instruction struct {
	Result   *Register
	Op       Op
	Location ast.SourceLocation

	// Args holds the register operands, in the order implied by Op's
	// shape (e.g. [lhs, rhs] for binary ops, [ptr] for load, [arr, key]
	// for array.get).
	Args []Register

	// Scalar/name payload, meaningful only for specific ops.
	IntImm   int64        // OpConstInt, OpAlloca.count, switch-fed constants
	FloatImm float64      // OpConstFloat
	BoolImm  bool         // OpConstBool
	StringID ast.StringID // OpConstString
	Name     string       // call/method/property/class names
	FromType Type         // OpCast, OpBox
	ToType   Type         // OpCast, OpUnbox, OpAlloca element type, OpTypeCheck expected
	CallArgs []Register   // call/call_indirect/method_call/new_object argument list
	Incoming []PhiIncoming
	Parts    []Register // OpInterpolate
}

// Terminator is the final instruction of a block (§3.5).
type TerminatorKind int

const (
	TermInvalid TerminatorKind = iota
	TermRet
	TermBr
	TermCondBr
	TermSwitch
	TermUnreachable
	TermThrow
)

type Terminator struct {
	Kind     TerminatorKind
	Location ast.SourceLocation

	Value   *Register // ret(value?), throw(value)
	Cond    Register  // cond_br, switch (its discriminant)
	Then    BlockID   // cond_br
	Else    BlockID   // cond_br
	Target  BlockID   // br
	Cases   []SwitchCase
	Default BlockID
}

func (k TerminatorKind) String() string {
	switch k {
	case TermRet:
		return "ret"
	case TermBr:
		return "br"
	case TermCondBr:
		return "cond_br"
	case TermSwitch:
		return "switch"
	case TermUnreachable:
		return "unreachable"
	case TermThrow:
		return "throw"
	default:
		return "?"
	}
}

// BasicBlock owns its instructions; predecessor/successor links are
// non-owning back-references within the same function (§3.5).
type BasicBlock struct {
	ID           BlockID
	Label        string
	Instructions []*Instruction
	Terminator   *Terminator
	Predecessors []BlockID
	Successors   []BlockID
}

// Terminated reports whether this block has a terminator yet. An
// unterminated block is an intermediate construction state (§3.5).
func (b *BasicBlock) Terminated() bool { return b.Terminator != nil }

// Param is a function parameter.
type Param struct {
	Name string
	Type Type
}

// Function owns its blocks and allocates registers from a per-function
// counter (§3.5, §4.E).
type Function struct {
	Name       string
	Params     []Param
	ReturnType Type
	Blocks     []*BasicBlock
	IsExported bool
	IsMethod   bool
	ClassName  string
	Location   ast.SourceLocation

	nextRegisterID uint32
}

// NewFunction creates a function with no blocks yet; callers create the
// entry block with NewBlock immediately after (§4.F.1: "every function
// has an entry block created at function start").
func NewFunction(name string, params []Param, ret Type, loc ast.SourceLocation) *Function {
	return &Function{Name: name, Params: params, ReturnType: ret, Location: loc}
}

// NewBlock appends a fresh, unterminated block and returns its ID.
func (f *Function) NewBlock(label string) BlockID {
	id := BlockID(len(f.Blocks))
	f.Blocks = append(f.Blocks, &BasicBlock{ID: id, Label: label})
	return id
}

// Block resolves a BlockID to its BasicBlock.
func (f *Function) Block(id BlockID) *BasicBlock {
	return f.Blocks[id]
}

// NewRegister allocates the next register ID for this function. IDs come
// from one per-function counter starting at 0, so they are contiguous
// (§3.5 property, §8 property 2); Emit and EmitPhi only append
// instructions and do not touch the counter, so the order in which a
// caller allocates and emits decides the order WellFormed sees.
func (f *Function) NewRegister(t Type) Register {
	r := Register{ID: f.nextRegisterID, Type: t}
	f.nextRegisterID++
	return r
}

// Emit appends instr to block id.
func (f *Function) Emit(id BlockID, instr *Instruction) {
	b := f.Blocks[id]
	b.Instructions = append(b.Instructions, instr)
}

// EmitPhi inserts a phi into block id's leading phi group: after any phis
// already at the head, before the first non-phi instruction. Keeping the
// group in insertion order means a batch of phis allocated with ascending
// register IDs also appears in ascending ID order, preserving the
// program-order monotonicity WellFormed checks.
func (f *Function) EmitPhi(id BlockID, instr *Instruction) {
	b := f.Blocks[id]
	pos := 0
	for pos < len(b.Instructions) && b.Instructions[pos].Op == OpPhi {
		pos++
	}
	b.Instructions = append(b.Instructions, nil)
	copy(b.Instructions[pos+1:], b.Instructions[pos:])
	b.Instructions[pos] = instr
}

// SetTerminator terminates block id. Linking predecessor/successor edges
// is the caller's responsibility (LinkEdge below), since a terminator may
// reference blocks created but not yet wired (e.g. a forward branch to a
// loop's exit block).
func (f *Function) SetTerminator(id BlockID, term *Terminator) {
	f.Blocks[id].Terminator = term
}

// LinkEdge records a non-owning predecessor/successor edge between two
// blocks of the same function.
func (f *Function) LinkEdge(from, to BlockID) {
	f.Blocks[from].Successors = append(f.Blocks[from].Successors, to)
	f.Blocks[to].Predecessors = append(f.Blocks[to].Predecessors, from)
}

// WellFormed checks the structural invariants in §3.5/§8 that the
// serializer and any downstream consumer may assume: every block,
// reachable or not, has exactly one terminator, and register IDs are
// contiguous and assigned at most once. The N parameters own %0..%N-1,
// so instruction results are expected from %N upward in block order.
func (f *Function) WellFormed() error {
	seen := make(map[uint32]bool)
	next := uint32(len(f.Params))
	for _, b := range f.Blocks {
		if !b.Terminated() {
			return errUnterminatedBlock(b.Label)
		}
		for _, instr := range b.Instructions {
			if instr.Result == nil {
				continue
			}
			id := instr.Result.ID
			if seen[id] {
				return errDuplicateRegister(id)
			}
			seen[id] = true
			if id != next {
				return errNonMonotonicRegister(id, next)
			}
			next++
		}
	}
	return nil
}

// Global is a module-level variable binding.
type Global struct {
	Name     string
	Type     Type
	Location ast.SourceLocation
}

// TypeDef names a class/interface/trait-shaped type definition emitted
// alongside a module, for the serializer's type-definitions section.
type TypeDef struct {
	Name       string
	Underlying Type
}

// Module owns everything reachable from it (§3.5). It is built once,
// possibly mutated in place, then frozen at handoff (§3.6).
type Module struct {
	Name       string
	SourceFile string
	Functions  []*Function
	Globals    []*Global
	TypeDefs   []*TypeDef
	Strings    *ast.StringTable

	frozen bool
}

// NewModule creates an empty, mutable module.
func NewModule(name, sourceFile string, strings *ast.StringTable) *Module {
	return &Module{Name: name, SourceFile: sourceFile, Strings: strings}
}

// AddFunction appends fn to the module.
func (m *Module) AddFunction(fn *Function) { m.Functions = append(m.Functions, fn) }

// AddGlobal appends g to the module.
func (m *Module) AddGlobal(g *Global) { m.Globals = append(m.Globals, g) }

// AddTypeDef appends td to the module.
func (m *Module) AddTypeDef(td *TypeDef) { m.TypeDefs = append(m.TypeDefs, td) }

// Freeze marks the module as handed off; mutation after Freeze is
// forbidden by contract (§3.6). Freeze itself is idempotent and does not
// prevent further Go-level mutation — it is a handoff marker, set by the
// builder's CompileModule and readable through Frozen, not an enforcement
// mechanism.
func (m *Module) Freeze() { m.frozen = true }

// Frozen reports whether Freeze has been called.
func (m *Module) Frozen() bool { return m.frozen }
