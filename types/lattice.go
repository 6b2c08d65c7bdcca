// Package types implements the inferred-type lattice (spec §3.2, §4.B):
// a small algebra over concrete PHP-ish value shapes, unions of them, and
// the dynamic/unknown tops used when static information is absent or not
// yet computed. It also carries the mapping from this lattice down to the
// IR's value-level type system (package ir).
package types

import (
	"sort"
	"strings"

	"github.com/wudi/phiri/ir"
)

// ConcreteType enumerates the static shapes the inferencer can name
// precisely.
type ConcreteType int

const (
	TVoid ConcreteType = iota
	TNull
	TBool
	TInt
	TFloat
	TString
	TArray
	TObject
	TCallable
	TResource
	TIterable
	TNever
)

func (c ConcreteType) String() string {
	switch c {
	case TVoid:
		return "void"
	case TNull:
		return "null"
	case TBool:
		return "bool"
	case TInt:
		return "int"
	case TFloat:
		return "float"
	case TString:
		return "string"
	case TArray:
		return "array"
	case TObject:
		return "object"
	case TCallable:
		return "callable"
	case TResource:
		return "resource"
	case TIterable:
		return "iterable"
	case TNever:
		return "never"
	default:
		return "?"
	}
}

// kind discriminates the four lattice shapes.
type kind int

const (
	kConcrete kind = iota
	kUnion
	kDynamic
	kUnknown
)

// InferredType is the lattice element the inferencer produces for every
// expression: a concrete shape, a union of ≥2 distinct concrete shapes,
// the dynamic top ("proved to admit any value"), or unknown ("no static
// info yet" — must be refined or defaulted to dynamic before IR emission).
type InferredType struct {
	k        kind
	concrete ConcreteType
	union    []ConcreteType // sorted, len >= 2, only valid when k == kUnion
}

// Concrete builds a concrete(c) element.
func Concrete(c ConcreteType) InferredType {
	return InferredType{k: kConcrete, concrete: c}
}

// Dynamic is the lattice top.
func Dynamic() InferredType { return InferredType{k: kDynamic} }

// Unknown is "not yet inferred".
func Unknown() InferredType { return InferredType{k: kUnknown} }

// UnionOf builds a union element. A set with fewer than 2 distinct members
// collapses: 0 members yields Dynamic (no information survived dedup), 1
// member yields that member's Concrete (§3.2 invariant: singletons
// collapse to concrete).
func UnionOf(members ...ConcreteType) InferredType {
	seen := make(map[ConcreteType]struct{}, len(members))
	var uniq []ConcreteType
	for _, m := range members {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		uniq = append(uniq, m)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })
	switch len(uniq) {
	case 0:
		return Dynamic()
	case 1:
		return Concrete(uniq[0])
	default:
		return InferredType{k: kUnion, union: uniq}
	}
}

func (t InferredType) IsConcrete() bool { return t.k == kConcrete }
func (t InferredType) IsUnion() bool    { return t.k == kUnion }
func (t InferredType) IsDynamic() bool  { return t.k == kDynamic }
func (t InferredType) IsUnknown() bool  { return t.k == kUnknown }

// ConcreteValue returns the concrete shape and true iff IsConcrete.
func (t InferredType) ConcreteValue() (ConcreteType, bool) {
	if t.k != kConcrete {
		return 0, false
	}
	return t.concrete, true
}

// UnionMembers returns the sorted distinct members and true iff IsUnion.
func (t InferredType) UnionMembers() ([]ConcreteType, bool) {
	if t.k != kUnion {
		return nil, false
	}
	out := make([]ConcreteType, len(t.union))
	copy(out, t.union)
	return out, true
}

// Equal reports structural equality.
func (t InferredType) Equal(o InferredType) bool {
	if t.k != o.k {
		return false
	}
	switch t.k {
	case kConcrete:
		return t.concrete == o.concrete
	case kUnion:
		if len(t.union) != len(o.union) {
			return false
		}
		for i := range t.union {
			if t.union[i] != o.union[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t InferredType) String() string {
	switch t.k {
	case kConcrete:
		return t.concrete.String()
	case kUnion:
		parts := make([]string, len(t.union))
		for i, m := range t.union {
			parts[i] = m.String()
		}
		return strings.Join(parts, "|")
	case kDynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// ToIRType maps an inferred type to its IR value-level type (§3.2).
func (t InferredType) ToIRType() ir.Type {
	switch t.k {
	case kConcrete:
		switch t.concrete {
		case TInt:
			return ir.I64()
		case TFloat:
			return ir.F64()
		case TBool:
			return ir.Bool()
		case TVoid, TNever:
			return ir.Void()
		case TString:
			return ir.PHPString()
		case TArray:
			return ir.PHPArray()
		case TObject:
			return ir.PHPObject("")
		case TCallable:
			return ir.PHPCallable()
		case TResource:
			return ir.PHPResource()
		case TNull, TIterable:
			return ir.PHPValue()
		default:
			return ir.PHPValue()
		}
	default:
		// union_of | dynamic | unknown -> php_value
		return ir.PHPValue()
	}
}

// recognizedTypeNames is the closed table from_type_name parses (§4.B).
// "mixed" is intentionally absent: it returns ok=false so callers lift it
// to Dynamic themselves.
var recognizedTypeNames = map[string]ConcreteType{
	"void":     TVoid,
	"null":     TNull,
	"bool":     TBool,
	"boolean":  TBool,
	"int":      TInt,
	"integer":  TInt,
	"float":    TFloat,
	"double":   TFloat,
	"string":   TString,
	"array":    TArray,
	"object":   TObject,
	"callable": TCallable,
	"resource": TResource,
	"iterable": TIterable,
	"never":    TNever,
}

// FromTypeName parses a recognized type name into Concrete(...). The name
// "mixed" returns ok=false by design (the caller should lift to Dynamic);
// any other unrecognized name also returns ok=false.
func FromTypeName(name string) (InferredType, bool) {
	c, ok := recognizedTypeNames[name]
	if !ok {
		return InferredType{}, false
	}
	return Concrete(c), true
}

// isNumeric reports whether c participates in arithmetic promotion as a
// number (int or float).
func isNumeric(c ConcreteType) bool { return c == TInt || c == TFloat }

// ArithmeticJoin implements the binary arithmetic promotion rule (§4.B):
// float absorbs any numeric operand, int+int stays int, string+string
// stays string (the inferencer is conservative here; the IR builder
// decides whether the resulting op is actually valid), and dynamic/unknown
// poison the result to dynamic.
func ArithmeticJoin(a, b InferredType) InferredType {
	if a.IsDynamic() || a.IsUnknown() || b.IsDynamic() || b.IsUnknown() {
		return Dynamic()
	}
	ac, aok := a.ConcreteValue()
	bc, bok := b.ConcreteValue()
	if !aok || !bok {
		return Dynamic()
	}
	if ac == TFloat && isNumeric(bc) {
		return Concrete(TFloat)
	}
	if bc == TFloat && isNumeric(ac) {
		return Concrete(TFloat)
	}
	if ac == TInt && bc == TInt {
		return Concrete(TInt)
	}
	if ac == TString && bc == TString {
		return Concrete(TString)
	}
	return Dynamic()
}

// NullCoalesceJoin implements the `??` join rule (§4.B): a null lhs yields
// the rhs unchanged, two operands of the same concrete type yield that
// type, and anything else widens to dynamic.
func NullCoalesceJoin(lhs, rhs InferredType) InferredType {
	lc, lok := lhs.ConcreteValue()
	if lok && lc == TNull {
		return rhs
	}
	rc, rok := rhs.ConcreteValue()
	if lok && rok && lc == rc {
		return lhs
	}
	return Dynamic()
}
