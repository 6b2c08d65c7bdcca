// Package ir defines the SSA intermediate representation's data model
// (spec §3.3, §3.5, §4.E): a tagged-sum value-level type system, typed
// registers, typed instructions and terminators, and the owning
// Module/Function/BasicBlock tree.
package ir

import "fmt"

// typeKind discriminates IRType's variants (§3.3).
type typeKind int

const (
	kVoid typeKind = iota
	kBool
	kI64
	kF64
	kPtr
	kPHPValue
	kPHPString
	kPHPArray
	kPHPObject
	kPHPResource
	kPHPCallable
	kFunction
	kNullable
)

// Type is the tagged sum IRType from §3.3. Zero value is Void.
type Type struct {
	kind      typeKind
	elem      *Type  // Ptr(elem), Nullable(elem)
	className string // PHPObject(class_name)
	params    []Type // Function(params, return)
	ret       *Type  // Function(params, return)
}

func Void() Type        { return Type{kind: kVoid} }
func Bool() Type        { return Type{kind: kBool} }
func I64() Type         { return Type{kind: kI64} }
func F64() Type         { return Type{kind: kF64} }
func PHPValue() Type    { return Type{kind: kPHPValue} }
func PHPString() Type   { return Type{kind: kPHPString} }
func PHPArray() Type    { return Type{kind: kPHPArray} }
func PHPResource() Type { return Type{kind: kPHPResource} }
func PHPCallable() Type { return Type{kind: kPHPCallable} }

// PHPObject builds an object type named className ("" means "unknown /
// any class", used when static inference could not narrow further).
func PHPObject(className string) Type {
	return Type{kind: kPHPObject, className: className}
}

// Ptr builds a pointer-to-elem type.
func Ptr(elem Type) Type {
	return Type{kind: kPtr, elem: &elem}
}

// Nullable builds a nullable wrapper over elem.
func Nullable(elem Type) Type {
	return Type{kind: kNullable, elem: &elem}
}

// FunctionType builds a function-signature type.
func FunctionType(params []Type, ret Type) Type {
	return Type{kind: kFunction, params: params, ret: &ret}
}

func (t Type) IsVoid() bool     { return t.kind == kVoid }
func (t Type) IsNullable() bool { return t.kind == kNullable }
func (t Type) IsPtr() bool      { return t.kind == kPtr }

// Elem returns the pointee/wrapped type for Ptr/Nullable, and the zero
// Type otherwise.
func (t Type) Elem() Type {
	if t.elem == nil {
		return Type{}
	}
	return *t.elem
}

// ClassName returns the class name for a PHPObject type.
func (t Type) ClassName() string { return t.className }

// Size returns the primitive size in bytes assumed by the backend's value
// layout (§3.3): bool=1, i64/f64=8, pointer-shaped types (including the
// boxed php_value) = 8 for the pointer itself — the 24-byte php_value
// payload is the backend's concern, not a register's storage size here.
func (t Type) Size() int {
	switch t.kind {
	case kBool:
		return 1
	case kI64, kF64:
		return 8
	case kVoid:
		return 0
	default:
		return 8
	}
}

func (t Type) Equal(o Type) bool {
	if t.kind != o.kind {
		return false
	}
	switch t.kind {
	case kPHPObject:
		return t.className == o.className
	case kPtr, kNullable:
		return t.Elem().Equal(o.Elem())
	case kFunction:
		if !t.ret.Equal(*o.ret) || len(t.params) != len(o.params) {
			return false
		}
		for i := range t.params {
			if !t.params[i].Equal(o.params[i]) {
				return false
			}
		}
		return true
	default:
		return true
	}
}

func (t Type) String() string {
	switch t.kind {
	case kVoid:
		return "void"
	case kBool:
		return "bool"
	case kI64:
		return "i64"
	case kF64:
		return "f64"
	case kPtr:
		return fmt.Sprintf("ptr(%s)", t.Elem())
	case kPHPValue:
		return "php_value"
	case kPHPString:
		return "php_string"
	case kPHPArray:
		return "php_array"
	case kPHPObject:
		if t.className == "" {
			return "php_object"
		}
		return fmt.Sprintf("php_object(%s)", t.className)
	case kPHPResource:
		return "php_resource"
	case kPHPCallable:
		return "php_callable"
	case kFunction:
		return fmt.Sprintf("function(%v) -> %s", t.params, t.ret)
	case kNullable:
		return fmt.Sprintf("nullable(%s)", t.Elem())
	default:
		return "?"
	}
}
