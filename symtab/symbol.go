package symtab

import (
	"github.com/wudi/phiri/ast"
	"github.com/wudi/phiri/types"
)

// SymbolKind classifies a Symbol (§3.4).
type SymbolKind int

const (
	KindVariable SymbolKind = iota
	KindFunction
	KindClass
	KindInterface
	KindTrait
	KindConstant
	KindParameter
	KindProperty
	KindMethod
)

func (k SymbolKind) String() string {
	switch k {
	case KindVariable:
		return "variable"
	case KindFunction:
		return "function"
	case KindClass:
		return "class"
	case KindInterface:
		return "interface"
	case KindTrait:
		return "trait"
	case KindConstant:
		return "constant"
	case KindParameter:
		return "parameter"
	case KindProperty:
		return "property"
	case KindMethod:
		return "method"
	default:
		return "?"
	}
}

// isFastIndexed reports whether symbols of this kind are additionally
// recorded in the symbol table's kind-indexed fast-lookup maps (§4.C).
func (k SymbolKind) isFastIndexed() bool {
	switch k {
	case KindFunction, KindMethod, KindClass, KindInterface, KindTrait, KindConstant:
		return true
	default:
		return false
	}
}

// MetadataKind discriminates Symbol.Metadata's payload variant (§3.4).
type MetadataKind int

const (
	MetaNone MetadataKind = iota
	MetaFunction
	MetaClass
	MetaProperty
)

// FunctionParam describes one declared parameter for function/method
// metadata.
type FunctionParam struct {
	Name string
	Type types.InferredType
}

// FunctionMetadata is the payload for MetaFunction.
type FunctionMetadata struct {
	Params     []FunctionParam
	ReturnType types.InferredType
	IsVariadic bool
}

// ClassMetadata is the payload for MetaClass.
type ClassMetadata struct {
	Parent     string
	Interfaces []string
	IsAbstract bool
	IsFinal    bool
}

// Visibility is a class member's declared access level.
type Visibility int

const (
	VisibilityPublic Visibility = iota
	VisibilityProtected
	VisibilityPrivate
)

// PropertyMetadata is the payload for MetaProperty.
type PropertyMetadata struct {
	Visibility Visibility
	IsStatic   bool
	IsReadonly bool
}

// Metadata is the tagged variant attached to a Symbol: none | function |
// class | property (§3.4). Only the field matching Kind is populated.
type Metadata struct {
	Kind     MetadataKind
	Function *FunctionMetadata
	Class    *ClassMetadata
	Property *PropertyMetadata
}

// Symbol is one named entity tracked by the symbol table.
type Symbol struct {
	Name         string
	Kind         SymbolKind
	InferredType types.InferredType
	Mutable      bool
	Initialized  bool
	Location     ast.SourceLocation
	ClassName    string // owning class, for property/method symbols
	Metadata     Metadata
}
