package infer

import "github.com/wudi/phiri/types"

// builtinTable is the closed, read-only table from §4.D.1/§6.4: process-
// wide static data, safe to share across parallel module compilations
// (§9 "Global static tables"). Names not present here fall through to
// user-function lookup, never to an error.
var builtinTable = map[string]types.InferredType{
	"strlen":            types.Concrete(types.TInt),
	"substr":            types.Concrete(types.TString),
	"str_replace":       types.Concrete(types.TString),
	"strtolower":        types.Concrete(types.TString),
	"strtoupper":        types.Concrete(types.TString),
	"trim":              types.Concrete(types.TString),
	"ltrim":             types.Concrete(types.TString),
	"rtrim":             types.Concrete(types.TString),
	"sprintf":           types.Concrete(types.TString),
	"implode":           types.Concrete(types.TString),
	"join":              types.Concrete(types.TString),
	"count":             types.Concrete(types.TInt),
	"sizeof":            types.Concrete(types.TInt),
	"array_keys":        types.Concrete(types.TArray),
	"array_values":      types.Concrete(types.TArray),
	"array_merge":       types.Concrete(types.TArray),
	"array_map":         types.Concrete(types.TArray),
	"array_filter":      types.Concrete(types.TArray),
	"array_slice":       types.Concrete(types.TArray),
	"array_reverse":     types.Concrete(types.TArray),
	"array_unique":      types.Concrete(types.TArray),
	"explode":           types.Concrete(types.TArray),
	"range":             types.Concrete(types.TArray),
	"in_array":          types.Concrete(types.TBool),
	"array_key_exists":  types.Concrete(types.TBool),
	"ceil":              types.Concrete(types.TFloat),
	"floor":             types.Concrete(types.TFloat),
	"round":             types.Concrete(types.TFloat),
	"sqrt":              types.Concrete(types.TFloat),
	"rand":              types.Concrete(types.TInt),
	"mt_rand":           types.Concrete(types.TInt),
	"gettype":           types.Concrete(types.TString),
	"is_int":            types.Concrete(types.TBool),
	"is_integer":        types.Concrete(types.TBool),
	"is_float":          types.Concrete(types.TBool),
	"is_double":         types.Concrete(types.TBool),
	"is_string":         types.Concrete(types.TBool),
	"is_bool":           types.Concrete(types.TBool),
	"is_array":          types.Concrete(types.TBool),
	"is_object":         types.Concrete(types.TBool),
	"is_null":           types.Concrete(types.TBool),
	"is_numeric":        types.Concrete(types.TBool),
	"is_callable":       types.Concrete(types.TBool),
	"isset":             types.Concrete(types.TBool),
	"empty":             types.Concrete(types.TBool),
	"intval":            types.Concrete(types.TInt),
	"floatval":          types.Concrete(types.TFloat),
	"strval":            types.Concrete(types.TString),
	"boolval":           types.Concrete(types.TBool),
	"json_encode":       types.Concrete(types.TString),
	"time":              types.Concrete(types.TInt),
	"date":              types.Concrete(types.TString),
	"file_exists":       types.Concrete(types.TBool),
	"is_file":           types.Concrete(types.TBool),
	"is_dir":            types.Concrete(types.TBool),
	"file_get_contents": types.Concrete(types.TString),
	"print":             types.Concrete(types.TInt),
	"printf":            types.Concrete(types.TInt),

	// Input-dependent: the static table deliberately cannot name a
	// concrete return shape for these (§4.D.1, §6.4).
	"abs":               types.Dynamic(),
	"max":               types.Dynamic(),
	"min":               types.Dynamic(),
	"pow":               types.Dynamic(),
	"array_search":      types.Dynamic(),
	"strtotime":         types.Dynamic(),
	"json_decode":       types.Dynamic(),
	"file_put_contents": types.Dynamic(),
}

// LookupBuiltin returns the recorded return type for a built-in function
// name, and whether the name is in the closed table at all.
func LookupBuiltin(name string) (types.InferredType, bool) {
	t, ok := builtinTable[name]
	return t, ok
}
