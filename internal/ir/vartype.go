package ir

import "fmt"

// VarType is the semantic type assigned to a variable by type inference.
type VarType int

const (
	TypeUnknown VarType = iota
	TypeInt
	TypeString
	TypeFloat
	TypeTimestamp
)

// TypedKinds lists the typed buckets in encoding order.
var TypedKinds = []VarType{TypeInt, TypeString, TypeFloat, TypeTimestamp}

func (t VarType) String() string {
	switch t {
	case TypeUnknown:
		return "unknown"
	case TypeInt:
		return "int"
	case TypeString:
		return "string"
	case TypeFloat:
		return "float"
	case TypeTimestamp:
		return "timestamp"
	default:
		return fmt.Sprintf("VarType(%d)", int(t))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t VarType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Merge combines two types met by the same variable. Unknown yields to
// anything, int widens to float, and otherwise the first type wins.
func (t VarType) Merge(other VarType) VarType {
	switch {
	case t == TypeUnknown:
		return other
	case other == TypeUnknown || t == other:
		return t
	case t == TypeInt && other == TypeFloat, t == TypeFloat && other == TypeInt:
		return TypeFloat
	default:
		return t
	}
}
