package models

import (
	"encoding/json"
	"fmt"
)

// ValueKind tags the variants a Value can hold.
type ValueKind int

const (
	ValueAbsent ValueKind = iota
	ValueBool
	ValueInt
	ValueString
	ValueSequence
)

// Value is the polymorphic expected/actual side of a check or diff:
// scalar, boolean, sequence, or absent. Keeping it a tagged union lets
// comparison code switch exhaustively per variant instead of reflecting
// over untyped interfaces.
type Value struct {
	Kind ValueKind
	Bool bool
	Int  int
	Str  string
	Seq  []string
}

func AbsentValue() Value             { return Value{Kind: ValueAbsent} }
func BoolValue(v bool) Value         { return Value{Kind: ValueBool, Bool: v} }
func IntValue(v int) Value           { return Value{Kind: ValueInt, Int: v} }
func StringValue(v string) Value     { return Value{Kind: ValueString, Str: v} }
func SequenceValue(v []string) Value { return Value{Kind: ValueSequence, Seq: append([]string(nil), v...)} }

// Equal compares two values; sequences compare element-wise in order.
func (v Value) Equal(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case ValueAbsent:
		return true
	case ValueBool:
		return v.Bool == other.Bool
	case ValueInt:
		return v.Int == other.Int
	case ValueString:
		return v.Str == other.Str
	case ValueSequence:
		if len(v.Seq) != len(other.Seq) {
			return false
		}
		for i := range v.Seq {
			if v.Seq[i] != other.Seq[i] {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the value for human-readable messages.
func (v Value) String() string {
	switch v.Kind {
	case ValueAbsent:
		return "absent"
	case ValueBool:
		return fmt.Sprintf("%t", v.Bool)
	case ValueInt:
		return fmt.Sprintf("%d", v.Int)
	case ValueString:
		return v.Str
	case ValueSequence:
		data, _ := json.Marshal(v.Seq)
		return string(data)
	}
	return ""
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueAbsent:
		return []byte("null"), nil
	case ValueBool:
		return json.Marshal(v.Bool)
	case ValueInt:
		return json.Marshal(v.Int)
	case ValueString:
		return json.Marshal(v.Str)
	case ValueSequence:
		if v.Seq == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.Seq)
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

func (v Value) MarshalYAML() (any, error) {
	switch v.Kind {
	case ValueAbsent:
		return nil, nil
	case ValueBool:
		return v.Bool, nil
	case ValueInt:
		return v.Int, nil
	case ValueString:
		return v.Str, nil
	case ValueSequence:
		return v.Seq, nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}
