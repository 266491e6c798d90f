package fastc

import "fmt"

// Type is the resolved, closed type algebra §3 defines: every TypeExpr
// the parser produces is resolved to exactly one Type by the checker,
// and no two distinct Types compare equal under Equal unless they
// denote the same C representation, since §5's "no implicit
// conversions" rule is enforced by exact Type equality at every use
// site.
type Type interface {
	String() string
	Equal(other Type) bool
}

// PrimitiveKind enumerates the fixed-width integer, floating-point,
// and boolean primitives §3.1 names; each maps onto exactly one C11
// type in the emitter.
type PrimitiveKind int

const (
	I8 PrimitiveKind = iota
	I16
	I32
	I64
	U8
	U16
	U32
	U64
	F32
	F64
	Bool
	Void
)

var primitiveNames = map[PrimitiveKind]string{
	I8: "i8", I16: "i16", I32: "i32", I64: "i64",
	U8: "u8", U16: "u16", U32: "u32", U64: "u64",
	F32: "f32", F64: "f64", Bool: "bool", Void: "void",
}

var PrimitiveTypes = map[string]PrimitiveKind{
	"i8": I8, "i16": I16, "i32": I32, "i64": I64,
	"u8": U8, "u16": U16, "u32": U32, "u64": U64,
	"f32": F32, "f64": F64, "bool": Bool, "void": Void,
}

func (k PrimitiveKind) IsInteger() bool {
	switch k {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	default:
		return false
	}
}

func (k PrimitiveKind) IsSigned() bool {
	switch k {
	case I8, I16, I32, I64:
		return true
	default:
		return false
	}
}

func (k PrimitiveKind) IsFloat() bool { return k == F32 || k == F64 }

// BitWidth returns the C representation width, used by the shift-count
// trap analysis (§4.4.4) to decide whether a constant shift count is
// in range.
func (k PrimitiveKind) BitWidth() int {
	switch k {
	case I8, U8:
		return 8
	case I16, U16:
		return 16
	case I32, U32:
		return 32
	case I64, U64:
		return 64
	default:
		return 0
	}
}

// PrimitiveType is a leaf Type for one of §3.1's built-in scalars.
type PrimitiveType struct{ Kind PrimitiveKind }

func (t PrimitiveType) String() string { return primitiveNames[t.Kind] }
func (t PrimitiveType) Equal(o Type) bool {
	p, ok := o.(PrimitiveType)
	return ok && p.Kind == t.Kind
}

// PointerKind distinguishes the five pointer families §3.2 defines:
// shared/exclusive borrows checked by the borrow analysis, raw
// pointers usable only inside `unsafe`, and owning pointers that carry
// a destructor obligation.
type PointerKind int

const (
	PtrKindRef PointerKind = iota
	PtrKindMref
	PtrKindRaw
	PtrKindRawm
	PtrKindOwn
)

var pointerKindNames = map[PointerKind]string{
	PtrKindRef: "ref", PtrKindMref: "mref", PtrKindRaw: "raw", PtrKindRawm: "rawm", PtrKindOwn: "own",
}

func (k PointerKind) RequiresUnsafe() bool { return k == PtrKindRaw || k == PtrKindRawm }

type PointerType struct {
	Kind PointerKind
	Elem Type
}

func (t PointerType) String() string { return fmt.Sprintf("%s %s", pointerKindNames[t.Kind], t.Elem) }
func (t PointerType) Equal(o Type) bool {
	p, ok := o.(PointerType)
	return ok && p.Kind == t.Kind && p.Elem.Equal(t.Elem)
}

// ArrayType is a fixed-length, stack-representable aggregate: §3.3's
// T[N], lowered to a plain C array.
type ArrayType struct {
	Elem Type
	Size uint64
}

func (t ArrayType) String() string { return fmt.Sprintf("%s[%d]", t.Elem, t.Size) }
func (t ArrayType) Equal(o Type) bool {
	a, ok := o.(ArrayType)
	return ok && a.Size == t.Size && a.Elem.Equal(t.Elem)
}

// SliceType is §3.3's unsized view type, lowered by the lowering stage
// into a `{T* data; size_t len;}` struct (see lower.go).
type SliceType struct{ Elem Type }

func (t SliceType) String() string { return fmt.Sprintf("%s[]", t.Elem) }
func (t SliceType) Equal(o Type) bool {
	s, ok := o.(SliceType)
	return ok && s.Elem.Equal(t.Elem)
}

// StructType names a user struct declaration; field order is
// significant since it fixes the emitted C struct's layout.
type StructType struct {
	Name   string
	Fields []StructField
	ReprC  bool
}

type StructField struct {
	Name string
	Type Type
}

func (t *StructType) String() string { return t.Name }
func (t *StructType) Equal(o Type) bool {
	s, ok := o.(*StructType)
	return ok && s.Name == t.Name
}

// EnumType names a user enum declaration; ReprWidth selects the
// emitted C integer width backing the tag (§3.4).
type EnumType struct {
	Name      string
	Variants  []string
	ReprWidth int
}

func (t *EnumType) String() string { return t.Name }
func (t *EnumType) Equal(o Type) bool {
	e, ok := o.(*EnumType)
	return ok && e.Name == t.Name
}

// OptionType is §3.5's opt(T), lowered to a tagged struct by lower.go.
type OptionType struct{ Elem Type }

func (t OptionType) String() string { return fmt.Sprintf("opt(%s)", t.Elem) }
func (t OptionType) Equal(o Type) bool {
	p, ok := o.(OptionType)
	return ok && p.Elem.Equal(t.Elem)
}

// ResultType is §3.5's res(T, E), lowered to a tagged struct carrying
// either payload.
type ResultType struct{ Ok, Err Type }

func (t ResultType) String() string { return fmt.Sprintf("res(%s, %s)", t.Ok, t.Err) }
func (t ResultType) Equal(o Type) bool {
	p, ok := o.(ResultType)
	return ok && p.Ok.Equal(t.Ok) && p.Err.Equal(t.Err)
}

// FnType is the type of a function value or declaration signature.
type FnType struct {
	Unsafe bool
	Params []Type
	Ret    Type
}

func (t FnType) String() string {
	return fmt.Sprintf("fn(%d params) -> %s", len(t.Params), t.Ret)
}
func (t FnType) Equal(o Type) bool {
	f, ok := o.(FnType)
	if !ok || f.Unsafe != t.Unsafe || len(f.Params) != len(t.Params) || !f.Ret.Equal(t.Ret) {
		return false
	}
	for i := range t.Params {
		if !f.Params[i].Equal(t.Params[i]) {
			return false
		}
	}
	return true
}

// OpaqueType is §3.6's nominal, fieldless handle type: equal only to
// itself, never structurally compatible with anything else.
type OpaqueType struct{ Name string }

func (t OpaqueType) String() string { return t.Name }
func (t OpaqueType) Equal(o Type) bool {
	p, ok := o.(OpaqueType)
	return ok && p.Name == t.Name
}
