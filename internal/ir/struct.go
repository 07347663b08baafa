package ir

// StructField is one named, typed slot of a struct definition.
type StructField struct {
	Name string
	Type Type
}

// IrStruct is an ordered field list, laid out without alignment
// padding: byte offsets are the naive running sum of preceding field
// sizes (spec §3, §9 open question 4). Parent-class fields precede
// child fields when a struct represents a class layout (spec §4.2.4).
type IrStruct struct {
	ID     StructID
	Name   string
	Fields []StructField
}

// FieldOffset returns the byte offset of the i-th field: the sum of
// the sizes of all preceding fields. No bounds checking; callers are
// expected to have validated i against len(Fields) already (an
// out-of-range access is a Lowerer/Codegen invariant violation).
func (s *IrStruct) FieldOffset(i int) int {
	off := 0
	for j := 0; j < i; j++ {
		off += s.Fields[j].Type.Size()
	}
	return off
}

// Size is the struct's total byte size: the sum of all field sizes.
func (s *IrStruct) Size() int {
	total := 0
	for _, f := range s.Fields {
		total += f.Type.Size()
	}
	return total
}

// FieldIndex returns the index of the field named name, or -1.
func (s *IrStruct) FieldIndex(name string) int {
	for i, f := range s.Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}
