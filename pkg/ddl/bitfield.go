package ddl

// BitfieldDecl is a set of named flags.
type BitfieldDecl struct{ Aggregate }

func (b BitfieldDecl) NumFlags() uint32   { return b.u32(BfNumFlags) }
func (b BitfieldDecl) DefaultFlag() int32 { return b.i32(BfDefaultFlag) }

// Flag returns the flag at index i.
func (b BitfieldDecl) Flag(i uint32) BitfieldFlag {
	p, _ := b.ptr(BfFlags + i*PointerSize)
	return newBitfieldFlag(b.at(p))
}

// FindFlag returns the flag called name.
func (b BitfieldDecl) FindFlag(name string) (BitfieldFlag, bool) {
	return b.FindFlagHash(Hash(name))
}

// FindFlagHash returns the flag whose name hashes to h.
func (b BitfieldDecl) FindFlagHash(h uint32) (BitfieldFlag, bool) {
	for i := range b.NumFlags() {
		if f := b.Flag(i); f.NameHash() == h {
			return f, true
		}
	}
	return BitfieldFlag{}, false
}

// Mask returns the bits set by flag i: its own bit, the union of the masks
// of the flags it is defined as, or zero for an empty flag. A value flag
// only names flags declared before it.
func (b BitfieldDecl) Mask(i uint32) uint64 {
	f := b.Flag(i)
	if v, ok := f.Value(); ok {
		var mask uint64
		for j := range v.Count() {
			if idx := v.FlagIndex(j); idx < i {
				mask |= b.Mask(idx)
			}
		}
		return mask
	}
	if bit := f.Bit(); bit > 0 {
		return 1 << (bit - 1)
	}
	return 0
}

// BitfieldFlag is one named flag.
type BitfieldFlag struct{ info }

func newBitfieldFlag(v view) BitfieldFlag {
	return BitfieldFlag{info{view: v, name: FlagName, author: FlagAuthor, description: FlagDescription, label: FlagLabel}}
}

func (f BitfieldFlag) NameHash() uint32          { return f.u32(FlagNameHash) }
func (f BitfieldFlag) Tags() (Tag, bool)         { return firstTag(f.view, FlagTags) }
func (f BitfieldFlag) Tag(t TagType) (Tag, bool) { return findTag(f.view, FlagTags, t) }

// Bit returns the 1-based bit the flag occupies, or 0 when it occupies none.
func (f BitfieldFlag) Bit() uint32 { return f.u32(FlagBit) }

// Value returns the list of flags this flag is defined as. An empty flag
// has a value with a count of zero.
func (f BitfieldFlag) Value() (FlagSet, bool) {
	p, ok := f.ptr(FlagValue)
	if !ok {
		return FlagSet{}, false
	}
	return FlagSet{f.at(p)}, true
}

// FlagSet lists flag indices in the owning bitfield.
type FlagSet struct{ view }

func (v FlagSet) Count() uint32             { return v.u32(FlagValueCount) }
func (v FlagSet) FlagIndex(i uint32) uint32 { return v.u32(FlagValueIndices + i*4) }
