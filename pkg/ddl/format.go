package ddl

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// FormatValue renders element i of a field default for display. Select
// values print as the item name, bitfield values as flag names joined by
// '|', and struct values as a brace-enclosed assignment list.
func FormatValue(d Definition, vi ValueInfo, i uint32) string {
	val, ok := vi.Value()
	if !ok {
		return ""
	}
	switch t := vi.Type(); {
	case t == Uint8 || t == Uint16 || t == Uint32 || t == Uint64:
		return strconv.FormatUint(val.Uint(i), 10)
	case t.IsInteger():
		return strconv.FormatInt(val.Int(i), 10)
	case t == Float32 || t == Float64:
		return fmt.Sprintf("%f", val.Float(i))
	case t == Boolean:
		return strconv.FormatBool(val.Bool(i))
	case t == Tuid:
		return strconv.FormatUint(val.Tuid(i), 10)
	case t == String || t == File || t == Json:
		return strconv.Quote(val.String(i))
	case t == Select:
		h := val.SelectHash(i)
		if a, ok := vi.Aggregate(d); ok {
			if s, ok := a.Select(); ok {
				if item, ok := s.FindItemHash(h); ok {
					return item.Name()
				}
			}
		}
		return fmt.Sprintf("%#08x", h)
	case t == Bitfield:
		bv, ok := val.Bitfield(i)
		if !ok {
			return ""
		}
		var bf BitfieldDecl
		if a, ok := vi.Aggregate(d); ok {
			bf, _ = a.Bitfield()
		}
		names := make([]string, 0, bv.Count())
		for j := range bv.Count() {
			h := bv.Hash(j)
			if !bf.IsNil() {
				if f, ok := bf.FindFlagHash(h); ok {
					names = append(names, f.Name())
					continue
				}
			}
			names = append(names, fmt.Sprintf("%#08x", h))
		}
		return strings.Join(names, "|")
	case t == Struct:
		sv, ok := val.Struct(i)
		if !ok {
			return "{}"
		}
		var st StructDecl
		if a, ok := vi.Aggregate(d); ok {
			st, _ = a.Struct()
		}
		parts := make([]string, 0, sv.Count())
		for j := range sv.Count() {
			fvi := sv.ValueInfo(j)
			name := fmt.Sprintf("%#08x", fvi.NameHash())
			if !st.IsNil() {
				if f, ok := st.FindFieldHash(fvi.NameHash()); ok {
					name = f.Name()
				}
			}
			parts = append(parts, name+" = "+formatAll(d, fvi))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return ""
}

func formatAll(d Definition, vi ValueInfo) string {
	if vi.ArrayType() == Scalar {
		return FormatValue(d, vi, 0)
	}
	parts := make([]string, vi.Count())
	for i := range parts {
		parts[i] = FormatValue(d, vi, uint32(i))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

type dumper struct {
	w   io.Writer
	d   Definition
	err error
}

func (p *dumper) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// Dump writes a source-like listing of every aggregate in d.
func Dump(w io.Writer, d Definition) error {
	p := &dumper{w: w, d: d}
	for i := range d.NumAggregates() {
		if i > 0 {
			p.printf("\n")
		}
		p.aggregate(d.Aggregate(i))
	}
	return p.err
}

func (p *dumper) info(i info) string {
	var b strings.Builder
	if s := i.Author(); s != "" {
		fmt.Fprintf(&b, ", author(%q)", s)
	}
	if s := i.Description(); s != "" {
		fmt.Fprintf(&b, ", description(%q)", s)
	}
	if s := i.Label(); s != "" {
		fmt.Fprintf(&b, ", label(%q)", s)
	}
	return b.String()
}

func (p *dumper) tags(t Tag, ok bool) string {
	var b strings.Builder
	for ; ok; t, ok = t.Next() {
		switch t.Type() {
		case TagExtensions, TagVaultHints:
			quoted := make([]string, 0)
			for _, s := range t.Strings() {
				quoted = append(quoted, strconv.Quote(s))
			}
			fmt.Fprintf(&b, ", %s(%s)", t.Type(), strings.Join(quoted, ", "))
		case TagUIRender, TagVersion, TagCallback, TagKey, TagUnits:
			fmt.Fprintf(&b, ", %s(%q)", t.Type(), t.Text())
		case TagParallel:
			if f, ok := t.Parallel(); ok {
				fmt.Fprintf(&b, ", parallel(%s)", f.Name())
			}
		case TagUIRange:
			b.WriteString(", range(...)")
		case TagGeneric:
			g, _ := t.Generic()
			args := []string{g.Name()}
			for i := range g.NumValues() {
				switch v := g.Value(i); v.Type {
				case Int64:
					args = append(args, strconv.FormatInt(v.Int, 10))
				case Float64:
					args = append(args, strconv.FormatFloat(v.Float, 'g', -1, 64))
				default:
					args = append(args, strconv.Quote(v.String))
				}
			}
			fmt.Fprintf(&b, ", tag(%s)", strings.Join(args, ", "))
		}
	}
	return b.String()
}

func (p *dumper) aggregate(a Aggregate) {
	tags, ok := a.Tags()
	header := p.info(a.info) + p.tags(tags, ok)
	switch a.Type() {
	case Select:
		s, _ := a.Select()
		p.printf("select %s%s\n{\n", a.Name(), header)
		for i := range s.NumItems() {
			item := s.Item(i)
			def := ""
			if int32(i) == s.DefaultItem() {
				def = ", default"
			}
			t, ok := item.Tags()
			p.printf("  %s%s%s%s;\n", item.Name(), p.info(item.info), def, p.tags(t, ok))
		}
	case Bitfield:
		bf, _ := a.Bitfield()
		p.printf("bitfield %s%s\n{\n", a.Name(), header)
		for i := range bf.NumFlags() {
			f := bf.Flag(i)
			extra := ""
			if int32(i) == bf.DefaultFlag() {
				extra += ", default"
			}
			if v, ok := f.Value(); ok {
				if v.Count() == 0 {
					extra += ", empty"
				} else {
					names := make([]string, v.Count())
					for j := range v.Count() {
						names[j] = bf.Flag(v.FlagIndex(j)).Name()
					}
					extra += ", value(" + strings.Join(names, "|") + ")"
				}
			}
			t, ok := f.Tags()
			p.printf("  %s%s%s%s; // %#x\n", f.Name(), p.info(f.info), extra, p.tags(t, ok), bf.Mask(i))
		}
	case Struct:
		s, _ := a.Struct()
		if parent, ok := s.Parent(); ok {
			header = ", base(" + parent.Name() + ")" + header
		}
		p.printf("struct %s%s // crc %#08x\n{\n", a.Name(), header, s.SchemaCRC())
		for i := range s.NumFields() {
			f := s.Field(i)
			vi := f.ValueInfo()
			typ := vi.Type().String()
			if agg, ok := vi.Aggregate(p.d); ok {
				typ = agg.Name()
			}
			switch vi.ArrayType() {
			case Fixed:
				typ += fmt.Sprintf("[%d]", vi.Count())
			case Dynamic:
				typ += "[]"
			case Hashmap:
				typ += "{" + vi.KeyType().String() + "}"
			}
			value := ""
			if _, ok := vi.Value(); ok {
				value = ", value(" + formatAll(p.d, vi) + ")"
			}
			t, ok := vi.Tags()
			p.printf("  %s %s%s%s%s;\n", typ, f.Name(), p.info(f.info), value, p.tags(t, ok))
		}
	}
	p.printf("}\n")
}
