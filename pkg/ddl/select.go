package ddl

// SelectDecl is a tagged union declaration.
type SelectDecl struct{ Aggregate }

func (s SelectDecl) NumItems() uint32   { return s.u32(SelNumItems) }
func (s SelectDecl) DefaultItem() int32 { return s.i32(SelDefaultItem) }

// Item returns the item at index i.
func (s SelectDecl) Item(i uint32) SelectItem {
	p, _ := s.ptr(SelItems + i*PointerSize)
	return newSelectItem(s.at(p))
}

// FindItem returns the item called name.
func (s SelectDecl) FindItem(name string) (SelectItem, bool) {
	return s.FindItemHash(Hash(name))
}

// FindItemHash returns the item whose name hashes to h.
func (s SelectDecl) FindItemHash(h uint32) (SelectItem, bool) {
	for i := range s.NumItems() {
		if item := s.Item(i); item.NameHash() == h {
			return item, true
		}
	}
	return SelectItem{}, false
}

// SelectItem is one alternative of a select.
type SelectItem struct{ info }

func newSelectItem(v view) SelectItem {
	return SelectItem{info{view: v, name: ItemName, author: ItemAuthor, description: ItemDescription, label: ItemLabel}}
}

func (i SelectItem) NameHash() uint32          { return i.u32(ItemNameHash) }
func (i SelectItem) Tags() (Tag, bool)         { return firstTag(i.view, ItemTags) }
func (i SelectItem) Tag(t TagType) (Tag, bool) { return findTag(i.view, ItemTags, t) }
