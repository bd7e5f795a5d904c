package references

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// interner maps class names to dense uint32 ids so reference sets can be
// carried as roaring bitmaps through the merge. The merge itself is
// single-threaded, so no locking.
type interner struct {
	ids   map[string]uint32
	names []string
}

func newInterner() *interner {
	return &interner{ids: make(map[string]uint32)}
}

func (in *interner) id(name string) uint32 {
	if id, ok := in.ids[name]; ok {
		return id
	}
	id := uint32(len(in.names))
	in.ids[name] = id
	in.names = append(in.names, name)
	return id
}

// bitmap interns a name slice into a fresh bitmap.
func (in *interner) bitmap(names []string) *roaring.Bitmap {
	bm := roaring.New()
	for _, n := range names {
		bm.Add(in.id(n))
	}
	return bm
}

// sorted materializes a bitmap back into lexicographically sorted names.
// Intern ids are assigned in discovery order, so an explicit sort is the
// step that establishes report order.
func (in *interner) sorted(bm *roaring.Bitmap) []string {
	out := make([]string, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, in.names[it.Next()])
	}
	sort.Strings(out)
	return out
}
