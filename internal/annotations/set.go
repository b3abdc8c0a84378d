package annotations

import (
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"slices"

	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
)

// ErrShapeCountMismatch is returned when the parallel slices of a set have
// different lengths.
var ErrShapeCountMismatch = errors.New("annotation slices differ in length")

// Element is anything that can be placed in a Set.
type Element interface {
	GoverningBox() geometry.Box
}

// Set is an ordered collection of elements with a category index and a
// selection flag per element.
//
// The zero value is an empty set.
type Set[E Element] struct {
	elts     []E
	catIdxs  []int
	selected []bool
}

// NewSet builds a set from parallel slices. The slices are copied.
func NewSet[E Element](elts []E, catIdxs []int, selected []bool) (Set[E], error) {
	if len(elts) != len(catIdxs) || len(elts) != len(selected) {
		return Set[E]{}, fmt.Errorf("%w: got %d, %d, %d for elts, cat_idxs, selected_mask",
			ErrShapeCountMismatch, len(elts), len(catIdxs), len(selected))
	}
	return Set[E]{
		elts:     slices.Clone(elts),
		catIdxs:  slices.Clone(catIdxs),
		selected: slices.Clone(selected),
	}, nil
}

// Len returns the number of annotations.
func (s *Set[E]) Len() int { return len(s.elts) }

// At returns element i with its category index and selection flag.
func (s *Set[E]) At(i int) (E, int, bool) {
	return s.elts[i], s.catIdxs[i], s.selected[i]
}

// Elts returns a copy of the elements.
func (s *Set[E]) Elts() []E { return slices.Clone(s.elts) }

// CatIdxs returns a copy of the category indices.
func (s *Set[E]) CatIdxs() []int { return slices.Clone(s.catIdxs) }

// SelectedMask returns a copy of the selection flags.
func (s *Set[E]) SelectedMask() []bool { return slices.Clone(s.selected) }

// All iterates over (index, element) pairs.
func (s *Set[E]) All() iter.Seq2[int, E] {
	return func(yield func(int, E) bool) {
		for i, e := range s.elts {
			if !yield(i, e) {
				return
			}
		}
	}
}

// push appends without any dedup check.
func (s *Set[E]) push(e E, catIdx int, selected bool) {
	s.elts = append(s.elts, e)
	s.catIdxs = append(s.catIdxs, catIdx)
	s.selected = append(s.selected, selected)
}

// appendUnique appends e unless an element of the same category satisfies
// equal. It reports whether e was added.
func (s *Set[E]) appendUnique(e E, catIdx int, selected bool, equal func(a, b E) bool) bool {
	for i, existing := range s.elts {
		if s.catIdxs[i] == catIdx && equal(existing, e) {
			return false
		}
	}
	s.push(e, catIdx, selected)
	return true
}

// Select sets the selection flag of element i.
func (s *Set[E]) Select(i int, selected bool) {
	s.selected[i] = selected
}

// ToggleSelection flips the selection flag of element i.
func (s *Set[E]) ToggleSelection(i int) {
	s.selected[i] = !s.selected[i]
}

// SelectAll marks every element as selected.
func (s *Set[E]) SelectAll() {
	for i := range s.selected {
		s.selected[i] = true
	}
}

// DeselectAll clears every selection flag.
func (s *Set[E]) DeselectAll() {
	for i := range s.selected {
		s.selected[i] = false
	}
}

// SelectedIndices returns the indices of selected elements in order.
func (s *Set[E]) SelectedIndices() []int {
	var inds []int
	for i, sel := range s.selected {
		if sel {
			inds = append(inds, i)
		}
	}
	return inds
}

// LabelSelected moves every selected element to category catIdx.
func (s *Set[E]) LabelSelected(catIdx int) {
	for i, sel := range s.selected {
		if sel {
			s.catIdxs[i] = catIdx
		}
	}
}

// Remove deletes element i.
func (s *Set[E]) Remove(i int) E {
	e := s.elts[i]
	s.elts = slices.Delete(s.elts, i, i+1)
	s.catIdxs = slices.Delete(s.catIdxs, i, i+1)
	s.selected = slices.Delete(s.selected, i, i+1)
	return e
}

// RemoveSelected deletes every selected element. The survivors are left
// deselected.
func (s *Set[E]) RemoveSelected() {
	inds := make([]int, 0, len(s.elts))
	for i, sel := range s.selected {
		if !sel {
			inds = append(inds, i)
		}
	}
	*s = s.subset(inds)
}

// ReduceCatIdxs shifts every category index >= catIdx down by one, never
// below zero. Use it after deleting category catIdx from the label list.
func (s *Set[E]) ReduceCatIdxs(catIdx int) {
	for i, c := range s.catIdxs {
		if c >= catIdx && c > 0 {
			s.catIdxs[i] = c - 1
		}
	}
}

// RemoveCategory deletes every element of category catIdx and renumbers
// the categories above it with ReduceCatIdxs.
func (s *Set[E]) RemoveCategory(catIdx int) {
	inds := make([]int, 0, len(s.elts))
	for i, c := range s.catIdxs {
		if c != catIdx {
			inds = append(inds, i)
		}
	}
	*s = s.subset(inds)
	s.ReduceCatIdxs(catIdx)
}

// Clear removes all elements.
func (s *Set[E]) Clear() {
	*s = Set[E]{}
}

// BoundingBoxes lazily yields the governing box of each element. With a
// non-empty filter only elements whose category index is in filter are
// visited.
func (s *Set[E]) BoundingBoxes(filter []int) iter.Seq[geometry.Box] {
	return func(yield func(geometry.Box) bool) {
		for i, e := range s.elts {
			if len(filter) > 0 && !slices.Contains(filter, s.catIdxs[i]) {
				continue
			}
			if !yield(e.GoverningBox()) {
				return
			}
		}
	}
}

// KeepInside keeps the elements whose governing box lies inside at least
// one of boxes.
func (s *Set[E]) KeepInside(boxes []geometry.Box) {
	before := len(s.elts)
	*s = s.subset(s.indices(boxes, true))
	Logger().Debug("keep inside", "containers", len(boxes), "before", before, "after", len(s.elts))
}

// RemoveInside drops the elements whose governing box lies inside at least
// one of boxes.
func (s *Set[E]) RemoveInside(boxes []geometry.Box) {
	before := len(s.elts)
	*s = s.subset(s.indices(boxes, false))
	Logger().Debug("remove inside", "containers", len(boxes), "before", before, "after", len(s.elts))
}

// indices returns the elements contained in some box (inside) or in none.
func (s *Set[E]) indices(boxes []geometry.Box, inside bool) []int {
	inds := make([]int, 0, len(s.elts))
	for i, e := range s.elts {
		gb := e.GoverningBox()
		contained := slices.ContainsFunc(boxes, func(b geometry.Box) bool {
			return geometry.Contains(b, gb)
		})
		if contained == inside {
			inds = append(inds, i)
		}
	}
	return inds
}

// subset builds a new set from the given indices in order.
func (s *Set[E]) subset(inds []int) Set[E] {
	out := Set[E]{
		elts:     make([]E, len(inds)),
		catIdxs:  make([]int, len(inds)),
		selected: make([]bool, len(inds)),
	}
	for j, i := range inds {
		out.elts[j] = s.elts[i]
		out.catIdxs[j] = s.catIdxs[i]
		out.selected[j] = s.selected[i]
	}
	return out
}

// FindMaxOverlapBox returns the governing box with the largest overlap
// area with zoom. An empty set yields zoom itself; a set where nothing
// overlaps zoom yields noMatch. Ties go to the earlier element.
func (s *Set[E]) FindMaxOverlapBox(zoom geometry.Box, filter []int, noMatch geometry.Box) geometry.Box {
	if len(s.elts) == 0 {
		return zoom
	}
	var best geometry.Box
	bestArea := 0.0
	for b := range s.BoundingBoxes(filter) {
		inter, ok := geometry.Intersect(zoom, b)
		if !ok {
			continue
		}
		if a := geometry.Area(inter); a > bestArea {
			best, bestArea = b, a
		}
	}
	if best == nil {
		return noMatch
	}
	return best
}

type setJSON[E Element] struct {
	Elts         []E    `json:"elts"`
	CatIdxs      []int  `json:"cat_idxs"`
	SelectedMask []bool `json:"selected_mask"`
}

// MarshalJSON writes the three parallel slices.
func (s Set[E]) MarshalJSON() ([]byte, error) {
	raw := setJSON[E]{Elts: s.elts, CatIdxs: s.catIdxs, SelectedMask: s.selected}
	if raw.Elts == nil {
		raw.Elts = []E{}
	}
	if raw.CatIdxs == nil {
		raw.CatIdxs = []int{}
	}
	if raw.SelectedMask == nil {
		raw.SelectedMask = []bool{}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads the three parallel slices and rejects unequal
// lengths with ErrShapeCountMismatch.
func (s *Set[E]) UnmarshalJSON(data []byte) error {
	var raw setJSON[E]
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set, err := NewSet(raw.Elts, raw.CatIdxs, raw.SelectedMask)
	if err != nil {
		return err
	}
	*s = set
	return nil
}
