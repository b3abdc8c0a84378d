package annotations

import (
	"encoding/json"
	"errors"
	"slices"
	"testing"

	"github.com/ironsheep/mask-annotations-mcp/internal/geometry"
)

func boxShape(x, y, w, h float64) geometry.Shape {
	return geometry.ShapeFromBox(geometry.BoxF{X: x, Y: y, W: w, H: h})
}

// createBoxSet builds a box set of unselected boxes, all of category 0
// unless cats is given.
func createBoxSet(t *testing.T, boxes []geometry.BoxF, cats ...int) *BoxAnnotations {
	t.Helper()
	if cats == nil {
		cats = make([]int, len(boxes))
	}
	shapes := make([]geometry.Shape, len(boxes))
	for i, b := range boxes {
		shapes[i] = geometry.ShapeFromBox(b)
	}
	a, err := NewBoxAnnotations(shapes, cats, make([]bool, len(boxes)))
	if err != nil {
		t.Fatalf("NewBoxAnnotations: %v", err)
	}
	return a
}

func TestNewSet_LengthMismatch(t *testing.T) {
	tests := []struct {
		name     string
		elts     int
		cats     int
		selected int
	}{
		{"short cats", 2, 1, 2},
		{"short selection", 2, 2, 0},
		{"long cats", 0, 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBoxAnnotations(
				make([]geometry.Shape, tt.elts), make([]int, tt.cats), make([]bool, tt.selected))
			if !errors.Is(err, ErrShapeCountMismatch) {
				t.Errorf("got %v, want ErrShapeCountMismatch", err)
			}
		})
	}
}

func TestSet_UnmarshalJSON_LengthMismatch(t *testing.T) {
	var a BoxAnnotations
	err := json.Unmarshal([]byte(`{"elts":[{"BB":{"x":0,"y":0,"w":5,"h":5}}],"cat_idxs":[],"selected_mask":[false]}`), &a)
	if !errors.Is(err, ErrShapeCountMismatch) {
		t.Errorf("got %v, want ErrShapeCountMismatch", err)
	}
}

func TestSet_JSONRoundTrip(t *testing.T) {
	input := `{"elts":[{"BB":{"x":0,"y":0,"w":5,"h":5}}],"cat_idxs":[1],"selected_mask":[false]}`
	var a BoxAnnotations
	if err := json.Unmarshal([]byte(input), &a); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if a.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", a.Len())
	}
	out, err := json.Marshal(&a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != input {
		t.Errorf("Marshal: got %s, want %s", out, input)
	}

	empty, err := json.Marshal(&BoxAnnotations{})
	if err != nil {
		t.Fatalf("Marshal empty: %v", err)
	}
	if string(empty) != `{"elts":[],"cat_idxs":[],"selected_mask":[]}` {
		t.Errorf("empty set JSON: got %s", empty)
	}
}

func TestKeepRemoveInside(t *testing.T) {
	boxes := []geometry.BoxF{
		{X: 1, Y: 1, W: 2, H: 2},
		{X: 20, Y: 20, W: 5, H: 5},
		{X: 4, Y: 4, W: 2, H: 2},
		{X: 8, Y: 8, W: 5, H: 5},
	}
	containers := []geometry.Box{geometry.BoxI{X: 0, Y: 0, W: 10, H: 10}}

	keep := createBoxSet(t, boxes, 0, 1, 2, 3)
	keep.Select(2, true)
	keep.KeepInside(containers)
	if !slices.Equal(keep.CatIdxs(), []int{0, 2}) {
		t.Errorf("KeepInside cat idxs: got %v, want [0 2]", keep.CatIdxs())
	}
	if !slices.Equal(keep.SelectedMask(), []bool{false, true}) {
		t.Errorf("KeepInside selection: got %v", keep.SelectedMask())
	}

	remove := createBoxSet(t, boxes, 0, 1, 2, 3)
	remove.RemoveInside(containers)
	if !slices.Equal(remove.CatIdxs(), []int{1, 3}) {
		t.Errorf("RemoveInside cat idxs: got %v, want [1 3]", remove.CatIdxs())
	}
	if len(remove.Elts()) != len(remove.SelectedMask()) {
		t.Error("parallel slices out of step after RemoveInside")
	}
}

func TestKeepInside_AnyContainer(t *testing.T) {
	a := createBoxSet(t, []geometry.BoxF{{X: 1, Y: 1, W: 1, H: 1}, {X: 50, Y: 50, W: 1, H: 1}})
	a.KeepInside([]geometry.Box{
		geometry.BoxF{X: 40, Y: 40, W: 20, H: 20},
		geometry.BoxF{X: 0, Y: 0, W: 3, H: 3},
	})
	if a.Len() != 2 {
		t.Errorf("Len: got %d, want 2", a.Len())
	}

	a.KeepInside(nil)
	if a.Len() != 0 {
		t.Errorf("no containers should keep nothing, got %d", a.Len())
	}
}

func TestBoundingBoxes_Filter(t *testing.T) {
	a := createBoxSet(t, []geometry.BoxF{{W: 1, H: 1}, {X: 2, W: 1, H: 1}, {X: 4, W: 1, H: 1}}, 0, 1, 0)

	var xs []float64
	for b := range a.BoundingBoxes([]int{0}) {
		xs = append(xs, b.Float().X)
	}
	if !slices.Equal(xs, []float64{0, 4}) {
		t.Errorf("filtered boxes: got %v, want [0 4]", xs)
	}

	n := 0
	for range a.BoundingBoxes(nil) {
		n++
		break
	}
	if n != 1 {
		t.Error("iteration should stop when the consumer breaks")
	}
}

func TestFindMaxOverlapBox(t *testing.T) {
	zoom := geometry.BoxF{X: 0, Y: 0, W: 10, H: 10}
	noMatch := geometry.BoxF{X: -1, Y: -1, W: 0, H: 0}

	empty := &BoxAnnotations{}
	if got := empty.FindMaxOverlapBox(zoom, nil, noMatch); got != geometry.Box(zoom) {
		t.Errorf("empty set: got %v, want zoom", got)
	}

	a := createBoxSet(t, []geometry.BoxF{
		{X: 8, Y: 8, W: 5, H: 5},
		{X: 2, Y: 2, W: 3, H: 3},
		{X: 50, Y: 50, W: 5, H: 5},
	}, 0, 1, 0)
	if got := a.FindMaxOverlapBox(zoom, nil, noMatch); got != geometry.Box(geometry.BoxF{X: 2, Y: 2, W: 3, H: 3}) {
		t.Errorf("max overlap: got %v", got)
	}
	if got := a.FindMaxOverlapBox(zoom, []int{0}, noMatch); got != geometry.Box(geometry.BoxF{X: 8, Y: 8, W: 5, H: 5}) {
		t.Errorf("filtered max overlap: got %v", got)
	}

	far := createBoxSet(t, []geometry.BoxF{{X: 50, Y: 50, W: 5, H: 5}})
	if got := far.FindMaxOverlapBox(zoom, nil, noMatch); got != geometry.Box(noMatch) {
		t.Errorf("no overlap: got %v, want noMatch", got)
	}
}

func TestSelection(t *testing.T) {
	a := createBoxSet(t, []geometry.BoxF{{W: 1, H: 1}, {X: 1, W: 1, H: 1}, {X: 2, W: 1, H: 1}})

	a.SelectAll()
	a.ToggleSelection(1)
	if !slices.Equal(a.SelectedIndices(), []int{0, 2}) {
		t.Errorf("SelectedIndices: got %v, want [0 2]", a.SelectedIndices())
	}

	a.LabelSelected(4)
	if !slices.Equal(a.CatIdxs(), []int{4, 0, 4}) {
		t.Errorf("LabelSelected: got %v", a.CatIdxs())
	}

	a.RemoveSelected()
	if a.Len() != 1 || a.SelectedIndices() != nil {
		t.Errorf("RemoveSelected: %d left, selected %v", a.Len(), a.SelectedIndices())
	}
	e, cat, sel := a.At(0)
	if e.GoverningBox().Float().X != 1 || cat != 0 || sel {
		t.Errorf("survivor: got %v cat %d selected %v", e.GoverningBox(), cat, sel)
	}
}

func TestReduceCatIdxs(t *testing.T) {
	a := createBoxSet(t, []geometry.BoxF{{W: 1, H: 1}, {X: 1, W: 1, H: 1}, {X: 2, W: 1, H: 1}}, 0, 2, 3)
	a.ReduceCatIdxs(2)
	if !slices.Equal(a.CatIdxs(), []int{0, 1, 2}) {
		t.Errorf("ReduceCatIdxs: got %v", a.CatIdxs())
	}
	a.ReduceCatIdxs(0)
	if !slices.Equal(a.CatIdxs(), []int{0, 0, 1}) {
		t.Errorf("ReduceCatIdxs(0): got %v", a.CatIdxs())
	}
}

func TestRemoveAndClear(t *testing.T) {
	a := createBoxSet(t, []geometry.BoxF{{W: 1, H: 1}, {X: 1, W: 1, H: 1}}, 5, 6)
	removed := a.Remove(0)
	if removed.GoverningBox().Float().X != 0 || !slices.Equal(a.CatIdxs(), []int{6}) {
		t.Errorf("Remove: removed %v, left %v", removed.GoverningBox(), a.CatIdxs())
	}
	a.Clear()
	if a.Len() != 0 {
		t.Errorf("Clear: got %d", a.Len())
	}
}

func TestAccessorsReturnCopies(t *testing.T) {
	a := createBoxSet(t, []geometry.BoxF{{W: 1, H: 1}}, 3)
	a.CatIdxs()[0] = 9
	a.SelectedMask()[0] = true
	if _, cat, sel := a.At(0); cat != 3 || sel {
		t.Error("accessor returned an aliased slice")
	}
}

func TestRemoveCategory(t *testing.T) {
	a := createBoxSet(t, []geometry.BoxF{{W: 1, H: 1}, {X: 1, W: 1, H: 1}, {X: 2, W: 1, H: 1}, {X: 3, W: 1, H: 1}}, 0, 2, 3, 2)
	a.RemoveCategory(2)
	if a.Len() != 2 || !slices.Equal(a.CatIdxs(), []int{0, 2}) {
		t.Errorf("RemoveCategory: got %d entries with categories %v, want [0 2]", a.Len(), a.CatIdxs())
	}
	if e, _, _ := a.At(1); e.GoverningBox().Float().X != 2 {
		t.Errorf("survivor: got %v", e.GoverningBox())
	}
}
