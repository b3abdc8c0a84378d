// Package annotations holds category-tagged collections of box, polygon and
// brush annotations.
//
// # Collections
//
// A Set keeps three parallel slices: the elements, their category indices
// and their selection flags. Index i across the three describes one
// annotation and the slices always have equal length. Constructing or
// decoding a set with mismatched lengths fails with ErrShapeCountMismatch.
//
// Two concrete collections build on Set:
//
//   - BoxAnnotations holds geometry.Shape values (boxes or polygons).
//     Appending an element that equals an existing one of the same
//     category within geometry.Epsilon is a no-op.
//   - BrushAnnotations holds run-length encoded Canvas values. Append skips
//     exact duplicates only; Extend concatenates without any dedup.
//
// # Governing Box
//
// Containment filters and overlap queries look at one box per element: a
// box shape's own box, a polygon's enclosing box, or a canvas's bounding
// box.
//
// # Filters
//
// KeepInside and RemoveInside compute the surviving indices first and then
// rebuild all three slices from that subset, preserving order.
//
// # Wire Format
//
// Sets marshal as {"elts": [...], "cat_idxs": [...], "selected_mask": [...]}.
// Shapes use the tagged {"BB": ...} / {"Poly": ...} form and canvases
// {"rle": [...], "bb": {...}, "intensity": f}.
package annotations
