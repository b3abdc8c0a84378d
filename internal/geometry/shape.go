package geometry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ShapeKind distinguishes the variants of Shape.
type ShapeKind int

const (
	// KindBox marks a Shape holding a BoxF.
	KindBox ShapeKind = iota
	// KindPolygon marks a Shape holding a Polygon.
	KindPolygon
)

func (k ShapeKind) String() string {
	switch k {
	case KindBox:
		return "BB"
	case KindPolygon:
		return "Poly"
	default:
		return fmt.Sprintf("ShapeKind(%d)", int(k))
	}
}

// ErrAmbiguousShape is returned when an untagged shape object cannot be
// resolved to either a box or a polygon.
var ErrAmbiguousShape = errors.New("shape is neither a box nor a polygon")

// Shape is either a box or a polygon, never both. The zero Shape is the zero
// box.
type Shape struct {
	kind ShapeKind
	box  BoxF
	poly Polygon
}

// ShapeFromBox wraps a box.
func ShapeFromBox(b BoxF) Shape {
	return Shape{kind: KindBox, box: b}
}

// ShapeFromPolygon wraps a polygon.
func ShapeFromPolygon(p Polygon) Shape {
	return Shape{kind: KindPolygon, poly: p}
}

// Kind reports which variant the shape holds.
func (s Shape) Kind() ShapeKind { return s.kind }

// Box returns the wrapped box and true for box shapes.
func (s Shape) Box() (BoxF, bool) {
	return s.box, s.kind == KindBox
}

// Polygon returns the wrapped polygon and true for polygon shapes.
func (s Shape) Polygon() (Polygon, bool) {
	return s.poly, s.kind == KindPolygon
}

// GoverningBox is the box itself for box shapes and the enclosing box for
// polygons.
func (s Shape) GoverningBox() Box {
	if s.kind == KindPolygon {
		return s.poly.EnclosingBox()
	}
	return s.box
}

// Equals reports whether both shapes are the same variant with equal
// geometry under tolerance eps.
func (s Shape) Equals(o Shape, eps float64) bool {
	if s.kind != o.kind {
		return false
	}
	if s.kind == KindPolygon {
		return s.poly.Equals(o.poly, eps)
	}
	return s.box.Equals(o.box, eps)
}

// MarshalJSON writes the tagged form {"BB": {...}} or {"Poly": {...}}.
func (s Shape) MarshalJSON() ([]byte, error) {
	if s.kind == KindPolygon {
		return json.Marshal(map[string]Polygon{"Poly": s.poly})
	}
	return json.Marshal(map[string]BoxF{"BB": s.box})
}

// UnmarshalJSON accepts the tagged form written by MarshalJSON and also a
// bare box or polygon object.
func (s *Shape) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	if len(fields) == 1 {
		if raw, ok := fields["BB"]; ok {
			return s.decodeBox(raw)
		}
		if raw, ok := fields["Poly"]; ok {
			return s.decodePolygon(raw)
		}
	}

	_, hasPoints := fields["points"]
	_, hasX := fields["x"]
	_, hasY := fields["y"]
	_, hasW := fields["w"]
	_, hasH := fields["h"]
	isBox := hasX && hasY && hasW && hasH
	switch {
	case hasPoints && !isBox:
		return s.decodePolygon(data)
	case isBox && !hasPoints:
		return s.decodeBox(data)
	default:
		return fmt.Errorf("%w: %s", ErrAmbiguousShape, abbreviate(data))
	}
}

func (s *Shape) decodeBox(raw json.RawMessage) error {
	var b BoxF
	if err := json.Unmarshal(raw, &b); err != nil {
		return fmt.Errorf("failed to decode box: %w", err)
	}
	*s = ShapeFromBox(b)
	return nil
}

func (s *Shape) decodePolygon(raw json.RawMessage) error {
	var p Polygon
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("failed to decode polygon: %w", err)
	}
	*s = ShapeFromPolygon(p)
	return nil
}

func abbreviate(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) > 64 {
		return string(data[:64]) + "..."
	}
	return string(data)
}
