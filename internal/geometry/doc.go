// Package geometry provides the box, point, polygon and shape types shared by
// the mask codecs and the annotation collections.
//
// # Coordinate System
//
// Coordinates follow image conventions: (0,0) is the top-left pixel, X grows
// to the right and Y grows downward. A box {X, Y, W, H} covers the half-open
// column range [X, X+W) and row range [Y, Y+H).
//
// # Integer and Float Boxes
//
// BoxI holds pixel-aligned boxes (for example the extent of a connected
// component). BoxF holds annotation boxes, which may be fractional or
// normalised. Both satisfy the Box interface so that containment and
// intersection work across the two kinds. Intersecting two BoxI values yields
// a BoxI; any float participant yields a BoxF.
//
// # Tolerance
//
// Shape identity is decided with per-field absolute tolerance rather than
// exact float equality. The tolerance used by the annotation collections is
// the package variable Epsilon, which callers may tune.
package geometry
