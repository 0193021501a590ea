// Package canvas defines the drawing surface the recipe layout engine drives.
//
// The layout engine decides what goes where; a Canvas implementation decides how
// it is drawn. Coordinates are millimetres relative to the current frame, with y
// growing downward from the top of the frame. The cursor is the y position at
// which the next flowing element (a table) will be placed.
//
// A Canvas is a stateful cursor-based resource. It must not be shared between
// goroutines; every render pass owns its own Canvas.
package canvas

// Canvas is the drawing capability consumed by the layout engine.
type Canvas interface {
	// DrawText places text at a fixed position without moving the cursor.
	DrawText(text string, at Point, style TextStyle)

	// DrawTable draws a table at the cursor, moves the cursor below it and
	// returns the vertical extent consumed.
	DrawTable(t Table) float64

	// BoundingBox runs render inside a frame whose origin is at origin. If
	// height is positive the cursor ends at the bottom of the box, otherwise
	// below the content render produced.
	BoundingBox(origin Point, width, height float64, render func(Canvas))

	// Cursor returns the current vertical offset within the current frame.
	Cursor() float64

	// MoveDown advances the cursor by dy.
	MoveDown(dy float64)

	// StartNewPage finishes the current page and places the cursor at the top
	// of a fresh one.
	StartNewPage()

	// RepeatOnEveryPage registers render to be drawn on every page of the
	// finished document, in the page's root frame.
	RepeatOnEveryPage(render func(Canvas))

	// RepeatOnPagesMatching registers render for every page whose 1-based
	// number satisfies match.
	RepeatOnPagesMatching(match func(page int) bool, render func(Canvas))

	// PageNumberAnnotation prints template on every page at the given position.
	// "<page>" is replaced by the page number and "<total>" by the page count.
	PageNumberAnnotation(template string, at Point, style TextStyle)

	// Bounds returns the current frame.
	Bounds() Rect
}

// Point is a position in millimetres.
type Point struct {
	X, Y float64
}

// Rect is a frame in millimetres.
type Rect struct {
	X, Y, Width, Height float64
}

// Bottom returns the y coordinate of the lower edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// NotOnFirstPage matches every page except the first one.
func NotOnFirstPage(page int) bool { return page != 1 }
