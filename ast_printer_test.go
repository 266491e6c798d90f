package fastc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintFileRendersStructAndFn(t *testing.T) {
	items, _ := parseItems(t, `
		pub struct Point {
			x: i32;
			y: i32;
		}

		fn origin() -> Point {
			return Point { x: 0, y: 0 };
		}
	`)
	out := PrintFile(&File{Items: items})
	assert.Contains(t, out, "pub struct Point {")
	assert.Contains(t, out, "x: i32;")
	assert.Contains(t, out, "fn origin() -> Point {")
	assert.Contains(t, out, "return Point { x: 0, y: 0 };")
}
