package fastc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEmitterPrintsFunctionAndHeaderGuard(t *testing.T) {
	cfile := lowerSrc(t, `
		pub fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
	`)
	src := NewEmitter("").EmitSource(cfile, "out.h")
	assert.Contains(t, src, "int32_t add(int32_t a, int32_t b) {")
	// i32 + i32 is signed arithmetic, so §4.4.4 requires an
	// overflow-checked lowering rather than a bare C `+`.
	assert.Contains(t, src, "__builtin_add_overflow(a, b, (&__fc_tmp1))")
	assert.Contains(t, src, "fc_trap();")
	assert.Contains(t, src, "return __fc_tmp1;")

	hdr := NewEmitter("").EmitHeader(cfile, "out.h")
	assert.Contains(t, hdr, "#ifndef OUT_H_H")
	assert.Contains(t, hdr, "int32_t add(int32_t a, int32_t b);")
	assert.Contains(t, hdr, "#endif")
}

func TestEmitterOmitsNonPublicFunctionFromHeader(t *testing.T) {
	cfile := lowerSrc(t, `
		fn helper(a: i32) -> i32 {
			return a;
		}
	`)
	hdr := NewEmitter("").EmitHeader(cfile, "out.h")
	assert.NotContains(t, hdr, "helper")
}

func TestEmitterEmitsEnumConstants(t *testing.T) {
	cfile := lowerSrc(t, `
		pub enum Color { Red, Green, Blue }
		pub fn pick() -> Color {
			return Color::Red;
		}
	`)
	hdr := NewEmitter("").EmitHeader(cfile, "out.h")
	assert.Contains(t, hdr, "static const Color Color_Red = 0;")
	assert.Contains(t, hdr, "static const Color Color_Green = 1;")
}

func TestEmitterHonorsEnumWidthOverrideAttribute(t *testing.T) {
	cfile := lowerSrc(t, `
		pub @width(8) enum Color { Red, Green, Blue }
		pub fn pick() -> Color {
			return Color::Red;
		}
	`)
	hdr := NewEmitter("").EmitHeader(cfile, "out.h")
	assert.Contains(t, hdr, "typedef int8_t Color;")
}

func TestEmitterDefaultsEnumWidthTo32WithoutAttribute(t *testing.T) {
	cfile := lowerSrc(t, `
		pub enum Color { Red, Green, Blue }
		pub fn pick() -> Color {
			return Color::Red;
		}
	`)
	hdr := NewEmitter("").EmitHeader(cfile, "out.h")
	assert.Contains(t, hdr, "typedef int32_t Color;")
}
