package fastc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckReportsNoDiagnosticsForValidProgram(t *testing.T) {
	diags := Check("main", []byte(`
		fn main() -> i32 {
			return 0;
		}
	`), nil, DefaultOptions())
	assert.Empty(t, diags)
}

func TestCheckReportsTypeErrors(t *testing.T) {
	diags := Check("main", []byte(`
		fn main() -> i32 {
			let x: i32 = true;
			return 0;
		}
	`), nil, DefaultOptions())
	require.NotEmpty(t, diags)
	assert.Equal(t, "typecheck-mismatched-types", diags[0].Code)
}

func TestCompileProducesCSource(t *testing.T) {
	cSrc, hSrc, diags := Compile("main", []byte(`
		pub fn add(a: i32, b: i32) -> i32 {
			return a + b;
		}
	`), nil, DefaultOptions())
	require.Empty(t, diags)
	assert.Contains(t, cSrc, "int32_t add(int32_t a, int32_t b)")
	assert.Contains(t, hSrc, "int32_t add(int32_t a, int32_t b);")
}

func TestCompileRefusesToEmitOnFrontendError(t *testing.T) {
	cSrc, hSrc, diags := Compile("main", []byte(`
		fn main() -> i32 {
			return bogus;
		}
	`), nil, DefaultOptions())
	require.NotEmpty(t, diags)
	assert.Empty(t, cSrc)
	assert.Empty(t, hSrc)
}

func TestFormatRoundTripsSimpleFunction(t *testing.T) {
	out, diags := Format([]byte(`fn main ( ) -> i32 { return 0 ; }`))
	require.Empty(t, diags)
	assert.Contains(t, out, "fn main() -> i32 {")
	assert.Contains(t, out, "return 0;")
}
