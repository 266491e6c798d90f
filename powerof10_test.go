package fastc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPowerOf10FlagsUnboundedLoop(t *testing.T) {
	items, _ := parseItems(t, `
		fn spin() -> i32 {
			while true {
				return 0;
			}
			return 1;
		}
	`)
	bag := &DiagnosticBag{}
	newPowerOf10Checker(bag).Run(items)

	require.NotEmpty(t, bag.Items())
	assert.Equal(t, "powerof10-unbounded-loop", bag.Items()[0].Code)
	assert.Equal(t, SeverityWarning, bag.Items()[0].Severity)
}

func TestPowerOf10FlagsRecursion(t *testing.T) {
	items, _ := parseItems(t, `
		fn fact(n: i32) -> i32 {
			return fact(n);
		}
	`)
	bag := &DiagnosticBag{}
	newPowerOf10Checker(bag).Run(items)

	found := false
	for _, d := range bag.Items() {
		if d.Code == "powerof10-recursion" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPowerOf10AllowsBoundedForLoop(t *testing.T) {
	items, _ := parseItems(t, `
		fn sum() -> i32 {
			let total: i32 = 0;
			for (let i: i32 = 0; i < 10; i = i + 1) {
				total = total + i;
			}
			return total;
		}
	`)
	bag := &DiagnosticBag{}
	newPowerOf10Checker(bag).Run(items)

	for _, d := range bag.Items() {
		assert.NotEqual(t, "powerof10-unbounded-loop", d.Code)
	}
}
