package transop_test

import (
	"fmt"

	"github.com/coregx/qdfa/transop"
)

// ExamplePrepareForExecutor demonstrates scheduling a counter swap.
func ExamplePrepareForExecutor() {
	ops := []transop.Op{
		transop.NewMaintain(0, 0, 1),
		transop.NewMaintain(0, 1, 0),
	}
	for _, op := range transop.PrepareForExecutor(ops, transop.NewTempPool(10)) {
		fmt.Println(op)
	}
	// Output:
	// q0:s10=maintain(s1)/move
	// q0:s1=maintain(s0)/move
	// q0:s0=maintain(s10)/move
}
