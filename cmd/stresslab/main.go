// Command stresslab runs normal-vs-stressed Monte Carlo comparisons over a
// mortgage loan dataset.
//
// Usage:
//
//	stresslab simulate --seed 42
//	stresslab import --target sqlite
//	stresslab report <comparison-id>
//	stresslab serve
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
