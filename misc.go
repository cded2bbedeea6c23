// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.18
//

package gorpos

import (
	"fmt"
	"io"
	"os"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ------------------------------------
// Mini functions
// ------------------------------------

func SQ(x float64) float64 {
	return x * x
}

// ------------------------------------
// Debug print function
// ------------------------------------

// Destination of debug prints (stderr by default)
var logOut io.Writer = os.Stderr

// SetLogOutput redirects debug prints. Passing nil mutes them.
func SetLogOutput(w io.Writer) {
	if w == nil {
		logOut = io.Discard
		return
	}
	logOut = w
}

func PrintMat(X mat.Matrix) {
	r, c := X.Dims()
	fmt.Fprintf(logOut, "(%d x %d)\n", r, c)
	fa := mat.Formatted(X, mat.Prefix(""), mat.Squeeze())
	fmt.Fprintf(logOut, "%v\n", fa)
}

func PrintA(format string, a ...any) {
	fmt.Fprintf(logOut, format, a...)
}

func PrintAIf(cond bool, format string, a ...any) {
	if cond {
		PrintA(format, a...)
	}
}

// Debug display level
var DBG_ int

// Debug display
func PrintD(v int, format string, a ...any) {
	PrintAIf(DBG_ >= v, format, a...)
}

func PrintE(err error) {
	fmt.Fprintf(os.Stderr, "err=%s\n", err.Error())
}

// ------------------------------------
// For command argument parsing
// ------------------------------------

// Robust estimation method
type Method int

const (
	RANSAC Method = iota
	LMEDS
	MSAC
	PROSAC
	PROMEDS
)

var methodNames = [...]string{"RANSAC", "LMedS", "MSAC", "PROSAC", "PROMedS"}

func (p *Method) Set(s string) error {
	for i, n := range methodNames {
		if strings.EqualFold(s, n) {
			*p = Method(i)
			return nil
		}
	}
	return fmt.Errorf("unknown method: %s", s)
}

func (p Method) String() string {
	if p < 0 || int(p) >= len(methodNames) {
		return "UNKNOWN!"
	}
	return methodNames[p]
}

// Whether the method draws subsets in quality order
func (p Method) IsProgressive() bool {
	return p == PROSAC || p == PROMEDS
}

// Whether the method scores candidates by the median residual
func (p Method) IsMedian() bool {
	return p == LMEDS || p == PROMEDS
}

// How source and reading quality scores are combined into one score
type CombineMode int

const (
	CombineProduct CombineMode = iota // source × reading
	CombineSum                        // source + reading
	CombineSource                     // source only
	CombineReading                    // reading only
)

var combineNames = [...]string{"product", "sum", "source", "reading"}

func (p *CombineMode) Set(s string) error {
	for i, n := range combineNames {
		if strings.EqualFold(s, n) {
			*p = CombineMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown combine mode: %s", s)
}

func (p CombineMode) String() string {
	if p < 0 || int(p) >= len(combineNames) {
		return "UNKNOWN!"
	}
	return combineNames[p]
}
