// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package sap

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	zero = 0.0
	one  = 1.0
)

var (
	// ErrNilProblem bundle constructed without a problem.
	ErrNilProblem = errors.New("sap: nil problem")
	// ErrDelassusSize delassus diagonal size not equal to the number of constraints.
	ErrDelassusSize = errors.New("sap: delassus diagonal size mismatch")
	// ErrCliqueIndex constraint references a clique outside the problem.
	ErrCliqueIndex = errors.New("sap: invalid clique index")
	// ErrJacobianShape constraint jacobian block disagrees with its clique or equation count.
	ErrJacobianShape = errors.New("sap: invalid jacobian shape")
	// ErrPermutation permutation indices out of range or repeated.
	ErrPermutation = errors.New("sap: invalid permutation")
	// ErrParameters invalid problem or constraint parameters.
	ErrParameters = errors.New("sap: invalid parameters")
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated
	LogNoop LogLevel = -1
	// LogSummary print one line per bundle construction
	LogSummary LogLevel = 0
	// LogTrace print also the cluster layout of every bundle
	LogTrace LogLevel = 1
)

// Logger handles logging output for bundle construction.
// Note the writer must be thread-safe when bundles are built concurrently.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
}

// noopLogger is used when no logger is supplied.
var noopLogger = Logger{Level: LogNoop}

func (l *Logger) enable(level LogLevel) bool {
	return l != nil && l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	w := l.Msg
	if w == nil {
		w = os.Stdout
	}
	if len(a) > 0 {
		_, _ = fmt.Fprintf(w, format, a...)
	} else {
		_, _ = fmt.Fprint(w, format)
	}
}
