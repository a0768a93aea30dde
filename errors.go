// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package probables

import "github.com/pkg/errors"

// InitializationError reports invalid constructor parameters or a
// malformed persisted filter. The constructed object is never
// observable when this error is returned.
type InitializationError struct {
	msg string
}

func (e *InitializationError) Error() string { return "probables: " + e.msg }

func newInitializationError(msg string) error {
	return errors.WithStack(&InitializationError{msg: msg})
}

// NotSupportedError reports an operation that the receiving filter
// variant does not implement.
type NotSupportedError struct {
	msg string
}

func (e *NotSupportedError) Error() string { return "probables: " + e.msg }

func newNotSupportedError(msg string) error {
	return errors.WithStack(&NotSupportedError{msg: msg})
}

// CuckooFilterFullError reports that a cuckoo filter exhausted its
// swap budget while auto-expansion was disabled.
type CuckooFilterFullError struct {
	msg string
	// Evicted is the fingerprint that could not be re-seated, for
	// callers that want to retry elsewhere instead of losing it.
	Evicted uint32
}

func (e *CuckooFilterFullError) Error() string { return "probables: " + e.msg }

func newCuckooFilterFullError(msg string, evicted uint32) error {
	return errors.WithStack(&CuckooFilterFullError{msg: msg, Evicted: evicted})
}

// CountMinSketchError reports an incompatible count-min sketch join.
type CountMinSketchError struct {
	msg string
}

func (e *CountMinSketchError) Error() string { return "probables: " + e.msg }

func newCountMinSketchError(msg string) error {
	return errors.WithStack(&CountMinSketchError{msg: msg})
}

// TypeMismatchError reports a set-algebra operation invoked with an
// operand of the wrong concrete type.
type TypeMismatchError struct {
	msg string
}

func (e *TypeMismatchError) Error() string { return "probables: " + e.msg }

func newTypeMismatchError(msg string) error {
	return errors.WithStack(&TypeMismatchError{msg: msg})
}
