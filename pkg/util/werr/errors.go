// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package werr

import (
	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
)

const (
	CanceledCode int32 = 10000
	TimeoutCode  int32 = 10001
)

// Define leaf errors here,
// WARN: take care to add new error,
// check whether you can use the errors below before adding a new one.
var (
	// Scalar decode related
	ErrRangeViolation = newWireError("integer out of range for requested width", 1, false)
	ErrTypeMismatch   = newWireError("scalar token cannot be coerced to requested type", 2, false)
	ErrTruncation     = newWireError("fewer bytes available than the value requires", 3, false)

	// Structure related
	ErrUnterminatedRecord = newWireError("closing brace or bracket missing", 100, false)
	ErrUnknownTypeTag     = newWireError("type tag cannot be resolved", 101, false)
	ErrUnexpectedField    = newWireError("field not expected at this position", 102, false)

	// Document framing related
	ErrPayloadTooLarge      = newWireError("document payload exceeds 30-bit length limit", 200, false)
	ErrHeaderAcquireTimeout = newWireError("header CAS contended past configured timeout", 201, true)
	ErrDocumentNotPresent   = newWireError("no complete document at current position", 202, true)

	// Buffer related
	ErrIoFailed          = newWireError("underlying buffer failure", 300, false)
	ErrCapacityExhausted = newWireError("buffer capacity exhausted", 301, false)

	// Codec related
	ErrUnknownCompression = newWireError("compression codec not registered", 400, false)

	// Do NOT export this,
	// keep only for converting unknown error to wireError
	errUnexpected = newWireError("unexpected error", (1<<16)-1, false)
)

type errorOption func(*wireError)

func WithDetail(detail string) errorOption {
	return func(err *wireError) {
		err.detail = detail
	}
}

type wireError struct {
	msg       string
	detail    string
	retriable bool
	errCode   int32
}

func newWireError(msg string, code int32, retriable bool, options ...errorOption) wireError {
	err := wireError{
		msg:       msg,
		detail:    msg,
		retriable: retriable,
		errCode:   code,
	}

	for _, option := range options {
		option(&err)
	}
	return err
}

func (e wireError) code() int32 {
	return e.errCode
}

func (e wireError) Error() string {
	return e.msg
}

func (e wireError) Detail() string {
	return e.detail
}

func (e wireError) Is(err error) bool {
	cause := errors.Cause(err)
	if cause, ok := cause.(wireError); ok {
		return e.errCode == cause.errCode
	}
	return false
}

type multiErrors struct {
	errs []error
}

func (e multiErrors) Unwrap() error {
	if len(e.errs) <= 1 {
		return nil
	}
	if len(e.errs) == 2 {
		return e.errs[1]
	}

	return multiErrors{
		errs: e.errs[1:],
	}
}

func (e multiErrors) Error() string {
	final := e.errs[0]
	for i := 1; i < len(e.errs); i++ {
		final = errors.Wrap(e.errs[i], final.Error())
	}
	return final.Error()
}

func (e multiErrors) Is(err error) bool {
	for _, item := range e.errs {
		if errors.Is(item, err) {
			return true
		}
	}
	return false
}

func Combine(errs ...error) error {
	errs = lo.Filter(errs, func(err error, _ int) bool { return err != nil })
	if len(errs) == 0 {
		return nil
	}
	return multiErrors{
		errs,
	}
}
