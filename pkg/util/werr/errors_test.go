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
	"context"
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type ErrSuite struct {
	suite.Suite
}

func (s *ErrSuite) TestCode() {
	err := WrapErrTypeMismatch("abc", "int64", 12)
	errors.Wrap(err, "failed to decode scalar")
	s.ErrorIs(err, ErrTypeMismatch)
	s.Equal(Code(ErrTypeMismatch), Code(err))
	s.Equal(TimeoutCode, Code(context.DeadlineExceeded))
	s.Equal(CanceledCode, Code(context.Canceled))
	s.Equal(errUnexpected.errCode, Code(errUnexpected))

	sameCodeErr := newWireError("new error", ErrTypeMismatch.errCode, false)
	s.True(sameCodeErr.Is(ErrTypeMismatch))
}

func (s *ErrSuite) TestRetriable() {
	s.True(IsRetryableErr(ErrHeaderAcquireTimeout))
	s.True(IsRetryableErr(ErrDocumentNotPresent))
	s.False(IsRetryableErr(ErrTypeMismatch))
	s.False(IsRetryableErr(ErrPayloadTooLarge))
}

func (s *ErrSuite) TestWrap() {
	// Scalar decode 相关错误。
	s.ErrorIs(WrapErrRangeViolation(int64(300), "int8", 7, "failed to read"), ErrRangeViolation)
	s.ErrorIs(WrapErrTypeMismatch("hello", "float64", 3, "failed to read"), ErrTypeMismatch)
	s.ErrorIs(WrapErrTruncation(8, 2, 16, "failed to read"), ErrTruncation)

	// Structure 相关错误。
	s.ErrorIs(WrapErrUnterminatedRecord(40, []byte("{a: 1"), "failed to parse"), ErrUnterminatedRecord)
	s.ErrorIs(WrapErrUnknownTypeTag("Unknown", 4, "failed to resolve"), ErrUnknownTypeTag)
	s.ErrorIs(WrapErrUnexpectedField("name", 9, "failed to match"), ErrUnexpectedField)

	// Document framing 相关错误。
	s.ErrorIs(WrapErrPayloadTooLarge(1<<31, 1<<30-1), ErrPayloadTooLarge)
	s.ErrorIs(WrapErrHeaderAcquireTimeout(0, "failed to acquire"), ErrHeaderAcquireTimeout)

	// Buffer / codec 相关错误。
	s.ErrorIs(WrapErrIoFailed(128, os.ErrClosed), ErrIoFailed)
	s.ErrorIs(WrapErrUnknownCompression("brotli", "failed to pack"), ErrUnknownCompression)
}

func (s *ErrSuite) TestExcerpt() {
	s.Equal(`"abc"`, Excerpt([]byte("abc")))
	long := make([]byte, maxExcerptLen*2)
	for i := range long {
		long[i] = 'x'
	}
	s.LessOrEqual(len(Excerpt(long)), maxExcerptLen+2)
}

func (s *ErrSuite) TestCombine() {
	var (
		errFirst  = errors.New("first")
		errSecond = errors.New("second")
		errThird  = errors.New("third")
	)

	err := Combine(errFirst, errSecond)
	s.True(errors.Is(err, errFirst))
	s.True(errors.Is(err, errSecond))
	s.False(errors.Is(err, errThird))

	s.Equal("first: second", err.Error())
}

func (s *ErrSuite) TestCombineWithNil() {
	err := errors.New("non-nil")

	err = Combine(nil, err)
	s.NotNil(err)
}

func (s *ErrSuite) TestCombineOnlyNil() {
	err := Combine(nil, nil)
	s.Nil(err)
}

func (s *ErrSuite) TestCombineCode() {
	err := Combine(WrapErrTruncation(4, 0, 0), WrapErrTypeMismatch("x", "bool", 2))
	s.Equal(Code(ErrTypeMismatch), Code(err))
}

func TestErrors(t *testing.T) {
	suite.Run(t, new(ErrSuite))
}
