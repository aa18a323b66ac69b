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
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// maxExcerptLen 限制错误信息中附带的现场字节摘录长度。
const maxExcerptLen = 256

// Code 返回给定错误对应的错误码。
func Code(err error) int32 {
	if err == nil {
		return 0
	}

	cause := errors.Cause(err)
	switch specificErr := cause.(type) {
	case wireError:
		return specificErr.code()

	default:
		if errors.Is(specificErr, context.Canceled) {
			return CanceledCode
		} else if errors.Is(specificErr, context.DeadlineExceeded) {
			return TimeoutCode
		} else {
			return errUnexpected.code()
		}
	}
}

func IsRetryableErr(err error) bool {
	if err, ok := err.(wireError); ok {
		return err.retriable
	}

	return false
}

func IsCanceledOrTimeout(err error) bool {
	return errors.IsAny(err, context.Canceled, context.DeadlineExceeded)
}

// Excerpt 将检测点附近的字节裁剪为一段可引用的摘录（至多 maxExcerptLen 字节）。
func Excerpt(surrounding []byte) string {
	if len(surrounding) > maxExcerptLen {
		surrounding = surrounding[:maxExcerptLen]
	}
	return strconv.Quote(string(surrounding))
}

// Scalar decode 相关错误封装。
// offset 为检测到错误的字节偏移；surrounding 为现场字节（可为 nil）。

func WrapErrRangeViolation(v any, width string, offset int, msg ...string) error {
	err := wrapFields(ErrRangeViolation,
		value("value", v),
		value("width", width),
		value("offset", offset),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTypeMismatch(token string, want string, offset int, msg ...string) error {
	err := wrapFields(ErrTypeMismatch,
		value("token", token),
		value("want", want),
		value("offset", offset),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrTruncation(need, have int, offset int, msg ...string) error {
	err := wrapFields(ErrTruncation,
		value("need", need),
		value("have", have),
		value("offset", offset),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Structure 相关错误封装。

func WrapErrUnterminatedRecord(offset int, surrounding []byte, msg ...string) error {
	err := wrapFields(ErrUnterminatedRecord,
		value("offset", offset),
		value("near", Excerpt(surrounding)),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnknownTypeTag(tag string, offset int, msg ...string) error {
	err := wrapFields(ErrUnknownTypeTag,
		value("tag", tag),
		value("offset", offset),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnexpectedField(name string, offset int, msg ...string) error {
	err := wrapFields(ErrUnexpectedField,
		value("field", name),
		value("offset", offset),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Document framing 相关错误封装。

func WrapErrPayloadTooLarge(length int, limit int, msg ...string) error {
	err := wrapFields(ErrPayloadTooLarge,
		value("length", length),
		value("limit", limit),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrHeaderAcquireTimeout(offset int, msg ...string) error {
	err := wrapFields(ErrHeaderAcquireTimeout,
		value("offset", offset),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

// Buffer / codec 相关错误封装。

func WrapErrIoFailed(offset int, cause error, msg ...string) error {
	err := wrapFieldsWithDesc(ErrIoFailed, cause.Error(),
		value("offset", offset),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func WrapErrUnknownCompression(codec string, msg ...string) error {
	err := wrapFields(ErrUnknownCompression,
		value("codec", codec),
	)
	if len(msg) > 0 {
		err = errors.Wrap(err, strings.Join(msg, "->"))
	}
	return err
}

func wrapFields(err wireError, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.detail = err.msg
	return err
}

func wrapFieldsWithDesc(err wireError, desc string, fields ...errorField) error {
	for i := range fields {
		err.msg += fmt.Sprintf("[%s]", fields[i].String())
	}
	err.msg += ": " + desc
	err.detail = err.msg
	return err
}

type errorField interface {
	String() string
}

type valueField struct {
	name  string
	value any
}

func value(name string, value any) valueField {
	return valueField{
		name,
		value,
	}
}

func (f valueField) String() string {
	return fmt.Sprintf("%s=%v", f.name, f.value)
}
