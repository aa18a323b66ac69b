package wire

import (
	"encoding/base64"
	"math"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// any-object 读取：把下一个值读成其最自然的内存表示。
//
// 标量映射到 Go 内建类型（整数归一到 int64，放不下时 uint64），
// 序列映射到 []any，记录映射到 map[string]any，空哨兵映射到 nil。
// 带类型标签的值先查类工厂，命中则实例化并原位填充。

func readAnyText(in *textValueIn) (any, error) {
	in.skipPadding()
	c, ok := in.peek()
	if !ok {
		return nil, nil
	}
	switch c {
	case '!':
		return readAnyTextTagged(in)
	case '{':
		return readAnyRecord(in)
	case '[':
		return readAnySequence(in)
	case '"', '\'':
		return in.Text()
	}
	token, err := in.readQuotableToken()
	if err != nil {
		return nil, err
	}
	return classifyToken(token), nil
}

func readAnyTextTagged(in *textValueIn) (any, error) {
	buf := in.w.buf
	pos := buf.ReadPosition()
	if null, err := in.IsNull(); err != nil {
		return nil, err
	} else if null {
		return nil, nil
	}
	if raw, err := buf.Slice(pos, len("!type ")); err == nil && string(raw) == "!type " {
		return in.TypeLiteral()
	}
	// 引用单元的定宽槽位以空格填充，先于 TypePrefix 识别，
	// 避免标签后的空格吞掉槽位前导。
	if raw, err := buf.Slice(pos, len("!int64array [ ")); err == nil && string(raw) == "!int64array [ " {
		return in.Int64ArrayRef()
	}
	if raw, err := buf.Slice(pos, len("!int64 ")); err == nil && string(raw) == "!int64 " {
		return in.Int64Ref()
	}
	if raw, err := buf.Slice(pos, len("!int32 ")); err == nil && string(raw) == "!int32 " {
		return in.Int32Ref()
	}
	tag, ok, err := in.TypePrefix()
	if err != nil {
		return nil, err
	}
	if !ok {
		// 单独的 `!` 不是合法标签。
		return nil, werr.WrapErrUnknownTypeTag("!", pos)
	}
	return readAnyTagged(in, tag, pos)
}

// readAnyTagged 在类型标签已被消费后读取其载荷。
func readAnyTagged(in ValueIn, tag string, pos int) (any, error) {
	if fac, ok := lookupClass(tag); ok {
		obj := fac()
		if err := readObject(in, obj); err != nil {
			return nil, err
		}
		return obj, nil
	}
	switch tag {
	case "binary", "byte[]":
		return readTaggedBase64(in, "", pos)
	case "error":
		var e error
		var message string
		err := in.Record(func(r WireIn) error {
			m, err := r.Read("message").Text()
			if err != nil {
				return err
			}
			message = m
			return nil
		})
		if err != nil {
			return nil, err
		}
		e = errors.New(message)
		return e, nil
	}
	if _, found := LookupCodec(tag); found {
		return readTaggedBase64(in, tag, pos)
	}
	// 未注册的标签：丢弃标签，返回载荷本身。
	return in.ObjectAny()
}

func readTaggedBase64(in ValueIn, codec string, pos int) ([]byte, error) {
	token, err := in.Text()
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, werr.WrapErrTypeMismatch(token, "base64", pos)
	}
	if codec == "" {
		return decoded, nil
	}
	return decompressWith(codec, decoded)
}

func readAnyRecord(in ValueIn) (map[string]any, error) {
	m := map[string]any{}
	err := in.Record(func(r WireIn) error {
		for r.GetValueIn().HasNext() {
			name, ev, err := r.ReadEvent()
			if err != nil {
				return err
			}
			v, err := ev.ObjectAny()
			if err != nil {
				return err
			}
			m[name] = v
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return m, nil
}

func readAnySequence(in ValueIn) ([]any, error) {
	var items []any
	err := in.Sequence(func(item ValueIn) error {
		for item.HasNext() {
			v, err := item.ObjectAny()
			if err != nil {
				return err
			}
			items = append(items, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// classifyToken 按 整数 → 浮点 → 时刻 → 日期 → 带时区时刻 → 字符串
// 的顺序归类裸 token。
func classifyToken(token string) any {
	switch strings.ToLower(token) {
	case "true":
		return true
	case "false":
		return false
	}
	kind, iv, uv, fv := parseNumberToken(token)
	switch kind {
	case numberInt:
		return iv
	case numberUint:
		if uv > math.MaxInt64 {
			return uv
		}
		return int64(uv)
	case numberFloat:
		return fv
	}
	if t, err := ParseLocalTime(token); err == nil {
		return t
	}
	if d, err := ParseLocalDate(token); err == nil {
		return d
	}
	if dt, err := ParseLocalDateTime(token); err == nil {
		return dt
	}
	if z, err := ParseZoned(token); err == nil {
		return z
	}
	return token
}

func readAnyBinary(in *binaryValueIn) (any, error) {
	in.skipPadding()
	code, ok := in.peekCode()
	if !ok {
		return nil, nil
	}
	switch {
	case code == codeNull:
		in.advance(1)
		return nil, nil
	case code == codeTrue, code == codeFalse:
		return in.Bool()
	case code == codeUint64:
		return in.Uint64()
	case isIntCode(code):
		return in.Int64()
	case isFloatCode(code):
		return in.Float64()
	case isStringCode(code):
		return in.Text()
	case code == codeBytes, code == codeCompressed:
		return in.Bytes()
	case code == codeTime:
		return in.Time()
	case code == codeDate:
		return in.Date()
	case code == codeDateTime:
		return in.DateTime()
	case code == codeZoned:
		return in.ZonedDateTime()
	case code == codeUUID:
		return in.UUID()
	case code == codeTypeLiteral:
		return in.TypeLiteral()
	case code == codeTypePrefix:
		pos := in.w.buf.ReadPosition()
		tag, ok, err := in.TypePrefix()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, werr.WrapErrUnknownTypeTag("type-prefix", pos)
		}
		return readAnyBinaryTagged(in, tag, pos)
	case code == codeExt:
		return readAnyBinaryExt(in)
	}
	return nil, werr.WrapErrTypeMismatch(codeName(code), "value", in.w.buf.ReadPosition())
}

// readAnyBinaryTagged 同 readAnyTagged，但 base64 包装在二进制编码中不存在，
// 压缩与字节载荷走原生码。
func readAnyBinaryTagged(in *binaryValueIn, tag string, pos int) (any, error) {
	if fac, ok := lookupClass(tag); ok {
		obj := fac()
		if err := readObject(in, obj); err != nil {
			return nil, err
		}
		return obj, nil
	}
	switch tag {
	case "binary", "byte[]":
		return in.Bytes()
	case "error":
		return readAnyTagged(in, "error", pos)
	}
	return readAnyBinary(in)
}

func readAnyBinaryExt(in *binaryValueIn) (any, error) {
	buf := in.w.buf
	pos := buf.ReadPosition()
	ext, err := buf.At(pos + 1)
	if err != nil {
		return nil, werr.WrapErrTruncation(2, buf.ReadRemaining(), pos)
	}
	switch ext {
	case extSequenceStart:
		return readAnySequence(in)
	case extRecord:
		return readAnyRecord(in)
	case extInt32Ref:
		return in.Int32Ref()
	case extInt64Ref:
		return in.Int64Ref()
	case extInt64ArrayRef:
		return in.Int64ArrayRef()
	}
	return nil, werr.WrapErrTypeMismatch(codeName(codeExt), "value", pos)
}
