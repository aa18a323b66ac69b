package wire

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// 二进制读取侧：按前导码解码。
//
// 填充码与注释码对读取方透明；按名读取的乱序匹配策略与文本编码一致。

func (w *BinaryWire) resetReadState() {
	w.in.reset()
}

func (in *binaryValueIn) reset() {
	in.saved = make(map[string]int)
}

// ReadDocument 绑定下一条已完成文档并按 META/DATA 分发；
// raw 变体把整个缓冲区当作一条裸载荷。
func (w *BinaryWire) ReadDocument(metaData func(r WireIn) error, data func(r WireIn) error) (bool, error) {
	if w.raw {
		if w.buf.ReadRemaining() == 0 {
			return false, nil
		}
		w.resetReadState()
		if data == nil {
			return true, nil
		}
		return true, data(w)
	}
	var ctx readContext
	ok, err := ctx.bind(w.buf, w.Type().String())
	if err != nil || !ok {
		return ok, err
	}
	defer ctx.close()
	w.resetReadState()
	if ctx.metaData {
		if metaData == nil {
			return true, nil
		}
		return true, metaData(w)
	}
	if data == nil {
		return true, nil
	}
	return true, data(w)
}

// Read 按名定位字段并返回其值读取器。
//
// field-less 变体没有字段名码，按调用顺序返回当前位置的值。
func (w *BinaryWire) Read(name string) ValueIn {
	in := &w.in
	if w.opts.FieldLess {
		return in
	}
	if pos, ok := in.saved[name]; ok {
		delete(in.saved, name)
		_ = w.buf.SetReadPosition(pos)
		return in
	}
	for {
		in.skipPadding()
		code, ok := in.peekCode()
		if !ok || !isFieldCode(code) {
			break
		}
		fieldName, err := in.readFieldName()
		if err != nil {
			break
		}
		valuePos := w.buf.ReadPosition()
		if fieldName == name {
			return in
		}
		in.saved[fieldName] = valuePos
		if err := in.Skip(); err != nil {
			break
		}
	}
	if pos, ok := in.saved[name]; ok {
		delete(in.saved, name)
		_ = w.buf.SetReadPosition(pos)
		return in
	}
	return missingValueIn{}
}

// ReadEvent 读取下一个字段名与其值读取器。
func (w *BinaryWire) ReadEvent() (string, ValueIn, error) {
	in := &w.in
	in.skipPadding()
	if w.opts.FieldLess {
		return "", in, nil
	}
	name, err := in.readFieldName()
	if err != nil {
		return "", nil, err
	}
	return name, in, nil
}

// GetValueIn 返回不带字段名的值读取器。
func (w *BinaryWire) GetValueIn() ValueIn { return &w.in }

// CopyOne 将当前值翻译到另一个写出面。
func (w *BinaryWire) CopyOne(out WireOut) error {
	return copyValue(&w.in, out.GetValueOut())
}

// binaryValueIn 是 BinaryWire 的 ValueIn 实现。
type binaryValueIn struct {
	w     *BinaryWire
	saved map[string]int
}

var _ ValueIn = (*binaryValueIn)(nil)

func (in *binaryValueIn) peekCode() (byte, bool) {
	buf := in.w.buf
	if buf.ReadPosition() >= buf.ReadLimit() {
		return 0, false
	}
	c, err := buf.PeekByte()
	if err != nil {
		return 0, false
	}
	return c, true
}

func (in *binaryValueIn) advance(n int) {
	buf := in.w.buf
	_ = buf.SetReadPosition(buf.ReadPosition() + n)
}

// skipPadding 跳过填充码与注释码。
func (in *binaryValueIn) skipPadding() {
	for {
		code, ok := in.peekCode()
		if !ok {
			return
		}
		switch code {
		case codePadding:
			in.advance(1)
		case codeComment:
			in.advance(1)
			_, _ = in.readStringPayload()
		default:
			return
		}
	}
}

func (in *binaryValueIn) readCode() (byte, error) {
	pos := in.w.buf.ReadPosition()
	c, err := in.w.buf.ReadByte()
	if err != nil {
		return 0, werr.WrapErrTruncation(1, 0, pos)
	}
	return c, nil
}

func (in *binaryValueIn) readUvarint() (uint64, error) {
	buf := in.w.buf
	pos := buf.ReadPosition()
	var v uint64
	var shift uint
	for {
		c, err := buf.ReadByte()
		if err != nil {
			return 0, werr.WrapErrTruncation(1, 0, pos)
		}
		v |= uint64(c&0x7F) << shift
		if c < 0x80 {
			return v, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, werr.WrapErrTypeMismatch("uvarint", "uvarint", pos)
		}
	}
}

// uvarintAt 在偏移 off 处解码 uvarint，不前进游标。
func (in *binaryValueIn) uvarintAt(off int) (uint64, int, error) {
	buf := in.w.buf
	var v uint64
	var shift uint
	n := 0
	for {
		c, err := buf.At(off + n)
		if err != nil {
			return 0, 0, werr.WrapErrTruncation(1, 0, off)
		}
		n++
		v |= uint64(c&0x7F) << shift
		if c < 0x80 {
			return v, n, nil
		}
		shift += 7
		if shift >= 64 {
			return 0, 0, werr.WrapErrTypeMismatch("uvarint", "uvarint", off)
		}
	}
}

// readStringPayload 在游标处读出一个字符串值。
func (in *binaryValueIn) readStringPayload() (string, error) {
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return "", err
	}
	if !isStringCode(code) {
		_ = in.w.buf.SetReadPosition(pos)
		return "", werr.WrapErrTypeMismatch(codeName(code), "string", pos)
	}
	var n int
	if code == codeStringLong {
		v, err := in.readUvarint()
		if err != nil {
			return "", err
		}
		n = int(v)
	} else {
		n = int(code & codeStringMask)
	}
	raw, err := in.w.buf.ReadBytes(n)
	if err != nil {
		_ = in.w.buf.SetReadPosition(pos)
		return "", werr.WrapErrTruncation(n, in.w.buf.ReadRemaining(), pos)
	}
	return string(raw), nil
}

func (in *binaryValueIn) readFieldName() (string, error) {
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return "", err
	}
	if !isFieldCode(code) {
		_ = in.w.buf.SetReadPosition(pos)
		return "", werr.WrapErrUnexpectedField(codeName(code), pos)
	}
	var n int
	if code == codeFieldLong {
		v, err := in.readUvarint()
		if err != nil {
			return "", err
		}
		n = int(v)
	} else {
		n = int(code & codeFieldMask)
	}
	raw, err := in.w.buf.ReadBytes(n)
	if err != nil {
		_ = in.w.buf.SetReadPosition(pos)
		return "", werr.WrapErrTruncation(n, in.w.buf.ReadRemaining(), pos)
	}
	return string(raw), nil
}

// decodeInt 解出一个整数值；ok 为 false 表示该码不是整数。
func (in *binaryValueIn) decodeInt(code byte) (int64, uint64, bool, error) {
	buf := in.w.buf
	switch {
	case isSmallInt(code):
		return int64(code), uint64(code), true, nil
	case code == codeInt8:
		c, err := buf.ReadByte()
		if err != nil {
			return 0, 0, false, err
		}
		v := int64(int8(c))
		return v, uint64(v), true, nil
	case code == codeInt16:
		u, err := buf.ReadUint16LE()
		if err != nil {
			return 0, 0, false, err
		}
		v := int64(int16(u))
		return v, uint64(v), true, nil
	case code == codeInt32:
		u, err := buf.ReadUint32LE()
		if err != nil {
			return 0, 0, false, err
		}
		v := int64(int32(u))
		return v, uint64(v), true, nil
	case code == codeInt64:
		u, err := buf.ReadUint64LE()
		if err != nil {
			return 0, 0, false, err
		}
		return int64(u), u, true, nil
	case code == codeUint64:
		u, err := buf.ReadUint64LE()
		if err != nil {
			return 0, 0, false, err
		}
		return int64(u), u, true, nil
	}
	return 0, 0, false, nil
}

// pullInt 拉取有符号整数并做范围校验；失败时游标回退。
func (in *binaryValueIn) pullInt(min, max int64, width string) (int64, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return 0, err
	}
	iv, uv, ok, err := in.decodeInt(code)
	if err != nil {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrTruncation(1, 0, pos)
	}
	if !ok {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrTypeMismatch(codeName(code), width, pos)
	}
	if code == codeUint64 && uv > math.MaxInt64 {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrRangeViolation(uv, width, pos)
	}
	if iv < min || iv > max {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrRangeViolation(iv, width, pos)
	}
	return iv, nil
}

func (in *binaryValueIn) pullUint(max uint64, width string) (uint64, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return 0, err
	}
	iv, uv, ok, err := in.decodeInt(code)
	if err != nil {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrTruncation(1, 0, pos)
	}
	if !ok {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrTypeMismatch(codeName(code), width, pos)
	}
	if code != codeUint64 && iv < 0 {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrRangeViolation(iv, width, pos)
	}
	if uv > max {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrRangeViolation(uv, width, pos)
	}
	return uv, nil
}

func (in *binaryValueIn) Bool() (bool, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return false, err
	}
	switch code {
	case codeTrue:
		return true, nil
	case codeFalse:
		return false, nil
	}
	_ = in.w.buf.SetReadPosition(pos)
	return false, werr.WrapErrTypeMismatch(codeName(code), "bool", pos)
}

func (in *binaryValueIn) Int8() (int8, error) {
	v, err := in.pullInt(math.MinInt8, math.MaxInt8, "int8")
	return int8(v), err
}

func (in *binaryValueIn) Uint8() (uint8, error) {
	v, err := in.pullUint(math.MaxUint8, "uint8")
	return uint8(v), err
}

func (in *binaryValueIn) Int16() (int16, error) {
	v, err := in.pullInt(math.MinInt16, math.MaxInt16, "int16")
	return int16(v), err
}

func (in *binaryValueIn) Uint16() (uint16, error) {
	v, err := in.pullUint(math.MaxUint16, "uint16")
	return uint16(v), err
}

func (in *binaryValueIn) Int32() (int32, error) {
	v, err := in.pullInt(math.MinInt32, math.MaxInt32, "int32")
	return int32(v), err
}

func (in *binaryValueIn) Uint32() (uint32, error) {
	v, err := in.pullUint(math.MaxUint32, "uint32")
	return uint32(v), err
}

func (in *binaryValueIn) Int64() (int64, error) {
	return in.pullInt(math.MinInt64, math.MaxInt64, "int64")
}

func (in *binaryValueIn) Uint64() (uint64, error) {
	return in.pullUint(math.MaxUint64, "uint64")
}

func (in *binaryValueIn) Float32() (float32, error) {
	v, err := in.Float64()
	return float32(v), err
}

func (in *binaryValueIn) Float64() (float64, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return 0, err
	}
	switch code {
	case codeFloat32:
		u, err := in.w.buf.ReadUint32LE()
		if err != nil {
			_ = in.w.buf.SetReadPosition(pos)
			return 0, werr.WrapErrTruncation(4, in.w.buf.ReadRemaining(), pos)
		}
		return float64(math.Float32frombits(u)), nil
	case codeFloat64:
		u, err := in.w.buf.ReadUint64LE()
		if err != nil {
			_ = in.w.buf.SetReadPosition(pos)
			return 0, werr.WrapErrTruncation(8, in.w.buf.ReadRemaining(), pos)
		}
		return math.Float64frombits(u), nil
	}
	// 整数码也可按浮点拉取。
	iv, _, ok, derr := in.decodeInt(code)
	if derr == nil && ok {
		return float64(iv), nil
	}
	_ = in.w.buf.SetReadPosition(pos)
	return 0, werr.WrapErrTypeMismatch(codeName(code), "float64", pos)
}

func (in *binaryValueIn) Text() (string, error) {
	in.skipPadding()
	return in.readStringPayload()
}

func (in *binaryValueIn) Bytes() ([]byte, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, ok := in.peekCode()
	if !ok {
		return nil, werr.WrapErrTruncation(1, 0, pos)
	}
	switch {
	case code == codeBytes:
		in.advance(1)
		n, err := in.readUvarint()
		if err != nil {
			return nil, err
		}
		raw, err := in.w.buf.ReadBytes(int(n))
		if err != nil {
			_ = in.w.buf.SetReadPosition(pos)
			return nil, werr.WrapErrTruncation(int(n), in.w.buf.ReadRemaining(), pos)
		}
		out := make([]byte, len(raw))
		copy(out, raw)
		return out, nil
	case code == codeCompressed:
		in.advance(1)
		codec, err := in.readStringPayload()
		if err != nil {
			return nil, err
		}
		n, err := in.readUvarint()
		if err != nil {
			return nil, err
		}
		raw, err := in.w.buf.ReadBytes(int(n))
		if err != nil {
			_ = in.w.buf.SetReadPosition(pos)
			return nil, werr.WrapErrTruncation(int(n), in.w.buf.ReadRemaining(), pos)
		}
		return decompressWith(codec, raw)
	case isStringCode(code):
		s, err := in.readStringPayload()
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return nil, werr.WrapErrTypeMismatch(codeName(code), "bytes", pos)
}

func (in *binaryValueIn) fixedScalar(want byte, name string, n int) ([]byte, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return nil, err
	}
	if code != want {
		_ = in.w.buf.SetReadPosition(pos)
		return nil, werr.WrapErrTypeMismatch(codeName(code), name, pos)
	}
	raw, err := in.w.buf.ReadBytes(n)
	if err != nil {
		_ = in.w.buf.SetReadPosition(pos)
		return nil, werr.WrapErrTruncation(n, in.w.buf.ReadRemaining(), pos)
	}
	return raw, nil
}

func (in *binaryValueIn) Time() (LocalTime, error) {
	raw, err := in.fixedScalar(codeTime, "local-time", 8)
	if err != nil {
		return LocalTime{}, err
	}
	return LocalTimeOfNanos(int64(binary.LittleEndian.Uint64(raw))), nil
}

func (in *binaryValueIn) Date() (LocalDate, error) {
	raw, err := in.fixedScalar(codeDate, "local-date", 8)
	if err != nil {
		return LocalDate{}, err
	}
	return LocalDateOfEpochDay(int64(binary.LittleEndian.Uint64(raw))), nil
}

func (in *binaryValueIn) DateTime() (LocalDateTime, error) {
	raw, err := in.fixedScalar(codeDateTime, "local-date-time", 16)
	if err != nil {
		return LocalDateTime{}, err
	}
	return LocalDateTime{
		Date: LocalDateOfEpochDay(int64(binary.LittleEndian.Uint64(raw))),
		Time: LocalTimeOfNanos(int64(binary.LittleEndian.Uint64(raw[8:]))),
	}, nil
}

func (in *binaryValueIn) ZonedDateTime() (time.Time, error) {
	raw, err := in.fixedScalar(codeZoned, "zoned-date-time", 8)
	if err != nil {
		return time.Time{}, err
	}
	nanos := int64(binary.LittleEndian.Uint64(raw))
	zone, err := in.readStringPayload()
	if err != nil {
		return time.Time{}, err
	}
	loc, lerr := time.LoadLocation(zone)
	if lerr != nil {
		loc = time.UTC
	}
	return time.Unix(0, nanos).In(loc), nil
}

func (in *binaryValueIn) UUID() (uuid.UUID, error) {
	raw, err := in.fixedScalar(codeUUID, "uuid", 16)
	if err != nil {
		return uuid.UUID{}, err
	}
	var u uuid.UUID
	copy(u[:], raw)
	return u, nil
}

func (in *binaryValueIn) TypeLiteral() (TypeName, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return "", err
	}
	if code != codeTypeLiteral {
		_ = in.w.buf.SetReadPosition(pos)
		return "", werr.WrapErrTypeMismatch(codeName(code), "type-literal", pos)
	}
	tag, err := in.readStringPayload()
	if err != nil {
		return "", err
	}
	full, _ := in.w.opts.Aliases.Resolve(tag)
	return TypeName(full), nil
}

func (in *binaryValueIn) TypePrefix() (string, bool, error) {
	in.skipPadding()
	code, ok := in.peekCode()
	if !ok || code != codeTypePrefix {
		return "", false, nil
	}
	in.advance(1)
	tag, err := in.readStringPayload()
	if err != nil {
		return "", false, err
	}
	full, _ := in.w.opts.Aliases.Resolve(tag)
	return full, true, nil
}

func (in *binaryValueIn) IsNull() (bool, error) {
	in.skipPadding()
	code, ok := in.peekCode()
	if !ok || code != codeNull {
		return false, nil
	}
	in.advance(1)
	return true, nil
}

func (in *binaryValueIn) Present() bool { return true }

// HasNext 报告当前作用域内是否还有条目。
func (in *binaryValueIn) HasNext() bool {
	in.skipPadding()
	buf := in.w.buf
	if buf.ReadPosition() >= buf.ReadLimit() {
		return false
	}
	code, ok := in.peekCode()
	if !ok {
		return false
	}
	if code == codeExt {
		next, err := buf.At(buf.ReadPosition() + 1)
		if err == nil && next == extSequenceEnd {
			return false
		}
	}
	return true
}

// measureValue 返回从 pos 起一个值的终点偏移，不前进游标。
func (in *binaryValueIn) measureValue(pos int) (int, error) {
	buf := in.w.buf
	limit := buf.ReadLimit()
	for pos < limit {
		code, err := buf.At(pos)
		if err != nil {
			return 0, werr.WrapErrTruncation(1, 0, pos)
		}
		switch {
		case code == codePadding:
			pos++
			continue
		case code == codeComment:
			end, err := in.measureString(pos + 1)
			if err != nil {
				return 0, err
			}
			pos = end
			continue
		case code == codeTypePrefix:
			end, err := in.measureString(pos + 1)
			if err != nil {
				return 0, err
			}
			return in.measureValue(end)
		case isSmallInt(code), code == codeNull, code == codeTrue, code == codeFalse:
			return pos + 1, nil
		case isStringCode(code):
			return in.measureString(pos)
		case isFieldCode(code):
			return 0, werr.WrapErrUnexpectedField(codeName(code), pos)
		case code == codeTypeLiteral:
			return in.measureString(pos + 1)
		case code == codeCompressed:
			end, err := in.measureString(pos + 1)
			if err != nil {
				return 0, err
			}
			n, sz, err := in.uvarintAt(end)
			if err != nil {
				return 0, err
			}
			return end + sz + int(n), nil
		case code == codeBytes:
			n, sz, err := in.uvarintAt(pos + 1)
			if err != nil {
				return 0, err
			}
			return pos + 1 + sz + int(n), nil
		case code == codeInt8:
			return pos + 2, nil
		case code == codeInt16:
			return pos + 3, nil
		case code == codeInt32, code == codeFloat32:
			return pos + 5, nil
		case code == codeInt64, code == codeUint64, code == codeFloat64,
			code == codeTime, code == codeDate:
			return pos + 9, nil
		case code == codeDateTime, code == codeUUID:
			return pos + 17, nil
		case code == codeZoned:
			return in.measureString(pos + 9)
		case code == codeExt:
			return in.measureExt(pos)
		default:
			return 0, werr.WrapErrTypeMismatch(codeName(code), "value", pos)
		}
	}
	return pos, nil
}

// measureString 测量 pos 处一个字符串值的终点。
func (in *binaryValueIn) measureString(pos int) (int, error) {
	buf := in.w.buf
	code, err := buf.At(pos)
	if err != nil {
		return 0, werr.WrapErrTruncation(1, 0, pos)
	}
	if !isStringCode(code) {
		return 0, werr.WrapErrTypeMismatch(codeName(code), "string", pos)
	}
	if code == codeStringLong {
		n, sz, err := in.uvarintAt(pos + 1)
		if err != nil {
			return 0, err
		}
		return pos + 1 + sz + int(n), nil
	}
	return pos + 1 + int(code&codeStringMask), nil
}

func (in *binaryValueIn) measureExt(pos int) (int, error) {
	buf := in.w.buf
	ext, err := buf.At(pos + 1)
	if err != nil {
		return 0, werr.WrapErrTruncation(2, 1, pos)
	}
	switch ext {
	case extRecord:
		n, err := buf.Uint32LEAt(pos + 2)
		if err != nil {
			return 0, werr.WrapErrTruncation(6, 2, pos)
		}
		return pos + 6 + int(n), nil
	case extSequenceStart:
		i := pos + 2
		for {
			code, err := buf.At(i)
			if err != nil {
				return 0, werr.WrapErrUnterminatedRecord(pos, in.excerptAt(pos))
			}
			if code == codeExt {
				next, err := buf.At(i + 1)
				if err != nil {
					return 0, werr.WrapErrUnterminatedRecord(pos, in.excerptAt(pos))
				}
				if next == extSequenceEnd {
					return i + 2, nil
				}
			}
			if isFieldCode(code) {
				// 序列里不应出现字段名；为健壮起见按字段名越过。
				end, merr := in.measureFieldName(i)
				if merr != nil {
					return 0, merr
				}
				i = end
				continue
			}
			end, err := in.measureValue(i)
			if err != nil {
				return 0, err
			}
			i = end
		}
	case extInt32Ref:
		return pos + 6, nil
	case extInt64Ref:
		return pos + 10, nil
	case extInt64ArrayRef:
		n, err := buf.Uint32LEAt(pos + 2)
		if err != nil {
			return 0, werr.WrapErrTruncation(6, 2, pos)
		}
		return pos + 6 + 8*int(n), nil
	default:
		return 0, werr.WrapErrTypeMismatch(codeName(codeExt), "ext", pos)
	}
}

func (in *binaryValueIn) measureFieldName(pos int) (int, error) {
	buf := in.w.buf
	code, err := buf.At(pos)
	if err != nil {
		return 0, werr.WrapErrTruncation(1, 0, pos)
	}
	if code == codeFieldLong {
		n, sz, err := in.uvarintAt(pos + 1)
		if err != nil {
			return 0, err
		}
		return pos + 1 + sz + int(n), nil
	}
	return pos + 1 + int(code&codeFieldMask), nil
}

func (in *binaryValueIn) excerptAt(pos int) []byte {
	buf := in.w.buf
	n := buf.ReadLimit() - pos
	if n > 64 {
		n = 64
	}
	if n <= 0 {
		return nil
	}
	raw, err := buf.Slice(pos, n)
	if err != nil {
		return nil
	}
	return raw
}

// ReadLength 返回下一个值占用的字节跨度，不前进游标。
func (in *binaryValueIn) ReadLength() (int, error) {
	pos := in.w.buf.ReadPosition()
	end, err := in.measureValue(pos)
	if err != nil {
		return 0, err
	}
	return end - pos, nil
}

// Skip 跳过下一个值。
func (in *binaryValueIn) Skip() error {
	end, err := in.measureValue(in.w.buf.ReadPosition())
	if err != nil {
		return err
	}
	return in.w.buf.SetReadPosition(end)
}

func (in *binaryValueIn) Sequence(read ReadValue) error {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return err
	}
	ext, err2 := in.readCode()
	if err2 != nil {
		return err2
	}
	if code != codeExt || ext != extSequenceStart {
		_ = in.w.buf.SetReadPosition(pos)
		return werr.WrapErrTypeMismatch(codeName(code), "sequence", pos)
	}
	if err := read(in); err != nil {
		return err
	}
	in.skipPadding()
	code, ok := in.peekCode()
	if !ok || code != codeExt {
		return werr.WrapErrUnterminatedRecord(pos, in.excerptAt(pos))
	}
	next, aerr := in.w.buf.At(in.w.buf.ReadPosition() + 1)
	if aerr != nil || next != extSequenceEnd {
		return werr.WrapErrUnterminatedRecord(pos, in.excerptAt(pos))
	}
	in.advance(2)
	return nil
}

// Record 进入记录作用域：读上限收紧到记录的测量长度，
// 退出时游标重新同步到记录末尾。
func (in *binaryValueIn) Record(read func(r WireIn) error) error {
	in.skipPadding()
	buf := in.w.buf
	pos := buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return err
	}
	ext, err2 := in.readCode()
	if err2 != nil {
		return err2
	}
	if code != codeExt || ext != extRecord {
		_ = buf.SetReadPosition(pos)
		return werr.WrapErrTypeMismatch(codeName(code), "record", pos)
	}
	n, err := buf.ReadUint32LE()
	if err != nil {
		_ = buf.SetReadPosition(pos)
		return werr.WrapErrTruncation(4, buf.ReadRemaining(), pos)
	}
	end := buf.ReadPosition() + int(n)
	if end > buf.ReadLimit() {
		_ = buf.SetReadPosition(pos)
		return werr.WrapErrTruncation(int(n), buf.ReadLimit()-buf.ReadPosition(), pos)
	}
	prevLimit := -1
	if buf.ReadLimitExplicit() {
		prevLimit = buf.ReadLimit()
	}
	buf.SetReadLimit(end)
	savedOuter := in.saved
	in.saved = make(map[string]int)
	readErr := read(in.w)
	in.saved = savedOuter
	buf.SetReadLimit(prevLimit)
	if err := buf.SetReadPosition(end); err != nil {
		return werr.WrapErrIoFailed(end, err)
	}
	return readErr
}

func (in *binaryValueIn) Marshallable(m Unmarshaler) error {
	return in.Record(m.ReadWire)
}

func (in *binaryValueIn) refHeader(wantExt byte, name string) (int, error) {
	in.skipPadding()
	buf := in.w.buf
	pos := buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return 0, err
	}
	ext, err2 := in.readCode()
	if err2 != nil {
		return 0, err2
	}
	if code != codeExt || ext != wantExt {
		_ = buf.SetReadPosition(pos)
		return 0, werr.WrapErrTypeMismatch(codeName(code), name, pos)
	}
	return buf.ReadPosition(), nil
}

func (in *binaryValueIn) Int32Ref() (*Int32Ref, error) {
	off, err := in.refHeader(extInt32Ref, "int32-ref")
	if err != nil {
		return nil, err
	}
	in.advance(4)
	return newBinaryInt32Ref(in.w.buf, off), nil
}

func (in *binaryValueIn) Int64Ref() (*Int64Ref, error) {
	off, err := in.refHeader(extInt64Ref, "int64-ref")
	if err != nil {
		return nil, err
	}
	in.advance(8)
	return newBinaryInt64Ref(in.w.buf, off), nil
}

func (in *binaryValueIn) Int64ArrayRef() (*Int64ArrayRef, error) {
	in.skipPadding()
	buf := in.w.buf
	pos := buf.ReadPosition()
	code, err := in.readCode()
	if err != nil {
		return nil, err
	}
	ext, err2 := in.readCode()
	if err2 != nil {
		return nil, err2
	}
	if code != codeExt || ext != extInt64ArrayRef {
		_ = buf.SetReadPosition(pos)
		return nil, werr.WrapErrTypeMismatch(codeName(code), "int64array-ref", pos)
	}
	n, err := buf.ReadUint32LE()
	if err != nil {
		_ = buf.SetReadPosition(pos)
		return nil, werr.WrapErrTruncation(4, buf.ReadRemaining(), pos)
	}
	off := buf.ReadPosition()
	in.advance(8 * int(n))
	return newBinaryInt64ArrayRef(buf, off, int(n)), nil
}

func (in *binaryValueIn) Object(dst any) error {
	return readObject(in, dst)
}

func (in *binaryValueIn) ObjectAny() (any, error) {
	return readAnyBinary(in)
}

// codeName 返回前导码的可读名，用于错误信息。
func codeName(code byte) string {
	switch {
	case isSmallInt(code):
		return "small-int"
	case isStringCode(code):
		return "string"
	case isFieldCode(code):
		return "field"
	}
	switch code {
	case codePadding:
		return "padding"
	case codeComment:
		return "comment"
	case codeTypePrefix:
		return "type-prefix"
	case codeTypeLiteral:
		return "type-literal"
	case codeCompressed:
		return "compressed"
	case codeNull:
		return "null"
	case codeFalse:
		return "false"
	case codeTrue:
		return "true"
	case codeTime:
		return "time"
	case codeDate:
		return "date"
	case codeDateTime:
		return "date-time"
	case codeZoned:
		return "zoned-date-time"
	case codeUUID:
		return "uuid"
	case codeBytes:
		return "bytes"
	case codeInt8:
		return "int8"
	case codeInt16:
		return "int16"
	case codeInt32:
		return "int32"
	case codeInt64:
		return "int64"
	case codeFloat32:
		return "float32"
	case codeFloat64:
		return "float64"
	case codeUint64:
		return "uint64"
	case codeExt:
		return "ext"
	}
	return "unknown"
}
