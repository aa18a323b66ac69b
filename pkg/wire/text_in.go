package wire

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// 文本读取侧：在读上限内做词法扫描。
//
// 读取策略：
//   - 逗号、换行与缩进一律当作条目间空白；注释跳到行尾；
//   - 按名读取未命中时向后扫描，沿途字段的值起点记入 savedFields，
//     扫描到作用域末尾后回查 savedFields（乱序匹配）；
//   - 标量拉取失败（range-violation / type-mismatch）时游标回退到拉取前。

func (w *TextWire) resetReadState() {
	w.in.reset()
}

func (in *textValueIn) reset() {
	in.saved = make(map[string]int)
}

// ReadDocument 绑定下一条已完成文档并按 META/DATA 分发。
// 退出时读游标越过整条文档，读上限恢复。
func (w *TextWire) ReadDocument(metaData func(r WireIn) error, data func(r WireIn) error) (bool, error) {
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
func (w *TextWire) Read(name string) ValueIn {
	in := &w.in
	if pos, ok := in.saved[name]; ok {
		delete(in.saved, name)
		_ = w.buf.SetReadPosition(pos)
		return in
	}
	for {
		in.skipPadding()
		c, ok := in.peek()
		if !ok || c == '}' || c == ']' {
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
func (w *TextWire) ReadEvent() (string, ValueIn, error) {
	in := &w.in
	in.skipPadding()
	name, err := in.readFieldName()
	if err != nil {
		return "", nil, err
	}
	return name, in, nil
}

// GetValueIn 返回不带字段名的值读取器。
func (w *TextWire) GetValueIn() ValueIn { return &w.in }

// CopyOne 将当前值翻译到另一个写出面。
func (w *TextWire) CopyOne(out WireOut) error {
	return copyValue(&w.in, out.GetValueOut())
}

// textValueIn 是 TextWire 的 ValueIn 实现。
type textValueIn struct {
	w     *TextWire
	saved map[string]int
}

var _ ValueIn = (*textValueIn)(nil)

func (in *textValueIn) peek() (byte, bool) {
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

func (in *textValueIn) advance(n int) {
	buf := in.w.buf
	_ = buf.SetReadPosition(buf.ReadPosition() + n)
}

// skipPadding 跳过空白、逗号与注释。
func (in *textValueIn) skipPadding() {
	for {
		c, ok := in.peek()
		if !ok {
			return
		}
		switch c {
		case ' ', '\t', '\r', '\n', ',':
			in.advance(1)
		case '#':
			for {
				c, ok := in.peek()
				if !ok || c == '\n' {
					break
				}
				in.advance(1)
			}
		default:
			return
		}
	}
}

func (in *textValueIn) excerptAt(pos int) []byte {
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

// readFieldName 读出 `name: ` 形式的字段名，游标停在值起点。
func (in *textValueIn) readFieldName() (string, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	name, err := in.readQuotableToken()
	if err != nil {
		return "", err
	}
	in.skipSpaces()
	c, ok := in.peek()
	if !ok || c != ':' {
		_ = in.w.buf.SetReadPosition(pos)
		return "", werr.WrapErrUnexpectedField(name, pos)
	}
	in.advance(1)
	in.skipSpaces()
	return name, nil
}

func (in *textValueIn) skipSpaces() {
	for {
		c, ok := in.peek()
		if !ok || (c != ' ' && c != '\t') {
			return
		}
		in.advance(1)
	}
}

func isBareTerminator(c byte) bool {
	switch c {
	case ',', '}', ']', '\n', '\r', '#', ':':
		return true
	}
	return false
}

// readBareToken 读出一个裸标量 token，去除尾随空白。
func (in *textValueIn) readBareToken() string {
	buf := in.w.buf
	start := buf.ReadPosition()
	end := start
	for end < buf.ReadLimit() {
		c, _ := buf.At(end)
		if isBareTerminator(c) {
			break
		}
		end++
	}
	raw, _ := buf.Slice(start, end-start)
	_ = buf.SetReadPosition(end)
	return strings.TrimRight(string(raw), " \t")
}

// readQuotableToken 读出一个可能带引号的 token 并解除引号与转义。
func (in *textValueIn) readQuotableToken() (string, error) {
	c, ok := in.peek()
	if !ok {
		return "", werr.WrapErrTruncation(1, 0, in.w.buf.ReadPosition())
	}
	if c == '"' || c == '\'' {
		return in.readQuoted(c)
	}
	return in.readBareToken(), nil
}

func (in *textValueIn) readQuoted(quote byte) (string, error) {
	buf := in.w.buf
	start := buf.ReadPosition()
	in.advance(1)
	var sb strings.Builder
	for {
		pos := buf.ReadPosition()
		if pos >= buf.ReadLimit() {
			return "", werr.WrapErrUnterminatedRecord(start, in.excerptAt(start))
		}
		c, _ := buf.At(pos)
		in.advance(1)
		switch {
		case c == quote && quote == '\'':
			// '' 转义界定符本身。
			next, ok := in.peek()
			if ok && next == '\'' {
				in.advance(1)
				sb.WriteByte('\'')
				continue
			}
			return sb.String(), nil
		case c == quote:
			return sb.String(), nil
		case c == '\\' && quote == '"':
			decoded, err := in.readEscape()
			if err != nil {
				return "", err
			}
			sb.WriteString(decoded)
		default:
			sb.WriteByte(c)
		}
	}
}

func (in *textValueIn) readEscape() (string, error) {
	buf := in.w.buf
	pos := buf.ReadPosition()
	c, err := buf.ReadByte()
	if err != nil {
		return "", werr.WrapErrTruncation(1, 0, pos)
	}
	switch c {
	case 'b':
		return "\b", nil
	case 'r':
		return "\r", nil
	case 'n':
		return "\n", nil
	case 't':
		return "\t", nil
	case '\\':
		return "\\", nil
	case '"':
		return "\"", nil
	case '\'':
		return "'", nil
	case '0':
		return "\x00", nil
	case 'x':
		raw, err := buf.ReadBytes(2)
		if err != nil {
			return "", werr.WrapErrTruncation(2, 0, pos)
		}
		v, err := strconv.ParseUint(string(raw), 16, 8)
		if err != nil {
			return "", werr.WrapErrTypeMismatch(string(raw), "hex-escape", pos)
		}
		return string([]byte{byte(v)}), nil
	case 'u':
		raw, err := buf.ReadBytes(4)
		if err != nil {
			return "", werr.WrapErrTruncation(4, 0, pos)
		}
		v, err := strconv.ParseUint(string(raw), 16, 32)
		if err != nil {
			return "", werr.WrapErrTypeMismatch(string(raw), "unicode-escape", pos)
		}
		return string(rune(v)), nil
	default:
		return string([]byte{c}), nil
	}
}

// measureValue 返回从 pos 起一个值（含前导空白）的字节跨度终点。
func (in *textValueIn) measureValue(pos int) (int, error) {
	buf := in.w.buf
	limit := buf.ReadLimit()
	for pos < limit {
		c, _ := buf.At(pos)
		if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
			pos++
			continue
		}
		break
	}
	if pos >= limit {
		return pos, nil
	}
	c, _ := buf.At(pos)
	switch {
	case c == '"' || c == '\'':
		return in.measureQuoted(pos, c)
	case c == '{' || c == '[':
		return in.measureComposite(pos)
	case c == '!':
		// 类型前缀：越过 `!tag ` 后测量其值。
		end := pos
		for end < limit {
			ch, _ := buf.At(end)
			if ch == ' ' || ch == '\n' {
				break
			}
			end++
		}
		return in.measureValue(end)
	default:
		end := pos
		for end < limit {
			ch, _ := buf.At(end)
			if isBareTerminator(ch) {
				break
			}
			end++
		}
		return end, nil
	}
}

func (in *textValueIn) measureQuoted(pos int, quote byte) (int, error) {
	buf := in.w.buf
	limit := buf.ReadLimit()
	i := pos + 1
	for i < limit {
		c, _ := buf.At(i)
		if c == '\\' && quote == '"' {
			i += 2
			continue
		}
		if c == quote {
			if quote == '\'' && i+1 < limit {
				next, _ := buf.At(i + 1)
				if next == '\'' {
					i += 2
					continue
				}
			}
			return i + 1, nil
		}
		i++
	}
	return 0, werr.WrapErrUnterminatedRecord(pos, in.excerptAt(pos))
}

func (in *textValueIn) measureComposite(pos int) (int, error) {
	buf := in.w.buf
	limit := buf.ReadLimit()
	depth := 0
	i := pos
	for i < limit {
		c, _ := buf.At(i)
		switch c {
		case '{', '[':
			depth++
			i++
		case '}', ']':
			depth--
			i++
			if depth == 0 {
				return i, nil
			}
		case '"', '\'':
			end, err := in.measureQuoted(i, c)
			if err != nil {
				return 0, err
			}
			i = end
		case '#':
			for i < limit {
				ch, _ := buf.At(i)
				if ch == '\n' {
					break
				}
				i++
			}
		default:
			i++
		}
	}
	return 0, werr.WrapErrUnterminatedRecord(pos, in.excerptAt(pos))
}

// ReadLength 返回下一个值占用的字节跨度，不前进游标。
func (in *textValueIn) ReadLength() (int, error) {
	pos := in.w.buf.ReadPosition()
	end, err := in.measureValue(pos)
	if err != nil {
		return 0, err
	}
	return end - pos, nil
}

// Skip 跳过下一个值。
func (in *textValueIn) Skip() error {
	end, err := in.measureValue(in.w.buf.ReadPosition())
	if err != nil {
		return err
	}
	return in.w.buf.SetReadPosition(end)
}

// 数值 token 解析：十进制、下划线分隔、0x 十六进制、浮点。

type numberKind int

const (
	numberInvalid numberKind = iota
	numberInt
	numberUint
	numberFloat
)

func parseNumberToken(token string) (numberKind, int64, uint64, float64) {
	t := strings.ReplaceAll(token, "_", "")
	if t == "" {
		return numberInvalid, 0, 0, 0
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		if v, err := strconv.ParseUint(t[2:], 16, 64); err == nil {
			return numberUint, int64(v), v, float64(v)
		}
		return numberInvalid, 0, 0, 0
	}
	if v, err := strconv.ParseInt(t, 10, 64); err == nil {
		return numberInt, v, uint64(v), float64(v)
	}
	if v, err := strconv.ParseUint(t, 10, 64); err == nil {
		return numberUint, int64(v), v, float64(v)
	}
	if v, err := strconv.ParseFloat(t, 64); err == nil {
		return numberFloat, int64(v), uint64(v), v
	}
	return numberInvalid, 0, 0, 0
}

// pullInt 拉取一个有符号整数并校验取值范围；失败时游标回退。
func (in *textValueIn) pullInt(min, max int64, width string) (int64, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	token, err := in.readQuotableToken()
	if err != nil {
		return 0, err
	}
	kind, iv, uv, _ := parseNumberToken(token)
	switch kind {
	case numberInt:
		if iv < min || iv > max {
			_ = in.w.buf.SetReadPosition(pos)
			return 0, werr.WrapErrRangeViolation(iv, width, pos)
		}
		return iv, nil
	case numberUint:
		if uv > uint64(max) {
			_ = in.w.buf.SetReadPosition(pos)
			return 0, werr.WrapErrRangeViolation(uv, width, pos)
		}
		return int64(uv), nil
	default:
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrTypeMismatch(token, width, pos)
	}
}

// pullUint 拉取一个无符号整数并校验取值范围；失败时游标回退。
func (in *textValueIn) pullUint(max uint64, width string) (uint64, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	token, err := in.readQuotableToken()
	if err != nil {
		return 0, err
	}
	kind, iv, uv, _ := parseNumberToken(token)
	switch kind {
	case numberInt:
		if iv < 0 || uint64(iv) > max {
			_ = in.w.buf.SetReadPosition(pos)
			return 0, werr.WrapErrRangeViolation(iv, width, pos)
		}
		return uint64(iv), nil
	case numberUint:
		if uv > max {
			_ = in.w.buf.SetReadPosition(pos)
			return 0, werr.WrapErrRangeViolation(uv, width, pos)
		}
		return uv, nil
	default:
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrTypeMismatch(token, width, pos)
	}
}

func (in *textValueIn) Bool() (bool, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	token, err := in.readQuotableToken()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(token) {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	_ = in.w.buf.SetReadPosition(pos)
	return false, werr.WrapErrTypeMismatch(token, "bool", pos)
}

func (in *textValueIn) Int8() (int8, error) {
	v, err := in.pullInt(-128, 127, "int8")
	return int8(v), err
}

func (in *textValueIn) Uint8() (uint8, error) {
	v, err := in.pullUint(255, "uint8")
	return uint8(v), err
}

func (in *textValueIn) Int16() (int16, error) {
	v, err := in.pullInt(-32768, 32767, "int16")
	return int16(v), err
}

func (in *textValueIn) Uint16() (uint16, error) {
	v, err := in.pullUint(65535, "uint16")
	return uint16(v), err
}

func (in *textValueIn) Int32() (int32, error) {
	v, err := in.pullInt(-2147483648, 2147483647, "int32")
	return int32(v), err
}

func (in *textValueIn) Uint32() (uint32, error) {
	v, err := in.pullUint(4294967295, "uint32")
	return uint32(v), err
}

func (in *textValueIn) Int64() (int64, error) {
	return in.pullInt(-9223372036854775808, 9223372036854775807, "int64")
}

func (in *textValueIn) Uint64() (uint64, error) {
	return in.pullUint(18446744073709551615, "uint64")
}

func (in *textValueIn) Float32() (float32, error) {
	v, err := in.Float64()
	return float32(v), err
}

func (in *textValueIn) Float64() (float64, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	token, err := in.readQuotableToken()
	if err != nil {
		return 0, err
	}
	kind, _, _, fv := parseNumberToken(token)
	if kind == numberInvalid {
		_ = in.w.buf.SetReadPosition(pos)
		return 0, werr.WrapErrTypeMismatch(token, "float64", pos)
	}
	return fv, nil
}

func (in *textValueIn) Text() (string, error) {
	in.skipPadding()
	return in.readQuotableToken()
}

func (in *textValueIn) Bytes() ([]byte, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	tag, ok, err := in.TypePrefix()
	if err != nil {
		return nil, err
	}
	token, err := in.readQuotableToken()
	if err != nil {
		return nil, err
	}
	if !ok {
		return []byte(token), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, werr.WrapErrTypeMismatch(token, "base64", pos)
	}
	switch tag {
	case "binary", "byte[]":
		return decoded, nil
	default:
		if _, found := LookupCodec(tag); found {
			return decompressWith(tag, decoded)
		}
		return nil, werr.WrapErrUnknownTypeTag(tag, pos)
	}
}

func (in *textValueIn) textScalar(want string, parse func(string) error) error {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	token, err := in.readQuotableToken()
	if err != nil {
		return err
	}
	if err := parse(token); err != nil {
		_ = in.w.buf.SetReadPosition(pos)
		return werr.WrapErrTypeMismatch(token, want, pos)
	}
	return nil
}

func (in *textValueIn) Time() (LocalTime, error) {
	var out LocalTime
	err := in.textScalar("local-time", func(token string) error {
		v, err := ParseLocalTime(token)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (in *textValueIn) Date() (LocalDate, error) {
	var out LocalDate
	err := in.textScalar("local-date", func(token string) error {
		v, err := ParseLocalDate(token)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (in *textValueIn) DateTime() (LocalDateTime, error) {
	var out LocalDateTime
	err := in.textScalar("local-date-time", func(token string) error {
		v, err := ParseLocalDateTime(token)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (in *textValueIn) ZonedDateTime() (time.Time, error) {
	var out time.Time
	err := in.textScalar("zoned-date-time", func(token string) error {
		v, err := ParseZoned(token)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (in *textValueIn) UUID() (uuid.UUID, error) {
	var out uuid.UUID
	err := in.textScalar("uuid", func(token string) error {
		v, err := uuid.Parse(token)
		if err != nil {
			return err
		}
		out = v
		return nil
	})
	return out, err
}

func (in *textValueIn) TypeLiteral() (TypeName, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	if !in.consumeLiteral("!type ") {
		return "", werr.WrapErrTypeMismatch(string(in.excerptAt(pos)), "!type", pos)
	}
	in.skipSpaces()
	token, err := in.readQuotableToken()
	if err != nil {
		return "", err
	}
	full, _ := in.w.opts.Aliases.Resolve(token)
	return TypeName(full), nil
}

// consumeLiteral 在游标处精确匹配 lit 时消费它。
func (in *textValueIn) consumeLiteral(lit string) bool {
	buf := in.w.buf
	pos := buf.ReadPosition()
	if pos+len(lit) > buf.ReadLimit() {
		return false
	}
	raw, err := buf.Slice(pos, len(lit))
	if err != nil || string(raw) != lit {
		return false
	}
	in.advance(len(lit))
	return true
}

// TypePrefix 在下一个值带 `!Tag ` 前缀时消费并返回解析后的标签。
// `!!null` 与 `!type` 不算类型前缀。
func (in *textValueIn) TypePrefix() (string, bool, error) {
	in.skipPadding()
	buf := in.w.buf
	pos := buf.ReadPosition()
	c, ok := in.peek()
	if !ok || c != '!' {
		return "", false, nil
	}
	next, err := buf.At(pos + 1)
	if err == nil && next == '!' {
		return "", false, nil
	}
	// 预读标签，`!type` 保留给类型字面量。
	end := pos + 1
	for end < buf.ReadLimit() {
		ch, _ := buf.At(end)
		if ch == ' ' || ch == '\n' || isBareTerminator(ch) {
			break
		}
		end++
	}
	tag := ""
	if raw, err := buf.Slice(pos+1, end-pos-1); err == nil {
		tag = string(raw)
	}
	if tag == "type" || tag == "" {
		return "", false, nil
	}
	_ = buf.SetReadPosition(end)
	in.skipSpaces()
	full, _ := in.w.opts.Aliases.Resolve(tag)
	return full, true, nil
}

// IsNull 在下一个值为 `!!null ""` 时消费它并返回 true。
func (in *textValueIn) IsNull() (bool, error) {
	in.skipPadding()
	if !in.consumeLiteral("!!null") {
		return false, nil
	}
	in.skipSpaces()
	_ = in.consumeLiteral(`""`)
	return true, nil
}

func (in *textValueIn) Present() bool { return true }

// HasNext 报告当前作用域内是否还有条目。
func (in *textValueIn) HasNext() bool {
	in.skipPadding()
	c, ok := in.peek()
	if !ok {
		return false
	}
	return c != ']' && c != '}'
}

func (in *textValueIn) Sequence(read ReadValue) error {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	c, ok := in.peek()
	if !ok || c != '[' {
		return werr.WrapErrTypeMismatch(string(in.excerptAt(pos)), "sequence", pos)
	}
	in.advance(1)
	if err := read(in); err != nil {
		return err
	}
	in.skipPadding()
	c, ok = in.peek()
	if !ok || c != ']' {
		return werr.WrapErrUnterminatedRecord(pos, in.excerptAt(pos))
	}
	in.advance(1)
	return nil
}

func (in *textValueIn) Record(read func(r WireIn) error) error {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	c, ok := in.peek()
	if !ok || c != '{' {
		return werr.WrapErrTypeMismatch(string(in.excerptAt(pos)), "record", pos)
	}
	end, err := in.measureComposite(pos)
	if err != nil {
		return err
	}
	in.advance(1)
	buf := in.w.buf
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
	// 无论里层消费了多少，游标都重新同步到记录末尾。
	if err := in.w.buf.SetReadPosition(end); err != nil {
		return werr.WrapErrIoFailed(end, err)
	}
	return readErr
}

func (in *textValueIn) Marshallable(m Unmarshaler) error {
	return in.Record(m.ReadWire)
}

func (in *textValueIn) Int32Ref() (*Int32Ref, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	if !in.consumeLiteral("!int32 ") {
		return nil, werr.WrapErrTypeMismatch(string(in.excerptAt(pos)), "!int32", pos)
	}
	off := in.w.buf.ReadPosition()
	in.advance(int32RefWidth)
	return newTextInt32Ref(in.w.buf, off), nil
}

func (in *textValueIn) Int64Ref() (*Int64Ref, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	if !in.consumeLiteral("!int64 ") {
		return nil, werr.WrapErrTypeMismatch(string(in.excerptAt(pos)), "!int64", pos)
	}
	off := in.w.buf.ReadPosition()
	in.advance(int64RefWidth)
	return newTextInt64Ref(in.w.buf, off), nil
}

func (in *textValueIn) Int64ArrayRef() (*Int64ArrayRef, error) {
	in.skipPadding()
	pos := in.w.buf.ReadPosition()
	if !in.consumeLiteral("!int64array [ ") {
		return nil, werr.WrapErrTypeMismatch(string(in.excerptAt(pos)), "!int64array", pos)
	}
	off := in.w.buf.ReadPosition()
	end, err := in.measureComposite(pos)
	if err != nil {
		return nil, err
	}
	capacity := (end - off) / textArraySlotStride
	_ = in.w.buf.SetReadPosition(end)
	return newTextInt64ArrayRef(in.w.buf, off, capacity), nil
}

func (in *textValueIn) Object(dst any) error {
	return readObject(in, dst)
}

func (in *textValueIn) ObjectAny() (any, error) {
	return readAnyText(in)
}

// missingValueIn 是按名读取未命中时的占位读取器：
// Present 为 false，各拉取返回零值。
type missingValueIn struct{}

var _ ValueIn = missingValueIn{}

func (missingValueIn) Bool() (bool, error)                    { return false, nil }
func (missingValueIn) Int8() (int8, error)                    { return 0, nil }
func (missingValueIn) Uint8() (uint8, error)                  { return 0, nil }
func (missingValueIn) Int16() (int16, error)                  { return 0, nil }
func (missingValueIn) Uint16() (uint16, error)                { return 0, nil }
func (missingValueIn) Int32() (int32, error)                  { return 0, nil }
func (missingValueIn) Uint32() (uint32, error)                { return 0, nil }
func (missingValueIn) Int64() (int64, error)                  { return 0, nil }
func (missingValueIn) Uint64() (uint64, error)                { return 0, nil }
func (missingValueIn) Float32() (float32, error)              { return 0, nil }
func (missingValueIn) Float64() (float64, error)              { return 0, nil }
func (missingValueIn) Text() (string, error)                  { return "", nil }
func (missingValueIn) Bytes() ([]byte, error)                 { return nil, nil }
func (missingValueIn) Time() (LocalTime, error)               { return LocalTime{}, nil }
func (missingValueIn) Date() (LocalDate, error)               { return LocalDate{}, nil }
func (missingValueIn) DateTime() (LocalDateTime, error)       { return LocalDateTime{}, nil }
func (missingValueIn) ZonedDateTime() (time.Time, error)      { return time.Time{}, nil }
func (missingValueIn) UUID() (uuid.UUID, error)               { return uuid.UUID{}, nil }
func (missingValueIn) TypeLiteral() (TypeName, error)         { return "", nil }
func (missingValueIn) TypePrefix() (string, bool, error)      { return "", false, nil }
func (missingValueIn) IsNull() (bool, error)                  { return true, nil }
func (missingValueIn) Present() bool                          { return false }
func (missingValueIn) HasNext() bool                          { return false }
func (missingValueIn) ReadLength() (int, error)               { return 0, nil }
func (missingValueIn) Skip() error                            { return nil }
func (missingValueIn) Sequence(ReadValue) error               { return nil }
func (missingValueIn) Record(func(in WireIn) error) error     { return nil }
func (missingValueIn) Marshallable(Unmarshaler) error         { return nil }
func (missingValueIn) Int32Ref() (*Int32Ref, error)           { return nil, nil }
func (missingValueIn) Int64Ref() (*Int64Ref, error)           { return nil, nil }
func (missingValueIn) Int64ArrayRef() (*Int64ArrayRef, error) { return nil, nil }
func (missingValueIn) Object(any) error                       { return nil }
func (missingValueIn) ObjectAny() (any, error)                { return nil, nil }
