package wire

import (
	"encoding/base64"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/exp/maps"

	"github.com/lk2023060901/wire-garden-go/internal/json"
	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// JSONWire 是 JSON 规则的文本侧写。
//
// 写出侧按 JSON 规则降级：字符串一律双引号转义，`"k":v` 无空格分隔，
// 类型前缀不落线，字节序列写成 base64 字符串，空哨兵写 `null`。
// 文档头与其它编码一致，是 4 字节小端二进制。
//
// 读取侧先把文档载荷整体物化为内存树（经 internal/json，整数保持 int64），
// 再从树上供给 ValueIn 契约。树上没有缓冲区偏移，
// 因此该侧写不支持绑定引用单元。
type JSONWire struct {
	buf *elastic.Buffer

	scopes    []jsonScope
	afterName bool
	werr      error

	out  jsonValueOut
	opts Options

	// 读取侧：当前文档物化出的树。
	rootVal any
	rootRec *jsonRecordIn
	rootCur jsonValueIn
}

type jsonScope struct {
	first bool
}

// 编译期断言：JSONWire 实现 Wire。
var _ Wire = (*JSONWire)(nil)

// NewJSONWire 创建一个绑定到 buf 的 JSON Wire。
func NewJSONWire(buf *elastic.Buffer) *JSONWire {
	return NewJSONWireWithOptions(buf, DefaultOptions())
}

// NewJSONWireWithOptions 创建一个带配置的 JSON Wire。
func NewJSONWireWithOptions(buf *elastic.Buffer, opts Options) *JSONWire {
	w := &JSONWire{
		buf:    buf,
		scopes: []jsonScope{{first: true}},
		opts:   opts,
	}
	w.out.w = w
	return w
}

// Type 返回 TypeJSON。
func (w *JSONWire) Type() Type { return TypeJSON }

// Bytes 返回底层缓冲区。
func (w *JSONWire) Bytes() *elastic.Buffer { return w.buf }

func (w *JSONWire) must(err error) {
	if err != nil && w.werr == nil {
		w.werr = err
	}
}

func (w *JSONWire) resetWriteState() {
	w.scopes = w.scopes[:1]
	w.scopes[0] = jsonScope{first: true}
	w.afterName = false
	w.werr = nil
}

// WriteDocument 以文档为单位写出，语义与文本编码一致。
func (w *JSONWire) WriteDocument(metaData bool, write func(out WireOut) error) error {
	var ctx writeContext
	if err := ctx.start(w.buf, metaData, w.Type().String()); err != nil {
		return err
	}
	w.resetWriteState()
	w.must(w.buf.WriteByte('{'))
	err := write(w)
	w.must(w.buf.WriteByte('}'))
	if err == nil {
		err = w.werr
	}
	if err != nil {
		ctx.abandon()
		return err
	}
	return ctx.close()
}

func (w *JSONWire) separator() {
	top := &w.scopes[len(w.scopes)-1]
	if top.first {
		top.first = false
		return
	}
	w.must(w.buf.WriteByte(','))
}

func (w *JSONWire) beforeValue() {
	if w.afterName {
		w.afterName = false
		return
	}
	w.separator()
}

// Write 写出 `"name":` 并返回值写入器。
func (w *JSONWire) Write(name string) ValueOut {
	w.separator()
	w.must(w.buf.WriteString(jsonQuote(name)))
	w.must(w.buf.WriteByte(':'))
	w.afterName = true
	return &w.out
}

// WriteEventName 写出事件名。
func (w *JSONWire) WriteEventName(name string) ValueOut {
	return w.Write(name)
}

// GetValueOut 返回不带字段名的值写入器。
func (w *JSONWire) GetValueOut() ValueOut { return &w.out }

// WriteComment 在 JSON 侧写中没有落线形态，注释被丢弃。
func (w *JSONWire) WriteComment(string) error { return nil }

func jsonQuote(s string) string {
	enc, err := json.Marshal(s)
	if err != nil {
		// 字符串编码只会在非法 UTF-8 上替换，不会失败。
		return `""`
	}
	return string(enc)
}

type jsonValueOut struct {
	w *JSONWire
}

func (o *jsonValueOut) token(s string) error {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteString(s))
	return o.w.werr
}

func (o *jsonValueOut) Bool(v bool) error {
	return o.token(strconv.FormatBool(v))
}

func (o *jsonValueOut) Int8(v int8) error   { return o.token(strconv.FormatInt(int64(v), 10)) }
func (o *jsonValueOut) Uint8(v uint8) error { return o.token(strconv.FormatUint(uint64(v), 10)) }
func (o *jsonValueOut) Int16(v int16) error { return o.token(strconv.FormatInt(int64(v), 10)) }
func (o *jsonValueOut) Uint16(v uint16) error {
	return o.token(strconv.FormatUint(uint64(v), 10))
}
func (o *jsonValueOut) Int32(v int32) error { return o.token(strconv.FormatInt(int64(v), 10)) }
func (o *jsonValueOut) Uint32(v uint32) error {
	return o.token(strconv.FormatUint(uint64(v), 10))
}
func (o *jsonValueOut) Int64(v int64) error  { return o.token(strconv.FormatInt(v, 10)) }
func (o *jsonValueOut) Uint64(v uint64) error { return o.token(strconv.FormatUint(v, 10)) }

func (o *jsonValueOut) Float32(v float32) error { return o.float(float64(v), 32) }
func (o *jsonValueOut) Float64(v float64) error { return o.float(v, 64) }

func (o *jsonValueOut) float(v float64, bits int) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		// JSON 数字没有 NaN/Inf 字面量。
		return o.token("null")
	}
	return o.token(strconv.FormatFloat(v, 'g', -1, bits))
}

func (o *jsonValueOut) Text(s string) error {
	return o.token(jsonQuote(s))
}

func (o *jsonValueOut) Bytes(b []byte) error {
	return o.token(jsonQuote(base64.StdEncoding.EncodeToString(b)))
}

func (o *jsonValueOut) Time(t LocalTime) error     { return o.token(jsonQuote(t.String())) }
func (o *jsonValueOut) Date(d LocalDate) error     { return o.token(jsonQuote(d.String())) }
func (o *jsonValueOut) DateTime(dt LocalDateTime) error {
	return o.token(jsonQuote(dt.String()))
}
func (o *jsonValueOut) ZonedDateTime(t time.Time) error {
	return o.token(jsonQuote(FormatZoned(t)))
}
func (o *jsonValueOut) UUID(u uuid.UUID) error { return o.token(jsonQuote(u.String())) }

// TypePrefix 在 JSON 侧写中不落线，类型化的值降级为其载荷。
func (o *jsonValueOut) TypePrefix(string) error { return nil }

func (o *jsonValueOut) TypeLiteral(name TypeName) error {
	return o.token(jsonQuote(string(name)))
}

func (o *jsonValueOut) Null() error { return o.token("null") }

func (o *jsonValueOut) Leaf(bool) {}

func (o *jsonValueOut) Sequence(write WriteValue) error {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteByte('['))
	o.w.scopes = append(o.w.scopes, jsonScope{first: true})
	err := write(o)
	o.w.scopes = o.w.scopes[:len(o.w.scopes)-1]
	o.w.must(o.w.buf.WriteByte(']'))
	if err != nil {
		return err
	}
	return o.w.werr
}

func (o *jsonValueOut) Record(write func(out WireOut) error) error {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteByte('{'))
	o.w.scopes = append(o.w.scopes, jsonScope{first: true})
	err := write(o.w)
	o.w.scopes = o.w.scopes[:len(o.w.scopes)-1]
	o.w.must(o.w.buf.WriteByte('}'))
	if err != nil {
		return err
	}
	return o.w.werr
}

func (o *jsonValueOut) Marshallable(m Marshaler) error {
	return o.Record(m.WriteWire)
}

// 引用单元写成定宽右对齐的带引号十进制字面量，
// 原位更新不改变文档长度。槽位偏移指向引号内的数字区。
func (o *jsonValueOut) Int32Ref(v int32) (*Int32Ref, error) {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteByte('"'))
	off := o.w.buf.WritePosition()
	o.w.must(o.w.buf.WriteString(padInt(int64(v), int32RefWidth)))
	o.w.must(o.w.buf.WriteByte('"'))
	if o.w.werr != nil {
		return nil, o.w.werr
	}
	return newTextInt32Ref(o.w.buf, off), nil
}

func (o *jsonValueOut) Int64Ref(v int64) (*Int64Ref, error) {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteByte('"'))
	off := o.w.buf.WritePosition()
	o.w.must(o.w.buf.WriteString(padInt(v, int64RefWidth)))
	o.w.must(o.w.buf.WriteByte('"'))
	if o.w.werr != nil {
		return nil, o.w.werr
	}
	return newTextInt64Ref(o.w.buf, off), nil
}

func (o *jsonValueOut) Int64ArrayRef(capacity int) (*Int64ArrayRef, error) {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteByte('"'))
	off := o.w.buf.WritePosition()
	for i := 0; i < capacity; i++ {
		if i > 0 {
			o.w.must(o.w.buf.WriteString(", "))
		}
		o.w.must(o.w.buf.WriteString(padInt(0, int64RefWidth)))
	}
	o.w.must(o.w.buf.WriteByte('"'))
	if o.w.werr != nil {
		return nil, o.w.werr
	}
	return newTextInt64ArrayRef(o.w.buf, off, capacity), nil
}

// Compress 在 JSON 侧写中降级为未压缩的 base64 字符串，
// 编解码器标签没有落线形态。
func (o *jsonValueOut) Compress(_ string, data []byte) error {
	return o.Bytes(data)
}

func (o *jsonValueOut) Object(v any) error {
	return writeObject(o, v)
}

// ReadDocument 绑定到下一个完整文档，把载荷物化为内存树后分发。
func (w *JSONWire) ReadDocument(metaData func(r WireIn) error, data func(r WireIn) error) (bool, error) {
	var ctx readContext
	present, err := ctx.bind(w.buf, w.Type().String())
	if err != nil || !present {
		return present, err
	}
	defer ctx.close()
	pos := w.buf.ReadPosition()
	payload, err := w.buf.Slice(pos, ctx.limit-pos)
	if err != nil {
		return true, werr.WrapErrIoFailed(pos, err)
	}
	if err := w.materialize(payload); err != nil {
		return true, err
	}
	cb := data
	if ctx.metaData {
		cb = metaData
	}
	if cb == nil {
		return true, nil
	}
	return true, cb(w)
}

func (w *JSONWire) materialize(payload []byte) error {
	text := strings.TrimSpace(string(payload))
	// 不带外层花括号的顶层 `"k":v` 序列补上花括号再解码。
	if strings.HasPrefix(text, `"`) && strings.Contains(text, `":`) {
		text = "{" + text + "}"
	}
	var root any
	if text != "" {
		if err := json.UnmarshalUseInt64([]byte(text), &root); err != nil {
			return werr.WrapErrTypeMismatch(werr.Excerpt(payload), "json", w.buf.ReadPosition())
		}
	}
	w.rootVal = root
	w.rootCur = jsonValueIn{w: w, items: []any{root}}
	if m, ok := root.(map[string]any); ok {
		w.rootRec = newJSONRecordIn(w, m)
	} else {
		w.rootRec = nil
	}
	return nil
}

// Read 按名定位字段并返回其值读取器。
func (w *JSONWire) Read(name string) ValueIn {
	if w.rootRec == nil {
		return missingValueIn{}
	}
	return w.rootRec.Read(name)
}

// ReadEvent 按键序返回下一个字段。
func (w *JSONWire) ReadEvent() (string, ValueIn, error) {
	if w.rootRec == nil {
		return "", nil, werr.WrapErrUnexpectedField("", w.buf.ReadPosition())
	}
	return w.rootRec.ReadEvent()
}

// GetValueIn 返回整个文档载荷的值读取器。
func (w *JSONWire) GetValueIn() ValueIn {
	if w.rootRec != nil {
		return w.rootRec.GetValueIn()
	}
	return &w.rootCur
}

// CopyOne 把当前值翻译到另一个写出面。
func (w *JSONWire) CopyOne(out WireOut) error {
	return copyValue(w.GetValueIn(), out.GetValueOut())
}

// jsonRecordIn 在一个对象节点上供给 WireIn。
type jsonRecordIn struct {
	w    *JSONWire
	m    map[string]any
	keys []string
	cur  jsonValueIn
}

func newJSONRecordIn(w *JSONWire, m map[string]any) *jsonRecordIn {
	keys := maps.Keys(m)
	sort.Strings(keys)
	items := make([]any, len(keys))
	for i, k := range keys {
		items[i] = m[k]
	}
	r := &jsonRecordIn{w: w, m: m, keys: keys}
	r.cur = jsonValueIn{w: w, items: items}
	return r
}

func (r *jsonRecordIn) Read(name string) ValueIn {
	v, ok := r.m[name]
	if !ok {
		return missingValueIn{}
	}
	return &jsonValueIn{w: r.w, items: []any{v}}
}

func (r *jsonRecordIn) ReadEvent() (string, ValueIn, error) {
	if r.cur.idx >= len(r.keys) {
		return "", nil, werr.WrapErrUnexpectedField("", -1)
	}
	name := r.keys[r.cur.idx]
	return name, &r.cur, nil
}

func (r *jsonRecordIn) GetValueIn() ValueIn { return &r.cur }

func (r *jsonRecordIn) ReadDocument(func(r WireIn) error, func(r WireIn) error) (bool, error) {
	return false, nil
}

func (r *jsonRecordIn) CopyOne(out WireOut) error {
	return copyValue(&r.cur, out.GetValueOut())
}

func (r *jsonRecordIn) Bytes() *elastic.Buffer { return r.w.buf }

// jsonValueIn 是内存树节点序列上的游标。
// 标量拉取读当前节点并前进；失败时游标停在原地。
type jsonValueIn struct {
	w     *JSONWire
	items []any
	idx   int
}

func (in *jsonValueIn) node() (any, error) {
	if in.idx >= len(in.items) {
		return nil, werr.WrapErrTruncation(1, 0, -1)
	}
	return in.items[in.idx], nil
}

func (in *jsonValueIn) pullInt(min, max int64, width string) (int64, error) {
	node, err := in.node()
	if err != nil {
		return 0, err
	}
	var v int64
	switch x := node.(type) {
	case int64:
		v = x
	case float64:
		if x != math.Trunc(x) {
			return 0, werr.WrapErrTypeMismatch(strconv.FormatFloat(x, 'g', -1, 64), width, -1)
		}
		v = int64(x)
	case string:
		kind, iv, uv, _ := parseNumberToken(x)
		switch kind {
		case numberInt:
			v = iv
		case numberUint:
			if uv > math.MaxInt64 {
				return 0, werr.WrapErrRangeViolation(uv, width, -1)
			}
			v = int64(uv)
		default:
			return 0, werr.WrapErrTypeMismatch(x, width, -1)
		}
	default:
		return 0, werr.WrapErrTypeMismatch(jsonNodeKind(node), width, -1)
	}
	if v < min || v > max {
		return 0, werr.WrapErrRangeViolation(v, width, -1)
	}
	in.idx++
	return v, nil
}

func jsonNodeKind(node any) string {
	switch node.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64, float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "unknown"
}

func (in *jsonValueIn) Bool() (bool, error) {
	node, err := in.node()
	if err != nil {
		return false, err
	}
	b, ok := node.(bool)
	if !ok {
		return false, werr.WrapErrTypeMismatch(jsonNodeKind(node), "bool", -1)
	}
	in.idx++
	return b, nil
}

func (in *jsonValueIn) Int8() (int8, error) {
	v, err := in.pullInt(math.MinInt8, math.MaxInt8, "int8")
	return int8(v), err
}

func (in *jsonValueIn) Uint8() (uint8, error) {
	v, err := in.pullInt(0, math.MaxUint8, "uint8")
	return uint8(v), err
}

func (in *jsonValueIn) Int16() (int16, error) {
	v, err := in.pullInt(math.MinInt16, math.MaxInt16, "int16")
	return int16(v), err
}

func (in *jsonValueIn) Uint16() (uint16, error) {
	v, err := in.pullInt(0, math.MaxUint16, "uint16")
	return uint16(v), err
}

func (in *jsonValueIn) Int32() (int32, error) {
	v, err := in.pullInt(math.MinInt32, math.MaxInt32, "int32")
	return int32(v), err
}

func (in *jsonValueIn) Uint32() (uint32, error) {
	v, err := in.pullInt(0, math.MaxUint32, "uint32")
	return uint32(v), err
}

func (in *jsonValueIn) Int64() (int64, error) {
	return in.pullInt(math.MinInt64, math.MaxInt64, "int64")
}

func (in *jsonValueIn) Uint64() (uint64, error) {
	v, err := in.pullInt(0, math.MaxInt64, "uint64")
	return uint64(v), err
}

func (in *jsonValueIn) Float32() (float32, error) {
	v, err := in.Float64()
	return float32(v), err
}

func (in *jsonValueIn) Float64() (float64, error) {
	node, err := in.node()
	if err != nil {
		return 0, err
	}
	switch x := node.(type) {
	case int64:
		in.idx++
		return float64(x), nil
	case float64:
		in.idx++
		return x, nil
	}
	return 0, werr.WrapErrTypeMismatch(jsonNodeKind(node), "float64", -1)
}

func (in *jsonValueIn) Text() (string, error) {
	node, err := in.node()
	if err != nil {
		return "", err
	}
	s, ok := node.(string)
	if !ok {
		return "", werr.WrapErrTypeMismatch(jsonNodeKind(node), "string", -1)
	}
	in.idx++
	return s, nil
}

func (in *jsonValueIn) Bytes() ([]byte, error) {
	s, err := in.Text()
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, werr.WrapErrTypeMismatch(s, "base64", -1)
	}
	return decoded, nil
}

func (in *jsonValueIn) scalarText(want string, parse func(string) error) error {
	node, err := in.node()
	if err != nil {
		return err
	}
	s, ok := node.(string)
	if !ok {
		return werr.WrapErrTypeMismatch(jsonNodeKind(node), want, -1)
	}
	if err := parse(s); err != nil {
		return werr.WrapErrTypeMismatch(s, want, -1)
	}
	in.idx++
	return nil
}

func (in *jsonValueIn) Time() (LocalTime, error) {
	var out LocalTime
	err := in.scalarText("time", func(s string) error {
		v, err := ParseLocalTime(s)
		out = v
		return err
	})
	return out, err
}

func (in *jsonValueIn) Date() (LocalDate, error) {
	var out LocalDate
	err := in.scalarText("date", func(s string) error {
		v, err := ParseLocalDate(s)
		out = v
		return err
	})
	return out, err
}

func (in *jsonValueIn) DateTime() (LocalDateTime, error) {
	var out LocalDateTime
	err := in.scalarText("date-time", func(s string) error {
		v, err := ParseLocalDateTime(s)
		out = v
		return err
	})
	return out, err
}

func (in *jsonValueIn) ZonedDateTime() (time.Time, error) {
	var out time.Time
	err := in.scalarText("zoned-date-time", func(s string) error {
		v, err := ParseZoned(s)
		out = v
		return err
	})
	return out, err
}

func (in *jsonValueIn) UUID() (uuid.UUID, error) {
	var out uuid.UUID
	err := in.scalarText("uuid", func(s string) error {
		v, err := uuid.Parse(s)
		out = v
		return err
	})
	return out, err
}

func (in *jsonValueIn) TypeLiteral() (TypeName, error) {
	s, err := in.Text()
	return TypeName(s), err
}

// TypePrefix 在 JSON 侧写中不存在，永远报告缺席。
func (in *jsonValueIn) TypePrefix() (string, bool, error) { return "", false, nil }

func (in *jsonValueIn) IsNull() (bool, error) {
	node, err := in.node()
	if err != nil {
		return false, err
	}
	if node == nil {
		in.idx++
		return true, nil
	}
	return false, nil
}

func (in *jsonValueIn) Present() bool { return true }

func (in *jsonValueIn) HasNext() bool { return in.idx < len(in.items) }

// ReadLength 返回当前节点重编码后的字节数。
func (in *jsonValueIn) ReadLength() (int, error) {
	node, err := in.node()
	if err != nil {
		return 0, err
	}
	enc, err := json.Marshal(node)
	if err != nil {
		return 0, err
	}
	return len(enc), nil
}

func (in *jsonValueIn) Skip() error {
	if _, err := in.node(); err != nil {
		return err
	}
	in.idx++
	return nil
}

func (in *jsonValueIn) Sequence(read ReadValue) error {
	node, err := in.node()
	if err != nil {
		return err
	}
	seq, ok := node.([]any)
	if !ok {
		return werr.WrapErrTypeMismatch(jsonNodeKind(node), "array", -1)
	}
	child := &jsonValueIn{w: in.w, items: seq}
	if err := read(child); err != nil {
		return err
	}
	in.idx++
	return nil
}

func (in *jsonValueIn) Record(read func(r WireIn) error) error {
	node, err := in.node()
	if err != nil {
		return err
	}
	m, ok := node.(map[string]any)
	if !ok {
		return werr.WrapErrTypeMismatch(jsonNodeKind(node), "object", -1)
	}
	if err := read(newJSONRecordIn(in.w, m)); err != nil {
		return err
	}
	in.idx++
	return nil
}

func (in *jsonValueIn) Marshallable(m Unmarshaler) error {
	return in.Record(m.ReadWire)
}

var errJSONRefUnsupported = errors.New("wire: json profile cannot bind reference cells")

func (in *jsonValueIn) Int32Ref() (*Int32Ref, error)         { return nil, errJSONRefUnsupported }
func (in *jsonValueIn) Int64Ref() (*Int64Ref, error)         { return nil, errJSONRefUnsupported }
func (in *jsonValueIn) Int64ArrayRef() (*Int64ArrayRef, error) { return nil, errJSONRefUnsupported }

func (in *jsonValueIn) Object(dst any) error {
	return readObject(in, dst)
}

func (in *jsonValueIn) ObjectAny() (any, error) {
	node, err := in.node()
	if err != nil {
		return nil, err
	}
	in.idx++
	return node, nil
}
