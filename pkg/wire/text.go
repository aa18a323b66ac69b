package wire

import (
	"encoding/base64"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// TextWire 是 YAML 方言的 Wire 实现。
//
// 排版规则：
//   - 字段与值之间以 `: ` 分隔，记录用 `{ }` 包裹，序列用 `[ ]` 包裹；
//   - 每层嵌套缩进两个空格；leaf 模式下复合值排版在一行内，以 `, ` 分隔；
//   - 字符串含保留字符时加引号，优先双引号（C 转义），
//     字符串本身含双引号时退回单引号；
//   - 类型前缀为 `!Tag `，空哨兵为 `!!null ""`，字节序列为 `!binary BASE64`。
//
// 文档头不属于文本方言：无论哪种编码，头字都是 4 字节小端二进制。
type TextWire struct {
	buf *elastic.Buffer

	scopes []textScope
	wctx   writeContext
	rctx   readContext

	// 写出侧排版状态，见 beforeValue。
	afterName   bool
	prefixed    bool
	leafPending bool
	afterDash   bool

	// sticky 写错误：首个底层缓冲区错误被记住，后续写出短路，
	// 最终由 WriteDocument 统一上报。
	werr error

	out textValueOut
	in  textValueIn

	opts Options
}

type textScope struct {
	kind  byte // '-' 顶层，'{' 记录，'[' 序列
	leaf  bool
	first bool
}

// 编译期断言：TextWire 实现 Wire。
var _ Wire = (*TextWire)(nil)

// NewTextWire 创建一个绑定到 buf 的文本 Wire。
func NewTextWire(buf *elastic.Buffer) *TextWire {
	return NewTextWireWithOptions(buf, DefaultOptions())
}

// NewTextWireWithOptions 创建一个带配置的文本 Wire。
func NewTextWireWithOptions(buf *elastic.Buffer, opts Options) *TextWire {
	w := &TextWire{
		buf:    buf,
		scopes: []textScope{{kind: '-', first: true}},
		opts:   opts,
	}
	w.out.w = w
	w.in.w = w
	w.in.reset()
	return w
}

// Type 返回 TypeText。
func (w *TextWire) Type() Type { return TypeText }

// Bytes 返回底层缓冲区。
func (w *TextWire) Bytes() *elastic.Buffer { return w.buf }

func (w *TextWire) resetWriteState() {
	w.scopes = w.scopes[:1]
	w.scopes[0] = textScope{kind: '-', first: true}
	w.afterName = false
	w.prefixed = false
	w.leafPending = false
	w.afterDash = false
	w.werr = nil
}

// WriteDocument 以文档为单位写出，头字占位后回填。
// write 报错或底层缓冲区写失败时文档被放弃，头字清回未初始化。
func (w *TextWire) WriteDocument(metaData bool, write func(out WireOut) error) error {
	var ctx writeContext
	if err := ctx.start(w.buf, metaData, w.Type().String()); err != nil {
		return err
	}
	w.resetWriteState()
	err := write(w)
	if err == nil {
		err = w.werr
	}
	if err != nil {
		ctx.abandon()
		return err
	}
	return ctx.close()
}

// Write 写出字段名与分隔符并返回值写入器。
func (w *TextWire) Write(name string) ValueOut {
	w.itemSeparator()
	w.writeQuotable(name)
	w.must(w.buf.WriteString(": "))
	w.afterName = true
	return &w.out
}

// WriteEventName 写出事件名，即文档的首个字段。
func (w *TextWire) WriteEventName(name string) ValueOut {
	return w.Write(name)
}

// GetValueOut 返回不带字段名的值写入器。
func (w *TextWire) GetValueOut() ValueOut { return &w.out }

// WriteComment 写出一行 `# ...` 注释。
func (w *TextWire) WriteComment(comment string) error {
	sc := w.top()
	if sc.first {
		if sc.kind != '-' && !sc.leaf {
			w.newlineIndent()
		}
		sc.first = false
		w.afterDash = true
	} else {
		w.newlineIndent()
	}
	w.must(w.buf.WriteString("# "))
	w.must(w.buf.WriteString(comment))
	return nil
}

func (w *TextWire) top() *textScope { return &w.scopes[len(w.scopes)-1] }

func (w *TextWire) indent() int { return len(w.scopes) - 1 }

func (w *TextWire) newlineIndent() {
	w.must(w.buf.WriteByte('\n'))
	for i := 0; i < w.indent(); i++ {
		w.must(w.buf.WriteString("  "))
	}
}

// itemSeparator 在写出下一个字段/条目之前补上分隔符。
//
// 顶层字段逐行排布不加逗号；记录与序列内条目以 `,` 分隔，
// 非 leaf 时换行缩进，leaf 时同一行以 `, ` 分隔。
func (w *TextWire) itemSeparator() {
	sc := w.top()
	if sc.first {
		sc.first = false
		if sc.kind != '-' && !sc.leaf {
			w.newlineIndent()
		}
		return
	}
	if w.afterDash {
		// 上一条输出是注释行，逗号会被注释吞掉，直接换行。
		w.afterDash = false
		w.newlineIndent()
		return
	}
	switch {
	case sc.kind == '-':
		w.must(w.buf.WriteByte('\n'))
	case sc.leaf:
		w.must(w.buf.WriteString(", "))
	default:
		w.must(w.buf.WriteByte(','))
		w.newlineIndent()
	}
}

// beforeValue 在写出一个值之前结算排版状态：
// 刚写过字段名或类型前缀时值紧随其后，否则按所在作用域补分隔符。
func (w *TextWire) beforeValue() {
	if w.prefixed {
		w.prefixed = false
		return
	}
	if w.afterName {
		w.afterName = false
		return
	}
	w.itemSeparator()
}

// must 记录首个底层缓冲区写失败；文本写出路径不逐点传播 io 错误，
// 由值写出方法与 WriteDocument 统一上报。
func (w *TextWire) must(err error) {
	if err != nil && w.werr == nil {
		w.werr = werr.WrapErrIoFailed(w.buf.WritePosition(), err)
	}
}

// startsQuote 列出出现在 0 号位即触发引号的字符（数字另行判断）。
const startsQuote = "?+- \t',#:{}[]|>!\x00\b\\"

// mustQuote 列出出现在任意位置都触发引号的字符。
const mustQuote = "?,#:{}[]|>\x00\b\\"

func needsQuote(s string) bool {
	if s == "" {
		return true
	}
	c0 := s[0]
	if c0 >= '0' && c0 <= '9' {
		return true
	}
	for i := 0; i < len(startsQuote); i++ {
		if c0 == startsQuote[i] {
			return true
		}
	}
	last := s[len(s)-1]
	if last == ' ' || last == '\t' {
		return true
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\r' || c == '\n' {
			return true
		}
		for j := 0; j < len(mustQuote); j++ {
			if c == mustQuote[j] {
				return true
			}
		}
	}
	return false
}

func appendEscaped(dst []byte, s string, quote byte) []byte {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\b':
			dst = append(dst, '\\', 'b')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\\':
			dst = append(dst, '\\', '\\')
		case 0:
			dst = append(dst, '\\', '0')
		case quote:
			if quote == '\'' {
				dst = append(dst, '\'', '\'')
			} else {
				dst = append(dst, '\\', quote)
			}
		default:
			dst = append(dst, c)
		}
	}
	return dst
}

// writeQuotable 按需加引号写出一段文本。
// 无保留字符时裸写；否则优先双引号，文本含双引号时退回单引号。
func (w *TextWire) writeQuotable(s string) {
	if !needsQuote(s) {
		w.must(w.buf.WriteString(s))
		return
	}
	quote := byte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' {
			quote = '\''
			break
		}
	}
	out := make([]byte, 0, len(s)+2)
	out = append(out, quote)
	out = appendEscaped(out, s, quote)
	out = append(out, quote)
	_, err := w.buf.Write(out)
	w.must(err)
}

// textValueOut 是 TextWire 的 ValueOut 实现。
type textValueOut struct {
	w *TextWire
}

var _ ValueOut = (*textValueOut)(nil)

func (o *textValueOut) token(s string) error {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteString(s))
	return o.w.werr
}

func (o *textValueOut) Bool(v bool) error {
	if v {
		return o.token("true")
	}
	return o.token("false")
}

func (o *textValueOut) Int8(v int8) error   { return o.token(strconv.FormatInt(int64(v), 10)) }
func (o *textValueOut) Uint8(v uint8) error { return o.token(strconv.FormatUint(uint64(v), 10)) }
func (o *textValueOut) Int16(v int16) error { return o.token(strconv.FormatInt(int64(v), 10)) }
func (o *textValueOut) Uint16(v uint16) error {
	return o.token(strconv.FormatUint(uint64(v), 10))
}
func (o *textValueOut) Int32(v int32) error { return o.token(strconv.FormatInt(int64(v), 10)) }
func (o *textValueOut) Uint32(v uint32) error {
	return o.token(strconv.FormatUint(uint64(v), 10))
}
func (o *textValueOut) Int64(v int64) error { return o.token(strconv.FormatInt(v, 10)) }
func (o *textValueOut) Uint64(v uint64) error {
	return o.token(strconv.FormatUint(v, 10))
}

func (o *textValueOut) Float32(v float32) error {
	return o.token(strconv.FormatFloat(float64(v), 'g', -1, 32))
}

func (o *textValueOut) Float64(v float64) error {
	return o.token(strconv.FormatFloat(v, 'g', -1, 64))
}

func (o *textValueOut) Text(s string) error {
	o.w.beforeValue()
	o.w.writeQuotable(s)
	return nil
}

func (o *textValueOut) Bytes(b []byte) error {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteString("!binary "))
	o.w.must(o.w.buf.WriteString(base64.StdEncoding.EncodeToString(b)))
	return nil
}

func (o *textValueOut) Time(t LocalTime) error {
	o.w.beforeValue()
	o.w.writeQuotable(t.String())
	return nil
}

func (o *textValueOut) Date(d LocalDate) error {
	o.w.beforeValue()
	o.w.writeQuotable(d.String())
	return nil
}

func (o *textValueOut) DateTime(dt LocalDateTime) error {
	o.w.beforeValue()
	o.w.writeQuotable(dt.String())
	return nil
}

func (o *textValueOut) ZonedDateTime(t time.Time) error {
	o.w.beforeValue()
	o.w.writeQuotable(FormatZoned(t))
	return nil
}

func (o *textValueOut) UUID(u uuid.UUID) error {
	o.w.beforeValue()
	o.w.writeQuotable(u.String())
	return nil
}

func (o *textValueOut) TypePrefix(tag string) error {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteByte('!'))
	o.w.must(o.w.buf.WriteString(o.w.opts.Aliases.Shorten(tag)))
	o.w.must(o.w.buf.WriteByte(' '))
	o.w.prefixed = true
	return nil
}

func (o *textValueOut) TypeLiteral(name TypeName) error {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteString("!type "))
	o.w.must(o.w.buf.WriteString(o.w.opts.Aliases.Shorten(string(name))))
	return nil
}

func (o *textValueOut) Null() error {
	return o.token(`!!null ""`)
}

func (o *textValueOut) Leaf(on bool) {
	o.w.leafPending = on
}

func (o *textValueOut) Sequence(write WriteValue) error {
	return o.composite('[', ']', func() error { return write(o) })
}

func (o *textValueOut) Record(write func(out WireOut) error) error {
	return o.composite('{', '}', func() error { return write(o.w) })
}

func (o *textValueOut) Marshallable(m Marshaler) error {
	return o.Record(m.WriteWire)
}

func (o *textValueOut) composite(open, close byte, body func() error) error {
	w := o.w
	w.beforeValue()
	leaf := w.leafPending || w.top().leaf
	w.leafPending = false
	w.must(w.buf.WriteByte(open))
	if leaf {
		w.must(w.buf.WriteByte(' '))
	}
	w.scopes = append(w.scopes, textScope{kind: open, leaf: leaf, first: true})
	err := body()
	sc := *w.top()
	w.scopes = w.scopes[:len(w.scopes)-1]
	if err != nil {
		return err
	}
	switch {
	case sc.first && leaf:
		// 空复合值，"{ " 之后直接补 "}"。
		w.must(w.buf.WriteByte(close))
	case sc.first:
		w.must(w.buf.WriteByte(close))
	case leaf:
		w.must(w.buf.WriteByte(' '))
		w.must(w.buf.WriteByte(close))
	default:
		w.newlineIndent()
		w.must(w.buf.WriteByte(close))
	}
	w.afterDash = false
	return nil
}

// int32RefWidth 与 int64RefWidth 是文本引用单元的定宽位数，
// 空格右对齐，原位更新不会改变文档长度。
const (
	int32RefWidth = 10
	int64RefWidth = 20
)

func (o *textValueOut) Int32Ref(v int32) (*Int32Ref, error) {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteString("!int32 "))
	off := o.w.buf.WritePosition()
	o.w.must(o.w.buf.WriteString(padInt(int64(v), int32RefWidth)))
	return newTextInt32Ref(o.w.buf, off), nil
}

func (o *textValueOut) Int64Ref(v int64) (*Int64Ref, error) {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteString("!int64 "))
	off := o.w.buf.WritePosition()
	o.w.must(o.w.buf.WriteString(padInt(v, int64RefWidth)))
	return newTextInt64Ref(o.w.buf, off), nil
}

func (o *textValueOut) Int64ArrayRef(capacity int) (*Int64ArrayRef, error) {
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteString("!int64array [ "))
	off := o.w.buf.WritePosition()
	for i := 0; i < capacity; i++ {
		if i > 0 {
			o.w.must(o.w.buf.WriteString(", "))
		}
		o.w.must(o.w.buf.WriteString(padInt(0, int64RefWidth)))
	}
	o.w.must(o.w.buf.WriteString(" ]"))
	return newTextInt64ArrayRef(o.w.buf, off, capacity), nil
}

func (o *textValueOut) Compress(codec string, data []byte) error {
	if len(data) < o.w.opts.CompressionThreshold {
		return o.Bytes(data)
	}
	packed, err := compressWith(codec, data)
	if err != nil {
		return err
	}
	o.w.beforeValue()
	o.w.must(o.w.buf.WriteByte('!'))
	o.w.must(o.w.buf.WriteString(codec))
	o.w.must(o.w.buf.WriteByte(' '))
	o.w.must(o.w.buf.WriteString(base64.StdEncoding.EncodeToString(packed)))
	return nil
}

func (o *textValueOut) Object(v any) error {
	return writeObject(o, v)
}

// padInt 把 v 排版为宽度 width 的右对齐十进制字面量。
func padInt(v int64, width int) string {
	s := strconv.FormatInt(v, 10)
	if len(s) >= width {
		return s
	}
	out := make([]byte, width)
	for i := 0; i < width-len(s); i++ {
		out[i] = ' '
	}
	copy(out[width-len(s):], s)
	return string(out)
}
