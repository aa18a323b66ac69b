package wire

import (
	"bytes"
	"encoding/base64"
	"encoding/csv"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// CSVWire 是行导向的文本侧写：一条记录一行，一行一个文档。
//
// 字段名不落线，单元格按写出顺序排列，读取按位置匹配。
// 嵌套复合值被平铺进同一行。单元格按 RFC 4180 规则引用，
// 空哨兵是空单元格，字节序列是 base64 单元格。
// 文档头与其它编码一致。
type CSVWire struct {
	buf *elastic.Buffer

	firstCell bool
	werr      error

	out  csvValueOut
	opts Options

	// 读取侧：当前文档解析出的单元格。
	cur csvValueIn
}

// 编译期断言：CSVWire 实现 Wire。
var _ Wire = (*CSVWire)(nil)

// NewCSVWire 创建一个绑定到 buf 的 CSV Wire。
func NewCSVWire(buf *elastic.Buffer) *CSVWire {
	return NewCSVWireWithOptions(buf, DefaultOptions())
}

// NewCSVWireWithOptions 创建一个带配置的 CSV Wire。
func NewCSVWireWithOptions(buf *elastic.Buffer, opts Options) *CSVWire {
	w := &CSVWire{buf: buf, firstCell: true, opts: opts}
	w.out.w = w
	w.cur.w = w
	return w
}

// Type 返回 TypeCSV。
func (w *CSVWire) Type() Type { return TypeCSV }

// Bytes 返回底层缓冲区。
func (w *CSVWire) Bytes() *elastic.Buffer { return w.buf }

func (w *CSVWire) must(err error) {
	if err != nil && w.werr == nil {
		w.werr = err
	}
}

// WriteDocument 写出一行：write 返回后补上行终止符。
func (w *CSVWire) WriteDocument(metaData bool, write func(out WireOut) error) error {
	var ctx writeContext
	if err := ctx.start(w.buf, metaData, w.Type().String()); err != nil {
		return err
	}
	w.firstCell = true
	w.werr = nil
	err := write(w)
	if err == nil {
		err = w.werr
	}
	if err == nil {
		err = w.buf.WriteByte('\n')
	}
	if err != nil {
		ctx.abandon()
		return err
	}
	return ctx.close()
}

// Write 返回下一个单元格的写入器；字段名不落线。
func (w *CSVWire) Write(string) ValueOut { return &w.out }

// WriteEventName 同 Write。
func (w *CSVWire) WriteEventName(string) ValueOut { return &w.out }

// GetValueOut 返回单元格写入器。
func (w *CSVWire) GetValueOut() ValueOut { return &w.out }

// WriteComment 在 CSV 侧写中没有落线形态，注释被丢弃。
func (w *CSVWire) WriteComment(string) error { return nil }

func (w *CSVWire) cellSeparator() {
	if w.firstCell {
		w.firstCell = false
		return
	}
	w.must(w.buf.WriteByte(','))
}

func csvNeedsQuote(s string) bool {
	return strings.ContainsAny(s, ",\"\n\r")
}

func csvQuote(s string) string {
	if !csvNeedsQuote(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

type csvValueOut struct {
	w *CSVWire
}

func (o *csvValueOut) cell(s string) error {
	o.w.cellSeparator()
	o.w.must(o.w.buf.WriteString(csvQuote(s)))
	return o.w.werr
}

func (o *csvValueOut) Bool(v bool) error { return o.cell(strconv.FormatBool(v)) }

func (o *csvValueOut) Int8(v int8) error     { return o.cell(strconv.FormatInt(int64(v), 10)) }
func (o *csvValueOut) Uint8(v uint8) error   { return o.cell(strconv.FormatUint(uint64(v), 10)) }
func (o *csvValueOut) Int16(v int16) error   { return o.cell(strconv.FormatInt(int64(v), 10)) }
func (o *csvValueOut) Uint16(v uint16) error { return o.cell(strconv.FormatUint(uint64(v), 10)) }
func (o *csvValueOut) Int32(v int32) error   { return o.cell(strconv.FormatInt(int64(v), 10)) }
func (o *csvValueOut) Uint32(v uint32) error { return o.cell(strconv.FormatUint(uint64(v), 10)) }
func (o *csvValueOut) Int64(v int64) error   { return o.cell(strconv.FormatInt(v, 10)) }
func (o *csvValueOut) Uint64(v uint64) error { return o.cell(strconv.FormatUint(v, 10)) }

func (o *csvValueOut) Float32(v float32) error {
	return o.cell(strconv.FormatFloat(float64(v), 'g', -1, 32))
}

func (o *csvValueOut) Float64(v float64) error {
	return o.cell(strconv.FormatFloat(v, 'g', -1, 64))
}

func (o *csvValueOut) Text(s string) error { return o.cell(s) }

func (o *csvValueOut) Bytes(b []byte) error {
	return o.cell(base64.StdEncoding.EncodeToString(b))
}

func (o *csvValueOut) Time(t LocalTime) error          { return o.cell(t.String()) }
func (o *csvValueOut) Date(d LocalDate) error          { return o.cell(d.String()) }
func (o *csvValueOut) DateTime(dt LocalDateTime) error { return o.cell(dt.String()) }
func (o *csvValueOut) ZonedDateTime(t time.Time) error { return o.cell(FormatZoned(t)) }
func (o *csvValueOut) UUID(u uuid.UUID) error          { return o.cell(u.String()) }

// TypePrefix 在 CSV 侧写中不落线。
func (o *csvValueOut) TypePrefix(string) error { return nil }

func (o *csvValueOut) TypeLiteral(name TypeName) error { return o.cell(string(name)) }

// Null 写出空单元格。
func (o *csvValueOut) Null() error { return o.cell("") }

func (o *csvValueOut) Leaf(bool) {}

// Sequence 把序列平铺为同一行里的连续单元格。
func (o *csvValueOut) Sequence(write WriteValue) error {
	if err := write(o); err != nil {
		return err
	}
	return o.w.werr
}

// Record 把记录平铺为同一行里的连续单元格，字段名不落线。
func (o *csvValueOut) Record(write func(out WireOut) error) error {
	if err := write(o.w); err != nil {
		return err
	}
	return o.w.werr
}

func (o *csvValueOut) Marshallable(m Marshaler) error {
	return o.Record(m.WriteWire)
}

func (o *csvValueOut) Int32Ref(v int32) (*Int32Ref, error) {
	o.w.cellSeparator()
	off := o.w.buf.WritePosition()
	o.w.must(o.w.buf.WriteString(padInt(int64(v), int32RefWidth)))
	if o.w.werr != nil {
		return nil, o.w.werr
	}
	return newTextInt32Ref(o.w.buf, off), nil
}

func (o *csvValueOut) Int64Ref(v int64) (*Int64Ref, error) {
	o.w.cellSeparator()
	off := o.w.buf.WritePosition()
	o.w.must(o.w.buf.WriteString(padInt(v, int64RefWidth)))
	if o.w.werr != nil {
		return nil, o.w.werr
	}
	return newTextInt64Ref(o.w.buf, off), nil
}

// Int64ArrayRef 的槽位含逗号分隔符，整体落在一个引用的单元格内。
func (o *csvValueOut) Int64ArrayRef(capacity int) (*Int64ArrayRef, error) {
	o.w.cellSeparator()
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

// Compress 在 CSV 侧写中降级为未压缩的 base64 单元格。
func (o *csvValueOut) Compress(_ string, data []byte) error {
	return o.Bytes(data)
}

func (o *csvValueOut) Object(v any) error {
	return writeObject(o, v)
}

// ReadDocument 绑定到下一行并解析其单元格。
func (w *CSVWire) ReadDocument(metaData func(r WireIn) error, data func(r WireIn) error) (bool, error) {
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
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	cells, err := reader.Read()
	if err != nil {
		return true, werr.WrapErrTypeMismatch(werr.Excerpt(payload), "csv", pos)
	}
	w.cur = csvValueIn{w: w, cells: cells}
	cb := data
	if ctx.metaData {
		cb = metaData
	}
	if cb == nil {
		return true, nil
	}
	return true, cb(w)
}

// Read 返回下一个单元格的读取器；名字被忽略，匹配按位置。
func (w *CSVWire) Read(string) ValueIn { return &w.cur }

// ReadEvent 返回下一个单元格，事件名为空。
func (w *CSVWire) ReadEvent() (string, ValueIn, error) {
	if !w.cur.HasNext() {
		return "", nil, werr.WrapErrUnexpectedField("", w.buf.ReadPosition())
	}
	return "", &w.cur, nil
}

// GetValueIn 返回单元格读取器。
func (w *CSVWire) GetValueIn() ValueIn { return &w.cur }

// CopyOne 把当前单元格翻译到另一个写出面。
func (w *CSVWire) CopyOne(out WireOut) error {
	return copyValue(&w.cur, out.GetValueOut())
}

// csvValueIn 是一行单元格上的位置游标。
type csvValueIn struct {
	w     *CSVWire
	cells []string
	idx   int
}

func (in *csvValueIn) cell() (string, error) {
	if in.idx >= len(in.cells) {
		return "", werr.WrapErrTruncation(1, 0, -1)
	}
	return in.cells[in.idx], nil
}

func (in *csvValueIn) pullInt(min, max int64, width string) (int64, error) {
	s, err := in.cell()
	if err != nil {
		return 0, err
	}
	kind, iv, uv, _ := parseNumberToken(s)
	var v int64
	switch kind {
	case numberInt:
		v = iv
	case numberUint:
		if uv > math.MaxInt64 {
			return 0, werr.WrapErrRangeViolation(uv, width, -1)
		}
		v = int64(uv)
	default:
		return 0, werr.WrapErrTypeMismatch(s, width, -1)
	}
	if v < min || v > max {
		return 0, werr.WrapErrRangeViolation(v, width, -1)
	}
	in.idx++
	return v, nil
}

func (in *csvValueIn) Bool() (bool, error) {
	s, err := in.cell()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(s) {
	case "true":
		in.idx++
		return true, nil
	case "false":
		in.idx++
		return false, nil
	}
	return false, werr.WrapErrTypeMismatch(s, "bool", -1)
}

func (in *csvValueIn) Int8() (int8, error) {
	v, err := in.pullInt(math.MinInt8, math.MaxInt8, "int8")
	return int8(v), err
}

func (in *csvValueIn) Uint8() (uint8, error) {
	v, err := in.pullInt(0, math.MaxUint8, "uint8")
	return uint8(v), err
}

func (in *csvValueIn) Int16() (int16, error) {
	v, err := in.pullInt(math.MinInt16, math.MaxInt16, "int16")
	return int16(v), err
}

func (in *csvValueIn) Uint16() (uint16, error) {
	v, err := in.pullInt(0, math.MaxUint16, "uint16")
	return uint16(v), err
}

func (in *csvValueIn) Int32() (int32, error) {
	v, err := in.pullInt(math.MinInt32, math.MaxInt32, "int32")
	return int32(v), err
}

func (in *csvValueIn) Uint32() (uint32, error) {
	v, err := in.pullInt(0, math.MaxUint32, "uint32")
	return uint32(v), err
}

func (in *csvValueIn) Int64() (int64, error) {
	return in.pullInt(math.MinInt64, math.MaxInt64, "int64")
}

func (in *csvValueIn) Uint64() (uint64, error) {
	s, err := in.cell()
	if err != nil {
		return 0, err
	}
	kind, iv, uv, _ := parseNumberToken(s)
	switch kind {
	case numberInt:
		if iv < 0 {
			return 0, werr.WrapErrRangeViolation(iv, "uint64", -1)
		}
		in.idx++
		return uint64(iv), nil
	case numberUint:
		in.idx++
		return uv, nil
	}
	return 0, werr.WrapErrTypeMismatch(s, "uint64", -1)
}

func (in *csvValueIn) Float32() (float32, error) {
	v, err := in.Float64()
	return float32(v), err
}

func (in *csvValueIn) Float64() (float64, error) {
	s, err := in.cell()
	if err != nil {
		return 0, err
	}
	kind, _, _, fv := parseNumberToken(s)
	if kind == numberInvalid {
		return 0, werr.WrapErrTypeMismatch(s, "float64", -1)
	}
	in.idx++
	return fv, nil
}

func (in *csvValueIn) Text() (string, error) {
	s, err := in.cell()
	if err != nil {
		return "", err
	}
	in.idx++
	return s, nil
}

func (in *csvValueIn) Bytes() ([]byte, error) {
	s, err := in.Text()
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		in.idx--
		return nil, werr.WrapErrTypeMismatch(s, "base64", -1)
	}
	return decoded, nil
}

func (in *csvValueIn) scalarCell(want string, parse func(string) error) error {
	s, err := in.cell()
	if err != nil {
		return err
	}
	if err := parse(s); err != nil {
		return werr.WrapErrTypeMismatch(s, want, -1)
	}
	in.idx++
	return nil
}

func (in *csvValueIn) Time() (LocalTime, error) {
	var out LocalTime
	err := in.scalarCell("time", func(s string) error {
		v, err := ParseLocalTime(s)
		out = v
		return err
	})
	return out, err
}

func (in *csvValueIn) Date() (LocalDate, error) {
	var out LocalDate
	err := in.scalarCell("date", func(s string) error {
		v, err := ParseLocalDate(s)
		out = v
		return err
	})
	return out, err
}

func (in *csvValueIn) DateTime() (LocalDateTime, error) {
	var out LocalDateTime
	err := in.scalarCell("date-time", func(s string) error {
		v, err := ParseLocalDateTime(s)
		out = v
		return err
	})
	return out, err
}

func (in *csvValueIn) ZonedDateTime() (time.Time, error) {
	var out time.Time
	err := in.scalarCell("zoned-date-time", func(s string) error {
		v, err := ParseZoned(s)
		out = v
		return err
	})
	return out, err
}

func (in *csvValueIn) UUID() (uuid.UUID, error) {
	var out uuid.UUID
	err := in.scalarCell("uuid", func(s string) error {
		v, err := uuid.Parse(s)
		out = v
		return err
	})
	return out, err
}

func (in *csvValueIn) TypeLiteral() (TypeName, error) {
	s, err := in.Text()
	return TypeName(s), err
}

// TypePrefix 在 CSV 侧写中不存在，永远报告缺席。
func (in *csvValueIn) TypePrefix() (string, bool, error) { return "", false, nil }

// IsNull 在当前单元格为空时消费它并返回 true。
func (in *csvValueIn) IsNull() (bool, error) {
	s, err := in.cell()
	if err != nil {
		return false, err
	}
	if s == "" {
		in.idx++
		return true, nil
	}
	return false, nil
}

func (in *csvValueIn) Present() bool { return true }

func (in *csvValueIn) HasNext() bool { return in.idx < len(in.cells) }

// ReadLength 返回当前单元格的字节数。
func (in *csvValueIn) ReadLength() (int, error) {
	s, err := in.cell()
	if err != nil {
		return 0, err
	}
	return len(s), nil
}

func (in *csvValueIn) Skip() error {
	if _, err := in.cell(); err != nil {
		return err
	}
	in.idx++
	return nil
}

// Sequence 在平铺的行上迭代余下的单元格。
func (in *csvValueIn) Sequence(read ReadValue) error {
	return read(in)
}

// Record 在平铺的行上继续按位置读取。
func (in *csvValueIn) Record(read func(r WireIn) error) error {
	return read(in.w)
}

func (in *csvValueIn) Marshallable(m Unmarshaler) error {
	return in.Record(m.ReadWire)
}

var errCSVRefUnsupported = errors.New("wire: csv profile cannot bind reference cells")

func (in *csvValueIn) Int32Ref() (*Int32Ref, error)           { return nil, errCSVRefUnsupported }
func (in *csvValueIn) Int64Ref() (*Int64Ref, error)           { return nil, errCSVRefUnsupported }
func (in *csvValueIn) Int64ArrayRef() (*Int64ArrayRef, error) { return nil, errCSVRefUnsupported }

func (in *csvValueIn) Object(dst any) error {
	return readObject(in, dst)
}

// ObjectAny 把当前单元格读成其最自然的表示。
func (in *csvValueIn) ObjectAny() (any, error) {
	s, err := in.cell()
	if err != nil {
		return nil, err
	}
	in.idx++
	if s == "" {
		return nil, nil
	}
	return classifyToken(s), nil
}
