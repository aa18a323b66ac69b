package wire

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// BinaryWire 是紧凑自描述二进制编码的 Wire 实现。
//
// 整数写出采用最窄表示：非负小整数内联在前导码里，
// 其余按数值落在的最小宽度编码；读取侧按请求宽度做范围校验，
// 因此宽度收窄的语义与文本编码一致。
//
// 变体（由构造函数决定）：
//   - field-less：省略字段名码，读取方按位置定位字段；
//   - compressed：字节序列达到压缩阈值时自动按配置的编解码器压缩；
//   - raw：不写文档头，整个缓冲区是一条裸载荷。
type BinaryWire struct {
	buf  *elastic.Buffer
	opts Options

	wireType     Type
	autoCompress bool
	raw          bool

	out  binaryValueOut
	in   binaryValueIn
	werr error
}

// 编译期断言：BinaryWire 实现 Wire。
var _ Wire = (*BinaryWire)(nil)

// NewBinaryWire 创建一个绑定到 buf 的二进制 Wire。
func NewBinaryWire(buf *elastic.Buffer) *BinaryWire {
	return newBinaryWire(buf, DefaultOptions(), TypeBinary)
}

// NewBinaryWireWithOptions 创建一个带配置的二进制 Wire；
// opts.FieldLess 为 true 时得到 field-less 变体。
func NewBinaryWireWithOptions(buf *elastic.Buffer, opts Options) *BinaryWire {
	t := TypeBinary
	if opts.FieldLess {
		t = TypeFieldlessBinary
	}
	return newBinaryWire(buf, opts, t)
}

func newBinaryWire(buf *elastic.Buffer, opts Options, t Type) *BinaryWire {
	w := &BinaryWire{
		buf:      buf,
		opts:     opts,
		wireType: t,
	}
	switch t {
	case TypeCompressedBinary:
		w.autoCompress = true
	case TypeRaw:
		w.raw = true
	}
	w.out.w = w
	w.in.w = w
	w.in.reset()
	return w
}

// Type 返回该 Wire 的注册类型。
func (w *BinaryWire) Type() Type { return w.wireType }

// Bytes 返回底层缓冲区。
func (w *BinaryWire) Bytes() *elastic.Buffer { return w.buf }

func (w *BinaryWire) must(err error) {
	if err != nil && w.werr == nil {
		w.werr = werr.WrapErrIoFailed(w.buf.WritePosition(), err)
	}
}

// WriteDocument 以文档为单位写出；raw 变体不写文档头。
func (w *BinaryWire) WriteDocument(metaData bool, write func(out WireOut) error) error {
	w.werr = nil
	if w.raw {
		if err := write(w); err != nil {
			return err
		}
		return w.werr
	}
	var ctx writeContext
	if err := ctx.start(w.buf, metaData, w.Type().String()); err != nil {
		return err
	}
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

// Write 写出字段名码并返回值写入器；field-less 变体不写字段名。
func (w *BinaryWire) Write(name string) ValueOut {
	if !w.opts.FieldLess {
		w.writeFieldName(name)
	}
	return &w.out
}

// WriteEventName 写出事件名，即文档的首个字段。
func (w *BinaryWire) WriteEventName(name string) ValueOut {
	return w.Write(name)
}

// GetValueOut 返回不带字段名的值写入器。
func (w *BinaryWire) GetValueOut() ValueOut { return &w.out }

// WriteComment 写出注释码；读取侧当作空白跳过。
func (w *BinaryWire) WriteComment(comment string) error {
	w.must(w.buf.WriteByte(codeComment))
	w.writeStringPayload(comment)
	return w.werr
}

func (w *BinaryWire) writeFieldName(name string) {
	if len(name) < int(codeFieldMask) {
		w.must(w.buf.WriteByte(codeFieldBase | byte(len(name))))
		w.must(w.buf.WriteString(name))
		return
	}
	w.must(w.buf.WriteByte(codeFieldLong))
	w.writeUvarint(uint64(len(name)))
	w.must(w.buf.WriteString(name))
}

// writeStringPayload 写出一个字符串值（前导码 + 内容）。
func (w *BinaryWire) writeStringPayload(s string) {
	if len(s) < int(codeStringMask) {
		w.must(w.buf.WriteByte(codeStringBase | byte(len(s))))
		w.must(w.buf.WriteString(s))
		return
	}
	w.must(w.buf.WriteByte(codeStringLong))
	w.writeUvarint(uint64(len(s)))
	w.must(w.buf.WriteString(s))
}

func (w *BinaryWire) writeUvarint(v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	_, err := w.buf.Write(tmp[:n])
	w.must(err)
}

// writeInt 按数值选择最窄的整数表示。
func (w *BinaryWire) writeInt(v int64) {
	switch {
	case v >= 0 && v <= int64(codeSmallIntMax):
		w.must(w.buf.WriteByte(byte(v)))
	case v >= math.MinInt8 && v <= math.MaxInt8:
		w.must(w.buf.WriteByte(codeInt8))
		w.must(w.buf.WriteByte(byte(int8(v))))
	case v >= math.MinInt16 && v <= math.MaxInt16:
		w.must(w.buf.WriteByte(codeInt16))
		w.must(w.buf.WriteUint16LE(uint16(int16(v))))
	case v >= math.MinInt32 && v <= math.MaxInt32:
		w.must(w.buf.WriteByte(codeInt32))
		w.must(w.buf.WriteUint32LE(uint32(int32(v))))
	default:
		w.must(w.buf.WriteByte(codeInt64))
		w.must(w.buf.WriteUint64LE(uint64(v)))
	}
}

func (w *BinaryWire) writeUint(v uint64) {
	if v <= math.MaxInt64 {
		w.writeInt(int64(v))
		return
	}
	w.must(w.buf.WriteByte(codeUint64))
	w.must(w.buf.WriteUint64LE(v))
}

// binaryValueOut 是 BinaryWire 的 ValueOut 实现。
type binaryValueOut struct {
	w *BinaryWire
}

var _ ValueOut = (*binaryValueOut)(nil)

func (o *binaryValueOut) Bool(v bool) error {
	if v {
		o.w.must(o.w.buf.WriteByte(codeTrue))
	} else {
		o.w.must(o.w.buf.WriteByte(codeFalse))
	}
	return o.w.werr
}

func (o *binaryValueOut) Int8(v int8) error {
	o.w.writeInt(int64(v))
	return o.w.werr
}

func (o *binaryValueOut) Uint8(v uint8) error {
	o.w.writeUint(uint64(v))
	return o.w.werr
}

func (o *binaryValueOut) Int16(v int16) error {
	o.w.writeInt(int64(v))
	return o.w.werr
}

func (o *binaryValueOut) Uint16(v uint16) error {
	o.w.writeUint(uint64(v))
	return o.w.werr
}

func (o *binaryValueOut) Int32(v int32) error {
	o.w.writeInt(int64(v))
	return o.w.werr
}

func (o *binaryValueOut) Uint32(v uint32) error {
	o.w.writeUint(uint64(v))
	return o.w.werr
}

func (o *binaryValueOut) Int64(v int64) error {
	o.w.writeInt(v)
	return o.w.werr
}

func (o *binaryValueOut) Uint64(v uint64) error {
	o.w.writeUint(v)
	return o.w.werr
}

func (o *binaryValueOut) Float32(v float32) error {
	o.w.must(o.w.buf.WriteByte(codeFloat32))
	o.w.must(o.w.buf.WriteUint32LE(math.Float32bits(v)))
	return o.w.werr
}

func (o *binaryValueOut) Float64(v float64) error {
	o.w.must(o.w.buf.WriteByte(codeFloat64))
	o.w.must(o.w.buf.WriteUint64LE(math.Float64bits(v)))
	return o.w.werr
}

func (o *binaryValueOut) Text(s string) error {
	o.w.writeStringPayload(s)
	return o.w.werr
}

func (o *binaryValueOut) Bytes(b []byte) error {
	if o.w.autoCompress && len(b) >= o.w.opts.CompressionThreshold {
		return o.Compress(o.w.opts.CompressionCodec, b)
	}
	o.w.must(o.w.buf.WriteByte(codeBytes))
	o.w.writeUvarint(uint64(len(b)))
	_, err := o.w.buf.Write(b)
	o.w.must(err)
	return o.w.werr
}

func (o *binaryValueOut) Time(t LocalTime) error {
	o.w.must(o.w.buf.WriteByte(codeTime))
	o.w.must(o.w.buf.WriteUint64LE(uint64(t.NanosOfDay())))
	return o.w.werr
}

func (o *binaryValueOut) Date(d LocalDate) error {
	o.w.must(o.w.buf.WriteByte(codeDate))
	o.w.must(o.w.buf.WriteUint64LE(uint64(d.EpochDay())))
	return o.w.werr
}

func (o *binaryValueOut) DateTime(dt LocalDateTime) error {
	o.w.must(o.w.buf.WriteByte(codeDateTime))
	o.w.must(o.w.buf.WriteUint64LE(uint64(dt.Date.EpochDay())))
	o.w.must(o.w.buf.WriteUint64LE(uint64(dt.Time.NanosOfDay())))
	return o.w.werr
}

func (o *binaryValueOut) ZonedDateTime(t time.Time) error {
	o.w.must(o.w.buf.WriteByte(codeZoned))
	o.w.must(o.w.buf.WriteUint64LE(uint64(t.UnixNano())))
	o.w.writeStringPayload(t.Location().String())
	return o.w.werr
}

func (o *binaryValueOut) UUID(u uuid.UUID) error {
	o.w.must(o.w.buf.WriteByte(codeUUID))
	_, err := o.w.buf.Write(u[:])
	o.w.must(err)
	return o.w.werr
}

func (o *binaryValueOut) TypePrefix(tag string) error {
	o.w.must(o.w.buf.WriteByte(codeTypePrefix))
	o.w.writeStringPayload(o.w.opts.Aliases.Shorten(tag))
	return o.w.werr
}

func (o *binaryValueOut) TypeLiteral(name TypeName) error {
	o.w.must(o.w.buf.WriteByte(codeTypeLiteral))
	o.w.writeStringPayload(o.w.opts.Aliases.Shorten(string(name)))
	return o.w.werr
}

func (o *binaryValueOut) Null() error {
	o.w.must(o.w.buf.WriteByte(codeNull))
	return o.w.werr
}

// Leaf 对二进制编码没有排版意义。
func (o *binaryValueOut) Leaf(bool) {}

func (o *binaryValueOut) Sequence(write WriteValue) error {
	o.w.must(o.w.buf.WriteByte(codeExt))
	o.w.must(o.w.buf.WriteByte(extSequenceStart))
	if err := write(o); err != nil {
		return err
	}
	o.w.must(o.w.buf.WriteByte(codeExt))
	o.w.must(o.w.buf.WriteByte(extSequenceEnd))
	return o.w.werr
}

// Record 写出记录：扩展码后预留 4 字节长度槽位，记录体写完后回填。
func (o *binaryValueOut) Record(write func(out WireOut) error) error {
	w := o.w
	w.must(w.buf.WriteByte(codeExt))
	w.must(w.buf.WriteByte(extRecord))
	lenPos, err := w.buf.Skip(4)
	if err != nil {
		w.must(err)
		return w.werr
	}
	if err := write(w); err != nil {
		return err
	}
	bodyLen := w.buf.WritePosition() - lenPos - 4
	w.must(w.buf.PutUint32LEAt(lenPos, uint32(bodyLen)))
	return w.werr
}

func (o *binaryValueOut) Marshallable(m Marshaler) error {
	return o.Record(m.WriteWire)
}

func (o *binaryValueOut) Int32Ref(v int32) (*Int32Ref, error) {
	w := o.w
	w.must(w.buf.WriteByte(codeExt))
	w.must(w.buf.WriteByte(extInt32Ref))
	off := w.buf.WritePosition()
	w.must(w.buf.WriteUint32LE(uint32(v)))
	if w.werr != nil {
		return nil, w.werr
	}
	return newBinaryInt32Ref(w.buf, off), nil
}

func (o *binaryValueOut) Int64Ref(v int64) (*Int64Ref, error) {
	w := o.w
	w.must(w.buf.WriteByte(codeExt))
	w.must(w.buf.WriteByte(extInt64Ref))
	off := w.buf.WritePosition()
	w.must(w.buf.WriteUint64LE(uint64(v)))
	if w.werr != nil {
		return nil, w.werr
	}
	return newBinaryInt64Ref(w.buf, off), nil
}

func (o *binaryValueOut) Int64ArrayRef(capacity int) (*Int64ArrayRef, error) {
	w := o.w
	w.must(w.buf.WriteByte(codeExt))
	w.must(w.buf.WriteByte(extInt64ArrayRef))
	w.must(w.buf.WriteUint32LE(uint32(capacity)))
	off := w.buf.WritePosition()
	for i := 0; i < capacity; i++ {
		w.must(w.buf.WriteUint64LE(0))
	}
	if w.werr != nil {
		return nil, w.werr
	}
	return newBinaryInt64ArrayRef(w.buf, off, capacity), nil
}

func (o *binaryValueOut) Compress(codec string, data []byte) error {
	if len(data) < o.w.opts.CompressionThreshold {
		o.w.must(o.w.buf.WriteByte(codeBytes))
		o.w.writeUvarint(uint64(len(data)))
		_, err := o.w.buf.Write(data)
		o.w.must(err)
		return o.w.werr
	}
	packed, err := compressWith(codec, data)
	if err != nil {
		return err
	}
	o.w.must(o.w.buf.WriteByte(codeCompressed))
	o.w.writeStringPayload(codec)
	o.w.writeUvarint(uint64(len(packed)))
	_, werrs := o.w.buf.Write(packed)
	o.w.must(werrs)
	return o.w.werr
}

func (o *binaryValueOut) Object(v any) error {
	return writeObject(o, v)
}
