// Package wire 实现了一个多格式的线上序列化引擎：
// 同一套写入/读取契约（ValueOut/ValueIn）之上，提供人类可读的文本编码
// （YAML 方言）与紧凑的自描述二进制编码，并以长度前缀的文档（document）
// 为单位在同一缓冲区中承载多条独立记录。
//
// 典型用法（写出）：
//
//	w := wire.NewTextWire(buf)
//	err := w.WriteDocument(false, func(w wire.WireOut) error {
//	    return w.Write("greeting").Text("hello")
//	})
//
// 典型用法（读入）：
//
//	r := wire.NewTextWire(buf)
//	_, err := r.ReadDocument(nil, func(r wire.WireIn) error {
//	    s, err := r.Read("greeting").Text()
//	    ...
//	})
package wire

import (
	"time"

	"github.com/google/uuid"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

// WriteValue 是向 ValueOut 写出一个值的回调。
type WriteValue func(out ValueOut) error

// ReadValue 是从 ValueIn 读入一个值的回调。
type ReadValue func(in ValueIn) error

// Marshaler 表示能把自身字段写入 WireOut 的记录类型。
type Marshaler interface {
	WriteWire(out WireOut) error
}

// Unmarshaler 表示能从 WireIn 恢复自身字段的记录类型。
type Unmarshaler interface {
	ReadWire(in WireIn) error
}

// Marshallable 是可完整往返的记录类型。
//
// 不实现该接口的 struct 仍可通过反射描述符（marshaller）被序列化。
type Marshallable interface {
	Marshaler
	Unmarshaler
}

// ValueOut 是统一的值写出契约：
// 对值域中的每种标量提供一个写出方法，对序列/映射/记录提供复合写出方法。
//
// 约定：
//   - 标量写出在各自定义域上总是成功；宽度收窄越界由读取侧报 range-violation；
//   - TypePrefix 写出的值在读取时按该类型变体解码；
//   - Null 写出编码各自的空哨兵，读取侧必须原样呈现 null；
//   - Leaf 提示编码器在可行时将下一个复合值排版在一行内。
type ValueOut interface {
	Bool(v bool) error
	Int8(v int8) error
	Uint8(v uint8) error
	Int16(v int16) error
	Uint16(v uint16) error
	Int32(v int32) error
	Uint32(v uint32) error
	Int64(v int64) error
	Uint64(v uint64) error
	Float32(v float32) error
	Float64(v float64) error
	Text(s string) error
	Bytes(b []byte) error
	Time(t LocalTime) error
	Date(d LocalDate) error
	DateTime(dt LocalDateTime) error
	ZonedDateTime(t time.Time) error
	UUID(u uuid.UUID) error

	// TypePrefix 为下一个值附加类型标签（文本形如 `!Tag `）。
	TypePrefix(tag string) error
	// TypeLiteral 写出一个“类型字面量”值（文本形如 `!type Name`）。
	TypeLiteral(name TypeName) error
	// Null 写出空哨兵。
	Null() error
	// Leaf 提示编码器将下一个复合值尽量排版在一行内。
	Leaf(on bool)

	// Sequence 写出一个有序序列，write 在序列作用域内逐项写出。
	Sequence(write WriteValue) error
	// Record 写出一个命名字段复合值，write 收到嵌套的字段写入器。
	Record(write func(out WireOut) error) error
	// Marshallable 写出一个记录值。
	Marshallable(m Marshaler) error

	// Int32Ref 预留一个定宽 32 位槽位并返回其引用单元。
	Int32Ref(v int32) (*Int32Ref, error)
	// Int64Ref 预留一个定宽 64 位槽位并返回其引用单元。
	Int64Ref(v int64) (*Int64Ref, error)
	// Int64ArrayRef 预留一个定宽 64 位数组槽位并返回其引用单元。
	Int64ArrayRef(capacity int) (*Int64ArrayRef, error)

	// Compress 将 data 以指定编解码器包装为压缩子块；
	// 小于压缩阈值时按普通字节序列写出。
	Compress(codec string, data []byte) error

	// Object 按运行时类型选择最窄的写出方法；
	// 非标量非记录值回退到策略表（集合、映射、数组、枚举、错误值）。
	Object(v any) error
}

// ValueIn 是 ValueOut 的对偶：标量拉取、复合拉取、类型前缀探测、
// 长度测量（不前进游标）、跳过与空值判断。
//
// 约定：
//   - 整数拉取校验范围，存储值不适配请求宽度时报 range-violation，且游标不前进；
//   - 记录拉取把读上限收紧到记录的测量长度，越界读报 truncation；
//   - 序列拉取以 HasNext 判断是否还有条目。
type ValueIn interface {
	Bool() (bool, error)
	Int8() (int8, error)
	Uint8() (uint8, error)
	Int16() (int16, error)
	Uint16() (uint16, error)
	Int32() (int32, error)
	Uint32() (uint32, error)
	Int64() (int64, error)
	Uint64() (uint64, error)
	Float32() (float32, error)
	Float64() (float64, error)
	Text() (string, error)
	Bytes() ([]byte, error)
	Time() (LocalTime, error)
	Date() (LocalDate, error)
	DateTime() (LocalDateTime, error)
	ZonedDateTime() (time.Time, error)
	UUID() (uuid.UUID, error)
	TypeLiteral() (TypeName, error)

	// TypePrefix 在下一个值带类型标签时消费并返回该标签。
	TypePrefix() (tag string, ok bool, err error)
	// IsNull 在下一个值为空哨兵时消费它并返回 true。
	IsNull() (bool, error)
	// Present 报告该 ValueIn 是否绑定了真实的流内值；
	// 按名读取未命中时返回的占位读取器上为 false。
	Present() bool
	// HasNext 报告当前序列/记录作用域内是否还有条目。
	HasNext() bool

	// ReadLength 返回下一个值占用的字节跨度，不前进游标。
	ReadLength() (int, error)
	// Skip 跳过下一个值。
	Skip() error

	// Sequence 进入序列作用域，read 收到作用域内的读取器并以 HasNext 迭代。
	Sequence(read ReadValue) error
	// Record 进入记录作用域，read 收到嵌套的字段读取器。
	Record(read func(in WireIn) error) error
	// Marshallable 读入一个记录值。
	Marshallable(m Unmarshaler) error

	// Int32Ref 将游标处的定宽槽位绑定为引用单元。
	Int32Ref() (*Int32Ref, error)
	// Int64Ref 将游标处的定宽槽位绑定为引用单元。
	Int64Ref() (*Int64Ref, error)
	// Int64ArrayRef 将游标处的定宽数组槽位绑定为引用单元。
	Int64ArrayRef() (*Int64ArrayRef, error)

	// Object 按 dst 的声明类型从策略表选择读取策略；dst 必须是指针。
	Object(dst any) error
	// ObjectAny 读出下一个值的最自然表示（any-object 策略）。
	ObjectAny() (any, error)
}

// WireOut 是文档内的字段写出面。
type WireOut interface {
	// Write 写出字段名并返回其值写入器。field-less 编码下字段名被省略。
	Write(name string) ValueOut
	// WriteEventName 写出事件名（文档的首个字段名）。
	WriteEventName(name string) ValueOut
	// GetValueOut 返回不带字段名的值写入器。
	GetValueOut() ValueOut
	// WriteComment 写出一行注释（二进制编码写注释码，文本编码写 `# ...`）。
	WriteComment(comment string) error

	// WriteDocument 以文档为单位写出：进入时占位文档头，
	// write 返回后回填最终长度。metaData 标记 META 文档。
	WriteDocument(metaData bool, write func(w WireOut) error) error

	// Bytes 返回底层缓冲区。
	Bytes() *elastic.Buffer
}

// WireIn 是文档内的字段读取面。
type WireIn interface {
	// Read 按名定位字段并返回其值读取器。
	//
	// 字段不在当前位置时会向后扫描并记录沿途字段位置（乱序匹配）；
	// 找不到时返回占位读取器（Present() == false），各拉取返回零值。
	Read(name string) ValueIn
	// ReadEvent 读取下一个字段名与其值读取器。
	ReadEvent() (name string, in ValueIn, err error)
	// GetValueIn 返回不带字段名的值读取器。
	GetValueIn() ValueIn

	// ReadDocument 绑定到下一个已完成的文档并按 META/DATA 分发；
	// 返回是否存在完整文档。退出时游标越过整个文档。
	ReadDocument(metaData func(r WireIn) error, data func(r WireIn) error) (bool, error)

	// CopyOne 将当前值逐项翻译到另一个写出面（跨编码流拷贝）。
	CopyOne(out WireOut) error

	// Bytes 返回底层缓冲区。
	Bytes() *elastic.Buffer
}

// Wire 是绑定到一个缓冲区的编码器/解码器对。
//
// 单个 Wire 实例内部是单线程的；多个 Wire 可以共享同一缓冲区，
// 写入之间由文档头上的 CAS 协议串行化。
type Wire interface {
	WireOut
	WireIn

	// Type 返回该 Wire 的注册类型。
	Type() Type
}
