package wire

import (
	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// Type 标识一种注册的线上编码。
type Type int

const (
	// TypeText 是 YAML 方言的文本编码。
	TypeText Type = iota
	// TypeBinary 是自描述二进制编码。
	TypeBinary
	// TypeFieldlessBinary 是省略字段名的二进制编码，读取按位置匹配。
	TypeFieldlessBinary
	// TypeCompressedBinary 是字节序列自动压缩的二进制编码。
	TypeCompressedBinary
	// TypeRaw 是无文档头、无前导码定长标量的二进制编码。
	TypeRaw
	// TypeJSON 是 JSON 规则的文本侧写：字符串一律加引号，无类型前缀。
	TypeJSON
	// TypeCSV 是行导向的文本侧写：一条记录一行，一行一个文档。
	TypeCSV
	// TypeReadAny 只用于读取：按首字节嗅探实际编码。
	TypeReadAny
)

var typeNames = map[Type]string{
	TypeText:             "text",
	TypeBinary:           "binary",
	TypeFieldlessBinary:  "binary-fieldless",
	TypeCompressedBinary: "compressed-binary",
	TypeRaw:              "raw",
	TypeJSON:             "json",
	TypeCSV:              "csv",
	TypeReadAny:          "read-any",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// ParseType 将编码名解析为 Type。
func ParseType(s string) (Type, error) {
	for t, name := range typeNames {
		if name == s {
			return t, nil
		}
	}
	return TypeText, werr.WrapErrUnknownTypeTag(s, -1)
}

// Apply 创建一个该类型、绑定到 buf 的 Wire。
// TypeReadAny 先嗅探缓冲区再委派给实际编码。
func (t Type) Apply(buf *elastic.Buffer) Wire {
	return t.ApplyWithOptions(buf, DefaultOptions())
}

// ApplyWithOptions 同 Apply，但使用调用方给定的配置。
func (t Type) ApplyWithOptions(buf *elastic.Buffer, opts Options) Wire {
	switch t {
	case TypeText:
		return NewTextWireWithOptions(buf, opts)
	case TypeBinary:
		opts.FieldLess = false
		return NewBinaryWireWithOptions(buf, opts)
	case TypeFieldlessBinary:
		opts.FieldLess = true
		return NewBinaryWireWithOptions(buf, opts)
	case TypeCompressedBinary:
		return newBinaryWire(buf, opts, TypeCompressedBinary)
	case TypeRaw:
		return newBinaryWire(buf, opts, TypeRaw)
	case TypeJSON:
		return NewJSONWireWithOptions(buf, opts)
	case TypeCSV:
		return NewCSVWireWithOptions(buf, opts)
	case TypeReadAny:
		return SniffType(buf).ApplyWithOptions(buf, opts)
	default:
		return NewTextWireWithOptions(buf, opts)
	}
}

// SniffType 检查缓冲区的首个载荷字节判定实际编码。
//
// 判定规则：字段名码或其它高位前导码属于二进制；
// 可打印 ASCII（含换行、制表与 `-`/`{`/`"` 等文本方言起始字符）属于文本，
// 其中 `{`/`"` 开头一律判为 JSON。
// 空缓冲区按文本处理。
func SniffType(buf *elastic.Buffer) Type {
	pos := buf.ReadPosition()
	// 载荷从文档头之后开始；头字本身是两种编码共用的二进制。
	off := pos
	if buf.ReadRemaining() > HeaderSize {
		if header, err := buf.Uint32LEAt(pos); err == nil && IsReady(header) {
			off = pos + HeaderSize
		}
	}
	if off >= buf.ReadLimit() {
		return TypeText
	}
	b, err := buf.At(off)
	if err != nil {
		return TypeText
	}
	if b >= 0x80 {
		return TypeBinary
	}
	if b == '{' || b == '"' {
		return TypeJSON
	}
	if isTextLead(b) {
		return TypeText
	}
	return TypeBinary
}

func isTextLead(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '-', '!', '#', '\'', '[':
		return true
	}
	return b >= 0x20 && b < 0x7F
}
