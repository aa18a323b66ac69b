package wire

// 二进制编码的前导码（lead code）表。
//
// 单字节前导码划分为四段：
//   - 0x00–0x7F 为内联非负小整数，值即码本身；
//   - 0x80–0xBF 为内联 UTF-8 字符串，低 6 位是长度，0xBF 为长形式
//     （uvarint 长度随后）；
//   - 0xC0–0xDF 为内联字段名，低 5 位是长度，0xDF 为长形式；
//   - 0xE0 以上为独立码；0xFF 引出双字节扩展码（复合值括号与引用单元）。
//
// 所有多字节数值载荷一律小端。
const (
	codeSmallIntMax = 0x7F

	codeStringBase = 0x80
	codeStringMask = 0x3F
	codeStringLong = 0xBF

	codeFieldBase = 0xC0
	codeFieldMask = 0x1F
	codeFieldLong = 0xDF

	codePadding     = 0xE0
	codeComment     = 0xE2
	codeTypePrefix  = 0xE6
	codeTypeLiteral = 0xE7
	codeCompressed  = 0xEB
	codeNull        = 0xEE
	codeFalse       = 0xEF
	codeTrue        = 0xF0

	codeTime     = 0xF1
	codeDate     = 0xF2
	codeDateTime = 0xF3
	codeZoned    = 0xF4
	codeUUID     = 0xF5
	codeBytes    = 0xF6

	codeInt8    = 0xF8
	codeInt16   = 0xF9
	codeInt32   = 0xFA
	codeInt64   = 0xFB
	codeFloat32 = 0xFC
	codeFloat64 = 0xFD
	codeUint64  = 0xFE

	codeExt = 0xFF
)

// 0xFF 之后的扩展码。
const (
	extSequenceStart = 0x01
	extSequenceEnd   = 0x02
	// extRecord 之后是 4 字节小端长度（回填），随后为记录体。
	extRecord = 0x03

	extInt32Ref      = 0x10
	extInt64Ref      = 0x11
	extInt64ArrayRef = 0x12
)

func isSmallInt(code byte) bool { return code <= codeSmallIntMax }

func isStringCode(code byte) bool {
	return code >= codeStringBase && code <= codeStringLong
}

func isFieldCode(code byte) bool {
	return code >= codeFieldBase && code <= codeFieldLong
}

func isIntCode(code byte) bool {
	return isSmallInt(code) ||
		code == codeInt8 || code == codeInt16 || code == codeInt32 ||
		code == codeInt64 || code == codeUint64
}

func isFloatCode(code byte) bool {
	return code == codeFloat32 || code == codeFloat64
}
