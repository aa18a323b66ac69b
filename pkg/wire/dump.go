package wire

import (
	"strings"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

// 调试转储：把长度前缀的文档流渲染成人类可读的文本。
//
// 每个文档一段，段首是 `--- !!data` 或 `--- !!meta-data`，
// 二进制编码的文档追加 ` #binary` 并转码为文本方言。

// CopyTo 把 in 的下一个值逐项翻译到 out，用于跨编码流拷贝。
func CopyTo(in ValueIn, out ValueOut) error {
	return copyValue(in, out)
}

// AsText 把 r 的下一个文档转码为文本方言，返回文档体（不含头字）。
func AsText(r WireIn) (string, error) {
	scratch := elastic.New(256)
	tw := NewTextWire(scratch)
	var body string
	transcode := func(src WireIn) error {
		err := tw.WriteDocument(false, func(out WireOut) error {
			return transcodeInto(src, out)
		})
		if err != nil {
			return err
		}
		raw, err := scratch.Slice(HeaderSize, scratch.WritePosition()-HeaderSize)
		if err != nil {
			return err
		}
		body = string(raw)
		return nil
	}
	present, err := r.ReadDocument(transcode, transcode)
	if err != nil {
		return "", err
	}
	if !present {
		return "", nil
	}
	return body, nil
}

// transcodeInto 把 src 当前文档的每个事件翻译到 out。
func transcodeInto(src WireIn, out WireOut) error {
	vin := src.GetValueIn()
	for vin.HasNext() {
		name, ev, err := src.ReadEvent()
		if err != nil {
			return err
		}
		v, err := ev.ObjectAny()
		if err != nil {
			return err
		}
		if err := writeObject(out.Write(name), v); err != nil {
			return err
		}
	}
	return nil
}

// FromSizePrefixedBlobs 渲染 src 中从读位置起的所有完整文档。
// 调用方的游标不受影响。
func FromSizePrefixedBlobs(src *elastic.Buffer) string {
	clone := elastic.WrapForRead(src.Bytes())
	if err := clone.SetReadPosition(src.ReadPosition()); err != nil {
		return ""
	}
	var sb strings.Builder
	for {
		pos := clone.ReadPosition()
		header, err := clone.Uint32LEAt(pos)
		if err != nil {
			break
		}
		if header == NotInitialized || header == EndOfData || !IsReady(header) {
			break
		}
		end := pos + HeaderSize + LengthOf(header)
		t := SniffType(clone)
		if IsData(header) {
			sb.WriteString("--- !!data")
		} else {
			sb.WriteString("--- !!meta-data")
		}
		if t != TypeText && t != TypeJSON && t != TypeCSV {
			sb.WriteString(" #binary")
		}
		sb.WriteByte('\n')
		body, ok := dumpDocument(clone, t, pos, end)
		if !ok {
			break
		}
		sb.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			sb.WriteByte('\n')
		}
		if err := clone.SetReadPosition(end); err != nil {
			break
		}
	}
	return sb.String()
}

func dumpDocument(clone *elastic.Buffer, t Type, pos, end int) (string, bool) {
	if t == TypeText || t == TypeJSON || t == TypeCSV {
		raw, err := clone.Slice(pos+HeaderSize, end-pos-HeaderSize)
		if err != nil {
			return "", false
		}
		return strings.TrimLeft(string(raw), "\n"), true
	}
	r := t.Apply(clone)
	body, err := AsText(r)
	if err != nil {
		return "", false
	}
	return strings.TrimLeft(body, "\n"), true
}
