package wire

import (
	"strconv"
	"strings"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// 引用单元（reference cell）是文档封口后仍可原位更新的定宽槽位。
//
// 写出时记录缓冲区偏移，文本形态为空格右对齐的定宽十进制字面量
// （更新不改变文档长度），二进制形态为小端定宽整数。
// 原子性经由底层缓冲区的 CAS 接口保证。

// Int32Ref 绑定一个 32 位整数槽位。
type Int32Ref struct {
	buf  *elastic.Buffer
	off  int
	text bool
}

func newTextInt32Ref(buf *elastic.Buffer, off int) *Int32Ref {
	return &Int32Ref{buf: buf, off: off, text: true}
}

func newBinaryInt32Ref(buf *elastic.Buffer, off int) *Int32Ref {
	return &Int32Ref{buf: buf, off: off}
}

// Offset 返回槽位在缓冲区内的偏移。
func (r *Int32Ref) Offset() int { return r.off }

// Get 返回槽位当前值。
func (r *Int32Ref) Get() (int32, error) {
	if r.text {
		v, err := readPaddedInt(r.buf, r.off, int32RefWidth)
		return int32(v), err
	}
	v, err := r.buf.Uint32LEAt(r.off)
	if err != nil {
		return 0, werr.WrapErrIoFailed(r.off, err)
	}
	return int32(v), nil
}

// Set 覆盖槽位值。
func (r *Int32Ref) Set(v int32) error {
	if r.text {
		return putPaddedInt(r.buf, r.off, int64(v), int32RefWidth)
	}
	if err := r.buf.PutUint32LEAt(r.off, uint32(v)); err != nil {
		return werr.WrapErrIoFailed(r.off, err)
	}
	return nil
}

// CompareAndSwap 在槽位仍为 old 时将其替换为 new。
func (r *Int32Ref) CompareAndSwap(old, new int32) (bool, error) {
	if r.text {
		return casPaddedInt(r.buf, r.off, int64(old), int64(new), int32RefWidth)
	}
	ok, err := r.buf.CompareAndSwapUint32(r.off, uint32(old), uint32(new))
	if err != nil {
		return false, werr.WrapErrIoFailed(r.off, err)
	}
	return ok, nil
}

// Int64Ref 绑定一个 64 位整数槽位。
type Int64Ref struct {
	buf  *elastic.Buffer
	off  int
	text bool
}

func newTextInt64Ref(buf *elastic.Buffer, off int) *Int64Ref {
	return &Int64Ref{buf: buf, off: off, text: true}
}

func newBinaryInt64Ref(buf *elastic.Buffer, off int) *Int64Ref {
	return &Int64Ref{buf: buf, off: off}
}

// Offset 返回槽位在缓冲区内的偏移。
func (r *Int64Ref) Offset() int { return r.off }

// Get 返回槽位当前值。
func (r *Int64Ref) Get() (int64, error) {
	if r.text {
		return readPaddedInt(r.buf, r.off, int64RefWidth)
	}
	v, err := r.buf.Uint64LEAt(r.off)
	if err != nil {
		return 0, werr.WrapErrIoFailed(r.off, err)
	}
	return int64(v), nil
}

// Set 覆盖槽位值。
func (r *Int64Ref) Set(v int64) error {
	if r.text {
		return putPaddedInt(r.buf, r.off, v, int64RefWidth)
	}
	if err := r.buf.PutUint64LEAt(r.off, uint64(v)); err != nil {
		return werr.WrapErrIoFailed(r.off, err)
	}
	return nil
}

// CompareAndSwap 在槽位仍为 old 时将其替换为 new。
func (r *Int64Ref) CompareAndSwap(old, new int64) (bool, error) {
	if r.text {
		return casPaddedInt(r.buf, r.off, old, new, int64RefWidth)
	}
	ok, err := r.buf.CompareAndSwapUint64(r.off, uint64(old), uint64(new))
	if err != nil {
		return false, werr.WrapErrIoFailed(r.off, err)
	}
	return ok, nil
}

// Add 对槽位执行原子加并返回新值。
func (r *Int64Ref) Add(delta int64) (int64, error) {
	if r.text {
		// 文本槽位没有定宽加法指令，以 CAS 循环实现。
		for {
			cur, err := r.Get()
			if err != nil {
				return 0, err
			}
			ok, err := r.CompareAndSwap(cur, cur+delta)
			if err != nil {
				return 0, err
			}
			if ok {
				return cur + delta, nil
			}
		}
	}
	v, err := r.buf.AddInt64(r.off, delta)
	if err != nil {
		return 0, werr.WrapErrIoFailed(r.off, err)
	}
	return v, nil
}

// Int64ArrayRef 绑定一段定宽 64 位整数槽位。
type Int64ArrayRef struct {
	buf      *elastic.Buffer
	off      int
	capacity int
	text     bool
}

// 文本形态下相邻槽位之间为 ", " 两个字节。
const textArraySlotStride = int64RefWidth + 2

func newTextInt64ArrayRef(buf *elastic.Buffer, off, capacity int) *Int64ArrayRef {
	return &Int64ArrayRef{buf: buf, off: off, capacity: capacity, text: true}
}

func newBinaryInt64ArrayRef(buf *elastic.Buffer, off, capacity int) *Int64ArrayRef {
	return &Int64ArrayRef{buf: buf, off: off, capacity: capacity}
}

// Capacity 返回槽位个数。
func (r *Int64ArrayRef) Capacity() int { return r.capacity }

func (r *Int64ArrayRef) slot(i int) (int, error) {
	if i < 0 || i >= r.capacity {
		return 0, werr.WrapErrIoFailed(r.off, elastic.ErrOutOfBounds)
	}
	if r.text {
		return r.off + i*textArraySlotStride, nil
	}
	return r.off + i*8, nil
}

// Get 返回第 i 个槽位的值。
func (r *Int64ArrayRef) Get(i int) (int64, error) {
	off, err := r.slot(i)
	if err != nil {
		return 0, err
	}
	cell := Int64Ref{buf: r.buf, off: off, text: r.text}
	return cell.Get()
}

// Set 覆盖第 i 个槽位的值。
func (r *Int64ArrayRef) Set(i int, v int64) error {
	off, err := r.slot(i)
	if err != nil {
		return err
	}
	cell := Int64Ref{buf: r.buf, off: off, text: r.text}
	return cell.Set(v)
}

// CompareAndSwap 在第 i 个槽位仍为 old 时将其替换为 new。
func (r *Int64ArrayRef) CompareAndSwap(i int, old, new int64) (bool, error) {
	off, err := r.slot(i)
	if err != nil {
		return false, err
	}
	cell := Int64Ref{buf: r.buf, off: off, text: r.text}
	return cell.CompareAndSwap(old, new)
}

func readPaddedInt(buf *elastic.Buffer, off, width int) (int64, error) {
	raw, err := buf.Slice(off, width)
	if err != nil {
		return 0, werr.WrapErrIoFailed(off, err)
	}
	token := strings.TrimSpace(string(raw))
	v, err := strconv.ParseInt(token, 10, 64)
	if err != nil {
		return 0, werr.WrapErrTypeMismatch(token, "int", off)
	}
	return v, nil
}

func putPaddedInt(buf *elastic.Buffer, off int, v int64, width int) error {
	if err := buf.PutAt(off, []byte(padInt(v, width))); err != nil {
		return werr.WrapErrIoFailed(off, err)
	}
	return nil
}

func casPaddedInt(buf *elastic.Buffer, off int, old, new int64, width int) (bool, error) {
	ok, err := buf.CompareAndSwapBytes(off, []byte(padInt(old, width)), []byte(padInt(new, width)))
	if err != nil {
		return false, werr.WrapErrIoFailed(off, err)
	}
	return ok, nil
}
