// Package elastic 实现了一个带独立读/写游标的可增长字节缓冲区。
//
// 与 ring 缓冲区不同，elastic.Buffer 支持按绝对偏移随机访问，
// 这是回填文档头、引用单元原子更新等场景的前提。
package elastic

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/bits"
	"sync"
)

const (
	// DefaultBufferSize 是缓冲区的默认初始大小。
	DefaultBufferSize = 1024 // 1KB
)

// ErrIsEmpty 表示读游标已经追上写游标，没有可读数据。
var ErrIsEmpty = errors.New("elastic-buffer is empty")

// ErrCapacityExceeded 表示固定容量缓冲区（如内存映射窗口）已写满，无法扩容。
var ErrCapacityExceeded = errors.New("elastic-buffer capacity exceeded")

// ErrOutOfBounds 表示绝对偏移访问越过了缓冲区边界。
var ErrOutOfBounds = errors.New("elastic-buffer offset out of bounds")

// Buffer 是一个可增长的字节缓冲区。
//
// 约定：
//   - 写游标（wpos）只增不减，除非显式回退；
//   - 读游标（rpos）独立于写游标，读上限（limit）默认跟随写游标；
//   - 绝对偏移访问（At/PutAt 系列）不影响任何游标；
//   - 原子操作（CAS/Add 系列）相对本缓冲区内的其它原子操作串行化。
type Buffer struct {
	buf   []byte
	wpos  int
	rpos  int
	limit int  // 显式读上限；-1 表示跟随 wpos
	fixed bool // 固定容量（包装外部字节段时为 true）

	mu sync.Mutex // 串行化 CAS/Add 原子操作
}

// New 创建一个给定初始容量的 Buffer。
// size 会被向上取整为 2 的幂；size 为 0 时使用 DefaultBufferSize。
func New(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	size = ceilToPowerOfTwo(size)
	return &Buffer{
		buf:   make([]byte, size),
		limit: -1,
	}
}

// Wrap 包装一段外部分配的字节（例如内存映射窗口）。
//
// 说明：
//   - 包装后的缓冲区容量固定，写满返回 ErrCapacityExceeded；
//   - 写游标从 0 开始，读上限跟随写游标（初始为 0）。
func Wrap(b []byte) *Buffer {
	return &Buffer{
		buf:   b,
		limit: -1,
		fixed: true,
	}
}

// WrapForRead 包装一段只用于读取的字节：写游标与读上限都设到末尾。
func WrapForRead(b []byte) *Buffer {
	return &Buffer{
		buf:   b,
		wpos:  len(b),
		limit: -1,
		fixed: true,
	}
}

// Bytes 返回 [0, WritePosition) 区间的底层切片，调用方不应长期持有。
func (b *Buffer) Bytes() []byte {
	return b.buf[:b.wpos]
}

// Capacity 返回当前底层存储的大小。
func (b *Buffer) Capacity() int { return len(b.buf) }

// WritePosition 返回写游标。
func (b *Buffer) WritePosition() int { return b.wpos }

// SetWritePosition 将写游标移动到 pos。
// pos 必须落在 [0, Capacity]，否则返回 ErrOutOfBounds。
func (b *Buffer) SetWritePosition(pos int) error {
	if pos < 0 || pos > len(b.buf) {
		return ErrOutOfBounds
	}
	b.wpos = pos
	return nil
}

// ReadPosition 返回读游标。
func (b *Buffer) ReadPosition() int { return b.rpos }

// SetReadPosition 将读游标移动到 pos。
func (b *Buffer) SetReadPosition(pos int) error {
	if pos < 0 || pos > len(b.buf) {
		return ErrOutOfBounds
	}
	b.rpos = pos
	return nil
}

// ReadLimit 返回当前读上限；未显式设置时跟随写游标。
func (b *Buffer) ReadLimit() int {
	if b.limit < 0 {
		return b.wpos
	}
	return b.limit
}

// SetReadLimit 设置显式读上限；传入负值恢复为跟随写游标。
func (b *Buffer) SetReadLimit(limit int) {
	if limit > len(b.buf) {
		limit = len(b.buf)
	}
	b.limit = limit
}

// ReadLimitExplicit 报告读上限是否被显式设置（不跟随写游标）。
func (b *Buffer) ReadLimitExplicit() bool { return b.limit >= 0 }

// ReadRemaining 返回还可读取的字节数。
func (b *Buffer) ReadRemaining() int {
	return b.ReadLimit() - b.rpos
}

// Reset 将读写游标与读上限全部清零，底层存储保留复用。
func (b *Buffer) Reset() {
	b.wpos = 0
	b.rpos = 0
	b.limit = -1
}

// ensureWritable 保证从写游标起还有 n 字节可写，必要时扩容。
func (b *Buffer) ensureWritable(n int) error {
	need := b.wpos + n
	if need <= len(b.buf) {
		return nil
	}
	if b.fixed {
		return ErrCapacityExceeded
	}
	grown := make([]byte, ceilToPowerOfTwo(need))
	copy(grown, b.buf)
	b.buf = grown
	return nil
}

// WriteByte 在写游标处追加一个字节。
func (b *Buffer) WriteByte(c byte) error {
	if err := b.ensureWritable(1); err != nil {
		return err
	}
	b.buf[b.wpos] = c
	b.wpos++
	return nil
}

// Write 在写游标处追加 p，实现 io.Writer。
func (b *Buffer) Write(p []byte) (int, error) {
	if err := b.ensureWritable(len(p)); err != nil {
		return 0, err
	}
	copy(b.buf[b.wpos:], p)
	b.wpos += len(p)
	return len(p), nil
}

// WriteString 在写游标处追加字符串内容。
func (b *Buffer) WriteString(s string) error {
	if err := b.ensureWritable(len(s)); err != nil {
		return err
	}
	copy(b.buf[b.wpos:], s)
	b.wpos += len(s)
	return nil
}

// WriteUint32LE 在写游标处追加一个小端 uint32。
func (b *Buffer) WriteUint32LE(v uint32) error {
	if err := b.ensureWritable(4); err != nil {
		return err
	}
	binary.LittleEndian.PutUint32(b.buf[b.wpos:], v)
	b.wpos += 4
	return nil
}

// WriteUint64LE 在写游标处追加一个小端 uint64。
func (b *Buffer) WriteUint64LE(v uint64) error {
	if err := b.ensureWritable(8); err != nil {
		return err
	}
	binary.LittleEndian.PutUint64(b.buf[b.wpos:], v)
	b.wpos += 8
	return nil
}

// WriteUint16LE 在写游标处追加一个小端 uint16。
func (b *Buffer) WriteUint16LE(v uint16) error {
	if err := b.ensureWritable(2); err != nil {
		return err
	}
	binary.LittleEndian.PutUint16(b.buf[b.wpos:], v)
	b.wpos += 2
	return nil
}

// Skip 将写游标前进 n 字节（内容保持为当前值），用于预留定长槽位。
func (b *Buffer) Skip(n int) (offset int, err error) {
	if err := b.ensureWritable(n); err != nil {
		return 0, err
	}
	offset = b.wpos
	b.wpos += n
	return offset, nil
}

// ReadByte 从读游标处读取一个字节。
func (b *Buffer) ReadByte() (byte, error) {
	if b.rpos >= b.ReadLimit() {
		return 0, ErrIsEmpty
	}
	c := b.buf[b.rpos]
	b.rpos++
	return c, nil
}

// PeekByte 返回读游标处的字节但不前进游标。
func (b *Buffer) PeekByte() (byte, error) {
	if b.rpos >= b.ReadLimit() {
		return 0, ErrIsEmpty
	}
	return b.buf[b.rpos], nil
}

// Read 实现 io.Reader。
func (b *Buffer) Read(p []byte) (int, error) {
	n := b.ReadRemaining()
	if n == 0 {
		return 0, ErrIsEmpty
	}
	if n > len(p) {
		n = len(p)
	}
	copy(p, b.buf[b.rpos:b.rpos+n])
	b.rpos += n
	return n, nil
}

// ReadBytes 读取 n 字节；可读数据不足时返回 ErrIsEmpty。
// 返回的切片指向底层存储，调用方如需持有应自行拷贝。
func (b *Buffer) ReadBytes(n int) ([]byte, error) {
	if b.ReadRemaining() < n {
		return nil, ErrIsEmpty
	}
	p := b.buf[b.rpos : b.rpos+n]
	b.rpos += n
	return p, nil
}

// ReadUint16LE 从读游标处读取一个小端 uint16。
func (b *Buffer) ReadUint16LE() (uint16, error) {
	p, err := b.ReadBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(p), nil
}

// ReadUint32LE 从读游标处读取一个小端 uint32。
func (b *Buffer) ReadUint32LE() (uint32, error) {
	p, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(p), nil
}

// ReadUint64LE 从读游标处读取一个小端 uint64。
func (b *Buffer) ReadUint64LE() (uint64, error) {
	p, err := b.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(p), nil
}

// At 返回偏移 off 处的字节，不影响游标。
func (b *Buffer) At(off int) (byte, error) {
	if off < 0 || off >= len(b.buf) {
		return 0, ErrOutOfBounds
	}
	return b.buf[off], nil
}

// Slice 返回 [off, off+n) 的只读视图，不影响游标。
func (b *Buffer) Slice(off, n int) ([]byte, error) {
	if off < 0 || off+n > len(b.buf) {
		return nil, ErrOutOfBounds
	}
	return b.buf[off : off+n], nil
}

// PutAt 将 p 覆盖写入偏移 off 处，不影响游标。
func (b *Buffer) PutAt(off int, p []byte) error {
	if off < 0 || off+len(p) > len(b.buf) {
		return ErrOutOfBounds
	}
	copy(b.buf[off:], p)
	return nil
}

// Uint32LEAt 读取偏移 off 处的小端 uint32，不影响游标。
func (b *Buffer) Uint32LEAt(off int) (uint32, error) {
	if off < 0 || off+4 > len(b.buf) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint32(b.buf[off:]), nil
}

// PutUint32LEAt 将小端 uint32 覆盖写入偏移 off 处。
func (b *Buffer) PutUint32LEAt(off int, v uint32) error {
	if off < 0 || off+4 > len(b.buf) {
		return ErrOutOfBounds
	}
	binary.LittleEndian.PutUint32(b.buf[off:], v)
	return nil
}

// Uint64LEAt 读取偏移 off 处的小端 uint64，不影响游标。
func (b *Buffer) Uint64LEAt(off int) (uint64, error) {
	if off < 0 || off+8 > len(b.buf) {
		return 0, ErrOutOfBounds
	}
	return binary.LittleEndian.Uint64(b.buf[off:]), nil
}

// PutUint64LEAt 将小端 uint64 覆盖写入偏移 off 处。
func (b *Buffer) PutUint64LEAt(off int, v uint64) error {
	if off < 0 || off+8 > len(b.buf) {
		return ErrOutOfBounds
	}
	binary.LittleEndian.PutUint64(b.buf[off:], v)
	return nil
}

// CompareAndSwapUint32 对偏移 off 处的小端 uint32 执行 CAS。
//
// 原子性相对本缓冲区内的其它 CAS/Add 调用成立；
// 跨进程共享映射内存时，外部需要保证同样经由本接口访问。
func (b *Buffer) CompareAndSwapUint32(off int, old, new uint32) (bool, error) {
	if off < 0 || off+4 > len(b.buf) {
		return false, ErrOutOfBounds
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := binary.LittleEndian.Uint32(b.buf[off:])
	if cur != old {
		return false, nil
	}
	binary.LittleEndian.PutUint32(b.buf[off:], new)
	return true, nil
}

// CompareAndSwapUint64 对偏移 off 处的小端 uint64 执行 CAS。
func (b *Buffer) CompareAndSwapUint64(off int, old, new uint64) (bool, error) {
	if off < 0 || off+8 > len(b.buf) {
		return false, ErrOutOfBounds
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := binary.LittleEndian.Uint64(b.buf[off:])
	if cur != old {
		return false, nil
	}
	binary.LittleEndian.PutUint64(b.buf[off:], new)
	return true, nil
}

// CompareAndSwapBytes 对偏移 off 处的定长字节段执行 CAS。
// old 与 new 必须等长；定宽文本槽位的原位更新经由该接口串行化。
func (b *Buffer) CompareAndSwapBytes(off int, old, new []byte) (bool, error) {
	if len(old) != len(new) {
		return false, ErrOutOfBounds
	}
	if off < 0 || off+len(old) > len(b.buf) {
		return false, ErrOutOfBounds
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if !bytes.Equal(b.buf[off:off+len(old)], old) {
		return false, nil
	}
	copy(b.buf[off:], new)
	return true, nil
}

// AddInt64 对偏移 off 处的小端 int64 执行原子加，返回新值。
func (b *Buffer) AddInt64(off int, delta int64) (int64, error) {
	if off < 0 || off+8 > len(b.buf) {
		return 0, ErrOutOfBounds
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	cur := int64(binary.LittleEndian.Uint64(b.buf[off:]))
	cur += delta
	binary.LittleEndian.PutUint64(b.buf[off:], uint64(cur))
	return cur, nil
}

// ceilToPowerOfTwo 将 n 向上取整为 2 的幂。
func ceilToPowerOfTwo(n int) int {
	if n <= 2 {
		return 2
	}
	if n&(n-1) == 0 {
		return n
	}
	return 1 << bits.Len(uint(n))
}
