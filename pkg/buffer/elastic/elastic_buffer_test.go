package elastic

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type BufferSuite struct {
	suite.Suite
}

func (s *BufferSuite) TestNewRoundsToPowerOfTwo() {
	s.Equal(DefaultBufferSize, New(0).Capacity())
	s.Equal(64, New(64).Capacity())
	s.Equal(128, New(65).Capacity())
	s.Equal(2, New(1).Capacity())
}

func (s *BufferSuite) TestCursorsIndependent() {
	b := New(64)
	s.NoError(b.WriteString("hello"))
	s.Equal(5, b.WritePosition())
	s.Equal(0, b.ReadPosition())

	c, err := b.ReadByte()
	s.NoError(err)
	s.Equal(byte('h'), c)
	s.Equal(1, b.ReadPosition())
	s.Equal(5, b.WritePosition())
}

// 读上限默认跟随写游标，显式设置后固定。
func (s *BufferSuite) TestReadLimit() {
	b := New(64)
	s.NoError(b.WriteString("abcd"))
	s.False(b.ReadLimitExplicit())
	s.Equal(4, b.ReadLimit())
	s.Equal(4, b.ReadRemaining())

	b.SetReadLimit(2)
	s.True(b.ReadLimitExplicit())
	s.Equal(2, b.ReadLimit())

	_, err := b.ReadByte()
	s.NoError(err)
	_, err = b.ReadByte()
	s.NoError(err)
	_, err = b.ReadByte()
	s.ErrorIs(err, ErrIsEmpty)

	// 负值恢复跟随。
	b.SetReadLimit(-1)
	s.False(b.ReadLimitExplicit())
	s.Equal(4, b.ReadLimit())
	c, err := b.ReadByte()
	s.NoError(err)
	s.Equal(byte('c'), c)
}

func (s *BufferSuite) TestGrowthPreservesContents() {
	b := New(2)
	s.Equal(2, b.Capacity())
	s.NoError(b.WriteString("0123456789"))
	s.GreaterOrEqual(b.Capacity(), 10)
	s.Equal([]byte("0123456789"), b.Bytes())

	// 扩容后的新区域为零。
	c, err := b.At(b.Capacity() - 1)
	s.NoError(err)
	s.Equal(byte(0), c)
}

func (s *BufferSuite) TestWrapFixedCapacity() {
	backing := make([]byte, 4)
	b := Wrap(backing)
	s.NoError(b.WriteString("abcd"))
	s.ErrorIs(b.WriteByte('e'), ErrCapacityExceeded)
	// 包装写穿透到外部切片。
	s.Equal([]byte("abcd"), backing)
}

func (s *BufferSuite) TestWrapForRead() {
	b := WrapForRead([]byte("xy"))
	s.Equal(2, b.WritePosition())
	s.Equal(2, b.ReadRemaining())
	p, err := b.ReadBytes(2)
	s.NoError(err)
	s.Equal([]byte("xy"), p)
	_, err = b.ReadByte()
	s.ErrorIs(err, ErrIsEmpty)
}

func (s *BufferSuite) TestReadEmpty() {
	b := New(16)
	_, err := b.ReadByte()
	s.ErrorIs(err, ErrIsEmpty)
	_, err = b.PeekByte()
	s.ErrorIs(err, ErrIsEmpty)
	_, err = b.ReadBytes(1)
	s.ErrorIs(err, ErrIsEmpty)
}

func (s *BufferSuite) TestPeekDoesNotAdvance() {
	b := New(16)
	s.NoError(b.WriteByte(0x7F))
	c, err := b.PeekByte()
	s.NoError(err)
	s.Equal(byte(0x7F), c)
	s.Equal(0, b.ReadPosition())
}

func (s *BufferSuite) TestFixedWidthRoundTrip() {
	b := New(32)
	s.NoError(b.WriteUint16LE(0xBEEF))
	s.NoError(b.WriteUint32LE(0xDEADBEEF))
	s.NoError(b.WriteUint64LE(0x0102030405060708))

	v16, err := b.ReadUint16LE()
	s.NoError(err)
	s.EqualValues(0xBEEF, v16)
	v32, err := b.ReadUint32LE()
	s.NoError(err)
	s.EqualValues(0xDEADBEEF, v32)
	v64, err := b.ReadUint64LE()
	s.NoError(err)
	s.EqualValues(0x0102030405060708, v64)
}

// 绝对偏移访问不动游标。
func (s *BufferSuite) TestAbsoluteAccess() {
	b := New(32)
	s.NoError(b.WriteString("....data"))

	s.NoError(b.PutUint32LEAt(0, 0xCAFE))
	v, err := b.Uint32LEAt(0)
	s.NoError(err)
	s.EqualValues(0xCAFE, v)

	raw, err := b.Slice(4, 4)
	s.NoError(err)
	s.Equal([]byte("data"), raw)

	s.NoError(b.PutAt(4, []byte("DATA")))
	c, err := b.At(4)
	s.NoError(err)
	s.Equal(byte('D'), c)

	s.Equal(0, b.ReadPosition())
	s.Equal(8, b.WritePosition())

	_, err = b.At(-1)
	s.ErrorIs(err, ErrOutOfBounds)
	_, err = b.Slice(30, 8)
	s.ErrorIs(err, ErrOutOfBounds)
	s.ErrorIs(b.PutUint32LEAt(30, 1), ErrOutOfBounds)
}

func (s *BufferSuite) TestSkipReservesSlot() {
	b := New(32)
	s.NoError(b.WriteByte('a'))
	off, err := b.Skip(4)
	s.NoError(err)
	s.Equal(1, off)
	s.Equal(5, b.WritePosition())
	s.NoError(b.PutUint32LEAt(off, 7))
}

func (s *BufferSuite) TestCompareAndSwapUint32() {
	b := New(32)
	s.NoError(b.WriteUint32LE(10))

	ok, err := b.CompareAndSwapUint32(0, 10, 20)
	s.NoError(err)
	s.True(ok)

	ok, err = b.CompareAndSwapUint32(0, 10, 30)
	s.NoError(err)
	s.False(ok)

	v, err := b.Uint32LEAt(0)
	s.NoError(err)
	s.EqualValues(20, v)

	_, err = b.CompareAndSwapUint32(30, 0, 1)
	s.ErrorIs(err, ErrOutOfBounds)
}

func (s *BufferSuite) TestCompareAndSwapUint64() {
	b := New(32)
	s.NoError(b.WriteUint64LE(1))
	ok, err := b.CompareAndSwapUint64(0, 1, 2)
	s.NoError(err)
	s.True(ok)
	ok, err = b.CompareAndSwapUint64(0, 1, 3)
	s.NoError(err)
	s.False(ok)
}

func (s *BufferSuite) TestCompareAndSwapBytes() {
	b := New(32)
	s.NoError(b.WriteString("      42"))

	ok, err := b.CompareAndSwapBytes(0, []byte("      42"), []byte("     100"))
	s.NoError(err)
	s.True(ok)

	ok, err = b.CompareAndSwapBytes(0, []byte("      42"), []byte("     200"))
	s.NoError(err)
	s.False(ok)

	raw, err := b.Slice(0, 8)
	s.NoError(err)
	s.Equal([]byte("     100"), raw)

	// 新旧长度不一致直接拒绝。
	_, err = b.CompareAndSwapBytes(0, []byte("ab"), []byte("abc"))
	s.ErrorIs(err, ErrOutOfBounds)
}

func (s *BufferSuite) TestAddInt64() {
	b := New(32)
	s.NoError(b.WriteUint64LE(100))
	v, err := b.AddInt64(0, 5)
	s.NoError(err)
	s.EqualValues(105, v)
	v, err = b.AddInt64(0, -205)
	s.NoError(err)
	s.EqualValues(-100, v)
}

func (s *BufferSuite) TestReset() {
	b := New(16)
	s.NoError(b.WriteString("abc"))
	b.SetReadLimit(2)
	b.Reset()
	s.Equal(0, b.WritePosition())
	s.Equal(0, b.ReadPosition())
	s.False(b.ReadLimitExplicit())
	s.Equal(16, b.Capacity())
}

func (s *BufferSuite) TestSetPositionBounds() {
	b := New(16)
	s.NoError(b.SetWritePosition(16))
	s.ErrorIs(b.SetWritePosition(17), ErrOutOfBounds)
	s.ErrorIs(b.SetReadPosition(-1), ErrOutOfBounds)
}

func TestBuffer(t *testing.T) {
	suite.Run(t, new(BufferSuite))
}
