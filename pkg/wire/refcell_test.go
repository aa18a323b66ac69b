package wire

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

type RefCellSuite struct {
	suite.Suite
}

// 每种编码各跑一遍：引用单元的语义不随编码变化。
func (s *RefCellSuite) wires() map[string]func(*elastic.Buffer) Wire {
	return map[string]func(*elastic.Buffer) Wire{
		"text":   func(buf *elastic.Buffer) Wire { return NewTextWire(buf) },
		"binary": func(buf *elastic.Buffer) Wire { return NewBinaryWire(buf) },
	}
}

func (s *RefCellSuite) TestInt64RefInPlace() {
	for name, mk := range s.wires() {
		buf := elastic.New(256)
		w := mk(buf)

		var ref *Int64Ref
		err := w.WriteDocument(false, func(out WireOut) error {
			r, err := out.Write("counter").Int64Ref(7)
			if err != nil {
				return err
			}
			ref = r
			return nil
		})
		s.NoError(err, name)
		s.NotNil(ref, name)

		got, err := ref.Get()
		s.NoError(err, name)
		s.EqualValues(7, got, name)

		// 原位更新不改变文档长度。
		wposBefore := buf.WritePosition()
		s.NoError(ref.Set(42), name)
		s.Equal(wposBefore, buf.WritePosition(), name)
		got, err = ref.Get()
		s.NoError(err, name)
		s.EqualValues(42, got, name)

		swapped, err := ref.CompareAndSwap(42, 100)
		s.NoError(err, name)
		s.True(swapped, name)
		swapped, err = ref.CompareAndSwap(42, 5)
		s.NoError(err, name)
		s.False(swapped, name)

		after, err := ref.Add(5)
		s.NoError(err, name)
		s.EqualValues(105, after, name)

		// 文档提交后读取侧绑定同一个槽位。
		_, err = w.ReadDocument(nil, func(r WireIn) error {
			bound, err := r.Read("counter").Int64Ref()
			s.NoError(err, name)
			v, err := bound.Get()
			s.NoError(err, name)
			s.EqualValues(105, v, name)
			return nil
		})
		s.NoError(err, name)
	}
}

func (s *RefCellSuite) TestInt32Ref() {
	for name, mk := range s.wires() {
		buf := elastic.New(256)
		w := mk(buf)

		var ref *Int32Ref
		err := w.WriteDocument(false, func(out WireOut) error {
			r, err := out.Write("gauge").Int32Ref(-3)
			if err != nil {
				return err
			}
			ref = r
			return nil
		})
		s.NoError(err, name)

		got, err := ref.Get()
		s.NoError(err, name)
		s.EqualValues(-3, got, name)

		s.NoError(ref.Set(2048), name)
		swapped, err := ref.CompareAndSwap(2048, -1)
		s.NoError(err, name)
		s.True(swapped, name)
		got, err = ref.Get()
		s.NoError(err, name)
		s.EqualValues(-1, got, name)
	}
}

func (s *RefCellSuite) TestInt64ArrayRef() {
	for name, mk := range s.wires() {
		buf := elastic.New(512)
		w := mk(buf)

		var ref *Int64ArrayRef
		err := w.WriteDocument(false, func(out WireOut) error {
			r, err := out.Write("slots").Int64ArrayRef(4)
			if err != nil {
				return err
			}
			ref = r
			return nil
		})
		s.NoError(err, name)
		s.Equal(4, ref.Capacity(), name)

		for i := 0; i < 4; i++ {
			v, err := ref.Get(i)
			s.NoError(err, name)
			s.EqualValues(0, v, name)
		}

		s.NoError(ref.Set(2, 77), name)
		v, err := ref.Get(2)
		s.NoError(err, name)
		s.EqualValues(77, v, name)

		swapped, err := ref.CompareAndSwap(2, 77, 88)
		s.NoError(err, name)
		s.True(swapped, name)
		swapped, err = ref.CompareAndSwap(2, 77, 99)
		s.NoError(err, name)
		s.False(swapped, name)

		// 其它槽位不受影响。
		v, err = ref.Get(1)
		s.NoError(err, name)
		s.EqualValues(0, v, name)

		_, err = ref.Get(4)
		s.Error(err, name)
		s.Error(ref.Set(-1, 0), name)
	}
}

func TestRefCell(t *testing.T) {
	suite.Run(t, new(RefCellSuite))
}
