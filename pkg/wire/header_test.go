package wire

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/conc"
)

type HeaderSuite struct {
	suite.Suite
}

func (s *HeaderSuite) TestFlagPredicates() {
	s.True(IsReady(uint32(5)))
	s.True(IsReadyData(uint32(5)))
	s.False(IsReadyMetaData(uint32(5)))

	meta := MetaData | uint32(5)
	s.True(IsReady(meta))
	s.False(IsData(meta))
	s.True(IsReadyMetaData(meta))
	s.False(IsReadyData(meta))

	s.False(IsReady(NotInitialized))
	s.True(IsNotComplete(NotInitialized))
	s.True(IsNotComplete(NotCompleteUnknownLength))
	s.False(IsKnownLength(NotCompleteUnknownLength))
	s.True(IsKnownLength(NotComplete | uint32(7)))

	s.False(IsReady(EndOfData))
	s.Equal(5, LengthOf(uint32(5)))
	s.Equal(5, LengthOf(meta))
}

func (s *HeaderSuite) TestAcquireAndUpdate() {
	buf := elastic.New(64)
	pos, err := AcquireHeader(buf)
	s.NoError(err)
	s.Equal(0, pos)
	s.Equal(HeaderSize, buf.WritePosition())

	header, err := buf.Uint32LEAt(0)
	s.NoError(err)
	s.Equal(NotCompleteUnknownLength, header)

	_, err = buf.Write([]byte("hello"))
	s.NoError(err)
	s.NoError(UpdateHeader(buf, pos, false))

	header, err = buf.Uint32LEAt(0)
	s.NoError(err)
	s.True(IsReadyData(header))
	s.Equal(5, LengthOf(header))

	// 第二次占位落在上一条文档之后的边界上。
	pos, err = AcquireHeader(buf)
	s.NoError(err)
	s.Equal(HeaderSize+5, pos)
}

func (s *HeaderSuite) TestUpdateHeaderMeta() {
	buf := elastic.New(64)
	pos, err := AcquireHeader(buf)
	s.NoError(err)
	_, err = buf.Write([]byte{1, 2, 3})
	s.NoError(err)
	s.NoError(UpdateHeader(buf, pos, true))

	header, err := buf.Uint32LEAt(pos)
	s.NoError(err)
	s.True(IsReadyMetaData(header))
	s.Equal(3, LengthOf(header))
}

func (s *HeaderSuite) TestDocumentNumber() {
	buf := elastic.New(256)
	w := NewTextWire(buf)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("a").Int64(1)
	}))
	s.NoError(w.WriteDocument(true, func(out WireOut) error {
		return out.Write("b").Int64(2)
	}))
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("c").Int64(3)
	}))

	h0, err := buf.Uint32LEAt(0)
	s.NoError(err)
	p1 := HeaderSize + LengthOf(h0)
	h1, err := buf.Uint32LEAt(p1)
	s.NoError(err)
	p2 := p1 + HeaderSize + LengthOf(h1)

	n, err := DocumentNumber(buf, 0)
	s.NoError(err)
	s.Equal(0, n)
	n, err = DocumentNumber(buf, p1)
	s.NoError(err)
	s.Equal(1, n)
	// META 文档不占号。
	n, err = DocumentNumber(buf, p2)
	s.NoError(err)
	s.Equal(1, n)

	// 不落在文档边界上的偏移是非法的。
	_, err = DocumentNumber(buf, p1+1)
	s.Error(err)
}

func (s *HeaderSuite) TestConcurrentWriters() {
	const (
		writers      = 4
		docsPerWrite = 16
	)
	buf := elastic.New(4096)
	pool := conc.NewPool[int](writers)
	defer pool.Release()

	futures := make([]*conc.Future[int], 0, writers)
	for i := 0; i < writers; i++ {
		source := fmt.Sprintf("writer-%d", i)
		futures = append(futures, pool.Submit(func() (int, error) {
			w := NewBinaryWire(buf)
			for seq := 0; seq < docsPerWrite; seq++ {
				err := w.WriteDocument(false, func(out WireOut) error {
					if err := out.Write("source").Text(source); err != nil {
						return err
					}
					return out.Write("seq").Int64(int64(seq))
				})
				if err != nil {
					return seq, err
				}
			}
			return docsPerWrite, nil
		}))
	}
	s.NoError(conc.AwaitAll(futures...))

	// 每条文档完整落线，逐条越过后正好 writers*docsPerWrite 条。
	perWriter := make(map[string]int)
	r := NewBinaryWire(buf)
	total := 0
	for {
		present, err := r.ReadDocument(nil, func(in WireIn) error {
			src, err := in.Read("source").Text()
			if err != nil {
				return err
			}
			perWriter[src]++
			return nil
		})
		s.NoError(err)
		if !present {
			break
		}
		total++
	}
	s.Equal(writers*docsPerWrite, total)
	for i := 0; i < writers; i++ {
		s.Equal(docsPerWrite, perWriter[fmt.Sprintf("writer-%d", i)])
	}
}

func (s *HeaderSuite) TestAcquireHeaderContextBlocked() {
	buf := elastic.New(64)
	// 伪造一个他方尚未回填的占位头。
	_, err := buf.Skip(HeaderSize)
	s.NoError(err)
	s.NoError(buf.PutUint32LEAt(0, NotCompleteUnknownLength))

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err = AcquireHeaderContext(ctx, buf)
	s.Error(err)
}

func (s *HeaderSuite) TestAcquireHeaderContextFresh() {
	buf := elastic.New(64)
	pos, err := AcquireHeaderContext(context.Background(), buf)
	s.NoError(err)
	s.Equal(0, pos)
}

func TestHeader(t *testing.T) {
	suite.Run(t, new(HeaderSuite))
}
