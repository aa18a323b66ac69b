package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
)

type StreamSuite struct {
	suite.Suite
}

func (s *StreamSuite) writeDocs(buf *elastic.Buffer, n int) {
	w := NewBinaryWire(buf)
	for i := 0; i < n; i++ {
		s.Require().NoError(w.WriteDocument(false, func(out WireOut) error {
			return out.Write("seq").Int64(int64(i))
		}))
	}
}

func (s *StreamSuite) readSeqs(buf *elastic.Buffer) []int64 {
	r := NewBinaryWire(buf)
	var got []int64
	for {
		present, err := r.ReadDocument(nil, func(in WireIn) error {
			n, err := in.Read("seq").Int64()
			if err != nil {
				return err
			}
			got = append(got, n)
			return nil
		})
		s.Require().NoError(err)
		if !present {
			break
		}
	}
	return got
}

func (s *StreamSuite) TestFlushAndPoll() {
	src := elastic.New(512)
	s.writeDocs(src, 3)

	var pipe bytes.Buffer
	flusher := NewStreamWriter(&pipe, src)
	flushed, err := flusher.Flush()
	s.NoError(err)
	s.Equal(3, flushed)
	s.Equal(src.WritePosition(), pipe.Len())

	// 再次刷新没有新文档。
	flushed, err = flusher.Flush()
	s.NoError(err)
	s.Equal(0, flushed)

	dst := elastic.New(512)
	puller := NewStreamReader(&pipe, dst)
	defer puller.Close()
	moved, err := puller.Poll()
	s.NoError(err)
	s.Equal(3, moved)

	s.Equal([]int64{0, 1, 2}, s.readSeqs(dst))
}

func (s *StreamSuite) TestIncrementalFlush() {
	src := elastic.New(512)
	s.writeDocs(src, 2)

	var pipe bytes.Buffer
	flusher := NewStreamWriter(&pipe, src)
	flushed, err := flusher.Flush()
	s.NoError(err)
	s.Equal(2, flushed)

	// 后续追加的文档从上次刷新处继续。
	w := NewBinaryWire(src)
	s.NoError(w.WriteDocument(false, func(out WireOut) error {
		return out.Write("seq").Int64(2)
	}))
	flushed, err = flusher.Flush()
	s.NoError(err)
	s.Equal(1, flushed)

	dst := elastic.New(512)
	puller := NewStreamReader(&pipe, dst)
	defer puller.Close()
	moved, err := puller.Poll()
	s.NoError(err)
	s.Equal(3, moved)
	s.Equal([]int64{0, 1, 2}, s.readSeqs(dst))
}

// 半条文档先到：Poll 暂存残段，凑齐后一次搬运整条。
func (s *StreamSuite) TestPartialDocumentStaging() {
	src := elastic.New(512)
	s.writeDocs(src, 2)

	var pipe bytes.Buffer
	flusher := NewStreamWriter(&pipe, src)
	_, err := flusher.Flush()
	s.NoError(err)

	wire := pipe.Bytes()
	var feed bytes.Buffer
	dst := elastic.New(512)
	puller := NewStreamReader(&feed, dst)
	defer puller.Close()

	// 只给出 2 字节，连头字都不完整。
	feed.Write(wire[:2])
	moved, err := puller.Poll()
	s.NoError(err)
	s.Equal(0, moved)

	// 给到第一条文档中途。
	cut := HeaderSize + 3
	feed.Write(wire[2:cut])
	moved, err = puller.Poll()
	s.NoError(err)
	s.Equal(0, moved)

	// 余下字节到齐后两条文档一起搬运。
	feed.Write(wire[cut:])
	moved, err = puller.Poll()
	s.NoError(err)
	s.Equal(2, moved)

	s.Equal([]int64{0, 1}, s.readSeqs(dst))
}

func (s *StreamSuite) TestPollEmptySource() {
	var feed bytes.Buffer
	dst := elastic.New(64)
	puller := NewStreamReader(&feed, dst)
	defer puller.Close()
	moved, err := puller.Poll()
	s.NoError(err)
	s.Equal(0, moved)
}

func TestStream(t *testing.T) {
	suite.Run(t, new(StreamSuite))
}
