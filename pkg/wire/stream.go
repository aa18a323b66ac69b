package wire

import (
	"encoding/binary"
	"io"

	"github.com/lk2023060901/wire-garden-go/internal/pool/ringbuffer"
	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/buffer/ring"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// 文档流搬运：把长度前缀的文档在缓冲区与 io.Reader/io.Writer 之间
// 整条整条地搬运，半条文档永远不会越过边界。

// StreamWriter 把缓冲区内已完成的文档按序刷给底层 io.Writer。
type StreamWriter struct {
	dst     io.Writer
	buf     *elastic.Buffer
	flushed int
}

// NewStreamWriter 创建从 buf 起点开始刷出的 StreamWriter。
func NewStreamWriter(dst io.Writer, buf *elastic.Buffer) *StreamWriter {
	return &StreamWriter{dst: dst, buf: buf}
}

// Flush 把上次刷出位置之后所有已完成的文档写给 dst，
// 返回刷出的文档数。遇到未完成头字即停，下次再续。
func (s *StreamWriter) Flush() (int, error) {
	count := 0
	pos := s.flushed
	for {
		header, err := s.buf.Uint32LEAt(pos)
		if err != nil {
			break
		}
		if !IsReady(header) {
			break
		}
		pos += HeaderSize + LengthOf(header)
		count++
	}
	if pos == s.flushed {
		return 0, nil
	}
	chunk, err := s.buf.Slice(s.flushed, pos-s.flushed)
	if err != nil {
		return 0, werr.WrapErrIoFailed(s.flushed, err)
	}
	if _, err := s.dst.Write(chunk); err != nil {
		return 0, werr.WrapErrIoFailed(s.flushed, err)
	}
	s.flushed = pos
	return count, nil
}

// StreamReader 从 io.Reader 拉取字节流，把完整文档搬进缓冲区。
// 暂存区取自环形缓冲区池，Close 时归还。
type StreamReader struct {
	src     io.Reader
	staging *ring.Buffer
	buf     *elastic.Buffer
}

// NewStreamReader 创建把 src 的文档搬进 buf 的 StreamReader。
func NewStreamReader(src io.Reader, buf *elastic.Buffer) *StreamReader {
	return &StreamReader{
		src:     src,
		staging: ringbuffer.Get(),
		buf:     buf,
	}
}

// Poll 把 src 可读的字节拉进暂存区，再把其中的完整文档
// 逐条搬进缓冲区，返回搬运的文档数。
// 残留的半条文档留在暂存区，等下次 Poll 续齐。
func (s *StreamReader) Poll() (int, error) {
	if _, err := s.staging.ReadFrom(s.src); err != nil {
		return 0, werr.WrapErrIoFailed(s.buf.WritePosition(), err)
	}
	moved := 0
	for {
		total, ok := s.nextDocumentSize()
		if !ok {
			break
		}
		if err := s.moveDocument(total); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// nextDocumentSize 报告暂存区头部是否已有一条完整文档。
func (s *StreamReader) nextDocumentSize() (int, bool) {
	if s.staging.Buffered() < HeaderSize {
		return 0, false
	}
	head, tail := s.staging.Peek(HeaderSize)
	var word [HeaderSize]byte
	n := copy(word[:], head)
	copy(word[n:], tail)
	header := binary.LittleEndian.Uint32(word[:])
	if !IsReady(header) {
		return 0, false
	}
	total := HeaderSize + LengthOf(header)
	if s.staging.Buffered() < total {
		return 0, false
	}
	return total, true
}

func (s *StreamReader) moveDocument(total int) error {
	chunk := make([]byte, total)
	if _, err := io.ReadFull(s.staging, chunk); err != nil {
		return werr.WrapErrIoFailed(s.buf.WritePosition(), err)
	}
	if _, err := s.buf.Write(chunk); err != nil {
		return werr.WrapErrIoFailed(s.buf.WritePosition(), err)
	}
	return nil
}

// Close 归还暂存缓冲区，StreamReader 此后不可再用。
func (s *StreamReader) Close() {
	if s.staging != nil {
		ringbuffer.Put(s.staging)
		s.staging = nil
	}
}
