package wire

import (
	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// writeContext 跟踪一条正在写出的文档：头字偏移与 META 标志。
//
// WriteDocument 进入时占位，write 回调返回后回填；
// 回调报错时调用 abandon：头字清回未初始化（不保留未完成位），写游标回退到头字处；
// 读取方看不到该文档，下一条文档复用该位置。
type writeContext struct {
	buf       *elastic.Buffer
	headerPos int
	metaData  bool
	open      bool
	format    string
}

func (c *writeContext) start(buf *elastic.Buffer, metaData bool, format string) error {
	pos, err := AcquireHeader(buf)
	if err != nil {
		return err
	}
	c.buf = buf
	c.headerPos = pos
	c.metaData = metaData
	c.open = true
	c.format = format
	return nil
}

func (c *writeContext) close() error {
	if !c.open {
		return nil
	}
	c.open = false
	length := c.buf.WritePosition() - c.headerPos - HeaderSize
	if err := UpdateHeader(c.buf, c.headerPos, c.metaData); err != nil {
		return err
	}
	observeDocumentWritten(c.format, c.metaData, length)
	return nil
}

// abandon 放弃当前文档：写游标回退到头字之前，头字清回未初始化。
func (c *writeContext) abandon() {
	if !c.open {
		return
	}
	c.open = false
	_ = c.buf.PutUint32LEAt(c.headerPos, NotInitialized)
	c.buf.SetWritePosition(c.headerPos)
}

// readContext 跟踪一条正在读入的文档：载荷边界与 META 标志。
//
// ReadDocument 进入时把读上限收紧到载荷末尾，退出时游标越过整条文档，
// 读上限恢复原值。
type readContext struct {
	buf       *elastic.Buffer
	headerPos int
	limit     int
	prevLimit int
	metaData  bool
	open      bool
	format    string
}

// bind 绑定到 buf 读游标处的下一条已完成文档。
//
// 返回 (false, nil) 表示当前位置没有完整文档（头字未初始化、
// 写入未完成或载荷尚未到齐）。
func (c *readContext) bind(buf *elastic.Buffer, format string) (bool, error) {
	pos := buf.ReadPosition()
	if pos+HeaderSize > buf.ReadLimit() {
		return false, nil
	}
	header, err := buf.Uint32LEAt(pos)
	if err != nil {
		return false, werr.WrapErrIoFailed(pos, err)
	}
	if header == EndOfData {
		return false, nil
	}
	if !IsReady(header) {
		return false, nil
	}
	length := LengthOf(header)
	if pos+HeaderSize+length > buf.ReadLimit() {
		return false, nil
	}

	c.buf = buf
	c.headerPos = pos
	c.limit = pos + HeaderSize + length
	if buf.ReadLimitExplicit() {
		c.prevLimit = buf.ReadLimit()
	} else {
		c.prevLimit = -1
	}
	c.metaData = !IsData(header)
	c.open = true
	c.format = format
	_ = buf.SetReadPosition(pos + HeaderSize)
	buf.SetReadLimit(c.limit)
	observeDocumentRead(format, c.metaData)
	return true, nil
}

func (c *readContext) close() {
	if !c.open {
		return
	}
	c.open = false
	c.buf.SetReadLimit(c.prevLimit)
	_ = c.buf.SetReadPosition(c.limit)
}
