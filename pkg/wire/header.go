// 文档头（document header）协议：
// 每条文档以 4 字节小端头字开始，低 30 位为载荷长度，
// bit30 标记 META 文档，bit31 标记“写入未完成”。
//
// 写入方通过 CAS 把头字从 NotInitialized 置为未完成占位，
// 写完载荷后回填最终长度；读取方只消费已完成的头。
// 多个写入方共享同一缓冲区时由该 CAS 协议串行化。
package wire

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/lk2023060901/wire-garden-go/pkg/buffer/elastic"
	"github.com/lk2023060901/wire-garden-go/pkg/log"
	"github.com/lk2023060901/wire-garden-go/pkg/util/retry"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

const (
	// HeaderSize 是文档头的字节数。
	HeaderSize = 4

	// LengthMask 取出头字中的载荷长度（低 30 位）。
	LengthMask = uint32(1<<30) - 1
	// MaxLength 是单条文档载荷的最大字节数。
	MaxLength = int(LengthMask)

	// NotComplete 标记该文档正在写入、长度尚不可信。
	NotComplete = uint32(1) << 31
	// MetaData 标记该文档为 META 文档。
	MetaData = uint32(1) << 30
	// UnknownLength 表示长度待回填。
	UnknownLength = uint32(0)

	// NotInitialized 表示该位置尚无文档头。
	NotInitialized = uint32(0)
	// NotCompleteUnknownLength 是写入占位头字。
	NotCompleteUnknownLength = NotComplete | UnknownLength
	// EndOfData 是流结束哨兵头字。
	EndOfData = NotComplete | MetaData | UnknownLength
)

// LengthOf 返回头字中的载荷长度。
func LengthOf(header uint32) int {
	return int(header & LengthMask)
}

// IsReady 报告头字是否表示一条已完成的文档。
func IsReady(header uint32) bool {
	return header&NotComplete == 0 && header != NotInitialized
}

// IsData 报告头字是否标记 DATA 文档。
func IsData(header uint32) bool {
	return header&MetaData == 0
}

// IsReadyData 报告头字是否表示一条已完成的 DATA 文档。
func IsReadyData(header uint32) bool {
	return header&(MetaData|NotComplete) == 0 && header != NotInitialized
}

// IsReadyMetaData 报告头字是否表示一条已完成的 META 文档。
func IsReadyMetaData(header uint32) bool {
	return header&(MetaData|NotComplete) == MetaData
}

// IsKnownLength 报告头字的长度位是否已回填。
func IsKnownLength(header uint32) bool {
	return header&(MetaData|LengthMask) != UnknownLength
}

// IsNotComplete 报告头字是否仍为写入占位。
func IsNotComplete(header uint32) bool {
	return header&NotComplete != 0 || header == NotInitialized
}

// headerAcquireTimeout 是等待他方回填占位头的默认上限。
const headerAcquireTimeout = 10 * time.Second

// AcquireHeader 在 buf 的第一个文档边界上占住一个文档头并返回头字偏移。
//
// 协定：
//   - 边界处为 NotInitialized 时 CAS 写入占位头并把写游标移到其后；
//   - 边界处为已完成文档时越过该文档继续；
//   - 边界处为他方占位头时指数退避等待其回填，超时报
//     header-acquire-timeout（可重试错误）。
func AcquireHeader(buf *elastic.Buffer) (int, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Microsecond
	bo.MaxInterval = 10 * time.Millisecond
	bo.MaxElapsedTime = headerAcquireTimeout

	for {
		pos, err := tryAcquireHeader(buf)
		if err == nil {
			return pos, nil
		}
		if !errors.Is(err, werr.ErrHeaderAcquireTimeout) {
			return 0, err
		}
		next := bo.NextBackOff()
		if next == backoff.Stop {
			log.Warn("document header still held by another writer",
				zap.Int("writePosition", buf.WritePosition()),
				zap.Duration("waited", bo.GetElapsedTime()))
			return 0, err
		}
		time.Sleep(next)
	}
}

// AcquireHeaderContext 与 AcquireHeader 等价，但等待他方回填时
// 受 ctx 的取消与截止时间约束。
func AcquireHeaderContext(ctx context.Context, buf *elastic.Buffer) (int, error) {
	var headerPos int
	err := retry.Handle(ctx, func() (bool, error) {
		pos, err := tryAcquireHeader(buf)
		if err == nil {
			headerPos = pos
			return false, nil
		}
		return errors.Is(err, werr.ErrHeaderAcquireTimeout), err
	}, retry.Sleep(time.Millisecond), retry.MaxSleepTime(10*time.Millisecond))
	if err != nil {
		return 0, err
	}
	return headerPos, nil
}

// tryAcquireHeader 从缓冲区起点逐条越过已完成文档，
// 在第一个文档边界上做一次 CAS 尝试。
// 共享缓冲区时写游标可能停在他方载荷中间，只有按头字跳跃
// 才能保证 CAS 落在真正的边界上。
// 遇到他方占位头时报 header-acquire-timeout，由调用方决定退避重试。
func tryAcquireHeader(buf *elastic.Buffer) (int, error) {
	pos := 0
	for {
		if err := reserveHeaderSpace(buf, pos); err != nil {
			return 0, err
		}
		header, err := buf.Uint32LEAt(pos)
		if err != nil {
			return 0, werr.WrapErrIoFailed(pos, err)
		}
		if IsReady(header) {
			pos += HeaderSize + LengthOf(header)
			continue
		}

		swapped, err := buf.CompareAndSwapUint32(pos, NotInitialized, NotCompleteUnknownLength)
		if err != nil {
			return 0, werr.WrapErrIoFailed(pos, err)
		}
		if swapped {
			_ = buf.SetWritePosition(pos + HeaderSize)
			return pos, nil
		}
		return 0, werr.WrapErrHeaderAcquireTimeout(pos)
	}
}

// reserveHeaderSpace 确保 pos 起有 4 字节可 CAS 的空间。
// 扩出的字节保持零值，即 NotInitialized。
func reserveHeaderSpace(buf *elastic.Buffer, pos int) error {
	if pos+HeaderSize <= buf.Capacity() {
		return nil
	}
	if _, err := buf.Skip(HeaderSize); err != nil {
		return werr.WrapErrIoFailed(pos, err)
	}
	_ = buf.SetWritePosition(pos)
	return nil
}

// UpdateHeader 回填 headerPos 处的头字：
// 载荷长度取自当前写游标，metaData 决定是否置 META 位。
//
// 载荷超过 30 位长度上限时报 payload-too-large，头字保持占位。
func UpdateHeader(buf *elastic.Buffer, headerPos int, metaData bool) error {
	length := buf.WritePosition() - headerPos - HeaderSize
	if length < 0 {
		return werr.WrapErrIoFailed(headerPos, elastic.ErrOutOfBounds)
	}
	if length > MaxLength {
		return werr.WrapErrPayloadTooLarge(length, MaxLength)
	}

	header := uint32(length)
	if metaData {
		header |= MetaData
	}
	swapped, err := buf.CompareAndSwapUint32(headerPos, NotCompleteUnknownLength, header)
	if err != nil {
		return werr.WrapErrIoFailed(headerPos, err)
	}
	if !swapped {
		return werr.WrapErrIoFailed(headerPos, werr.ErrUnexpectedField, "header word changed underfoot")
	}
	return nil
}

// DocumentNumber 返回 headerPos 处文档的编号：
// 从缓冲区起点顺序扫描，仅对 DATA 文档递增计数（META 不占号）。
func DocumentNumber(buf *elastic.Buffer, headerPos int) (int, error) {
	pos := 0
	number := 0
	for pos < headerPos {
		header, err := buf.Uint32LEAt(pos)
		if err != nil {
			return 0, werr.WrapErrIoFailed(pos, err)
		}
		if !IsReady(header) {
			return 0, werr.WrapErrTruncation(headerPos, pos, pos)
		}
		if IsData(header) {
			number++
		}
		pos += HeaderSize + LengthOf(header)
	}
	if pos != headerPos {
		return 0, werr.WrapErrUnexpectedField("document boundary", headerPos)
	}
	return number, nil
}
