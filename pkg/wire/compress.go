package wire

import (
	"bytes"
	"compress/lzw"
	"io"
	"sync"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/lk2023060901/wire-garden-go/internal/pool/bufferpool"
	"github.com/lk2023060901/wire-garden-go/pkg/util/werr"
)

// Codec 是压缩子块使用的编解码器。
type Codec interface {
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

var (
	codecMu  sync.RWMutex
	codecs   = make(map[string]Codec)
	codecsUp sync.Once
)

// RegisterCodec 按名字注册一个编解码器，同名覆盖。
func RegisterCodec(name string, c Codec) {
	codecMu.Lock()
	defer codecMu.Unlock()
	codecs[name] = c
}

// LookupCodec 返回名字对应的编解码器。
func LookupCodec(name string) (Codec, bool) {
	registerBuiltinCodecs()
	codecMu.RLock()
	defer codecMu.RUnlock()
	c, ok := codecs[name]
	return c, ok
}

func registerBuiltinCodecs() {
	codecsUp.Do(func() {
		RegisterCodec("gzip", gzipCodec{})
		RegisterCodec("lzw", lzwCodec{})
		RegisterCodec("snappy", snappyCodec{})
		RegisterCodec("zstd", zstdCodec{})
	})
}

func compressWith(name string, data []byte) ([]byte, error) {
	c, ok := LookupCodec(name)
	if !ok {
		return nil, werr.WrapErrUnknownCompression(name)
	}
	packed, err := c.Compress(data)
	if err != nil {
		return nil, err
	}
	observeCompressed(name)
	return packed, nil
}

func decompressWith(name string, data []byte) ([]byte, error) {
	c, ok := LookupCodec(name)
	if !ok {
		return nil, werr.WrapErrUnknownCompression(name)
	}
	return c.Decompress(data)
}

type gzipCodec struct{}

func (gzipCodec) Compress(data []byte) ([]byte, error) {
	scratch := bufferpool.Get()
	defer bufferpool.Put(scratch)
	zw := gzip.NewWriter(scratch)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	out := make([]byte, scratch.WritePosition())
	copy(out, scratch.Bytes())
	return out, nil
}

func (gzipCodec) Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}

type lzwCodec struct{}

func (lzwCodec) Compress(data []byte) ([]byte, error) {
	scratch := bufferpool.Get()
	defer bufferpool.Put(scratch)
	zw := lzw.NewWriter(scratch, lzw.LSB, 8)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	out := make([]byte, scratch.WritePosition())
	copy(out, scratch.Bytes())
	return out, nil
}

func (lzwCodec) Decompress(data []byte) ([]byte, error) {
	zr := lzw.NewReader(bytes.NewReader(data), lzw.LSB, 8)
	defer zr.Close()
	return io.ReadAll(zr)
}

type snappyCodec struct{}

func (snappyCodec) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCodec) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

type zstdCodec struct{}

func (zstdCodec) Compress(data []byte) ([]byte, error) {
	zw, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	out := zw.EncodeAll(data, nil)
	_ = zw.Close()
	return out, nil
}

func (zstdCodec) Decompress(data []byte) ([]byte, error) {
	zr, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return zr.DecodeAll(data, nil)
}
