package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/suite"
)

type CompressSuite struct {
	suite.Suite
}

func (s *CompressSuite) TestBuiltinCodecsRoundTrip() {
	data := bytes.Repeat([]byte("wire garden "), 100)
	for _, name := range []string{"gzip", "lzw", "snappy", "zstd"} {
		packed, err := compressWith(name, data)
		s.Require().NoError(err, name)
		s.Less(len(packed), len(data), name)

		unpacked, err := decompressWith(name, packed)
		s.Require().NoError(err, name)
		s.Equal(data, unpacked, name)
	}
}

func (s *CompressSuite) TestEmptyInput() {
	for _, name := range []string{"gzip", "lzw", "snappy", "zstd"} {
		packed, err := compressWith(name, nil)
		s.Require().NoError(err, name)
		unpacked, err := decompressWith(name, packed)
		s.Require().NoError(err, name)
		s.Empty(unpacked, name)
	}
}

func (s *CompressSuite) TestUnknownCodec() {
	_, err := compressWith("bogus", []byte("x"))
	s.Error(err)
	_, err = decompressWith("bogus", []byte("x"))
	s.Error(err)
}

type reverseCodec struct{}

func (reverseCodec) Compress(data []byte) ([]byte, error) {
	out := make([]byte, len(data))
	for i, c := range data {
		out[len(data)-1-i] = c
	}
	return out, nil
}

func (reverseCodec) Decompress(data []byte) ([]byte, error) {
	return reverseCodec{}.Compress(data)
}

func (s *CompressSuite) TestRegisterCustomCodec() {
	RegisterCodec("reverse-test", reverseCodec{})
	c, ok := LookupCodec("reverse-test")
	s.True(ok)
	packed, err := c.Compress([]byte("abc"))
	s.NoError(err)
	s.Equal([]byte("cba"), packed)

	_, ok = LookupCodec("never-registered")
	s.False(ok)
}

func TestCompress(t *testing.T) {
	suite.Run(t, new(CompressSuite))
}
