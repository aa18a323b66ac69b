package wire

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/suite"
)

type OptionsSuite struct {
	suite.Suite
}

func (s *OptionsSuite) TestDefaults() {
	opts := DefaultOptions()
	s.False(opts.FieldLess)
	s.False(opts.NumericID)
	s.False(opts.Use8BitText)
	s.Equal(DefaultCompressionThreshold, opts.CompressionThreshold)
	s.Equal(DefaultCompressionCodec, opts.CompressionCodec)
	s.NotNil(opts.Aliases)
}

func (s *OptionsSuite) TestLoadOptionsNil() {
	s.Equal(DefaultOptions().CompressionCodec, LoadOptions(nil).CompressionCodec)
}

func (s *OptionsSuite) TestLoadOptionsFromViper() {
	v := viper.New()
	v.Set("wire.field-less", true)
	v.Set("wire.use-8bit-text", true)
	v.Set("wire.compression.threshold", 64)
	v.Set("wire.compression.codec", "zstd")

	opts := LoadOptions(v)
	s.True(opts.FieldLess)
	s.False(opts.NumericID)
	s.True(opts.Use8BitText)
	s.Equal(64, opts.CompressionThreshold)
	s.Equal("zstd", opts.CompressionCodec)
}

// 键缺省时落回默认值。
func (s *OptionsSuite) TestLoadOptionsPartial() {
	v := viper.New()
	v.Set("wire.numeric-id", true)

	opts := LoadOptions(v)
	s.True(opts.NumericID)
	s.Equal(DefaultCompressionThreshold, opts.CompressionThreshold)
	s.Equal(DefaultCompressionCodec, opts.CompressionCodec)
}

func (s *OptionsSuite) TestLoadOptionsFromFile() {
	path := filepath.Join(s.T().TempDir(), "wire.yaml")
	content := `wire:
  field-less: true
  compression:
    threshold: 256
    codec: snappy
`
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))

	opts, err := LoadOptionsFromFile(path)
	s.NoError(err)
	s.True(opts.FieldLess)
	s.False(opts.NumericID)
	s.Equal(256, opts.CompressionThreshold)
	s.Equal("snappy", opts.CompressionCodec)
}

func (s *OptionsSuite) TestLoadOptionsFromMissingFile() {
	_, err := LoadOptionsFromFile(filepath.Join(s.T().TempDir(), "absent.yaml"))
	s.Error(err)
}

func TestOptions(t *testing.T) {
	suite.Run(t, new(OptionsSuite))
}
