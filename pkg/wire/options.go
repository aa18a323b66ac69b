package wire

import (
	"github.com/spf13/viper"

	viperutil "github.com/lk2023060901/wire-garden-go/pkg/util/viper"
)

// 压缩相关缺省值。
const (
	DefaultCompressionThreshold = 128
	DefaultCompressionCodec     = "lzw"
)

// Options 汇总一个 Wire 的可调参数。
//
// 说明：
//   - FieldLess 只对二进制编码生效，省略字段名码，读取方按位置定位；
//   - Use8BitText 在输入为 ASCII 时按单字节文本写出；
//   - CompressionThreshold 以下的字节序列不压缩，按普通字节写出。
type Options struct {
	FieldLess            bool
	NumericID            bool
	Use8BitText          bool
	CompressionThreshold int
	CompressionCodec     string
	Aliases              *AliasRegistry
}

// DefaultOptions 返回缺省配置。
func DefaultOptions() Options {
	return Options{
		CompressionThreshold: DefaultCompressionThreshold,
		CompressionCodec:     DefaultCompressionCodec,
		Aliases:              DefaultAliases(),
	}
}

// LoadOptions 从 viper 实例读取配置，键不存在时取缺省值。
//
// 识别的键：wire.field-less、wire.numeric-id、wire.use-8bit-text、
// wire.compression.threshold、wire.compression.codec。
func LoadOptions(v *viper.Viper) Options {
	opts := DefaultOptions()
	if v == nil {
		return opts
	}
	v.SetDefault("wire.compression.threshold", DefaultCompressionThreshold)
	v.SetDefault("wire.compression.codec", DefaultCompressionCodec)
	opts.FieldLess = v.GetBool("wire.field-less")
	opts.NumericID = v.GetBool("wire.numeric-id")
	opts.Use8BitText = v.GetBool("wire.use-8bit-text")
	opts.CompressionThreshold = v.GetInt("wire.compression.threshold")
	opts.CompressionCodec = v.GetString("wire.compression.codec")
	return opts
}

// LoadOptionsFromFile 从 YAML/JSON 配置文件的 wire 段读取配置。
func LoadOptionsFromFile(path string) (Options, error) {
	cfg := viperutil.New()
	if err := cfg.LoadFile(path); err != nil {
		return DefaultOptions(), err
	}
	var fileOpts struct {
		FieldLess   bool `mapstructure:"field-less"`
		NumericID   bool `mapstructure:"numeric-id"`
		Use8BitText bool `mapstructure:"use-8bit-text"`
		Compression struct {
			Threshold int    `mapstructure:"threshold"`
			Codec     string `mapstructure:"codec"`
		} `mapstructure:"compression"`
	}
	opts := DefaultOptions()
	fileOpts.Compression.Threshold = opts.CompressionThreshold
	fileOpts.Compression.Codec = opts.CompressionCodec
	if err := cfg.UnmarshalKey("wire", &fileOpts); err != nil {
		return opts, err
	}
	opts.FieldLess = fileOpts.FieldLess
	opts.NumericID = fileOpts.NumericID
	opts.Use8BitText = fileOpts.Use8BitText
	opts.CompressionThreshold = fileOpts.Compression.Threshold
	opts.CompressionCodec = fileOpts.Compression.Codec
	return opts, nil
}
