package json

import (
	"io"

	"github.com/bytedance/sonic"
)

// 统一的 JSON 入口，基于 bytedance/sonic 的标准兼容配置。

var config = sonic.ConfigStd

var intConfig = sonic.Config{UseInt64: true}.Froze()

// Marshal 等价于 encoding/json.Marshal。
func Marshal(v any) ([]byte, error) {
	return config.Marshal(v)
}

// Unmarshal 等价于 encoding/json.Unmarshal。
func Unmarshal(data []byte, v any) error {
	return config.Unmarshal(data, v)
}

// UnmarshalUseInt64 解码到 any 时把整数还原为 int64 而非 float64。
func UnmarshalUseInt64(data []byte, v any) error {
	return intConfig.Unmarshal(data, v)
}

// MarshalIndent 等价于 encoding/json.MarshalIndent。
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	return config.MarshalIndent(v, prefix, indent)
}

// NewEncoder 返回写向 w 的编码器。
func NewEncoder(w io.Writer) sonic.Encoder {
	return config.NewEncoder(w)
}

// NewDecoder 返回从 r 读取的解码器。
func NewDecoder(r io.Reader) sonic.Decoder {
	return config.NewDecoder(r)
}
