// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	// #nosec
	_ "net/http/pprof"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// gardenNamespace 是当前项目所有 Prometheus 指标使用的命名空间。
	gardenNamespace = "wiregarden"

	// 以下为当前使用的通用标签名。
	formatLabelName = "format"
	kindLabelName   = "kind"
	codecLabelName  = "codec"
)

var (
	// payloadBuckets 为文档载荷大小的桶划分，单位为字节。
	// 实际桶分布为：
	// [16 64 256 1024 4096 16384 65536 262144 1.048576e+06 4.194304e+06]
	payloadBuckets = prometheus.ExponentialBuckets(16, 4, 10)

	DocumentsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Name:      "documents_written",
			Help:      "number of documents committed to a stream",
		}, []string{formatLabelName, kindLabelName})

	DocumentsRead = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Name:      "documents_read",
			Help:      "number of documents consumed from a stream",
		}, []string{formatLabelName, kindLabelName})

	DocumentPayloadBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: gardenNamespace,
			Name:      "document_payload_bytes",
			Help:      "payload size of committed documents",
			Buckets:   payloadBuckets,
		}, []string{formatLabelName})

	CompressedPayloads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: gardenNamespace,
			Name:      "compressed_payloads",
			Help:      "number of byte payloads written through a compression codec",
		}, []string{codecLabelName})

	metricRegisterer prometheus.Registerer
)

// GetRegisterer 返回全局 Prometheus Registerer。
// 如果尚未通过 Register 显式设置，则返回 prometheus.DefaultRegisterer。
func GetRegisterer() prometheus.Registerer {
	if metricRegisterer == nil {
		return prometheus.DefaultRegisterer
	}
	return metricRegisterer
}

// Register 注册当前定义的所有指标。
// 通常应在 init 函数中调用。
func Register(r prometheus.Registerer) {
	r.MustRegister(DocumentsWritten)
	r.MustRegister(DocumentsRead)
	r.MustRegister(DocumentPayloadBytes)
	r.MustRegister(CompressedPayloads)
	metricRegisterer = r
}
