package wire

import (
	"github.com/lk2023060901/wire-garden-go/pkg/metrics"
)

// Prometheus 上报的薄封装，标签在此统一归一化。

const (
	kindData = "data"
	kindMeta = "meta-data"
)

func documentKind(metaData bool) string {
	if metaData {
		return kindMeta
	}
	return kindData
}

func observeDocumentWritten(format string, metaData bool, payloadBytes int) {
	metrics.DocumentsWritten.WithLabelValues(format, documentKind(metaData)).Inc()
	metrics.DocumentPayloadBytes.WithLabelValues(format).Observe(float64(payloadBytes))
}

func observeDocumentRead(format string, metaData bool) {
	metrics.DocumentsRead.WithLabelValues(format, documentKind(metaData)).Inc()
}

func observeCompressed(codec string) {
	metrics.CompressedPayloads.WithLabelValues(codec).Inc()
}
