package logger

import (
	"github.com/sirupsen/logrus"
)

// ProxyLogger provides logging for the fetch pass-through server.
type ProxyLogger struct {
	*logrus.Entry
}

// NewProxyLogger creates a new proxy server logger.
func NewProxyLogger(baseLogger *logrus.Logger) *ProxyLogger {
	return &ProxyLogger{
		Entry: baseLogger.WithField("component", "proxy_server"),
	}
}

// LogRequest logs a served request.
func (pl *ProxyLogger) LogRequest(method, path string, status int, durationMs float64) {
	entry := pl.WithFields(logrus.Fields{
		"method":      method,
		"path":        path,
		"status":      status,
		"duration_ms": durationMs,
	})
	if status >= 500 {
		entry.Warn("Request failed")
		return
	}
	entry.Info("Request served")
}

// LogUpstream logs the upstream response of a pass-through fetch.
func (pl *ProxyLogger) LogUpstream(target string, status int, charset string, bytes int) {
	pl.WithFields(logrus.Fields{
		"target":  target,
		"status":  status,
		"charset": charset,
		"bytes":   bytes,
	}).Debug("Upstream fetched")
}

// LogUpstreamFailure logs a transport failure towards the upstream.
func (pl *ProxyLogger) LogUpstreamFailure(target string, err error) {
	pl.WithField("target", target).WithError(err).Error("Upstream fetch failed")
}

// LogRejected logs a request refused before any upstream call.
func (pl *ProxyLogger) LogRejected(target, reason string) {
	pl.WithFields(logrus.Fields{
		"target": target,
		"reason": reason,
	}).Warn("Fetch rejected")
}
