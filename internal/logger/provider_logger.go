package logger

import (
	"github.com/sirupsen/logrus"
)

// ProviderLogger provides logging for odds providers and the proxy chain.
type ProviderLogger struct {
	*logrus.Entry
}

// NewProviderLogger creates a new provider logger.
func NewProviderLogger(baseLogger *logrus.Logger) *ProviderLogger {
	return &ProviderLogger{
		Entry: baseLogger.WithField("component", "provider"),
	}
}

// LogFetch logs a successful race card fetch.
func (pl *ProviderLogger) LogFetch(source, raceID string, horses int, durationMs float64) {
	pl.WithFields(logrus.Fields{
		"source":      source,
		"race_id":     raceID,
		"horses":      horses,
		"duration_ms": durationMs,
	}).Info("Race card fetched")
}

// LogFetchFailure logs a provider failure.
func (pl *ProviderLogger) LogFetchFailure(source, raceID string, err error) {
	pl.WithFields(logrus.Fields{
		"source":  source,
		"race_id": raceID,
	}).WithError(err).Error("Race card fetch failed")
}

// LogProxyAttempt logs one attempt through a CORS proxy.
func (pl *ProviderLogger) LogProxyAttempt(proxy, target string, attempt int, err error) {
	entry := pl.WithFields(logrus.Fields{
		"proxy":   proxy,
		"target":  target,
		"attempt": attempt,
	})
	if err != nil {
		entry.WithError(err).Warn("Proxy attempt failed")
		return
	}
	entry.Debug("Proxy attempt succeeded")
}

// LogCacheServe logs a cache hit; stale entries are served when the upstream is down.
func (pl *ProviderLogger) LogCacheServe(raceID string, stale bool) {
	entry := pl.WithFields(logrus.Fields{
		"race_id": raceID,
		"stale":   stale,
	})
	if stale {
		entry.Warn("Serving stale race card from cache")
		return
	}
	entry.Debug("Serving race card from cache")
}
