package usecase

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"somplus/domain"
)

// ErrorAggregator records run errors into the rolling hourly digest.
// One aggregator is constructed per process and threaded through the
// orchestrator; there is no ambient error state.
type ErrorAggregator struct {
	digest domain.ErrorDigestRepo
	log    *logrus.Logger
	now    func() time.Time
}

func NewErrorAggregator(digest domain.ErrorDigestRepo, log *logrus.Logger) *ErrorAggregator {
	return &ErrorAggregator{
		digest: digest,
		log:    log,
		now:    time.Now,
	}
}

const hourKeyLayout = "2006-01-02T15:00:00"

// Record logs the error and adds it to the current hour's bucket.
// Digest-store failures are logged and swallowed; losing a digest line
// must not take down the run that produced it.
func (a *ErrorAggregator) Record(ctx context.Context, username, message string, err error) {
	a.log.WithFields(logrus.Fields{"user": username}).WithError(err).Error(message)

	detail := ""
	if err != nil {
		detail = err.Error()
	}
	hourKey := a.now().Format(hourKeyLayout)
	if derr := a.digest.Record(ctx, hourKey, username, message, detail); derr != nil {
		a.log.WithError(derr).Error("Failed to record error in digest store")
	}
}

// PreviousHour returns the finished hour's bucket and its key.
func (a *ErrorAggregator) PreviousHour(ctx context.Context) (map[string][]domain.ErrorEvent, string, error) {
	hourKey := a.now().Add(-time.Hour).Format(hourKeyLayout)
	errors, err := a.digest.HourErrors(ctx, hourKey)
	return errors, hourKey, err
}

func (a *ErrorAggregator) Clear(ctx context.Context, hourKey string) error {
	return a.digest.Clear(ctx, hourKey)
}
