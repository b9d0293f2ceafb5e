package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/asaskevich/govalidator"
	"github.com/sirupsen/logrus"

	"somplus/domain"
)

type monitorUC struct {
	api       domain.SchoolAPI
	snapshots domain.SnapshotRepo
	users     domain.UserRepo
	notifiers []domain.Notifier
	errs      *ErrorAggregator
	log       *logrus.Logger
	now       func() time.Time

	mu       sync.Mutex
	statuses map[string]*domain.RunStatus
}

func NewMonitorUseCase(api domain.SchoolAPI, snapshots domain.SnapshotRepo, users domain.UserRepo, notifiers []domain.Notifier, errs *ErrorAggregator, log *logrus.Logger) domain.MonitorUseCase {
	return &monitorUC{
		api:       api,
		snapshots: snapshots,
		users:     users,
		notifiers: notifiers,
		errs:      errs,
		log:       log,
		now:       time.Now,
		statuses:  make(map[string]*domain.RunStatus),
	}
}

// RunCycle processes every enabled user sequentially. A user or domain
// failing never stops the others; the cycle itself only fails when the
// user list cannot be loaded.
func (uc *monitorUC) RunCycle(ctx context.Context) error {
	uc.flushErrorDigest(ctx)

	users, err := uc.users.GetActiveUsers(ctx)
	if err != nil {
		uc.errs.Record(ctx, "system", "Failed to load users", err)
		return err
	}

	uc.log.WithField("users", len(*users)).Info("Starting monitor cycle")
	for i := range *users {
		user := (*users)[i]
		uc.processUser(ctx, &user)
	}
	uc.log.Info("Monitor cycle completed")
	return nil
}

func (uc *monitorUC) processUser(ctx context.Context, user *domain.MonitorUser) {
	uc.log.WithField("user", user.Username).Info("Processing user")

	if _, err := govalidator.ValidateStruct(user); err != nil {
		uc.errs.Record(ctx, user.Username, "Invalid user configuration", err)
		return
	}

	accessToken, newRefreshToken, err := uc.api.RefreshToken(ctx, user.RefreshToken)
	if err != nil {
		uc.errs.Record(ctx, user.Username, "Token refresh failed", &domain.CredentialError{Err: err})
		return
	}

	if newRefreshToken != user.RefreshToken {
		if err := uc.users.UpdateRefreshToken(ctx, user.UserID, newRefreshToken); err != nil {
			// Losing the rotated token invalidates the stored one after
			// the upstream session expires, so this counts as an error
			// even though this cycle can still finish.
			uc.errs.Record(ctx, user.Username, "Failed to persist rotated refresh token", err)
		}
	}

	if user.Settings.Grades.Enabled {
		uc.runGrades(ctx, user, accessToken)
	} else {
		uc.log.WithField("user", user.Username).Debug("Grade monitoring disabled, skipping")
	}

	if user.Settings.Schedule.Enabled {
		uc.runSchedule(ctx, user, accessToken)
	} else {
		uc.log.WithField("user", user.Username).Debug("Schedule monitoring disabled, skipping")
	}

	if err := uc.users.TouchLastRun(ctx, user.UserID); err != nil {
		uc.log.WithField("user", user.Username).WithError(err).Warn("Failed to stamp last run")
	}
}

func (uc *monitorUC) runGrades(ctx context.Context, user *domain.MonitorUser, accessToken string) {
	dom := domain.DomainGrades

	uc.setState(user, dom, domain.StateFetching)
	raw, err := uc.api.FetchGrades(ctx, accessToken, user.StudentID)
	if err != nil {
		uc.fail(ctx, user, dom, "Failed to fetch grades", &domain.FetchError{Domain: dom, Err: err})
		return
	}

	uc.setState(user, dom, domain.StateNormalizing)
	grades := NormalizeGrades(raw, user.Settings.Grades)

	uc.setState(user, dom, domain.StateLoadingCache)
	oldGrades, found, err := uc.snapshots.LoadGrades(ctx, user.UserID)
	if err != nil {
		uc.fail(ctx, user, dom, "Failed to load grade snapshot", err)
		return
	}

	if !found {
		uc.setState(user, dom, domain.StateInitializing)
		if err := uc.snapshots.SaveGrades(ctx, user.UserID, grades); err != nil {
			uc.fail(ctx, user, dom, "Failed to initialize grade snapshot", err)
			return
		}
		uc.log.WithField("user", user.Username).Info("Initialized grade snapshot")
		uc.finish(user, dom, 0)
		return
	}

	uc.setState(user, dom, domain.StateComparing)
	changes := DiffGrades(oldGrades, grades)

	if len(changes) > 0 {
		uc.setState(user, dom, domain.StateNotifying)
		if !uc.notifyGrades(ctx, user, changes) {
			// Skip the save: the old snapshot stays authoritative and the
			// same change set is recomputed and resent next cycle.
			uc.failStatus(user, dom, "notification failed, snapshot not saved")
			return
		}
	}

	uc.setState(user, dom, domain.StateSaving)
	if err := uc.snapshots.SaveGrades(ctx, user.UserID, grades); err != nil {
		uc.fail(ctx, user, dom, "Failed to save grade snapshot", err)
		return
	}
	uc.finish(user, dom, len(changes))
}

func (uc *monitorUC) notifyGrades(ctx context.Context, user *domain.MonitorUser, changes []domain.GradeChange) bool {
	ok := true
	for _, change := range changes {
		for _, notifier := range uc.notifiers {
			if err := notifier.NotifyGradeChange(ctx, user, change); err != nil {
				ok = false
				uc.errs.Record(ctx, user.Username, "Grade notification failed", &domain.NotifyError{Sink: notifier.Name(), Err: err})
			}
		}
	}
	return ok
}

func (uc *monitorUC) runSchedule(ctx context.Context, user *domain.MonitorUser, accessToken string) {
	dom := domain.DomainSchedule
	settings := user.Settings.Schedule
	window := TargetWeek(uc.now(), settings)

	uc.setState(user, dom, domain.StateFetching)
	raw, err := uc.api.FetchSchedule(ctx, accessToken, window.Monday, window.End)
	if err != nil {
		uc.fail(ctx, user, dom, "Failed to fetch schedule", &domain.FetchError{Domain: dom, Err: err})
		return
	}

	uc.setState(user, dom, domain.StateNormalizing)
	lessons := NormalizeSchedule(raw, settings)

	uc.setState(user, dom, domain.StateLoadingCache)
	oldLessons, savedWeek, found, err := uc.snapshots.LoadSchedule(ctx, user.UserID)
	if err != nil {
		uc.fail(ctx, user, dom, "Failed to load schedule snapshot", err)
		return
	}

	if !found {
		uc.setState(user, dom, domain.StateInitializing)
		if err := uc.snapshots.SaveSchedule(ctx, user.UserID, lessons, window.Week); err != nil {
			uc.fail(ctx, user, dom, "Failed to initialize schedule snapshot", err)
			return
		}
		uc.log.WithField("user", user.Username).Info("Initialized schedule snapshot")
		uc.finish(user, dom, 0)
		return
	}

	uc.setState(user, dom, domain.StateComparing)

	baseline := oldLessons
	compare := true
	if savedWeek != window.Week {
		// The saved snapshot belongs to a previous week; diffing against
		// it would report the entire week as changed. Synthesize a
		// standard schedule instead.
		uc.log.WithFields(logrus.Fields{"user": user.Username, "old_week": savedWeek, "new_week": window.Week}).Info("Week changed, resolving standard schedule")
		standard := FindStandardSchedule(ctx, uc.api, accessToken, settings, uc.now(), uc.log)
		if standard == nil {
			if settings.GetOnMissingBaseline() == domain.BaselineSkip {
				uc.log.WithField("user", user.Username).Warn("No standard schedule available, skipping comparison")
				compare = false
			} else {
				uc.log.WithField("user", user.Username).Warn("No standard schedule available, using empty baseline")
				baseline = nil
			}
		} else {
			baseline = standard
		}
	}

	var changes []domain.ScheduleChange
	if compare {
		changes = DiffSchedules(baseline, lessons)
	}

	if len(changes) > 0 {
		display := domain.ScheduleDisplay{WeekNumber: window.Week, Lessons: lessons}
		uc.setState(user, dom, domain.StateNotifying)
		if !uc.notifySchedule(ctx, user, changes, display) {
			uc.failStatus(user, dom, "notification failed, snapshot not saved")
			return
		}
	}

	uc.setState(user, dom, domain.StateSaving)
	if err := uc.snapshots.SaveSchedule(ctx, user.UserID, lessons, window.Week); err != nil {
		uc.fail(ctx, user, dom, "Failed to save schedule snapshot", err)
		return
	}
	uc.finish(user, dom, len(changes))
}

func (uc *monitorUC) notifySchedule(ctx context.Context, user *domain.MonitorUser, changes []domain.ScheduleChange, display domain.ScheduleDisplay) bool {
	ok := true
	for _, notifier := range uc.notifiers {
		if err := notifier.NotifyScheduleChanges(ctx, user, changes, display); err != nil {
			ok = false
			uc.errs.Record(ctx, user.Username, "Schedule notification failed", &domain.NotifyError{Sink: notifier.Name(), Err: err})
		}
	}
	return ok
}

// flushErrorDigest sends the previous hour's aggregated errors once,
// then clears the bucket.
func (uc *monitorUC) flushErrorDigest(ctx context.Context) {
	errorsByUser, hourKey, err := uc.errs.PreviousHour(ctx)
	if err != nil {
		uc.log.WithError(err).Error("Failed to load previous hour errors")
		return
	}
	if len(errorsByUser) == 0 {
		return
	}

	uc.log.WithFields(logrus.Fields{"hour": hourKey, "users": len(errorsByUser)}).Info("Sending error digest")
	for username, events := range errorsByUser {
		user, err := uc.users.GetUserByUsername(ctx, username)
		if err != nil {
			uc.log.WithField("user", username).WithError(err).Warn("Skipping digest for unknown user")
			continue
		}
		for _, notifier := range uc.notifiers {
			if err := notifier.NotifyErrorDigest(ctx, user, events); err != nil {
				uc.log.WithFields(logrus.Fields{"user": username, "sink": notifier.Name()}).WithError(err).Error("Failed to send error digest")
			}
		}
	}

	if err := uc.errs.Clear(ctx, hourKey); err != nil {
		uc.log.WithError(err).Error("Failed to clear error digest")
	}
}

func (uc *monitorUC) fail(ctx context.Context, user *domain.MonitorUser, dom, message string, err error) {
	uc.errs.Record(ctx, user.Username, message, err)
	uc.failStatus(user, dom, fmt.Sprintf("%s: %v", message, err))
}

func (uc *monitorUC) setState(user *domain.MonitorUser, dom, state string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	status := uc.status(user, dom)
	status.State = state
	status.UpdatedAt = uc.now()
}

func (uc *monitorUC) finish(user *domain.MonitorUser, dom string, changes int) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	status := uc.status(user, dom)
	status.State = domain.StateIdle
	status.Changes = changes
	status.LastError = ""
	status.UpdatedAt = uc.now()
}

func (uc *monitorUC) failStatus(user *domain.MonitorUser, dom, message string) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	status := uc.status(user, dom)
	status.State = domain.StateIdle
	status.LastError = message
	status.UpdatedAt = uc.now()
}

// status returns the tracked entry for (user, domain); callers hold the
// lock.
func (uc *monitorUC) status(user *domain.MonitorUser, dom string) *domain.RunStatus {
	key := user.Username + "/" + dom
	if _, ok := uc.statuses[key]; !ok {
		uc.statuses[key] = &domain.RunStatus{Username: user.Username, Domain: dom, State: domain.StateIdle}
	}
	return uc.statuses[key]
}

func (uc *monitorUC) Statuses() []domain.RunStatus {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := make([]domain.RunStatus, 0, len(uc.statuses))
	for _, status := range uc.statuses {
		out = append(out, *status)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].Domain < out[j].Domain
	})
	return out
}
