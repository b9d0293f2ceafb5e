package delivery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"somplus/domain"
)

const pushsaferEndpoint = "https://www.pushsafer.com/api"

type pushsaferNotifier struct {
	client   *http.Client
	log      *logrus.Logger
	endpoint string
}

func NewPushsaferNotifier(log *logrus.Logger) domain.Notifier {
	return &pushsaferNotifier{
		client:   &http.Client{Timeout: 15 * time.Second},
		log:      log,
		endpoint: pushsaferEndpoint,
	}
}

func (p *pushsaferNotifier) Name() string { return "pushsafer" }

func (p *pushsaferNotifier) NotifyGradeChange(ctx context.Context, user *domain.MonitorUser, change domain.GradeChange) error {
	settings := user.Settings.Notify.Pushsafer
	if !settings.GradesEnabled || settings.APIKey == "" {
		return nil
	}

	var title, message string
	var sound int

	switch change.Kind {
	case domain.GradeNewRetake:
		title, message, sound = p.renderRetake(settings, change)
	case domain.GradeNew:
		title, message, sound = p.renderNew(settings, change)
	case domain.GradeChanged:
		title, message, sound = p.renderChanged(settings, change)
	case domain.GradeRemoved:
		title, message, sound = p.renderRemoved(settings, change)
	default:
		return nil
	}

	return p.send(ctx, settings, title, message, sound)
}

func (p *pushsaferNotifier) renderRetake(settings domain.PushsaferSettings, change domain.GradeChange) (string, string, int) {
	grade := change.Grade

	sound := settings.GetSoundMedium()
	if origNum, ok := parseResult(change.OriginalResult); ok {
		if retakeNum, ok := parseResult(change.RetakeResult); ok {
			if retakeNum > origNum {
				sound = settings.GetSoundHigh()
			} else {
				sound = settings.GetSoundLow()
			}
		}
	}

	title := fmt.Sprintf("Herkansing: %s → %s", change.OriginalResult, change.RetakeResult)
	parts := []string{
		subjectName(grade),
		testName(grade),
		fmt.Sprintf("Origineel cijfer: %s", change.OriginalResult),
		fmt.Sprintf("Herkansing: %s", change.RetakeResult),
		fmt.Sprintf("Geldig cijfer: %s", grade.DisplayResult()),
		fmt.Sprintf("Weging: %g", grade.Weighting),
		fmt.Sprintf("Periode %d", grade.Period),
	}
	if grade.Retake != nil && grade.Retake.Type != "" {
		parts = append(parts, fmt.Sprintf("Type: %s", grade.Retake.Type))
	}
	return title, strings.Join(parts, "\n"), sound
}

func (p *pushsaferNotifier) renderNew(settings domain.PushsaferSettings, change domain.GradeChange) (string, string, int) {
	grade := change.Grade
	value := grade.DisplayResult()

	sound := settings.GetSoundMedium()
	if num, ok := parseResult(value); ok {
		switch {
		case num >= settings.GetBreakpointHigh():
			sound = settings.GetSoundHigh()
		case num >= settings.GetBreakpointMedium():
			sound = settings.GetSoundMedium()
		default:
			sound = settings.GetSoundLow()
		}
	}

	title := fmt.Sprintf("Nieuw cijfer: %s", value)
	parts := []string{
		subjectName(grade),
		testName(grade),
		fmt.Sprintf("Cijfer: %s", value),
		fmt.Sprintf("Periode %d", grade.Period),
		fmt.Sprintf("Weging: %g", grade.Weighting),
	}
	if grade.TestType != "" {
		parts = append(parts, fmt.Sprintf("Toetssoort: %s", grade.TestType))
	}
	if flags := gradeFlags(grade); len(flags) > 0 {
		parts = append(parts, strings.Join(flags, ", "))
	}
	return title, strings.Join(parts, "\n"), sound
}

func (p *pushsaferNotifier) renderChanged(settings domain.PushsaferSettings, change domain.GradeChange) (string, string, int) {
	grade := change.Grade

	sound := settings.GetSoundMedium()
	var lines []string
	for _, field := range fieldOrder {
		diff, ok := change.Fields[field]
		if !ok {
			continue
		}

		if field == domain.FieldResult {
			oldNum, okOld := parseResult(diff.Old)
			newNum, okNew := parseResult(diff.New)
			if okOld && okNew {
				if newNum > oldNum {
					sound = settings.GetSoundHigh()
				} else {
					sound = settings.GetSoundLow()
				}
				lines = append(lines, fmt.Sprintf("Cijfer: %s → %s (%+.1f)", diff.Old, diff.New, newNum-oldNum))
				continue
			}
		}
		lines = append(lines, fmt.Sprintf("%s: %s → %s", fieldLabels[field], diff.Old, diff.New))
	}

	title := fmt.Sprintf("Cijfer gewijzigd: %s", subjectName(grade))
	message := fmt.Sprintf("%s\n%s\nHuidig cijfer: %s\nPeriode %d\n\nWijzigingen:\n%s",
		subjectName(grade), testName(grade), grade.DisplayResult(), grade.Period, strings.Join(lines, "\n"))
	return title, message, sound
}

func (p *pushsaferNotifier) renderRemoved(settings domain.PushsaferSettings, change domain.GradeChange) (string, string, int) {
	grade := change.Grade
	value := grade.DisplayResult()

	title := fmt.Sprintf("Cijfer verwijderd: %s", value)
	message := fmt.Sprintf("%s\n%s\nVerwijderd cijfer: %s\nPeriode %d\nWeging: %g",
		subjectName(grade), testName(grade), value, grade.Period, grade.Weighting)
	if grade.TestType != "" {
		message += fmt.Sprintf("\nToetssoort: %s", grade.TestType)
	}
	return title, message, settings.GetSoundLow()
}

func (p *pushsaferNotifier) NotifyScheduleChanges(ctx context.Context, user *domain.MonitorUser, changes []domain.ScheduleChange, current domain.ScheduleDisplay) error {
	settings := user.Settings.Notify.Pushsafer
	if !settings.ScheduleEnabled || settings.APIKey == "" {
		return nil
	}

	var lines []string
	for _, c := range orderChanges(changes) {
		if line := scheduleChangeLine(c, "", dayShort(c.Day)); line != "" {
			lines = append(lines, line)
		}
	}

	message := strings.Join(lines, "\n")
	if len(changes) > 0 {
		byDay := lessonsByDay(current)
		message += "\n\nvandaag:\n" + formatDaySchedule(byDay[0], true)
	}

	title := fmt.Sprintf("Rooster gewijzigd (%d %s)", len(changes), changeWord(len(changes)))
	return p.send(ctx, settings, title, message, settings.GetSoundMedium())
}

func (p *pushsaferNotifier) NotifyErrorDigest(ctx context.Context, user *domain.MonitorUser, entries []domain.ErrorEvent) error {
	settings := user.Settings.Notify.Pushsafer
	if !settings.ErrorsEnabled || settings.APIKey == "" {
		return nil
	}

	total, lines := digestLines(entries)
	title := fmt.Sprintf("Fouten (%d)", total)
	return p.send(ctx, settings, title, strings.Join(lines, "\n"), settings.GetSoundLow())
}

func (p *pushsaferNotifier) send(ctx context.Context, settings domain.PushsaferSettings, title, message string, sound int) error {
	form := url.Values{
		"k":  {settings.APIKey},
		"d":  {settings.DeviceID},
		"t":  {title},
		"m":  {message},
		"s":  {strconv.Itoa(sound)},
		"i":  {strconv.Itoa(settings.GetIcon())},
		"pr": {strconv.Itoa(settings.GetPriority())},
		"u":  {"somtoday://"},
		"ut": {"SOMTODAY"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		p.log.WithError(err).Error("Pushsafer notification failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		p.log.WithField("status", resp.StatusCode).Error("Pushsafer rejected notification")
		return fmt.Errorf("pushsafer returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
