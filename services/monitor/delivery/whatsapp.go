package delivery

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"

	"somplus/domain"
)

type whatsappNotifier struct {
	meowClient *whatsmeow.Client
	log        *logrus.Logger
}

func NewWhatsappNotifier(meowClient *whatsmeow.Client, log *logrus.Logger) domain.Notifier {
	return &whatsappNotifier{meowClient: meowClient, log: log}
}

func (w *whatsappNotifier) Name() string { return "whatsapp" }

func (w *whatsappNotifier) NotifyGradeChange(ctx context.Context, user *domain.MonitorUser, change domain.GradeChange) error {
	settings := user.Settings.Notify.Whatsapp
	if !settings.GradesEnabled || settings.Telephone == "" {
		return nil
	}

	grade := change.Grade
	var body string
	switch change.Kind {
	case domain.GradeNewRetake:
		body = fmt.Sprintf("Herkansing voor %s (%s): %s → %s, geldig cijfer %s",
			subjectName(grade), testName(grade), change.OriginalResult, change.RetakeResult, grade.DisplayResult())
	case domain.GradeNew:
		body = fmt.Sprintf("Nieuw cijfer voor %s: %s voor %s (%s), periode %d, weging %g",
			user.DisplayName, grade.DisplayResult(), subjectName(grade), testName(grade), grade.Period, grade.Weighting)
	case domain.GradeChanged:
		var lines []string
		for _, field := range fieldOrder {
			if diff, ok := change.Fields[field]; ok {
				lines = append(lines, fmt.Sprintf("%s: %s → %s", fieldLabels[field], diff.Old, diff.New))
			}
		}
		body = fmt.Sprintf("Cijfer gewijzigd voor %s (%s):\n%s",
			subjectName(grade), testName(grade), strings.Join(lines, "\n"))
	case domain.GradeRemoved:
		body = fmt.Sprintf("Cijfer verwijderd voor %s (%s): %s",
			subjectName(grade), testName(grade), grade.DisplayResult())
	default:
		return nil
	}

	return w.sendWA(ctx, settings.Telephone, body)
}

func (w *whatsappNotifier) NotifyScheduleChanges(ctx context.Context, user *domain.MonitorUser, changes []domain.ScheduleChange, current domain.ScheduleDisplay) error {
	settings := user.Settings.Notify.Whatsapp
	if !settings.ScheduleEnabled || settings.Telephone == "" {
		return nil
	}

	body := fmt.Sprintf("%d rooster%s voor %s (week %d):\n%s",
		len(changes), changeWord(len(changes)), user.DisplayName, current.WeekNumber,
		formatScheduleChanges(changes, ""))
	return w.sendWA(ctx, settings.Telephone, body)
}

func (w *whatsappNotifier) NotifyErrorDigest(ctx context.Context, user *domain.MonitorUser, entries []domain.ErrorEvent) error {
	settings := user.Settings.Notify.Whatsapp
	if !settings.ErrorsEnabled || settings.Telephone == "" {
		return nil
	}

	total, lines := digestLines(entries)
	body := fmt.Sprintf("Fouten (%d) in het afgelopen uur:\n%s", total, strings.Join(lines, "\n"))
	return w.sendWA(ctx, settings.Telephone, body)
}

func (w *whatsappNotifier) sendWA(ctx context.Context, telephone, body string) error {
	// Dutch numbers are stored with a leading zero; the JID wants the
	// country code instead.
	completeFormat := telephone
	if strings.HasPrefix(telephone, "0") {
		completeFormat = fmt.Sprintf("%s%s", "31", telephone[1:])
	}

	jid := types.NewJID(completeFormat, types.DefaultUserServer)

	conversationMessage := &waE2E.Message{
		Conversation: &body,
	}

	_, err := w.meowClient.SendMessage(ctx, jid, conversationMessage)
	if err != nil {
		w.log.WithField("telephone", completeFormat).WithError(err).Error("WhatsApp send failed")
		return err
	}
	return nil
}
