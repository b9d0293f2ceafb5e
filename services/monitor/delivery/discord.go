package delivery

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/sirupsen/logrus"

	"somplus/domain"
)

type webhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type webhookFooter struct {
	Text string `json:"text"`
}

type webhookEmbed struct {
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	Color       int            `json:"color"`
	Fields      []webhookField `json:"fields,omitempty"`
	Footer      webhookFooter  `json:"footer"`
}

type webhookPayload struct {
	Content string         `json:"content,omitempty"`
	TTS     bool           `json:"tts"`
	Embeds  []webhookEmbed `json:"embeds"`
}

type discordNotifier struct {
	client *http.Client
	log    *logrus.Logger
}

func NewDiscordNotifier(log *logrus.Logger) domain.Notifier {
	return &discordNotifier{
		client: &http.Client{Timeout: 15 * time.Second},
		log:    log,
	}
}

func (d *discordNotifier) Name() string { return "discord" }

func (d *discordNotifier) NotifyGradeChange(ctx context.Context, user *domain.MonitorUser, change domain.GradeChange) error {
	settings := user.Settings.Notify.Discord
	if !settings.GradesEnabled || settings.GradesWebhookURL == "" {
		return nil
	}

	var content string
	var embed webhookEmbed

	switch change.Kind {
	case domain.GradeNewRetake:
		content, embed = d.renderRetake(user, settings, change)
	case domain.GradeNew:
		content, embed = d.renderNew(user, settings, change)
	case domain.GradeChanged:
		content, embed = d.renderChanged(user, settings, change)
	case domain.GradeRemoved:
		content, embed = d.renderRemoved(user, settings, change)
	default:
		return nil
	}

	if settings.MentionRoleID != "" {
		content += fmt.Sprintf(" - <@&%s>", settings.MentionRoleID)
	}

	payload := webhookPayload{Content: content, TTS: settings.TTS, Embeds: []webhookEmbed{embed}}
	return d.sendWebhook(ctx, settings.GradesWebhookURL, payload)
}

func (d *discordNotifier) renderRetake(user *domain.MonitorUser, settings domain.DiscordSettings, change domain.GradeChange) (string, webhookEmbed) {
	grade := change.Grade
	subject := subjectName(grade)

	color := settings.GetColorDefault()
	improvement := resultDelta(change.OriginalResult, change.RetakeResult)
	if origNum, ok := parseResult(change.OriginalResult); ok {
		if retakeNum, ok := parseResult(change.RetakeResult); ok {
			switch {
			case retakeNum > origNum:
				color = settings.GetColorHigh()
			case retakeNum < origNum:
				color = settings.GetColorLow()
			default:
				color = settings.GetColorMedium()
			}
		}
	}

	content := fmt.Sprintf("**Herkansing** voor %s: %s → %s (%s)", subject, change.OriginalResult, change.RetakeResult, improvement)

	fields := []webhookField{
		{Name: "Origineel cijfer", Value: fmt.Sprintf("~~%s~~", change.OriginalResult), Inline: true},
		{Name: "Herkansing", Value: fmt.Sprintf("**%s**", change.RetakeResult), Inline: true},
		{Name: "Geldig cijfer", Value: fmt.Sprintf("**%s**", grade.DisplayResult()), Inline: true},
		{Name: "Vak", Value: subject, Inline: true},
		{Name: "Weging", Value: fmt.Sprintf("%g", grade.Weighting), Inline: true},
		{Name: "Periode", Value: fmt.Sprintf("%d", grade.Period), Inline: true},
	}
	if grade.Retake != nil && grade.Retake.Type != "" {
		fields = append(fields, webhookField{Name: "Type", Value: grade.Retake.Type, Inline: true})
	}

	embed := webhookEmbed{
		Title:       fmt.Sprintf("Nieuwe herkansing voor %s", user.DisplayName),
		Description: fmt.Sprintf("**%s** - %s", subject, testName(grade)),
		Color:       color,
		Fields:      fields,
		Footer:      webhookFooter{Text: "SomPlus"},
	}
	return content, embed
}

func (d *discordNotifier) renderNew(user *domain.MonitorUser, settings domain.DiscordSettings, change domain.GradeChange) (string, webhookEmbed) {
	grade := change.Grade
	subject := subjectName(grade)
	value := grade.DisplayResult()

	color := settings.GetColorDefault()
	if num, ok := parseResult(value); ok {
		switch {
		case num >= settings.GetBreakpointHigh():
			color = settings.GetColorHigh()
		case num >= settings.GetBreakpointMedium():
			color = settings.GetColorMedium()
		default:
			color = settings.GetColorLow()
		}
	}

	content := fmt.Sprintf("**Nieuw cijfer: %s** voor %s", value, subject)

	fields := []webhookField{
		{Name: "Cijfer", Value: fmt.Sprintf("**%s**", value), Inline: true},
		{Name: "Vak", Value: subject, Inline: true},
		{Name: "Periode", Value: fmt.Sprintf("%d", grade.Period), Inline: true},
	}
	if grade.Weighting != 0 {
		fields = append(fields, webhookField{Name: "Weging", Value: fmt.Sprintf("%g", grade.Weighting), Inline: true})
	}
	if grade.TestType != "" {
		fields = append(fields, webhookField{Name: "Toetssoort", Value: grade.TestType, Inline: true})
	}
	if flags := gradeFlags(grade); len(flags) > 0 {
		fields = append(fields, webhookField{Name: "Status", Value: strings.Join(flags, "\n"), Inline: false})
	}
	if !grade.EnteredAt.IsZero() {
		fields = append(fields, webhookField{Name: "Invoerdatum", Value: grade.EnteredAt.Format("2006-01-02"), Inline: true})
	}

	embed := webhookEmbed{
		Title:       fmt.Sprintf("Nieuw cijfer voor %s", user.DisplayName),
		Description: fmt.Sprintf("**%s** - %s", subject, testName(grade)),
		Color:       color,
		Fields:      fields,
		Footer:      webhookFooter{Text: "SomPlus"},
	}
	return content, embed
}

func (d *discordNotifier) renderChanged(user *domain.MonitorUser, settings domain.DiscordSettings, change domain.GradeChange) (string, webhookEmbed) {
	grade := change.Grade
	subject := subjectName(grade)

	color := settings.GetColorMedium()
	var lines []string
	for _, field := range fieldOrder {
		diff, ok := change.Fields[field]
		if !ok {
			continue
		}

		switch field {
		case domain.FieldResult:
			oldNum, okOld := parseResult(diff.Old)
			newNum, okNew := parseResult(diff.New)
			if okOld && okNew && oldNum != newNum {
				if newNum > oldNum {
					color = settings.GetColorHigh()
				} else {
					color = settings.GetColorLow()
				}
				lines = append(lines, fmt.Sprintf("**Cijfer**: ~~%s~~ → **%s** (%s)", diff.Old, diff.New, resultDelta(diff.Old, diff.New)))
			} else {
				lines = append(lines, fmt.Sprintf("**Cijfer**: ~~%s~~ → **%s**", diff.Old, diff.New))
			}
		case domain.FieldRetakeResult:
			lines = append(lines, fmt.Sprintf("**Herkansing**: ~~%s~~ → **%s**", diff.Old, diff.New))
		default:
			lines = append(lines, fmt.Sprintf("**%s**: %s → %s", fieldLabels[field], diff.Old, diff.New))
		}
	}
	if len(lines) == 0 {
		lines = append(lines, "onbekend")
	}

	content := fmt.Sprintf("**Cijfer gewijzigd** voor %s", subject)

	fields := []webhookField{
		{Name: "Vak", Value: subject, Inline: false},
		{Name: "Wijzigingen", Value: strings.Join(lines, "\n"), Inline: false},
		{Name: "Huidig cijfer", Value: fmt.Sprintf("**%s**", grade.DisplayResult()), Inline: true},
	}
	if grade.Period != 0 {
		fields = append(fields, webhookField{Name: "Periode", Value: fmt.Sprintf("%d", grade.Period), Inline: true})
	}
	if grade.Weighting != 0 {
		fields = append(fields, webhookField{Name: "Weging", Value: fmt.Sprintf("%g", grade.Weighting), Inline: true})
	}

	embed := webhookEmbed{
		Title:       fmt.Sprintf("Cijfer gewijzigd voor %s", user.DisplayName),
		Description: fmt.Sprintf("**%s** - %s", subject, testName(grade)),
		Color:       color,
		Fields:      fields,
		Footer:      webhookFooter{Text: "SomPlus"},
	}
	return content, embed
}

func (d *discordNotifier) renderRemoved(user *domain.MonitorUser, settings domain.DiscordSettings, change domain.GradeChange) (string, webhookEmbed) {
	grade := change.Grade
	subject := subjectName(grade)
	value := grade.DisplayResult()

	content := fmt.Sprintf("**Cijfer verwijderd** voor %s: ~~%s~~", subject, value)

	fields := []webhookField{
		{Name: "Verwijderd cijfer", Value: fmt.Sprintf("~~%s~~", value), Inline: true},
		{Name: "Vak", Value: subject, Inline: true},
		{Name: "Periode", Value: fmt.Sprintf("%d", grade.Period), Inline: true},
	}
	if grade.Weighting != 0 {
		fields = append(fields, webhookField{Name: "Weging", Value: fmt.Sprintf("%g", grade.Weighting), Inline: true})
	}
	if grade.TestType != "" {
		fields = append(fields, webhookField{Name: "Toetssoort", Value: grade.TestType, Inline: true})
	}

	embed := webhookEmbed{
		Title:       fmt.Sprintf("Cijfer verwijderd voor %s", user.DisplayName),
		Description: fmt.Sprintf("**%s** - %s", subject, testName(grade)),
		Color:       settings.GetColorLow(),
		Fields:      fields,
		Footer:      webhookFooter{Text: "SomPlus"},
	}
	return content, embed
}

func (d *discordNotifier) NotifyScheduleChanges(ctx context.Context, user *domain.MonitorUser, changes []domain.ScheduleChange, current domain.ScheduleDisplay) error {
	settings := user.Settings.Notify.Discord
	if !settings.ScheduleEnabled || settings.ScheduleWebhookURL == "" {
		return nil
	}

	content := fmt.Sprintf("**%d rooster%s** voor %s", len(changes), changeWord(len(changes)), user.DisplayName)
	if settings.MentionRoleID != "" {
		content += fmt.Sprintf(" | <@&%s>", settings.MentionRoleID)
	}

	embeds := []webhookEmbed{{
		Title:       fmt.Sprintf("Roosterwijzigingen week %d", current.WeekNumber),
		Description: formatScheduleChanges(changes, "**"),
		Color:       settings.GetColorDefault(),
		Footer:      webhookFooter{Text: "SomPlus"},
	}}

	byDay := lessonsByDay(current)
	for _, day := range affectedDays(changes) {
		lessons, ok := byDay[day]
		if !ok {
			continue
		}
		embeds = append(embeds, webhookEmbed{
			Title:       dayLong(day),
			Description: formatDaySchedule(lessons, false),
			Color:       settings.GetColorMedium(),
			Footer:      webhookFooter{Text: "SomPlus"},
		})
	}

	payload := webhookPayload{Content: content, TTS: settings.TTS, Embeds: embeds}
	return d.sendWebhook(ctx, settings.ScheduleWebhookURL, payload)
}

func (d *discordNotifier) NotifyErrorDigest(ctx context.Context, user *domain.MonitorUser, entries []domain.ErrorEvent) error {
	settings := user.Settings.Notify.Discord
	if !settings.ErrorsEnabled || settings.ErrorsWebhookURL == "" {
		return nil
	}

	total, lines := digestLines(entries)

	var content string
	if settings.MentionRoleID != "" {
		content = fmt.Sprintf("<@&%s>", settings.MentionRoleID)
	}

	embed := webhookEmbed{
		Title:       fmt.Sprintf("Errors (%d)", total),
		Description: fmt.Sprintf("%d %s occurred in the past hour\n\n%s", total, errorWord(total), strings.Join(lines, "\n")),
		Color:       settings.GetColorLow(),
		Footer:      webhookFooter{Text: "SomPlus"},
	}

	payload := webhookPayload{Content: content, TTS: settings.TTS, Embeds: []webhookEmbed{embed}}
	return d.sendWebhook(ctx, settings.ErrorsWebhookURL, payload)
}

func (d *discordNotifier) sendWebhook(ctx context.Context, webhookURL string, payload webhookPayload) error {
	body, err := sonic.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		d.log.WithError(err).Error("Discord webhook failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		d.log.WithField("status", resp.StatusCode).Error("Discord webhook rejected")
		return fmt.Errorf("discord webhook returned %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
