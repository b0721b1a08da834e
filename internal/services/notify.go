package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue   = 3447003  // #3498DB - informational
	ColorGreen  = 65280    // #00FF00 - positive outcome
	ColorOrange = 16753920 // #FFA500 - needs attention

	Username = "HireX"
)

// Notifier posts recruitment events to the configured team webhooks.
// Delivery is best-effort: failures are logged and swallowed so a dead
// webhook never fails an API request.
type Notifier struct {
	SlackWebhook   string
	DiscordWebhook string
}

var notifier Notifier

// Configure sets the process-wide webhook targets. Called once at startup.
func Configure(n Notifier) {
	notifier = n
}

type Event struct {
	Title  string
	Text   string
	Color  int          // Discord embed color
	Status string       // Slack attachment color: good, warning, danger
	Fields []SlackField // mirrored into Discord fields
	Footer string
}

// Dispatch fans the event out to every configured webhook. Intended to
// be called in a goroutine from request handlers.
func Dispatch(event Event) {
	if notifier.DiscordWebhook != "" {
		if err := sendDiscordEvent(notifier.DiscordWebhook, event); err != nil {
			log.Printf("Failed to send Discord notification: %v", err)
		}
	}

	if notifier.SlackWebhook != "" {
		if err := sendSlackEvent(notifier.SlackWebhook, event); err != nil {
			log.Printf("Failed to send Slack notification: %v", err)
		}
	}
}

func NotifyInterviewScheduled(candidateName, jdTitle, roundName string, scheduledAt *time.Time) {
	when := "TBD"
	if scheduledAt != nil {
		when = scheduledAt.Format("2006-01-02 15:04 UTC")
	}

	Dispatch(Event{
		Title:  "Interview Scheduled",
		Text:   fmt.Sprintf("%s for %s", roundName, candidateName),
		Color:  ColorBlue,
		Status: "good",
		Fields: []SlackField{
			{Title: "Candidate", Value: candidateName, Short: true},
			{Title: "Position", Value: jdTitle, Short: true},
			{Title: "Round", Value: roundName, Short: true},
			{Title: "Scheduled At", Value: when, Short: true},
		},
		Footer: "HireX Recruitment",
	})
}

func NotifyOfferSent(candidateName, jdTitle, offerNumber string) {
	Dispatch(Event{
		Title:  "Offer Sent",
		Text:   fmt.Sprintf("Offer %s released to %s", offerNumber, candidateName),
		Color:  ColorGreen,
		Status: "good",
		Fields: []SlackField{
			{Title: "Candidate", Value: candidateName, Short: true},
			{Title: "Position", Value: jdTitle, Short: true},
			{Title: "Offer Number", Value: offerNumber, Short: true},
		},
		Footer: "HireX Recruitment",
	})
}

func NotifyCandidateJoined(candidateName, jdTitle string) {
	Dispatch(Event{
		Title:  "Candidate Joined",
		Text:   fmt.Sprintf("%s has joined as %s", candidateName, jdTitle),
		Color:  ColorGreen,
		Status: "good",
		Fields: []SlackField{
			{Title: "Candidate", Value: candidateName, Short: true},
			{Title: "Position", Value: jdTitle, Short: true},
		},
		Footer: "HireX Recruitment",
	})
}

func NotifySLABreach(count int) {
	Dispatch(Event{
		Title:  "SLA Breach",
		Text:   fmt.Sprintf("%d application(s) crossed their submission deadline", count),
		Color:  ColorOrange,
		Status: "danger",
		Fields: []SlackField{
			{Title: "Newly Breached", Value: fmt.Sprintf("%d", count), Short: true},
		},
		Footer: "HireX SLA Sweep",
	})
}

func sendDiscordEvent(webhookURL string, event Event) error {
	fields := make([]DiscordWebhookField, 0, len(event.Fields))
	for _, f := range event.Fields {
		fields = append(fields, DiscordWebhookField{Name: f.Title, Value: f.Value, Inline: f.Short})
	}

	payload := DiscordWebhookRequest{
		Username: Username,
		Embeds: []DiscordEmbed{
			{
				Title:       event.Title,
				Description: event.Text,
				Color:       event.Color,
				Fields:      fields,
				Footer:      &DiscordFooter{Text: event.Footer},
				Timestamp:   time.Now().Format(time.RFC3339),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackEvent(webhookURL string, event Event) error {
	payload := SlackWebhookRequest{
		Username: Username,
		Text:     "*" + event.Title + "*",
		Attachments: []SlackAttachment{
			{
				Color:     event.Status,
				Title:     event.Title,
				Text:      event.Text,
				Fields:    event.Fields,
				Footer:    event.Footer,
				Timestamp: time.Now().Unix(),
			},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
