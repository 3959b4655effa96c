package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// api is the part of the Slack Web API the notifier uses
type api interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	GetUserByEmailContext(ctx context.Context, email string) (*slack.User, error)
}

// Template describes how a notification template is rendered
type Template struct {
	Title string
	Emoji string
}

// templates maps lifecycle template IDs to message headers. Unknown
// templates fall back to the template ID.
var templates = map[string]Template{
	"risk_accepted":               {Title: "Risk accepted", Emoji: ":warning:"},
	"risk_closed":                 {Title: "Risk closed", Emoji: ":white_check_mark:"},
	"assessment_under_review":     {Title: "Assessment ready for review", Emoji: ":mag:"},
	"assessment_completed":        {Title: "Assessment completed", Emoji: ":white_check_mark:"},
	"action_plan_approved":        {Title: "Action plan approved", Emoji: ":thumbsup:"},
	"action_plan_completed":       {Title: "Action plan completed", Emoji: ":white_check_mark:"},
	"action_plan_cancelled":       {Title: "Action plan cancelled", Emoji: ":x:"},
	"vendor_assessment_sent":      {Title: "Vendor questionnaire sent", Emoji: ":envelope:"},
	"vendor_assessment_completed": {Title: "Vendor questionnaire answered", Emoji: ":inbox_tray:"},
	"vendor_assessment_approved":  {Title: "Vendor approved", Emoji: ":white_check_mark:"},
	"vendor_assessment_rejected":  {Title: "Vendor rejected", Emoji: ":x:"},
	"vendor_assessment_expired":   {Title: "Vendor questionnaire expired", Emoji: ":hourglass:"},
}

func lookupTemplate(id string) Template {
	if t, ok := templates[id]; ok {
		return t
	}
	return Template{Title: id, Emoji: ":bell:"}
}
