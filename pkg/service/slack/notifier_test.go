package slack_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/m-mizutani/gt"
	svc "github.com/secmon-lab/themis/pkg/service/slack"
	"github.com/slack-go/slack"
)

type postedMessage struct {
	channel string
	text    string
	blocks  string
}

type mockSlackAPI struct {
	mu      sync.Mutex
	posted  []postedMessage
	users   map[string]string
	lookups int
	postErr error
}

func (m *mockSlackAPI) PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error) {
	if m.postErr != nil {
		return "", "", m.postErr
	}
	_, values, err := slack.UnsafeApplyMsgOptions("", channelID, "", options...)
	if err != nil {
		return "", "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.posted = append(m.posted, postedMessage{
		channel: channelID,
		text:    values.Get("text"),
		blocks:  values.Get("blocks"),
	})
	return channelID, "1700000000.000100", nil
}

func (m *mockSlackAPI) GetUserByEmailContext(ctx context.Context, email string) (*slack.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups++
	if id, ok := m.users[email]; ok {
		return &slack.User{ID: id}, nil
	}
	return nil, errors.New("users_not_found")
}

var testPayload = map[string]string{
	"entity_id":    "e-1",
	"entity_kind":  "vendor_assessment",
	"title":        "ACME Corp",
	"from":         "draft",
	"to":           "sent",
	"actor_id":     "U0123456789",
	"workspace_id": "grc",
}

func TestNew(t *testing.T) {
	t.Run("returns error when token is empty", func(t *testing.T) {
		_, err := svc.New("", "#grc")
		gt.Value(t, err).NotNil()
	})

	t.Run("returns error when channel is empty", func(t *testing.T) {
		_, err := svc.New("xoxb-test", "")
		gt.Value(t, err).NotNil()
	})

	t.Run("creates notifier when token and channel are provided", func(t *testing.T) {
		n, err := svc.New("xoxb-test", "#grc")
		gt.NoError(t, err).Required()
		gt.Value(t, n).NotNil()
	})
}

func TestNotifier_Notify(t *testing.T) {
	ctx := context.Background()

	t.Run("posts to default channel with user mention", func(t *testing.T) {
		api := &mockSlackAPI{}
		n, err := svc.NewWithAPI(api, "GRC Alerts")
		gt.NoError(t, err).Required()

		gt.NoError(t, n.Notify(ctx, "U0123456789", "vendor_assessment_sent", testPayload)).Required()

		gt.Array(t, api.posted).Length(1).Required()
		gt.Value(t, api.posted[0].channel).Equal("#grc-alerts")
		gt.String(t, api.posted[0].text).Contains("Vendor questionnaire sent")
		gt.String(t, api.posted[0].text).Contains("<@U0123456789>")
		gt.String(t, api.posted[0].blocks).Contains("ACME Corp")
		gt.Number(t, api.lookups).Equal(0)
	})

	t.Run("template channel overrides default", func(t *testing.T) {
		api := &mockSlackAPI{}
		n, err := svc.NewWithAPI(api, "#grc",
			svc.WithTemplateChannel("vendor_assessment_expired", "C0123456789"))
		gt.NoError(t, err).Required()

		gt.NoError(t, n.Notify(ctx, "", "vendor_assessment_expired", testPayload)).Required()
		gt.NoError(t, n.Notify(ctx, "", "risk_closed", testPayload)).Required()

		gt.Array(t, api.posted).Length(2).Required()
		gt.Value(t, api.posted[0].channel).Equal("C0123456789")
		gt.Value(t, api.posted[1].channel).Equal("#grc")
	})

	t.Run("workspace channel overrides template channel", func(t *testing.T) {
		api := &mockSlackAPI{}
		n, err := svc.NewWithAPI(api, "#grc",
			svc.WithTemplateChannel("risk_closed", "C0123456789"),
			svc.WithWorkspaceChannel("grc", "risk_closed", "Risk Board"))
		gt.NoError(t, err).Required()

		other := map[string]string{"workspace_id": "other"}
		gt.NoError(t, n.Notify(ctx, "", "risk_closed", testPayload)).Required()
		gt.NoError(t, n.Notify(ctx, "", "risk_closed", other)).Required()

		gt.Array(t, api.posted).Length(2).Required()
		gt.Value(t, api.posted[0].channel).Equal("#risk-board")
		gt.Value(t, api.posted[1].channel).Equal("C0123456789")
	})

	t.Run("email recipients are resolved once", func(t *testing.T) {
		api := &mockSlackAPI{users: map[string]string{"alice@example.com": "U0AAAAAAAA1"}}
		n, err := svc.NewWithAPI(api, "#grc")
		gt.NoError(t, err).Required()

		for i := 0; i < 3; i++ {
			gt.NoError(t, n.Notify(ctx, "alice@example.com", "risk_accepted", testPayload)).Required()
		}
		gt.Number(t, api.lookups).Equal(1)
		gt.String(t, api.posted[0].text).Contains("<@U0AAAAAAAA1>")
	})

	t.Run("unknown email is shown as plain text", func(t *testing.T) {
		api := &mockSlackAPI{}
		n, err := svc.NewWithAPI(api, "#grc")
		gt.NoError(t, err).Required()

		gt.NoError(t, n.Notify(ctx, "security@vendor.example", "vendor_assessment_sent", testPayload)).Required()
		gt.String(t, api.posted[0].text).Contains("security@vendor.example")
	})

	t.Run("post failure is returned", func(t *testing.T) {
		api := &mockSlackAPI{postErr: errors.New("channel_not_found")}
		n, err := svc.NewWithAPI(api, "#grc")
		gt.NoError(t, err).Required()

		gt.Value(t, n.Notify(ctx, "", "risk_closed", testPayload)).NotNil()
	})
}

func TestBuildMessage(t *testing.T) {
	blocks, text := svc.BuildMessage("unknown_template", "", testPayload)
	gt.Array(t, blocks).Length(3)
	gt.String(t, text).Contains("unknown_template")
	gt.String(t, text).Contains("ACME Corp")
}

func TestChannelRef(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"C0123456789", "C0123456789"},
		{"#grc-alerts", "#grc-alerts"},
		{"GRC Alerts", "#grc-alerts"},
		{"#Gestão de Riscos", "#gestão-de-riscos"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gt.Value(t, svc.ChannelRef(tt.input)).Equal(tt.want)
		})
	}
}

func TestNormalizeChannelName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "spaces to hyphens", input: "risk management", want: "risk-management"},
		{name: "uppercase lowered", input: "GRC", want: "grc"},
		{name: "symbols removed", input: "grc/alerts.v2!", want: "grcalertsv2"},
		{name: "accents preserved", input: "avaliação", want: "avaliação"},
		{name: "underscores preserved", input: "vendor_alerts", want: "vendor_alerts"},
		{name: "empty string", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gt.Value(t, svc.NormalizeChannelName(tt.input)).Equal(tt.want)
		})
	}
}
