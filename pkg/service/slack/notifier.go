package slack

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/themis/pkg/domain/interfaces"
	"github.com/secmon-lab/themis/pkg/utils/logging"
	"github.com/slack-go/slack"
)

const (
	// DefaultCacheTTL is the default TTL for the email to user ID cache
	DefaultCacheTTL = 10 * time.Minute
)

// cacheEntry holds a resolved Slack user ID with expiration
type cacheEntry struct {
	userID    string
	expiresAt time.Time
}

// Notifier posts one Block Kit message per notify intent
type Notifier struct {
	api            api
	defaultChannel string
	channels       map[string]string
	wsChannels     map[string]map[string]string
	cacheTTL       time.Duration

	mu    sync.RWMutex
	cache map[string]cacheEntry
}

var _ interfaces.Notifier = &Notifier{}

// Option is a functional option for Notifier configuration
type Option func(*Notifier)

// WithCacheTTL sets the TTL for resolved recipients
func WithCacheTTL(ttl time.Duration) Option {
	return func(n *Notifier) {
		n.cacheTTL = ttl
	}
}

// WithTemplateChannel routes a template to its own channel
func WithTemplateChannel(templateID, channel string) Option {
	return func(n *Notifier) {
		n.channels[templateID] = ChannelRef(channel)
	}
}

// WithWorkspaceChannel routes a template of one workspace to its own
// channel. It takes precedence over WithTemplateChannel.
func WithWorkspaceChannel(workspaceID, templateID, channel string) Option {
	return func(n *Notifier) {
		if n.wsChannels[workspaceID] == nil {
			n.wsChannels[workspaceID] = make(map[string]string)
		}
		n.wsChannels[workspaceID][templateID] = ChannelRef(channel)
	}
}

// New creates a Notifier with the provided bot token
func New(token, defaultChannel string, opts ...Option) (*Notifier, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	return newNotifier(slack.New(token), defaultChannel, opts...)
}

func newNotifier(client api, defaultChannel string, opts ...Option) (*Notifier, error) {
	if defaultChannel == "" {
		return nil, goerr.New("Slack channel is required")
	}

	n := &Notifier{
		api:            client,
		defaultChannel: ChannelRef(defaultChannel),
		channels:       make(map[string]string),
		wsChannels:     make(map[string]map[string]string),
		cacheTTL:       DefaultCacheTTL,
		cache:          make(map[string]cacheEntry),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n, nil
}

// Notify posts the message of templateID to the channel of the template,
// mentioning recipient
func (n *Notifier) Notify(ctx context.Context, recipient, templateID string, payload map[string]string) error {
	channel := n.channelOf(payload["workspace_id"], templateID)
	mention := n.mention(ctx, recipient)
	blocks, text := buildMessage(templateID, mention, payload)

	_, ts, err := n.api.PostMessageContext(ctx, channel,
		slack.MsgOptionBlocks(blocks...),
		slack.MsgOptionText(text, false),
	)
	if err != nil {
		return goerr.Wrap(err, "failed to post Slack message",
			goerr.V("channel", channel),
			goerr.V("template_id", templateID))
	}

	logging.From(ctx).Debug("posted Slack notification",
		"channel", channel,
		"template_id", templateID,
		"ts", ts)
	return nil
}

func (n *Notifier) channelOf(workspaceID, templateID string) string {
	if ch, ok := n.wsChannels[workspaceID][templateID]; ok && ch != "" {
		return ch
	}
	if ch, ok := n.channels[templateID]; ok && ch != "" {
		return ch
	}
	return n.defaultChannel
}

// mention turns a recipient into a Slack mention. User IDs are used as-is,
// e-mail addresses are looked up, anything else is shown as plain text.
func (n *Notifier) mention(ctx context.Context, recipient string) string {
	switch {
	case recipient == "":
		return ""
	case strings.Contains(recipient, "@"):
		if id := n.lookupEmail(ctx, recipient); id != "" {
			return fmt.Sprintf("<@%s>", id)
		}
	case isUserID(recipient):
		return fmt.Sprintf("<@%s>", recipient)
	}
	return recipient
}

func (n *Notifier) lookupEmail(ctx context.Context, email string) string {
	now := time.Now()

	n.mu.RLock()
	entry, ok := n.cache[email]
	n.mu.RUnlock()
	if ok && entry.expiresAt.After(now) {
		return entry.userID
	}

	user, err := n.api.GetUserByEmailContext(ctx, email)
	if err != nil {
		// external contacts are usually not Slack users
		logging.From(ctx).Debug("recipient not found in Slack", "email", email, "error", err)
		return ""
	}

	n.mu.Lock()
	n.cache[email] = cacheEntry{userID: user.ID, expiresAt: now.Add(n.cacheTTL)}
	n.mu.Unlock()
	return user.ID
}

func isUserID(s string) bool {
	if len(s) < 9 || (s[0] != 'U' && s[0] != 'W') {
		return false
	}
	for _, r := range s {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}

func buildMessage(templateID, mention string, payload map[string]string) ([]slack.Block, string) {
	tmpl := lookupTemplate(templateID)
	title := payload["title"]

	text := fmt.Sprintf("%s %s: %s", tmpl.Emoji, tmpl.Title, title)
	if mention != "" {
		text += " " + mention
	}

	header := slack.NewHeaderBlock(
		slack.NewTextBlockObject(slack.PlainTextType, fmt.Sprintf("%s %s", tmpl.Emoji, tmpl.Title), true, false),
	)

	fields := []*slack.TextBlockObject{
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Title*\n%s", title), false, false),
		slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Status*\n%s → %s", payload["from"], payload["to"]), false, false),
	}
	if mention != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Recipient*\n%s", mention), false, false))
	}
	if actor := payload["actor_id"]; actor != "" {
		fields = append(fields, slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*By*\n%s", actorLabel(actor)), false, false))
	}
	section := slack.NewSectionBlock(nil, fields, nil)

	contextBlock := slack.NewContextBlock("",
		slack.NewTextBlockObject(slack.MarkdownType,
			fmt.Sprintf("%s `%s` · workspace `%s`", payload["entity_kind"], payload["entity_id"], payload["workspace_id"]),
			false, false),
	)

	return []slack.Block{header, section, contextBlock}, text
}

func actorLabel(actorID string) string {
	if isUserID(actorID) {
		return fmt.Sprintf("<@%s>", actorID)
	}
	return actorID
}
