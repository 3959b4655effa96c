package config

// NewAppConfigForTest creates an AppConfig reading the given files
func NewAppConfigForTest(files ...string) *AppConfig {
	return &AppConfig{files: files}
}

// NewSlackForTest creates a Slack config for testing purposes
func NewSlackForTest(botToken, channel string) *Slack {
	return &Slack{
		botToken: botToken,
		channel:  channel,
	}
}
