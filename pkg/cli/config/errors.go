package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound      = goerr.New("configuration file not found")
	ErrInvalidConfig       = goerr.New("invalid configuration")
	ErrDuplicateWorkspace  = goerr.New("duplicate workspace ID")
	ErrDuplicateLevelID    = goerr.New("duplicate level ID")
	ErrInvalidLevelScore   = goerr.New("invalid level score")
	ErrLevelCountMismatch  = goerr.New("level count does not match grid size")
	ErrConflictingScoring  = goerr.New("workspaces define different scoring rules")
	ErrUnknownNotification = goerr.New("unknown notification template")
	ErrMissingName         = goerr.New("name is required")
)

// Context keys for error values
const (
	ConfigPathKey  = "config_path"
	WorkspaceIDKey = "workspace_id"
	LevelIDKey     = "level_id"
	LevelScoreKey  = "level_score"
	TemplateIDKey  = "template_id"
)
