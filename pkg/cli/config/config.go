package config

import (
	"errors"
	"io/fs"
	"os"
	"sort"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/secmon-lab/themis/pkg/domain/lifecycle"
	"github.com/secmon-lab/themis/pkg/domain/model"
	domainConfig "github.com/secmon-lab/themis/pkg/domain/model/config"
	"github.com/secmon-lab/themis/pkg/domain/scoring"
	"github.com/secmon-lab/themis/pkg/domain/types"
	"github.com/urfave/cli/v3"
)

// WorkspaceConfig is the content of one workspace TOML file
type WorkspaceConfig struct {
	Workspace    WorkspaceSection    `toml:"workspace"`
	Matrix       *MatrixSection      `toml:"matrix"`
	Impact       []ImpactLevel       `toml:"impact"`
	Likelihood   []LikelihoodLevel   `toml:"likelihood"`
	Scoring      *ScoringSection     `toml:"scoring"`
	Notification NotificationSection `toml:"notification"`
}

type WorkspaceSection struct {
	ID   string `toml:"id"`
	Name string `toml:"name"`
}

type MatrixSection struct {
	GridSize int `toml:"grid_size"`
}

// LikelihoodLevel represents a likelihood level configuration
type LikelihoodLevel struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Score       int    `toml:"score"`
}

// ImpactLevel represents an impact level configuration
type ImpactLevel struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	Score       int    `toml:"score"`
}

// ScoringSection overrides the scoring heuristics. Omitted values keep
// their defaults.
type ScoringSection struct {
	BooleanTrue    *float64 `toml:"boolean_true"`
	BooleanFalse   *float64 `toml:"boolean_false"`
	OrdinalStep    *float64 `toml:"ordinal_step"`
	NumericDivisor *float64 `toml:"numeric_divisor"`
}

// NotificationSection maps notification template IDs to Slack channels
type NotificationSection struct {
	Channels map[string]string `toml:"channels"`
}

type level struct {
	id    string
	name  string
	score int
}

func validateLevels(kind string, levels []level, grid int) error {
	if len(levels) != grid {
		return goerr.Wrap(ErrLevelCountMismatch, kind+" level count must equal grid size",
			goerr.V("count", len(levels)),
			goerr.V("grid_size", grid))
	}

	ids := make(map[string]bool)
	scores := make(map[int]bool)
	for _, l := range levels {
		if l.name == "" {
			return goerr.Wrap(ErrMissingName, kind+" level name is required", goerr.V(LevelIDKey, l.id))
		}
		if ids[l.id] {
			return goerr.Wrap(ErrDuplicateLevelID, "duplicate "+kind+" level ID", goerr.V(LevelIDKey, l.id))
		}
		ids[l.id] = true

		if l.score < 1 || l.score > grid || scores[l.score] {
			return goerr.Wrap(ErrInvalidLevelScore, kind+" level scores must be distinct positions 1..grid size",
				goerr.V(LevelIDKey, l.id),
				goerr.V(LevelScoreKey, l.score))
		}
		scores[l.score] = true
	}
	return nil
}

func (c *WorkspaceConfig) impactLevels() []level {
	out := make([]level, len(c.Impact))
	for i, l := range c.Impact {
		out[i] = level{id: l.ID, name: l.Name, score: l.Score}
	}
	return out
}

func (c *WorkspaceConfig) likelihoodLevels() []level {
	out := make([]level, len(c.Likelihood))
	for i, l := range c.Likelihood {
		out[i] = level{id: l.ID, name: l.Name, score: l.Score}
	}
	return out
}

// gridSize returns the configured grid, or 0 when the workspace uses the
// default matrix
func (c *WorkspaceConfig) gridSize() int {
	if c.Matrix != nil {
		return c.Matrix.GridSize
	}
	if len(c.Impact) > 0 || len(c.Likelihood) > 0 {
		return types.Grid5x5.Int()
	}
	return 0
}

// Validate checks if the WorkspaceConfig is valid. Level IDs are normalized
// in place.
func (c *WorkspaceConfig) Validate() error {
	if err := types.WorkspaceID(c.Workspace.ID).Validate(); err != nil {
		return goerr.Wrap(err, "invalid workspace ID")
	}
	if c.Workspace.Name == "" {
		return goerr.Wrap(ErrMissingName, "workspace name is required", goerr.V(WorkspaceIDKey, c.Workspace.ID))
	}

	if grid := c.gridSize(); grid != 0 {
		if !types.GridSize(grid).IsValid() {
			return goerr.Wrap(model.ErrUnsupportedGrid, "grid size must be 3, 4 or 5", goerr.V(model.GridSizeKey, grid))
		}
		// level IDs are stored normalized, so "Severe" and "severe" collide
		for i, l := range c.Impact {
			id, err := types.ParseImpactID(l.ID)
			if err != nil {
				return goerr.Wrap(err, "invalid impact level", goerr.V(LevelIDKey, l.ID))
			}
			c.Impact[i].ID = id.String()
		}
		for i, l := range c.Likelihood {
			id, err := types.ParseLikelihoodID(l.ID)
			if err != nil {
				return goerr.Wrap(err, "invalid likelihood level", goerr.V(LevelIDKey, l.ID))
			}
			c.Likelihood[i].ID = id.String()
		}
		if err := validateLevels("impact", c.impactLevels(), grid); err != nil {
			return err
		}
		if err := validateLevels("likelihood", c.likelihoodLevels(), grid); err != nil {
			return err
		}
	}

	if c.Scoring != nil {
		if err := c.ScoringRules().Validate(); err != nil {
			return goerr.Wrap(err, "invalid scoring rules")
		}
	}

	known := lifecycle.TemplateIDs()
	for templateID, channel := range c.Notification.Channels {
		if !known[templateID] {
			return goerr.Wrap(ErrUnknownNotification, "notification channel for unknown template",
				goerr.V(TemplateIDKey, templateID))
		}
		if channel == "" {
			return goerr.Wrap(ErrInvalidConfig, "notification channel is empty", goerr.V(TemplateIDKey, templateID))
		}
	}

	return nil
}

func labels(levels []level) []string {
	sorted := make([]level, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].score < sorted[j].score })

	out := make([]string, len(sorted))
	for i, l := range sorted {
		out[i] = l.name
	}
	return out
}

// ToMatrixConfig converts the matrix and level sections. It returns nil
// when the workspace uses the default matrix.
func (c *WorkspaceConfig) ToMatrixConfig() *model.RiskMatrixConfig {
	grid := c.gridSize()
	if grid == 0 {
		return nil
	}
	return &model.RiskMatrixConfig{
		GridSize:         types.GridSize(grid),
		ImpactLabels:     labels(c.impactLevels()),
		LikelihoodLabels: labels(c.likelihoodLevels()),
	}
}

// ToMatrixScales converts the level sections to domain scales
func (c *WorkspaceConfig) ToMatrixScales() *domainConfig.MatrixScales {
	if len(c.Impact) == 0 && len(c.Likelihood) == 0 {
		return nil
	}

	impact := make([]domainConfig.ImpactLevel, len(c.Impact))
	for i, l := range c.Impact {
		impact[i] = domainConfig.ImpactLevel{
			ID:          types.ImpactID(l.ID),
			Name:        l.Name,
			Description: l.Description,
			Score:       l.Score,
		}
	}

	likelihood := make([]domainConfig.LikelihoodLevel, len(c.Likelihood))
	for i, l := range c.Likelihood {
		likelihood[i] = domainConfig.LikelihoodLevel{
			ID:          types.LikelihoodID(l.ID),
			Name:        l.Name,
			Description: l.Description,
			Score:       l.Score,
		}
	}

	return &domainConfig.MatrixScales{Impact: impact, Likelihood: likelihood}
}

// ScoringRules applies the scoring section over the default rules
func (c *WorkspaceConfig) ScoringRules() scoring.Rules {
	rules := scoring.DefaultRules()
	if c.Scoring == nil {
		return rules
	}
	if c.Scoring.BooleanTrue != nil {
		rules.BooleanTrue = *c.Scoring.BooleanTrue
	}
	if c.Scoring.BooleanFalse != nil {
		rules.BooleanFalse = *c.Scoring.BooleanFalse
	}
	if c.Scoring.OrdinalStep != nil {
		rules.OrdinalStep = *c.Scoring.OrdinalStep
	}
	if c.Scoring.NumericDivisor != nil {
		rules.NumericDivisor = *c.Scoring.NumericDivisor
	}
	return rules
}

// ToEntry converts the configuration to a registry entry
func (c *WorkspaceConfig) ToEntry() *model.WorkspaceEntry {
	channels := make(map[string]string, len(c.Notification.Channels))
	for k, v := range c.Notification.Channels {
		channels[k] = v
	}
	return &model.WorkspaceEntry{
		Workspace:      model.Workspace{ID: c.Workspace.ID, Name: c.Workspace.Name},
		Matrix:         c.ToMatrixConfig(),
		Scales:         c.ToMatrixScales(),
		NotifyChannels: channels,
	}
}

// LoadWorkspaceConfig loads one workspace configuration from a TOML file
func LoadWorkspaceConfig(path string) (*WorkspaceConfig, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, goerr.Wrap(ErrConfigNotFound, "config file does not exist", goerr.V(ConfigPathKey, path))
		}
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V(ConfigPathKey, path))
	}

	var config WorkspaceConfig
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, goerr.Wrap(ErrInvalidConfig, "failed to parse TOML config",
			goerr.V(ConfigPathKey, path),
			goerr.V("error", err.Error()))
	}

	if err := config.Validate(); err != nil {
		return nil, goerr.Wrap(err, "config validation failed", goerr.V(ConfigPathKey, path))
	}

	return &config, nil
}

// AppConfig holds the workspace configuration files given on the command line
type AppConfig struct {
	files []string
}

// Flags returns CLI flags for workspace configuration
func (a *AppConfig) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:     "config",
			Aliases:  []string{"c"},
			Usage:    "Workspace configuration file (TOML), one per workspace",
			Category: "Workspace",
			Sources:  cli.EnvVars("THEMIS_CONFIG"),
		},
	}
}

// Configure loads every workspace file and builds the registry
func (a *AppConfig) Configure(c *cli.Command) ([]*WorkspaceConfig, *model.WorkspaceRegistry, error) {
	files := a.files
	if c != nil {
		files = c.StringSlice("config")
	}
	return LoadWorkspaces(files)
}

// LoadWorkspaces loads workspace files and builds the registry. Workspace
// IDs must be unique across files.
func LoadWorkspaces(paths []string) ([]*WorkspaceConfig, *model.WorkspaceRegistry, error) {
	if len(paths) == 0 {
		return nil, nil, goerr.Wrap(ErrConfigNotFound, "at least one --config file is required")
	}

	registry := model.NewWorkspaceRegistry()
	configs := make([]*WorkspaceConfig, 0, len(paths))
	seen := make(map[string]string)

	for _, path := range paths {
		cfg, err := LoadWorkspaceConfig(path)
		if err != nil {
			return nil, nil, err
		}
		if prev, ok := seen[cfg.Workspace.ID]; ok {
			return nil, nil, goerr.Wrap(ErrDuplicateWorkspace, "workspace ID is defined twice",
				goerr.V(WorkspaceIDKey, cfg.Workspace.ID),
				goerr.V(ConfigPathKey, path),
				goerr.V("previous_path", prev))
		}
		seen[cfg.Workspace.ID] = path

		configs = append(configs, cfg)
		registry.Register(cfg.ToEntry())
	}

	return configs, registry, nil
}

// ScoringRules returns the process-wide scoring rules. Workspaces that
// define a scoring section must agree on it.
func ScoringRules(configs []*WorkspaceConfig) (scoring.Rules, error) {
	rules := scoring.DefaultRules()
	var from string
	for _, cfg := range configs {
		if cfg.Scoring == nil {
			continue
		}
		r := cfg.ScoringRules()
		if from != "" && r != rules {
			return scoring.Rules{}, goerr.Wrap(ErrConflictingScoring, "scoring rules differ",
				goerr.V(WorkspaceIDKey, cfg.Workspace.ID),
				goerr.V("previous_workspace_id", from))
		}
		rules = r
		from = cfg.Workspace.ID
	}
	return rules, nil
}
