package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/themis/pkg/cli/config"
	"github.com/secmon-lab/themis/pkg/domain/model"
	"github.com/secmon-lab/themis/pkg/domain/types"
)

const fiveByFive = `
[workspace]
id = "grc"
name = "GRC Brasil"

[matrix]
grid_size = 5

[[impact]]
id = "very-low"
name = "Muito Baixo"
score = 1

[[impact]]
id = "low"
name = "Baixo"
score = 2

[[impact]]
id = "medium"
name = "Médio"
score = 3

[[impact]]
id = "high"
name = "Alto"
score = 4

[[impact]]
id = "very-high"
name = "Muito Alto"
score = 5

[[likelihood]]
id = "rare"
name = "Rara"
score = 1

[[likelihood]]
id = "unlikely"
name = "Improvável"
score = 2

[[likelihood]]
id = "possible"
name = "Possível"
score = 3

[[likelihood]]
id = "likely"
name = "Provável"
score = 4

[[likelihood]]
id = "almost-certain"
name = "Quase Certa"
score = 5

[scoring]
numeric_divisor = 1

[notification.channels]
vendor_assessment_expired = "C0123456789"
`

const threeByThree = `
[workspace]
id = "vendors"
name = "Vendors"

[matrix]
grid_size = 3

[[impact]]
id = "high"
name = "High"
score = 3

[[impact]]
id = "low"
name = "Low"
score = 1

[[impact]]
id = "medium"
name = "Medium"
score = 2

[[likelihood]]
id = "low"
name = "Low"
score = 1

[[likelihood]]
id = "medium"
name = "Medium"
score = 2

[[likelihood]]
id = "high"
name = "High"
score = 3
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workspace.toml")
	gt.NoError(t, os.WriteFile(path, []byte(content), 0600)).Required()
	return path
}

func TestLoadWorkspaceConfig(t *testing.T) {
	t.Run("5x5 matrix with scoring and notification", func(t *testing.T) {
		cfg, err := config.LoadWorkspaceConfig(writeConfig(t, fiveByFive))
		gt.NoError(t, err).Required()

		entry := cfg.ToEntry()
		gt.Value(t, entry.Workspace.ID).Equal("grc")
		gt.Value(t, entry.Matrix.GridSize).Equal(types.Grid5x5)
		gt.Array(t, entry.Matrix.ImpactLabels).Equal([]string{"Muito Baixo", "Baixo", "Médio", "Alto", "Muito Alto"})
		gt.Value(t, entry.NotifyChannels["vendor_assessment_expired"]).Equal("C0123456789")

		score, ok := entry.Scales.ImpactScore("high")
		gt.Bool(t, ok).True()
		gt.Number(t, score).Equal(4)

		rules := cfg.ScoringRules()
		gt.Number(t, rules.NumericDivisor).Equal(1)
		gt.Number(t, rules.BooleanTrue).Equal(10)
	})

	t.Run("labels are ordered by score", func(t *testing.T) {
		cfg, err := config.LoadWorkspaceConfig(writeConfig(t, threeByThree))
		gt.NoError(t, err).Required()

		m := cfg.ToMatrixConfig()
		gt.Value(t, m.GridSize).Equal(types.Grid3x3)
		gt.Array(t, m.ImpactLabels).Equal([]string{"Low", "Medium", "High"})
		gt.NoError(t, m.Validate())
	})

	t.Run("level IDs are normalized and collide case-insensitively", func(t *testing.T) {
		cfg, err := config.LoadWorkspaceConfig(writeConfig(t, strings.Replace(threeByThree, `id = "high"
name = "High"
score = 3`, `id = " High "
name = "High"
score = 3`, 1)))
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.Impact[0].ID).Equal("high")

		_, err = config.LoadWorkspaceConfig(writeConfig(t, strings.Replace(threeByThree, `id = "low"
name = "Low"
score = 1`, `id = "HIGH"
name = "Low"
score = 1`, 1)))
		gt.Error(t, err).Is(config.ErrDuplicateLevelID)
	})

	t.Run("workspace without matrix uses the default", func(t *testing.T) {
		cfg, err := config.LoadWorkspaceConfig(writeConfig(t, `
[workspace]
id = "grc"
name = "GRC"
`))
		gt.NoError(t, err).Required()
		gt.Value(t, cfg.ToMatrixConfig()).Nil()
		gt.Value(t, cfg.ToMatrixScales()).Nil()
	})

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{
			name:    "missing file name",
			content: "[workspace]\nid = \"grc\"\n",
			wantErr: config.ErrMissingName,
		},
		{
			name:    "broken TOML",
			content: "[workspace\n",
			wantErr: config.ErrInvalidConfig,
		},
		{
			name: "unsupported grid",
			content: `
[workspace]
id = "grc"
name = "GRC"
[matrix]
grid_size = 6
`,
			wantErr: model.ErrUnsupportedGrid,
		},
		{
			name: "level count does not match grid",
			content: `
[workspace]
id = "grc"
name = "GRC"
[matrix]
grid_size = 3
[[impact]]
id = "low"
name = "Low"
score = 1
`,
			wantErr: config.ErrLevelCountMismatch,
		},
		{
			name: "unknown notification template",
			content: `
[workspace]
id = "grc"
name = "GRC"
[notification.channels]
case_created = "C0123456789"
`,
			wantErr: config.ErrUnknownNotification,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadWorkspaceConfig(writeConfig(t, tt.content))
			gt.Error(t, err).Is(tt.wantErr)
		})
	}

	t.Run("file not found", func(t *testing.T) {
		_, err := config.LoadWorkspaceConfig(filepath.Join(t.TempDir(), "missing.toml"))
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})
}

func TestAppConfig_Configure(t *testing.T) {
	t.Run("builds registry from several files", func(t *testing.T) {
		app := config.NewAppConfigForTest(writeConfig(t, fiveByFive), writeConfig(t, threeByThree))
		configs, registry, err := app.Configure(nil)
		gt.NoError(t, err).Required()
		gt.Array(t, configs).Length(2)

		ws := registry.Workspaces()
		gt.Array(t, ws).Length(2).Required()
		gt.Value(t, ws[0].ID).Equal("grc")
		gt.Value(t, ws[1].ID).Equal("vendors")
	})

	t.Run("duplicate workspace", func(t *testing.T) {
		app := config.NewAppConfigForTest(writeConfig(t, fiveByFive), writeConfig(t, fiveByFive))
		_, _, err := app.Configure(nil)
		gt.Error(t, err).Is(config.ErrDuplicateWorkspace)
	})

	t.Run("no file", func(t *testing.T) {
		_, _, err := config.NewAppConfigForTest().Configure(nil)
		gt.Error(t, err).Is(config.ErrConfigNotFound)
	})
}

func TestScoringRules(t *testing.T) {
	grc, err := config.LoadWorkspaceConfig(writeConfig(t, fiveByFive))
	gt.NoError(t, err).Required()
	vendors, err := config.LoadWorkspaceConfig(writeConfig(t, threeByThree))
	gt.NoError(t, err).Required()

	t.Run("single definition wins", func(t *testing.T) {
		rules, err := config.ScoringRules([]*config.WorkspaceConfig{vendors, grc})
		gt.NoError(t, err).Required()
		gt.Number(t, rules.NumericDivisor).Equal(1)
	})

	t.Run("conflicting definitions", func(t *testing.T) {
		other, err := config.LoadWorkspaceConfig(writeConfig(t, `
[workspace]
id = "other"
name = "Other"
[scoring]
numeric_divisor = 20
`))
		gt.NoError(t, err).Required()

		_, err = config.ScoringRules([]*config.WorkspaceConfig{grc, other})
		gt.Error(t, err).Is(config.ErrConflictingScoring)
	})
}
