package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/core/retrieval"
)

// runAskFlags は ask のフラグだけを持つコマンドを実行して問い合わせパラメータを返す
func runAskFlags(t *testing.T, spaceID uuid.UUID, args ...string) (retrieval.QueryParams, error) {
	t.Helper()

	var (
		got      retrieval.QueryParams
		paramErr error
	)
	cmd := &cli.Command{
		Name:  "ask",
		Flags: AskFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			got, paramErr = askParams(cmd, "有給休暇は何日？", spaceID)
			return nil
		},
	}
	require.NoError(t, cmd.Run(context.Background(), append([]string{"ask"}, args...)))
	return got, paramErr
}

func TestAskParams(t *testing.T) {
	spaceID := uuid.New()
	promptFile := filepath.Join(t.TempDir(), "prompt.txt")
	require.NoError(t, os.WriteFile(promptFile, []byte("人事規程だけを根拠に答える\n"), 0o600))

	tests := []struct {
		name       string
		args       []string
		wantTopK   int
		wantModel  string
		wantPrompt string
	}{
		{
			name:     "既定値",
			wantTopK: retrieval.DefaultTopK,
		},
		{
			name:       "システムプロンプトを指定",
			args:       []string{"--system-prompt", "  箇条書きで答える ", "--top-k", "3", "--model", "openai/gpt-4o-mini"},
			wantTopK:   3,
			wantModel:  "openai/gpt-4o-mini",
			wantPrompt: "箇条書きで答える",
		},
		{
			name:       "ファイル指定が優先",
			args:       []string{"--system-prompt", "無視される", "--system-prompt-file", promptFile},
			wantTopK:   retrieval.DefaultTopK,
			wantPrompt: "人事規程だけを根拠に答える",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runAskFlags(t, spaceID, tt.args...)
			require.NoError(t, err)

			assert.Equal(t, "有給休暇は何日？", got.Question)
			assert.Equal(t, spaceID, got.SpaceID)
			assert.Equal(t, tt.wantTopK, got.TopK)
			assert.Equal(t, tt.wantModel, got.Model)
			assert.Equal(t, tt.wantPrompt, got.SystemPrompt)
			assert.Equal(t, retrieval.ChannelChat, got.Channel)
		})
	}
}

func TestAskParams_MissingPromptFile(t *testing.T) {
	_, err := runAskFlags(t, uuid.New(), "--system-prompt-file", filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}
