package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/core/retrieval"
)

// AskFlags は ask コマンド固有のフラグを返す
func AskFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "top-k",
			Usage: "取得するチャンク数",
			Value: retrieval.DefaultTopK,
		},
		&cli.StringFlag{
			Name:  "model",
			Usage: "生成モデル（省略時は設定値）",
		},
		&cli.StringFlag{
			Name:  "system-prompt",
			Usage: "既定のシステムプロンプトを置き換える",
		},
		&cli.StringFlag{
			Name:  "system-prompt-file",
			Usage: "システムプロンプトをファイルから読み込む（--system-prompt より優先）",
		},
	}
}

// AskAction はスペースの文書に基づいて質問に回答するコマンドのアクション
func AskAction(ctx context.Context, cmd *cli.Command) error {
	question := strings.TrimSpace(strings.Join(cmd.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("質問を指定してください")
	}

	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	spaceID, err := resolveSpaceID(ctx, appCtx.Container.Spaces, cmd.String("space"))
	if err != nil {
		return err
	}

	params, err := askParams(cmd, question, spaceID)
	if err != nil {
		return err
	}

	result, err := appCtx.Container.Retrieval.Query(ctx, params)
	if err != nil {
		return fmt.Errorf("問い合わせに失敗: %w", err)
	}

	renderAnswer(os.Stdout, result)
	return nil
}

// askParams はフラグから問い合わせパラメータを組み立てる
func askParams(cmd *cli.Command, question string, spaceID uuid.UUID) (retrieval.QueryParams, error) {
	systemPrompt := cmd.String("system-prompt")
	if path := cmd.String("system-prompt-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return retrieval.QueryParams{}, fmt.Errorf("システムプロンプトの読み込みに失敗: %w", err)
		}
		systemPrompt = string(data)
	}

	return retrieval.QueryParams{
		Question:     question,
		SpaceID:      spaceID,
		TopK:         cmd.Int("top-k"),
		Model:        cmd.String("model"),
		SystemPrompt: strings.TrimSpace(systemPrompt),
		Channel:      retrieval.ChannelChat,
	}, nil
}

// renderAnswer は回答と根拠となったチャンクを表示する
func renderAnswer(w io.Writer, result *retrieval.Result) {
	fmt.Fprintf(w, "\n%s\n\n", result.Answer)
	fmt.Fprintf(w, "model: %s / chunks: %d / latency: %s\n", result.Model, result.ChunksRetrieved, result.Latency)

	if len(result.Sources) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.Header("#", "Filename", "Chunk", "Score")
	for i, src := range result.Sources {
		table.Append(
			strconv.Itoa(i+1),
			src.Filename,
			strconv.Itoa(src.ChunkIndex),
			strconv.FormatFloat(src.Score, 'f', 4, 64),
		)
	}
	table.Render()
}
