package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/core/querylog"
)

// StatsAction は利用状況の集計と直近の問い合わせ履歴を表示するコマンドのアクション
func StatsAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	stats, err := appCtx.Container.QueryLogs.Stats(ctx)
	if err != nil {
		return fmt.Errorf("集計の取得に失敗: %w", err)
	}
	renderStats(os.Stdout, stats)

	limit := cmd.Int("logs")
	if limit <= 0 {
		return nil
	}

	logs, err := appCtx.Container.QueryLogs.Recent(ctx, limit)
	if err != nil {
		return fmt.Errorf("問い合わせ履歴の取得に失敗: %w", err)
	}
	renderQueryLogs(os.Stdout, logs)
	return nil
}

// renderStats は集計値をテーブル形式で表示する
func renderStats(w io.Writer, stats *querylog.Stats) {
	fmt.Fprintln(w, "\n=== 利用状況 ===")

	table := tablewriter.NewWriter(w)
	table.Header("メトリクス", "値")
	table.Append("総問い合わせ数", strconv.FormatInt(stats.TotalQueries, 10))
	table.Append("平均レイテンシ (ms)", strconv.FormatFloat(stats.AvgLatencyMS, 'f', 2, 64))
	table.Append("平均取得チャンク数", strconv.FormatFloat(stats.AvgChunksRetrieved, 'f', 2, 64))
	table.Append("文書数", strconv.FormatInt(stats.TotalDocuments, 10))
	table.Append("チャンク数", strconv.FormatInt(stats.TotalChunks, 10))
	table.Append("スペース数", strconv.FormatInt(stats.TotalSpaces, 10))
	table.Render()
}

// renderQueryLogs は問い合わせ履歴をテーブル形式で表示する
func renderQueryLogs(w io.Writer, logs []*querylog.Log) {
	fmt.Fprintln(w, "\n=== 直近の問い合わせ ===")

	table := tablewriter.NewWriter(w)
	table.Header("Time", "Source", "Query", "Chunks", "Latency (ms)", "Model")
	for _, l := range logs {
		table.Append(
			formatTime(l.CreatedAt),
			l.Source,
			truncate(l.Query, 60),
			strconv.Itoa(l.ChunksRetrieved),
			strconv.FormatFloat(l.LatencyMS, 'f', 1, 64),
			l.Model,
		)
	}
	table.Render()
}

// truncate は表示幅を抑えるため先頭 n 文字に切り詰める
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
