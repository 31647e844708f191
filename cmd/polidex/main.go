package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/cmd/polidex/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "polidex",
		Usage: "スペース単位で文書を検索・回答する RAG サービス",
		Commands: []*cli.Command{
			{
				Name:  "space",
				Usage: "スペース管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "create",
						Usage: "スペースを作成",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "スペース名",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "description",
								Usage: "説明",
							},
						},
						Action: commands.SpaceCreateAction,
					},
					{
						Name:   "list",
						Usage:  "スペース一覧を表示",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.SpaceListAction,
					},
					{
						Name:  "delete",
						Usage: "スペースを削除（文書は残り、スペースのAPIキーは削除される）",
						Flags: []cli.Flag{
							envFlag(),
							spaceFlag(true),
						},
						Action: commands.SpaceDeleteAction,
					},
				},
			},
			{
				Name:  "document",
				Usage: "文書管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "upload",
						Usage: "ファイルをアップロードしてインデックス化",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "file",
								Usage:    "ファイルパス",
								Required: true,
							},
							spacesFlag(),
						},
						Action: commands.DocumentUploadAction,
					},
					{
						Name:  "import",
						Usage: "ディレクトリ配下の文書を一括で取り込む（.gitignore / .polidexignore を考慮）",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "dir",
								Usage:    "取り込むディレクトリ",
								Required: true,
							},
							spacesFlag(),
							&cli.IntFlag{
								Name:  "concurrency",
								Usage: "同時に処理するファイル数",
								Value: 4,
							},
							&cli.StringSliceFlag{
								Name:  "ignore",
								Usage: "追加の除外パターン（.gitignore 形式、複数指定可）",
							},
						},
						Action: commands.DocumentImportAction,
					},
					{
						Name:  "list",
						Usage: "文書一覧を表示",
						Flags: []cli.Flag{
							envFlag(),
							spaceFlag(false),
						},
						Action: commands.DocumentListAction,
					},
					{
						Name:  "delete",
						Usage: "文書を削除",
						Flags: []cli.Flag{
							envFlag(),
							idFlag("文書ID"),
						},
						Action: commands.DocumentDeleteAction,
					},
					{
						Name:  "reprocess",
						Usage: "文書を再インデックス化",
						Flags: []cli.Flag{
							envFlag(),
							idFlag("文書ID"),
						},
						Action: commands.DocumentReprocessAction,
					},
					{
						Name:  "set-spaces",
						Usage: "文書の所属スペースを置き換える",
						Flags: []cli.Flag{
							envFlag(),
							idFlag("文書ID"),
							spacesFlag(),
						},
						Action: commands.DocumentSetSpacesAction,
					},
				},
			},
			{
				Name:  "key",
				Usage: "APIキー管理コマンド",
				Commands: []*cli.Command{
					{
						Name:  "issue",
						Usage: "APIキーを発行",
						Flags: []cli.Flag{
							envFlag(),
							&cli.StringFlag{
								Name:     "name",
								Usage:    "キーの名前",
								Required: true,
							},
							spaceFlag(true),
						},
						Action: commands.KeyIssueAction,
					},
					{
						Name:  "list",
						Usage: "APIキー一覧を表示",
						Flags: []cli.Flag{
							envFlag(),
							spaceFlag(false),
						},
						Action: commands.KeyListAction,
					},
					{
						Name:  "revoke",
						Usage: "APIキーを失効",
						Flags: []cli.Flag{
							envFlag(),
							idFlag("APIキーID"),
						},
						Action: commands.KeyRevokeAction,
					},
					{
						Name:  "delete",
						Usage: "APIキーを削除",
						Flags: []cli.Flag{
							envFlag(),
							idFlag("APIキーID"),
						},
						Action: commands.KeyDeleteAction,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "スペースの文書に基づいて質問に回答",
				ArgsUsage: "<question>",
				Flags: append(
					[]cli.Flag{envFlag(), spaceFlag(true)},
					commands.AskFlags()...,
				),
				Action: commands.AskAction,
			},
			{
				Name:  "stats",
				Usage: "利用状況を表示",
				Flags: []cli.Flag{
					envFlag(),
					&cli.IntFlag{
						Name:  "logs",
						Usage: "表示する直近の問い合わせ件数（0で非表示）",
						Value: 10,
					},
				},
				Action: commands.StatsAction,
			},
			{
				Name:  "db",
				Usage: "データベース管理コマンド",
				Commands: []*cli.Command{
					{
						Name:   "migrate",
						Usage:  "スキーマのマイグレーションを適用",
						Flags:  []cli.Flag{envFlag()},
						Action: commands.DBMigrateAction,
					},
				},
			},
			{
				Name:  "server",
				Usage: "HTTPサーバコマンド",
				Commands: []*cli.Command{
					{
						Name:  "start",
						Usage: "HTTPサーバを起動",
						Flags: []cli.Flag{
							envFlag(),
							&cli.IntFlag{
								Name:  "port",
								Usage: "待ち受けポート（省略時は SERVER_PORT）",
							},
						},
						Action: commands.ServerStartAction,
					},
				},
			},
		},
	}

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func envFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "env",
		Usage: "環境変数ファイルパス",
		Value: ".env",
	}
}

func spaceFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Name:     "space",
		Usage:    "スペース名またはスペースID",
		Required: required,
	}
}

func spacesFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "space",
		Usage:    "スペース名またはスペースID（複数指定可）",
		Required: true,
	}
}

func idFlag(usage string) cli.Flag {
	return &cli.StringFlag{
		Name:     "id",
		Usage:    usage,
		Required: true,
	}
}
