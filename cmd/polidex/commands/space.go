package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/core/space"
)

// SpaceCreateAction はスペースを作成するコマンドのアクション
func SpaceCreateAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	var description *string
	if cmd.IsSet("description") {
		d := cmd.String("description")
		description = &d
	}

	sp, err := appCtx.Container.Spaces.Create(ctx, cmd.String("name"), description)
	if err != nil {
		return fmt.Errorf("スペースの作成に失敗: %w", err)
	}

	fmt.Printf("スペースを作成しました: %s (%s)\n", sp.Name, sp.ID)
	return nil
}

// SpaceListAction はスペース一覧を表示するコマンドのアクション
func SpaceListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	spaces, err := appCtx.Container.Spaces.List(ctx)
	if err != nil {
		return fmt.Errorf("スペース一覧の取得に失敗: %w", err)
	}

	if len(spaces) == 0 {
		fmt.Println("スペースが登録されていません")
		return nil
	}

	renderSpacesTable(os.Stdout, spaces)
	return nil
}

// SpaceDeleteAction はスペースを削除するコマンドのアクション
func SpaceDeleteAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	spaces := appCtx.Container.Spaces
	id, err := resolveSpaceID(ctx, spaces, cmd.String("space"))
	if err != nil {
		return err
	}

	if err := spaces.Delete(ctx, id); err != nil {
		return fmt.Errorf("スペースの削除に失敗: %w", err)
	}

	fmt.Printf("スペースを削除しました: %s\n", id)
	return nil
}

// renderSpacesTable はスペース一覧をテーブル形式で表示する
func renderSpacesTable(w io.Writer, spaces []*space.SpaceWithStats) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Documents", "API Keys", "Created At")

	for _, sp := range spaces {
		table.Append(
			sp.ID.String(),
			sp.Name,
			strconv.Itoa(sp.DocumentCount),
			strconv.Itoa(sp.CredentialCount),
			formatTime(sp.CreatedAt),
		)
	}

	table.Render()
}
