package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/core/credential"
)

// KeyIssueAction はAPIキーを発行するコマンドのアクション
func KeyIssueAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	spaceID, err := resolveSpaceID(ctx, appCtx.Container.Spaces, cmd.String("space"))
	if err != nil {
		return err
	}

	cred, secret, err := appCtx.Container.Credentials.Issue(ctx, cmd.String("name"), spaceID)
	if err != nil {
		return fmt.Errorf("APIキーの発行に失敗: %w", err)
	}

	fmt.Printf("APIキーを発行しました: %s (%s)\n", cred.Name, cred.ID)
	fmt.Printf("\n  %s\n\n", secret)
	fmt.Println("このキーは再表示できません。安全な場所に保管してください。")
	return nil
}

// KeyListAction はAPIキー一覧を表示するコマンドのアクション
func KeyListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	spaceID, err := optionalSpaceID(ctx, appCtx.Container.Spaces, cmd.String("space"))
	if err != nil {
		return err
	}

	creds, err := appCtx.Container.Credentials.List(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("APIキー一覧の取得に失敗: %w", err)
	}

	if len(creds) == 0 {
		fmt.Println("APIキーが登録されていません")
		return nil
	}

	renderKeysTable(os.Stdout, creds)
	return nil
}

// KeyRevokeAction はAPIキーを失効させるコマンドのアクション
func KeyRevokeAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	id, err := parseID(cmd.String("id"))
	if err != nil {
		return err
	}

	found, err := appCtx.Container.Credentials.Revoke(ctx, id)
	if err != nil {
		return fmt.Errorf("APIキーの失効に失敗: %w", err)
	}
	if !found {
		return fmt.Errorf("APIキーが見つかりません: %s", id)
	}

	fmt.Printf("APIキーを失効させました: %s\n", id)
	return nil
}

// KeyDeleteAction はAPIキーを削除するコマンドのアクション
func KeyDeleteAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	id, err := parseID(cmd.String("id"))
	if err != nil {
		return err
	}

	found, err := appCtx.Container.Credentials.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("APIキーの削除に失敗: %w", err)
	}
	if !found {
		return fmt.Errorf("APIキーが見つかりません: %s", id)
	}

	fmt.Printf("APIキーを削除しました: %s\n", id)
	return nil
}

// renderKeysTable はAPIキー一覧をテーブル形式で表示する
// ダイジェストは表示せず、フィンガープリントのみを出す
func renderKeysTable(w io.Writer, creds []*credential.Credential) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Space", "Prefix", "Active", "Requests", "Last Used")

	for _, c := range creds {
		lastUsed := "-"
		if c.LastUsedAt != nil {
			lastUsed = formatTime(*c.LastUsedAt)
		}
		table.Append(
			c.ID.String(),
			c.Name,
			c.SpaceID.String(),
			c.Fingerprint,
			strconv.FormatBool(c.Active),
			strconv.FormatInt(c.UsageCount, 10),
			lastUsed,
		)
	}

	table.Render()
}
