package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/jinford/polidex/internal/core/document"
)

// DocumentUploadAction はファイルをアップロードしてインデックス化するコマンドのアクション
func DocumentUploadAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	path := cmd.String("file")
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("ファイルの読み込みに失敗: %w", err)
	}

	spaceIDs, err := resolveSpaceIDs(ctx, appCtx.Container.Spaces, cmd.StringSlice("space"))
	if err != nil {
		return err
	}

	doc, err := appCtx.Container.Documents.Upload(ctx, document.UploadParams{
		Filename: filepath.Base(path),
		Data:     data,
		SpaceIDs: spaceIDs,
	})
	if err != nil {
		return fmt.Errorf("アップロードに失敗: %w", err)
	}

	fmt.Printf("文書を登録しました: %s (%s, %d chunks)\n", doc.Filename, doc.ID, doc.ChunkCount)
	return nil
}

// DocumentImportAction はディレクトリ配下の文書を一括で取り込むコマンドのアクション
func DocumentImportAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	spaceIDs, err := resolveSpaceIDs(ctx, appCtx.Container.Spaces, cmd.StringSlice("space"))
	if err != nil {
		return err
	}

	importer := appCtx.Container.NewImporter(cmd.Int("concurrency"), cmd.StringSlice("ignore")...)
	result, err := importer.Import(ctx, cmd.String("dir"), spaceIDs)
	if err != nil {
		return fmt.Errorf("取り込みに失敗: %w", err)
	}

	renderImportResult(os.Stdout, result)
	if len(result.Failed) > 0 {
		return fmt.Errorf("%d 件の取り込みに失敗しました", len(result.Failed))
	}
	return nil
}

// DocumentListAction は文書一覧を表示するコマンドのアクション
func DocumentListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	spaceID, err := optionalSpaceID(ctx, appCtx.Container.Spaces, cmd.String("space"))
	if err != nil {
		return err
	}

	docs, err := appCtx.Container.Documents.List(ctx, spaceID)
	if err != nil {
		return fmt.Errorf("文書一覧の取得に失敗: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("文書が登録されていません")
		return nil
	}

	renderDocumentsTable(os.Stdout, docs)
	return nil
}

// DocumentDeleteAction は文書を削除するコマンドのアクション
func DocumentDeleteAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	id, err := parseID(cmd.String("id"))
	if err != nil {
		return err
	}

	if err := appCtx.Container.Documents.Delete(ctx, id); err != nil {
		return fmt.Errorf("文書の削除に失敗: %w", err)
	}

	fmt.Printf("文書を削除しました: %s\n", id)
	return nil
}

// DocumentReprocessAction は文書を再インデックス化するコマンドのアクション
func DocumentReprocessAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	id, err := parseID(cmd.String("id"))
	if err != nil {
		return err
	}

	count, err := appCtx.Container.Documents.Reprocess(ctx, id)
	if err != nil {
		return fmt.Errorf("再処理に失敗: %w", err)
	}

	fmt.Printf("文書を再処理しました: %s (%d chunks)\n", id, count)
	return nil
}

// DocumentSetSpacesAction は文書の所属スペースを置き換えるコマンドのアクション
func DocumentSetSpacesAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := NewAppContext(ctx, cmd.String("env"))
	if err != nil {
		return err
	}
	defer appCtx.Close()

	id, err := parseID(cmd.String("id"))
	if err != nil {
		return err
	}
	spaceIDs, err := resolveSpaceIDs(ctx, appCtx.Container.Spaces, cmd.StringSlice("space"))
	if err != nil {
		return err
	}

	count, err := appCtx.Container.Documents.SetSpaces(ctx, id, spaceIDs)
	if err != nil {
		return fmt.Errorf("所属スペースの変更に失敗: %w", err)
	}

	fmt.Printf("所属スペースを変更しました: %s (%d spaces, %d chunks)\n", id, len(spaceIDs), count)
	return nil
}

// renderDocumentsTable は文書一覧をテーブル形式で表示する
func renderDocumentsTable(w io.Writer, docs []*document.Document) {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Filename", "Type", "Size", "Chunks", "Spaces", "Created At")

	for _, d := range docs {
		table.Append(
			d.ID.String(),
			d.Filename,
			d.ContentType,
			strconv.FormatInt(d.Size, 10),
			strconv.Itoa(d.ChunkCount),
			strconv.Itoa(len(d.SpaceIDs)),
			formatTime(d.CreatedAt),
		)
	}

	table.Render()
}

// renderImportResult は一括取り込みの結果を表示する
func renderImportResult(w io.Writer, result *document.ImportResult) {
	fmt.Fprintf(w, "取り込み: %d 件, スキップ: %d 件, 失敗: %d 件\n",
		len(result.Imported), len(result.Skipped), len(result.Failed))

	if len(result.Failed) == 0 {
		return
	}

	paths := make([]string, 0, len(result.Failed))
	for p := range result.Failed {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	table := tablewriter.NewWriter(w)
	table.Header("Path", "Error")
	for _, p := range paths {
		table.Append(p, result.Failed[p].Error())
	}
	table.Render()
}
