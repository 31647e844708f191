// Package sqlitevec は SQLite に保存したベクトルを総当たりのコサイン距離で検索するインデックスを提供する。
package sqlitevec

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jinford/polidex/internal/core/vectorindex"
)

const schema = `
CREATE TABLE IF NOT EXISTS vectors (
    external_id TEXT PRIMARY KEY,
    document_id TEXT NOT NULL,
    filename    TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    space_tags  TEXT NOT NULL,
    content     TEXT NOT NULL,
    embedding   BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_vectors_document_id ON vectors (document_id);
`

// Index は SQLite をバックエンドとする vectorindex.Index 実装
// テナント属性は ",id1,id2," 形式の文字列に符号化し、区切り文字込みの部分一致で絞り込む
type Index struct {
	db *sql.DB
}

// Open は path の SQLite データベースを開いてスキーマを作成する
// path が ":memory:" の場合はプロセス内のみのデータベースになる
func Open(path string) (*Index, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		dsn = path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// 接続ごとに別データベースになるため1接続に固定する
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Index{db: db}, nil
}

// Close はデータベースを閉じる
func (x *Index) Close() error {
	return x.db.Close()
}

var _ vectorindex.Index = (*Index)(nil)

// Add はベクトルを1トランザクションで登録する
func (x *Index) Add(ctx context.Context, items []vectorindex.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR REPLACE INTO vectors (external_id, document_id, filename, chunk_index, space_tags, content, embedding)
VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for _, it := range items {
		if len(it.Embedding) == 0 {
			return fmt.Errorf("empty embedding for %s", it.ExternalID)
		}
		if _, err := stmt.ExecContext(ctx,
			it.ExternalID,
			it.Metadata.DocumentID.String(),
			it.Metadata.Filename,
			it.Metadata.ChunkIndex,
			vectorindex.EncodeSpaceTags(it.Metadata.SpaceIDs),
			it.Content,
			encodeEmbedding(it.Embedding),
		); err != nil {
			return fmt.Errorf("inserting vector %s: %w", it.ExternalID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing vectors: %w", err)
	}
	return nil
}

// Query はフィルタに合致する行を読み出し、コサイン距離の昇順で最大 k 件を返す
func (x *Index) Query(ctx context.Context, embedding []float32, k int, filter vectorindex.Filter) ([]vectorindex.Neighbor, error) {
	if k <= 0 {
		return []vectorindex.Neighbor{}, nil
	}

	where, args := filterClause(filter)
	rows, err := x.db.QueryContext(ctx,
		`SELECT external_id, document_id, filename, chunk_index, space_tags, content, embedding FROM vectors`+where,
		args...)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	neighbors := make([]vectorindex.Neighbor, 0)
	for rows.Next() {
		var (
			n          vectorindex.Neighbor
			documentID string
			tags       string
			blob       []byte
		)
		if err := rows.Scan(&n.ExternalID, &documentID, &n.Metadata.Filename, &n.Metadata.ChunkIndex, &tags, &n.Content, &blob); err != nil {
			return nil, fmt.Errorf("scanning vector row: %w", err)
		}

		vec, err := decodeEmbedding(blob)
		if err != nil {
			return nil, err
		}
		if n.Distance, err = vectorindex.CosineDistance(embedding, vec); err != nil {
			return nil, err
		}
		if n.Metadata.DocumentID, err = uuid.Parse(documentID); err != nil {
			return nil, fmt.Errorf("invalid document id %q: %w", documentID, err)
		}
		if n.Metadata.SpaceIDs, err = vectorindex.DecodeSpaceTags(tags); err != nil {
			return nil, err
		}
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading vector rows: %w", err)
	}

	return vectorindex.TopK(neighbors, k), nil
}

// Delete はフィルタに合致するベクトルを削除する
func (x *Index) Delete(ctx context.Context, filter vectorindex.Filter) error {
	if filter.IsEmpty() {
		return vectorindex.ErrEmptyFilter
	}
	where, args := filterClause(filter)
	if _, err := x.db.ExecContext(ctx, `DELETE FROM vectors`+where, args...); err != nil {
		return fmt.Errorf("deleting vectors: %w", err)
	}
	return nil
}

// Metric はコサイン距離を返す
func (x *Index) Metric() vectorindex.Metric {
	return vectorindex.MetricCosine
}

func filterClause(filter vectorindex.Filter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.SpaceID != nil {
		conds = append(conds, "instr(space_tags, ?) > 0")
		args = append(args, vectorindex.SpaceTag(*filter.SpaceID))
	}
	if filter.DocumentID != nil {
		conds = append(conds, "document_id = ?")
		args = append(args, filter.DocumentID.String())
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
