// Package migrations は PostgreSQL のスキーマ定義を埋め込む。
package migrations

import "embed"

// FS は NNN_name.up.sql 形式のマイグレーション
// ベクトル次元は text/template の {{ .Dimension }} で埋め込む
//
//go:embed *.sql
var FS embed.FS
