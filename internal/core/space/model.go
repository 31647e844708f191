// Package space はテナント（スペース）の管理を提供する。
package space

import (
	"time"

	"github.com/google/uuid"
)

// Space は文書とAPIキーの所属先となるテナント
type Space struct {
	ID          uuid.UUID
	Name        string
	Description *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// SpaceWithStats は所属数付きのスペース
type SpaceWithStats struct {
	Space
	DocumentCount   int
	CredentialCount int
}
