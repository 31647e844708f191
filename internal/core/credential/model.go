// Package credential はスペース単位の API キーの発行・検証・失効を提供する。
package credential

import (
	"time"

	"github.com/google/uuid"
)

// Credential は API キーの保存レコード
// 平文のキーは保持せず、ダイジェストと表示用のフィンガープリントのみを持つ
type Credential struct {
	ID          uuid.UUID
	Name        string
	SpaceID     uuid.UUID
	Digest      string
	Fingerprint string
	Active      bool
	UsageCount  int64
	LastUsedAt  *time.Time
	CreatedAt   time.Time
}
