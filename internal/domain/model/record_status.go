package model

// 論理削除フラグの代わりに明示的なステータスを持つ
type RecordStatus string

const (
	RecordStatusActive   RecordStatus = "active"
	RecordStatusArchived RecordStatus = "archived"
)

func (s RecordStatus) Valid() bool {
	return s == RecordStatusActive || s == RecordStatusArchived
}
