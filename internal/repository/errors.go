package repository

import "errors"

var ErrNotFound = errors.New("not found")

// 一意制約違反・直列化失敗など、再試行しても解消しなかった競合
var ErrConflict = errors.New("conflict")

// 読み取り時にどのステータスを対象にするか（暗黙のフィルタは使わない）
type StatusFilter int

const (
	OnlyActive StatusFilter = iota
	AnyStatus
)
