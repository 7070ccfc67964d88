package usecase

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// 名前からURL用のslugを作る（英数字以外はハイフン）
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if !dash && b.Len() > 0 {
			b.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(b.String(), "-")
	if s == "" {
		return "item"
	}
	return s
}

// 重複していたら -1, -2 ... を付ける
func uniqueSlug(ctx context.Context, name string, exceptID int64, exists func(ctx context.Context, slug string, exceptID int64) (bool, error)) (string, error) {
	base := Slugify(name)
	slug := base
	for i := 1; ; i++ {
		taken, err := exists(ctx, slug, exceptID)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
