package pagination

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"fincheck-controlplane/pkg/db/option"

	"gorm.io/gorm"
)

const (
	DefaultLimit = 10
	MaxLimit     = 250
)

type Pagination struct {
	Cursor string `form:"cursor"`
	Limit  int    `form:"limit,default=10" binding:"omitempty,gte=1,lte=250"`
}

type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id,omitempty"`
}

type PageInfo struct {
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

func (p Pagination) Size() int {
	switch {
	case p.Limit <= 0:
		return DefaultLimit
	case p.Limit > MaxLimit:
		return MaxLimit
	default:
		return p.Limit
	}
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, fmt.Errorf("invalid cursor: %w", err)
	}

	return &cursor, nil
}

// Keyset returns a query option that pages newest-first over (created_at, id)
// and fetches one extra row so HasMore can be computed.
func (p Pagination) Keyset() (option.QueryOption, error) {
	var cur *Cursor
	if p.Cursor != "" {
		c, err := DecodeCursor(p.Cursor)
		if err != nil {
			return nil, err
		}
		cur = c
	}

	size := p.Size()
	return func(db *gorm.DB) *gorm.DB {
		if cur != nil {
			db = db.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cur.CreatedAt, cur.CreatedAt, cur.ID)
		}
		return db.Order("created_at DESC").Order("id DESC").Limit(size + 1)
	}, nil
}

// BuildCursorPageInfo trims the extra row fetched by Keyset and returns the page.
func BuildCursorPageInfo[T any](data []*T, limit int, extractCursor func(*T) Cursor) ([]*T, *PageInfo) {
	if len(data) == 0 {
		return data, &PageInfo{HasMore: false}
	}

	hasMore := false
	if len(data) > limit {
		hasMore = true
		data = data[:limit]
	}

	info := &PageInfo{HasMore: hasMore}
	if hasMore {
		next, err := EncodeCursor(extractCursor(data[len(data)-1]))
		if err == nil {
			info.NextCursor = next
		}
	}

	return data, info
}
