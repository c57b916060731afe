package garmin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Cursor 游标载荷,编码为 base64url(JSON)后作为不透明 token 下发
// [重要]: filters 必须随游标一起编码,保证翻页期间过滤条件被钉死,
// 客户端无法在第 2 页换一套过滤条件而产生错位结果
type Cursor struct {
	Page    int               `json:"page"`
	Filters map[string]string `json:"filters,omitempty"`
}

// EncodeCursor 将页码与过滤条件编码为不透明游标
func EncodeCursor(page int, filters map[string]string) string {
	c := Cursor{Page: page, Filters: filters}
	// Cursor 仅含 int 与 map[string]string,序列化不会失败
	b, _ := json.Marshal(c)
	return base64.URLEncoding.EncodeToString(b)
}

// DecodeCursor 解码游标,任何解码失败均归入 ErrInvalidCursor
func DecodeCursor(token string) (*Cursor, error) {
	raw, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed base64: %v", ErrInvalidCursor, err)
	}
	var c Cursor
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("%w: malformed payload: %v", ErrInvalidCursor, err)
	}
	if c.Page < 1 {
		return nil, fmt.Errorf("%w: page must be >= 1", ErrInvalidCursor)
	}
	return &c, nil
}

// PaginationInfo 响应中的 pagination 块
// [注意]: cursor 字段恒存在,无更多数据时为 null,与 has_more=false 严格同真
type PaginationInfo struct {
	Cursor   *string `json:"cursor"`
	HasMore  bool    `json:"has_more"`
	Limit    int     `json:"limit"`
	Returned int     `json:"returned"`
}

// BuildPaginationInfo 构造分页信息
// has_more 为真时游标编码 currentPage+1,并原样携带当前过滤条件
func BuildPaginationInfo(returned, limit, currentPage int, hasMore bool, filters map[string]string) *PaginationInfo {
	info := &PaginationInfo{
		HasMore:  hasMore,
		Limit:    limit,
		Returned: returned,
	}
	if hasMore {
		next := EncodeCursor(currentPage+1, filters)
		info.Cursor = &next
	}
	return info
}

// FetchPageFunc 按偏移量拉取一页数据
// 实现方应拉取恰好 fetchLimit 条(不足则返回实际条数)
// filters 为生效的过滤条件:带游标时来自游标,首页来自请求入参
type FetchPageFunc[T any] func(ctx context.Context, offset, fetchLimit int, filters map[string]string) ([]T, error)

// PageResult 一次分页查询的结果
// Filters 是本页实际生效的过滤条件,调用方应放入响应 metadata
type PageResult[T any] struct {
	Items   []T
	Page    int
	Filters map[string]string
	Info    *PaginationInfo
}

// Paginate 分页查询编排
// 解码游标 -> 校验 limit -> 计算偏移 -> 多取一条探测 has_more -> 截断并构造分页信息
// [设计决策]: 用 limit+1 探测而非二次 count 查询,上游 API 没有稳定的总数接口
func Paginate[T any](ctx context.Context, cursor string, limit, maxLimit int, filters map[string]string, fetch FetchPageFunc[T]) (*PageResult[T], error) {
	if limit < 1 || limit > maxLimit {
		return nil, NewValidationError("limit must be between 1 and %d, got %d", maxLimit, limit)
	}

	page := 1
	if cursor != "" {
		c, err := DecodeCursor(cursor)
		if err != nil {
			return nil, err
		}
		page = c.Page
		// 游标中的过滤条件优先,钉死首次请求时的查询条件
		if c.Filters != nil {
			filters = c.Filters
		}
	}

	offset := (page - 1) * limit
	items, err := fetch(ctx, offset, limit+1, filters)
	if err != nil {
		return nil, err
	}

	hasMore := len(items) > limit
	if hasMore {
		items = items[:limit]
	}

	return &PageResult[T]{
		Items:   items,
		Page:    page,
		Filters: filters,
		Info:    BuildPaginationInfo(len(items), limit, page, hasMore, filters),
	}, nil
}
