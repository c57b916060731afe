package garmin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeCursorRoundTrip(t *testing.T) {
	cursor := EncodeCursor(1, nil)
	decoded, err := DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, 1, decoded.Page)
	assert.Nil(t, decoded.Filters)

	filters := map[string]string{"activity_type": "running", "unit": "metric"}
	cursor = EncodeCursor(2, filters)
	decoded, err = DecodeCursor(cursor)
	require.NoError(t, err)
	assert.Equal(t, 2, decoded.Page)
	assert.Equal(t, filters, decoded.Filters)
}

func TestDecodeCursorInvalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"tampered token", "invalid-cursor-data"},
		{"valid base64 of non-JSON", "bm90LWpzb24="},
		{"page zero", EncodeCursor(0, nil)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeCursor(tt.cursor)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCursor)
		})
	}
}

func TestBuildPaginationInfoHasMore(t *testing.T) {
	filters := map[string]string{"activity_type": "running"}
	info := BuildPaginationInfo(10, 10, 1, true, filters)

	assert.True(t, info.HasMore)
	assert.Equal(t, 10, info.Limit)
	assert.Equal(t, 10, info.Returned)
	require.NotNil(t, info.Cursor)

	next, err := DecodeCursor(*info.Cursor)
	require.NoError(t, err)
	assert.Equal(t, 2, next.Page)
	assert.Equal(t, filters, next.Filters)
}

func TestBuildPaginationInfoLastPage(t *testing.T) {
	info := BuildPaginationInfo(3, 10, 2, false, nil)

	assert.False(t, info.HasMore)
	assert.Equal(t, 3, info.Returned)
	assert.Nil(t, info.Cursor)
}

func TestPaginateFirstPage(t *testing.T) {
	var gotOffset, gotLimit int
	items := make([]int, 11)
	for i := range items {
		items[i] = i
	}

	result, err := Paginate(context.Background(), "", 10, 50, nil,
		func(_ context.Context, offset, fetchLimit int, _ map[string]string) ([]int, error) {
			gotOffset, gotLimit = offset, fetchLimit
			return items, nil
		})
	require.NoError(t, err)

	assert.Equal(t, 0, gotOffset)
	assert.Equal(t, 11, gotLimit)
	assert.Len(t, result.Items, 10)
	assert.Equal(t, 1, result.Page)
	assert.True(t, result.Info.HasMore)
	require.NotNil(t, result.Info.Cursor)
}

func TestPaginateMiddlePage(t *testing.T) {
	var gotOffset int
	cursor := EncodeCursor(3, map[string]string{"activity_type": "running"})

	result, err := Paginate(context.Background(), cursor, 10, 50, nil,
		func(_ context.Context, offset, fetchLimit int, filters map[string]string) ([]int, error) {
			gotOffset = offset
			assert.Equal(t, 11, fetchLimit)
			assert.Equal(t, "running", filters["activity_type"])
			return []int{1, 2, 3}, nil
		})
	require.NoError(t, err)

	assert.Equal(t, 20, gotOffset)
	assert.Len(t, result.Items, 3)
	assert.Equal(t, 3, result.Page)
	assert.False(t, result.Info.HasMore)
	assert.Nil(t, result.Info.Cursor)
	assert.Equal(t, 3, result.Info.Returned)
}

func TestPaginateCursorPinsFilters(t *testing.T) {
	// 游标中的过滤条件优先于请求入参
	cursor := EncodeCursor(2, map[string]string{"activity_type": "running"})

	result, err := Paginate(context.Background(), cursor, 5, 50,
		map[string]string{"activity_type": "cycling"},
		func(_ context.Context, _, _ int, filters map[string]string) ([]int, error) {
			assert.Equal(t, "running", filters["activity_type"])
			return []int{1}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, "running", result.Filters["activity_type"])
}

func TestPaginateLimitValidation(t *testing.T) {
	fetch := func(_ context.Context, _, _ int, _ map[string]string) ([]int, error) {
		t.Fatal("fetch must not be called when validation fails")
		return nil, nil
	}

	_, err := Paginate(context.Background(), "", 0, 50, nil, fetch)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Paginate(context.Background(), "", 51, 50, nil, fetch)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestPaginateInvalidCursor(t *testing.T) {
	_, err := Paginate(context.Background(), "not-a-cursor", 10, 50, nil,
		func(_ context.Context, _, _ int, _ map[string]string) ([]int, error) {
			t.Fatal("fetch must not be called for an invalid cursor")
			return nil, nil
		})
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestPaginateFetchError(t *testing.T) {
	upstream := errors.New("upstream down")
	_, err := Paginate(context.Background(), "", 10, 50, nil,
		func(_ context.Context, _, _ int, _ map[string]string) ([]int, error) {
			return nil, upstream
		})
	assert.ErrorIs(t, err, upstream)
}
