package common

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPaginationParamsDefaults(t *testing.T) {
	req := httptest.NewRequest("GET", "/groups", nil)

	params := ExtractPaginationParams(req)

	assert.Equal(t, 1, params.Page)
	assert.Equal(t, 20, params.PageSize)
}

func TestExtractPaginationParamsCapsPageSize(t *testing.T) {
	req := httptest.NewRequest("GET", "/groups?page=3&page_size=500", nil)

	params := ExtractPaginationParams(req)

	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 100, params.PageSize)
	assert.Equal(t, 200, params.CalculateOffset())
}

func TestBuildPaginationMeta(t *testing.T) {
	meta := BuildPaginationMeta(2, 20, 45)

	assert.Equal(t, 3, meta.TotalPages)
	assert.True(t, meta.HasNext)
	assert.True(t, meta.HasPrev)
}
