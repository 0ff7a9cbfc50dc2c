package util

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParseInt(t *testing.T) {
	assert.Equal(t, 42, ParseInt("42", 0))
	assert.Equal(t, -7, ParseInt("-7", 0))
	assert.Equal(t, 5, ParseInt("", 5))
	assert.Equal(t, 5, ParseInt("abc", 5))
	assert.Equal(t, 5, ParseInt("12.5", 5))
}

func paginationContext(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/?"+query, nil)
	return c
}

func TestPaginationDefaults(t *testing.T) {
	limit, offset := Pagination(paginationContext(""), 20, 100)
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}

func TestPaginationClampsLimit(t *testing.T) {
	limit, _ := Pagination(paginationContext("limit=9999"), 20, 100)
	assert.Equal(t, 100, limit)

	limit, _ = Pagination(paginationContext("limit=0"), 20, 100)
	assert.Equal(t, 20, limit)

	limit, _ = Pagination(paginationContext("limit=-3"), 20, 100)
	assert.Equal(t, 20, limit)
}

func TestPaginationClampsOffset(t *testing.T) {
	_, offset := Pagination(paginationContext("offset=-10"), 20, 100)
	assert.Equal(t, 0, offset)

	limit, offset := Pagination(paginationContext("limit=50&offset=30"), 20, 100)
	assert.Equal(t, 50, limit)
	assert.Equal(t, 30, offset)
}
