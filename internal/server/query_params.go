package server

import (
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/freightrate/pkg/db/pagination"
)

const (
	defaultPageSize = 50
	maxPageSize     = 250
)

func parsePagination(c *gin.Context) (pagination.Pagination, error) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		return pagination.Pagination{}, newValidationError("page_size", "invalid", err.Error())
	}

	if page.PageSize <= 0 {
		page.PageSize = defaultPageSize
	}
	if page.PageSize > maxPageSize {
		page.PageSize = maxPageSize
	}
	return page, nil
}
