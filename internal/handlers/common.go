package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/outsourceats/hirex/internal/config"
)

var cfg = &config.Config{
	UploadDir:       "./uploads",
	MaxUploadSize:   10 * 1024 * 1024,
	DefaultPageSize: 20,
	MaxPageSize:     100,
}

// Configure injects the loaded configuration. Called once at startup
// before the router is built.
func Configure(c *config.Config) {
	cfg = c
}

// Pagination is parsed from ?page= and ?page_size= query parameters.
type Pagination struct {
	Page     int
	PageSize int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.PageSize
}

func paginationParams(ctx *gin.Context) Pagination {
	page, err := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(ctx.DefaultQuery("page_size", strconv.Itoa(cfg.DefaultPageSize)))
	if err != nil || pageSize < 1 {
		pageSize = cfg.DefaultPageSize
	}
	if pageSize > cfg.MaxPageSize {
		pageSize = cfg.MaxPageSize
	}

	return Pagination{Page: page, PageSize: pageSize}
}

func listEnvelope(items interface{}, total int64, p Pagination) gin.H {
	return gin.H{
		"items":     items,
		"total":     total,
		"page":      p.Page,
		"page_size": p.PageSize,
	}
}
