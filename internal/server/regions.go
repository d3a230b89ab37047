package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	regiondomain "github.com/smallbiznis/freightrate/internal/region/domain"
)

func (s *Server) listRegions(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	filter := regiondomain.ListFilter{
		Country:       strings.ToUpper(strings.TrimSpace(c.Query("country"))),
		ProvinceState: strings.TrimSpace(c.Query("province_state")),
		Type:          regiondomain.RegionType(strings.TrimSpace(c.Query("type"))),
	}

	regions, pageInfo, err := s.regions.List(c.Request.Context(), filter, page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"regions":   regions,
		"page_info": pageInfo,
	})
}
