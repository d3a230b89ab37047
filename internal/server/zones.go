package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	zonedomain "github.com/smallbiznis/freightrate/internal/zone/domain"
	importdomain "github.com/smallbiznis/freightrate/internal/zoneimport/domain"
	"go.uber.org/zap"
)

// resolveZone previews a single definition without persisting anything.
func (s *Server) resolveZone(c *gin.Context) {
	var def zonedomain.ZoneDefinition
	if err := c.ShouldBindJSON(&def); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", err.Error()))
		return
	}

	result, err := s.matcher.Resolve(c.Request.Context(), def)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (s *Server) importZones(c *gin.Context) {
	var req importdomain.ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", err.Error()))
		return
	}
	if len(req.Definitions) == 0 {
		AbortWithError(c, newValidationError("definitions", "required", "at least one zone definition is required"))
		return
	}

	report, err := s.importer.Import(c.Request.Context(), req)
	if err != nil {
		s.log.Error("zone import aborted", zap.Error(err))
		// The report still describes everything that completed before the
		// failure, so it travels with the error.
		if report != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":  gin.H{"type": "import_aborted", "message": err.Error()},
				"report": report,
			})
			return
		}
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

func (s *Server) listZones(c *gin.Context) {
	page, err := parsePagination(c)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	zones, pageInfo, err := s.zones.List(c.Request.Context(), page)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"zones":     zones,
		"page_info": pageInfo,
	})
}

func (s *Server) getZone(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))
	if code == "" {
		AbortWithError(c, newValidationError("code", "required", "zone code is required"))
		return
	}

	ctx := c.Request.Context()
	zone, err := s.zones.FindByCode(ctx, code)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if zone == nil {
		AbortWithError(c, zonedomain.ErrZoneNotFound)
		return
	}

	cities, err := s.zones.ListCities(ctx, zone.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	postals, err := s.zones.ListPostalCodes(ctx, zone.ID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"zone":         zone,
		"cities":       cities,
		"postal_codes": postals,
	})
}
