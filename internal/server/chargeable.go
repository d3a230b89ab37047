package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	chargeabledomain "github.com/smallbiznis/freightrate/internal/chargeable/domain"
	dimfactordomain "github.com/smallbiznis/freightrate/internal/dimfactor/domain"
)

type chargeableWeightRequest struct {
	CarrierID   string                     `json:"carrier_id"`
	ServiceType string                     `json:"service_type,omitempty"`
	Zone        string                     `json:"zone,omitempty"`
	CustomerID  string                     `json:"customer_id,omitempty"`
	Packages    []chargeabledomain.Package `json:"packages"`
}

func (s *Server) chargeableWeight(c *gin.Context) {
	var req chargeableWeightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, newValidationError("body", "invalid_json", err.Error()))
		return
	}
	if req.CarrierID == "" {
		AbortWithError(c, newValidationError("carrier_id", "required", "carrier_id is required"))
		return
	}
	if len(req.Packages) == 0 {
		AbortWithError(c, newValidationError("packages", "required", "at least one package is required"))
		return
	}

	key := dimfactordomain.LookupKey{
		CarrierID:   req.CarrierID,
		ServiceType: req.ServiceType,
		Zone:        req.Zone,
		CustomerID:  req.CustomerID,
	}

	result, err := s.weights.Calculate(c.Request.Context(), key, req.Packages)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
