package zoneimport

import (
	"github.com/smallbiznis/freightrate/internal/zoneimport/orchestrator"
	"go.uber.org/fx"
)

var Module = fx.Module("zoneimport",
	fx.Provide(orchestrator.NewService),
)
