package rating

import (
	"github.com/smallbiznis/freightrate/internal/rating/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rating",
	fx.Provide(service.NewService),
)
