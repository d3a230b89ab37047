package zone

import (
	"github.com/smallbiznis/freightrate/internal/zone/matcher"
	"github.com/smallbiznis/freightrate/internal/zone/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("zone",
	fx.Provide(
		matcher.NewService,
		repository.NewRepository,
	),
)
