package region

import (
	"github.com/smallbiznis/freightrate/internal/region/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("region.repository",
	fx.Provide(repository.NewRepository),
)
