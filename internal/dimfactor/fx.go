package dimfactor

import (
	"github.com/smallbiznis/freightrate/internal/dimfactor/repository"
	"github.com/smallbiznis/freightrate/internal/dimfactor/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dimfactor",
	fx.Provide(
		repository.NewRepository,
		service.NewService,
	),
)
