package ratecard

import (
	"github.com/smallbiznis/freightrate/internal/ratecard/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("ratecard",
	fx.Provide(repository.NewRepository),
)
