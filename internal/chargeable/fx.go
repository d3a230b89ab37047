package chargeable

import (
	"github.com/smallbiznis/freightrate/internal/chargeable/calculator"
	"go.uber.org/fx"
)

var Module = fx.Module("chargeable",
	fx.Provide(calculator.NewService),
)
