package pollworker

import (
	"go.uber.org/fx"
)

var Module = fx.Module("pollworker",
	fx.Provide(New),
)
