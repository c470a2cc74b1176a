package dimension

import (
	"github.com/costplane/costplane/internal/dimension/repository"
	"github.com/costplane/costplane/internal/dimension/service"
	"go.uber.org/fx"
)

var Module = fx.Module("dimension.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
