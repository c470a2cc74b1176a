package mapping

import (
	"github.com/costplane/costplane/internal/mapping/repository"
	"github.com/costplane/costplane/internal/mapping/service"
	"go.uber.org/fx"
)

var Module = fx.Module("mapping.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
