package fact

import (
	"github.com/costplane/costplane/internal/fact/repository"
	"github.com/costplane/costplane/internal/fact/service"
	"go.uber.org/fx"
)

var Module = fx.Module("fact.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewFactory),
)
