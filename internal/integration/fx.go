package integration

import (
	"github.com/costplane/costplane/internal/integration/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("integration.repository",
	fx.Provide(repository.Provide),
)
