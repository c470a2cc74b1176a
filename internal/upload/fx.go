package upload

import (
	"github.com/costplane/costplane/internal/upload/repository"
	"github.com/costplane/costplane/internal/upload/service"
	"go.uber.org/fx"
)

var Module = fx.Module("upload.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
