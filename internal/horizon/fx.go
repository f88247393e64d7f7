package horizon

import (
	"github.com/smallbiznis/duebook/internal/horizon/service"
	"go.uber.org/fx"
)

var Module = fx.Module("horizon.service",
	fx.Provide(service.NewService),
)
