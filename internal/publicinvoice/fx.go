package publicinvoice

import (
	"github.com/smallbiznis/invoicebuilder/internal/publicinvoice/service"
	"go.uber.org/fx"
)

var Module = fx.Module(
	"publicinvoice",
	fx.Provide(service.New),
)
