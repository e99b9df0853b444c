package providers

import (
	"github.com/smallbiznis/invoicebuilder/internal/providers/email"
	"github.com/smallbiznis/invoicebuilder/internal/providers/pdf"
	"go.uber.org/fx"
)

var Module = fx.Module("providers",
	email.Module,
	pdf.Module,
)
