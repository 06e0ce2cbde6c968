package http

import (
	"go.uber.org/fx"

	accounttransport "github.com/leafyhealth/accounting-management/internal/transport/http/account"
	audittransport "github.com/leafyhealth/accounting-management/internal/transport/http/audit"
	expensetransport "github.com/leafyhealth/accounting-management/internal/transport/http/expense"
	journaltransport "github.com/leafyhealth/accounting-management/internal/transport/http/journal"
	reporttransport "github.com/leafyhealth/accounting-management/internal/transport/http/report"
	transactiontransport "github.com/leafyhealth/accounting-management/internal/transport/http/transaction"
)

// Module aggregates all HTTP transport handlers.
var Module = fx.Options(
	accounttransport.Module,
	transactiontransport.Module,
	expensetransport.Module,
	journaltransport.Module,
	reporttransport.Module,
	audittransport.Module,
)
