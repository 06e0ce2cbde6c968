package app

import (
	"go.uber.org/fx"

	"github.com/leafyhealth/accounting-management/internal/auth"
	"github.com/leafyhealth/accounting-management/internal/cache"
	"github.com/leafyhealth/accounting-management/internal/config"
	"github.com/leafyhealth/accounting-management/internal/database"
	"github.com/leafyhealth/accounting-management/internal/event"
	"github.com/leafyhealth/accounting-management/internal/logger"
	"github.com/leafyhealth/accounting-management/internal/messaging"
	"github.com/leafyhealth/accounting-management/internal/observability"
	repositoryaccount "github.com/leafyhealth/accounting-management/internal/repository/account"
	repositoryaudit "github.com/leafyhealth/accounting-management/internal/repository/audit"
	repositoryexpense "github.com/leafyhealth/accounting-management/internal/repository/expense"
	repositoryjournal "github.com/leafyhealth/accounting-management/internal/repository/journal"
	repositorytransaction "github.com/leafyhealth/accounting-management/internal/repository/transaction"
	grpcserver "github.com/leafyhealth/accounting-management/internal/server/grpc"
	httpserver "github.com/leafyhealth/accounting-management/internal/server/http"
	serviceaccount "github.com/leafyhealth/accounting-management/internal/service/account"
	serviceaudit "github.com/leafyhealth/accounting-management/internal/service/audit"
	serviceexpense "github.com/leafyhealth/accounting-management/internal/service/expense"
	servicejournal "github.com/leafyhealth/accounting-management/internal/service/journal"
	servicereport "github.com/leafyhealth/accounting-management/internal/service/report"
	servicetransaction "github.com/leafyhealth/accounting-management/internal/service/transaction"
	transporthttp "github.com/leafyhealth/accounting-management/internal/transport/http"
	"github.com/leafyhealth/accounting-management/internal/worker"
	workeraudit "github.com/leafyhealth/accounting-management/internal/worker/audit"
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	config.Module,
	cache.Module,
	database.Module,
	logger.Module,
	messaging.Module,
	observability.Module,
	observability.MetricsModule,
	event.Module,
	repositoryaccount.Module,
	repositorytransaction.Module,
	repositoryexpense.Module,
	repositoryjournal.Module,
	repositoryaudit.Module,
	serviceaccount.Module,
	servicetransaction.Module,
	serviceexpense.Module,
	servicejournal.Module,
	servicereport.Module,
	serviceaudit.Module,
)

// HTTP wires the HTTP and gRPC servers on top of the core modules.
var HTTP = fx.Options(
	Core,
	auth.Module,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
)

// Worker exposes background worker processing.
var Worker = fx.Options(
	Core,
	worker.Module,
	workeraudit.Module,
)

// Module is the default application wiring (HTTP only).
var Module = HTTP
