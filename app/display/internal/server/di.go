package server

import (
	"github.com/google/wire"

	"github.com/iWorld-y/report_flow/app/display/internal/data"
	"github.com/iWorld-y/report_flow/app/display/internal/service"
	"github.com/iWorld-y/report_flow/app/display/internal/usecase"
)

// ProviderSet 是展示服务的依赖注入 Provider 集合
var ProviderSet = wire.NewSet(
	// Server providers
	NewHTTPServer,

	// Config & engine providers
	NewAppConfig,
	NewAnalysisClient,
	NewWorkspace,

	// Data providers
	data.NewData,
	data.NewReportRepo,

	// Usecase providers
	usecase.NewReportUseCase,

	// Service providers
	service.NewDisplayService,
)
