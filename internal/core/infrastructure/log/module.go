package log

import (
	"fmt"

	logconfig "github.com/weisyn/zkvm/internal/config/log"
	logInterface "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	"github.com/weisyn/zkvm/pkg/types"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// ModuleParams 定义日志模块的依赖参数
type ModuleParams struct {
	fx.In

	UserConfig *types.UserLogConfig `optional:"true"`
}

// ModuleOutput 定义日志模块的输出结构
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger
	ZapLogger *zap.Logger
}

// Module 返回日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 根据用户配置初始化日志记录器，并替换全局记录器
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	var userConfig interface{}
	if params.UserConfig != nil {
		userConfig = params.UserConfig
	}
	logger, err := New(logconfig.New(userConfig))
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("根据用户配置创建日志记录器失败: %w", err)
	}
	SetLogger(logger)
	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.GetZapLogger(),
	}, nil
}

// NewModuleLogger 创建带 module 字段的 logger
//
// baseLogger 为空时退回全局记录器。
func NewModuleLogger(baseLogger logInterface.Logger, module string) logInterface.Logger {
	if baseLogger == nil {
		baseLogger = GetLogger()
		if baseLogger == nil {
			return NewNop()
		}
	}
	return baseLogger.With("module", module)
}
