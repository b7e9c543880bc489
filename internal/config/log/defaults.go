package log

import (
	"github.com/weisyn/zkvm/pkg/types"
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	defaultLogLevel = types.InfoLevel

	// defaultToConsole 未指定文件时输出到控制台
	defaultToConsole = true

	// defaultFilePath 空路径表示不写文件
	defaultFilePath = ""

	// === 日志轮转配置 ===

	// defaultMaxSize 单个日志文件最大大小(MB)
	defaultMaxSize = 100

	defaultMaxBackups = 10

	// defaultMaxAge 保留天数
	defaultMaxAge = 30

	defaultCompress = true

	// === 调试配置 ===

	defaultEnableCaller = true

	// defaultEnableStacktrace 仅 Error 级别附带堆栈
	defaultEnableStacktrace = true

	// === 多文件日志配置 ===

	// defaultEnableMultiFile 执行日志与存储日志分文件
	defaultEnableMultiFile = true

	// defaultStateLogFile 存储、查询、证明等状态类模块
	defaultStateLogFile = "zkvm-state.log"

	// defaultExecutionLogFile 进程引擎、费用流水线等执行类模块
	defaultExecutionLogFile = "zkvm-execution.log"
)

// 默认的日志级别映射
var defaultLevelMap = map[types.LogLevel]zapcore.Level{
	types.DebugLevel: zapcore.DebugLevel,
	types.InfoLevel:  zapcore.InfoLevel,
	types.WarnLevel:  zapcore.WarnLevel,
	types.ErrorLevel: zapcore.ErrorLevel,
	types.PanicLevel: zapcore.PanicLevel,
	types.FatalLevel: zapcore.FatalLevel,
}
