package config

import (
	"fmt"
	"strings"

	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	vmconfig "github.com/weisyn/zkvm/internal/config/vm"
	"github.com/weisyn/zkvm/internal/core/vm/prover"
	"github.com/weisyn/zkvm/pkg/types"
)

// ValidationError 配置验证错误
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("配置验证失败 [%s]: %s", e.Field, e.Message)
}

// ValidateMandatoryConfig 验证配置取值
//
// 🎯 **配置验证职责**：在启动时一次性报告全部非法取值，而不是让各模块逐个失败
//
// 📋 **检查项**：
// - storage.engine: badger | memory
// - log.level: debug | info | warn | error | panic | fatal
// - vm.*: 网络参数集、证明方案、树深度与缓存容量
//
// 未配置的字段使用默认值，不视为错误。
func ValidateMandatoryConfig(appConfig *types.AppConfig) error {
	if appConfig == nil {
		return nil
	}
	var errors []error

	// 1. 存储引擎
	if s := appConfig.Storage; s != nil && s.Engine != nil {
		switch strings.ToLower(*s.Engine) {
		case badgerconfig.EngineBadger, badgerconfig.EngineMemory:
		default:
			errors = append(errors, &ValidationError{
				Field:   "storage.engine",
				Message: fmt.Sprintf("不支持的存储引擎 %q，可选 badger | memory", *s.Engine),
			})
		}
	}

	// 2. 日志级别
	if l := appConfig.Log; l != nil && l.Level != nil {
		if _, err := types.ParseLogLevel(*l.Level); err != nil {
			errors = append(errors, &ValidationError{
				Field:   "log.level",
				Message: fmt.Sprintf("不支持的日志级别 %q", *l.Level),
			})
		}
	}

	// 3. 虚拟机
	if appConfig.VM != nil {
		cfg := vmconfig.New(appConfig.VM)
		if err := cfg.Validate(); err != nil {
			errors = append(errors, &ValidationError{Field: "vm", Message: err.Error()})
		}
		if _, err := prover.SchemeByName(cfg.GetProvingScheme()); err != nil {
			errors = append(errors, &ValidationError{Field: "vm.proving_scheme", Message: err.Error()})
		}
	}

	if len(errors) > 0 {
		return &ValidationErrors{Errors: errors}
	}
	return nil
}

// ValidationErrors 多个验证错误
type ValidationErrors struct {
	Errors []error
}

func (e *ValidationErrors) Error() string {
	msg := "配置验证失败，发现以下问题：\n"
	for i, err := range e.Errors {
		msg += fmt.Sprintf("  %d. %s\n", i+1, err.Error())
	}
	return msg
}

// Unwrap 支持 errors.As 逐项匹配
func (e *ValidationErrors) Unwrap() []error {
	return e.Errors
}
