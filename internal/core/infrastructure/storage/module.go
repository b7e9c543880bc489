// Package storage 提供存储模块的依赖注入装配
package storage

import (
	"context"
	"fmt"

	badgerconfig "github.com/weisyn/zkvm/internal/config/storage/badger"
	memoryconfig "github.com/weisyn/zkvm/internal/config/storage/memory"
	"github.com/weisyn/zkvm/internal/core/infrastructure/storage/badger"
	"github.com/weisyn/zkvm/internal/core/infrastructure/storage/memory"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/log"
	storageInterface "github.com/weisyn/zkvm/pkg/interfaces/infrastructure/storage"
	"github.com/weisyn/zkvm/pkg/types"
	"go.uber.org/fx"
)

// ModuleParams 定义存储模块的依赖参数
type ModuleParams struct {
	fx.In

	Lifecycle     fx.Lifecycle
	Logger        log.Logger               `optional:"true"`
	StorageConfig *types.UserStorageConfig `optional:"true"`
	VMConfig      *types.UserVMConfig      `optional:"true"`
}

// ModuleOutput 定义存储模块的输出结构
type ModuleOutput struct {
	fx.Out

	BadgerStore storageInterface.BadgerStore
	MemoryStore storageInterface.MemoryStore
}

// Module 返回存储模块
func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 打开持久存储与路径缓存，并在应用停止时关闭
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	var storageConfig, vmConfig interface{}
	if params.StorageConfig != nil {
		storageConfig = params.StorageConfig
	}
	if params.VMConfig != nil {
		vmConfig = params.VMConfig
	}

	badgerStore, err := badger.New(badgerconfig.New(storageConfig), params.Logger)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("创建BadgerDB存储失败: %w", err)
	}
	memoryStore, err := memory.New(memoryconfig.New(vmConfig), params.Logger)
	if err != nil {
		_ = badgerStore.Close()
		return ModuleOutput{}, fmt.Errorf("创建内存缓存失败: %w", err)
	}

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if params.Logger != nil {
				params.Logger.Info("正在关闭存储服务...")
			}
			memErr := memoryStore.Close()
			if err := badgerStore.Close(); err != nil {
				return err
			}
			return memErr
		},
	})

	return ModuleOutput{BadgerStore: badgerStore, MemoryStore: memoryStore}, nil
}
