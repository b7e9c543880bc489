package badger

// 存储引擎名称
const (
	EngineBadger = "badger"
	EngineMemory = "memory"
)

// BadgerDB存储默认配置值
const (
	// defaultPath 默认数据库路径
	defaultPath = "./data/badger"

	// defaultSyncWrites 默认启用同步写入，区块与承诺树需要强一致
	defaultSyncWrites = true

	// defaultMemTableSize 默认内存表大小为64MB
	defaultMemTableSize = 64 << 20

	// defaultCacheSize 默认 block/index 缓存为32MB
	defaultCacheSize = 32 << 20
)
