package badger

import (
	"errors"
	"fmt"
	"sync/atomic"

	badgerdb "github.com/dgraph-io/badger/v3"
	"github.com/weisyn/zkvm/pkg/interfaces/infrastructure/storage"
)

// 确保 Transaction 实现了 storage.BadgerTransaction 接口
var _ storage.BadgerTransaction = (*Transaction)(nil)

// ErrTransactionClosed 事务已提交或丢弃
var ErrTransactionClosed = errors.New("transaction is closed")

// TransactionState 事务状态
type TransactionState int32

const (
	// TxActive 活动
	TxActive TransactionState = iota
	// TxCommitted 已提交
	TxCommitted
	// TxDiscarded 已丢弃
	TxDiscarded
)

// Transaction 实现BadgerTransaction接口
type Transaction struct {
	txn        *badgerdb.Txn
	state      int32
	operations int
}

// Get 获取指定键的值，键不存在时返回 (nil, nil)
func (t *Transaction) Get(key []byte) ([]byte, error) {
	if !t.IsActive() {
		return nil, ErrTransactionClosed
	}
	item, err := t.txn.Get(key)
	if err != nil {
		if errors.Is(err, badgerdb.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}
	val, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("复制键值失败: %w", err)
	}
	return val, nil
}

// Set 设置键值对
func (t *Transaction) Set(key, value []byte) error {
	if !t.IsActive() {
		return ErrTransactionClosed
	}
	if err := t.txn.Set(key, value); err != nil {
		return fmt.Errorf("设置键值失败: %w", err)
	}
	t.operations++
	return nil
}

// Delete 删除指定键
func (t *Transaction) Delete(key []byte) error {
	if !t.IsActive() {
		return ErrTransactionClosed
	}
	if err := t.txn.Delete(key); err != nil {
		return fmt.Errorf("删除键值失败: %w", err)
	}
	t.operations++
	return nil
}

// Exists 检查键是否存在
func (t *Transaction) Exists(key []byte) (bool, error) {
	if !t.IsActive() {
		return false, ErrTransactionClosed
	}
	_, err := t.txn.Get(key)
	if errors.Is(err, badgerdb.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("检查键存在性失败: %w", err)
	}
	return true, nil
}

// Commit 提交事务
func (t *Transaction) Commit() error {
	if !atomic.CompareAndSwapInt32(&t.state, int32(TxActive), int32(TxCommitted)) {
		return ErrTransactionClosed
	}
	if t.operations == 0 {
		t.txn.Discard()
		return nil
	}
	if err := t.txn.Commit(); err != nil {
		return fmt.Errorf("事务提交失败: %w", err)
	}
	return nil
}

// Discard 丢弃事务；已提交的事务不受影响
func (t *Transaction) Discard() {
	if atomic.CompareAndSwapInt32(&t.state, int32(TxActive), int32(TxDiscarded)) {
		t.txn.Discard()
	}
}

// IsActive 事务是否处于活动状态
func (t *Transaction) IsActive() bool {
	return TransactionState(atomic.LoadInt32(&t.state)) == TxActive
}
