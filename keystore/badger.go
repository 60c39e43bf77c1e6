package keystore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"

	"github.com/oasisprotocol/oasis-core/go/common/logging"
)

// BadgerBackend is a persistent backend stored in a BadgerDB database.
type BadgerBackend struct {
	db *badger.DB
}

// Get implements Backend.
func (b *BadgerBackend) Get(key []byte) ([]byte, error) {
	var value []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		switch {
		case err == nil:
		case errors.Is(err, badger.ErrKeyNotFound):
			return ErrNotFound
		default:
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	return value, err
}

// Put implements Backend.
func (b *BadgerBackend) Put(key, value []byte) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Close implements Backend.
func (b *BadgerBackend) Close() error {
	return b.db.Close()
}

// NewBadgerBackend opens (or creates) a BadgerDB backend in the given directory.
//
// An empty directory opens an in-memory database.
func NewBadgerBackend(dir string) (*BadgerBackend, error) {
	opts := badger.DefaultOptions(dir).
		WithLogger(&badgerLogger{logging.GetLogger("web3c/keystore/badger")}).
		WithInMemory(dir == "")

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("keystore: failed to open badger database: %w", err)
	}
	return &BadgerBackend{db: db}, nil
}

// badgerLogger routes badger's log output to the oasis logger.
type badgerLogger struct {
	logger *logging.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
