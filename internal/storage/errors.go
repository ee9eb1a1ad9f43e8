package storage

import "fmt"

// StorageError marks a failure of the database itself (I/O, constraint
// machinery, driver errors) as opposed to the ledger's own validation
// failures, which surface as core sentinel errors.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
