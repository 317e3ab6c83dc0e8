//-------------------------------------------------------------------------
//
// retaildw - Retail Analytics Warehouse
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package etl implements the transform and load stages of the retail
// warehouse pipeline: date dimension building, dimension loading, fact
// transformation, and the transactional load coordinator.
package etl

import "fmt"

// DataQualityError reports a source value that violates a domain
// constraint. The offending row is rejected and counted; the run
// continues.
type DataQualityError struct {
	Table  string
	Field  string
	Value  any
	Reason string
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("data quality: %s.%s=%v: %s",
		e.Table, e.Field, e.Value, e.Reason)
}

// ReferentialIntegrityError reports a fact row referencing a dimension
// key that does not exist in this run's dimension state. The row is
// rejected and counted; the run continues.
type ReferentialIntegrityError struct {
	Dimension string
	Key       any
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("referential integrity: no %s row for key %v",
		e.Dimension, e.Key)
}

// StorageError reports a persistence failure. It is not recoverable
// within a run: the transaction is rolled back and nothing is committed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
