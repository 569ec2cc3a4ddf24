// Package storage provides sql storage for training samples.
// The storage engine is a wrapper around sqlx.DB working with sqlite and postgres, see engine package.
// Each table is represented by a struct with methods implementing business logic for this data type.
package storage
