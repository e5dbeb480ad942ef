package repository

import (
	"errors"

	"github.com/lib/pq"
)

// PostgreSQLのエラーコード
const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
	pqStringTooLong       = "22001"
	pqNumericOutOfRange   = "22003"
)

// isUniqueViolation は一意制約違反かを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation
}

// isForeignKeyViolation は外部キー制約違反かを判定する。
func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == pqForeignKeyViolation
}

// isValueOutOfRange は値が列の長さや精度を超えたかを判定する。
func isValueOutOfRange(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqStringTooLong || pqErr.Code == pqNumericOutOfRange
}
