package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL 错误码
const (
	pgCharacterNotInRepertoire = "22021"
	pgInvalidParameter         = "22023"
	pgUntranslatableCharacter  = "22P05"
	pgForeignKeyViolation      = "23503"
	pgUniqueViolation          = "23505"
	pgCheckViolation           = "23514"
)

// ErrInvalidContent 内容被数据库拒绝（非法编码或违反 CHECK 约束）
var ErrInvalidContent = errors.New("content rejected by database")

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return pgCode(err) == pgUniqueViolation
}

func isInvalidContent(err error) bool {
	switch pgCode(err) {
	case pgCharacterNotInRepertoire, pgUntranslatableCharacter, pgCheckViolation:
		return true
	}
	return false
}
