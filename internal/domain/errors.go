package domain

import "errors"

var (
	// ErrMissingRecord は参照されたレコードが存在しない場合のエラー。
	ErrMissingRecord = errors.New("missing record")

	// ErrInvalidObjectID はIDの形式がObjectIDとして不正な場合のエラー。
	ErrInvalidObjectID = errors.New("invalid ObjectID")

	// ErrInvalidAction はルール上許可されていない操作のエラー。
	ErrInvalidAction = errors.New("action not allowed")

	// ErrWriteConflict はトランザクションの書き込み競合エラー。
	// 再試行で回復しうる一時的なエラーとして扱う。
	ErrWriteConflict = errors.New("write conflict")

	// ErrMigrationNotFound は指定された名前のマイグレーションが存在しない場合のエラー。
	ErrMigrationNotFound = errors.New("migration not found")

	// ErrMigrationOutOfRange は指定されたマイグレーション範囲が現在の適用状態と矛盾する場合のエラー。
	ErrMigrationOutOfRange = errors.New("migration out of range")

	// ErrNothingToRevert は適用済みマイグレーションが無い状態で巻き戻しを要求された場合のエラー。
	ErrNothingToRevert = errors.New("no migrations to revert")

	// ErrMigrationFinalize はトランザクション外の後処理が失敗した場合のエラー。
	// カーソルは既に更新済みのため、通常のマイグレーション失敗とは区別して報告する。
	ErrMigrationFinalize = errors.New("migration finalization failed")
)
