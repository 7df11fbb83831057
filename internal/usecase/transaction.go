package usecase

import "context"

// TxRunner は1つのACIDトランザクションのスコープで関数を実行するインターフェース。
// fnへ渡されるctxにはトランザクションが結び付けられており、そのctxを使った
// リポジトリ操作はすべて同一トランザクションに属する。
type TxRunner interface {
	WithTransaction(ctx context.Context, label string, fn func(ctx context.Context) error) error
}

// Retrier は書き込み競合で失敗した処理を再試行するインターフェース。
type Retrier interface {
	Do(ctx context.Context, fn func() error) error
}
