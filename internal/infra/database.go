// Package infra は外部サービスとの接続を提供する。
package infra

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"inventory-management-service/config"
	"inventory-management-service/internal/domain"
)

// mongodbWriteConflictCode はMongoDBのWriteConflictエラーコード。
const mongodbWriteConflictCode = 112

// NewMongoDatabase はMongoDBへ接続し、クライアントとデータベースハンドルを返す。
func NewMongoDatabase(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(cfg.DatabaseURL).
		SetMaxPoolSize(10).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, nil, fmt.Errorf("pinging database: %w", err)
	}

	return client, client.Database(cfg.DatabaseName), nil
}

// TxRunner は1つのACIDトランザクションのスコープで関数を実行する。
type TxRunner interface {
	WithTransaction(ctx context.Context, label string, fn func(ctx context.Context) error) error
}

// mongoTxRunner はMongoDBのセッション/トランザクションによるTxRunnerの実装。
type mongoTxRunner struct {
	client *mongo.Client
}

// NewTxRunner は新しいTxRunnerを生成する。
func NewTxRunner(client *mongo.Client) TxRunner {
	return &mongoTxRunner{client: client}
}

// WithTransaction はセッションを開始し、スナップショット分離のトランザクション内でfnを実行する。
// fnに渡されるctxにはセッションが結び付けられており、そのctxを使った
// データベース操作はすべて同一トランザクションに属する。
// fnが正常終了すればコミット、エラーを返せばアボートする。再試行はここでは行わない。
// 書き込み競合はdomain.ErrWriteConflictへ変換されるため、呼び出し側で再試行方針を選択できる。
func (r *mongoTxRunner) WithTransaction(ctx context.Context, label string, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("starting session: %w", err)
	}
	defer session.EndSession(ctx)

	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	err = mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		if err := session.StartTransaction(txnOpts); err != nil {
			return fmt.Errorf("starting transaction: %w", err)
		}

		if err := fn(sc); err != nil {
			if abortErr := session.AbortTransaction(sc); abortErr != nil {
				slog.ErrorContext(ctx, "failed to abort transaction",
					"operation", "with_transaction",
					"label", label,
					"error", abortErr,
				)
			}
			return err
		}

		return session.CommitTransaction(sc)
	})
	if err != nil {
		if isWriteConflict(err) {
			return fmt.Errorf("%w while %s", domain.ErrWriteConflict, label)
		}
		return err
	}
	return nil
}

// isWriteConflict はエラーが書き込み競合によるものか判定する。
// WriteConflict(112)に加え、サーバがTransientTransactionErrorラベルを付けた
// エラーも再試行可能な競合として扱う。
func isWriteConflict(err error) bool {
	var srvErr mongo.ServerError
	if errors.As(err, &srvErr) {
		return srvErr.HasErrorCode(mongodbWriteConflictCode) ||
			srvErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

const (
	// retryBudget は最初の試行からの再試行打ち切りまでの実時間。
	retryBudget = 5 * time.Second
	// retryBackoffMin/Max は再試行間のランダム待機時間の範囲。
	retryBackoffMin = 10 * time.Millisecond
	retryBackoffMax = 50 * time.Millisecond
)

// WriteConflictRetrier は書き込み競合で失敗した処理を制限付きで再試行する。
// 同一カタログアイテムへの高頻度な操作では一時的な競合が想定されるため、
// ランダムなバックオフを挟んで再実行し、予算超過時は競合エラーをそのまま返す。
type WriteConflictRetrier struct {
	budget time.Duration
	now    func() time.Time
	sleep  func(time.Duration)
}

// NewWriteConflictRetrier は既定の予算設定でWriteConflictRetrierを生成する。
func NewWriteConflictRetrier() *WriteConflictRetrier {
	return &WriteConflictRetrier{
		budget: retryBudget,
		now:    time.Now,
		sleep:  time.Sleep,
	}
}

// Do はfnを実行し、domain.ErrWriteConflictで失敗した場合のみ再試行する。
// それ以外のエラーは即座に返す。予算を超過した場合は最後の競合エラーを返す。
func (r *WriteConflictRetrier) Do(ctx context.Context, fn func() error) error {
	deadline := r.now().Add(r.budget)
	for {
		err := fn()
		if err == nil || !errors.Is(err, domain.ErrWriteConflict) {
			return err
		}
		if !r.now().Before(deadline) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		r.sleep(retryBackoffMin + rand.N(retryBackoffMax-retryBackoffMin))
	}
}
