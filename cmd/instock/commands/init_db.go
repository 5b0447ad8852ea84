package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// initDBCmd runs the database initialization stage alone
var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "DB 초기화 (DB 생성, 기본 테이블, 마이그레이션)",
	Long: `DB 초기화

대상 DB가 없으면 생성하고 기본 테이블과 1회성 마이그레이션을 적용합니다.
이미 적용된 마이그레이션은 건너뜁니다.`,
	RunE: runInitDB,
}

func init() {
	rootCmd.AddCommand(initDBCmd)
}

func runInitDB(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := a.guard().EnsureDatabaseReady(ctx); err != nil {
		fmt.Printf("❌ DB 초기화 실패: %v\n", err)
		return err
	}

	fmt.Printf("✅ DB 초기화 완료: %s\n", a.cfg.Database.DatabaseName())
	return nil
}
