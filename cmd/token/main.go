package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/freightlane/internal/config"
	"github.com/freightlane/internal/logger"
	"github.com/freightlane/internal/service"
)

// 开发环境令牌签发工具，生产环境令牌由外部认证服务签发
func main() {
	var (
		role string
		id   uint
		ttl  time.Duration
	)
	flag.StringVar(&role, "role", "", "操作人角色: admin, shipper, carrier")
	flag.UintVar(&id, "id", 0, "操作人ID（承运方为承运方档案ID）")
	flag.DurationVar(&ttl, "ttl", 24*time.Hour, "令牌有效期")
	flag.Parse()

	cfg := config.Load()
	logger.Init("debug", cfg.Log.ToLoggerOptions())

	actor := service.Actor{ID: id, Role: strings.ToLower(strings.TrimSpace(role))}
	if !actor.Valid() {
		fmt.Fprintln(os.Stderr, "invalid actor: -role must be admin|shipper|carrier and -id must be positive")
		flag.Usage()
		os.Exit(2)
	}

	token, expiresAt, err := service.NewTokenService(cfg.JWT).IssueToken(actor, ttl)
	if err != nil {
		logger.Errorw("token_issue_failed", "role", actor.Role, "actor_id", actor.ID, "error", err)
		os.Exit(1)
	}
	logger.Infow("token_issued", "role", actor.Role, "actor_id", actor.ID, "expires_at", expiresAt)
	fmt.Println(token)
}
