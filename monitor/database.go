package monitor

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	apperrors "uptimeguard/pkg/errors"

	_ "github.com/go-sql-driver/mysql"
	"github.com/go-redis/redis/v8"
)

type DatabaseConfig struct {
	Hostname string `json:"hostname"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	Database string `json:"database"`
	Query    string `json:"query"`
}

type mysqlExecutor struct{ deps Deps }

func (e *mysqlExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg DatabaseConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if cfg.Hostname == "" || cfg.Port == 0 {
		return down(apperrors.ConfigInvalid("缺少 hostname 或 port 字段").Error())
	}

	timeout := defaultTimeoutOr(e.deps, 10*time.Second)
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?timeout=%s", cfg.Username, cfg.Password, cfg.Hostname, cfg.Port, cfg.Database, timeout.String())

	start := time.Now()
	conn, err := sql.Open("mysql", dsn)
	if err != nil {
		return down("MYSQL_ERROR: " + err.Error())
	}
	defer conn.Close()

	if err := conn.PingContext(checkCtx); err != nil {
		return down(classifyDialError(err))
	}

	query := cfg.Query
	if query == "" {
		query = "SELECT 1"
	}
	if _, err := conn.ExecContext(checkCtx, query); err != nil {
		return down("查询失败: " + err.Error())
	}

	ping := int(time.Since(start).Milliseconds())
	return up("MySQL 连接正常", &ping)
}

type redisExecutor struct{ deps Deps }

func (e *redisExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg DatabaseConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if cfg.Hostname == "" || cfg.Port == 0 {
		return down(apperrors.ConfigInvalid("缺少 hostname 或 port 字段").Error())
	}

	timeout := defaultTimeoutOr(e.deps, 10*time.Second)
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db := 0
	if cfg.Database != "" {
		fmt.Sscanf(cfg.Database, "%d", &db)
	}

	start := time.Now()
	client := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Hostname, cfg.Port),
		Password:    cfg.Password,
		DB:          db,
		DialTimeout: timeout,
	})
	defer client.Close()

	if cfg.Query != "" {
		if err := client.Do(checkCtx, parseRedisCommand(cfg.Query)...).Err(); err != nil {
			return down(classifyDialError(err))
		}
	} else {
		if err := client.Ping(checkCtx).Err(); err != nil {
			return down(classifyDialError(err))
		}
	}

	ping := int(time.Since(start).Milliseconds())
	return up("Redis 连接正常", &ping)
}

func parseRedisCommand(query string) []any {
	fields := make([]any, 0, 4)
	cur := ""
	for _, r := range query {
		if r == ' ' {
			if cur != "" {
				fields = append(fields, cur)
				cur = ""
			}
			continue
		}
		cur += string(r)
	}
	if cur != "" {
		fields = append(fields, cur)
	}
	return fields
}
