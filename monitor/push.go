package monitor

import (
	"context"
	"encoding/json"
	"time"

	apperrors "uptimeguard/pkg/errors"
)

type PushConfig struct {
	Token        string `json:"token"`
	PushInterval int    `json:"pushInterval"`
}

// pushExecutor does no outbound I/O: it reads the monitor's own
// lastCheckAt (advanced out-of-band by the push ingestion endpoint)
// and judges liveness purely from elapsed time.
type pushExecutor struct{ deps Deps }

func (e *pushExecutor) Check(ctx context.Context, monitorID, rawConfig string) CheckResult {
	var cfg PushConfig
	if err := json.Unmarshal([]byte(rawConfig), &cfg); err != nil {
		return down(apperrors.ConfigInvalid("配置解析失败: " + err.Error()).Error())
	}
	if cfg.Token == "" || cfg.PushInterval <= 0 {
		return down(apperrors.ConfigInvalid("缺少 token 或 pushInterval 字段").Error())
	}
	if e.deps.PushLastCheck == nil {
		return down("push 执行器未正确初始化")
	}

	lastCheck, ok, err := e.deps.PushLastCheck(monitorID)
	if err != nil {
		return down("读取心跳状态失败: " + err.Error())
	}
	if !ok || lastCheck == nil {
		return pending("尚未收到心跳")
	}

	tolerance := e.deps.pushTolerance()
	deadline := lastCheck.Add(time.Duration(float64(cfg.PushInterval)*tolerance) * time.Second)
	if time.Now().After(deadline) {
		return down("未收到心跳 (missed heartbeat)")
	}
	return up("心跳正常", nil)
}

func (d Deps) pushTolerance() float64 {
	if d.PushTolerance > 0 {
		return d.PushTolerance
	}
	return 1.5
}
