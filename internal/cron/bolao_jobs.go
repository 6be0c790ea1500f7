package cron

import (
	"context"
	"fmt"

	"github.com/cartelabolao/cartela-admin/internal/bolao"
	"github.com/cartelabolao/cartela-admin/internal/settings"
	"github.com/cartelabolao/cartela-admin/pkg/logger"
)

type togglesReader interface {
	Get(ctx context.Context) (*settings.Settings, error)
}

type pendingSalesProcessor interface {
	AutoProcessPendingSales(ctx context.Context) (bolao.ProcessSummary, error)
}

type readyGroupSender interface {
	CheckAndSendReadyGroups(ctx context.Context) (bolao.SendSummary, error)
}

type bolaoAutomation interface {
	pendingSalesProcessor
	readyGroupSender
}

type BolaoJobParams struct {
	Logger     *logger.Logger
	Settings   togglesReader
	Automation bolaoAutomation
}

// NewBolaoJobs returns the pending-sales job followed by the ready-groups job,
// so quotas allocated in a tick can complete a group before dispatch.
func NewBolaoJobs(params BolaoJobParams) ([]Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Settings == nil {
		return nil, fmt.Errorf("settings reader required")
	}
	if params.Automation == nil {
		return nil, fmt.Errorf("bolao automation required")
	}
	return []Job{
		&processPendingSalesJob{logg: params.Logger, settings: params.Settings, automation: params.Automation},
		&sendReadyGroupsJob{logg: params.Logger, settings: params.Settings, automation: params.Automation},
	}, nil
}

type processPendingSalesJob struct {
	logg       *logger.Logger
	settings   togglesReader
	automation pendingSalesProcessor
}

func (j *processPendingSalesJob) Name() string { return "bolao-process-pending-sales" }

func (j *processPendingSalesJob) Run(ctx context.Context) error {
	cfg, err := j.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !cfg.Notifications.AutoProcessPendingSales {
		j.logg.Debug(ctx, "auto process pending sales disabled")
		return nil
	}

	summary, err := j.automation.AutoProcessPendingSales(ctx)
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"pending":          summary.Pending,
		"allocated":        summary.Allocated,
		"skipped":          summary.Skipped,
		"failed":           summary.Failed,
		"groups_completed": summary.GroupsCompleted,
	}), "pending sales processed")
	return summary.Err()
}

type sendReadyGroupsJob struct {
	logg       *logger.Logger
	settings   togglesReader
	automation readyGroupSender
}

func (j *sendReadyGroupsJob) Name() string { return "bolao-send-ready-groups" }

func (j *sendReadyGroupsJob) Run(ctx context.Context) error {
	cfg, err := j.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !cfg.Notifications.AutoSendBolaoCards {
		j.logg.Debug(ctx, "auto send bolao cards disabled")
		return nil
	}

	summary, err := j.automation.CheckAndSendReadyGroups(ctx)
	if err != nil {
		return err
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"checked":  summary.Checked,
		"sent":     summary.Sent,
		"skipped":  summary.Skipped,
		"failed":   summary.Failed,
		"messages": summary.Messages,
	}), "ready groups checked")
	return summary.Err()
}
