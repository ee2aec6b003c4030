package app

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/chatnil/compliancehub/internal/pipeline"
	"github.com/chatnil/compliancehub/internal/server"
	"github.com/chatnil/compliancehub/internal/server/handler"
	"github.com/chatnil/compliancehub/internal/server/middleware"
	"github.com/chatnil/compliancehub/internal/server/ws"
	"github.com/chatnil/compliancehub/internal/service"
)

// Job names accepted by RunJob.
const (
	JobDeadlines = "deadlines"
	JobSnapshots = "snapshots"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 15 * time.Second

// ServerMode serves the dashboard API and WebSocket hub.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")
	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, a.dashboardService(deps), nil)
	return g.Wait()
}

// WorkerMode runs the scheduled deadline monitor and snapshot archiver.
func (a *App) WorkerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting worker mode")
	g, ctx := errgroup.WithContext(ctx)
	a.startScheduler(ctx, g, a.newOrchestrator(deps))
	return g.Wait()
}

// FullMode runs the API and the scheduled jobs in one process.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")
	g, ctx := errgroup.WithContext(ctx)
	orch := a.newOrchestrator(deps)
	a.startHTTPServer(ctx, g, deps, a.dashboardService(deps), orch.Jobs())
	a.startScheduler(ctx, g, orch)
	return g.Wait()
}

func (a *App) dashboardService(deps *Dependencies) *service.DashboardService {
	return service.NewDashboardService(
		deps.Roster,
		deps.DashboardCache,
		deps.SignalBus,
		a.cfg.Dashboard.Location(),
		a.logger,
	)
}

func (a *App) newOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	dashboards := a.dashboardService(deps)
	lockTTL := a.cfg.Jobs.LockTTL.Duration

	var schedules []pipeline.Schedule
	if a.cfg.Jobs.DeadlineCron != "" {
		monitor := service.NewDeadlineMonitor(
			dashboards, deps.Roster.Officers, deps.LockManager,
			deps.Notifier, deps.SignalBus, lockTTL, a.logger,
		)
		schedules = append(schedules, pipeline.Schedule{
			Name:    JobDeadlines,
			Spec:    a.cfg.Jobs.DeadlineCron,
			Job:     monitor,
			Timeout: lockTTL,
		})
	}
	archiver := service.NewSnapshotArchiver(
		dashboards, deps.Roster.Officers, deps.snapshotStore(),
		deps.LockManager, deps.Notifier, lockTTL, a.logger,
	)
	if a.cfg.Jobs.SnapshotCron != "" && archiver.Enabled() {
		schedules = append(schedules, pipeline.Schedule{
			Name:    JobSnapshots,
			Spec:    a.cfg.Jobs.SnapshotCron,
			Job:     archiver,
			Timeout: lockTTL,
		})
	}
	return pipeline.NewOrchestrator(schedules, a.cfg.Dashboard.Location(), a.logger)
}

func (a *App) startScheduler(ctx context.Context, g *errgroup.Group, orch *pipeline.Orchestrator) {
	g.Go(func() error {
		return orch.Run(ctx)
	})
}

func (a *App) startHTTPServer(
	ctx context.Context,
	g *errgroup.Group,
	deps *Dependencies,
	dashboards *service.DashboardService,
	jobs []string,
) {
	hub := ws.NewHub(deps.SignalBus, dashboards, a.cfg.Server.CORSOrigins, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	srv := server.NewServer(
		server.Config{
			Port:         a.cfg.Server.Port,
			CORS: middleware.CORSConfig{
				Origins: a.cfg.Server.CORSOrigins,
				Methods: a.cfg.Server.CORSMethods,
				MaxAge:  a.cfg.Server.CORSMaxAge.Duration,
			},
			RateLimit:    a.cfg.Server.RateLimit,
			IPRateLimit:  a.cfg.Server.IPRateLimit,
			ReadTimeout:  a.cfg.Server.ReadTimeout.Duration,
			WriteTimeout: a.cfg.Server.WriteTimeout.Duration,
		},
		server.Handlers{
			Health:     handler.NewHealthHandler(deps.Checks, a.logger),
			Status:     handler.NewStatusHandler(a.cfg.Mode, jobs, deps.Snapshots != nil, time.Now()),
			Compliance: handler.NewComplianceHandler(dashboards, a.logger),
			Snapshots:  handler.NewSnapshotHandler(dashboards, deps.snapshotReader(), a.logger),
		},
		hub,
		middleware.NewVerifier(a.cfg.Auth.JWTSecret, a.cfg.Auth.Audience, a.cfg.Auth.Issuer),
		deps.RateLimiter,
		a.logger,
	)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("http shutdown failed", slog.String("error", err.Error()))
			return err
		}
		return nil
	})
}
