package app

import (
	"context"
	"fmt"

	"github.com/vk/formulagrid/internal/api"
	"github.com/vk/formulagrid/internal/ctxlog"
	"github.com/vk/formulagrid/internal/engine"
	"github.com/vk/formulagrid/internal/formula"
	"github.com/vk/formulagrid/internal/normalize"
	"github.com/vk/formulagrid/internal/remote"
	"github.com/vk/formulagrid/internal/server"
)

// Run executes the main application logic based on the app configuration.
// Batch errors are printed as an error envelope on the output writer and
// then returned.
func (a *App) Run(ctx context.Context) error {
	ctx = a.Context(ctx)
	a.logger.Debug("App.Run method started.")
	defer a.logger.Debug("App.Run method finished.")

	if a.config.HealthcheckPort > 0 {
		if err := a.startHealthcheckServer(ctx); err != nil {
			return err
		}
		defer a.closeHealthcheckServer(ctx)
	}

	switch {
	case a.config.Serve:
		return a.serve(ctx)
	case a.config.Watch:
		return a.watch(ctx)
	}
	return a.runOnce(ctx)
}

func (a *App) serve(ctx context.Context) error {
	srv := server.New(ctx, a.executor)
	return srv.ListenAndServe(ctx, fmt.Sprintf(":%d", a.config.HTTPPort))
}

// runOnce loads the batch and prints either its plan or its results.
func (a *App) runOnce(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	batch, err := a.LoadBatch(ctx)
	if err != nil {
		return a.report(err)
	}

	if a.config.PlanOnly {
		plan, err := engine.Schedule(ctx, batch.Formulas)
		if err != nil {
			return a.report(err)
		}
		out, err := newPlanOutput(plan)
		if err != nil {
			return err
		}
		return writeJSON(a.outW, out)
	}

	rs, err := a.evaluate(ctx, batch)
	if err != nil {
		return a.report(err)
	}
	logger.Info("🏁 Batch executed.", "outputs", rs.Keys(), "records", len(batch.Records))
	return writeJSON(a.outW, api.Success(rs))
}

// evaluate runs the batch locally or, when a remote URL is configured, on a
// formula server. The server normalises inputs itself.
func (a *App) evaluate(ctx context.Context, batch *formula.Batch) (*formula.ResultSet, error) {
	if a.config.RemoteURL != "" {
		return remote.Submit(ctx, remote.Options{
			URL:     a.config.RemoteURL,
			Timeout: a.config.RemoteTimeout,
		}, batch)
	}

	normalized, err := normalize.Batch(ctx, batch)
	if err != nil {
		return nil, err
	}
	return a.executor.Execute(ctx, normalized)
}

// report prints client errors as an error envelope and returns err.
func (a *App) report(err error) error {
	if formula.IsClientError(err) {
		_, body := api.Failure(err)
		if werr := writeJSON(a.outW, body); werr != nil {
			a.logger.Error("Failed to print error envelope.", "error", werr)
		}
	}
	return err
}
