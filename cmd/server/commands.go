package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/yukikurage/workload-dashboard/internal/app"
	"github.com/yukikurage/workload-dashboard/internal/config"
	"github.com/yukikurage/workload-dashboard/internal/constants"
	"github.com/yukikurage/workload-dashboard/internal/dateutil"
	"github.com/yukikurage/workload-dashboard/internal/dto"
	"github.com/yukikurage/workload-dashboard/internal/observability"
)

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "workload-dashboard",
		Short: "Wrike workload dashboard",
		Long: `Workload dashboard for Wrike: per-person capacity, the management
overview and bulk rescheduling actions.

Without a subcommand the HTTP server is started.`,
		SilenceUsage: true,
		RunE:         runServe,
	}
	root.AddCommand(serveCmd(), workloadCmd(), overviewCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}
}

func workloadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workload",
		Short: "Print the workload of one contact as JSON",
		Long: `Print the workload of one contact as JSON.

Examples:
  workload-dashboard workload --contact=KUAAAAAA
  workload-dashboard workload --contact=KUAAAAAA --date=2024-05-08 --capacity=6
`,
		RunE: runWorkload,
	}
	cmd.Flags().String("contact", "", "Wrike contact id (required)")
	cmd.Flags().String("date", "", "Reference date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().Float64("capacity", 0, "Daily capacity in hours (default from config)")
	_ = cmd.MarkFlagRequired("contact")
	return cmd
}

func overviewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Print the management overview as JSON",
		RunE:  runOverview,
	}
	cmd.Flags().String("date", "", "Reference date YYYY-MM-DD (default today, UTC)")
	cmd.Flags().Float64("capacity", 0, "Daily capacity in hours (default from config)")
	cmd.Flags().Int("limit", constants.DefaultOverviewLimit, "Maximum number of contacts analyzed")
	return cmd
}

// bootstrap loads configuration and builds the application.
func bootstrap(ctx context.Context) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	gin.SetMode(cfg.GinMode)

	logCfg := observability.DefaultLogConfig()
	logCfg.Level = cfg.LogLevel
	logCfg.Format = observability.LogFormat(cfg.LogFormat)
	logger := observability.NewLogger(logCfg)
	slog.SetDefault(logger)

	return app.New(ctx, cfg, logger)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.Serve(ctx)
}

func runWorkload(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	contactID, _ := cmd.Flags().GetString("contact")

	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	result, err := a.Workload.GetWorkload(ctx, contactID, date, capacityFlag(cmd, a.Config))
	if err != nil {
		return err
	}
	return printJSON(dto.ToWorkloadResponse(result))
}

func runOverview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	limit, _ := cmd.Flags().GetInt("limit")

	date, err := dateFlag(cmd)
	if err != nil {
		return err
	}

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	overview, err := a.Workload.GetOverview(ctx, date, capacityFlag(cmd, a.Config), limit)
	if err != nil {
		return err
	}
	return printJSON(dto.ToOverviewResponse(overview))
}

func dateFlag(cmd *cobra.Command) (dateutil.Date, error) {
	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return dateutil.Today(), nil
	}
	d, err := dateutil.Parse(raw)
	if err != nil {
		return dateutil.Date{}, fmt.Errorf("invalid --date %q: %w", raw, err)
	}
	return d, nil
}

func capacityFlag(cmd *cobra.Command, cfg *config.Config) float64 {
	capacity, _ := cmd.Flags().GetFloat64("capacity")
	if capacity > 0 {
		return capacity
	}
	return cfg.DefaultCapacityHours
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
