package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"text/tabwriter"
	"time"

	"github.com/fatih/color"
	"github.com/kavos113/assistant-artifacts/config"
	"github.com/kavos113/assistant-artifacts/domain"
	"github.com/kavos113/assistant-artifacts/handler"
	"github.com/kavos113/assistant-artifacts/logger"
	"github.com/kavos113/assistant-artifacts/storage"
	"github.com/kavos113/assistant-artifacts/storage/filesystem"
	"github.com/kavos113/assistant-artifacts/storage/s3"
	"github.com/kavos113/assistant-artifacts/store"
	"github.com/kavos113/assistant-artifacts/store/boltstore"
	"github.com/kavos113/assistant-artifacts/usecase"
	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

const serviceName = "assistant-artifacts"

type app struct {
	configPath string
	backend    string

	cfg    *config.Config
	logger *slog.Logger
	ledger store.Store
	out    io.Writer
}

func newRootCmd(out io.Writer) *cobra.Command {
	a := &app{out: out}

	root := &cobra.Command{
		Use:           "artifacts",
		Short:         "Upload assistant service artifacts and issue download links",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.backend != "" {
				cfg.Backend = a.backend
				if err := cfg.Validate(); err != nil {
					return err
				}
			}
			a.cfg = cfg
			a.logger = logger.New(serviceName, cfg.LogLevel)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: ./artifact-config.yaml)")
	root.PersistentFlags().StringVar(&a.backend, "backend", "", "storage backend: s3 or filesystem")

	root.AddCommand(
		a.validateCmd(),
		a.uploadCmd(),
		a.linkCmd(),
		a.historyCmd(),
		a.serveCmd(),
	)
	return root
}

func (a *app) newBackend(ctx context.Context) (storage.Backend, error) {
	switch a.cfg.Backend {
	case config.BackendFilesystem:
		return filesystem.NewStorage(a.cfg.StoragePath, a.logger)
	default:
		return s3.NewStorage(ctx, s3.Config{
			Bucket:         a.cfg.S3.Bucket,
			Region:         a.cfg.S3.Region,
			Endpoint:       a.cfg.S3.Endpoint,
			PublicEndpoint: a.cfg.S3.PublicEndpoint,
			AccessKey:      a.cfg.S3.AccessKey,
			SecretKey:      a.cfg.S3.SecretKey,
			PartSize:       a.cfg.S3.PartSize,
			Concurrency:    a.cfg.S3.Concurrency,
		}, a.logger)
	}
}

// openLedger opens the upload ledger. When required is false a failure only
// disables recording.
func (a *app) openLedger(required bool) error {
	ledger, err := boltstore.NewStore(a.cfg.LedgerPath)
	if err != nil {
		if required {
			return err
		}
		a.logger.Warn("upload ledger disabled", slog.Any("error", err))
		return nil
	}
	a.ledger = ledger
	return nil
}

func (a *app) closeLedger() {
	if a.ledger == nil {
		return
	}
	if err := a.ledger.Close(); err != nil {
		a.logger.Warn("failed to close upload ledger", slog.Any("error", err))
	}
	a.ledger = nil
}

func (a *app) artifactStore(backend storage.Backend) *usecase.ArtifactStore {
	cfg := usecase.Config{
		RootFolder:     a.cfg.RootFolder,
		Services:       a.cfg.Services,
		ProgressOutput: a.out,
	}
	return usecase.NewArtifactStore(cfg, backend, a.ledger, a.logger)
}

func (a *app) validateCmd() *cobra.Command {
	var service string
	var versions []string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a service name and version strings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.artifactStore(nil).Validate(service, versions...); err != nil {
				return err
			}
			fmt.Fprintln(a.out, color.GreenString("ok"))
			return nil
		},
	}

	cmd.Flags().StringVar(&service, "service", "", "service name")
	cmd.Flags().StringSliceVar(&versions, "version", nil, "version to check (repeatable)")
	_ = cmd.MarkFlagRequired("service")
	return cmd
}

func (a *app) uploadCmd() *cobra.Command {
	var req domain.UploadRequest

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a local file under its canonical artifact key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.LocalPath = args[0]

			if err := a.artifactStore(nil).Validate(req.ServiceName, req.AssistantVersion, req.ServiceVersion); err != nil {
				return err
			}

			backend, err := a.newBackend(cmd.Context())
			if err != nil {
				return err
			}
			if err := a.openLedger(false); err != nil {
				return err
			}
			defer a.closeLedger()

			if err := a.artifactStore(backend).Upload(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(a.out, color.GreenString("uploaded %s", req.LocalPath))
			return nil
		},
	}

	cmd.Flags().StringVar(&req.AssistantVersion, "assistant-version", "", "assistant version (x.y.z)")
	cmd.Flags().StringVar(&req.ServiceName, "service", "", "service name")
	cmd.Flags().StringVar(&req.ServiceVersion, "service-version", "", "service version (x.y.z)")
	for _, f := range []string{"assistant-version", "service", "service-version"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func (a *app) linkCmd() *cobra.Command {
	var assistantVersion, service, serviceVersion, file string
	var expiry int

	cmd := &cobra.Command{
		Use:   "link",
		Short: "Print a temporary download link for an artifact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.artifactStore(nil).Validate(service, assistantVersion, serviceVersion); err != nil {
				return err
			}

			backend, err := a.newBackend(cmd.Context())
			if err != nil {
				return err
			}

			link, err := a.artifactStore(backend).GenerateDownloadLinkForFile(cmd.Context(), assistantVersion, service, serviceVersion, file, expiry)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.out, link.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&assistantVersion, "assistant-version", "", "assistant version (x.y.z)")
	cmd.Flags().StringVar(&service, "service", "", "service name")
	cmd.Flags().StringVar(&serviceVersion, "service-version", "", "service version (x.y.z)")
	cmd.Flags().StringVar(&file, "file", "", "leaf file name (default: the service name)")
	cmd.Flags().IntVar(&expiry, "expiry", 0, "link lifetime in seconds (0: seven days)")
	for _, f := range []string{"assistant-version", "service", "service-version"} {
		_ = cmd.MarkFlagRequired(f)
	}
	return cmd
}

func (a *app) historyCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List uploads recorded in the local ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.openLedger(true); err != nil {
				return err
			}
			defer a.closeLedger()

			records, err := a.artifactStore(nil).History(prefix)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tSIZE\tUPLOADED AT")
			for _, r := range records {
				fmt.Fprintf(w, "%s\t%d\t%s\n", r.Key, r.Size, r.UploadedAt.Format(time.RFC3339))
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&prefix, "prefix", "", "key prefix (default: every key under the root folder)")
	return cmd
}

func (a *app) serveCmd() *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve download links over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if listen == "" {
				listen = a.cfg.ListenAddr
			}

			backend, err := a.newBackend(ctx)
			if err != nil {
				return err
			}

			e := echo.New()
			e.HideBanner = true
			e.Use(logger.RequestLogger(a.logger))
			handler.Register(e, handler.NewLinkHandler(a.artifactStore(backend)))

			go func() {
				<-ctx.Done()
				a.logger.Info("shutting down gracefully")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = e.Shutdown(shutdownCtx)
			}()

			a.logger.Info("listening", slog.String("addr", listen))
			if err := e.Start(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config)")
	return cmd
}
