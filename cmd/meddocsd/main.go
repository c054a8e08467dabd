package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/plivedi/meddocs/constants"
	"github.com/plivedi/meddocs/internal/acquire"
	"github.com/plivedi/meddocs/internal/common"
	"github.com/plivedi/meddocs/internal/document"
	processor "github.com/plivedi/meddocs/internal/pipeline"
	"github.com/plivedi/meddocs/internal/server"
)

func main() {
	root := &cobra.Command{
		Use:           "meddocsd",
		Short:         "Structured extraction pipelines for medical documents",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), processCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildProcessor(cfg *common.Config) (*processor.Processor, error) {
	loc, err := time.LoadLocation(cfg.Pipeline.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Pipeline.Timezone, err)
	}
	return processor.New(loc, nil, slog.Default()), nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, _ := zap.NewProduction()
			defer logger.Sync()
			log := logger.Sugar()

			cfg := common.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}

			proc, err := buildProcessor(cfg)
			if err != nil {
				return err
			}
			extractor := acquire.NewExtractor(cfg.OCR, slog.Default())
			srv := server.New(proc, extractor, logger)

			httpSrv := &http.Server{
				Addr:    cfg.Server.Addr,
				Handler: srv.Router(),
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				log.Infof("serving on %s", cfg.Server.Addr)
				if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			log.Info("shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return httpSrv.Shutdown(shutdownCtx)
		},
	}
}

func processCmd() *cobra.Command {
	var (
		problemID int
		text      string
		filePath  string
		debug     bool
	)
	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run one pipeline locally and print the result as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			problem, err := constants.ParseProblem(problemID)
			if err != nil {
				return err
			}
			if (text == "") == (filePath == "") {
				return fmt.Errorf("exactly one of --text or --file is required")
			}

			cfg := common.LoadConfig()
			if err := cfg.Validate(); err != nil {
				return err
			}
			proc, err := buildProcessor(cfg)
			if err != nil {
				return err
			}

			var doc document.Raw
			if text != "" {
				doc = acquire.FromText(text)
			} else {
				extractor := acquire.NewExtractor(cfg.OCR, slog.Default())
				doc, err = extractor.Extract(cmd.Context(), filePath)
				if err != nil {
					return err
				}
			}

			res, err := proc.Run(cmd.Context(), problem, doc, debug)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(res, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
	cmd.Flags().IntVarP(&problemID, "problem", "p", 0, "problem id (1-4)")
	cmd.Flags().StringVarP(&text, "text", "t", "", "raw input text")
	cmd.Flags().StringVarP(&filePath, "file", "f", "", "path to a document to run through text acquisition")
	cmd.Flags().BoolVar(&debug, "debug", false, "include intermediate stage output")
	_ = cmd.MarkFlagRequired("problem")
	return cmd
}
