package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/LeonardoBeccarini/agri_advisor/internal/config"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
	"github.com/LeonardoBeccarini/agri_advisor/internal/services/advisor"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/dedup"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/logging"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/rabbitmq"
)

func main() {
	var cfgFile string
	root := &cobra.Command{
		Use:           "advisor",
		Short:         "Sustainable agriculture advisor: HTTP, gRPC and MQTT scoring service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := config.NewViper(cfgFile)
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logging.Setup(cfg.LogLevel, cfg.LogFormat)
			return run(cmd.Context(), cfg)
		},
	}
	root.Flags().StringVar(&cfgFile, "config", "", "optional YAML config file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("advisor-svc: fatal")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// === Artifacts ===
	arts, err := scoring.LoadArtifacts(cfg.ArtifactsDir)
	if err != nil {
		return err
	}
	pipeline := scoring.FromArtifacts(arts)
	log.Info().
		Str("dir", cfg.ArtifactsDir).
		Str("version", pipeline.Version()).
		Int("trees", arts.Manifest.Trees).
		Strs("crops", pipeline.Crops()).
		Float64("r2", arts.Manifest.Metrics.R2).
		Msg("advisor-svc: model loaded")

	metrics := advisor.NewMetrics()
	var sinks []advisor.Sink
	var ready []advisor.ReadinessCheck

	// === InfluxDB ===
	if cfg.Influx.Enabled {
		opts := influxdb2.DefaultOptions().
			SetBatchSize(uint(cfg.Influx.BatchSize)).
			SetFlushInterval(uint(cfg.Influx.FlushInterval.Milliseconds()))
		influx := influxdb2.NewClientWithOptions(cfg.Influx.URL, cfg.Influx.Token, opts)
		defer influx.Close()
		writeAPI := influx.WriteAPI(cfg.Influx.Org, cfg.Influx.Bucket)
		defer writeAPI.Flush()
		influxSink := advisor.NewInfluxSink(writeAPI, cfg.Influx.Measurement)
		sinks = append(sinks, advisor.WithBreaker(influxSink, cfg.BreakerTimeout))
		ready = append(ready, advisor.ReadinessCheck{Name: "influx", Check: influxSink.Healthy})
		log.Info().Str("url", cfg.Influx.URL).Str("bucket", cfg.Influx.Bucket).Msg("advisor-svc: influx sink enabled")
	}

	// === MQTT (sink) ===
	var mqttClient mqtt.Client
	if cfg.MQTTEnabled {
		mqttClient, err = rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit)
		if err != nil {
			return err
		}
		defer rabbitmq.CloseRabbitMQConn(mqttClient)
		sinks = append(sinks, advisor.WithBreaker(
			advisor.NewMQTTSink(rabbitmq.NewPublisher(mqttClient, 5*time.Second), cfg.EventTopicPrefix),
			cfg.BreakerTimeout))
		ready = append(ready, advisor.ReadinessCheck{Name: "mqtt", Check: func() error {
			if !mqttClient.IsConnectionOpen() {
				return errors.New("not connected")
			}
			return nil
		}})
	}

	svc := advisor.NewService(pipeline, metrics, sinks...)
	api := advisor.NewAPI(svc, metrics, advisor.RouterOptions{
		RequestTimeout: cfg.RequestTimeout,
		Readiness:      ready,
	})

	var wg sync.WaitGroup
	errCh := make(chan error, 3)

	// === HTTP ===
	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           api.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("advisor-svc: HTTP listening")
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	// === gRPC ===
	var gs *grpc.Server
	if cfg.GRPCPort > 0 {
		lis, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.GRPCPort))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		gs = grpc.NewServer()
		advisor.RegisterAdvisorServer(gs, advisor.NewGrpcHandler(api))
		go func() {
			log.Info().Int("port", cfg.GRPCPort).Msg("advisor-svc: gRPC listening")
			if err := gs.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	// === Consumer ===
	if mqttClient != nil {
		ingestor := advisor.NewIngestor(svc, dedup.New(cfg.DedupTTL, cfg.DedupMax), metrics)
		consumer := rabbitmq.NewMultiConsumer(mqttClient, cfg.IngestTopics, ingestor.Handle)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.ConsumeMessage(ctx); err != nil {
				errCh <- fmt.Errorf("mqtt consumer: %w", err)
			}
		}()
	}

	// === Wait for signal ===
	var runErr error
	select {
	case <-ctx.Done():
		log.Info().Msg("advisor-svc: shutting down...")
	case runErr = <-errCh:
		log.Error().Err(runErr).Msg("advisor-svc: component failed, shutting down")
	}

	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.ReadinessGrace)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
	if gs != nil {
		gs.GracefulStop()
	}
	cancel()
	wg.Wait()
	return runErr
}
