package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/LeonardoBeccarini/agri_advisor/internal/config"
	"github.com/LeonardoBeccarini/agri_advisor/internal/model"
	"github.com/LeonardoBeccarini/agri_advisor/internal/report"
	"github.com/LeonardoBeccarini/agri_advisor/internal/scoring"
	"github.com/LeonardoBeccarini/agri_advisor/internal/services/advisor"
	"github.com/LeonardoBeccarini/agri_advisor/internal/services/trainer"
	"github.com/LeonardoBeccarini/agri_advisor/pkg/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgFile string
	var v *viper.Viper
	root := &cobra.Command{
		Use:           "trainer",
		Short:         "Train the sustainability model and score observations from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if v, err = config.NewViper(cfgFile); err != nil {
				return err
			}
			logging.Setup(v.GetString("log.level"), v.GetString("log.format"))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional YAML config file")
	root.AddCommand(newTrainCmd(&v), newPredictCmd(&v))
	return root
}

func newTrainCmd(v **viper.Viper) *cobra.Command {
	opts := trainer.DefaultOptions()
	var dataset, out string
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Fit the random forest on the dataset and write the artifacts",
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.DatasetPath = firstSet(dataset, (*v).GetString("dataset.path"))
			opts.OutDir = firstSet(out, (*v).GetString("artifacts.dir"))
			m, err := trainer.Train(cmd.Context(), opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Model trained: %d trees, R2 %.4f, MSE %.4f, version %s\n",
				m.Trees, m.Metrics.R2, m.Metrics.MSE, m.ModelSHA256[:12])
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&dataset, "dataset", "", "TSV dataset (default dataset.path)")
	f.StringVar(&out, "out", "", "artifact directory (default artifacts.dir)")
	f.IntVar(&opts.Params.Trees, "trees", opts.Params.Trees, "number of trees")
	f.IntVar(&opts.Params.MaxDepth, "max-depth", opts.Params.MaxDepth, "maximum tree depth, 0 = unlimited")
	f.IntVar(&opts.Params.MaxFeatures, "max-features", opts.Params.MaxFeatures, "features tried per split, 0 = all")
	f.IntVar(&opts.Params.Workers, "workers", opts.Params.Workers, "parallel tree builders, 0 = GOMAXPROCS")
	f.Int64Var(&opts.Params.Seed, "seed", opts.Params.Seed, "forest random seed")
	f.Float64Var(&opts.TestFraction, "test-fraction", opts.TestFraction, "held-out share of rows")
	return cmd
}

func newPredictCmd(v **viper.Viper) *cobra.Command {
	obs := model.DefaultObservation("Wheat")
	obs.TemperatureC = 30
	obs.RainfallMM = 120
	var remote string
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Score one observation locally or against a running advisor",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var res struct {
				Score    float64
				Insights []string
			}
			if remote != "" {
				var err error
				if res.Score, res.Insights, err = predictRemote(cmd.Context(), remote, obs); err != nil {
					return err
				}
			} else {
				a, err := scoring.LoadArtifacts((*v).GetString("artifacts.dir"))
				if err != nil {
					return err
				}
				r, err := scoring.FromArtifacts(a).Score(obs)
				if err != nil {
					return err
				}
				res.Score, res.Insights = r.Score, r.Messages()
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Predicted Sustainability Score: %s\n", report.FormatScore(res.Score))
			for _, m := range res.Insights {
				fmt.Fprintf(out, "- %s\n", m)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Float64Var(&obs.SoilPH, "soil-ph", obs.SoilPH, "soil pH")
	f.Float64Var(&obs.SoilMoisture, "soil-moisture", obs.SoilMoisture, "soil moisture (%)")
	f.Float64Var(&obs.TemperatureC, "temperature", obs.TemperatureC, "temperature (°C)")
	f.Float64Var(&obs.RainfallMM, "rainfall", obs.RainfallMM, "rainfall (mm)")
	f.StringVar(&obs.CropType, "crop", obs.CropType, "crop type")
	f.Float64Var(&obs.FertilizerKg, "fertilizer", obs.FertilizerKg, "fertilizer usage (kg)")
	f.Float64Var(&obs.PesticideKg, "pesticide", obs.PesticideKg, "pesticide usage (kg)")
	f.Float64Var(&obs.CropYieldTon, "yield", obs.CropYieldTon, "crop yield (ton)")
	f.StringVar(&remote, "remote", "", "advisor gRPC address, e.g. localhost:50051")
	return cmd
}

func predictRemote(ctx context.Context, addr string, obs model.FarmObservation) (float64, []string, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return 0, nil, err
	}
	defer conn.Close()
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var resp struct {
		Score    float64         `json:"score"`
		Insights []model.Insight `json:"insights"`
	}
	if err := advisor.NewAdvisorClient(conn).Predict(ctx, obs, &resp); err != nil {
		return 0, nil, err
	}
	msgs := make([]string, len(resp.Insights))
	for i, in := range resp.Insights {
		msgs[i] = in.Message
	}
	log.Debug().Str("addr", addr).Msg("trainer: scored remotely")
	return resp.Score, msgs, nil
}

func firstSet(vals ...string) string {
	for _, s := range vals {
		if s != "" {
			return s
		}
	}
	return ""
}
