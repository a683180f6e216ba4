package main

import (
	"adicare.it/ace/api"
	"adicare.it/ace/batch"
	"adicare.it/ace/evaluate"
	"adicare.it/ace/llm"
	"adicare.it/ace/logger"
	"adicare.it/ace/pipeline"
	"adicare.it/ace/tasks"
	"adicare.it/ace/types"
	"adicare.it/ace/worker"
	"flag"
	"fmt"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"net/http"
	"os"
	"time"
)

type Config struct {
	RunConfigPath string `envconfig:"ACE_CONFIG_PATH" default:""`
	Strategy      string `envconfig:"ACE_STRATEGY" default:""`
	NotesDirPath  string `envconfig:"ACE_NOTES_DIR" default:"notes"`
	OutDirPath    string `envconfig:"ACE_OUT_DIR" default:"out"`
	GoldDirPath   string `envconfig:"ACE_GOLD_DIR" default:"gold"`
	ReportPath    string `envconfig:"ACE_REPORT_PATH" default:"evaluation_report.json"`
	RestAPIActive bool   `envconfig:"ACE_REST_API_ACTIVE" default:"false"`
	RestAPIPort   string `envconfig:"ACE_REST_API_PORT" default:"10000"`
}

const workerStartMaxRetries = 5

func main() {
	logger.SetupLogging()
	aceLogger := logger.NewLogger("Main")
	fatalErrLogger := aceLogger.Fatal().Caller()
	batchMode := flag.Bool("batch", false, "process the notes directory and exit")
	evaluateMode := flag.Bool("evaluate", false, "score extracted records against gold records and exit")
	flag.Parse()
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fatalErrLogger.Err(err).Msg("Failed to read environment")
		os.Exit(1)
	}

	// score an existing output directory, no pipeline needed
	if *evaluateMode {
		gold, err := batch.LoadRecords(config.GoldDirPath)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Failed to load gold records")
			os.Exit(1)
		}
		pred, err := batch.LoadRecords(config.OutDirPath)
		if err != nil {
			fatalErrLogger.Err(err).Msg("Failed to load extracted records")
			os.Exit(1)
		}
		report := evaluate.Evaluate(gold, pred)
		if err := batch.WriteReport(config.ReportPath, report); err != nil {
			fatalErrLogger.Err(err).Msg("Failed to write evaluation report")
			os.Exit(1)
		}
		aceLogger.Info().
			Int("n_records", report.Summary.NRecords).
			Interface("list_f1_macro", report.Summary.ListF1Macro).
			Str("report_path", config.ReportPath).
			Msg("Wrote evaluation report. Exit...")
		return
	}

	ppln, err := loadPipeline(config, aceLogger)
	if err != nil {
		fatalErrLogger.Err(err).Msg("Failed to start pipeline")
		os.Exit(1)
	}

	if *batchMode {
		if err := batch.ProcessDir(ppln, config.NotesDirPath, config.OutDirPath); err != nil {
			fatalErrLogger.Err(err).Msg("Batch run failed")
			os.Exit(1)
		}
		aceLogger.Info().Str("out_dir", config.OutDirPath).Msg("Batch run finished. Exit...")
		return
	}

	if config.RestAPIActive {
		go func() {
			aceLogger.Info().Msg("Starting API service")
			apiRequest := &api.Request{
				Pipeline: ppln,
			}
			http.HandleFunc("/", apiRequest.ProcessData)
			host := fmt.Sprintf(":%s", config.RestAPIPort)
			aceLogger.Info().Msgf("REST API on %s", host)
			err := http.ListenAndServe(host, nil)
			fatalErrLogger.Err(err).Msg("REST API stopped with error")
		}()
	}

	aceLogger.Info().Msg("Start ACE Worker")
	initFailures := 0
	for {
		rmqWorker, err := worker.New(ppln)
		if err != nil {
			initFailures++
			if initFailures >= workerStartMaxRetries {
				fatalErrLogger.Err(err).Msg("Could not start worker after 5 retries, exiting")
				os.Exit(1)
			}
			aceLogger.Err(err).Msg("Could not initialize RMQ worker. Retrying in 5 sec")
			time.Sleep(5 * time.Second)
			continue
		}
		initFailures = 0
		err = rmqWorker.StartWorker()
		if err != nil {
			aceLogger.Err(err).Msg("Worker returned with error. Launching new in 5 seconds")
			time.Sleep(5 * time.Second)
		}
	}
}

// loadPipeline builds the pipeline from the run configuration file, or from
// defaults when no file is configured. Model-backed strategies get a
// collaborator client, with the Redis response cache attached when reachable.
func loadPipeline(config Config, aceLogger zerolog.Logger) (*pipeline.Pipeline, error) {
	var runCfg types.RunConfig
	if config.RunConfigPath != "" {
		loaded, err := types.LoadRunConfig(config.RunConfigPath)
		if err != nil {
			return nil, err
		}
		runCfg = loaded
		aceLogger.Info().Str("config_path", config.RunConfigPath).Msg("Loaded run configuration")
	} else {
		runCfg.Strategy = config.Strategy
		runCfg.ApplyDefaults()
		if err := runCfg.Validate(); err != nil {
			return nil, err
		}
		aceLogger.Info().Str("strategy", runCfg.Strategy).Msg("No run configuration file, using environment")
	}

	var generator pipeline.Generator
	if runCfg.Strategy != types.StrategyRules {
		var client *llm.Client
		if config.RunConfigPath != "" {
			client = llm.NewClientFromRunConfig(runCfg)
		} else {
			envClient, err := llm.NewClient()
			if err != nil {
				return nil, err
			}
			client = envClient
		}
		if tasksClient, err := tasks.NewClient(); err != nil {
			aceLogger.Warn().Err(err).Msg("Response cache unavailable, model calls will not be memoized")
		} else {
			client = client.WithCache(tasksClient.Responses)
		}
		generator = client
	}
	return pipeline.New(runCfg, generator)
}
