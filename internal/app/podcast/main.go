package podcast

import (
	"github.com/commute-learn/podgo/internal/pkg/audio"
	"github.com/commute-learn/podgo/internal/pkg/clean"
	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/extractor"
	"github.com/commute-learn/podgo/internal/pkg/gemini"
	"github.com/commute-learn/podgo/internal/pkg/metadata"
	"github.com/commute-learn/podgo/internal/pkg/pipeline"
	"github.com/commute-learn/podgo/internal/pkg/registry"
	"github.com/commute-learn/podgo/internal/pkg/saver"
	"github.com/commute-learn/podgo/internal/pkg/scriptgen"
	"github.com/commute-learn/podgo/internal/pkg/status"
	"github.com/commute-learn/podgo/internal/pkg/synthesizer"
	"github.com/commute-learn/podgo/internal/pkg/ttsclient"
	"github.com/commute-learn/podgo/internal/pkg/utils"
	"github.com/commute-learn/podgo/internal/pkg/voices"
	"github.com/hashicorp/go-reap"
	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/commute-learn/podgo/internal/pkg/metrics"
)

var appName = "Notes Podcast Service"

var rootCmd = &cobra.Command{
	Use:   "podcastService",
	Short: appName,
	Long:  `HTTP server to turn uploaded study notes into a two voice Hinglish podcast`,
	Run:   run,
}

func init() {
	cmdapp.InitApplication(rootCmd)
	rootCmd.PersistentFlags().Int32P("port", "", 8000, "Default service port")
	cmdapp.Config.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
	cmdapp.Config.SetDefault("port", 8000)
	cmdapp.Config.SetDefault("fileStorage.uploads", "/data/uploads/")
	cmdapp.Config.SetDefault("fileStorage.outputs", "/data/outputs/")
	cmdapp.Config.SetDefault("fileStorage.metadata", "/data/metadata/")
	cmdapp.Config.SetDefault("gemini.url", "https://generativelanguage.googleapis.com/v1beta/models")
	cmdapp.Config.SetDefault("gemini.model", "gemini-2.0-flash")
	cmdapp.Config.SetDefault("clean.runEvery", "1h")
	cmdapp.Config.SetDefault("clean.expire", "720h")
}

// Execute starts the server
func Execute() {
	cmdapp.Execute(rootCmd)
}

func run(cmd *cobra.Command, args []string) {
	cmdapp.Log.Info("Starting " + appName)
	if reap.IsSupported() {
		reapChildren(nil)
	}
	var data ServiceData
	var err error
	data.health = healthcheck.NewHandler()

	data.UploadDir = cmdapp.Config.GetString("fileStorage.uploads")
	data.OutputDir = cmdapp.Config.GetString("fileStorage.outputs")
	fs, err := saver.NewLocalFileSaver(data.UploadDir)
	cmdapp.CheckOrPanic(err, "Can't init upload storage")
	data.FileSaver = fs
	data.health.AddLivenessCheck("uploads", fs.HealthyFunc())

	outSaver, err := saver.NewLocalFileSaver(data.OutputDir)
	cmdapp.CheckOrPanic(err, "Can't init output storage")
	data.health.AddLivenessCheck("outputs", outSaver.HealthyFunc())

	metaStore, err := metadata.NewFileStore(cmdapp.Config.GetString("fileStorage.metadata"))
	cmdapp.CheckOrPanic(err, "Can't init metadata storage")
	data.MetaStore = metaStore

	gURL := utils.URLJoin(cmdapp.Config.GetString("gemini.url"),
		cmdapp.Config.GetString("gemini.model")+":generateContent")
	gClient, err := gemini.NewClient(gURL, cmdapp.Config.GetString("gemini.key"))
	cmdapp.CheckOrPanic(err, "Can't init generation client")

	extr, err := extractor.NewClient(gClient)
	cmdapp.CheckOrPanic(err, "Can't init text extractor")

	var infoLoader scriptgen.InfoLoader
	if cmdapp.Config.GetString("voices.path") != "" {
		infoLoader, err = voices.NewFileInfoLoader(cmdapp.Config.GetString("voices.path"))
		cmdapp.CheckOrPanic(err, "Can't init voice info loader")
	}
	scrGen, err := scriptgen.NewGenerator(gClient, infoLoader)
	cmdapp.CheckOrPanic(err, "Can't init script generator")

	ttsC, err := ttsclient.NewClient(cmdapp.Config.GetString("tts.url"))
	cmdapp.CheckOrPanic(err, "Can't init TTS client")
	var fallbackTTS synthesizer.FallbackSynthesizer
	if cmdapp.Config.GetString("tts.fallbackUrl") != "" {
		fallbackTTS, err = ttsclient.NewFallback(cmdapp.Config.GetString("tts.fallbackUrl"))
		cmdapp.CheckOrPanic(err, "Can't init fallback TTS client")
	}

	voiceMap, err := voices.NewFileVoiceMap(cmdapp.Config.GetString("voices.path"))
	cmdapp.CheckOrPanic(err, "Can't init voice map")

	var encoder audio.Encoder
	if cmdapp.Config.GetString("encoder.cmd") != "" {
		encoder, err = audio.NewCommandEncoder(cmdapp.Config.GetString("encoder.cmd"))
		cmdapp.CheckOrPanic(err, "Can't init audio encoder")
	} else {
		cmdapp.Log.Warn("No encoder.cmd configured, writing plain WAV output")
		encoder = &audio.CopyEncoder{}
	}
	audioMaker, err := synthesizer.NewService(ttsC, fallbackTTS, voiceMap, encoder)
	cmdapp.CheckOrPanic(err, "Can't init synthesizer")

	data.Registry = registry.New()
	data.EventChan = make(chan status.JobRecord, 100)
	data.Registry.Listener = func(rec status.JobRecord) {
		select {
		case data.EventChan <- rec:
		default:
			cmdapp.Log.Warn("Job event dropped, channel full")
		}
	}

	audioExt := ".mp3"
	if _, ok := encoder.(*audio.CopyEncoder); ok {
		audioExt = ".wav"
	}
	runner, err := pipeline.NewRunner(pipeline.ServiceData{Extractor: extr, ScriptMaker: scrGen,
		AudioMaker: audioMaker, Registry: data.Registry, MetaSaver: metaStore,
		OutputDir: data.OutputDir, AudioExt: audioExt})
	cmdapp.CheckOrPanic(err, "Can't init pipeline")
	data.Runner = runner

	data.Cleaner, err = clean.NewCleaner(data.UploadDir, data.OutputDir, metaStore)
	cmdapp.CheckOrPanic(err, "Can't init cleaner")
	idsProvider, err := clean.NewExpiredIDsProvider(metaStore, cmdapp.Config.GetDuration("clean.expire"))
	cmdapp.CheckOrPanic(err, "Can't init expired IDs provider")
	timerData := clean.TimerData{RunEvery: cmdapp.Config.GetDuration("clean.runEvery"),
		Cleaner: data.Cleaner, IDsProvider: idsProvider}
	err = clean.StartCleanTimer(&timerData)
	cmdapp.CheckOrPanic(err, "Can't start clean timer")
	defer timerData.Stop()

	err = initMetrics(&data)
	cmdapp.CheckOrPanic(err, "Can't init metrics")
	data.Port = cmdapp.Config.GetInt("port")

	err = StartWebServer(&data)
	cmdapp.CheckOrPanic(err, "Can't start web server")
}

func initMetrics(data *ServiceData) error {
	namespace := "podcast_service"
	data.metrics.uploadResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "upload_request_durations_seconds",
			Help:      "Upload request latency distributions.",
		}, nil)
	err := metrics.Register(data.metrics.uploadResponseDur)
	if err != nil {
		return err
	}
	data.metrics.uploadRequestSize = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      "upload_request_size_bytes",
			Help:      "Upload request size in bytes."}, nil)
	err = metrics.Register(data.metrics.uploadRequestSize)
	if err != nil {
		return err
	}
	data.metrics.statusResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "status_request_durations_seconds",
			Help:      "Status request latency distributions.",
		}, nil)
	err = metrics.Register(data.metrics.statusResponseDur)
	if err != nil {
		return err
	}
	data.metrics.downloadResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_request_durations_seconds",
			Help:      "Download request latency distributions.",
		}, nil)
	err = metrics.Register(data.metrics.downloadResponseDur)
	if err != nil {
		return err
	}
	data.metrics.libraryResponseDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "library_request_durations_seconds",
			Help:      "Library request latency distributions.",
		}, nil)
	return metrics.Register(data.metrics.libraryResponseDur)
}
