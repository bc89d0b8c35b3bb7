package podcast

import (
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/commute-learn/podgo/internal/pkg/clean"
	"github.com/commute-learn/podgo/internal/pkg/cmdapp"
	"github.com/commute-learn/podgo/internal/pkg/metadata"
	"github.com/commute-learn/podgo/internal/pkg/registry"
	"github.com/commute-learn/podgo/internal/pkg/status"
	"github.com/facebookgo/grace/gracehttp"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/heptiolabs/healthcheck"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type serviceMetric struct {
	uploadResponseDur   prometheus.ObserverVec
	uploadRequestSize   prometheus.ObserverVec
	statusResponseDur   prometheus.ObserverVec
	downloadResponseDur prometheus.ObserverVec
	libraryResponseDur  prometheus.ObserverVec
}

// FileSaver saves the uploaded file
type FileSaver interface {
	Save(name string, reader io.Reader) error
}

// JobRunner processes an uploaded job
type JobRunner interface {
	Run(id string)
}

// MetadataStore reads and lists stored podcast records
type MetadataStore interface {
	Get(id string) (*metadata.PodcastMetadata, error)
	List() ([]metadata.PodcastMetadata, error)
}

// ServiceData keeps data required for service work
type ServiceData struct {
	FileSaver FileSaver
	Runner    JobRunner
	Registry  *registry.Registry
	MetaStore MetadataStore
	Cleaner   clean.Cleaner

	UploadDir string
	OutputDir string
	EventChan chan status.JobRecord

	Port    int
	health  healthcheck.Handler
	metrics serviceMetric
}

// UploadResult - upload method response in JSON
type UploadResult struct {
	ID      string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// LibraryResult - library method response in JSON
type LibraryResult struct {
	Podcasts []metadata.PodcastMetadata `json:"podcasts"`
	Total    int                        `json:"total"`
}

// DeleteResult - delete method response in JSON
type DeleteResult struct {
	ID      string `json:"job_id"`
	Deleted bool   `json:"deleted"`
}

// StartWebServer starts the HTTP service and listens for the requests
func StartWebServer(data *ServiceData) error {
	cmdapp.Log.Infof("Starting HTTP service at %d", data.Port)
	if data.EventChan != nil {
		go listenEvents(data.EventChan)
	}
	r := NewRouter(data)

	portStr := strconv.Itoa(data.Port)
	srv := http.Server{
		Addr:              ":" + portStr,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       180 * time.Second,
		Handler:           r,
	}

	w := cmdapp.Log.Writer()
	defer w.Close()
	l := log.New(w, "", 0)
	gracehttp.SetLogger(l)

	return gracehttp.Serve(&srv)
}

// NewRouter creates the router for HTTP service
func NewRouter(data *ServiceData) *mux.Router {
	router := mux.NewRouter().StrictSlash(true)
	uh := promhttp.InstrumentHandlerDuration(data.metrics.uploadResponseDur,
		promhttp.InstrumentHandlerRequestSize(data.metrics.uploadRequestSize, uploadHandler{data: data}))
	sh := promhttp.InstrumentHandlerDuration(data.metrics.statusResponseDur, statusHandler{data: data})
	dh := promhttp.InstrumentHandlerDuration(data.metrics.downloadResponseDur, downloadHandler{data: data})
	lh := promhttp.InstrumentHandlerDuration(data.metrics.libraryResponseDur, libraryHandler{data: data})
	router.Methods("POST").Path("/api/upload").Handler(uh)
	router.Methods("GET").Path("/api/status/{id}").Handler(sh)
	router.Methods("GET").Path("/api/download/{id}").Handler(dh)
	router.Methods("GET").Path("/api/library").Handler(lh)
	router.Methods("GET").Path("/api/podcast/{id}").Handler(podcastHandler{data: data})
	router.Methods("DELETE").Path("/api/podcast/{id}").Handler(deleteHandler{data: data})
	router.Handle("/subscribe", websocketHandler{data: data})
	router.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	if data.health != nil {
		router.Methods("GET").Path("/live").HandlerFunc(data.health.LiveEndpoint)
		router.Methods("GET").Path("/ready").HandlerFunc(data.health.ReadyEndpoint)
	}
	return router
}

type uploadHandler struct {
	data *ServiceData
}

func (h uploadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("Saving file from %s", r.Host)

	err := r.ParseMultipartForm(32 << 20)
	if err != nil {
		http.Error(w, "Can't parse MultipartForm", http.StatusBadRequest)
		cmdapp.Log.Error(errors.Wrap(err, "Can't parse MultipartForm"))
		return
	}
	defer cleanFiles(r.MultipartForm)

	file, handler, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file", http.StatusBadRequest)
		cmdapp.Log.Error(err)
		return
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(handler.Filename))
	if !checkFileExtension(ext) {
		http.Error(w, "Wrong file extension: "+ext, http.StatusBadRequest)
		cmdapp.Log.Errorf("Wrong file extension: %s", ext)
		return
	}

	id := uuid.New().String()[:8]
	fileName := id + ext
	err = h.data.FileSaver.Save(fileName, file)
	if err != nil {
		http.Error(w, "Can not save file", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}

	rec := status.JobRecord{ID: id, Status: status.Uploaded, Stage: status.StageUpload,
		Progress: status.Progress(status.StageUpload), Message: "File uploaded",
		Subject: r.FormValue("subject"), Chapter: r.FormValue("chapter"),
		OriginalFile: handler.Filename, SourceFile: filepath.Join(h.data.UploadDir, fileName),
		CreatedAt: time.Now()}
	h.data.Registry.Add(rec)
	go h.data.Runner.Run(id)

	writeJSON(w, UploadResult{ID: id, Status: string(status.Uploaded),
		Message: "Processing started. Poll /api/status/" + id})
}

type statusHandler struct {
	data *ServiceData
}

func (h statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	rec, found := h.data.Registry.Get(id)
	if !found {
		http.Error(w, "Unknown job: "+id, http.StatusNotFound)
		cmdapp.Log.Errorf("Unknown job: %s", id)
		return
	}
	writeJSON(w, rec)
}

type downloadHandler struct {
	data *ServiceData
}

func (h downloadHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cmdapp.Log.Infof("File load request from %s", r.Host)
	id := mux.Vars(r)["id"]

	audioFile := ""
	rec, found := h.data.Registry.Get(id)
	if found {
		if rec.Status != status.Completed {
			http.Error(w, "Podcast not ready: "+id, http.StatusBadRequest)
			cmdapp.Log.Errorf("Podcast not ready: %s", id)
			return
		}
		audioFile = rec.AudioFile
	} else {
		// jobs are in memory only, finished podcasts survive restarts
		meta, err := h.data.MetaStore.Get(id)
		if err != nil {
			http.Error(w, "Unknown podcast: "+id, http.StatusNotFound)
			cmdapp.Log.Error(err)
			return
		}
		audioFile = meta.AudioFile
	}

	fPath := filepath.Join(h.data.OutputDir, audioFile)
	if _, err := os.Stat(fPath); err != nil {
		http.Error(w, "No audio file", http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	w.Header().Set("Content-Disposition", "attachment; filename="+audioFile)
	http.ServeFile(w, r, fPath)
}

type libraryHandler struct {
	data *ServiceData
}

func (h libraryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	podcasts, err := h.data.MetaStore.List()
	if err != nil {
		http.Error(w, "Can not list podcasts", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	writeJSON(w, LibraryResult{Podcasts: podcasts, Total: len(podcasts)})
}

type podcastHandler struct {
	data *ServiceData
}

func (h podcastHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	meta, err := h.data.MetaStore.Get(id)
	if err != nil {
		http.Error(w, "Unknown podcast: "+id, http.StatusNotFound)
		cmdapp.Log.Error(err)
		return
	}
	writeJSON(w, meta)
}

type deleteHandler struct {
	data *ServiceData
}

func (h deleteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	cmdapp.Log.Infof("Delete request for %s", id)
	_, inRegistry := h.data.Registry.Get(id)
	if !inRegistry {
		if _, err := h.data.MetaStore.Get(id); err != nil {
			http.Error(w, "Unknown podcast: "+id, http.StatusNotFound)
			cmdapp.Log.Error(err)
			return
		}
	}
	err := h.data.Cleaner.Clean(id)
	if err != nil {
		http.Error(w, "Delete failed", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
		return
	}
	// does not stop a running job, its record just goes away
	h.data.Registry.Delete(id)
	writeJSON(w, DeleteResult{ID: id, Deleted: true})
}

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	encoder := json.NewEncoder(w)
	err := encoder.Encode(data)
	if err != nil {
		http.Error(w, "Can not prepare result", http.StatusInternalServerError)
		cmdapp.Log.Error(err)
	}
}

func cleanFiles(f *multipart.Form) {
	if f != nil {
		f.RemoveAll()
	}
}

func checkFileExtension(ext string) bool {
	return ext == ".pdf" || ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".webp"
}
