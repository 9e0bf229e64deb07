package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"survey-stats/internal/analysis"
	"survey-stats/internal/config"
	"survey-stats/internal/models"
	"survey-stats/internal/service"
	"survey-stats/internal/state"
)

const (
	MaxFileSize  = 100 * 1024 * 1024 // 100MB
	PreviewLimit = 20
)

type Handler struct {
	Hypotheses *service.HypothesisService
	Profiler   *analysis.Profiler
	State      *state.AppState
	Logger     *zap.Logger
	MaxUpload  int64
	TableLimit int

	mu        sync.Mutex
	CurrentDB analysis.DataSource // Active DB connection
	NewSource func() analysis.DataSource
}

func NewHandler(cfg *config.Config, hyp *service.HypothesisService, st *state.AppState, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	maxUpload := cfg.Server.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = MaxFileSize
	}
	return &Handler{
		Hypotheses: hyp,
		Profiler:   analysis.NewProfiler(),
		State:      st,
		Logger:     logger,
		MaxUpload:  maxUpload,
		TableLimit: cfg.Data.Postgres.Limit,
		NewSource: func() analysis.DataSource {
			return analysis.NewPostgresSource(nil)
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dataset", h.GetDataset)
		r.Post("/dataset", h.Upload)
		r.Get("/preview", h.GetPreview)
		r.Get("/profile", h.GetProfile)

		r.Get("/reports/h1", h.GetH1Report)
		r.Get("/reports/h2", h.GetH2Report)

		// DB Routes
		r.Post("/db/connect", h.ConnectDB)
		r.Get("/db/tables", h.ListTables)
		r.Post("/db/load", h.LoadTable)
	})
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Dataset
// ============================================================================

// GetDataset describes the dataset currently loaded.
func (h *Handler) GetDataset(w http.ResponseWriter, r *http.Request) {
	df := h.State.GetDataFrame()
	resp := models.DatasetStatus{Loaded: df != nil}
	if df != nil {
		resp.Rows = df.NumRows()
		resp.Columns = len(df.Headers)
		resp.Filename = df.FileName
		resp.Sheet = df.Sheet
		resp.LoadedAt = h.State.LoadedAt()
	}
	writeJSON(w, http.StatusOK, resp)
}

// Upload replaces the dataset with an uploaded xlsx or csv file.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUpload)
	if err := r.ParseMultipartForm(h.MaxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "File too large or malformed form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	// Empty sheet means the first one in the workbook.
	df, err := analysis.LoadReader(file, header.Filename, r.FormValue("sheet"))
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, analysis.ErrUnsupportedFormat) {
			status = http.StatusUnsupportedMediaType
		}
		writeError(w, status, fmt.Sprintf("Failed to parse file: %v", err))
		return
	}

	h.State.SetDataFrame(df)
	h.Logger.Info("dataset uploaded",
		zap.String("file", header.Filename),
		zap.Int("rows", df.NumRows()),
		zap.Int("columns", len(df.Headers)))

	writeJSON(w, http.StatusOK, uploadResponse(df, fmt.Sprintf("File '%s' uploaded successfully", header.Filename)))
}

// GetPreview returns the first rows keyed by header.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	df, ok := h.requireDataset(w)
	if !ok {
		return
	}

	limit := getIntParam(r, "limit", PreviewLimit)
	if limit < 0 {
		limit = 0
	}
	if limit > df.NumRows() {
		limit = df.NumRows()
	}

	data := make([]map[string]string, limit)
	for i := 0; i < limit; i++ {
		row := make(map[string]string, len(df.Headers))
		for j, header := range df.Headers {
			row[header] = df.Cell(i, j)
		}
		data[i] = row
	}
	writeJSON(w, http.StatusOK, models.PreviewResponse{Rows: df.NumRows(), Headers: df.Headers, Data: data})
}

// GetProfile returns per-column quality metrics and index membership.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	df, ok := h.requireDataset(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.Profiler.Profile(df))
}

// ============================================================================
// Reports
// ============================================================================

func (h *Handler) GetH1Report(w http.ResponseWriter, r *http.Request) {
	df, ok := h.requireDataset(w)
	if !ok {
		return
	}
	report, err := h.Hypotheses.RunH1(df)
	if err != nil {
		h.writeBatteryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) GetH2Report(w http.ResponseWriter, r *http.Request) {
	df, ok := h.requireDataset(w)
	if !ok {
		return
	}
	report, err := h.Hypotheses.RunH2(df)
	if err != nil {
		h.writeBatteryError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) writeBatteryError(w http.ResponseWriter, err error) {
	var missing *service.MissingColumnError
	if errors.As(err, &missing) {
		writeJSON(w, http.StatusUnprocessableEntity, models.ErrorResponse{
			Error:       err.Error(),
			Suggestions: missing.Suggestions,
		})
		return
	}
	h.Logger.Error("battery failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}

// ============================================================================
// Database
// ============================================================================

// ConnectDB establishes a database connection
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var req models.DBConnectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	ds := h.NewSource()
	cfg := config.PostgresConfig{
		Host:     req.Host,
		Port:     req.Port,
		User:     req.User,
		Password: req.Password,
		DBName:   req.DBName,
		SSLMode:  req.SSLMode,
	}
	if err := ds.Connect(r.Context(), cfg); err != nil {
		writeError(w, http.StatusBadGateway, fmt.Sprintf("Failed to connect: %v", err))
		return
	}

	h.mu.Lock()
	// Close previous if exists
	if h.CurrentDB != nil {
		h.CurrentDB.Close()
	}
	h.CurrentDB = ds
	h.mu.Unlock()

	h.Logger.Info("database connected", zap.String("host", req.Host), zap.String("dbname", req.DBName))
	writeJSON(w, http.StatusOK, map[string]string{"status": "connected"})
}

// ListTables returns tables from connected DB
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	ds := h.currentDB()
	if ds == nil {
		writeError(w, http.StatusBadRequest, "No database connection")
		return
	}

	tables, err := ds.ListTables(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error listing tables: %v", err))
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tables": tables})
}

// LoadTable replaces the dataset with the rows of a database table.
func (h *Handler) LoadTable(w http.ResponseWriter, r *http.Request) {
	ds := h.currentDB()
	if ds == nil {
		writeError(w, http.StatusBadRequest, "No database connection")
		return
	}

	var req models.DBLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = h.TableLimit
	}

	df, err := ds.LoadTable(r.Context(), req.TableName, limit)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, analysis.ErrUnknownTable) {
			status = http.StatusNotFound
		}
		writeError(w, status, fmt.Sprintf("Error fetching data: %v", err))
		return
	}
	if df.NumRows() == 0 {
		writeError(w, http.StatusBadRequest, "Table is empty")
		return
	}

	h.State.SetDataFrame(df)
	h.Logger.Info("dataset loaded from table", zap.String("table", req.TableName), zap.Int("rows", df.NumRows()))
	writeJSON(w, http.StatusOK, uploadResponse(df, fmt.Sprintf("Table '%s' loaded successfully", req.TableName)))
}

// Close releases the active database connection.
func (h *Handler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.CurrentDB == nil {
		return nil
	}
	err := h.CurrentDB.Close()
	h.CurrentDB = nil
	return err
}

func (h *Handler) currentDB() analysis.DataSource {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.CurrentDB
}

// ============================================================================
// Helpers
// ============================================================================

func (h *Handler) requireDataset(w http.ResponseWriter) (*state.DataFrame, bool) {
	df := h.State.GetDataFrame()
	if df == nil {
		writeError(w, http.StatusConflict, "No dataset loaded")
		return nil, false
	}
	return df, true
}

func uploadResponse(df *state.DataFrame, msg string) models.UploadResponse {
	return models.UploadResponse{
		Message:     msg,
		Rows:        df.NumRows(),
		Columns:     len(df.Headers),
		ColumnNames: df.Headers,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}
