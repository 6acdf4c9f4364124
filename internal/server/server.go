// Package server exposes the newsvendor simulation over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/iwvelando/newsvendor/internal/config"
	"github.com/iwvelando/newsvendor/internal/simulation"
	"github.com/iwvelando/newsvendor/pkg/constants"
	"github.com/iwvelando/newsvendor/pkg/costing"
	"github.com/iwvelando/newsvendor/pkg/demand"
	"github.com/iwvelando/newsvendor/pkg/diagnostics"
	"github.com/iwvelando/newsvendor/pkg/optimization"
	"github.com/iwvelando/newsvendor/pkg/output"
	"github.com/iwvelando/newsvendor/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Options configures the HTTP handler. Zero limits fall back to
// constants.ServerMaxSimulations and constants.ServerMaxCandidates.
type Options struct {
	MaxUploadSize  int64
	Version        string
	AllowedOrigins []string
	Limits         config.Limits
}

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	limits        config.Limits
}

type evaluateOptions struct {
	Refine bool
}

// NewHandler constructs the HTTP handler that serves the simulation API.
func NewHandler(logger *zap.Logger, opts Options) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxUploadSize := opts.MaxUploadSize
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = "dev"
	}

	limits := opts.Limits
	if limits.MaxSimulations <= 0 {
		limits.MaxSimulations = constants.ServerMaxSimulations
	}
	if limits.MaxCandidates <= 0 {
		limits.MaxCandidates = constants.ServerMaxCandidates
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: version, limits: limits}

	router := mux.NewRouter()
	router.Use(h.logRequests)

	api := router.PathPrefix("/api").Subrouter()
	// Simulation endpoint (file upload)
	api.HandleFunc("/evaluate", h.handleEvaluate).Methods(http.MethodPost)
	// Simulation endpoint for editor-driven updates
	api.HandleFunc("/editor/evaluate", h.handleEvaluateEditor).Methods(http.MethodPost)
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	var root http.Handler = router
	if len(opts.AllowedOrigins) > 0 {
		root = handlers.CORS(
			handlers.AllowedOrigins(opts.AllowedOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type"}),
		)(root)
	}

	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(logger)),
		handlers.PrintRecoveryStack(false),
	)(root)
}

type evaluateResponse struct {
	RunID        string                    `json:"runId"`
	Seed         int64                     `json:"seed"`
	Simulations  int                       `json:"simulations"`
	Results      []resultRow               `json:"results"`
	Optimum      optimization.Result       `json:"optimum"`
	Distribution []demand.Point            `json:"distribution"`
	Diagnostic   diagnostics.Diagnostic    `json:"diagnostic"`
	CrossCheck   diagnostics.CriticalCheck `json:"crossCheck"`
	Refinement   *optimization.Summary     `json:"refinement,omitempty"`
	CSV          string                    `json:"csv"`
	Warnings     []string                  `json:"warnings,omitempty"`
	Duration     string                    `json:"duration"`
	Config       map[string]interface{}    `json:"config,omitempty"`
	ConfigYAML   string                    `json:"configYaml,omitempty"`
}

type resultRow struct {
	costing.Result
	ExpectedProfit      float64 `json:"expectedProfit"`
	StockoutProbability float64 `json:"stockoutProbability"`
	Optimal             bool    `json:"optimal"`
}

func (h *handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluate"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	configBytes := buf.Bytes()
	configMap, err := decodeYAMLToMap(configBytes)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("error reading config data, %v", err), op)
		return
	}

	h.runSimulation(w, configBytes, configMap, start, op, evaluateOptions{})
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleEvaluateEditor(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleEvaluateEditor"
	start := time.Now()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), op)
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	configPayload := payload
	if rawConfig, ok := payload["config"]; ok {
		cfgMap, ok := rawConfig.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid config payload: expected object", op)
			return
		}
		configPayload = cfgMap
	}

	options := evaluateOptions{}
	if rawOptions, ok := payload["options"]; ok {
		optsMap, ok := rawOptions.(map[string]interface{})
		if !ok {
			h.respondErrorWithOp(w, http.StatusBadRequest, "invalid options payload: expected object", op)
			return
		}
		if refineVal, ok := optsMap["refine"]; ok {
			options.Refine = coerceBool(refineVal)
		}
	}
	if _, wrapped := payload["config"]; !wrapped {
		delete(configPayload, "options")
	}

	configBytes, err := yaml.Marshal(configPayload)
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), op)
		return
	}

	h.runSimulation(w, configBytes, configPayload, start, op, options)
}

func (h *handler) runSimulation(w http.ResponseWriter, configBytes []byte, configMap map[string]interface{}, start time.Time, op string, opts evaluateOptions) {
	runID := uuid.NewString()
	logger := h.logger.With(zap.String("runId", runID))

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if err := cfg.CheckLimits(h.limits); err != nil {
		h.respondErrorWithOp(w, http.StatusBadRequest, err.Error(), op)
		return
	}

	if opts.Refine && !cfg.Refinement.Active() {
		cfg.Refinement = &config.RefinementConfig{Enabled: true}
		cfg.Refinement.Normalize()
	}

	report, err := simulation.Run(logger, *cfg)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, validation.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.respondErrorWithOp(w, status, err.Error(), op)
		return
	}

	elapsed := time.Since(start)

	if configMap == nil {
		configMap = make(map[string]interface{})
	}

	response := evaluateResponse{
		RunID:        runID,
		Seed:         report.Seed,
		Simulations:  report.Simulations,
		Results:      buildRows(report),
		Optimum:      report.Optimum,
		Distribution: report.Distribution.Points,
		Diagnostic:   report.Diagnostic,
		CrossCheck:   report.CrossCheck,
		Refinement:   report.Refinement,
		CSV:          output.CsvString(report),
		Warnings:     report.Warnings,
		Duration:     elapsed.String(),
		Config:       configMap,
		ConfigYAML:   string(configBytes),
	}

	logger.Info("simulation computed",
		zap.String("op", op),
		zap.Int64("seed", report.Seed),
		zap.Int("candidates", len(report.Results)),
		zap.Int("optimalQuantity", report.Optimum.OptimalQuantity),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func buildRows(report *simulation.Report) []resultRow {
	rows := make([]resultRow, 0, len(report.Results))
	for i, r := range report.Results {
		rows = append(rows, resultRow{
			Result:              r,
			ExpectedProfit:      r.ExpectedProfit(),
			StockoutProbability: r.StockoutProbability(),
			Optimal:             i == report.Optimum.Index,
		})
	}
	return rows
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		h.logger.Debug("request served",
			zap.String("op", "server.logRequests"),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func decodeYAMLToMap(data []byte) (map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return make(map[string]interface{}), nil
	}

	var result map[string]interface{}
	if err := yaml.Unmarshal(trimmed, &result); err != nil {
		return nil, err
	}
	if result == nil {
		result = make(map[string]interface{})
	}
	return result, nil
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, status int, msg string, op string) {
	h.logger.Error("simulation request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

func coerceBool(value interface{}) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		if parsed, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	case float64:
		return v != 0
	case int:
		return v != 0
	case json.Number:
		if parsed, err := strconv.ParseFloat(v.String(), 64); err == nil {
			return parsed != 0
		}
	}
	return false
}
