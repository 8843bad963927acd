package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/LexiconIndonesia/data-miner-service/common/config"
	"github.com/LexiconIndonesia/data-miner-service/common/db"
	"github.com/LexiconIndonesia/data-miner-service/common/messaging"
	"github.com/LexiconIndonesia/data-miner-service/common/models"
	"github.com/LexiconIndonesia/data-miner-service/common/utils"
	"github.com/LexiconIndonesia/data-miner-service/common/work"
	"github.com/LexiconIndonesia/data-miner-service/repository"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

type JobHandler struct {
	db       *db.DB
	nats     *messaging.NatsClient
	cfg      config.Config
	jobs     *work.JobManager
	validate *validator.Validate
	router   *chi.Mux
}

func NewJobHandler(dbConn *db.DB, natsClient *messaging.NatsClient, cfg config.Config) *JobHandler {
	h := &JobHandler{
		db:       dbConn,
		nats:     natsClient,
		cfg:      cfg,
		jobs:     work.NewJobManager(dbConn),
		validate: validator.New(),
	}

	r := chi.NewRouter()
	r.Post("/", h.handleCreate)
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/status", h.handleStatus)
	r.Post("/{id}/cancel", h.handleCancel)
	r.Delete("/{id}", h.handleDelete)

	h.router = r
	return h
}

func (h *JobHandler) Router() *chi.Mux {
	return h.router
}

type jobResponse struct {
	repository.MiningJob
	Live *models.StatusDoc `json:"live,omitempty"`
}

func (h *JobHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req models.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID := strings.TrimSpace(r.Header.Get("X-API-USER"))
	if userID == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing X-API-USER header")
		return
	}

	id, err := uuid.NewV7()
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "could not generate job id")
		return
	}

	row, err := h.db.Queries.CreateMiningJob(r.Context(), repository.CreateMiningJobParams{
		ID:       id.String(),
		UserID:   userID,
		Keyword:  strings.TrimSpace(req.Keyword),
		Country:  strings.ToLower(strings.TrimSpace(req.Country)),
		DataKind: req.DataKind,
		Quota:    int32(req.Quota),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to create mining job")
		utils.WriteError(w, http.StatusInternalServerError, "could not create job")
		return
	}

	if err := h.nats.PublishJobRun(row.ID); err != nil {
		log.Error().Err(err).Str("jobID", row.ID).Msg("failed to dispatch mining job")
		// Row stays in pending; reconciliation will re-dispatch it.
	}

	utils.WriteJSON(w, http.StatusCreated, jobResponse{MiningJob: row})
}

func (h *JobHandler) handleList(w http.ResponseWriter, r *http.Request) {
	userID := strings.TrimSpace(r.Header.Get("X-API-USER"))
	if userID == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing X-API-USER header")
		return
	}

	page := queryInt(r, "page", 1)
	perPage := queryInt(r, "per_page", 20)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	rows, err := h.db.Queries.ListMiningJobsByUser(r.Context(), repository.ListMiningJobsByUserParams{
		UserID: userID,
		Limit:  int32(perPage),
		Offset: int32((page - 1) * perPage),
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to list mining jobs")
		utils.WriteError(w, http.StatusInternalServerError, "could not list jobs")
		return
	}

	utils.WriteJSON(w, http.StatusOK, rows)
}

func (h *JobHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	row, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	resp := jobResponse{MiningJob: row}
	if !models.JobStatus(row.Status).Terminal() && h.db.Redis != nil {
		if doc, err := h.db.Redis.GetJobStatus(r.Context(), row.ID); err == nil {
			resp.Live = doc
		}
	}

	utils.WriteJSON(w, http.StatusOK, resp)
}

// handleStatus returns just the live progress document, falling back to the
// DB row when none is published.
func (h *JobHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	row, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	if h.db.Redis != nil {
		if doc, err := h.db.Redis.GetJobStatus(r.Context(), row.ID); err == nil {
			utils.WriteJSON(w, http.StatusOK, doc)
			return
		}
	}

	doc := &models.StatusDoc{
		JobID:         row.ID,
		Status:        models.JobStatus(row.Status),
		Keyword:       row.Keyword,
		DataKind:      models.DataKind(row.DataKind),
		Country:       row.Country,
		Quota:         int(row.Quota),
		PagesScanned:  int(row.PagesScanned),
		ContactsFound: int(row.ContactsFound),
		Message:       row.Message.String,
		ArtifactURL:   row.ArtifactUrl.String,
		UpdatedAt:     row.UpdatedAt,
	}
	if models.JobStatus(row.Status) == models.JobStatusCompleted {
		doc.Progress = 100
	}
	utils.WriteJSON(w, http.StatusOK, doc)
}

func (h *JobHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	row, ok := h.loadJob(w, r)
	if !ok {
		return
	}
	if models.JobStatus(row.Status).Terminal() {
		utils.WriteError(w, http.StatusConflict, "job already finished")
		return
	}

	if err := h.nats.PublishJobCancel(row.ID, false); err != nil {
		log.Error().Err(err).Str("jobID", row.ID).Msg("failed to publish cancel")
		utils.WriteError(w, http.StatusInternalServerError, "could not cancel job")
		return
	}

	utils.WriteMessage(w, http.StatusAccepted, "cancellation requested")
}

func (h *JobHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	row, ok := h.loadJob(w, r)
	if !ok {
		return
	}

	if !models.JobStatus(row.Status).Terminal() {
		// Whichever instance runs the job cancels it and deletes afterwards.
		if err := h.nats.PublishJobCancel(row.ID, true); err != nil {
			log.Error().Err(err).Str("jobID", row.ID).Msg("failed to publish cancel-and-delete")
			utils.WriteError(w, http.StatusInternalServerError, "could not delete job")
			return
		}
		utils.WriteMessage(w, http.StatusAccepted, "job will be deleted after cancellation")
		return
	}

	if err := h.db.Queries.DeleteMiningJob(r.Context(), row.ID); err != nil {
		log.Error().Err(err).Str("jobID", row.ID).Msg("failed to delete job row")
		utils.WriteError(w, http.StatusInternalServerError, "could not delete job")
		return
	}
	if h.db.Redis != nil {
		_ = h.db.Redis.DeleteJobStatus(r.Context(), row.ID)
	}

	utils.WriteMessage(w, http.StatusOK, "job deleted")
}

// loadJob fetches the job addressed by the route and scopes it to the
// calling user.
func (h *JobHandler) loadJob(w http.ResponseWriter, r *http.Request) (repository.MiningJob, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		utils.WriteError(w, http.StatusBadRequest, "missing job id")
		return repository.MiningJob{}, false
	}

	row, err := h.db.Queries.GetMiningJob(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			utils.WriteError(w, http.StatusNotFound, "job not found")
		} else {
			log.Error().Err(err).Str("jobID", id).Msg("failed to load job")
			utils.WriteError(w, http.StatusInternalServerError, "could not load job")
		}
		return repository.MiningJob{}, false
	}

	if userID := strings.TrimSpace(r.Header.Get("X-API-USER")); userID != "" && row.UserID != userID {
		utils.WriteError(w, http.StatusNotFound, "job not found")
		return repository.MiningJob{}, false
	}

	return row, true
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
