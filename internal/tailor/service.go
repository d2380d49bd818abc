package tailor

import (
	"context"
	"os"
	"path/filepath"

	"betterresume/internal/agent"
	"betterresume/internal/background"
	"betterresume/internal/cache"
	"betterresume/internal/config"
	"betterresume/internal/download"
	"betterresume/internal/llm"
	"betterresume/internal/llm/processors"
	"betterresume/internal/logging"
	"betterresume/internal/profile"
	"betterresume/internal/records"
	"betterresume/internal/renderer"
	"betterresume/internal/tools"
	"betterresume/internal/vectorstore"
	"betterresume/pkg/models"
	"betterresume/pkg/utils"
)

// Service runs the full resume generation pipeline: cache lookups, the
// tool-calling model conversation, the optional translation pass, rendering
// and cache persistence.
type Service struct {
	config     *config.Config
	llmManager *llm.Manager
	vectors    *vectorstore.Store
	records    *records.Store
	cache      *cache.Cache
	profiles   *profile.Store
	renderer   *renderer.Renderer
	signer     *download.Signer
	tasks      background.TaskManager
	cleaner    *processors.JobDescriptionCleaner
}

// NewService creates the generation service. taskManager may be nil when no
// background ingestion is wired in.
func NewService(
	cfg *config.Config,
	llmManager *llm.Manager,
	vectors *vectorstore.Store,
	recordStore *records.Store,
	resumeCache *cache.Cache,
	profiles *profile.Store,
	signer *download.Signer,
	taskManager background.TaskManager,
) *Service {
	return &Service{
		config:     cfg,
		llmManager: llmManager,
		vectors:    vectors,
		records:    recordStore,
		cache:      resumeCache,
		profiles:   profiles,
		renderer:   renderer.New(),
		signer:     signer,
		tasks:      taskManager,
		cleaner:    processors.NewJobDescriptionCleaner(),
	}
}

// GenerateResume produces a rendered resume for the user and job description.
// Progress events are emitted along the way; the callback may be nil.
func (s *Service) GenerateResume(ctx context.Context, userID string, req *models.GenerateRequest, progress models.ProgressCallback) (*models.GenerateResponse, error) {
	logger := logging.GetGlobalLogger()

	if !utils.ValidUserID(userID) {
		return nil, s.fail(progress, utils.NewBadRequestError("invalid user id"))
	}

	// Let any in-flight ingestion for this user settle first so generation
	// reads a consistent record set.
	if s.tasks != nil {
		if err := s.tasks.WaitForUser(ctx, userID); err != nil {
			return nil, s.fail(progress, err)
		}
	}

	recs, info, ok := s.records.Get(userID)
	if !ok || info.Rows == 0 {
		return nil, s.fail(progress, utils.NewNotFoundError("no records ingested for user"))
	}

	s.emit(progress, models.StageRecordsInfo, "Records loaded", map[string]interface{}{
		"rows": info.Rows,
		"hash": info.Hash,
	})

	jobDescription, err := s.cleaner.Clean(req.JobDescription)
	if err != nil {
		logger.Warn("Job description cleanup failed, using raw text", map[string]interface{}{
			"error": err.Error(),
		})
		jobDescription = req.JobDescription
	}

	model := utils.GetStringOrDefault(req.Model, s.config.LLM.Model)
	jobHash := cache.HashText(jobDescription)

	resultSig, err := cache.ResultSignature(jobHash, model, info.Hash)
	if err != nil {
		return nil, s.fail(progress, err)
	}

	var profileHash *string
	var profilePath string
	if req.IncludeProfilePicture {
		profileHash = s.profiles.Hash(userID)
		profilePath, _ = s.profiles.Resolve(userID)
	}

	renderSig, err := cache.RenderSignature(resultSig, req.Format, req.IncludeProfilePicture, profileHash)
	if err != nil {
		return nil, s.fail(progress, err)
	}

	outputDir := s.cache.UserDir(userID)

	// Full hit: same result and same render parameters, with the rendered
	// file still on disk.
	if render, ok := s.cache.LookupRender(userID, renderSig); ok {
		if entry, ok := s.cache.LookupResult(userID, render.ResultSignature); ok {
			if files := existingFiles(outputDir, req.Format); len(files) > 0 {
				logger.Info("Serving fully cached resume", map[string]interface{}{
					"user_id":          userID,
					"render_signature": renderSig,
				})
				s.emit(progress, models.StageCached, "Cached render reused", map[string]interface{}{
					"scope": "render",
				})
				return s.finish(progress, userID, entry.Result, files, info.Rows, true)
			}
		}
	}

	var resume *models.StructuredResume
	cached := false

	if entry, ok := s.cache.LookupResult(userID, resultSig); ok {
		// Result hit: only the render parameters changed, skip the model.
		resume = entry.Result
		cached = true
		s.emit(progress, models.StageCached, "Cached result reused, re-rendering", map[string]interface{}{
			"scope": "result",
		})
	} else {
		resume, err = s.runGeneration(ctx, userID, jobDescription, req, progress)
		if err != nil {
			return nil, s.fail(progress, err)
		}
	}

	files, err := s.renderer.Render(req.Format, renderer.Input{
		Resume:                resume,
		Records:               recs,
		ProfilePicturePath:    profilePath,
		IncludeProfilePicture: req.IncludeProfilePicture,
		OutputDir:             outputDir,
	})
	if err != nil {
		return nil, s.fail(progress, utils.NewRenderError(err.Error()))
	}

	s.cache.Save(userID, cache.SaveEntry{
		ResultSignature:       resultSig,
		RenderSignature:       renderSig,
		Result:                resume,
		Model:                 model,
		RecordsHash:           info.Hash,
		JobDescriptionHash:    jobHash,
		Format:                req.Format,
		IncludeProfilePicture: req.IncludeProfilePicture,
		ProfileHash:           profileHash,
	})

	return s.finish(progress, userID, resume, files, info.Rows, cached)
}

// runGeneration drives the model conversation and the optional translation
// pass for a cache miss.
func (s *Service) runGeneration(ctx context.Context, userID, jobDescription string, req *models.GenerateRequest, progress models.ProgressCallback) (*models.StructuredResume, error) {
	dispatcher := agent.NewDispatcher(
		tools.NewSearchExperienceTool(s.vectors, userID, s.config.VectorStore.TopK),
		tools.NewLatestExperienceTool(s.records, userID),
	)
	orchestrator := agent.NewOrchestrator(s.llmManager.Gateway(), dispatcher)

	opts := agent.RunOptions{
		Model:         req.Model,
		RequireTool:   true,
		FallbackTool:  tools.SearchExperienceToolName,
		FallbackQuery: jobDescription,
		Progress:      progress,
	}

	resume, err := orchestrator.GenerateResume(ctx, jobDescription, opts)
	if err != nil {
		return nil, err
	}

	if !resume.IsEnglish() {
		translated, err := orchestrator.TranslateResume(ctx, jobDescription, resume, opts)
		if err != nil {
			logging.GetGlobalLogger().Warn("Translation pass failed, keeping original language", map[string]interface{}{
				"user_id":  userID,
				"language": resume.Language,
				"error":    err.Error(),
			})
		} else {
			resume = translated
		}
	}

	return resume, nil
}

// finish emits the terminal done event and builds the response
func (s *Service) finish(progress models.ProgressCallback, userID string, resume *models.StructuredResume, files []string, rows int, cached bool) (*models.GenerateResponse, error) {
	signed := s.signFiles(userID, files)

	s.emit(progress, models.StageDone, "Resume ready", map[string]interface{}{
		"result": resume,
		"files":  signed,
		"cached": cached,
	})

	return &models.GenerateResponse{
		Success: true,
		Result:  resume,
		Files:   signed,
		Rows:    rows,
		Cached:  cached,
	}, nil
}

// fail emits the terminal error event and passes the error through
func (s *Service) fail(progress models.ProgressCallback, err error) error {
	s.emit(progress, models.StageError, err.Error(), nil)
	return err
}

func (s *Service) emit(progress models.ProgressCallback, stage, message string, data map[string]interface{}) {
	if progress == nil {
		return
	}
	progress(models.ProgressEvent{Stage: stage, Message: message, Data: data})
}

// signFiles maps rendered file names to signed download paths
func (s *Service) signFiles(userID string, files []string) map[string]string {
	signed := make(map[string]string, len(files))
	for _, name := range files {
		signed[name] = s.signer.SignedPath(userID, name)
	}
	return signed
}

// existingFiles returns the rendered files for a format that are still
// present in the output directory.
func existingFiles(outputDir, format string) []string {
	name := "resume.tex"
	if format == models.FormatWord {
		name = "resume.docx"
	}

	if _, err := os.Stat(filepath.Join(outputDir, name)); err != nil {
		return nil
	}
	return []string{name}
}
