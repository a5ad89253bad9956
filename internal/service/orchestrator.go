package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"ledgerlens/internal/analyzer"
	"ledgerlens/internal/config"
	"ledgerlens/internal/domain"
	"ledgerlens/internal/port"
	"ledgerlens/internal/validator"
	"ledgerlens/internal/validator/receipt"
)

// SubmitInput carries a single media submission.
type SubmitInput struct {
	OwnerID     uuid.UUID
	Mode        domain.MediaMode
	ContentType string
	Media       []byte
}

// TokenService is the orchestrator surface the HTTP layer depends on.
type TokenService interface {
	Submit(ctx context.Context, input *SubmitInput) (*domain.ProcessingToken, error)
	Poll(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, error)
	Result(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, *receipt.Analysis, error)
	ListCompleted(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.ProcessingToken, error)
}

// Orchestrator owns the token lifecycle: it mints tokens at submission,
// drives each one through the analyzer and the validation pipeline in a
// bounded background pool, and is the only writer of token records. Every
// terminal write goes through the store's active-row guard, so a worker that
// finishes after expiry cannot resurrect the token.
type Orchestrator struct {
	store    port.TokenStore
	storage  port.ObjectStorage
	analyzer port.MediaAnalyzer
	pipeline *validator.Pipeline
	backoff  analyzer.BackoffPolicy

	bucket        string
	tokenTTL      time.Duration
	jobTimeout    time.Duration
	maxImageBytes int64
	maxVideoBytes int64

	sem chan struct{}
	wg  sync.WaitGroup
}

// NewOrchestrator creates the token orchestrator.
func NewOrchestrator(
	cfg *config.Config,
	store port.TokenStore,
	storage port.ObjectStorage,
	mediaAnalyzer port.MediaAnalyzer,
	pipeline *validator.Pipeline,
) *Orchestrator {
	concurrency := cfg.Worker.Concurrency
	if concurrency <= 0 {
		concurrency = 8
	}
	backoff := analyzer.DefaultBackoffPolicy()
	if cfg.Analyzer.MaxAttempts > 0 {
		backoff.MaxAttempts = cfg.Analyzer.MaxAttempts
	}
	if cfg.Analyzer.BackoffBase > 0 {
		backoff.BaseDelay = cfg.Analyzer.BackoffBase
	}
	if cfg.Analyzer.BackoffMax > 0 {
		backoff.MaxDelay = cfg.Analyzer.BackoffMax
	}
	tokenTTL := cfg.Token.TTL
	if tokenTTL <= 0 {
		tokenTTL = 10 * time.Minute
	}
	jobTimeout := cfg.Worker.JobTimeout
	if jobTimeout <= 0 {
		jobTimeout = 5 * time.Minute
	}

	return &Orchestrator{
		store:         store,
		storage:       storage,
		analyzer:      mediaAnalyzer,
		pipeline:      pipeline,
		backoff:       backoff,
		bucket:        cfg.S3.Bucket,
		tokenTTL:      tokenTTL,
		jobTimeout:    jobTimeout,
		maxImageBytes: cfg.S3.MaxImageSizeMB * 1024 * 1024,
		maxVideoBytes: cfg.S3.MaxVideoSizeMB * 1024 * 1024,
		sem:           make(chan struct{}, concurrency),
	}
}

// Submit validates the media synchronously, parks it in object storage,
// mints a pending token, and schedules background processing. Input
// rejections surface here as domain errors and never consume a token.
func (o *Orchestrator) Submit(ctx context.Context, input *SubmitInput) (*domain.ProcessingToken, error) {
	if !domain.ValidMediaModes[input.Mode] {
		return nil, domain.ErrInvalidMediaMode
	}
	if len(input.Media) == 0 {
		return nil, domain.ErrEmptyMedia
	}
	ext, ok := domain.MediaExtension(input.Mode, input.ContentType)
	if !ok {
		return nil, domain.ErrUnsupportedMediaType
	}
	limit := o.maxImageBytes
	if input.Mode == domain.MediaModeVideo {
		limit = o.maxVideoBytes
	}
	if limit > 0 && int64(len(input.Media)) > limit {
		return nil, domain.ErrMediaTooLarge
	}

	tokenID := uuid.New()
	key := fmt.Sprintf("receipts/%s/%s.%s", input.OwnerID, tokenID, ext)

	if _, err := o.storage.Upload(ctx, port.UploadInput{
		Bucket:      o.bucket,
		Key:         key,
		Body:        bytes.NewReader(input.Media),
		ContentType: input.ContentType,
	}); err != nil {
		log.Printf("orchestrator.Submit: upload failed for owner %s: %v", input.OwnerID, err)
		return nil, domain.ErrUploadFailed
	}

	now := time.Now().UTC()
	token := &domain.ProcessingToken{
		ID:               tokenID,
		OwnerID:          input.OwnerID,
		Status:           domain.TokenStatusPending,
		Mode:             input.Mode,
		MediaBucket:      o.bucket,
		MediaKey:         key,
		MediaContentType: input.ContentType,
		ProgressStage:    domain.StageQueued,
		ExpiresAt:        now.Add(o.tokenTTL),
	}
	if err := o.store.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("orchestrator.Submit: %w", err)
	}

	o.wg.Add(1)
	go o.processInBackground(token.ID, token.OwnerID)

	log.Printf("orchestrator.Submit: token %s minted for owner %s (%s)", token.ID, token.OwnerID, token.Mode)
	return token, nil
}

// processInBackground runs one token job under the worker semaphore, on a
// fresh context detached from the submitting request.
func (o *Orchestrator) processInBackground(tokenID, ownerID uuid.UUID) {
	defer o.wg.Done()

	o.sem <- struct{}{}
	defer func() { <-o.sem }()

	ctx, cancel := context.WithTimeout(context.Background(), o.jobTimeout)
	defer cancel()

	token, err := o.store.GetByID(ctx, ownerID, tokenID)
	if err != nil {
		log.Printf("orchestrator.processInBackground: failed to load token %s: %v", tokenID, err)
		return
	}
	if token.Status.Terminal() {
		return
	}
	o.process(ctx, token)
}

func (o *Orchestrator) process(ctx context.Context, token *domain.ProcessingToken) {
	if time.Now().After(token.ExpiresAt) {
		o.expire(ctx, token)
		return
	}

	media, err := o.storage.Download(ctx, token.MediaBucket, token.MediaKey)
	if err != nil {
		o.fail(ctx, token, domain.ErrorKindAnalyzer, fmt.Sprintf("downloading media: %v", err))
		return
	}

	var lastErr error
	for attempt := 1; attempt <= o.backoff.MaxAttempts; attempt++ {
		if time.Now().After(token.ExpiresAt) {
			o.expire(ctx, token)
			return
		}
		token.Status = domain.TokenStatusRunning
		token.Attempt = attempt
		token.ProgressStage = domain.StageAnalyzing
		token.ProgressPercent = 30
		if err := o.store.UpdateActive(ctx, token); err != nil {
			log.Printf("orchestrator.process: token %s no longer active, abandoning: %v", token.ID, err)
			return
		}

		output, analyzeErr := o.analyzer.Analyze(ctx, port.AnalyzeInput{
			MediaBytes:  media,
			ContentType: token.MediaContentType,
			Mode:        token.Mode,
		})
		if analyzeErr == nil {
			draft, parseErr := receipt.ParseDraft(output.Draft)
			if parseErr == nil {
				o.finish(ctx, token, draft)
				return
			}
			// Treat an undecodable draft like any retryable analyzer
			// failure; regeneration usually fixes it.
			analyzeErr = &analyzer.MalformedOutputError{
				Provider: output.ModelUsed,
				Err:      parseErr,
			}
		}

		if !analyzer.Retryable(analyzeErr) {
			o.fail(ctx, token, domain.ErrorKindPermanent, fmt.Sprintf("analyzing media: %v", analyzeErr))
			return
		}

		lastErr = analyzeErr
		log.Printf("orchestrator.process: token %s attempt %d/%d failed: %v",
			token.ID, attempt, o.backoff.MaxAttempts, analyzeErr)

		if attempt == o.backoff.MaxAttempts {
			break
		}
		if err := o.backoff.Wait(ctx, attempt, analyzer.RetryAfter(analyzeErr)); err != nil {
			o.fail(ctx, token, domain.ErrorKindAnalyzer, fmt.Sprintf("processing aborted: %v", err))
			return
		}
	}

	o.fail(ctx, token, kindForExhausted(lastErr),
		fmt.Sprintf("analyzing media: exhausted %d attempts: %v", o.backoff.MaxAttempts, lastErr))
}

// finish validates the draft and records the terminal outcome: completed
// with the validated analysis, or failed with every layer failure the
// pipeline could gather.
func (o *Orchestrator) finish(ctx context.Context, token *domain.ProcessingToken, draft *receipt.Draft) {
	// A stalled analyzer call can return after the token's deadline; its
	// draft must not resurrect the token, even between sweeper passes.
	if time.Now().After(token.ExpiresAt) {
		o.expire(ctx, token)
		return
	}

	token.ProgressStage = domain.StageValidating
	token.ProgressPercent = 70
	if err := o.store.UpdateActive(ctx, token); err != nil {
		log.Printf("orchestrator.finish: token %s no longer active, abandoning: %v", token.ID, err)
		return
	}

	analysis, report := o.pipeline.Run(ctx, draft)
	if analysis == nil {
		o.fail(ctx, token, domain.ErrorKindValidation, report.Summary())
		return
	}

	resultJSON, err := json.Marshal(analysis)
	if err != nil {
		o.fail(ctx, token, domain.ErrorKindValidation, fmt.Sprintf("encoding analysis: %v", err))
		return
	}

	token.Status = domain.TokenStatusCompleted
	token.Result = resultJSON
	token.ErrorKind = ""
	token.ErrorMessage = ""
	token.ProgressStage = domain.StageDone
	token.ProgressPercent = 100
	if err := o.store.UpdateActive(ctx, token); err != nil {
		log.Printf("orchestrator.finish: token %s already terminal, result discarded: %v", token.ID, err)
		return
	}
	log.Printf("orchestrator.finish: token %s completed after %d attempt(s)", token.ID, token.Attempt)
}

func (o *Orchestrator) fail(ctx context.Context, token *domain.ProcessingToken, kind domain.ErrorKind, msg string) {
	// Past the deadline, expiry takes precedence over any failure outcome.
	if time.Now().After(token.ExpiresAt) {
		o.expire(ctx, token)
		return
	}
	log.Printf("orchestrator.fail: token %s failed (%s): %s", token.ID, kind, msg)
	token.Status = domain.TokenStatusFailed
	token.ErrorKind = kind
	token.ErrorMessage = msg
	if err := o.store.UpdateActive(ctx, token); err != nil {
		log.Printf("orchestrator.fail: token %s already terminal, failure discarded: %v", token.ID, err)
	}
}

func (o *Orchestrator) expire(ctx context.Context, token *domain.ProcessingToken) {
	token.Status = domain.TokenStatusExpired
	token.ErrorKind = domain.ErrorKindExpired
	token.ErrorMessage = "processing did not finish before the token expired"
	if err := o.store.UpdateActive(ctx, token); err != nil {
		log.Printf("orchestrator.expire: token %s already terminal: %v", token.ID, err)
	}
}

// kindForExhausted classifies the final attempt's failure: malformed output
// keeps its own kind so callers can tell a decode problem from an outage.
func kindForExhausted(err error) domain.ErrorKind {
	var mo *analyzer.MalformedOutputError
	if errors.As(err, &mo) {
		return domain.ErrorKindMalformedOutput
	}
	return domain.ErrorKindAnalyzer
}

// Poll returns the token's current snapshot. A non-terminal token past its
// deadline is expired lazily here, so clients observe expiry even between
// sweeper passes.
func (o *Orchestrator) Poll(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, error) {
	token, err := o.store.GetByID(ctx, ownerID, tokenID)
	if err != nil {
		return nil, err
	}
	if !token.Status.Terminal() && time.Now().After(token.ExpiresAt) {
		o.expire(ctx, token)
		// Re-read: a concurrent worker may have won the terminal write.
		return o.store.GetByID(ctx, ownerID, tokenID)
	}
	return token, nil
}

// Result returns the token snapshot plus, for a completed token, its
// validated analysis. Non-terminal tokens yield ErrResultNotReady.
func (o *Orchestrator) Result(ctx context.Context, ownerID, tokenID uuid.UUID) (*domain.ProcessingToken, *receipt.Analysis, error) {
	token, err := o.Poll(ctx, ownerID, tokenID)
	if err != nil {
		return nil, nil, err
	}
	if !token.Status.Terminal() {
		return token, nil, domain.ErrResultNotReady
	}
	if token.Status != domain.TokenStatusCompleted {
		return token, nil, nil
	}

	var analysis receipt.Analysis
	if err := json.Unmarshal(token.Result, &analysis); err != nil {
		return nil, nil, fmt.Errorf("orchestrator.Result: decoding stored analysis for %s: %w", tokenID, err)
	}
	return token, &analysis, nil
}

// ListCompleted returns the owner's completed tokens created in [from, to).
func (o *Orchestrator) ListCompleted(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]domain.ProcessingToken, error) {
	return o.store.ListCompletedByOwner(ctx, ownerID, from, to)
}

// Shutdown waits for in-flight token jobs to drain, or until ctx expires.
func (o *Orchestrator) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
