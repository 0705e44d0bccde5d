// Package bridge forwards stack recommendation and compatibility requests to
// the external analysis engine and always produces an answer, falling back to
// a static catalog when the engine cannot be used.
package bridge

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"stackbridge/internal/bridge/model"
	"stackbridge/internal/engine"
	"stackbridge/internal/fallback"
	"stackbridge/internal/invocations"
	"stackbridge/internal/payload"
	"stackbridge/internal/shared/metrics"
	"stackbridge/internal/shared/storage/object"
	"stackbridge/internal/shared/telemetry"
	"stackbridge/internal/shared/util"
)

const recordTimeout = 3 * time.Second

// EngineConfig locates and bounds the engine executable. It is fixed at
// construction and never re-read per call.
type EngineConfig struct {
	Command        string
	Args           []string
	Dir            string
	Env            []string
	VersionArgs    []string
	Timeout        time.Duration
	MaxOutputBytes int
}

// Invoker runs one engine process. *engine.Runner is the production implementation.
type Invoker interface {
	Run(ctx context.Context, cmd engine.Command) (engine.Invocation, error)
}

// Recorder persists the invocation log. invocations.Repo satisfies it.
type Recorder interface {
	Create(ctx context.Context, rec invocations.Record) error
}

// Options configures a Service. Channel is required; Invoker defaults to an
// engine.Runner built from Engine; Recorder and Archive are optional.
type Options struct {
	Engine          EngineConfig
	Channel         *payload.Channel
	Invoker         Invoker
	Recorder        Recorder
	Archive         object.ObjectStore
	StatusTTL       time.Duration
	TechnologiesTTL time.Duration
}

// Service is the recommendation bridge. Its methods never return errors:
// every engine failure is logged, counted, and answered from the fallback catalog.
type Service struct {
	engine   EngineConfig
	channel  *payload.Channel
	invoker  Invoker
	recorder Recorder
	archive  object.ObjectStore
	cache    *answerCache
}

// NewService constructs a Service.
func NewService(opts Options) *Service {
	channel := opts.Channel
	if channel == nil {
		channel = payload.New("", "")
	}
	invoker := opts.Invoker
	if invoker == nil {
		invoker = &engine.Runner{Timeout: opts.Engine.Timeout, MaxOutputBytes: opts.Engine.MaxOutputBytes}
	}
	return &Service{
		engine:   opts.Engine,
		channel:  channel,
		invoker:  invoker,
		recorder: opts.Recorder,
		archive:  opts.Archive,
		cache:    newAnswerCache(opts.StatusTTL, opts.TechnologiesTTL),
	}
}

// Close stops the cache expiration loops.
func (s *Service) Close() {
	s.cache.close()
}

// Recommend asks the engine for a stack recommendation.
func (s *Service) Recommend(ctx context.Context, req model.RecommendationRequest) model.RecommendationResult {
	req = req.WithDefaults()
	var out model.RecommendationResult
	if s.roundTrip(ctx, model.OperationRecommend, req, payload.RecommendationSchema, &out) {
		out.Source = model.SourceEngine
		return out
	}
	return fallback.Recommendation()
}

// AnalyzeCompatibility asks the engine to score a set of technologies.
func (s *Service) AnalyzeCompatibility(ctx context.Context, req model.CompatibilityRequest) model.CompatibilityResult {
	var out model.CompatibilityResult
	if s.roundTrip(ctx, model.OperationCompatibility, req, payload.CompatibilitySchema, &out) {
		out.Source = model.SourceEngine
		return out
	}
	return fallback.Compatibility(req.Technologies)
}

// ListSupportedTechnologies returns the engine's technology lists. Only
// engine answers are cached; the fallback lists are served uncached.
func (s *Service) ListSupportedTechnologies(ctx context.Context) model.SupportedTechnologies {
	if cached, ok := s.cache.getTechnologies(); ok {
		return cached
	}
	var out model.SupportedTechnologies
	if s.roundTrip(ctx, model.OperationTechnologies, struct{}{}, payload.TechnologiesSchema, &out) {
		s.cache.setTechnologies(out)
		return out
	}
	return fallback.SupportedTechnologies()
}

// CheckStatus probes the engine with its version arguments. No payload file
// is written and no full round-trip is attempted.
func (s *Service) CheckStatus(ctx context.Context) model.Status {
	if cached, ok := s.cache.getStatus(); ok {
		return cached
	}

	call := s.begin(model.OperationStatus, nil)
	inv, err := s.invoker.Run(ctx, engine.Command{
		Path: s.engine.Command,
		Args: s.engine.VersionArgs,
		Dir:  s.engine.Dir,
		Env:  s.engine.Env,
	})
	if err == nil && !inv.Succeeded() {
		err = engine.NonzeroExit(inv)
	}
	s.finish(ctx, call, inv, err)

	status := model.Status{Features: model.Features()}
	if err != nil {
		status.EngineStatus = model.EngineUnavailable
		status.Error = err.Error()
	} else {
		status.AIServiceAvailable = true
		status.EngineStatus = model.EngineAvailable
		if version := engineVersion(inv); version != "" {
			status.EngineVersion = &version
		}
	}

	if failureKind(err) != kindCanceled {
		s.cache.setStatus(status)
	}
	return status
}

func engineVersion(inv engine.Invocation) string {
	if v := strings.TrimSpace(string(inv.Stdout)); v != "" {
		return v
	}
	return strings.TrimSpace(string(inv.Stderr))
}

// roundTrip writes the payload file, runs the engine on it, and decodes its
// answer into out. It reports false on any failure; the caller falls back.
// The payload file is removed before roundTrip returns, even if decoding panics.
func (s *Service) roundTrip(ctx context.Context, op string, request any, schema *payload.Schema, out any) bool {
	call := s.begin(op, request)

	path, err := s.channel.Write(model.Envelope{Operation: op, Request: request})
	if err != nil {
		s.finish(ctx, call, engine.Invocation{}, err)
		return false
	}
	defer s.removePayload(op, path)

	inv, err := s.invoker.Run(ctx, engine.Command{
		Path:      s.engine.Command,
		Args:      s.engine.Args,
		Dir:       s.engine.Dir,
		Env:       s.engine.Env,
		InputPath: path,
	})
	if err == nil && !inv.Succeeded() {
		err = engine.NonzeroExit(inv)
	}
	if err == nil {
		err = s.channel.Read(inv.Stdout, schema, out)
	}

	s.finish(ctx, call, inv, err)
	return err == nil
}

func (s *Service) removePayload(op, path string) {
	if err := s.channel.Remove(path); err != nil {
		telemetry.Error("bridge.cleanup_failed", map[string]any{
			"operation": op,
			"path":      path,
			"error":     err.Error(),
		})
	}
}

type call struct {
	id        string
	operation string
	digest    string
	startedAt time.Time
}

func (s *Service) begin(op string, request any) call {
	c := call{id: uuid.NewString(), operation: op, startedAt: time.Now().UTC()}
	if request != nil {
		c.digest = util.Digest(request)
	}
	return c
}

// finish logs, counts, records, and archives a completed call.
func (s *Service) finish(ctx context.Context, c call, inv engine.Invocation, err error) {
	source := model.SourceEngine
	kind := ""
	if err != nil {
		source = model.SourceFallback
		kind = failureKind(err)
	}

	duration := time.Since(c.startedAt)
	if inv.FinishedAt != nil {
		duration = inv.Duration()
		metrics.ObserveEngineDurationMs(float64(duration.Milliseconds()))
	}
	metrics.IncBridgeCall(c.operation, source)

	fields := map[string]any{
		"invocation_id": c.id,
		"operation":     c.operation,
		"source":        source,
		"duration_ms":   duration.Milliseconds(),
	}
	if inv.Command != "" {
		fields["command_line"] = inv.CommandLine()
	}
	if inv.ExitStatus != nil {
		fields["exit_status"] = *inv.ExitStatus
	}
	if inv.Truncated {
		fields["truncated"] = true
	}
	if err != nil {
		metrics.IncBridgeFailure(c.operation, kind)
		fields["failure_kind"] = kind
		fields["error"] = err.Error()
		telemetry.Warn("bridge.fallback", fields)
	} else {
		telemetry.Info("bridge.engine", fields)
	}

	rec := invocations.Record{
		ID:            c.id,
		Operation:     c.operation,
		Source:        source,
		FailureKind:   kind,
		ExitStatus:    inv.ExitStatus,
		DurationMs:    duration.Milliseconds(),
		RequestDigest: c.digest,
		CreatedAt:     c.startedAt,
	}
	if err != nil {
		rec.Error = err.Error()
	}

	// A client that hung up must not lose the record of its call.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	s.record(bg, rec)
	if archivable(kind) {
		s.archiveFailure(bg, rec, inv)
	}
}

func (s *Service) record(ctx context.Context, rec invocations.Record) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Create(ctx, rec); err != nil {
		telemetry.Error("bridge.record_failed", map[string]any{
			"invocation_id": rec.ID,
			"operation":     rec.Operation,
			"error":         err.Error(),
		})
	}
}

const (
	kindSpawn       = "spawn"
	kindExit        = "exit"
	kindTimeout     = "timeout"
	kindCanceled    = "canceled"
	kindIO          = "io"
	kindMalformed   = "malformed"
	kindEngineError = "engine_error"
	kindUnknown     = "unknown"
)

// failureKind maps an error from the engine or payload layer to a short label
// used by logs, metrics, and the invocation log.
func failureKind(err error) string {
	if err == nil {
		return ""
	}
	var (
		spawnErr  *engine.SpawnError
		procErr   *engine.ProcessFailure
		ioErr     *payload.IOError
		malformed *payload.MalformedOutputError
		reported  *payload.EngineReportedError
	)
	switch {
	case errors.As(err, &spawnErr):
		return kindSpawn
	case errors.As(err, &procErr):
		switch {
		case procErr.TimedOut:
			return kindTimeout
		case procErr.Canceled:
			return kindCanceled
		default:
			return kindExit
		}
	case errors.As(err, &ioErr):
		return kindIO
	case errors.As(err, &malformed):
		return kindMalformed
	case errors.As(err, &reported):
		return kindEngineError
	default:
		return kindUnknown
	}
}

// archivable reports whether the engine ran and produced output worth keeping.
func archivable(kind string) bool {
	switch kind {
	case kindExit, kindMalformed, kindEngineError:
		return true
	default:
		return false
	}
}
