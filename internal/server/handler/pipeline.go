package handler

import (
	"log/slog"
	"net/http"
	"time"
)

// PipelineHandler serves ingest and digest trigger endpoints.
type PipelineHandler struct {
	logger     *slog.Logger
	pipelineCh chan<- struct{} // when non-nil, sending triggers one ingest run
	digestCh   chan<- struct{} // when non-nil, sending triggers one digest run
}

// NewPipelineHandler creates a PipelineHandler with the given logger.
func NewPipelineHandler(logger *slog.Logger) *PipelineHandler {
	return &PipelineHandler{logger: logHandler(logger, "pipeline")}
}

// WithPipelineChannel sets the channel to send on when an ingest run is
// requested. The pipeline loop must receive from this channel to run one cycle.
func (h *PipelineHandler) WithPipelineChannel(ch chan<- struct{}) *PipelineHandler {
	h.pipelineCh = ch
	return h
}

// WithDigestChannel sets the channel to send on when a digest run is requested.
func (h *PipelineHandler) WithDigestChannel(ch chan<- struct{}) *PipelineHandler {
	h.digestCh = ch
	return h
}

// TriggerPipeline enqueues one ingest run. A non-blocking send is performed so
// an already-pending trigger is not duplicated.
// POST /api/pipeline/trigger
func (h *PipelineHandler) TriggerPipeline(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "pipeline trigger requested")
	trigger(h.pipelineCh)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "pipeline trigger enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// TriggerDigest enqueues one digest run for the current date.
// POST /api/digest/trigger
func (h *PipelineHandler) TriggerDigest(w http.ResponseWriter, r *http.Request) {
	h.logger.InfoContext(r.Context(), "digest trigger requested")
	trigger(h.digestCh)
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"message":      "digest trigger enqueued",
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}

func trigger(ch chan<- struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
		// already triggered and not yet consumed
	}
}
