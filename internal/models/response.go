package models

import (
	"encoding/json"
	"math"
	"time"

	"github.com/hyperjump/cyborgbench/internal/evaluator"
)

// Wire values of mode_used.
const (
	ModeUsedSearch = "search"
	ModeUsedChat   = "chat"
	ModeUsedError  = "error"
)

// ErrorReplyText is returned to clients when the pipeline fails.
const ErrorReplyText = "Error processing request."

// ChatResponse is the JSON body of POST /get_response.
type ChatResponse struct {
	Response string           `json:"response"`
	ModeUsed string           `json:"mode_used"`
	Metrics  *ResponseMetrics `json:"metrics"`
}

// ResponseMetrics holds elapsed seconds per backend. A nil field means the
// backend was not measured.
type ResponseMetrics struct {
	Cyborg *float64 `json:"cyborg,omitempty"`
	Faiss  *float64 `json:"faiss,omitempty"`
	Chroma *float64 `json:"chroma,omitempty"`
}

// UnmarshalJSON decodes a response body. A metrics value that is not an
// object decodes as absent, and a metrics field that is not a number decodes
// as an absent measurement, so a malformed metrics block never fails the reply.
func (r *ChatResponse) UnmarshalJSON(data []byte) error {
	var wire struct {
		Response string          `json:"response"`
		ModeUsed string          `json:"mode_used"`
		Metrics  json.RawMessage `json:"metrics"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Response = wire.Response
	r.ModeUsed = wire.ModeUsed
	r.Metrics = decodeMetrics(wire.Metrics)
	return nil
}

func decodeMetrics(raw json.RawMessage) *ResponseMetrics {
	var fields map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &fields) != nil || fields == nil {
		return nil
	}
	return &ResponseMetrics{
		Cyborg: decodeSeconds(fields[string(evaluator.BackendCyborg)]),
		Faiss:  decodeSeconds(fields[string(evaluator.BackendFaiss)]),
		Chroma: decodeSeconds(fields[string(evaluator.BackendChroma)]),
	}
}

func decodeSeconds(raw json.RawMessage) *float64 {
	var v *float64
	if len(raw) == 0 || json.Unmarshal(raw, &v) != nil {
		return nil
	}
	return v
}

// NewResponseMetrics converts measured durations to wire metrics. Backends
// missing from latencies are left out.
func NewResponseMetrics(latencies map[evaluator.Backend]time.Duration) *ResponseMetrics {
	m := &ResponseMetrics{}
	for b, d := range latencies {
		s := d.Seconds()
		switch b {
		case evaluator.BackendCyborg:
			m.Cyborg = &s
		case evaluator.BackendFaiss:
			m.Faiss = &s
		case evaluator.BackendChroma:
			m.Chroma = &s
		}
	}
	return m
}

// ModeUsedFor returns the wire mode for measured metrics: search when the
// primary backend ran (positive elapsed time), chat otherwise.
func ModeUsedFor(m *ResponseMetrics) string {
	if m != nil && m.Cyborg != nil && *m.Cyborg > 0 {
		return ModeUsedSearch
	}
	return ModeUsedChat
}

// ErrorResponse is the body sent when the reply could not be produced.
func ErrorResponse() *ChatResponse {
	return &ChatResponse{Response: ErrorReplyText, ModeUsed: ModeUsedError, Metrics: &ResponseMetrics{}}
}

// Payload validates r into an evaluator payload. Missing, negative and
// non-finite measurements become absent; unknown modes become ModeUnknown.
func (r *ChatResponse) Payload() evaluator.Payload {
	p := evaluator.Payload{ReplyText: r.Response}
	switch r.ModeUsed {
	case ModeUsedSearch:
		p.ModeUsed = evaluator.ModeSearch
	case ModeUsedChat:
		p.ModeUsed = evaluator.ModeChat
	default:
		p.ModeUsed = evaluator.ModeUnknown
	}
	if r.Metrics != nil {
		p.MetricsPresent = true
		p.Metrics = evaluator.Metrics{
			Cyborg: measurement(r.Metrics.Cyborg),
			Faiss:  measurement(r.Metrics.Faiss),
			Chroma: measurement(r.Metrics.Chroma),
		}
	}
	return p
}

func measurement(v *float64) evaluator.Measurement {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return evaluator.Measurement{}
	}
	return evaluator.Measured(*v)
}
