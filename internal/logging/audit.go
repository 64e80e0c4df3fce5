package logging

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// AuditEventType names an auditable backend event.
type AuditEventType string

const (
	AuditRequest      AuditEventType = "http_request"
	AuditLLMResponse  AuditEventType = "llm_response"
	AuditLLMError     AuditEventType = "llm_error"
	AuditWeightsSave  AuditEventType = "weights_save"
	AuditWeightsLoad  AuditEventType = "weights_load"
	AuditDocumentAdd  AuditEventType = "document_add"
	AuditSectorSelect AuditEventType = "sector_select"
)

// AuditEvent is one JSON line in the audit log.
type AuditEvent struct {
	Timestamp  int64                  `json:"ts"`
	EventType  AuditEventType         `json:"event"`
	RequestID  string                 `json:"req,omitempty"`
	Target     string                 `json:"target"`
	Success    bool                   `json:"success"`
	DurationMs int64                  `json:"dur_ms"`
	Error      string                 `json:"error,omitempty"`
	Message    string                 `json:"msg"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

var (
	auditOut    *lumberjack.Logger
	auditMu     sync.Mutex
	auditLogger *AuditLogger
)

// AuditLogger writes structured audit events.
type AuditLogger struct {
	requestID string
}

// InitAudit opens the audit log. No-op outside debug mode.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	auditMu.Lock()
	defer auditMu.Unlock()

	if auditOut != nil {
		return nil
	}

	date := time.Now().Format("2006-01-02")
	auditOut = &lumberjack.Logger{
		Filename:  filepath.Join(logsDir, fmt.Sprintf("%s_audit.log", date)),
		MaxSize:   20,
		LocalTime: true,
	}
	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditOut != nil {
		_ = auditOut.Close()
		auditOut = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	if auditLogger == nil {
		auditLogger = &AuditLogger{}
	}
	return auditLogger
}

// AuditWithRequest creates an audit logger scoped to a request.
func AuditWithRequest(requestID string) *AuditLogger {
	return &AuditLogger{requestID: requestID}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	if !IsDebugMode() {
		return
	}

	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	if event.RequestID == "" {
		event.RequestID = a.requestID
	}

	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditOut == nil {
		return
	}
	_, _ = auditOut.Write(append(data, '\n'))
}

// Request logs a completed HTTP request.
func (a *AuditLogger) Request(method, path string, status int, durationMs int64) {
	a.Log(AuditEvent{
		EventType:  AuditRequest,
		Target:     method + " " + path,
		Success:    status < 400,
		DurationMs: durationMs,
		Fields:     map[string]interface{}{"status": status},
		Message:    fmt.Sprintf("%s %s -> %d (%dms)", method, path, status, durationMs),
	})
}

// LLMCall logs a generative-model call.
func (a *AuditLogger) LLMCall(model string, chars int, durationMs int64, success bool, errMsg string) {
	eventType := AuditLLMResponse
	if !success {
		eventType = AuditLLMError
	}
	a.Log(AuditEvent{
		EventType:  eventType,
		Target:     model,
		Success:    success,
		DurationMs: durationMs,
		Error:      errMsg,
		Fields:     map[string]interface{}{"chars": chars},
		Message:    fmt.Sprintf("LLM call: %s -> %d chars (%dms, success=%v)", model, chars, durationMs, success),
	})
}

// WeightsOp logs a weights load or save.
func (a *AuditLogger) WeightsOp(op AuditEventType, backend string, success bool, errMsg string) {
	a.Log(AuditEvent{
		EventType: op,
		Target:    backend,
		Success:   success,
		Error:     errMsg,
		Message:   fmt.Sprintf("Weights %s via %s (success=%v)", op, backend, success),
	})
}

// DocumentAdded logs a stored document.
func (a *AuditLogger) DocumentAdded(id int64, words int) {
	a.Log(AuditEvent{
		EventType: AuditDocumentAdd,
		Target:    fmt.Sprintf("doc:%d", id),
		Success:   true,
		Fields:    map[string]interface{}{"words": words},
		Message:   fmt.Sprintf("Document %d stored (%d words)", id, words),
	})
}

// SectorSelected logs a market sphere sector click.
func (a *AuditLogger) SectorSelected(sectorID string, niches int) {
	a.Log(AuditEvent{
		EventType: AuditSectorSelect,
		Target:    "sector:" + sectorID,
		Success:   true,
		Fields:    map[string]interface{}{"niches": niches},
		Message:   fmt.Sprintf("Sector %s selected (%d niches)", sectorID, niches),
	})
}
