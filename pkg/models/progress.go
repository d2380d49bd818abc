package models

// Progress stages emitted during a streaming generation run, in the order
// they can occur. A run ends with exactly one of StageDone or StageError.
const (
	StageRecordsInfo   = "records_info"
	StageCached        = "cached"
	StageInvokingModel = "invoking_model"
	StageParsed        = "parsed"
	StageTranslating   = "translating"
	StageTranslated    = "translated"
	StageDone          = "done"
	StageError         = "error"
)

// ProgressEvent is a single progress update during resume generation.
// StageDone always carries the final StructuredResume in Data under "result".
type ProgressEvent struct {
	Stage   string                 `json:"stage"`
	Message string                 `json:"message,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// ProgressCallback is invoked for every progress event of a run. Callbacks
// must be fast; they run on the orchestration goroutine.
type ProgressCallback func(event ProgressEvent)
