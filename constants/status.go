package constants

// DocumentStatus is the lifecycle state of a document.
type DocumentStatus string

// Stable values (store these exact strings in DB).
const (
	DocumentAwaitingSignature DocumentStatus = "Awaiting Signature"
	DocumentSigned            DocumentStatus = "Signed"
	DocumentArchived          DocumentStatus = "Archived"
	DocumentUploaded          DocumentStatus = "Uploaded"
)

var documentStatuses = []DocumentStatus{
	DocumentUploaded,
	DocumentAwaitingSignature,
	DocumentSigned,
	DocumentArchived,
}

// DocumentStatusesAsStrings lists every known document status.
func DocumentStatusesAsStrings() []string {
	out := make([]string, len(documentStatuses))
	for i, s := range documentStatuses {
		out[i] = string(s)
	}
	return out
}

// HistoryAction names an entry in a document's audit trail.
type HistoryAction string

const (
	ActionCreated  HistoryAction = "created"
	ActionUploaded HistoryAction = "uploaded"
	ActionAnalyzed HistoryAction = "analyzed"
	ActionSigned   HistoryAction = "signed"
	ActionReminded HistoryAction = "reminded"
	ActionArchived HistoryAction = "archived"
)

// JobStatus is the processing state of a background document job.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusOCROK   JobStatus = "OCR_OK"      // text extracted
	JobStatusDone    JobStatus = "ANALYZED_OK" // summary and tags stored
	JobStatusFailed  JobStatus = "FAILED"
)
