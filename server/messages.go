package server

// Messages of the intcode.v1.SessionService. Field names follow the JSON
// wire format.

type CreateSessionRequest struct {
	Name    string `json:"name,omitempty"`
	Program string `json:"program"`
}

type CreateSessionResponse struct {
	SessionID string `json:"session_id"`
	Words     int    `json:"words"`
}

type WriteInputRequest struct {
	SessionID string  `json:"session_id"`
	Values    []int64 `json:"values,omitempty"`
	Text      string  `json:"text,omitempty"` // sent as ASCII codes plus a newline
}

type WriteInputResponse struct {
	Pending int `json:"pending"`
}

type ResumeRequest struct {
	SessionID  string `json:"session_id"`
	MaxOutputs int    `json:"max_outputs,omitempty"` // 0 means no limit
}

// Status values reported by Resume.
const (
	StatusHalted     = "halted"
	StatusNeedsInput = "needs-input"
	StatusOutput     = "output"     // stopped after max_outputs values
	StatusStepLimit  = "step-limit" // ran out of step budget; resumable
)

type ResumeResponse struct {
	Status  string  `json:"status"`
	Outputs []int64 `json:"outputs"`
	Steps   int64   `json:"steps"`
}

type PeekRequest struct {
	SessionID string `json:"session_id"`
	Address   int64  `json:"address"`
	Count     int    `json:"count"`
}

type PeekResponse struct {
	Values []int64 `json:"values"`
}

type SaveSnapshotRequest struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
}

type SaveSnapshotResponse struct {
	Name string `json:"name"`
}

type RestoreSnapshotRequest struct {
	Name        string `json:"name"`
	SessionName string `json:"session_name,omitempty"`
}

type RestoreSnapshotResponse struct {
	SessionID string `json:"session_id"`
}

type DestroySessionRequest struct {
	SessionID string `json:"session_id"`
}

type DestroySessionResponse struct{}

type ListSessionsRequest struct{}

type SessionInfo struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name"`
	Halted    bool   `json:"halted"`
	IP        int    `json:"ip"`
	Steps     int64  `json:"steps"`
	Pending   int    `json:"pending"`
}

type ListSessionsResponse struct {
	Sessions []SessionInfo `json:"sessions"`
}
