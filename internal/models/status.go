package models

// Scenario statuses.
const (
	StatusDraft             = "draft"
	StatusInReview          = "in_review"
	StatusRevisionRequested = "revision_requested"
	StatusApproved          = "approved"
	StatusSentForApproval   = "sent_for_approval"
)

// Work item states.
const (
	WorkNotStarted    = "not_started"
	WorkInProgress    = "in_progress"
	WorkSubmitted     = "submitted"
	WorkApproved      = "approved"
	WorkNeedsRevision = "needs_revision"
)

// ValidWorkState reports whether s is a known work item state.
func ValidWorkState(s string) bool {
	switch s {
	case WorkNotStarted, WorkInProgress, WorkSubmitted, WorkApproved, WorkNeedsRevision:
		return true
	}
	return false
}

// StatusDisplayInfo contains display information for a scenario status
type StatusDisplayInfo struct {
	DisplayName string `json:"displayName"`
	BgColor     string `json:"bgColor"`
	TextColor   string `json:"textColor"`
	BorderColor string `json:"borderColor"`
}

var statusDisplay = map[string]StatusDisplayInfo{
	StatusDraft: {
		DisplayName: "Taslak",
		BgColor:     "#E6E6E6",
		TextColor:   "#333",
		BorderColor: "#8C8C8C",
	},
	StatusInReview: {
		DisplayName: "İncelemede",
		BgColor:     "#E6F3FF",
		TextColor:   "#0066CC",
		BorderColor: "#4EC6E0",
	},
	StatusRevisionRequested: {
		DisplayName: "Revizyon İstendi",
		BgColor:     "#FFE6E6",
		TextColor:   "#CC0000",
		BorderColor: "#dc3545",
	},
	StatusApproved: {
		DisplayName: "Onaylandı",
		BgColor:     "#E6FFE6",
		TextColor:   "#006600",
		BorderColor: "#28a745",
	},
	StatusSentForApproval: {
		DisplayName: "Onaya Gönderildi",
		BgColor:     "#FFF4E6",
		TextColor:   "#8B6914",
		BorderColor: "#FFA500",
	},
}

// GetStatusDisplayInfo returns display information for a given status.
// A status of approved with sentAt set is the final approval.
func GetStatusDisplayInfo(status string, sent bool) StatusDisplayInfo {
	if status == StatusApproved && sent {
		return StatusDisplayInfo{
			DisplayName: "Kesin Onaylı",
			BgColor:     "#E6FFE6",
			TextColor:   "#004d00",
			BorderColor: "#1e7e34",
		}
	}
	if info, ok := statusDisplay[status]; ok {
		return info
	}
	return StatusDisplayInfo{
		DisplayName: status,
		BgColor:     "#E6E6E6",
		TextColor:   "#333",
		BorderColor: "#8C8C8C",
	}
}
