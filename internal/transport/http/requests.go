package http

type createProposalRequest struct {
	Title             string  `json:"title" validate:"required,min=3,max=255"`
	Description       string  `json:"description" validate:"required,min=5"`
	RequestedBy       *string `json:"requested_by" validate:"omitempty,custom_id,min=1,max=100"`
	Priority          string  `json:"priority" validate:"omitempty,oneof=low medium high critical"`
	Category          string  `json:"category" validate:"omitempty,max=100"`
	RequiredApprovals int     `json:"required_approvals" validate:"omitempty,min=1,max=100"`
}

type castVoteRequest struct {
	Decision string  `json:"decision" validate:"required,oneof=approved rejected"`
	Comments *string `json:"comments" validate:"omitempty,max=2000"`
}
