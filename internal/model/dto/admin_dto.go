package dto

// RejectRequest 驳回原因
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// VerificationDecisionRequest 认证审核
type VerificationDecisionRequest struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" binding:"max=500"`
}

// PlatformStats 后台统计
type PlatformStats struct {
	Users                int64 `json:"users"`
	ActiveListings       int64 `json:"active_listings"`
	PendingListings      int64 `json:"pending_listings"`
	ActivePasses         int64 `json:"active_passes"`
	MessagesToday        int64 `json:"messages_today"`
	PendingVerifications int64 `json:"pending_verifications"`
}

// AdminListRequest 后台分页参数
type AdminListRequest struct {
	Page     int    `form:"page,default=1"`
	PageSize int    `form:"page_size,default=20"`
	Status   string `form:"status"`
}
