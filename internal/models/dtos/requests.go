package dtos

type StartSessionRequest struct {
	Kind        string `json:"kind"`
	Starts      string `json:"starts"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type StartVerificationRequest struct {
	RobloxUsername string `json:"roblox_username"`
	// UserID targets another member; empty means the caller.
	UserID   string `json:"user_id"`
	Reverify bool   `json:"reverify"`
}

type CompleteVerificationRequest struct {
	UserID string `json:"user_id"`
}

type PermissionRequest struct {
	UserID     string `json:"user_id"`
	Permission string `json:"permission"`
}

type TicketRoleRequest struct {
	RoleID string `json:"role_id"`
}

type OpenTicketRequest struct {
	ChannelID string `json:"channel_id"`
	Subject   string `json:"subject"`
}
