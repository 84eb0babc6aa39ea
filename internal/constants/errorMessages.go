package constants

const (
	MsgInvalidStarts        = "Please provide information about the session."
	MsgPadUnavailable       = "Pad is currently in use"
	MsgSessionAlreadyActive = "You already have an active session"
	MsgSessionNotFound      = "This session appears to have already ended."
	MsgSessionAccessDenied  = "Only the session owner or server owner can end this session."
	MsgMissingPermission    = "You don't have permission to use this command."
	MsgOwnerOnly            = "Only server owners can perform this action."
)

const (
	MsgAlreadyVerified       = "User is already verified. Use reverify to update their verification."
	MsgNoPendingVerification = "No pending verification found"
	MsgVerificationExpired   = "Verification code has expired"
	MsgRobloxUserNotFound    = "Roblox user not found"
	MsgCodeNotInDescription  = "Verification code not found in profile description"
	MsgExternalUnavailable   = "Roblox is not reachable right now, please try again"
	MsgNotVerified           = "User is not verified. Use verify to link a Roblox account first."
)

const (
	MsgTicketExists       = "You already have an open ticket"
	MsgNotATicket         = "This command can only be used in ticket channels."
	MsgTicketAccessDenied = "You don't have permission to close this ticket."
)
