package constants

type (
	RequestSource string
	APIStatus     string
	CachePrefix   string
)

const (
	RequestSourceAPIKey RequestSource = "API_KEY"
	RequestSourceJWT    RequestSource = "JWT"

	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixRobloxUserID CachePrefix = "RBX_UID_"
	CachePrefixGroupRank    CachePrefix = "RBX_RANK_"
	CachePrefixMemberCount  CachePrefix = "GUILD_MEMBERS_"
)

// Request headers set by the bot on every API-key authenticated call.
const (
	HeaderAPIKey         = "X-API-Key"
	HeaderServerID       = "X-Server-Id"
	HeaderDiscordID      = "X-Discord-Id"
	HeaderDiscordElevate = "X-Discord-Elevated"
	HeaderDiscordRoles   = "X-Discord-Roles"
	HeaderRequestID      = "X-Request-ID"
)
