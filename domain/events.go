package domain

// Wire event names. Inbound names carry the ma: prefix (message agent),
// outbound the ms: prefix (message server). They must stay stable for
// interop with unmodified peers.
const (
	// Inbound (client -> relay).
	EventMAConnect    = "ma:connect"
	EventMADisconnect = "ma:disconnect"
	EventMAList       = "ma:list"
	EventMARequest    = "ma:request"
	EventMAMessage    = "ma:message"

	// Outbound (relay -> client).
	EventMSConnect    = "ms:connect"
	EventMSDisconnect = "ms:disconnect"
	EventMSJoin       = "ms:join"
	EventMSPart       = "ms:part"
	EventMSList       = "ms:list"
	EventMSResponse   = "ms:response"
	EventMSMessage    = "ms:message"
	EventMSError      = "ms:error"
)
