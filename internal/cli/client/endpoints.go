package client

const (
	apiV1Prefix = "/api/v1"

	// Authentication endpoints
	endpointLogin = apiV1Prefix + "/auth/login"

	// Chat endpoints
	endpointChatSend   = apiV1Prefix + "/chat/send"
	endpointChatStream = apiV1Prefix + "/chat/stream"

	// History and maintenance endpoints
	endpointHistory = apiV1Prefix + "/workflows/%s/history" // GET
	endpointCleanup = apiV1Prefix + "/maintenance/cleanup"  // POST
)
