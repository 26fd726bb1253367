package constants

const (
	MsgSyncInProgress       = "A sync is already running for this property"
	MsgTenantMismatch       = "Session is not allowed to sync this property"
	MsgMissingTenant        = "tenant_id is required"
	MsgStreamingUnsupported = "Streaming is not supported by this connection"
)
