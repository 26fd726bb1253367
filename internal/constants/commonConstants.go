package constants

type (
	APIStatus   string
	CachePrefix string
)

const (
	APIStatusOk    APIStatus = "ok"
	APIStatusError APIStatus = "error"

	CachePrefixUnitTypeIndex CachePrefix = "UNIT_TYPES_"
	CachePrefixSyncLock      CachePrefix = "sync-lock:"
)
