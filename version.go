package ringbuffer

// Library version. Components built separately that share a ring region
// compare these before attaching.
const (
	VersionMajor = 1
	VersionMinor = 0
	VersionPatch = 0

	VersionPacked = VersionMajor<<16 | VersionMinor<<8 | VersionPatch
)
