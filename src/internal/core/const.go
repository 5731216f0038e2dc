// FILE: logship/src/internal/core/const.go
package core

import "time"

// Buffer and chunk limits
const (
	DefaultCapacityBytes int64 = 12 * 1024 * 1024 // 12 MB
	DefaultMaxChunkBytes int64 = 1536 * 1024      // 1.5 MB
)

// Scheduler cadence
const (
	DefaultNormalInterval = 500 * time.Millisecond
	DefaultFastInterval   = 100 * time.Millisecond
	DefaultSyncInterval   = 5 * time.Minute
)

// Placeholders used when Configure receives blank values
const (
	NoPrivateKey      = "NO_PRIVATE_KEY"
	NoApplicationName = "NO_APP_NAME"
	NoSubsystemName   = "NO_SUB_NAME"
	NoComputerName    = "NO_COMPUTER_NAME"
)

// SDKCategory is the category of entries generated by logship itself.
const SDKCategory = "LOGSHIP"
