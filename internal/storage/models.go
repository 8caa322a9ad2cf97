package storage

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// CachedRoute holds one raw upstream route-sequence response, keyed by
// line and direction. It backs the offline fallback when the live API
// is unreachable.
type CachedRoute struct {
	gorm.Model
	LineID    string `gorm:"index:idx_route_line_dir,unique"`
	Direction string `gorm:"index:idx_route_line_dir,unique"`
	FetchedAt time.Time
	Payload   datatypes.JSON
}

// Preference is a persisted key/value user setting, such as the last
// chosen time scale or camera mode.
type Preference struct {
	Key   string `gorm:"primaryKey"`
	Value string
}

// BuildReport records the outcome of one full network build.
type BuildReport struct {
	gorm.Model
	StartedAt   time.Time
	FinishedAt  time.Time
	LinesBuilt  int
	LinesFailed int
	Stations    int
	Trains      int
	Summary     string
}

// BranchGeometry persists one built branch centerline as WKB, so a
// restarted process can restore the scene without refetching or
// rebuilding every line.
type BranchGeometry struct {
	gorm.Model
	LineID       string `gorm:"index"`
	BranchIdx    int
	Stations     int
	LengthMetres float64
	WKB          []byte
}

// DatabaseModels lists every table the store migrates.
var DatabaseModels = []any{
	&CachedRoute{},
	&Preference{},
	&BuildReport{},
	&BranchGeometry{},
}
