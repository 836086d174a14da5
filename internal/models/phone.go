// internal/models/phone.go
package models

// Phone is a catalog record as read by the finder.
type Phone struct {
	ID        int64  `json:"id,omitempty" db:"id"`
	Name      string `json:"name" db:"name"`
	URL       string `json:"url" db:"url"`
	PriceCOP  int    `json:"price_cop" db:"price_cop"`
	StorageGB int    `json:"storage_gb" db:"storage_gb"`
	RAMGB     int    `json:"ram_gb" db:"ram_gb"`
	CameraMP  int    `json:"camera_mp" db:"camera_mp"`
	Brand     string `json:"brand" db:"brand"`
}

// PhoneListing is the full row written by the harvester, including the
// ingestion-only columns the finder never reads.
type PhoneListing struct {
	Phone
	BatteryMAH   int     `json:"battery_mah,omitempty" db:"battery_mah"`
	ScreenSizeIn float64 `json:"screen_size_in,omitempty" db:"screen_size_in"`
	Processor    string  `json:"processor,omitempty" db:"processor"`
	OS           string  `json:"os,omitempty" db:"os"`
}

// SearchPath tags which tier of the search produced a result set.
type SearchPath string

const (
	SearchPathStrict  SearchPath = "strict"
	SearchPathRelaxed SearchPath = "relaxed"
)

// ResultSet is an ordered list of phones that all came from the same path.
type ResultSet struct {
	Path        SearchPath `json:"path"`
	Phones      []Phone    `json:"phones"`
	Explanation string     `json:"explanation,omitempty"`
}

// Empty reports whether the set has no phones.
func (r ResultSet) Empty() bool {
	return len(r.Phones) == 0
}

// Relaxed reports whether the brand constraint was dropped to build the set.
func (r ResultSet) Relaxed() bool {
	return r.Path == SearchPathRelaxed
}
