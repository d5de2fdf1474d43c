package calibration

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/agbru/primecount/internal/config"
	apperrors "github.com/agbru/primecount/internal/errors"
)

const (
	// CurrentProfileVersion is bumped whenever the profile format or the
	// meaning of its fields changes; older profiles are then ignored.
	CurrentProfileVersion = 1
	// DefaultProfileFileName is the file name of the profile in the user's
	// home directory.
	DefaultProfileFileName = ".primecount_calibration.json"
	// ProfileMaxAge is how long a cached profile is trusted.
	ProfileMaxAge = 30 * 24 * time.Hour
)

// CalibrationProfile stores the job count measured by a calibration run and
// the hardware it was measured on.
type CalibrationProfile struct {
	ProfileVersion int       `json:"profile_version"`
	NumCPU         int       `json:"num_cpu"`
	GOARCH         string    `json:"goarch"`
	GOOS           string    `json:"goos"`
	GoVersion      string    `json:"go_version"`
	WordSize       int       `json:"word_size"`
	CalibratedAt   time.Time `json:"calibrated_at"`

	OptimalJobs     int    `json:"optimal_jobs"`
	CalibrationAlgo string `json:"calibration_algo"`
	CalibrationLow  uint64 `json:"calibration_low"`
	CalibrationHigh uint64 `json:"calibration_high"`
	CalibrationTime string `json:"calibration_time"`
}

// NewProfile returns a profile describing the current machine, with no
// measurement yet.
func NewProfile() *CalibrationProfile {
	return &CalibrationProfile{
		ProfileVersion: CurrentProfileVersion,
		NumCPU:         runtime.NumCPU(),
		GOARCH:         runtime.GOARCH,
		GOOS:           runtime.GOOS,
		GoVersion:      runtime.Version(),
		WordSize:       32 << (^uint(0) >> 63),
		CalibratedAt:   time.Now(),
	}
}

// IsValid reports whether the profile was measured on hardware matching the
// current machine with the current profile format.
func (p *CalibrationProfile) IsValid() bool {
	if p == nil {
		return false
	}
	current := NewProfile()
	return p.ProfileVersion == CurrentProfileVersion &&
		p.NumCPU == current.NumCPU &&
		p.GOARCH == current.GOARCH &&
		p.WordSize == current.WordSize
}

// IsStale reports whether the profile is older than maxAge.
func (p *CalibrationProfile) IsStale(maxAge time.Duration) bool {
	if p == nil {
		return true
	}
	return time.Since(p.CalibratedAt) > maxAge
}

func (p *CalibrationProfile) String() string {
	return fmt.Sprintf("calibration profile v%d: %d jobs on %d CPUs (%s/%s, %s), measured %s on %s [%d, %d] in %s",
		p.ProfileVersion, p.OptimalJobs, p.NumCPU, p.GOOS, p.GOARCH, p.GoVersion,
		p.CalibratedAt.Format(time.RFC3339), p.CalibrationAlgo, p.CalibrationLow, p.CalibrationHigh, p.CalibrationTime)
}

// SaveProfile writes the profile as indented JSON, creating parent
// directories as needed.
func (p *CalibrationProfile) SaveProfile(path string) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return apperrors.WrapError(err, "failed to encode calibration profile")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return apperrors.WrapError(err, "failed to create profile directory")
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.WrapError(err, "failed to write calibration profile")
	}
	return nil
}

func loadProfile(path string) (*CalibrationProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.WrapError(err, "failed to read calibration profile")
	}
	var p CalibrationProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, apperrors.WrapError(err, "failed to decode calibration profile %s", path)
	}
	return &p, nil
}

// LoadOrCreateProfile loads the profile at path. When it cannot be read a
// fresh profile is returned and loaded is false.
func LoadOrCreateProfile(path string) (profile *CalibrationProfile, loaded bool) {
	p, err := loadProfile(path)
	if err != nil {
		return NewProfile(), false
	}
	return p, true
}

// GetDefaultProfilePath returns ~/.primecount_calibration.json, or the file
// name alone when the home directory is unknown.
func GetDefaultProfilePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return DefaultProfileFileName
	}
	return filepath.Join(home, DefaultProfileFileName)
}

// LoadCachedCalibration applies the job count of a valid, fresh profile to
// cfg. A job count supplied by flag or environment is kept.
//
// Parameters:
//   - cfg: The parsed configuration.
//   - path: The profile path; empty selects GetDefaultProfilePath.
//
// Returns:
//   - config.AppConfig: cfg with the cached job count applied.
//   - bool: Whether a usable profile was found.
func LoadCachedCalibration(cfg config.AppConfig, path string) (config.AppConfig, bool) {
	if path == "" {
		path = GetDefaultProfilePath()
	}
	p, err := loadProfile(path)
	if err != nil || !p.IsValid() || p.IsStale(ProfileMaxAge) || p.OptimalJobs < 1 {
		return cfg, false
	}
	return config.WithJobs(cfg, p.OptimalJobs), true
}
