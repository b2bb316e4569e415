package profiles

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"lookout/pkg/logging"
)

// UserProfile is a registered briefing recipient. Profiles are owned by the
// intake subsystem; this store only reads them.
type UserProfile struct {
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	BriefingTime string    `json:"briefing_time"`
	Topics       []string  `json:"topics"`
	CreatedAt    time.Time `json:"created_at"`
	Version      int       `json:"version,omitempty"`
}

// Validate checks the profile fields the pipeline depends on.
func (p UserProfile) Validate() error {
	if p.Email == "" || !strings.Contains(p.Email, "@") {
		return fmt.Errorf("invalid email %q", p.Email)
	}
	if p.BriefingTime != "" {
		if _, err := time.Parse("15:04", p.BriefingTime); err != nil {
			return fmt.Errorf("invalid briefing_time %q", p.BriefingTime)
		}
	}
	if len(p.Topics) == 0 {
		return fmt.Errorf("profile %s has no topics", p.Email)
	}
	return nil
}

// Store reads user profiles from a line-delimited JSON file.
type Store struct {
	path   string
	logger logging.Logger
}

// NewStore creates a profile store reading from the given JSONL path.
func NewStore(path string, logger logging.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// List returns all valid profiles in file order. Invalid lines are skipped
// with a warning rather than failing the whole read.
func (s *Store) List() ([]UserProfile, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open profiles: %w", err)
	}
	defer f.Close()

	var out []UserProfile
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var p UserProfile
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			s.logger.WithFields(logging.Fields{
				"line":  lineNo,
				"error": err.Error(),
			}).Warn("Skipping malformed profile line")
			continue
		}
		if err := p.Validate(); err != nil {
			s.logger.WithFields(logging.Fields{
				"line":  lineNo,
				"error": err.Error(),
			}).Warn("Skipping invalid profile")
			continue
		}
		out = append(out, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}

	return out, nil
}

// Get returns the profile with the given email, or false if not registered.
func (s *Store) Get(email string) (UserProfile, bool, error) {
	all, err := s.List()
	if err != nil {
		return UserProfile{}, false, err
	}
	needle := strings.ToLower(strings.TrimSpace(email))
	for _, p := range all {
		if strings.ToLower(p.Email) == needle {
			return p, true, nil
		}
	}
	return UserProfile{}, false, nil
}
