package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/truffle-roll/truffle/internal/calendar"
	"github.com/truffle-roll/truffle/internal/cashflow"
	"github.com/truffle-roll/truffle/internal/profile"
	"github.com/truffle-roll/truffle/internal/schema"
	"github.com/truffle-roll/truffle/internal/trod"
	"github.com/truffle-roll/truffle/pkg/logger"
)

const stdinName = "-"

// errNoSource is returned when neither or both of --schema and --trod are given
var errNoSource = errors.New("exactly one of --schema or --trod is required")

// openInput opens path for reading, "-" is stdin. Failures wrap unreadable.
func openInput(in io.Reader, path string, unreadable error) (io.ReadCloser, error) {
	if path == stdinName {
		return io.NopCloser(in), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", unreadable, err)
	}
	return f, nil
}

func loadSchema(in io.Reader, path string, log *logger.Logger) (*schema.Schema, error) {
	r, err := openInput(in, path, schema.ErrUnreadable)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	s, stats, err := schema.Parse(r, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(map[string]interface{}{
		"file":     path,
		"lines":    stats.Lines,
		"curves":   stats.Curves,
		"rejected": stats.Rejected,
	}).Debug("Schema loaded")
	return s, nil
}

func loadTrod(in io.Reader, path string, log *logger.Logger) (*trod.Log, error) {
	r, err := openInput(in, path, trod.ErrUnreadable)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	l, stats, err := trod.Parse(r, log)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.WithFields(map[string]interface{}{
		"file":      path,
		"lines":     stats.Lines,
		"events":    stats.Events,
		"rejected":  stats.Rejected,
		"discarded": stats.Discarded,
	}).Debug("Roll log loaded")
	return l, nil
}

// loadProducer builds the cut producer from a schema or a roll log
func loadProducer(in io.Reader, schemaPath, trodPath string, years int, log *logger.Logger) (cashflow.Producer, error) {
	switch {
	case (schemaPath == "") == (trodPath == ""):
		return nil, errNoSource
	case schemaPath != "":
		return loadSchema(in, schemaPath, log)
	default:
		l, err := loadTrod(in, trodPath, log)
		if err != nil {
			return nil, err
		}
		return trod.NewRoller(l, years), nil
	}
}

// parseDay reads a date that must carry a year
func parseDay(s string) (calendar.Date, error) {
	d, err := calendar.ParseDate(s)
	if err != nil {
		return d, err
	}
	if d.Year == 0 {
		return d, fmt.Errorf("%w: %q has no year", calendar.ErrBadDate, s)
	}
	return d, nil
}

// scanDates calls fn for every non-blank line of r
func scanDates(r io.Reader, fn func(string) error) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}

// loadProfile reads a run profile and reports its hash and warnings
func loadProfile(path string, log *logger.Logger) (*profile.Profile, error) {
	p, _, err := profile.Load(path)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", path, err)
	}

	hash, err := profile.Hash(p)
	if err != nil {
		log.WithError(err).Warnf("profile %s: hash unavailable", path)
	}
	log.WithFields(map[string]interface{}{
		"profile": p.Name,
		"hash":    hash,
	}).Info("Profile loaded")

	for _, w := range profile.Warn(p) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	return p, nil
}
