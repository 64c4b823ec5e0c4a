// Package store persists named contexts ("sessions") in SQLite so programs
// can be run against the same context across invocations.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/lacquerai/minijs/pkg/minijs"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MemoryPath opens a private in-memory database
const MemoryPath = ":memory:"

var (
	// ErrNotFound is returned when a session does not exist
	ErrNotFound = errors.New("session not found")
	// ErrInvalidName is returned for an empty session name
	ErrInvalidName = errors.New("session name must not be empty")
)

// Session is the stored row. Context holds the JSON encoded variables.
type Session struct {
	Name      string    `gorm:"primaryKey" json:"name"`
	Context   string    `gorm:"type:text;not null" json:"-"`
	Runs      int64     `gorm:"not null;default:0" json:"runs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Info describes a session without its context
type Info struct {
	Name      string    `json:"name" yaml:"name"`
	Runs      int64     `json:"runs" yaml:"runs"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}

// Store is a session store backed by gorm
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the database at path and migrates it
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open session store %s: %w", path, err)
	}

	if path == MemoryPath {
		// every pooled connection would otherwise see its own empty database
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if err := db.AutoMigrate(&Session{}); err != nil {
		return nil, fmt.Errorf("failed to migrate session store: %w", err)
	}

	log.Debug().Str("path", path).Msg("Opened session store")
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Get returns the context stored under name
func (s *Store) Get(ctx context.Context, name string) (map[string]interface{}, error) {
	session, err := load(s.db.WithContext(ctx), name)
	if err != nil {
		return nil, err
	}
	return decode(session.Context)
}

// Put creates or replaces the context stored under name
func (s *Store) Put(ctx context.Context, name string, vars map[string]interface{}) error {
	if name == "" {
		return ErrInvalidName
	}
	data, err := encode(vars)
	if err != nil {
		return err
	}

	session := &Session{Name: name, Context: data}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"context", "updated_at"}),
	}).Create(session).Error
	if err != nil {
		return fmt.Errorf("failed to save session %s: %w", name, err)
	}

	log.Debug().Str("session", name).Int("vars", len(vars)).Msg("Saved session")
	return nil
}

// Delete removes the session called name
func (s *Store) Delete(ctx context.Context, name string) error {
	result := s.db.WithContext(ctx).Where("name = ?", name).Delete(&Session{})
	if result.Error != nil {
		return fmt.Errorf("failed to delete session %s: %w", name, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every session ordered by name
func (s *Store) List(ctx context.Context) ([]Info, error) {
	var sessions []Session
	if err := s.db.WithContext(ctx).Order("name").Find(&sessions).Error; err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	infos := make([]Info, len(sessions))
	for i, session := range sessions {
		infos[i] = Info{
			Name:      session.Name,
			Runs:      session.Runs,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
		}
	}
	return infos, nil
}

// Run evaluates source against the session's context and stores the result.
// Loading, evaluating and saving happen in one transaction, so a failed run
// leaves the session untouched.
func (s *Store) Run(ctx context.Context, name, source string, options ...minijs.Option) (map[string]interface{}, error) {
	var out map[string]interface{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := load(tx, name)
		if err != nil {
			return err
		}
		vars, err := decode(session.Context)
		if err != nil {
			return err
		}

		out, err = minijs.Run(source, vars, options...)
		if err != nil {
			return err
		}

		data, err := encode(out)
		if err != nil {
			return err
		}
		return tx.Model(session).Updates(map[string]interface{}{
			"context": data,
			"runs":    gorm.Expr("runs + 1"),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("session", name).Msg("Ran program against session")
	return out, nil
}

func load(db *gorm.DB, name string) (*Session, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	var session Session
	err := db.Where("name = ?", name).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %s: %w", name, err)
	}
	return &session, nil
}

func encode(vars map[string]interface{}) (string, error) {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	data, err := json.Marshal(vars)
	if err != nil {
		return "", fmt.Errorf("failed to encode context: %w", err)
	}
	return string(data), nil
}

func decode(data string) (map[string]interface{}, error) {
	vars := map[string]interface{}{}
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&vars); err != nil {
		return nil, fmt.Errorf("failed to decode context: %w", err)
	}
	for k, v := range vars {
		vars[k] = Normalize(v)
	}
	return vars, nil
}

// Normalize turns integral float64 values and json.Number values produced by
// JSON or YAML decoding into ints, including inside nested mappings.
func Normalize(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Normalize(i)
		}
		f, err := val.Float64()
		if err != nil {
			return val.String()
		}
		return Normalize(f)
	case int64:
		if n := int(val); int64(n) == val {
			return n
		}
		return val
	case float64:
		if val == math.Trunc(val) && math.Abs(val) <= 1<<53 {
			return int(val)
		}
		return val
	case map[string]interface{}:
		for k, item := range val {
			val[k] = Normalize(item)
		}
		return val
	default:
		return v
	}
}
