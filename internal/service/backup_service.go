package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"go.uber.org/zap"

	"oraia/internal/database"
	"oraia/internal/models"
	"oraia/internal/repository"
	"oraia/internal/utils"
)

// BackupVersion is written to every export
const BackupVersion = "1.0"

// BackupData is the complete user-state backup
type BackupData struct {
	Version      string        `json:"version"`
	ExportedAt   time.Time     `json:"exported_at"`
	DatabaseType string        `json:"database_type"`
	Lists        []ListBackup  `json:"lists"`
	Entries      []EntryBackup `json:"entries"`
	States       []StateBackup `json:"states"`
}

// ListBackup represents a vocabulary list for backup
type ListBackup struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// EntryBackup represents list membership for backup
type EntryBackup struct {
	List      string    `json:"list"`
	LemmaID   int64     `json:"lemma"`
	CreatedAt time.Time `json:"created_at"`
}

// StateBackup represents a lemma_user_state row for backup. Unset fields
// are omitted so that a restore keeps deferring to the dataset.
type StateBackup struct {
	LemmaID        int64     `json:"lemma"`
	IsFavorite     *bool     `json:"is_favorite,omitempty"`
	LearningStatus *string   `json:"learning_status,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// LemmaChecker reports whether the dataset holds a lemma
type LemmaChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

// ImportReport summarises a restore. Entries and states naming lemmas the
// dataset does not hold are skipped and listed in UnknownLemmas.
type ImportReport struct {
	Lists         int
	Entries       int
	States        int
	UnknownLemmas []int64
}

// BackupService exports and restores the user-state store
type BackupService struct {
	db     *database.DB
	lists  *repository.ListRepository
	states *repository.UserStateRepository
	lemmas LemmaChecker
	logger *zap.Logger
}

// NewBackupService creates a new backup service. lemmas may be nil when no
// dataset is available; export still works but import is refused.
func NewBackupService(db *database.DB, lemmas LemmaChecker, logger *zap.Logger) *BackupService {
	return &BackupService{
		db:     db,
		lists:  repository.NewListRepository(db, logger),
		states: repository.NewUserStateRepository(db, logger),
		lemmas: lemmas,
		logger: logger,
	}
}

// Export writes a backup of the user-state store to a file
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	s.logger.Info("user data exported", zap.String("path", outputPath))
	return nil
}

// ExportToWriter writes a backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:      BackupVersion,
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.MigrationsSubdir(),
	}

	if err := s.exportLists(ctx, backup); err != nil {
		return fmt.Errorf("failed to export lists: %w", err)
	}
	if err := s.exportStates(ctx, backup); err != nil {
		return fmt.Errorf("failed to export user states: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.logger.Info("backup written",
		zap.Int("lists", len(backup.Lists)),
		zap.Int("entries", len(backup.Entries)),
		zap.Int("states", len(backup.States)))
	return nil
}

func (s *BackupService) exportLists(ctx context.Context, backup *BackupData) error {
	lists, err := s.lists.All(ctx)
	if err != nil {
		return err
	}
	for _, l := range lists {
		backup.Lists = append(backup.Lists, ListBackup{Title: l.Title, Description: l.Description})
	}

	entries, err := s.lists.AllEntries(ctx)
	if err != nil {
		return err
	}
	for _, e := range entries {
		backup.Entries = append(backup.Entries, EntryBackup{List: e.ListTitle, LemmaID: e.LemmaID, CreatedAt: e.CreatedAt})
	}
	return nil
}

func (s *BackupService) exportStates(ctx context.Context, backup *BackupData) error {
	states, err := s.states.All(ctx)
	if err != nil {
		return err
	}
	for _, st := range states {
		b := StateBackup{LemmaID: st.LemmaID, IsFavorite: st.IsFavorite, UpdatedAt: st.UpdatedAt}
		if st.Status != nil {
			name := st.Status.String()
			b.LearningStatus = &name
		}
		backup.States = append(backup.States, b)
	}
	return nil
}

// Import restores a backup file
func (s *BackupService) Import(ctx context.Context, inputPath string) (*ImportReport, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ImportFromReader restores a backup. Import is additive: existing lists
// and entries are kept, and stored states are overwritten field by field.
// Importing the same backup twice leaves the store unchanged. The whole
// backup is validated before anything is written.
func (s *BackupService) ImportFromReader(ctx context.Context, reader io.Reader) (*ImportReport, error) {
	if s.lemmas == nil {
		return nil, database.NotFoundError("import backup", "lexicon dataset")
	}

	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	if backup.Version != BackupVersion {
		return nil, fmt.Errorf("unsupported backup version %q", backup.Version)
	}

	s.logger.Info("importing backup",
		zap.String("version", backup.Version),
		zap.Time("exported_at", backup.ExportedAt))

	states, err := validateBackup(&backup)
	if err != nil {
		return nil, err
	}

	known := &lemmaIndex{checker: s.lemmas, seen: make(map[int64]bool)}
	report := &ImportReport{}
	if err := s.importLists(ctx, backup.Lists, backup.Entries, known, report); err != nil {
		return nil, fmt.Errorf("failed to import lists: %w", err)
	}
	if err := s.importStates(ctx, states, known, report); err != nil {
		return nil, fmt.Errorf("failed to import user states: %w", err)
	}
	report.UnknownLemmas = known.unknown

	if len(report.UnknownLemmas) > 0 {
		s.logger.Warn("skipped backup rows for unknown lemmas", zap.Int64s("lemma_ids", report.UnknownLemmas))
	}
	s.logger.Info("backup imported",
		zap.Int("lists", report.Lists),
		zap.Int("entries", report.Entries),
		zap.Int("states", report.States))
	return report, nil
}

// validateBackup trims and checks list titles in place and parses states
func validateBackup(backup *BackupData) ([]models.UserLemmaState, error) {
	for i := range backup.Lists {
		title, err := utils.ValidateListTitle(backup.Lists[i].Title)
		if err != nil {
			return nil, fmt.Errorf("list %d: %w", i, err)
		}
		backup.Lists[i].Title = title
	}
	for i := range backup.Entries {
		title, err := utils.ValidateListTitle(backup.Entries[i].List)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		backup.Entries[i].List = title
	}

	states := make([]models.UserLemmaState, 0, len(backup.States))
	for _, b := range backup.States {
		st := models.UserLemmaState{LemmaID: b.LemmaID, IsFavorite: b.IsFavorite}
		if b.LearningStatus != nil {
			status, err := models.ParseLearningStatus(*b.LearningStatus)
			if err != nil {
				return nil, fmt.Errorf("lemma %d: %w", b.LemmaID, err)
			}
			st.Status = &status
		}
		states = append(states, st)
	}
	return states, nil
}

// lemmaIndex memoises dataset lookups and records unknown ids once each
type lemmaIndex struct {
	checker LemmaChecker
	seen    map[int64]bool
	unknown []int64
}

func (idx *lemmaIndex) exists(ctx context.Context, id int64) (bool, error) {
	if ok, cached := idx.seen[id]; cached {
		return ok, nil
	}
	ok, err := idx.checker.Exists(ctx, id)
	if err != nil {
		return false, err
	}
	idx.seen[id] = ok
	if !ok {
		idx.unknown = append(idx.unknown, id)
	}
	return ok, nil
}

func (s *BackupService) importLists(ctx context.Context, lists []ListBackup, entries []EntryBackup, known *lemmaIndex, report *ImportReport) error {
	for _, l := range lists {
		created, err := s.lists.Create(ctx, l.Title, l.Description)
		if err != nil {
			return fmt.Errorf("list %q: %w", l.Title, err)
		}
		if created {
			report.Lists++
		}
	}
	for _, e := range entries {
		ok, err := known.exists(ctx, e.LemmaID)
		if err != nil {
			return fmt.Errorf("entry %q/%d: %w", e.List, e.LemmaID, err)
		}
		if !ok {
			continue
		}
		// entries may name a list missing from the lists section
		created, err := s.lists.Create(ctx, e.List, "")
		if err != nil {
			return fmt.Errorf("list %q: %w", e.List, err)
		}
		if created {
			report.Lists++
		}
		entry := models.VocabularyListEntry{ListTitle: e.List, LemmaID: e.LemmaID, CreatedAt: e.CreatedAt}
		if err := s.lists.RestoreEntry(ctx, entry); err != nil {
			return fmt.Errorf("entry %q/%d: %w", e.List, e.LemmaID, err)
		}
		report.Entries++
	}
	return nil
}

func (s *BackupService) importStates(ctx context.Context, states []models.UserLemmaState, known *lemmaIndex, report *ImportReport) error {
	for _, st := range states {
		ok, err := known.exists(ctx, st.LemmaID)
		if err != nil {
			return fmt.Errorf("lemma %d: %w", st.LemmaID, err)
		}
		if !ok {
			continue
		}
		if err := s.states.Upsert(ctx, st); err != nil {
			return fmt.Errorf("lemma %d: %w", st.LemmaID, err)
		}
		report.States++
	}
	return nil
}
