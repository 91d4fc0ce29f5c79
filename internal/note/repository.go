package note

import (
	"context"
	"time"

	"note-sharing-service/internal/domain"

	"gorm.io/gorm"
)

// NoteRepository owns note rows. Notes are keyed (owner_id, note_id)
// with note ids allocated per owner, so everything here filters on the
// composite key and multi-row changes for one note share a transaction.
type NoteRepository interface {
	Create(ctx context.Context, ownerID string) (*domain.Note, error)
	FindByID(ctx context.Context, ownerID string, noteID uint64) (*domain.Note, error)
	Exists(ctx context.Context, ownerID string, noteID uint64) (bool, error)
	Update(ctx context.Context, ownerID string, noteID uint64, title, content string) error
	Delete(ctx context.Context, ownerID string, noteID uint64) ([]string, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Note, error)
}

type NoteRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new note repository
func NewRepository(db *gorm.DB) NoteRepository {
	return &NoteRepositoryImpl{db: db}
}

// Create inserts the note with the default title and empty content.
// Note ids come from the shared sequence, so they stay unique and
// monotonic within each owner's scope and never get reused after a
// delete. The single insert makes creation atomic; the ACL container
// is purely the entry rows keyed by the note, so it exists (empty) the
// moment the note does.
func (r *NoteRepositoryImpl) Create(ctx context.Context, ownerID string) (*domain.Note, error) {
	note := domain.Note{
		OwnerID:   ownerID,
		Title:     domain.DefaultNoteTitle,
		Content:   "",
		CreatedAt: time.Now().UTC(),
	}

	if err := r.db.WithContext(ctx).Create(&note).Error; err != nil {
		return nil, err
	}

	return &note, nil
}

// FindByID fetches one note
func (r *NoteRepositoryImpl) FindByID(ctx context.Context, ownerID string, noteID uint64) (*domain.Note, error) {
	var note domain.Note
	err := r.db.WithContext(ctx).
		First(&note, "owner_id = ? AND note_id = ?", ownerID, noteID).Error
	if err != nil {
		return nil, err
	}
	return &note, nil
}

// Exists reports whether the note is present
func (r *NoteRepositoryImpl) Exists(ctx context.Context, ownerID string, noteID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("owner_id = ? AND note_id = ?", ownerID, noteID).
		Count(&count).Error
	return count > 0, err
}

// Update applies a partial edit. An empty title or content means "keep
// the current value". last_edited_at is stamped on every successful
// edit.
func (r *NoteRepositoryImpl) Update(ctx context.Context, ownerID string, noteID uint64, title, content string) error {
	updates := map[string]any{
		"last_edited_at": time.Now().UTC(),
	}
	if title != "" {
		updates["title"] = title
	}
	if content != "" {
		updates["content"] = content
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Note{}).
		Where("owner_id = ? AND note_id = ?", ownerID, noteID).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes the note together with its ACL rows and every
// shared-index row pointing at it, in one transaction. Returns the
// grantee ids that were on the ACL so callers can invalidate their
// cached listings.
func (r *NoteRepositoryImpl) Delete(ctx context.Context, ownerID string, noteID uint64) ([]string, error) {
	var grantees []string

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.AccessEntry{}).
			Where("owner_id = ? AND note_id = ?", ownerID, noteID).
			Pluck("grantee_id", &grantees).Error; err != nil {
			return err
		}

		if err := tx.Where("owner_id = ? AND note_id = ?", ownerID, noteID).
			Delete(&domain.SharedNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ? AND note_id = ?", ownerID, noteID).
			Delete(&domain.AccessEntry{}).Error; err != nil {
			return err
		}

		result := tx.Where("owner_id = ? AND note_id = ?", ownerID, noteID).
			Delete(&domain.Note{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return grantees, nil
}

// ListByOwner returns all notes owned by ownerID, oldest first
func (r *NoteRepositoryImpl) ListByOwner(ctx context.Context, ownerID string) ([]domain.Note, error) {
	var notes []domain.Note
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("note_id ASC").
		Find(&notes).Error
	return notes, err
}
