package note

import (
	"context"
	defError "errors"
	"fmt"
	"log"
	"time"

	"note-sharing-service/internal/domain"
	"note-sharing-service/internal/errors"
	"note-sharing-service/internal/worker"
	"note-sharing-service/redis"

	"gorm.io/gorm"
)

// Shared by not-found and no-permission paths so note ids can't be
// probed by comparing responses.
const msgNoteUnavailable = "Note not found or no permission"

// Service is the access controller: every capability-gated operation
// goes through here, and it keeps the shared index in step with the ACL
// on every grant and revoke.
type Service interface {
	CreateNote(ctx context.Context, ownerID string) (*domain.Note, error)
	GetNote(ctx context.Context, requesterID, ownerID string, noteID uint64) (*domain.Note, error)
	EditNote(ctx context.Context, requesterID, ownerID string, noteID uint64, title, content string) error
	DeleteNote(ctx context.Context, requesterID, ownerID string, noteID uint64) error
	ListVisible(ctx context.Context, userID string) ([]NoteSummary, error)

	HasPermission(ctx context.Context, ownerID string, noteID uint64, requesterID string, perm domain.Permission) (bool, error)
	GetPermissions(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) (domain.PermissionSet, error)
	Share(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) error
	SetPermission(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string, perm string, value bool) error
	DeleteShare(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) error
}

type UserProvider interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

type DefaultService struct {
	notes NoteRepository
	perms PermissionRepository
	index SharedIndexRepository
	users UserProvider
	cache *redis.Cache
	pool  *worker.WorkerPool
}

func NewService(
	notes NoteRepository,
	perms PermissionRepository,
	index SharedIndexRepository,
	users UserProvider,
	cache *redis.Cache,
	pool *worker.WorkerPool,
) Service {
	return &DefaultService{
		notes: notes,
		perms: perms,
		index: index,
		users: users,
		cache: cache,
		pool:  pool,
	}
}

// NoteSummary is one entry of a visible-notes listing
type NoteSummary struct {
	OwnerID      string     `json:"owner_id"`
	NoteID       uint64     `json:"note_id"`
	Title        string     `json:"title"`
	CreatedAt    time.Time  `json:"created_at"`
	LastEditedAt *time.Time `json:"last_edited_at"`
	Shared       bool       `json:"shared"` // true when the viewer is not the owner
}

func (s *DefaultService) CreateNote(ctx context.Context, ownerID string) (*domain.Note, error) {
	note, err := s.notes.Create(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	s.bumpVisible(ctx, ownerID)
	return note, nil
}

func (s *DefaultService) GetNote(ctx context.Context, requesterID, ownerID string, noteID uint64) (*domain.Note, error) {
	ok, err := s.HasPermission(ctx, ownerID, noteID, requesterID, domain.PermissionRead)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.NotFound(msgNoteUnavailable, nil)
	}

	note, err := s.notes.FindByID(ctx, ownerID, noteID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound(msgNoteUnavailable, err)
	}
	if err != nil {
		return nil, err
	}
	return note, nil
}

func (s *DefaultService) EditNote(ctx context.Context, requesterID, ownerID string, noteID uint64, title, content string) error {
	ok, err := s.HasPermission(ctx, ownerID, noteID, requesterID, domain.PermissionWrite)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound(msgNoteUnavailable, nil)
	}

	err = s.notes.Update(ctx, ownerID, noteID, title, content)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound(msgNoteUnavailable, err)
	}
	if err != nil {
		return err
	}

	// Title may have changed in every grantee's listing too
	s.bumpVisible(ctx, ownerID)
	s.bumpGrantees(ctx, ownerID, noteID)
	return nil
}

func (s *DefaultService) DeleteNote(ctx context.Context, requesterID, ownerID string, noteID uint64) error {
	ok, err := s.HasPermission(ctx, ownerID, noteID, requesterID, domain.PermissionDelete)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NotFound(msgNoteUnavailable, nil)
	}

	grantees, err := s.notes.Delete(ctx, ownerID, noteID)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound(msgNoteUnavailable, err)
	}
	if err != nil {
		return err
	}

	s.bumpVisible(ctx, ownerID)
	for _, granteeID := range grantees {
		s.bumpVisible(ctx, granteeID)
	}
	return nil
}

// ListVisible returns the union of the user's own notes and the notes
// shared with them. A dangling index entry (note already deleted) is
// skipped and queued for repair, never surfaced.
func (s *DefaultService) ListVisible(ctx context.Context, userID string) ([]NoteSummary, error) {
	versionKey := fmt.Sprintf("user:%s:notes:version", userID)
	v := s.cache.GetVersion(ctx, versionKey)
	cacheKey := fmt.Sprintf("notes:u:%s:v:%d", userID, v)

	var cached []NoteSummary
	if found, _ := s.cache.Get(ctx, cacheKey, &cached); found {
		return cached, nil
	}

	owned, err := s.notes.ListByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]NoteSummary, 0, len(owned))
	for _, n := range owned {
		summaries = append(summaries, NoteSummary{
			OwnerID:      n.OwnerID,
			NoteID:       n.NoteID,
			Title:        n.Title,
			CreatedAt:    n.CreatedAt,
			LastEditedAt: n.LastEditedAt,
		})
	}

	shared, err := s.index.List(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, entry := range shared {
		n, err := s.notes.FindByID(ctx, entry.OwnerID, entry.NoteID)
		if defError.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("[INFO] stale shared-index entry (%s, %d) for %s, scheduling repair", entry.OwnerID, entry.NoteID, userID)
			s.scheduleRepair(entry.OwnerID, entry.NoteID)
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, NoteSummary{
			OwnerID:      n.OwnerID,
			NoteID:       n.NoteID,
			Title:        n.Title,
			CreatedAt:    n.CreatedAt,
			LastEditedAt: n.LastEditedAt,
			Shared:       true,
		})
	}

	go s.cache.Set(context.Background(), cacheKey, summaries, 24*time.Hour)

	return summaries, nil
}

// HasPermission answers "may requester perform perm on (owner, note)?".
// The owner always may, with no ACL row involved. A check against a
// nonexistent note is false, never an error.
func (s *DefaultService) HasPermission(ctx context.Context, ownerID string, noteID uint64, requesterID string, perm domain.Permission) (bool, error) {
	exists, err := s.notes.Exists(ctx, ownerID, noteID)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}

	if requesterID == ownerID {
		return true, nil
	}

	set, err := s.perms.Get(ctx, ownerID, noteID, requesterID)
	if err != nil {
		return false, err
	}
	return set.Has(perm), nil
}

// GetPermissions returns the capability flags granted to targetID.
// Only the owner or the target themself may ask.
func (s *DefaultService) GetPermissions(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) (domain.PermissionSet, error) {
	if requesterID != ownerID && requesterID != targetID {
		return domain.PermissionSet{}, errors.NotFound(msgNoteUnavailable, nil)
	}

	exists, err := s.notes.Exists(ctx, ownerID, noteID)
	if err != nil {
		return domain.PermissionSet{}, err
	}
	if !exists {
		return domain.PermissionSet{}, errors.NotFound(msgNoteUnavailable, nil)
	}

	return s.perms.Get(ctx, ownerID, noteID, targetID)
}

// Share grants read to targetID and records the note in the target's
// shared index. The two writes are one logical unit: if the index write
// fails after the grant, the failure is surfaced and a rebuild of the
// note's index is queued, because the index is convenience state while
// the ACL is authority.
func (s *DefaultService) Share(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) error {
	if err := s.checkACLChange(ctx, requesterID, ownerID, noteID, targetID); err != nil {
		return err
	}

	if err := s.perms.Set(ctx, ownerID, noteID, targetID, domain.PermissionRead, true); err != nil {
		return err
	}

	if err := s.index.Add(ctx, targetID, ownerID, noteID); err != nil {
		log.Printf("[ERROR] shared-index add failed for (%s, %d) -> %s: %v", ownerID, noteID, targetID, err)
		s.scheduleRepair(ownerID, noteID)
		return errors.Internal(err)
	}

	s.bumpVisible(ctx, targetID)
	return nil
}

// SetPermission toggles one capability for targetID. Granting a
// capability ensures the target's shared index lists the note, so a
// write/delete grant without a prior share still shows up for them.
// Revoking the last capability removes the ACL row and the index entry,
// mirroring DeleteShare.
func (s *DefaultService) SetPermission(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string, perm string, value bool) error {
	if !domain.ValidPermission(perm) {
		return errors.BadRequest("Invalid request", nil)
	}
	if err := s.checkACLChange(ctx, requesterID, ownerID, noteID, targetID); err != nil {
		return err
	}

	if err := s.perms.Set(ctx, ownerID, noteID, targetID, domain.Permission(perm), value); err != nil {
		return err
	}

	if value {
		if err := s.index.Add(ctx, targetID, ownerID, noteID); err != nil {
			log.Printf("[ERROR] shared-index add failed for (%s, %d) -> %s: %v", ownerID, noteID, targetID, err)
			s.scheduleRepair(ownerID, noteID)
			return errors.Internal(err)
		}
	} else {
		set, err := s.perms.Get(ctx, ownerID, noteID, targetID)
		if err != nil {
			return err
		}
		if set.None() {
			if err := s.perms.RevokeAll(ctx, ownerID, noteID, targetID); err != nil {
				return err
			}
			if err := s.index.Remove(ctx, targetID, ownerID, noteID); err != nil {
				log.Printf("[ERROR] shared-index remove failed for (%s, %d) -> %s: %v", ownerID, noteID, targetID, err)
				s.scheduleRepair(ownerID, noteID)
				return errors.Internal(err)
			}
		}
	}

	s.bumpVisible(ctx, targetID)
	return nil
}

// DeleteShare removes the target's ACL row and index entry together
func (s *DefaultService) DeleteShare(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) error {
	if err := s.checkACLChange(ctx, requesterID, ownerID, noteID, targetID); err != nil {
		return err
	}

	if err := s.perms.RevokeAll(ctx, ownerID, noteID, targetID); err != nil {
		return err
	}

	if err := s.index.Remove(ctx, targetID, ownerID, noteID); err != nil {
		log.Printf("[ERROR] shared-index remove failed for (%s, %d) -> %s: %v", ownerID, noteID, targetID, err)
		s.scheduleRepair(ownerID, noteID)
		return errors.Internal(err)
	}

	s.bumpVisible(ctx, targetID)
	return nil
}

// checkACLChange runs the shared validation for grant/revoke calls:
// only the owner manages an ACL, never about themself, the note must
// exist and the target must be a real user. Failures share the generic
// messages so responses don't reveal which check tripped.
func (s *DefaultService) checkACLChange(ctx context.Context, requesterID, ownerID string, noteID uint64, targetID string) error {
	if targetID == ownerID {
		return errors.BadRequest("Invalid request", nil)
	}
	if requesterID != ownerID {
		return errors.NotFound(msgNoteUnavailable, nil)
	}

	exists, err := s.notes.Exists(ctx, ownerID, noteID)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NotFound(msgNoteUnavailable, nil)
	}

	if _, err := s.users.GetUserByID(ctx, targetID); err != nil {
		if defError.Is(err, gorm.ErrRecordNotFound) {
			return errors.BadRequest("Invalid request", err)
		}
		return err
	}
	return nil
}

// scheduleRepair queues a rebuild of one note's shared-index rows from
// its ACL (or their removal when the note is gone).
func (s *DefaultService) scheduleRepair(ownerID string, noteID uint64) {
	if s.pool == nil {
		return
	}
	s.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		exists, err := s.notes.Exists(ctx, ownerID, noteID)
		if err != nil {
			return err
		}

		var grantees []string
		if exists {
			grantees, err = s.perms.ListGrantees(ctx, ownerID, noteID)
			if err != nil {
				return err
			}
		}

		if err := s.index.Rebuild(ctx, ownerID, noteID, grantees); err != nil {
			return fmt.Errorf("rebuild shared index for (%s, %d): %w", ownerID, noteID, err)
		}

		log.Printf("[INFO] shared index for (%s, %d) rebuilt (%d grantees)", ownerID, noteID, len(grantees))
		return nil
	})
}

func (s *DefaultService) bumpVisible(ctx context.Context, userID string) {
	s.cache.IncrementVersion(ctx, fmt.Sprintf("user:%s:notes:version", userID))
}

func (s *DefaultService) bumpGrantees(ctx context.Context, ownerID string, noteID uint64) {
	grantees, err := s.perms.ListGrantees(ctx, ownerID, noteID)
	if err != nil {
		log.Printf("failed to list grantees for cache bump on (%s, %d): %v", ownerID, noteID, err)
		return
	}
	for _, granteeID := range grantees {
		s.bumpVisible(ctx, granteeID)
	}
}
