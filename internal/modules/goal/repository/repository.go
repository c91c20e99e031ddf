package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/studyloop/backend/internal/entity"
)

// SyncResult describes what an assignment transition did. Demoted carries
// every assignment that lost active status (with its CompletedAt as it was
// at demotion time); Pointer is the assignment now backing the profile
// pointer, nil when the pointer was cleared.
type SyncResult struct {
	Activated *entity.TrackAssignment
	Demoted   []entity.TrackAssignment
	Pointer   *entity.TrackAssignment
}

type GoalRepository interface {
	CreateTrack(track *entity.Track) error
	UpdateTrack(track *entity.Track) error
	DeleteTrack(id uuid.UUID) error
	GetTrackBySlug(slug string) (*entity.Track, error)
	ListTracks() ([]entity.Track, error)

	CreateGoal(goal *entity.Goal) error
	UpdateGoal(goal *entity.Goal) error
	DeleteGoal(id uuid.UUID) error
	FindGoal(id uuid.UUID) (*entity.Goal, error)

	// ActivateAssignment makes (trackID, goalID) the user's single active
	// assignment in one transaction: every other active row is demoted to
	// changed, an existing row for the same goal is revived instead of
	// duplicated, and the profile pointer is rewritten to match.
	ActivateAssignment(ctx context.Context, userID, trackID, goalID uuid.UUID) (*SyncResult, error)

	// DeactivateActive ends the user's active assignment with the given
	// terminal status and resyncs the profile pointer.
	DeactivateActive(ctx context.Context, userID uuid.UUID, status string) (*SyncResult, error)

	// DeleteAssignment removes an assignment row outright and resyncs the
	// profile pointer if the row was active.
	DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) (*SyncResult, error)

	// MarkActiveCompleted stamps CompletedAt on the user's active
	// assignment without ending it.
	MarkActiveCompleted(ctx context.Context, userID uuid.UUID, at time.Time) (*entity.TrackAssignment, error)

	GetActiveAssignment(userID uuid.UUID) (*entity.TrackAssignment, error)
	ListAssignments(userID uuid.UUID) ([]entity.TrackAssignment, error)

	// CountActiveViolations reports users holding more than one active
	// assignment. Used by the consistency audit job.
	CountActiveViolations() ([]uuid.UUID, error)
}

type goalRepository struct {
	db *gorm.DB
}

func NewGoalRepository(db *gorm.DB) GoalRepository {
	return &goalRepository{db: db}
}

func (r *goalRepository) CreateTrack(track *entity.Track) error {
	return r.db.Create(track).Error
}

func (r *goalRepository) UpdateTrack(track *entity.Track) error {
	return r.db.Save(track).Error
}

func (r *goalRepository) DeleteTrack(id uuid.UUID) error {
	return r.db.Delete(&entity.Track{}, "id = ?", id).Error
}

func (r *goalRepository) GetTrackBySlug(slug string) (*entity.Track, error) {
	var track entity.Track
	err := r.db.Preload("Goals", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&track, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &track, nil
}

func (r *goalRepository) ListTracks() ([]entity.Track, error) {
	var tracks []entity.Track
	err := r.db.Preload("Goals", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Order("created_at asc").Find(&tracks).Error
	return tracks, err
}

func (r *goalRepository) CreateGoal(goal *entity.Goal) error {
	return r.db.Create(goal).Error
}

func (r *goalRepository) UpdateGoal(goal *entity.Goal) error {
	return r.db.Save(goal).Error
}

func (r *goalRepository) DeleteGoal(id uuid.UUID) error {
	return r.db.Delete(&entity.Goal{}, "id = ?", id).Error
}

func (r *goalRepository) FindGoal(id uuid.UUID) (*entity.Goal, error) {
	var goal entity.Goal
	if err := r.db.First(&goal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &goal, nil
}

// lockAssignments serializes concurrent transitions for one user. The
// profile row is locked first: a user's first activation has no assignment
// rows yet, so locking those alone cannot serialize two first activations,
// while the profile row always exists. SQLite (used in tests) rejects
// FOR UPDATE, so the locks are postgres-only; SQLite serializes writers
// anyway.
func (r *goalRepository) lockAssignments(tx *gorm.DB, userID uuid.UUID) ([]entity.TrackAssignment, error) {
	locking := r.db.Dialector.Name() == "postgres"
	if locking {
		var profile entity.Profile
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&profile, "user_id = ?", userID).Error; err != nil {
			return nil, err
		}
	}

	q := tx.Where("user_id = ?", userID)
	if locking {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var rows []entity.TrackAssignment
	err := q.Order("assigned_at desc").Find(&rows).Error
	return rows, err
}

func (r *goalRepository) ActivateAssignment(ctx context.Context, userID, trackID, goalID uuid.UUID) (*SyncResult, error) {
	result := &SyncResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := r.lockAssignments(tx, userID)
		if err != nil {
			return err
		}

		var revived *entity.TrackAssignment
		now := time.Now()

		for i := range rows {
			row := &rows[i]
			if row.GoalID == goalID {
				revived = row
				continue
			}
			if row.IsActive() {
				result.Demoted = append(result.Demoted, *row)
				if err := tx.Model(row).
					Update("status", entity.AssignmentStatusChanged).Error; err != nil {
					return err
				}
			}
		}

		if revived != nil && revived.IsActive() {
			// Already on this goal; nothing to transition.
			result.Pointer = revived
			return r.updateProfilePointer(tx, userID, revived)
		}

		var active *entity.TrackAssignment
		if revived != nil {
			// Re-picking a goal restarts the old row instead of adding a
			// duplicate history entry.
			updates := map[string]interface{}{
				"status":       entity.AssignmentStatusActive,
				"assigned_at":  now,
				"completed_at": nil,
			}
			if err := tx.Model(revived).Updates(updates).Error; err != nil {
				return err
			}
			revived.Status = entity.AssignmentStatusActive
			revived.AssignedAt = now
			revived.CompletedAt = nil
			active = revived
		} else {
			active = &entity.TrackAssignment{
				UserID:     userID,
				TrackID:    trackID,
				GoalID:     goalID,
				Status:     entity.AssignmentStatusActive,
				AssignedAt: now,
			}
			if err := tx.Create(active).Error; err != nil {
				return err
			}
		}

		result.Activated = active
		result.Pointer = active
		return r.updateProfilePointer(tx, userID, active)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *goalRepository) DeactivateActive(ctx context.Context, userID uuid.UUID, status string) (*SyncResult, error) {
	result := &SyncResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rows, err := r.lockAssignments(tx, userID)
		if err != nil {
			return err
		}

		for i := range rows {
			row := &rows[i]
			if !row.IsActive() {
				continue
			}
			result.Demoted = append(result.Demoted, *row)
			if err := tx.Model(row).Update("status", status).Error; err != nil {
				return err
			}
			row.Status = status
		}
		if len(result.Demoted) == 0 {
			return gorm.ErrRecordNotFound
		}

		result.Pointer = pickPointer(rows)
		return r.updateProfilePointer(tx, userID, result.Pointer)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *goalRepository) DeleteAssignment(ctx context.Context, assignmentID uuid.UUID) (*SyncResult, error) {
	result := &SyncResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var target entity.TrackAssignment
		if err := tx.First(&target, "id = ?", assignmentID).Error; err != nil {
			return err
		}

		rows, err := r.lockAssignments(tx, target.UserID)
		if err != nil {
			return err
		}

		if err := tx.Delete(&entity.TrackAssignment{}, "id = ?", assignmentID).Error; err != nil {
			return err
		}

		if !target.IsActive() {
			return nil
		}
		result.Demoted = append(result.Demoted, target)

		remaining := rows[:0]
		for i := range rows {
			if rows[i].ID != assignmentID {
				remaining = append(remaining, rows[i])
			}
		}
		result.Pointer = pickPointer(remaining)
		return r.updateProfilePointer(tx, target.UserID, result.Pointer)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *goalRepository) MarkActiveCompleted(ctx context.Context, userID uuid.UUID, at time.Time) (*entity.TrackAssignment, error) {
	var active entity.TrackAssignment

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND status = ?", userID, entity.AssignmentStatusActive).
			First(&active).Error; err != nil {
			return err
		}
		if active.CompletedAt != nil {
			return nil
		}
		if err := tx.Model(&active).Update("completed_at", at).Error; err != nil {
			return err
		}
		active.CompletedAt = &at
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &active, nil
}

// pickPointer chooses the assignment the profile pointer should fall back
// to: the most recently assigned row that is still active. In a healthy
// dataset there is at most one.
func pickPointer(rows []entity.TrackAssignment) *entity.TrackAssignment {
	var best *entity.TrackAssignment
	for i := range rows {
		row := &rows[i]
		if !row.IsActive() {
			continue
		}
		if best == nil || row.AssignedAt.After(best.AssignedAt) {
			best = row
		}
	}
	return best
}

// updateProfilePointer is the only writer of the profile's current-goal
// columns. A nil assignment clears them.
func (r *goalRepository) updateProfilePointer(tx *gorm.DB, userID uuid.UUID, assignment *entity.TrackAssignment) error {
	updates := map[string]interface{}{
		"current_track_id": nil,
		"current_goal_id":  nil,
		"goal_assigned_at": nil,
	}
	if assignment != nil {
		updates["current_track_id"] = assignment.TrackID
		updates["current_goal_id"] = assignment.GoalID
		updates["goal_assigned_at"] = assignment.AssignedAt
	}
	return tx.Model(&entity.Profile{}).Where("user_id = ?", userID).Updates(updates).Error
}

func (r *goalRepository) GetActiveAssignment(userID uuid.UUID) (*entity.TrackAssignment, error) {
	var rows []entity.TrackAssignment
	err := r.db.Where("user_id = ? AND status = ?", userID, entity.AssignmentStatusActive).
		Order("assigned_at desc").
		Limit(1).
		Preload("Track").
		Preload("Goal").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

func (r *goalRepository) ListAssignments(userID uuid.UUID) ([]entity.TrackAssignment, error) {
	var rows []entity.TrackAssignment
	err := r.db.Where("user_id = ?", userID).
		Order("assigned_at desc").
		Preload("Track").
		Preload("Goal").
		Find(&rows).Error
	return rows, err
}

func (r *goalRepository) CountActiveViolations() ([]uuid.UUID, error) {
	var userIDs []uuid.UUID
	err := r.db.Model(&entity.TrackAssignment{}).
		Select("user_id").
		Where("status = ?", entity.AssignmentStatusActive).
		Group("user_id").
		Having("count(*) > 1").
		Pluck("user_id", &userIDs).Error
	return userIDs, err
}
