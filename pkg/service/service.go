package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/internhub/internhub/pkg/activity"
	"github.com/internhub/internhub/pkg/cache"
	"github.com/internhub/internhub/pkg/models"
	"github.com/internhub/internhub/pkg/store"
)

var (
	// ErrInvalid is wrapped by every input validation failure.
	ErrInvalid = errors.New("invalid input")
	// ErrAlreadyApplied is returned when a student applies to the same position twice.
	ErrAlreadyApplied = errors.New("already applied for this position")
	// ErrPositionClosed is returned when applying to a position that is not active.
	ErrPositionClosed = errors.New("position is not accepting applications")
	// ErrProfileIncomplete is returned when a student without a name, bio
	// and skills applies to a position.
	ErrProfileIncomplete = errors.New("complete your profile before applying")
	// ErrNotFound is returned when the referenced row does not exist.
	ErrNotFound = store.ErrNotFound
)

// Service is the data-access layer used by the HTTP API. Reads go through
// the query cache; writes go straight to the store and then invalidate the
// cache entries they can make stale.
type Service struct {
	store        store.Store
	cache        *cache.Cache
	activity     *activity.Logger
	log          *zap.Logger
	fetchTimeout time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithActivity records every mutation in the given activity log.
func WithActivity(a *activity.Logger) Option {
	return func(s *Service) { s.activity = a }
}

// WithLogger sets the service logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithFetchTimeout bounds every live read. Zero means no bound.
func WithFetchTimeout(d time.Duration) Option {
	return func(s *Service) { s.fetchTimeout = d }
}

// New creates a Service over st, caching reads in c.
func New(st store.Store, c *cache.Cache, opts ...Option) *Service {
	s := &Service{
		store: st,
		cache: c,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the query cache.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

func fetchWithin[T any](d time.Duration, f func(context.Context) (T, error)) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		if d > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return f(ctx)
	}
}

// ActivePositions returns every active position.
func (s *Service) ActivePositions(ctx context.Context, fresh bool) ([]models.PositionListing, error) {
	return cache.Fetch(ctx, s.cache, KeyActivePositions,
		fetchWithin(s.fetchTimeout, s.store.ActivePositions),
		cache.ForceFresh(fresh), cache.Tags(TagPositions))
}

// Startups returns the startup directory.
func (s *Service) Startups(ctx context.Context, fresh bool) ([]models.Startup, error) {
	return cache.Fetch(ctx, s.cache, KeyStartups,
		fetchWithin(s.fetchTimeout, s.store.Startups),
		cache.ForceFresh(fresh), cache.Tags(TagStartups))
}

// StartupProfile returns the startup owned by ownerID.
func (s *Service) StartupProfile(ctx context.Context, ownerID string, fresh bool) (*models.Startup, error) {
	return cache.Fetch(ctx, s.cache, UserProfileKey(ownerID, models.ProfileStartup),
		fetchWithin(s.fetchTimeout, func(ctx context.Context) (*models.Startup, error) {
			return s.store.StartupByOwner(ctx, ownerID)
		}),
		cache.ForceFresh(fresh), cache.Tags(profileTag(ownerID), TagStartups))
}

// StudentProfile returns a student's profile.
func (s *Service) StudentProfile(ctx context.Context, studentID string, fresh bool) (*models.StudentProfile, error) {
	return cache.Fetch(ctx, s.cache, UserProfileKey(studentID, models.ProfileStudent),
		fetchWithin(s.fetchTimeout, func(ctx context.Context) (*models.StudentProfile, error) {
			return s.store.StudentProfile(ctx, studentID)
		}),
		cache.ForceFresh(fresh), cache.Tags(profileTag(studentID)))
}

// UserProfile returns a *models.Startup or *models.StudentProfile depending on t.
func (s *Service) UserProfile(ctx context.Context, userID string, t models.ProfileType, fresh bool) (any, error) {
	switch t {
	case models.ProfileStartup:
		return s.StartupProfile(ctx, userID, fresh)
	case models.ProfileStudent:
		return s.StudentProfile(ctx, userID, fresh)
	default:
		return nil, fmt.Errorf("%w: unknown profile type %q", ErrInvalid, t)
	}
}

// StartupApplications returns applications to the positions of ownerID's startups.
func (s *Service) StartupApplications(ctx context.Context, ownerID string, fresh bool) ([]models.StartupApplication, error) {
	return cache.Fetch(ctx, s.cache, StartupApplicationsKey(ownerID),
		fetchWithin(s.fetchTimeout, func(ctx context.Context) ([]models.StartupApplication, error) {
			return s.store.StartupApplications(ctx, ownerID)
		}),
		cache.ForceFresh(fresh), cache.Tags(TagApplications))
}

// StartupPositions returns a startup's positions with application counts.
func (s *Service) StartupPositions(ctx context.Context, startupID string, fresh bool) ([]models.Position, error) {
	return cache.Fetch(ctx, s.cache, StartupPositionsKey(startupID),
		fetchWithin(s.fetchTimeout, func(ctx context.Context) ([]models.Position, error) {
			return s.store.StartupPositions(ctx, startupID)
		}),
		cache.ForceFresh(fresh), cache.Tags(TagPositions, startupTag(startupID)))
}

// StudentApplications returns a student's applications.
func (s *Service) StudentApplications(ctx context.Context, studentID string, fresh bool) ([]models.StudentApplication, error) {
	return cache.Fetch(ctx, s.cache, StudentApplicationsKey(studentID),
		fetchWithin(s.fetchTimeout, func(ctx context.Context) ([]models.StudentApplication, error) {
			return s.store.StudentApplications(ctx, studentID)
		}),
		cache.ForceFresh(fresh), cache.Tags(TagApplications))
}

// RegisterStartup stores a new startup.
func (s *Service) RegisterStartup(ctx context.Context, st *models.Startup) error {
	st.OwnerID = strings.TrimSpace(st.OwnerID)
	st.Name = strings.TrimSpace(st.Name)
	st.Website = strings.TrimSpace(st.Website)
	if err := validateStruct(st); err != nil {
		return err
	}
	if err := s.store.InsertStartup(ctx, st); err != nil {
		s.log.Error("register startup failed", zap.String("owner_id", st.OwnerID), zap.Error(err))
		return err
	}

	s.cache.Invalidate(KeyStartups)
	s.cache.Invalidate(UserProfileKey(st.OwnerID, models.ProfileStartup))

	s.record(ctx, models.ActivityEvent{
		Kind:      models.ActivityStartupRegistered,
		StartupID: st.ID,
		ActorID:   st.OwnerID,
		SubjectID: st.ID,
		Detail:    st.Name,
	})
	return nil
}

// CreatePosition stores a new position for an existing startup.
func (s *Service) CreatePosition(ctx context.Context, p *models.Position) error {
	p.Title = strings.TrimSpace(p.Title)
	if err := validateStruct(p); err != nil {
		return err
	}
	if err := s.store.InsertPosition(ctx, p); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("create position failed", zap.String("startup_id", p.StartupID), zap.Error(err))
		}
		return err
	}

	s.cache.Invalidate(KeyActivePositions)
	s.cache.Invalidate(StartupPositionsKey(p.StartupID))

	s.record(ctx, models.ActivityEvent{
		Kind:      models.ActivityPositionCreated,
		StartupID: p.StartupID,
		SubjectID: p.ID,
		Detail:    p.Title,
	})
	return nil
}

// ApplyForPosition creates a pending application from studentID to positionID.
// The student's profile must be ready to apply.
func (s *Service) ApplyForPosition(ctx context.Context, positionID, studentID, coverLetter string) (*models.Application, error) {
	if positionID == "" || studentID == "" {
		return nil, fmt.Errorf("%w: position_id and student_id are required", ErrInvalid)
	}

	pos, err := s.store.Position(ctx, positionID)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("apply for position failed", zap.String("position_id", positionID), zap.Error(err))
		}
		return nil, err
	}
	if pos.Status != models.PositionActive {
		return nil, ErrPositionClosed
	}

	profile, err := s.store.StudentProfile(ctx, studentID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, ErrProfileIncomplete
	case err != nil:
		s.log.Error("apply for position failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	case !profile.ReadyToApply():
		return nil, ErrProfileIncomplete
	}

	applied, err := s.store.HasApplied(ctx, positionID, studentID)
	if err != nil {
		s.log.Error("apply for position failed", zap.String("position_id", positionID), zap.Error(err))
		return nil, err
	}
	if applied {
		return nil, ErrAlreadyApplied
	}

	app := &models.Application{
		PositionID:  positionID,
		StudentID:   studentID,
		CoverLetter: strings.TrimSpace(coverLetter),
	}
	if err := s.store.InsertApplication(ctx, app); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrAlreadyApplied
		}
		s.log.Error("apply for position failed", zap.String("position_id", positionID), zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(StudentApplicationsKey(studentID))
	s.cache.Invalidate(KeyActivePositions)
	s.cache.InvalidateTag(startupTag(pos.StartupID))
	if owner, err := s.store.Startup(ctx, pos.StartupID); err == nil {
		s.cache.Invalidate(StartupApplicationsKey(owner.OwnerID))
	} else {
		// The owner's dashboard catches up when its entry expires.
		s.log.Warn("resolve startup owner failed", zap.String("startup_id", pos.StartupID), zap.Error(err))
	}

	s.record(ctx, models.ActivityEvent{
		Kind:      models.ActivityApplicationSubmitted,
		StartupID: pos.StartupID,
		ActorID:   studentID,
		SubjectID: app.ID,
		Detail:    pos.Title,
	})
	return app, nil
}

// UpdateApplicationStatus sets an application's review status.
func (s *Service) UpdateApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (*models.Application, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown application status %q", ErrInvalid, status)
	}
	app, err := s.store.UpdateApplicationStatus(ctx, id, status)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("update application status failed", zap.String("application_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.cache.InvalidateTag(TagApplications)

	ev := models.ActivityEvent{
		Kind:      models.ActivityApplicationStatusChanged,
		SubjectID: app.ID,
		Detail:    string(status),
	}
	if pos, err := s.store.Position(ctx, app.PositionID); err == nil {
		ev.StartupID = pos.StartupID
	}
	s.record(ctx, ev)
	return app, nil
}

// UpdatePositionStatus opens or closes a position.
func (s *Service) UpdatePositionStatus(ctx context.Context, id string, status models.PositionStatus) (*models.Position, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown position status %q", ErrInvalid, status)
	}
	pos, err := s.store.UpdatePositionStatus(ctx, id, status)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			s.log.Error("update position status failed", zap.String("position_id", id), zap.Error(err))
		}
		return nil, err
	}

	s.cache.Invalidate(KeyActivePositions)
	s.cache.InvalidateTag(TagPositions)

	s.record(ctx, models.ActivityEvent{
		Kind:      models.ActivityPositionStatusChanged,
		StartupID: pos.StartupID,
		SubjectID: pos.ID,
		Detail:    string(status),
	})
	return pos, nil
}

// SaveStudentProfile creates or replaces a student's profile.
func (s *Service) SaveStudentProfile(ctx context.Context, p *models.StudentProfile) error {
	if err := validateStruct(p); err != nil {
		return err
	}
	if err := s.store.UpsertStudentProfile(ctx, p); err != nil {
		s.log.Error("save student profile failed", zap.String("student_id", p.ID), zap.Error(err))
		return err
	}

	s.cache.Invalidate(UserProfileKey(p.ID, models.ProfileStudent))

	s.record(ctx, models.ActivityEvent{
		Kind:      models.ActivityProfileSaved,
		ActorID:   p.ID,
		SubjectID: p.ID,
	})
	return nil
}

// StartupActivity returns the most recent activity for a startup.
func (s *Service) StartupActivity(ctx context.Context, startupID string, limit int) ([]models.ActivityEvent, error) {
	return s.activity.Query(ctx, models.ActivityQueryOpts{StartupID: startupID, Limit: limit})
}

func (s *Service) record(ctx context.Context, ev models.ActivityEvent) {
	if err := s.activity.Log(ctx, ev); err != nil {
		s.log.Warn("record activity failed", zap.String("kind", string(ev.Kind)), zap.Error(err))
	}
}
