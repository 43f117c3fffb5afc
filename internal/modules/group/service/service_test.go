package group

import (
	"context"
	"errors"
	"testing"

	"campusshare.app/api/internal/entity"
	groupDto "campusshare.app/api/internal/modules/group/dto"
	repo "campusshare.app/api/internal/modules/group/repository"
	"campusshare.app/api/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeGroupRepo struct {
	groups  map[uuid.UUID]*entity.StudyGroup
	members map[uuid.UUID][]entity.GroupMember
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{
		groups:  map[uuid.UUID]*entity.StudyGroup{},
		members: map[uuid.UUID][]entity.GroupMember{},
	}
}

func (f *fakeGroupRepo) Create(ctx context.Context, group *entity.StudyGroup) error {
	if group.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		group.ID = id
	}
	copied := *group
	f.groups[group.ID] = &copied
	f.members[group.ID] = []entity.GroupMember{{
		GroupID: group.ID,
		UserID:  group.CreatorID,
		Role:    entity.GroupRoleAdmin,
	}}
	return nil
}

func (f *fakeGroupRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.StudyGroup, error) {
	group, ok := f.groups[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *group
	copied.Members = append([]entity.GroupMember(nil), f.members[id]...)
	return &copied, nil
}

func (f *fakeGroupRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.StudyGroup, error) {
	var out []*entity.StudyGroup
	for _, id := range ids {
		if g, err := f.FindByID(ctx, id); err == nil {
			out = append(out, g)
		}
	}
	return out, nil
}

func (f *fakeGroupRepo) FindAll(ctx context.Context, q repo.Query, offset, limit int) ([]*entity.StudyGroup, int64, error) {
	var out []*entity.StudyGroup
	for id := range f.groups {
		g, _ := f.FindByID(ctx, id)
		if q.Subject != "" && g.Subject != q.Subject {
			continue
		}
		if q.Status != "" && g.Status != q.Status {
			continue
		}
		out = append(out, g)
	}
	return out, int64(len(out)), nil
}

func (f *fakeGroupRepo) FindByUser(ctx context.Context, userID uuid.UUID, offset, limit int) ([]*entity.StudyGroup, int64, error) {
	var out []*entity.StudyGroup
	for id, members := range f.members {
		for _, m := range members {
			if m.UserID == userID {
				g, _ := f.FindByID(ctx, id)
				out = append(out, g)
				break
			}
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeGroupRepo) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	group, ok := f.groups[groupID]
	if !ok {
		return gorm.ErrRecordNotFound
	}

	for _, m := range f.members[groupID] {
		if m.UserID == userID {
			return repo.ErrAlreadyMember
		}
	}

	if len(f.members[groupID]) >= group.MaxMembers {
		return repo.ErrGroupFull
	}

	f.members[groupID] = append(f.members[groupID], entity.GroupMember{
		GroupID: groupID,
		UserID:  userID,
		Role:    entity.GroupRoleMember,
	})

	if len(f.members[groupID]) >= group.MaxMembers {
		group.Status = entity.GroupStatusFull
	}
	return nil
}

func (f *fakeGroupRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	members := f.members[groupID]
	for i, m := range members {
		if m.UserID == userID {
			f.members[groupID] = append(members[:i], members[i+1:]...)
			if g, ok := f.groups[groupID]; ok && g.Status == entity.GroupStatusFull {
				g.Status = entity.GroupStatusActive
			}
			return nil
		}
	}
	return gorm.ErrRecordNotFound
}

func (f *fakeGroupRepo) CountMembers(ctx context.Context, groupID uuid.UUID) (int64, error) {
	return int64(len(f.members[groupID])), nil
}

func (f *fakeGroupRepo) Save(ctx context.Context, group *entity.StudyGroup) error {
	if _, ok := f.groups[group.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	copied := *group
	copied.Members = nil
	f.groups[group.ID] = &copied
	return nil
}

func (f *fakeGroupRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.groups, id)
	delete(f.members, id)
	return nil
}

func (f *fakeGroupRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.groups)), nil
}

func createGroupRequest(maxMembers int) groupDto.CreateGroupRequest {
	return groupDto.CreateGroupRequest{
		Name:        "Algorithms study circle",
		Description: "Weekly problem sessions",
		Course:      "CS 301",
		Subject:     "computer-science",
		MaxMembers:  maxMembers,
	}
}

func TestCreateGroupMakesCreatorAdmin(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)
	creatorID := uuid.New()

	created, err := svc.Create(context.Background(), creatorID, createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.MemberCount != 1 {
		t.Errorf("member count = %d, want 1", created.MemberCount)
	}
	if len(created.Members) != 1 || created.Members[0].Role != entity.GroupRoleAdmin {
		t.Error("creator should be the admin member")
	}
	if created.Status != entity.GroupStatusActive {
		t.Errorf("status = %q, want active", created.Status)
	}
}

func TestJoinGroup(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), uuid.New(), createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	joined, err := svc.Join(context.Background(), uuid.New(), created.ID)
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if joined.MemberCount != 2 {
		t.Errorf("member count = %d, want 2", joined.MemberCount)
	}
}

func TestJoinGroupTwice(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), uuid.New(), createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	userID := uuid.New()
	if _, err := svc.Join(context.Background(), userID, created.ID); err != nil {
		t.Fatalf("first join: %v", err)
	}

	_, err = svc.Join(context.Background(), userID, created.ID)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestJoinFullGroup(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)

	// Capacity 2: creator plus one
	created, err := svc.Create(context.Background(), uuid.New(), createGroupRequest(2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	filled, err := svc.Join(context.Background(), uuid.New(), created.ID)
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if filled.Status != entity.GroupStatusFull {
		t.Errorf("status after filling = %q, want full", filled.Status)
	}

	_, err = svc.Join(context.Background(), uuid.New(), created.ID)
	if !errors.Is(err, apperror.ErrResourceExhausted) {
		t.Errorf("error = %v, want ErrResourceExhausted", err)
	}
}

func TestLeaveReopensFullGroup(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), uuid.New(), createGroupRequest(2))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	memberID := uuid.New()
	if _, err := svc.Join(context.Background(), memberID, created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	if err := svc.Leave(context.Background(), memberID, created.ID); err != nil {
		t.Fatalf("Leave: %v", err)
	}

	got, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Status != entity.GroupStatusActive {
		t.Errorf("status after leave = %q, want active", got.Status)
	}
}

func TestCreatorCannotLeave(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)
	creatorID := uuid.New()

	created, err := svc.Create(context.Background(), creatorID, createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Leave(context.Background(), creatorID, created.ID)
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Errorf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestLeaveWhenNotMember(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), uuid.New(), createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	err = svc.Leave(context.Background(), uuid.New(), created.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestUpdateGroupOnlyCreator(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), uuid.New(), createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	name := "Renamed"
	_, err = svc.Update(context.Background(), uuid.New(), created.ID, groupDto.UpdateGroupRequest{Name: &name})
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestUpdateMaxMembersBelowCurrentCount(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)
	creatorID := uuid.New()

	created, err := svc.Create(context.Background(), creatorID, createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Join(context.Background(), uuid.New(), created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := svc.Join(context.Background(), uuid.New(), created.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	two := 2
	_, err = svc.Update(context.Background(), creatorID, created.ID, groupDto.UpdateGroupRequest{MaxMembers: &two})
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Errorf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestCreateGroupDefaultsMaxMembers(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)

	created, err := svc.Create(context.Background(), uuid.New(), createGroupRequest(0))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.MaxMembers != defaultMaxMembers {
		t.Errorf("max members = %d, want the default %d", created.MaxMembers, defaultMaxMembers)
	}
}

// staleMembersRepo serves group reads with an empty member list, standing in
// for a preload that lags a concurrent join.
type staleMembersRepo struct {
	*fakeGroupRepo
}

func (s *staleMembersRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.StudyGroup, error) {
	group, err := s.fakeGroupRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	group.Members = nil
	return group, nil
}

func TestUpdateMaxMembersCountsFromMembershipTable(t *testing.T) {
	base := newFakeGroupRepo()
	svc := NewService(&staleMembersRepo{base}, nil)
	creatorID := uuid.New()

	created, err := svc.Create(context.Background(), creatorID, createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := base.AddMember(context.Background(), created.ID, uuid.New()); err != nil {
		t.Fatalf("add member: %v", err)
	}
	if err := base.AddMember(context.Background(), created.ID, uuid.New()); err != nil {
		t.Fatalf("add member: %v", err)
	}

	two := 2
	_, err = svc.Update(context.Background(), creatorID, created.ID, groupDto.UpdateGroupRequest{MaxMembers: &two})
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Errorf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestDeleteGroupOnlyCreator(t *testing.T) {
	repo := newFakeGroupRepo()
	svc := NewService(repo, nil)
	creatorID := uuid.New()

	created, err := svc.Create(context.Background(), creatorID, createGroupRequest(5))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), uuid.New(), created.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("stranger delete error = %v, want ErrForbidden", err)
	}

	if err := svc.Delete(context.Background(), creatorID, created.ID); err != nil {
		t.Fatalf("creator delete: %v", err)
	}

	if _, err := svc.GetByID(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID after delete = %v, want ErrNotFound", err)
	}
}
