package proposal

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusshare.app/api/internal/entity"
	listingRepo "campusshare.app/api/internal/modules/listing/repository"
	notificationDto "campusshare.app/api/internal/modules/notification/dto"
	proposalDto "campusshare.app/api/internal/modules/proposal/dto"
	repo "campusshare.app/api/internal/modules/proposal/repository"
	"campusshare.app/api/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type fakeListingRepo struct {
	listings map[uuid.UUID]*entity.Listing
}

func newFakeListingRepo() *fakeListingRepo {
	return &fakeListingRepo{listings: map[uuid.UUID]*entity.Listing{}}
}

func (f *fakeListingRepo) add(sellerID uuid.UUID, price float64, status string) *entity.Listing {
	listing := &entity.Listing{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Title:     "Mechanical keyboard",
		Price:     price,
		PriceType: entity.PriceTypeSale,
		Status:    status,
	}
	f.listings[listing.ID] = listing
	return listing
}

func (f *fakeListingRepo) Create(ctx context.Context, listing *entity.Listing) error { return nil }

func (f *fakeListingRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Listing, error) {
	listing, ok := f.listings[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *listing
	return &copied, nil
}

func (f *fakeListingRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Listing, error) {
	return nil, nil
}

func (f *fakeListingRepo) FindBySeller(ctx context.Context, sellerID uuid.UUID, offset, limit int) ([]*entity.Listing, int64, error) {
	return nil, 0, nil
}

func (f *fakeListingRepo) FindAll(ctx context.Context, q listingRepo.Query, offset, limit int) ([]*entity.Listing, int64, error) {
	return nil, 0, nil
}

func (f *fakeListingRepo) Save(ctx context.Context, listing *entity.Listing) error { return nil }

func (f *fakeListingRepo) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (f *fakeListingRepo) IncrementViews(ctx context.Context, id uuid.UUID, delta int) error {
	return nil
}

func (f *fakeListingRepo) GetTrending(ctx context.Context, limit int) ([]*entity.Listing, error) {
	return nil, nil
}

func (f *fakeListingRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	return 0, nil
}

type fakeProposalRepo struct {
	listings  *fakeListingRepo
	proposals map[uuid.UUID]*entity.Proposal
}

func newFakeProposalRepo(listings *fakeListingRepo) *fakeProposalRepo {
	return &fakeProposalRepo{
		listings:  listings,
		proposals: map[uuid.UUID]*entity.Proposal{},
	}
}

func (f *fakeProposalRepo) Create(ctx context.Context, proposal *entity.Proposal) error {
	if proposal.ID == uuid.Nil {
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		proposal.ID = id
	}
	copied := *proposal
	f.proposals[proposal.ID] = &copied
	return nil
}

func (f *fakeProposalRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	proposal, ok := f.proposals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *proposal
	if listing, ok := f.listings.listings[proposal.ListingID]; ok {
		copied.Listing = *listing
	}
	return &copied, nil
}

func (f *fakeProposalRepo) FindByBuyer(ctx context.Context, buyerID uuid.UUID, offset, limit int) ([]entity.Proposal, int64, error) {
	var out []entity.Proposal
	for _, p := range f.proposals {
		if p.BuyerID == buyerID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProposalRepo) FindBySeller(ctx context.Context, sellerID uuid.UUID, offset, limit int) ([]entity.Proposal, int64, error) {
	var out []entity.Proposal
	for _, p := range f.proposals {
		if p.SellerID == sellerID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeProposalRepo) FindByListing(ctx context.Context, listingID uuid.UUID) ([]entity.Proposal, error) {
	var out []entity.Proposal
	for _, p := range f.proposals {
		if p.ListingID == listingID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProposalRepo) HasPendingForBuyer(ctx context.Context, buyerID, listingID uuid.UUID) (bool, error) {
	for _, p := range f.proposals {
		if p.BuyerID == buyerID && p.ListingID == listingID && p.Status == entity.ProposalStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeProposalRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	proposal, ok := f.proposals[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	proposal.Status = status
	return nil
}

func (f *fakeProposalRepo) Accept(ctx context.Context, proposal *entity.Proposal) ([]entity.Proposal, error) {
	stored, ok := f.proposals[proposal.ID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	listing, ok := f.listings.listings[proposal.ListingID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	if listing.Status != entity.ListingStatusActive {
		return nil, repo.ErrListingUnavailable
	}
	if stored.Status != entity.ProposalStatusPending {
		return nil, repo.ErrProposalNotPending
	}

	stored.Status = entity.ProposalStatusAccepted
	listing.Status = entity.ListingStatusSold

	var rejected []entity.Proposal
	for _, p := range f.proposals {
		if p.ListingID == proposal.ListingID && p.ID != proposal.ID && p.Status == entity.ProposalStatusPending {
			p.Status = entity.ProposalStatusRejected
			rejected = append(rejected, *p)
		}
	}
	return rejected, nil
}

func (f *fakeProposalRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(f.proposals, id)
	return nil
}

func (f *fakeProposalRepo) CountAll(ctx context.Context) (int64, error) {
	return int64(len(f.proposals)), nil
}

type fakeUserRepo struct{}

func (f *fakeUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return &entity.User{ID: id, FirstName: "Sam", LastName: "Taylor"}, nil
}

func (f *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*entity.User, error) {
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) UpdateRating(ctx context.Context, id uuid.UUID, rating float64, totalRatings int) error {
	return nil
}

func (f *fakeUserRepo) CountAll(ctx context.Context) (int64, error) { return 0, nil }

type notifyCall struct {
	userID uuid.UUID
	typ    string
}

type fakeNotificationService struct {
	calls []notifyCall
}

func (f *fakeNotificationService) Notify(ctx context.Context, userID, actorID, entityID uuid.UUID, entityType, notifType, message string) {
	f.calls = append(f.calls, notifyCall{userID: userID, typ: notifType})
}

func (f *fakeNotificationService) GetByUser(ctx context.Context, userID uuid.UUID, page, limit int) (*notificationDto.PaginatedNotificationResponse, error) {
	return nil, nil
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	return nil
}

func (f *fakeNotificationService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func (f *fakeNotificationService) Subscribe(ctx context.Context, userID uuid.UUID) *redis.PubSub {
	return nil
}

type testEnv struct {
	svc           Service
	listings      *fakeListingRepo
	proposals     *fakeProposalRepo
	notifications *fakeNotificationService
}

func newTestEnv() *testEnv {
	listings := newFakeListingRepo()
	proposals := newFakeProposalRepo(listings)
	notifications := &fakeNotificationService{}

	return &testEnv{
		svc:           NewService(proposals, listings, &fakeUserRepo{}, notifications, nil, time.Second),
		listings:      listings,
		proposals:     proposals,
		notifications: notifications,
	}
}

func TestCreateProposalDefaultsPrice(t *testing.T) {
	env := newTestEnv()
	listing := env.listings.add(uuid.New(), 40, entity.ListingStatusActive)

	created, err := env.svc.Create(context.Background(), uuid.New(), proposalDto.CreateProposalRequest{
		ListingID: listing.ID,
		Message:   "Would you take 40?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ProposedPrice != 40 {
		t.Errorf("proposed price = %v, want the listing price 40", created.ProposedPrice)
	}
	if created.Status != entity.ProposalStatusPending {
		t.Errorf("status = %q, want pending", created.Status)
	}
}

func TestCreateProposalOnOwnListing(t *testing.T) {
	env := newTestEnv()
	sellerID := uuid.New()
	listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

	_, err := env.svc.Create(context.Background(), sellerID, proposalDto.CreateProposalRequest{
		ListingID: listing.ID,
		Message:   "Buying my own stuff",
	})
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Errorf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestCreateProposalOnInactiveListing(t *testing.T) {
	env := newTestEnv()
	listing := env.listings.add(uuid.New(), 40, entity.ListingStatusSold)

	_, err := env.svc.Create(context.Background(), uuid.New(), proposalDto.CreateProposalRequest{
		ListingID: listing.ID,
		Message:   "Still available?",
	})
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Errorf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestCreateProposalDuplicatePending(t *testing.T) {
	env := newTestEnv()
	listing := env.listings.add(uuid.New(), 40, entity.ListingStatusActive)
	buyerID := uuid.New()

	req := proposalDto.CreateProposalRequest{ListingID: listing.ID, Message: "First offer, 40 cash"}
	if _, err := env.svc.Create(context.Background(), buyerID, req); err != nil {
		t.Fatalf("first create: %v", err)
	}

	req.Message = "Second offer, 45 cash"
	_, err := env.svc.Create(context.Background(), buyerID, req)
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("error = %v, want ErrConflict", err)
	}
}

func TestCreateProposalNotifiesSeller(t *testing.T) {
	env := newTestEnv()
	sellerID := uuid.New()
	listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

	if _, err := env.svc.Create(context.Background(), uuid.New(), proposalDto.CreateProposalRequest{
		ListingID: listing.ID,
		Message:   "Interested",
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if len(env.notifications.calls) != 1 {
		t.Fatalf("notifications = %d, want 1", len(env.notifications.calls))
	}
	call := env.notifications.calls[0]
	if call.userID != sellerID || call.typ != entity.NotificationProposalReceived {
		t.Errorf("notification = %+v, want proposal_received to seller", call)
	}
}

func TestAcceptProposal(t *testing.T) {
	env := newTestEnv()
	sellerID := uuid.New()
	listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

	firstBuyer := uuid.New()
	first, err := env.svc.Create(context.Background(), firstBuyer, proposalDto.CreateProposalRequest{
		ListingID: listing.ID, Message: "First buyer",
	})
	if err != nil {
		t.Fatalf("first create: %v", err)
	}

	secondBuyer := uuid.New()
	second, err := env.svc.Create(context.Background(), secondBuyer, proposalDto.CreateProposalRequest{
		ListingID: listing.ID, Message: "Second buyer",
	})
	if err != nil {
		t.Fatalf("second create: %v", err)
	}

	accepted, err := env.svc.UpdateStatus(context.Background(), sellerID, first.ID, entity.ProposalStatusAccepted)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if accepted.Status != entity.ProposalStatusAccepted {
		t.Errorf("status = %q, want accepted", accepted.Status)
	}

	if env.listings.listings[listing.ID].Status != entity.ListingStatusSold {
		t.Error("listing should be sold after accepting a proposal")
	}
	if env.proposals.proposals[second.ID].Status != entity.ProposalStatusRejected {
		t.Error("pending sibling should be rejected after accept")
	}

	var acceptedNotified, rejectedNotified bool
	for _, call := range env.notifications.calls {
		if call.userID == firstBuyer && call.typ == entity.NotificationProposalAccepted {
			acceptedNotified = true
		}
		if call.userID == secondBuyer && call.typ == entity.NotificationProposalRejected {
			rejectedNotified = true
		}
	}
	if !acceptedNotified {
		t.Error("accepted buyer was not notified")
	}
	if !rejectedNotified {
		t.Error("rejected sibling buyer was not notified")
	}
}

func TestUpdateStatusAuthorization(t *testing.T) {
	tests := []struct {
		name    string
		status  string
		asBuyer bool
	}{
		{"buyer cannot accept", entity.ProposalStatusAccepted, true},
		{"buyer cannot reject", entity.ProposalStatusRejected, true},
		{"seller cannot withdraw", entity.ProposalStatusWithdrawn, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv()
			sellerID := uuid.New()
			buyerID := uuid.New()
			listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

			created, err := env.svc.Create(context.Background(), buyerID, proposalDto.CreateProposalRequest{
				ListingID: listing.ID, Message: "Is this still for sale?",
			})
			if err != nil {
				t.Fatalf("Create: %v", err)
			}

			actor := sellerID
			if tt.asBuyer {
				actor = buyerID
			}

			_, err = env.svc.UpdateStatus(context.Background(), actor, created.ID, tt.status)
			if !errors.Is(err, apperror.ErrForbidden) {
				t.Errorf("error = %v, want ErrForbidden", err)
			}
		})
	}
}

func TestUpdateStatusFromTerminalState(t *testing.T) {
	env := newTestEnv()
	sellerID := uuid.New()
	buyerID := uuid.New()
	listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

	created, err := env.svc.Create(context.Background(), buyerID, proposalDto.CreateProposalRequest{
		ListingID: listing.ID, Message: "Is this still for sale?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := env.svc.UpdateStatus(context.Background(), buyerID, created.ID, entity.ProposalStatusWithdrawn); err != nil {
		t.Fatalf("withdraw: %v", err)
	}

	// A withdrawn proposal can never be accepted
	_, err = env.svc.UpdateStatus(context.Background(), sellerID, created.ID, entity.ProposalStatusAccepted)
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Errorf("error = %v, want ErrInvalidOperation", err)
	}
}

func TestDeleteProposalRules(t *testing.T) {
	env := newTestEnv()
	sellerID := uuid.New()
	buyerID := uuid.New()
	listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

	created, err := env.svc.Create(context.Background(), buyerID, proposalDto.CreateProposalRequest{
		ListingID: listing.ID, Message: "Is this still for sale?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := env.svc.Delete(context.Background(), sellerID, created.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("seller delete error = %v, want ErrForbidden", err)
	}

	if _, err := env.svc.UpdateStatus(context.Background(), sellerID, created.ID, entity.ProposalStatusAccepted); err != nil {
		t.Fatalf("accept: %v", err)
	}

	if err := env.svc.Delete(context.Background(), buyerID, created.ID); !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Errorf("delete accepted error = %v, want ErrInvalidOperation", err)
	}
}

func TestGetByIDPartyOnly(t *testing.T) {
	env := newTestEnv()
	sellerID := uuid.New()
	buyerID := uuid.New()
	listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

	created, err := env.svc.Create(context.Background(), buyerID, proposalDto.CreateProposalRequest{
		ListingID: listing.ID, Message: "Is this still for sale?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := env.svc.GetByID(context.Background(), buyerID, created.ID); err != nil {
		t.Errorf("buyer should see the proposal: %v", err)
	}
	if _, err := env.svc.GetByID(context.Background(), sellerID, created.ID); err != nil {
		t.Errorf("seller should see the proposal: %v", err)
	}
	if _, err := env.svc.GetByID(context.Background(), uuid.New(), created.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("stranger error = %v, want ErrForbidden", err)
	}
}

func TestCreateProposalShortMessage(t *testing.T) {
	env := newTestEnv()
	listing := env.listings.add(uuid.New(), 40, entity.ListingStatusActive)

	_, err := env.svc.Create(context.Background(), uuid.New(), proposalDto.CreateProposalRequest{
		ListingID: listing.ID,
		Message:   "take 40?", // 9 characters, one short of the minimum
	})
	if !errors.Is(err, apperror.ErrInvalidInput) {
		t.Errorf("error = %v, want ErrInvalidInput", err)
	}
}

// staleProposalRepo serves reads that lag the stored state, standing in for
// a concurrent writer that changed the proposal between the service's read
// and the accept transaction.
type staleProposalRepo struct {
	*fakeProposalRepo
}

func (s *staleProposalRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.Proposal, error) {
	proposal, err := s.fakeProposalRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	proposal.Status = entity.ProposalStatusPending
	proposal.Listing.Status = entity.ListingStatusActive
	return proposal, nil
}

func TestAcceptLosesToConcurrentWithdraw(t *testing.T) {
	listings := newFakeListingRepo()
	proposals := newFakeProposalRepo(listings)
	notifications := &fakeNotificationService{}
	svc := NewService(&staleProposalRepo{proposals}, listings, &fakeUserRepo{}, notifications, nil, time.Second)

	sellerID := uuid.New()
	buyerID := uuid.New()
	listing := listings.add(sellerID, 40, entity.ListingStatusActive)

	created, err := svc.Create(context.Background(), buyerID, proposalDto.CreateProposalRequest{
		ListingID: listing.ID, Message: "Is this still for sale?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The buyer withdraws after the seller's read but before the accept
	proposals.proposals[created.ID].Status = entity.ProposalStatusWithdrawn

	_, err = svc.UpdateStatus(context.Background(), sellerID, created.ID, entity.ProposalStatusAccepted)
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Fatalf("error = %v, want ErrInvalidOperation", err)
	}

	if listings.listings[listing.ID].Status != entity.ListingStatusActive {
		t.Error("listing should stay active when the accept loses the race")
	}
	if proposals.proposals[created.ID].Status != entity.ProposalStatusWithdrawn {
		t.Error("proposal should stay withdrawn when the accept loses the race")
	}
	for _, call := range notifications.calls {
		if call.typ == entity.NotificationProposalAccepted {
			t.Error("no acceptance notification should go out when the accept loses the race")
		}
	}
}

func TestAcceptLosesToConcurrentSale(t *testing.T) {
	listings := newFakeListingRepo()
	proposals := newFakeProposalRepo(listings)
	svc := NewService(&staleProposalRepo{proposals}, listings, &fakeUserRepo{}, &fakeNotificationService{}, nil, time.Second)

	sellerID := uuid.New()
	listing := listings.add(sellerID, 40, entity.ListingStatusActive)

	created, err := svc.Create(context.Background(), uuid.New(), proposalDto.CreateProposalRequest{
		ListingID: listing.ID, Message: "Is this still for sale?",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// The listing went sold after the seller's read but before the accept
	listings.listings[listing.ID].Status = entity.ListingStatusSold

	_, err = svc.UpdateStatus(context.Background(), sellerID, created.ID, entity.ProposalStatusAccepted)
	if !errors.Is(err, apperror.ErrInvalidOperation) {
		t.Fatalf("error = %v, want ErrInvalidOperation", err)
	}

	if proposals.proposals[created.ID].Status != entity.ProposalStatusPending {
		t.Error("proposal should stay pending when the listing is no longer active")
	}
}

func TestGetByListingSellerOnly(t *testing.T) {
	env := newTestEnv()
	sellerID := uuid.New()
	listing := env.listings.add(sellerID, 40, entity.ListingStatusActive)

	if _, err := env.svc.GetByListing(context.Background(), sellerID, listing.ID); err != nil {
		t.Errorf("seller should list proposals: %v", err)
	}
	if _, err := env.svc.GetByListing(context.Background(), uuid.New(), listing.ID); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("stranger error = %v, want ErrForbidden", err)
	}
}
