package view

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	repo "campusshare.app/api/internal/modules/listing/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ViewService counts listing views in Redis (deduplicated per user per hour)
// and flushes the deltas to Postgres from a background worker.
type ViewService interface {
	IncrementView(ctx context.Context, listingID uuid.UUID, userID uuid.UUID) error
	StartViewSyncWorker(ctx context.Context)
}

type viewService struct {
	redisClient *redis.Client
	listingRepo repo.Repository
}

func NewViewService(redisClient *redis.Client, listingRepo repo.Repository) ViewService {
	return &viewService{
		redisClient: redisClient,
		listingRepo: listingRepo,
	}
}

func (s *viewService) IncrementView(ctx context.Context, listingID uuid.UUID, userID uuid.UUID) error {
	if s.redisClient == nil {
		// No Redis: count directly, no dedupe window
		return s.listingRepo.IncrementViews(ctx, listingID, 1)
	}

	userViewKey := fmt.Sprintf("listing:user_view:%s:%s", listingID, userID)

	exists, err := s.redisClient.Exists(ctx, userViewKey).Result()
	if err != nil {
		return fmt.Errorf("failed to check user view: %w", err)
	}

	// Already viewed within the last hour
	if exists == 1 {
		return nil
	}

	viewKey := fmt.Sprintf("listing:views:%s", listingID)
	if _, err := s.redisClient.Incr(ctx, viewKey).Result(); err != nil {
		return fmt.Errorf("failed to increment view: %w", err)
	}

	if _, err := s.redisClient.SAdd(ctx, "pending:listing_views", listingID.String()).Result(); err != nil {
		return fmt.Errorf("failed to add to pending: %w", err)
	}

	if _, err := s.redisClient.SetEx(ctx, userViewKey, "viewed", time.Hour).Result(); err != nil {
		return fmt.Errorf("failed to set user view: %w", err)
	}

	return nil
}

func (s *viewService) syncViewsToDB(ctx context.Context) {
	pendingKey := "pending:listing_views"

	listingIDs, err := s.redisClient.SMembers(ctx, pendingKey).Result()
	if err != nil {
		log.Printf("Error getting pending listing views: %v", err)
		return
	}

	if len(listingIDs) == 0 {
		return
	}

	for _, idStr := range listingIDs {
		listingID, err := uuid.Parse(idStr)
		if err != nil {
			log.Printf("Invalid listing ID %s: %v", idStr, err)
			continue
		}

		viewKey := fmt.Sprintf("listing:views:%s", listingID)
		viewCountStr, err := s.redisClient.Get(ctx, viewKey).Result()
		if err != nil && err != redis.Nil {
			log.Printf("Error getting view count for listing %s: %v", listingID, err)
			continue
		}

		viewCount, _ := strconv.Atoi(viewCountStr)
		if viewCount <= 0 {
			continue
		}

		if err := s.listingRepo.IncrementViews(ctx, listingID, viewCount); err != nil {
			log.Printf("Failed to flush views for listing %s: %v", listingID, err)
			continue
		}

		if _, err := s.redisClient.Del(ctx, viewKey).Result(); err != nil {
			log.Printf("Failed to reset view counter for listing %s: %v", listingID, err)
		}
	}

	if _, err := s.redisClient.Del(ctx, pendingKey).Result(); err != nil {
		log.Printf("Failed to clear pending view set: %v", err)
	}
}

func (s *viewService) StartViewSyncWorker(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.syncViewsToDB(ctx)
		case <-ctx.Done():
			return
		}
	}
}
