package service

import (
	"testing"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/pkg/payment"
	"github.com/qs3c/revastra_server/internal/pkg/storage"
	"github.com/qs3c/revastra_server/internal/repository"
	"github.com/qs3c/revastra_server/internal/testutil"
)

const testPaymentSecret = "rzp_test_secret"

// testEnv 所有服务共用一个 sqlite 内存库
type testEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	media     *storage.MemoryBucket
	chat      *storage.MemoryBucket
	jobs      *testutil.RecordingQueue
	publisher *testutil.RecordingPublisher
	presence  testutil.StaticPresence

	users         *repository.UserRepository
	usageRepo     *repository.UsageRepository
	passRepo      *repository.PassRepository
	listingRepo   *repository.ListingRepository
	convRepo      *repository.ConversationRepository
	msgRepo       *repository.MessageRepository
	reviewRepo    *repository.ReviewRepository
	wishlistRepo  *repository.WishlistRepository
	verifyRepo    *repository.VerificationRepository
	roleRepo      *repository.RoleRepository
	uploads       *UploadService
	passes        *PassService
	usage         *UsageService
	sessions      *SessionService
	listings      *ListingService
	chats         *ChatService
	reviews       *ReviewService
	wishlist      *WishlistService
	verifications *VerificationService
	admin         *AdminService
	userService   *UserService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvOn(t, testutil.SetupTestDB(t))
}

// newTestEnvOn 在给定数据库上组装服务
func newTestEnvOn(t *testing.T, db *gorm.DB) *testEnv {
	t.Helper()
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })

	cfg := &config.Config{
		Server: config.ServerConfig{Mode: "release"},
		JWT:    config.JWTConfig{Secret: "test-secret-key-for-testing", ExpireHours: 24},
		Pass:   config.PassConfig{ValidityDays: 30},
		Listing: config.ListingConfig{
			EarlyAccessHours: 24,
			MaxImages:        6,
		},
		Upload: config.UploadConfig{
			MaxSize:           1024 * 1024,
			AllowedExtensions: []string{".jpg", ".jpeg", ".png", ".webp"},
		},
	}

	env := &testEnv{
		db:        db,
		cfg:       cfg,
		media:     storage.NewMemoryBucket("media"),
		chat:      storage.NewMemoryBucket("chat"),
		jobs:      &testutil.RecordingQueue{},
		publisher: &testutil.RecordingPublisher{},
		presence:  testutil.StaticPresence{},

		users:        repository.NewUserRepository(db),
		usageRepo:    repository.NewUsageRepository(db),
		passRepo:     repository.NewPassRepository(db),
		listingRepo:  repository.NewListingRepository(db),
		convRepo:     repository.NewConversationRepository(db),
		msgRepo:      repository.NewMessageRepository(db),
		reviewRepo:   repository.NewReviewRepository(db),
		wishlistRepo: repository.NewWishlistRepository(db),
		verifyRepo:   repository.NewVerificationRepository(db),
		roleRepo:     repository.NewRoleRepository(db),
	}

	env.uploads = NewUploadService(&storage.Buckets{Media: env.media, Chat: env.chat}, &cfg.Upload)
	env.passes = NewPassService(db, env.passRepo, env.listingRepo, payment.NewVerifier(testPaymentSecret), &cfg.Pass)
	env.usage = NewUsageService(env.usageRepo, env.passes)
	env.sessions = NewSessionService(env.users, env.roleRepo, env.usageRepo, env.passes)
	env.listings = NewListingService(db, env.listingRepo, env.usageRepo, env.wishlistRepo, env.passes, env.uploads, &cfg.Listing)
	env.chats = NewChatService(db, env.convRepo, env.msgRepo, env.usageRepo, env.users, env.listingRepo,
		env.passes, env.uploads, env.publisher, env.presence, env.jobs, zerolog.Nop())
	env.reviews = NewReviewService(db, env.reviewRepo, env.listingRepo)
	env.wishlist = NewWishlistService(env.wishlistRepo, env.listingRepo)
	env.verifications = NewVerificationService(env.verifyRepo, env.users)
	env.admin = NewAdminService(db, env.users, env.roleRepo, env.listingRepo, env.verifyRepo, env.passRepo, env.msgRepo)
	env.userService = NewUserService(env.users, env.reviewRepo, env.listingRepo, env.passes, env.uploads)

	return env
}
