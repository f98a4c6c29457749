// Package main 初始化管理员账号与演示数据
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dumeirei/spacer-backend/internal/common/config"
	"github.com/dumeirei/spacer-backend/internal/common/crypto"
	"github.com/dumeirei/spacer-backend/internal/common/database"
	"github.com/dumeirei/spacer-backend/internal/common/logger"
	"github.com/dumeirei/spacer-backend/internal/models"
	"github.com/dumeirei/spacer-backend/internal/repository"
)

const (
	adminEmail           = "admin@spacer.com"
	defaultAdminPassword = "Admin123!"
	envAdminPassword     = "SEED_ADMIN_PASSWORD"
)

func main() {
	configPath := flag.String("config", "", "config file path")
	demo := flag.Bool("demo", false, "also create a demo owner, client and spaces")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db, models.All()...); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}

	s := &seeder{
		users:  repository.NewUserRepository(db),
		spaces: repository.NewSpaceRepository(db),
		hasher: crypto.NewHasher(cfg.Crypto.BcryptCost),
		log:    log,
	}

	ctx := context.Background()
	password := os.Getenv(envAdminPassword)
	if password == "" {
		password = defaultAdminPassword
	}
	if _, err := s.ensureUser(ctx, "Administrator", adminEmail, password, models.RoleAdmin); err != nil {
		log.Fatal("Failed to seed admin", zap.Error(err))
	}

	if *demo {
		if err := s.seedDemo(ctx); err != nil {
			log.Fatal("Failed to seed demo data", zap.Error(err))
		}
	}

	log.Info("Seed completed", zap.Bool("demo", *demo))
}

type seeder struct {
	users  *repository.UserRepository
	spaces *repository.SpaceRepository
	hasher *crypto.Hasher
	log    *zap.Logger
}

// ensureUser 邮箱不存在时创建用户，已存在则原样返回
func (s *seeder) ensureUser(ctx context.Context, name, email, password, role string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		s.log.Info("user already exists", zap.String("email", crypto.MaskEmail(email)))
		return user, nil
	}
	if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}
	user = &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsVerified:   true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.log.Info("user created",
		logger.UserID(user.ID),
		zap.String("email", crypto.MaskEmail(email)),
		zap.String("role", role),
	)
	return user, nil
}

func (s *seeder) seedDemo(ctx context.Context) error {
	owner, err := s.ensureUser(ctx, "Demo Owner", "owner@spacer.com", "Owner123!", models.RoleOwner)
	if err != nil {
		return err
	}
	if _, err := s.ensureUser(ctx, "Demo Client", "client@spacer.com", "Client123!", models.RoleClient); err != nil {
		return err
	}

	_, total, err := s.spaces.List(ctx, 0, 1, repository.SpaceFilter{OwnerID: owner.ID})
	if err != nil {
		return err
	}
	if total > 0 {
		return nil
	}

	demoSpaces := []*models.Space{
		{
			OwnerID:      owner.ID,
			Title:        "Sunny Loft",
			Description:  "Open-plan loft with natural light",
			Location:     "Berlin Mitte",
			Capacity:     12,
			Amenities:    []string{"wifi", "projector", "coffee"},
			PricePerHour: 45,
			PricePerDay:  300,
			IsAvailable:  true,
		},
		{
			OwnerID:      owner.ID,
			Title:        "Quiet Meeting Room",
			Description:  "Small room for focused meetings",
			Location:     "Paris 11e",
			Capacity:     4,
			Amenities:    []string{"wifi", "whiteboard"},
			PricePerHour: 20,
			PricePerDay:  120,
			IsAvailable:  true,
		},
	}
	for _, space := range demoSpaces {
		if err := s.spaces.Create(ctx, space); err != nil {
			return err
		}
		s.log.Info("space created", logger.SpaceID(space.ID), zap.String("title", space.Title))
	}
	return nil
}
