package main

import (
	"log"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/token"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	//ローカル開発用。CIや本番は環境変数で渡す
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := newLogger(cfg.GoEnv)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Item{},
		&model.Address{},
		&model.Favorite{},
		&model.Order{},
		&model.Notification{},
		&model.AuditLog{},
	); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	//Repository（GORM実装）生成
	userRepo := infraRepo.NewUserRepository(gormDB)
	rtRepo := infraRepo.NewRefreshTokenRepository(gormDB)
	itemRepo := infraRepo.NewItemRepository(gormDB)
	favRepo := infraRepo.NewFavoriteRepository(gormDB)
	addrRepo := infraRepo.NewAddressGormRepository(gormDB)
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	noteRepo := infraRepo.NewNotificationRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	//access token codec
	codec := token.NewCodec([]byte(cfg.JWTSecret), cfg.AccessTokenTTL)

	//Usecase生成
	authValidator := validator.NewAuthValidator(userRepo)
	authUC := usecase.NewAuthUsecase(userRepo, rtRepo, txManager, auditRepo, codec, authValidator, cfg.RefreshTokenTTL, logger)
	itemUC := usecase.NewItemUsecase(itemRepo, addrRepo)
	favUC := usecase.NewFavoriteUsecase(favRepo, itemRepo)
	addrUC := usecase.NewAddressUsecase(addrRepo)
	orderUC := usecase.NewOrderUsecase(txManager, userRepo, addrRepo, orderRepo)
	noteUC := usecase.NewNotificationUsecase(noteRepo)
	adminUserUC := usecase.NewAdminUserUsecase(userRepo, rtRepo, noteRepo, auditRepo, logger)
	adminOrderUC := usecase.NewAdminOrderUsecase(orderRepo)

	//Handler生成
	handlers := server.Handlers{
		Auth:         handler.NewAuthHandler(authUC, codec),
		Item:         handler.NewItemHandler(itemUC),
		Favorite:     handler.NewFavoriteHandler(favUC),
		Address:      handler.NewAddressHandler(addrUC),
		Order:        handler.NewOrderHandler(orderUC),
		Notification: handler.NewNotificationHandler(noteUC),
		Admin:        handler.NewAdminHandler(adminUserUC, adminOrderUC),
	}

	//Server起動
	e := server.New(codec, logger, handlers)
	if err := server.Start(e, ":"+cfg.Port); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}

func newLogger(goEnv string) (*zap.Logger, error) {
	if goEnv == "dev" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
