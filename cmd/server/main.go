package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workin-messenger/config"
	"workin-messenger/internal/handler"
	"workin-messenger/internal/model"
	"workin-messenger/internal/repository"
	"workin-messenger/internal/service"
	dbPkg "workin-messenger/pkg/db"
	"workin-messenger/pkg/jwt"
	"workin-messenger/pkg/logger"
	"workin-messenger/pkg/password"
	"workin-messenger/pkg/phone"
	"workin-messenger/pkg/storage"
	"workin-messenger/pkg/validation"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 1. 加载配置
	cfg := config.LoadConfig()

	// 2. 初始化日志系统
	log := logger.InitLogger(cfg.Log)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.Fatal("配置无效", zap.Error(err))
	}

	log.Info("=== workin-messenger 启动 ===")
	log.Info("服务器配置信息",
		zap.String("port", cfg.Server.Port),
		zap.String("database_driver", cfg.Database.Driver),
		zap.String("database_host", cfg.Database.Host),
		zap.Int("database_port", cfg.Database.Port),
		zap.String("database_name", cfg.Database.Database),
		zap.String("jwt_algorithm", cfg.JWT.Algorithm),
		zap.Duration("jwt_expire_time", cfg.JWT.ExpireTime()),
		zap.String("avatar_dir", cfg.Media.AvatarDir),
		zap.String("log_level", cfg.Log.Level),
	)

	validation.Init()

	// 3. 初始化数据库连接
	db, err := dbPkg.InitDB(cfg.Database)
	if err != nil {
		log.Fatal("数据库连接失败", zap.Error(err))
	}
	defer func() {
		if err := dbPkg.CloseDB(); err != nil {
			log.Error("关闭数据库连接失败", zap.Error(err))
		}
	}()
	log.Info("数据库连接成功")

	// 3.1 自动迁移表结构
	if err := dbPkg.AutoMigrate(&model.Avatar{}, &model.User{}, &model.Message{}); err != nil {
		log.Fatal("自动迁移失败", zap.Error(err))
	}
	log.Info("自动迁移完成")

	// 3.2 初始化业务服务
	avatars, err := storage.NewAvatarStore(cfg.Media.AvatarDir)
	if err != nil {
		log.Fatal("头像目录不可用", zap.Error(err))
	}
	jwtSvc, err := jwt.NewJWTService(cfg.JWT)
	if err != nil {
		log.Fatal("JWT配置无效", zap.Error(err))
	}
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	userSvc := service.NewUserService(userRepo, password.NewHasher(bcrypt.DefaultCost),
		phone.NewValidator(cfg.Phone.DefaultRegion), avatars, jwtSvc)
	messageSvc := service.NewMessageService(messageRepo, userRepo)

	// 4. 设置Gin模式
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 5. 创建Gin路由
	router := handler.NewRouter(handler.RouterOptions{
		Users:       handler.NewUserHandler(userSvc, cfg.Media.MaxAvatarSize),
		Messages:    handler.NewMessageHandler(messageSvc),
		Resolver:    service.NewIdentityResolver(jwtSvc, userRepo),
		AvatarDir:   avatars.Dir(),
		HealthCheck: dbPkg.HealthCheck,
	})

	// 6. 创建HTTP服务器
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 7. 启动HTTP服务器
	go func() {
		log.Info("HTTP服务器启动", zap.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP服务器启动失败", zap.Error(err))
		}
	}()

	// 8. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("正在关闭服务器...")

	// 设置关闭超时
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// 关闭HTTP服务器
	if err := server.Shutdown(ctx); err != nil {
		log.Error("HTTP服务器关闭失败", zap.Error(err))
	}

	log.Info("服务器已安全关闭")
}
