// Package main API Server 入口
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-blog/internal/apiserver/auth"
	"campus-blog/internal/apiserver/server"
	"campus-blog/internal/config"
	"campus-blog/internal/shared/objstore"
	"campus-blog/internal/shared/storage"
	"campus-blog/internal/shared/storage/driver/sqlite"
	"campus-blog/internal/shared/storage/mongostore"
	"campus-blog/internal/shared/storage/repository"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换配置文件）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化持久化存储
	store, err := openStore(cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer store.Close()

	// 初始化封面图对象存储（可选）
	var covers *objstore.Client
	osCfg := objstore.Config{
		Endpoint:  cfg.MinIO.Endpoint,
		AccessKey: cfg.MinIO.AccessKey,
		SecretKey: cfg.MinIO.SecretKey,
		UseSSL:    cfg.MinIO.UseSSL,
		Bucket:    cfg.MinIO.Bucket,
	}
	if osCfg.Enabled() {
		covers, err = objstore.NewClient(osCfg)
		if err != nil {
			log.Fatalf("Failed to connect to MinIO: %v", err)
		}
		if err := covers.EnsureBucket(context.Background()); err != nil {
			log.Fatalf("Failed to ensure MinIO bucket: %v", err)
		}
		log.Printf("Connected to MinIO at %s", cfg.MinIO.Endpoint)
	} else {
		log.Println("Object storage disabled, cover images stored inline")
	}

	authCfg := auth.DefaultConfig()
	authCfg.JWTSecret = cfg.Auth.JWTSecret
	authCfg.AdminEmail = cfg.Auth.AdminEmail
	authCfg.AdminPassword = cfg.Auth.AdminPassword
	if cfg.Auth.TokenTTL > 0 {
		authCfg.TokenTTL = cfg.Auth.TokenTTL
	}

	// 确保管理员用户存在
	if err := auth.EnsureAdminUser(store, authCfg.AdminEmail, authCfg.AdminPassword); err != nil {
		log.Fatalf("Failed to ensure admin user: %v", err)
	}

	h := server.NewHandler(store, covers, authCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}

// openStore 根据配置选择存储驱动
//   - mongodb（默认）: MongoDB 文档存储
//   - sqlite: 单文件 SQL 存储（开发/测试用）
func openStore(cfg *config.Config) (storage.PersistentStore, error) {
	switch cfg.Database.Driver {
	case "sqlite":
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		dialect := sqlite.NewDialect()
		if err := dialect.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		log.Printf("Connected to SQLite at %s", cfg.Database.Path)
		return repository.NewStore(db, dialect), nil
	case "mongodb", "":
		store, err := mongostore.NewStore(cfg.Database.URI, cfg.Database.Name)
		if err != nil {
			return nil, fmt.Errorf("connect mongodb: %w", err)
		}
		log.Printf("Connected to MongoDB (%s)", cfg.Database.Name)
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %q", cfg.Database.Driver)
	}
}
