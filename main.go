// Package main bookstore API.
//
// @title           Bookstore API
// @version         1.0
// @description     online bookstore backend (catalog, orders, admin).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey AdminKey
// @in header
// @name X-Admin-API-Key
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/indiangoerge/bookworld-digital-shelf/app/echoServer"
	adminctrl "github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/admin"
	bookctrl "github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/book"
	orderctrl "github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/order"
	userctrl "github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/controller/user"
	"github.com/indiangoerge/bookworld-digital-shelf/app/echoServer/validation"
	"github.com/indiangoerge/bookworld-digital-shelf/config"
	bookrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/book"
	orderrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/order"
	userrepo "github.com/indiangoerge/bookworld-digital-shelf/repository/user"
	booksvc "github.com/indiangoerge/bookworld-digital-shelf/service/book"
	importersvc "github.com/indiangoerge/bookworld-digital-shelf/service/importer"
	ordersvc "github.com/indiangoerge/bookworld-digital-shelf/service/order"
	usersvc "github.com/indiangoerge/bookworld-digital-shelf/service/user"
	"github.com/indiangoerge/bookworld-digital-shelf/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error("migration failed", "err", err)
		os.Exit(1)
	}

	// repos
	ur := userrepo.New(db)
	var br bookrepo.Repo = bookrepo.New(db)
	or := orderrepo.New(db)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		br = bookrepo.NewCached(br, rdb, log)
		log.Info("book cache enabled", "addr", cfg.RedisAddr)
	}

	// services
	us := usersvc.New(ur, cfg.JWTSecret)
	bs := booksvc.New(br)
	osvc := ordersvc.New(or)
	imp := importersvc.New(br, log, cfg.LogsPath)

	// controllers
	v := validator.New()
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	orderC := &orderctrl.Controller{Svc: osvc, V: v, Log: log}
	adminC := &adminctrl.Controller{
		Orders:        osvc,
		Importer:      imp,
		ImportCSVPath: cfg.ImportCSVPath,
		V:             v,
		Log:           log,
	}

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		User:        userC,
		Book:        bookC,
		Order:       orderC,
		Admin:       adminC,
		JWTSecret:   cfg.JWTSecret,
		AdminAPIKey: cfg.AdminAPIKey,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	log.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
