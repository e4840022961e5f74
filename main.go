// Package main decor rental API.
//
// @title           Decor Rental API
// @version         1.0
// @description     Event decor rental storefront: catalog, cart, availability-checked checkout and admin booking review.
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"decorrental/app/echoServer"
	adminctrl "decorrental/app/echoServer/controller/admin"
	cartctrl "decorrental/app/echoServer/controller/cart"
	checkoutctrl "decorrental/app/echoServer/controller/checkout"
	itemctrl "decorrental/app/echoServer/controller/item"
	livectrl "decorrental/app/echoServer/controller/live"
	sessionctrl "decorrental/app/echoServer/controller/session"
	"decorrental/app/echoServer/validation"
	"decorrental/config"
	"decorrental/model"
	bookingrepo "decorrental/repository/booking"
	itemrepo "decorrental/repository/item"
	adminsvc "decorrental/service/admin"
	cartsvc "decorrental/service/cart"
	catalogsvc "decorrental/service/catalog"
	checkoutsvc "decorrental/service/checkout"
	identitysvc "decorrental/service/identity"
	"decorrental/service/watcher"
	"decorrental/util/connection"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

func main() {

	cfg := config.Load()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB + change feed
	h, err := connection.Connect(ctx, connection.Config{
		DatabaseURL:  cfg.DatabaseURL,
		FeedBackend:  cfg.FeedBackend,
		RedisURL:     cfg.RedisURL,
		AMQPURL:      cfg.AMQPURL,
		AMQPExchange: cfg.AMQPExchange,
	})
	if err != nil {
		log.Error("connect failed", "err", err)
		os.Exit(1)
	}
	defer h.Disconnect()

	if err := h.DB.Migrate(ctx); err != nil {
		log.Error("migrate failed", "err", err)
		os.Exit(1)
	}

	// repos
	ir := itemrepo.New(h.DB.Pool, cfg.AppID, h.Feed)
	br := bookingrepo.New(h.DB.Pool, cfg.AppID, h.Feed)

	// live mirrors
	catalog := catalogsvc.New()
	bookings := watcher.NewMirror[model.Booking]()

	itemW := watcher.New[model.Item](h.Feed, itemrepo.CollectionPath(cfg.AppID), ir.List, log)
	bookingW := watcher.New[model.Booking](h.Feed, bookingrepo.CollectionPath(cfg.AppID), br.List, log)
	go itemW.Run(ctx, catalog.Apply)
	go bookingW.Run(ctx, bookings.Apply)

	// services
	carts := cartsvc.NewStore()
	go cartsvc.RunCleaner(ctx, cartsvc.NewCleaner(carts, cfg.CartIdleTTL), 10*time.Minute, log)
	ids := identitysvc.New(cfg.JWTSecret, cfg.CustomTokenSecret)
	cos := checkoutsvc.New(carts, catalog, br, checkoutsvc.WithStrict(cfg.CheckoutStrict))
	cs := cartsvc.NewService(carts, catalog, cos)
	as := adminsvc.New(bookings, catalog, br, ir)

	// controllers
	v := validation.Engine()
	sessionC := &sessionctrl.Controller{Svc: ids, V: v, Log: log}
	itemC := &itemctrl.Controller{Svc: catalog, Avail: cos, Log: log}
	cartC := &cartctrl.Controller{Svc: cs, V: v, Log: log}
	checkoutC := &checkoutctrl.Controller{Svc: cos, V: v, Log: log}
	adminC := &adminctrl.Controller{Svc: as, V: v, Log: log}
	liveC := &livectrl.Controller{Items: catalog.Mirror(), Bookings: bookings, Log: log, Stop: ctx}

	// echo
	e := echo.New()
	e.HideBanner = true
	echoServer.RegisterMiddlewares(e, log)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		status := http.StatusOK
		if !catalog.Ready() || !bookings.Ready() {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, map[string]any{
			"status":           http.StatusText(status),
			"catalog_ready":    catalog.Ready(),
			"bookings_ready":   bookings.Ready(),
			"feed_backend":     cfg.FeedBackend,
			"checkout_strict":  cfg.CheckoutStrict,
			"bookings_version": bookings.Version(),
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Session:  sessionC,
		Item:     itemC,
		Cart:     cartC,
		Checkout: checkoutC,
		Admin:    adminC,
		Live:     liveC,

		JWTSecret: cfg.JWTSecret,
	})

	log.Info("starting server", "PORT_env", os.Getenv("PORT"), "chosen_port", cfg.Port, "app_id", cfg.AppID)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", "err", err)
	}
}
