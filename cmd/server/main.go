package main

import (
	"github.com/julienschmidt/httprouter"

	"resbook/internal/bookings/admission"
	bookingHandler "resbook/internal/bookings/handler"
	bookingRepository "resbook/internal/bookings/repository"
	bookingService "resbook/internal/bookings/service"
	bookingValidator "resbook/internal/bookings/validator"
	"resbook/internal/events"
	resourceHandler "resbook/internal/resources/handler"
	resourceRepository "resbook/internal/resources/repository"
	resourceService "resbook/internal/resources/service"
	resourceValidator "resbook/internal/resources/validator"
	"resbook/pkg/app"
	"resbook/pkg/clock"
	"resbook/pkg/config"
	"resbook/pkg/contracts"
	kafka_config "resbook/pkg/kafka/config"
)

const ServiceName = "resbook"

// apiHandler registers every module's routes on one router.
type apiHandler struct {
	handlers []contracts.Handler
}

func (h *apiHandler) RegisterRoutes(router *httprouter.Router) {
	for _, handler := range h.handlers {
		handler.RegisterRoutes(router)
	}
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(func(msg string, args ...any) { cfg.Log.Info(msg, args...) })

	cfg.Log.Info("Starting resbook server")

	publisher, err := events.NewKafkaPublisher(cfg, kafkaCfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}
	defer publisher.Close()

	handler := initServices(cfg, publisher)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler)
	serverApp.Run()

	cfg.Client.GracefulShutdown()
}

func initServices(cfg *config.Config, publisher events.Publisher) contracts.Handler {
	resourceRepo := resourceRepository.NewMongoResourceRepository(cfg)
	resourceSvc := resourceService.NewResourceService(
		resourceRepo,
		resourceValidator.NewResourceValidator(cfg.Log),
		cfg,
	)

	bookingRepo := bookingRepository.NewMongoBookingRepository(cfg)
	engine := admission.NewEngine(bookingRepo, clock.System(), admission.Options{
		LeadTime:             cfg.BookingLeadTime,
		MaxConflictDetails:   cfg.MaxConflictDetails,
		SuggestionScanRounds: cfg.SuggestionScanRounds,
	})
	bookingSvc := bookingService.NewBookingService(
		bookingRepo,
		bookingRepository.NewBookingLockRepository(cfg),
		resourceRepo,
		engine,
		bookingValidator.NewBookingValidator(cfg.Log),
		publisher,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return &apiHandler{handlers: []contracts.Handler{
		bookingHandler.NewBookingHandler(bookingSvc, cfg.Log),
		resourceHandler.NewResourceHandler(resourceSvc, cfg.Log),
	}}
}
