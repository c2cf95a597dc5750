package service

import (
	"scam-alert-service/config"
	"scam-alert-service/database"
	"scam-alert-service/dispatch"
	"scam-alert-service/handlers"
	"scam-alert-service/push"

	"github.com/apex/log"
)

// Service wires the database, trend dispatcher and HTTP handlers together
type Service struct {
	cfg        *config.Config
	db         *database.Database
	dispatcher *dispatch.Dispatcher
	handlers   *handlers.Handlers
}

// NewService creates the service and prepares the schema
func NewService(cfg *config.Config) (*Service, error) {
	db, err := database.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.InitSchema(); err != nil {
		db.Close()
		return nil, err
	}

	pushClient := push.NewClient(cfg.FCMEndpoint, cfg.FCMServerKey)
	if pushClient == nil {
		log.Warn("FCM server key not configured, push delivery disabled")
	}

	return &Service{
		cfg:        cfg,
		db:         db,
		dispatcher: dispatch.NewDispatcher(db, pushClient, cfg.DispatchInterval, cfg.LookbackHours),
		handlers:   handlers.NewHandlers(db, cfg),
	}, nil
}

// Start launches the background dispatch loop
func (s *Service) Start() {
	s.dispatcher.Start()
	log.Info("Scam alert service started")
}

// Stop shuts down the dispatch loop and closes the database
func (s *Service) Stop() {
	s.dispatcher.Stop()

	if err := s.db.Close(); err != nil {
		log.Errorf("Error closing database: %v", err)
	}

	log.Info("Scam alert service stopped")
}

// GetHandlers returns the HTTP handlers
func (s *Service) GetHandlers() *handlers.Handlers {
	return s.handlers
}
