package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"adreset/internal/auth"
	"adreset/internal/config"
	"adreset/internal/database"
	"adreset/internal/handler"
	"adreset/internal/lockout"
	"adreset/web"
)

func Start(cfg *config.Config, version string) error {
	db, err := database.Open(cfg.Database.DSN, web.MigrationsFS())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.PurgeExpiredTokens(); err != nil {
		log.Printf("Failed to purge expired tokens: %v", err)
	}
	lockoutWindow := time.Duration(cfg.Reset.LockoutMinutes) * time.Minute
	if err := db.PruneFailedAttempts(time.Now().UTC().Add(-lockoutWindow)); err != nil {
		log.Printf("Failed to prune stale failed attempts: %v", err)
	}

	tokens := auth.NewTokenManager(cfg.Token, cfg.AD, db)
	tracker := lockout.NewTracker(db, cfg.Reset.LockoutMinutes, cfg.Reset.AttemptsBeforeLockout)

	authH := handler.NewAuthHandler(db, tokens, cfg)
	questionH := handler.NewQuestionHandler(db)
	answerH := handler.NewAnswerHandler(db, cfg)
	resetH := handler.NewResetHandler(db, tracker, cfg)
	statusH := handler.NewStatusHandler(cfg)
	auditH := handler.NewAuditHandler(db)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/about", authH.About(version))
	mux.HandleFunc("POST /api/v1/login", authH.Login)
	mux.HandleFunc("POST /api/v1/logout", authH.Logout)
	mux.HandleFunc("POST /api/v1/reset", resetH.Reset)

	mux.HandleFunc("GET /api/v1/questions", questionH.List)
	mux.HandleFunc("GET /api/v1/questions/{questionID}", questionH.Get)
	mux.HandleFunc("POST /api/v1/questions", tokens.RequireAdmin(questionH.Create))
	mux.HandleFunc("PATCH /api/v1/questions/{questionID}", tokens.RequireAdmin(questionH.Patch))

	mux.HandleFunc("POST /api/v1/answers", tokens.RequireUser(answerH.Set))
	mux.HandleFunc("GET /api/v1/answers", tokens.RequireUser(answerH.List))
	mux.HandleFunc("DELETE /api/v1/answers", tokens.RequireUser(answerH.Delete))
	mux.HandleFunc("GET /api/v1/answers/{username}", answerH.ListForUser)

	mux.HandleFunc("GET /api/v1/account-status/{username}", tokens.RequireAdmin(statusH.Get))
	mux.HandleFunc("GET /api/v1/audit", tokens.RequireAdmin(auditH.List))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Printf("adreset server starting on %s", addr)
	return http.ListenAndServe(addr, mux)
}
